package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"sedes/internal"
	"sedes/internal/config"
	"sedes/internal/container"
	"sedes/ui"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))
	gin.SetMode(appConfig.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(appConfig, logger)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	if err := appContainer.InitWithDatabase(ctx); err != nil {
		log.Fatalf("Failed to initialize load history: %v", err)
	}

	dashboard := appContainer.Build()

	// A failed first load leaves the API up and answering NOT_LOADED until a
	// reload succeeds.
	loadCtx, cancel := context.WithTimeout(ctx, appConfig.Source.FetchTimeout)
	if _, err := dashboard.Load(loadCtx); err != nil {
		logger.Error("initial load failed: %v", err)
	}
	cancel()

	api := ui.NewServer(dashboard, ui.ServerOptions{
		CORSOrigins: appConfig.Server.CORSOrigins,
		SessionTTL:  appConfig.Server.SessionTTL,
	}, logger)
	servers := []*http.Server{api.HTTPServer(":" + appConfig.Server.Port)}

	if appConfig.Admin.Enabled {
		admin := ui.NewAdminRouter(dashboard, appConfig.Source.FetchTimeout, logger)
		servers = append(servers, &http.Server{
			Addr:              ":" + appConfig.Admin.Port,
			Handler:           admin,
			ReadHeaderTimeout: 10 * time.Second,
		})
		logger.Info("admin listening on :%s (pprof at /debug/pprof)", appConfig.Admin.Port)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := dashboard.PruneSessions(appConfig.Server.SessionTTL); n > 0 {
					logger.Debug("pruned %d idle sessions", n)
				}
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("shutdown %s: %v", srv.Addr, err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	logger.Info("stopped")
}
