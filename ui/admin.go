package ui

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"sedes/app"
	"sedes/internal"
	"sedes/internal/errors"
)

// AdminRouter serves health checks, manual reloads, load history and pprof
// on a separate listener.
type AdminRouter struct {
	router  *chi.Mux
	service *app.DashboardService
	timeout time.Duration
	logger  *internal.Logger
}

// NewAdminRouter creates the admin router. reloadTimeout bounds a manual reload.
func NewAdminRouter(service *app.DashboardService, reloadTimeout time.Duration, logger *internal.Logger) *AdminRouter {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	a := &AdminRouter{
		router:  chi.NewRouter(),
		service: service,
		timeout: reloadTimeout,
		logger:  logger.Named("Admin"),
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

func (a *AdminRouter) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
}

func (a *AdminRouter) setupRoutes() {
	a.router.Get("/healthz", a.handleHealth)
	a.router.Get("/readyz", a.handleReady)
	a.router.Route("/admin", func(r chi.Router) {
		r.Post("/reload", a.handleReload)
		r.Get("/loads", a.handleLoads)
	})
	a.router.Mount("/debug", middleware.Profiler())
}

// ServeHTTP implements http.Handler
func (a *AdminRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (a *AdminRouter) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	writeJSON(w, statusForCode(code), map[string]string{"error": err.Error(), "code": code})
}

func (a *AdminRouter) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"loaded":   a.service.Loaded(),
		"sessions": a.service.SessionCount(),
	})
}

func (a *AdminRouter) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := a.service.RecordSet(); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (a *AdminRouter) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	rs, err := a.service.Load(ctx)
	if err != nil {
		a.logger.Warn("manual reload failed: %v", err)
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"records":     rs.Len(),
		"fingerprint": rs.Fingerprint.String(),
		"source":      rs.Source,
	})
}

func (a *AdminRouter) handleLoads(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := a.service.LoadHistory(r.Context(), limit)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"loads": runs})
}
