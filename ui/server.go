package ui

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"sedes/app"
	"sedes/internal"
)

// ServerOptions configures the public API
type ServerOptions struct {
	CORSOrigins []string
	SessionTTL  time.Duration
}

// Server is the JSON API consumed by the dashboard front end
type Server struct {
	router  *gin.Engine
	service *app.DashboardService
	options ServerOptions
	logger  *internal.Logger
}

// NewServer creates the API server and registers its routes
func NewServer(service *app.DashboardService, options ServerOptions, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if options.SessionTTL <= 0 {
		options.SessionTTL = 2 * time.Hour
	}
	if len(options.CORSOrigins) == 0 {
		options.CORSOrigins = []string{"*"}
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	s := &Server{
		router:  router,
		service: service,
		options: options,
		logger:  logger.Named("API"),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api", s.sessionMiddleware())
	{
		api.GET("/status", s.handleStatus)
		api.GET("/municipios", s.handleMunicipalities)
		api.GET("/categorias", s.handleCategories)

		api.GET("/search/sedes", s.handleSearchSites)
		api.GET("/search/categorias", s.handleSearchCategories)

		api.POST("/view/sede/:index", s.handleSelectSite)
		api.POST("/view/categoria", s.handleSelectCategory)
		api.POST("/view/municipio", s.handleSelectMunicipality)
		api.POST("/view/reset", s.handleReset)
		api.GET("/view", s.handleView)

		api.GET("/summary", s.handleSummary)
		api.GET("/records/:index", s.handleDetail)
	}

	s.router.GET("/report", s.sessionMiddleware(), s.handleReport)
}

// Handler returns the router wrapped with CORS handling
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.options.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	return c.Handler(s.router)
}

// HTTPServer builds the http.Server for addr
func (s *Server) HTTPServer(addr string) *http.Server {
	s.logger.Info("API listening on %s", addr)
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
