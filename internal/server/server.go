package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/ziadkadry99/esp-finder/internal/tasks"
)

// Config holds server configuration.
type Config struct {
	Port           int
	UploadDir      string // uploaded spreadsheets
	ProcessedDir   string // result files served by /download
	AllowAll       bool   // allow all CORS origins (dev mode)
	MaxUploadBytes int64
}

// Identifier names the ESP of a single address.
type Identifier interface {
	Identify(ctx context.Context, email string) string
}

// Server is the ESP lookup HTTP API.
type Server struct {
	cfg        Config
	store      *tasks.Store
	runner     *tasks.Runner
	identifier func() Identifier
	router     chi.Router
	httpServer *http.Server
}

// New creates a server. newIdentifier is called once per /identify request.
func New(cfg Config, store *tasks.Store, runner *tasks.Runner, newIdentifier func() Identifier) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
	s := &Server{
		cfg:        cfg,
		store:      store,
		runner:     runner,
		identifier: newIdentifier,
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/upload", s.handleUpload)
	r.Post("/process", s.handleProcess)
	r.Get("/progress/{taskID}", s.handleProgress)
	r.Get("/download/{name}", s.handleDownload)
	r.Post("/identify", s.handleIdentify)

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logrus.Infof("espfinder server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
