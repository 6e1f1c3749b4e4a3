package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/intellidoc/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/intellidoc/internal/api/middlewares"
	"github.com/markdave123-py/intellidoc/internal/config"
	"github.com/markdave123-py/intellidoc/internal/core"
	"github.com/markdave123-py/intellidoc/internal/core/pipeline"
	"github.com/markdave123-py/intellidoc/internal/core/query"
	"github.com/markdave123-py/intellidoc/internal/core/vectorindex"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, store core.RecordStore, objects core.ObjectStore,
	pl *pipeline.Pipeline, engine *query.Engine, index vectorindex.Index) *Server {

	authHandler := handlers.NewAuthHandler(store, cfg.JWTSecret)
	docHandler := handlers.NewDocumentHandler(store, objects, pl, engine)
	analyticsHandler := handlers.NewAnalyticsHandler(store, index)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/signup", authHandler.Signup)
		api.Post("/login", authHandler.Login)

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWT(cfg.JWTSecret))

			protected.Post("/documents/upload", docHandler.Upload)
			protected.Get("/documents", docHandler.List)
			protected.Get("/documents/{documentID}", docHandler.Get)
			protected.Delete("/documents/{documentID}", docHandler.Delete)
			protected.Post("/documents/{documentID}/query", docHandler.Ask)
			protected.Get("/documents/{documentID}/analyses", analyticsHandler.Analyses)
			protected.Post("/search", docHandler.Search)
			protected.Get("/analytics/dashboard", analyticsHandler.Dashboard)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv}
}

// Start runs the HTTP server.
func (s *Server) Start() {
	log.Printf("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
