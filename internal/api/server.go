// It defines the API server, sets up the routes (endpoints)
// using chi, and links them to the handler functions.

package api

import (
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vrsandeep/xmlup/internal/assets"
	"github.com/vrsandeep/xmlup/internal/classify"
	"github.com/vrsandeep/xmlup/internal/collector"
	"github.com/vrsandeep/xmlup/internal/core"
)

// Server holds the dependencies for our API.
type Server struct {
	app       *core.App
	collector *collector.Collector
}

// NewServer creates a new Server instance. The server also hosts a
// collector at /upload so the default configuration works without a
// separate receiver.
func NewServer(app *core.App) *Server {
	rules := app.Config().Classify.Rules
	if len(rules) == 0 {
		rules = classify.DefaultRules
	}
	c, err := collector.New(rules)
	if err != nil {
		log.Fatalf("Failed to set up collector: %v", err)
	}
	return &Server{app: app, collector: c}
}

// Router sets up and returns the main router for the application.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/version", s.handleGetVersion)
		r.Get("/health", s.handleHealth)

		r.Post("/batches", s.handleCreateBatch)
		r.Get("/batch", s.handleGetBatch)
		// Item names may contain slashes when they come from archives.
		r.Get("/batch/items/*", s.handleGetBatchItem)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/jobs/status", s.handleGetAdminJobsStatus)
			r.Post("/jobs/run", s.handleRunAdminJob)
		})
	})

	r.Mount("/upload", s.collector.Routes())

	// WebSocket route; long lived, so outside the timeout middleware.
	r.Get("/ws/progress", func(w http.ResponseWriter, r *http.Request) {
		s.app.WsHub().ServeWs(w, r)
	})

	webFS, err := fs.Sub(assets.WebFS, "web")
	if err != nil {
		log.Fatalf("Failed to create web sub-filesystem: %v", err)
	}
	r.Handle("/*", http.FileServer(http.FS(webFS)))

	return r
}
