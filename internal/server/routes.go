package server

import (
	"log"

	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kwmetrics/internal/db"
	"kwmetrics/internal/handlers"
	"kwmetrics/internal/handlers/api"
	"kwmetrics/internal/ingest"
	"kwmetrics/internal/store"
)

// RegisterRoutes registers all application routes. database may be nil when
// the upload registry is disabled.
func (s *Server) RegisterRoutes(svc *ingest.Service, st *store.Store, database *db.DB) {
	var (
		history handlers.History
		pinger  handlers.Pinger
		lookup  api.UploadLookup
	)
	if database != nil {
		history = database
		pinger = database
		lookup = database
	} else {
		log.Println("Upload registry disabled (DATABASE_URL not set)")
	}

	// Initialize handlers
	uploadHandler := handlers.NewUploadHandler(svc, s.Cfg)
	projectHandler := handlers.NewProjectHandler(st, history, s.Cfg)
	probeHandler := handlers.NewProbeHandler(st, pinger)
	apiUploadHandler := api.NewUploadHandler(svc, lookup)
	apiProjectHandler := api.NewProjectHandler(st, history)

	// Probes and metrics
	s.App.Get("/healthz", probeHandler.Liveness)
	s.App.Get("/readyz", probeHandler.Readiness)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Frontend routes
	s.App.Get("/", uploadHandler.Home)
	s.App.Post("/upload", uploadHandler.Upload)
	s.App.Get("/projects", projectHandler.List)
	s.App.Get("/projects/:name", projectHandler.Show)

	// JSON API
	v1 := s.App.Group("/api/v1")
	v1.Post("/uploads", apiUploadHandler.Create)
	v1.Get("/uploads/:id", apiUploadHandler.Get)
	v1.Get("/projects", apiProjectHandler.List)
	v1.Get("/projects/:name", apiProjectHandler.Get)
	v1.Get("/projects/:name/uploads", apiProjectHandler.Uploads)
}
