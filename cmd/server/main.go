package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"kwmetrics/internal/analysis"
	"kwmetrics/internal/config"
	"kwmetrics/internal/db"
	"kwmetrics/internal/ingest"
	"kwmetrics/internal/jobs"
	"kwmetrics/internal/logging"
	"kwmetrics/internal/metrics"
	"kwmetrics/internal/server"
	"kwmetrics/internal/store"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()
	logging.Configure(logging.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})

	profile, err := config.LoadProfile(cfg.ProfileFile)
	if err != nil {
		log.Fatalf("Failed to load ingest profile: %v", err)
	}

	st, err := store.New(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to initialize data dir: %v", err)
	}

	svcCfg := ingest.Config{
		Store:       st,
		Transformer: analysis.NewTransformer(profile.TransformOptions()),
		ReadOptions: profile.ReadOptions(),
		UploadDir:   cfg.UploadDir,
		Strict:      cfg.StrictPersistence,
	}

	// Upload registry (optional)
	var database *db.DB
	if cfg.IsRegistryEnabled() {
		database, err = db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()

		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Println("Migrations completed successfully")

		svcCfg.Recorder = database
		metrics.Init(database)
	} else {
		metrics.Init(nil)
	}

	svc := ingest.New(svcCfg)

	if cfg.RetainsUploads() {
		janitor := jobs.NewUploadJanitor(cfg.UploadDir, cfg.UploadSweepInterval, cfg.UploadRetention)
		go janitor.Start(ctx)
	}

	srv := server.New(cfg)
	srv.RegisterRoutes(svc, st, database)

	// Graceful shutdown
	go func() {
		if err := srv.Start(); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("Server started on %s (data dir %s)", cfg.ServerAddr, st.Dir())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	cancel()
	if err := srv.Shutdown(); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
