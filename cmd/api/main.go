package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"house-price-backend/cmd"
	"house-price-backend/internal/api"
	"house-price-backend/internal/auth"
	"house-price-backend/internal/config"
	"house-price-backend/internal/core"
	"house-price-backend/internal/database"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	log.Println("Starting API Server...")

	cmd.LoadEnvFile()

	cfg, err := config.LoadAPIConfig()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	fetchCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	err = cmd.FetchArtifacts(fetchCtx, cfg.Storage, cfg.Artifacts)
	cancel()
	if err != nil {
		log.Fatalf("Failed to fetch model artifacts: %v", err)
	}

	pipeline, err := cmd.LoadPipeline(cfg.Artifacts)
	if err != nil {
		log.Fatalf("Failed to load prediction pipeline: %v", err)
	}
	defer pipeline.Release()
	if cfg.Artifacts.OnnxRuntimeDylib != "" {
		defer func() {
			if err := core.DestroyOnnxRuntime(); err != nil {
				slog.Error("error destroying onnx env", "error", err)
			}
		}()
	}

	sink, closeSink, err := cmd.NewPredictionSink(cfg, db)
	if err != nil {
		log.Fatalf("Failed to create prediction sink: %v", err)
	}
	defer closeSink()

	sessions, err := auth.NewSessionManager(cfg.SecretKey, cfg.SessionTTL, cfg.SecureCookies)
	if err != nil {
		log.Fatalf("Failed to create session manager: %v", err)
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	apiHandler := api.NewBackendService(db, pipeline, sink, sessions)

	r.Route("/api/v1", func(r chi.Router) {
		apiHandler.AddRoutes(r)
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	slog.Info("server started", "port", cfg.Port, "persist_mode", cfg.PersistMode, "features", len(pipeline.FeatureNames()))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", cfg.Port, err)
	}

	slog.Info("server stopped")
}
