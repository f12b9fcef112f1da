package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"analysis-backend/cmd"
	"analysis-backend/internal/api"
	"analysis-backend/internal/config"
	"analysis-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func createServer(cfg config.Config, store *storage.DatasetStore) *http.Server {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	service := api.NewDatasetService(store, api.Options{
		AccessKeyHeader: cfg.AccessKeyHeader,
		MaxUploadBytes:  cfg.MaxUploadBytes(),
		ReportDPI:       cfg.ReportDPI,
	})
	service.AddRoutes(r)

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}
}

// runCleanup evicts expired datasets every interval until ctx is done.
func runCleanup(ctx context.Context, store *storage.DatasetStore, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if deleted, err := store.Cleanup(ctx, maxAge); err != nil {
			slog.Error("storage cleanup failed", "deleted", deleted, "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func main() {
	log.Println("Starting API Server...")

	cmd.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store, err := cmd.CreateDatasetStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize dataset storage: %v", err)
	}

	go runCleanup(ctx, store, cfg.CleanupInterval, cfg.DatasetMaxAge)

	server := createServer(cfg, store)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down server")

		stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	slog.Info("server started", "port", cfg.Port, "max_age", cfg.DatasetMaxAge, "cleanup_interval", cfg.CleanupInterval)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %d: %v\n", cfg.Port, err)
	}

	slog.Info("server stopped")
}
