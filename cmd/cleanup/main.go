package main

import (
	"context"
	"log"
	"log/slog"

	"analysis-backend/cmd"
	"analysis-backend/internal/config"
)

func main() {
	cmd.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx := context.Background()

	store, err := cmd.CreateDatasetStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize dataset storage: %v", err)
	}

	slog.Info("starting storage cleanup", "max_age", cfg.DatasetMaxAge)
	deleted, err := store.Cleanup(ctx, cfg.DatasetMaxAge)
	if err != nil {
		log.Fatalf("Cleanup finished with errors after deleting %d dataset(s): %v", deleted, err)
	}
	log.Printf("Cleanup complete, %d dataset(s) deleted", deleted)
}
