package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"path/filepath"

	"analysis-backend/internal/config"
	"analysis-backend/internal/database"
	"analysis-backend/internal/storage"

	"github.com/joho/godotenv"
)

func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", configPath)
	err := godotenv.Load(configPath)
	if err != nil {
		log.Fatalf("error loading .env file '%s': %v", configPath, err)
	}
}

func createProvider(cfg config.Config) (storage.Provider, error) {
	if cfg.UseS3() {
		slog.Info("storing datasets in s3", "bucket", cfg.S3Bucket, "endpoint", cfg.S3EndpointURL)
		return storage.NewS3Provider(&storage.S3ProviderConfig{
			S3EndpointURL:     cfg.S3EndpointURL,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
			S3Region:          cfg.S3Region,
		})
	}

	dir := filepath.Join(cfg.StorageDir, "objects")
	slog.Info("storing datasets on local disk", "dir", dir)
	return storage.NewLocalProvider(dir), nil
}

// CreateDatasetStore connects the metadata database and the object storage
// selected by cfg.
func CreateDatasetStore(ctx context.Context, cfg config.Config) (*storage.DatasetStore, error) {
	db, err := database.NewDatabase(cfg.DatabaseURL, cfg.SQLitePath())
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	provider, err := createProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating storage provider: %w", err)
	}

	store := storage.NewDatasetStore(db, provider, cfg.Bucket())
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}
