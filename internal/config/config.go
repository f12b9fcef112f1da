package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port       int    `env:"PORT" envDefault:"8001"`
	StorageDir string `env:"STORAGE_DIR" envDefault:"./data"`

	// DatabaseURL selects postgres. When empty the metadata is kept in a
	// sqlite file under StorageDir.
	DatabaseURL string `env:"DATABASE_URL"`

	// S3Bucket switches dataset blobs from the local directory to S3.
	S3Bucket          string `env:"S3_BUCKET"`
	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string `env:"AWS_REGION" envDefault:"us-east-1"`

	DatasetMaxAge   time.Duration `env:"DATASET_MAX_AGE" envDefault:"24h"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"12h"`

	MaxUploadMB     int64         `env:"MAX_UPLOAD_MB" envDefault:"100"`
	AccessKeyHeader string        `env:"ACCESS_KEY_HEADER" envDefault:"X-Dataset-Token"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"120s"`
	ReportDPI       int           `env:"REPORT_DPI" envDefault:"200"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.DatasetMaxAge <= 0:
		return fmt.Errorf("DATASET_MAX_AGE must be positive, got %s", c.DatasetMaxAge)
	case c.CleanupInterval <= 0:
		return fmt.Errorf("CLEANUP_INTERVAL must be positive, got %s", c.CleanupInterval)
	case c.MaxUploadMB <= 0:
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	case c.ReportDPI <= 0:
		return fmt.Errorf("REPORT_DPI must be positive, got %d", c.ReportDPI)
	case strings.TrimSpace(c.AccessKeyHeader) == "":
		return fmt.Errorf("ACCESS_KEY_HEADER must not be empty")
	}
	return nil
}

func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB * 1024 * 1024
}

func (c Config) UseS3() bool {
	return c.S3Bucket != ""
}

// Bucket is the bucket (or directory under StorageDir) holding dataset blobs.
func (c Config) Bucket() string {
	if c.UseS3() {
		return c.S3Bucket
	}
	return "datasets"
}

func (c Config) SQLitePath() string {
	return filepath.Join(c.StorageDir, "db", "datasets.db")
}
