package integrationtests

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"analysis-backend/cmd"
	"analysis-backend/internal/api"
	"analysis-backend/internal/config"
	"analysis-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/minio"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	minioUsername = "admin"
	minioPassword = "password"
	minioRegion   = "us-east-1"
)

func skipShort(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test requires docker")
	}
}

func setupMinioContainer(t *testing.T, ctx context.Context) string {
	minioContainer, err := minio.Run(
		ctx,
		"minio/minio:RELEASE.2024-01-16T16-07-38Z",
		minio.WithUsername(minioUsername),
		minio.WithPassword(minioPassword),
	)
	require.NoError(t, err, "Failed to start MinIO container")

	t.Cleanup(func() {
		err := minioContainer.Terminate(context.Background())
		require.NoError(t, err, "Failed to terminate MinIO container")
	})

	connStr, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err, "Failed to get MinIO connection string")

	return "http://" + connStr
}

func setupPostgresContainer(t *testing.T, ctx context.Context) string {
	dbName, dbUser, dbPassword := "test_db", "test_user", "test_password"

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	t.Cleanup(func() {
		err := postgresContainer.Terminate(context.Background())
		require.NoError(t, err, "Failed to terminate PostgreSQL container")
	})

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get PostgreSQL connection string")

	return connStr
}

func newS3Provider(t *testing.T, endpoint string) *storage.S3Provider {
	provider, err := storage.NewS3Provider(&storage.S3ProviderConfig{
		S3EndpointURL:     endpoint,
		S3AccessKeyID:     minioUsername,
		S3SecretAccessKey: minioPassword,
		S3Region:          minioRegion,
	})
	require.NoError(t, err)
	return provider
}

// setupStore wires a DatasetStore to postgres and MinIO the same way the
// server binaries do.
func setupStore(t *testing.T, ctx context.Context) (*storage.DatasetStore, config.Config) {
	cfg := config.Config{
		StorageDir:        t.TempDir(),
		DatabaseURL:       setupPostgresContainer(t, ctx),
		S3Bucket:          "datasets",
		S3EndpointURL:     setupMinioContainer(t, ctx),
		S3AccessKeyID:     minioUsername,
		S3SecretAccessKey: minioPassword,
		S3Region:          minioRegion,
		DatasetMaxAge:     24 * time.Hour,
		AccessKeyHeader:   "X-Dataset-Token",
		ReportDPI:         72,
	}

	store, err := cmd.CreateDatasetStore(ctx, cfg)
	require.NoError(t, err)
	return store, cfg
}

func startServer(t *testing.T, store *storage.DatasetStore, cfg config.Config) *resty.Client {
	router := chi.NewRouter()
	api.NewDatasetService(store, api.Options{
		AccessKeyHeader: cfg.AccessKeyHeader,
		ReportDPI:       cfg.ReportDPI,
	}).AddRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return resty.New().SetBaseURL(server.URL).SetTimeout(2 * time.Minute)
}
