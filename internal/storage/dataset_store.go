package storage

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"analysis-backend/internal/core/utils"
	"analysis-backend/internal/database"
	"analysis-backend/internal/dataset"
	"analysis-backend/internal/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	datasetPrefix = "datasets/"

	maxConcurrentWriters = 1024
	cleanupWorkers       = 8
)

var errAccessDenied = &errs.StorageError{
	Message: "Dataset not found or access key is invalid.",
	Code:    http.StatusNotFound,
}

// DatasetStore keeps each dataset as a JSON blob in a Provider bucket and its
// metadata in the database. A dataset is only returned to callers presenting
// the access key it was stored with.
type DatasetStore struct {
	db       *gorm.DB
	provider Provider
	bucket   string

	locks *utils.MutexMap[uuid.UUID]
	now   func() time.Time
}

func NewDatasetStore(db *gorm.DB, provider Provider, bucket string) *DatasetStore {
	return &DatasetStore{
		db:       db,
		provider: provider,
		bucket:   bucket,
		locks:    utils.NewMutexMap[uuid.UUID](maxConcurrentWriters),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *DatasetStore) Init(ctx context.Context) error {
	if err := s.provider.CreateBucket(ctx, s.bucket); err != nil {
		return fmt.Errorf("error creating bucket %s: %w", s.bucket, err)
	}
	return nil
}

func objectKey(id uuid.UUID) string {
	return datasetPrefix + id.String() + ".json"
}

func hashAccessKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func newAccessKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func storageFailure(msg string, err error) error {
	slog.Error(msg, "error", err)
	return &errs.StorageError{Message: msg, Code: http.StatusInternalServerError}
}

// Put stores ds under id. A nil id or an empty access key is replaced by a
// freshly generated one; both are returned. Overwriting an existing dataset
// requires its access key.
func (s *DatasetStore) Put(ctx context.Context, ds *dataset.Dataset, id uuid.UUID, accessKey string) (uuid.UUID, string, error) {
	if id == uuid.Nil {
		id = uuid.New()
	}
	if accessKey == "" {
		key, err := newAccessKey()
		if err != nil {
			return uuid.Nil, "", storageFailure("Unable to generate access key.", err)
		}
		accessKey = key
	}

	data, err := json.Marshal(ds)
	if err != nil {
		return uuid.Nil, "", storageFailure("Unable to serialize dataset.", err)
	}

	dtypes := make([]database.ColumnType, 0, ds.NumColumns())
	for _, t := range ds.Dtypes() {
		dtypes = append(dtypes, database.ColumnType{Name: t.Name, Kind: string(t.Kind)})
	}

	err = s.locks.WithLock(id, func() error {
		existing, err := database.GetDataset(ctx, s.db, id)
		switch {
		case errors.Is(err, database.ErrDatasetNotFound):
		case err != nil:
			return storageFailure("Unable to save dataset.", err)
		case !s.keyMatches(existing, accessKey):
			return errAccessDenied
		}

		now := s.now()
		record := &database.Dataset{
			Id:            id,
			AccessKeyHash: hashAccessKey(accessKey),
			ObjectKey:     objectKey(id),
			NumRows:       ds.NumRows(),
			NumColumns:    ds.NumColumns(),
			Dtypes:        dtypes,
			CreationTime:  now,
			UpdateTime:    now,
		}

		if err := s.provider.PutObject(ctx, s.bucket, record.ObjectKey, bytes.NewReader(data)); err != nil {
			return storageFailure("Unable to save dataset.", err)
		}
		if err := database.SaveDataset(ctx, s.db, record); err != nil {
			return storageFailure("Unable to save dataset.", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, "", err
	}

	slog.Info("dataset stored", "dataset_id", id, "rows", ds.NumRows(), "columns", ds.NumColumns())
	return id, accessKey, nil
}

func (s *DatasetStore) keyMatches(record *database.Dataset, accessKey string) bool {
	return subtle.ConstantTimeCompare([]byte(record.AccessKeyHash), []byte(hashAccessKey(accessKey))) == 1
}

// Get loads the dataset stored under id. An unknown id and a wrong access key
// produce the same error.
func (s *DatasetStore) Get(ctx context.Context, id uuid.UUID, accessKey string) (*dataset.Dataset, *database.Dataset, error) {
	record, err := database.GetDataset(ctx, s.db, id)
	if errors.Is(err, database.ErrDatasetNotFound) {
		return nil, nil, errAccessDenied
	}
	if err != nil {
		return nil, nil, storageFailure("Unable to load dataset.", err)
	}
	if !s.keyMatches(record, accessKey) {
		return nil, nil, errAccessDenied
	}

	data, err := s.provider.GetObject(ctx, s.bucket, record.ObjectKey)
	if errors.Is(err, ErrObjectNotFound) {
		slog.Warn("dataset record without object", "dataset_id", id, "object_key", record.ObjectKey)
		return nil, nil, errAccessDenied
	}
	if err != nil {
		return nil, nil, storageFailure("Unable to load dataset.", err)
	}

	var ds dataset.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, nil, storageFailure("Unable to decode stored dataset.", err)
	}
	return &ds, record, nil
}

// Cleanup deletes every dataset not updated within maxAge, then removes
// objects older than maxAge that no record points to. It returns the number
// of datasets deleted.
func (s *DatasetStore) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := s.now().Add(-maxAge)

	expired, err := database.ListExpiredDatasets(ctx, s.db, cutoff)
	if err != nil {
		return 0, err
	}

	results := utils.RunInPool(expired, func(record database.Dataset) (struct{}, error) {
		return struct{}{}, s.locks.WithLock(record.Id, func() error {
			if err := s.provider.DeleteObject(ctx, s.bucket, record.ObjectKey); err != nil {
				return err
			}
			return database.DeleteDataset(ctx, s.db, record.Id)
		})
	}, cleanupWorkers)

	deleted := 0
	var failures []error
	for _, res := range results {
		if res.Error != nil {
			slog.Error("error deleting expired dataset", "dataset_id", res.Input.Id, "error", res.Error)
			failures = append(failures, res.Error)
			continue
		}
		deleted++
	}

	orphans, err := s.removeOrphans(ctx, cutoff)
	if err != nil {
		failures = append(failures, err)
	}

	slog.Info("cleanup finished", "deleted_datasets", deleted, "deleted_orphans", orphans, "failures", len(failures))

	return deleted, errors.Join(failures...)
}

func (s *DatasetStore) removeOrphans(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	for obj, err := range s.provider.IterObjects(ctx, s.bucket, datasetPrefix) {
		if err != nil {
			return removed, err
		}
		if obj.LastModified.After(cutoff) || !strings.HasSuffix(obj.Name, ".json") {
			continue
		}

		exists, err := database.DatasetObjectExists(ctx, s.db, obj.Name)
		if err != nil {
			return removed, err
		}
		if exists {
			continue
		}

		if err := s.provider.DeleteObject(ctx, s.bucket, obj.Name); err != nil {
			return removed, err
		}
		slog.Info("removed orphaned dataset object", "object_key", obj.Name)
		removed++
	}
	return removed, nil
}
