package database_test

import (
	"context"
	"testing"
	"time"

	"analysis-backend/internal/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.GetMigrator(db).Migrate())
	return db
}

func TestSaveDatasetUpserts(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	record := &database.Dataset{
		Id:            uuid.New(),
		AccessKeyHash: "hash",
		ObjectKey:     "datasets/a.json",
		NumRows:       3,
		NumColumns:    1,
		Dtypes:        []database.ColumnType{{Name: "a", Kind: "int64"}},
		CreationTime:  created,
		UpdateTime:    created,
	}
	require.NoError(t, database.SaveDataset(ctx, db, record))

	updated := *record
	updated.NumRows = 2
	updated.CreationTime = created.Add(time.Hour)
	updated.UpdateTime = created.Add(time.Hour)
	require.NoError(t, database.SaveDataset(ctx, db, &updated))

	got, err := database.GetDataset(ctx, db, record.Id)
	require.NoError(t, err)
	assert.Equal(t, 2, got.NumRows)
	assert.True(t, created.Equal(got.CreationTime))
	assert.True(t, created.Add(time.Hour).Equal(got.UpdateTime))
	assert.Equal(t, []database.ColumnType{{Name: "a", Kind: "int64"}}, []database.ColumnType(got.Dtypes))

	exists, err := database.DatasetObjectExists(ctx, db, "datasets/a.json")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGetDatasetNotFound(t *testing.T) {
	db := setupDB(t)
	_, err := database.GetDataset(context.Background(), db, uuid.New())
	assert.ErrorIs(t, err, database.ErrDatasetNotFound)
}

func TestExpiredDatasets(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	old := &database.Dataset{Id: uuid.New(), AccessKeyHash: "x", ObjectKey: "old", CreationTime: now.Add(-48 * time.Hour), UpdateTime: now.Add(-48 * time.Hour)}
	fresh := &database.Dataset{Id: uuid.New(), AccessKeyHash: "y", ObjectKey: "fresh", CreationTime: now, UpdateTime: now}
	require.NoError(t, database.SaveDataset(ctx, db, old))
	require.NoError(t, database.SaveDataset(ctx, db, fresh))

	expired, err := database.ListExpiredDatasets(ctx, db, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, old.Id, expired[0].Id)

	require.NoError(t, database.DeleteDataset(ctx, db, old.Id))
	_, err = database.GetDataset(ctx, db, old.Id)
	assert.ErrorIs(t, err, database.ErrDatasetNotFound)
}

func TestMigrationRollback(t *testing.T) {
	db := setupDB(t)
	assert.True(t, db.Migrator().HasIndex(&database.Dataset{}, "UpdateTime"))

	require.NoError(t, database.GetMigrator(db).RollbackLast())
	assert.False(t, db.Migrator().HasIndex(&database.Dataset{}, "UpdateTime"))

	require.NoError(t, database.GetMigrator(db).Migrate())
	assert.True(t, db.Migrator().HasIndex(&database.Dataset{}, "UpdateTime"))
}
