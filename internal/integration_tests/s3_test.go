package integrationtests

import (
	"context"
	"strings"
	"testing"
	"time"

	"analysis-backend/internal/dataset"
	"analysis-backend/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Provider(t *testing.T) {
	skipShort(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	s3 := newS3Provider(t, setupMinioContainer(t, ctx))

	const bucket = "test-bucket"
	require.NoError(t, s3.CreateBucket(ctx, bucket))
	require.NoError(t, s3.CreateBucket(ctx, bucket))

	_, err := s3.GetObject(ctx, bucket, "missing.json")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)

	require.NoError(t, s3.PutObject(ctx, bucket, "a/one.json", strings.NewReader("one")))
	require.NoError(t, s3.PutObject(ctx, bucket, "a/two.json", strings.NewReader("two!")))
	require.NoError(t, s3.PutObject(ctx, bucket, "b/three.json", strings.NewReader("three")))

	data, err := s3.GetObject(ctx, bucket, "a/two.json")
	require.NoError(t, err)
	assert.Equal(t, "two!", string(data))

	objects, err := s3.ListObjects(ctx, bucket, "a/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "a/one.json", objects[0].Name)
	assert.Equal(t, int64(3), objects[0].Size)
	assert.False(t, objects[0].LastModified.IsZero())

	require.NoError(t, s3.DeleteObject(ctx, bucket, "a/one.json"))
	require.NoError(t, s3.DeleteObject(ctx, bucket, "a/one.json"))

	var names []string
	for obj, err := range s3.IterObjects(ctx, bucket, "") {
		require.NoError(t, err)
		names = append(names, obj.Name)
	}
	assert.Equal(t, []string{"a/two.json", "b/three.json"}, names)
}

func TestDatasetStoreOnS3AndPostgres(t *testing.T) {
	skipShort(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, _ := setupStore(t, ctx)

	col, err := dataset.NewColumn("value", dataset.Float, []any{1.5, nil, 3.0})
	require.NoError(t, err)
	ds, err := dataset.New(col)
	require.NoError(t, err)

	id, key, err := store.Put(ctx, ds, uuid.Nil, "")
	require.NoError(t, err)

	got, record, err := store.Get(ctx, id, key)
	require.NoError(t, err)
	assert.Equal(t, []any{1.5, nil, 3.0}, got.Column("value").Values)
	assert.Equal(t, 3, record.NumRows)

	_, _, err = store.Get(ctx, id, "wrong")
	assert.Error(t, err)

	otherId, _, err := store.Put(ctx, ds, uuid.Nil, key)
	require.NoError(t, err)

	deleted, err := store.Cleanup(ctx, -time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	_, _, err = store.Get(ctx, otherId, key)
	assert.Error(t, err)
}
