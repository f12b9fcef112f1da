package dataset_test

import (
	"analysis-backend/internal/dataset"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func column(t *testing.T, name string, kind dataset.Kind, values ...any) *dataset.Column {
	t.Helper()
	c, err := dataset.NewColumn(name, kind, values)
	require.NoError(t, err)
	return c
}

func TestNewColumnNormalizesCells(t *testing.T) {
	c := column(t, "x", dataset.Float, 1, int64(2), 3.5, math.NaN(), math.Inf(1), nil)
	assert.Equal(t, []any{1.0, 2.0, 3.5, nil, nil, nil}, c.Values)
	assert.Equal(t, 3, c.MissingCount())

	_, err := dataset.NewColumn("y", dataset.Int, []any{1.5})
	assert.Error(t, err)

	_, err = dataset.NewColumn("z", dataset.Bool, []any{"yes"})
	assert.Error(t, err)
}

func TestDatasetRejectsMismatchedLengths(t *testing.T) {
	ds, err := dataset.New(column(t, "a", dataset.Int, 1, 2, 3))
	require.NoError(t, err)

	err = ds.AddColumn(column(t, "b", dataset.Int, 1, 2))
	assert.Error(t, err)
}

func TestEmptiness(t *testing.T) {
	ds, err := dataset.New()
	require.NoError(t, err)
	assert.True(t, ds.Empty())

	ds, err = dataset.New(column(t, "a", dataset.Int, 1, 2))
	require.NoError(t, err)
	assert.False(t, ds.Empty())

	require.NoError(t, ds.SetIndex([]string{"a"}))
	assert.Equal(t, 2, ds.NumRows())
	assert.Equal(t, 0, ds.NumColumns())
	assert.True(t, ds.Empty())
}

func TestTakeAppliesToIndex(t *testing.T) {
	ds, err := dataset.New(
		column(t, "id", dataset.String, "a", "b", "c"),
		column(t, "v", dataset.Int, 1, 2, 3),
	)
	require.NoError(t, err)
	require.NoError(t, ds.SetIndex([]string{"id"}))

	ds.Take([]int{2, 0})

	assert.Equal(t, []string{"v"}, ds.Names())
	assert.Equal(t, []any{int64(3), int64(1)}, ds.Column("v").Values)
	assert.Equal(t, []any{"c", "a"}, ds.Index()[0].Values)
}

func TestAddColumnReplacesInPlace(t *testing.T) {
	ds, err := dataset.New(
		column(t, "a", dataset.Int, 1, 2),
		column(t, "b", dataset.Int, 3, 4),
	)
	require.NoError(t, err)

	require.NoError(t, ds.AddColumn(column(t, "a", dataset.Float, 0.5, 0.25)))
	assert.Equal(t, []string{"a", "b"}, ds.Names())
	assert.Equal(t, dataset.Float, ds.Column("a").Kind)
}

func TestValueCountsAndMode(t *testing.T) {
	c := column(t, "c", dataset.String, "b", "a", "b", "a", nil, "c")

	counts := c.ValueCounts()
	require.Len(t, counts, 3)
	assert.Equal(t, dataset.ValueCount{Value: "b", Count: 2}, counts[0])
	assert.Equal(t, dataset.ValueCount{Value: "a", Count: 2}, counts[1])

	mode, ok := c.Mode()
	require.True(t, ok)
	assert.Equal(t, "a", mode)

	_, ok = column(t, "e", dataset.String, nil, nil).Mode()
	assert.False(t, ok)
}

func TestDuplicateRows(t *testing.T) {
	ds, err := dataset.New(
		column(t, "a", dataset.Int, 1, 2, 1),
		column(t, "b", dataset.String, "x", "y", "x"),
	)
	require.NoError(t, err)
	assert.True(t, ds.HasDuplicateRows())

	ds.Take([]int{0, 1})
	assert.False(t, ds.HasDuplicateRows())
}

func TestRowKeysTreatNegativeZeroAsZero(t *testing.T) {
	ds, err := dataset.New(column(t, "x", dataset.Float, 0.0, math.Copysign(0, -1), 1.0))
	require.NoError(t, err)

	keys := ds.RowKeys(ds.Columns())
	assert.Equal(t, keys[0], keys[1])
	assert.NotEqual(t, keys[0], keys[2])
	assert.True(t, ds.HasDuplicateRows())
}

func TestQuantileInterpolatesLinearly(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, dataset.Quantile(values, 0.25), 1e-12)
	assert.InDelta(t, 2.5, dataset.Quantile(values, 0.5), 1e-12)
	assert.InDelta(t, 3.25, dataset.Quantile(values, 0.75), 1e-12)
	assert.InDelta(t, 1.6, dataset.Quantile(values, 0.2), 1e-12)
	assert.True(t, math.IsNaN(dataset.Quantile(nil, 0.5)))
	assert.Equal(t, 2.5, dataset.Median([]float64{4, 1, 3, 2}))
}

func TestDescribe(t *testing.T) {
	s := column(t, "x", dataset.Float, 1.0, 2.0, 3.0, 4.0, nil).Describe()
	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, 1.2909944, s.Std, 1e-6)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.InDelta(t, 1.75, s.Q25, 1e-12)
}

func TestJSONRoundTripKeepsKindsAndIndex(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	ds, err := dataset.New(
		column(t, "id", dataset.String, "a", "b"),
		column(t, "n", dataset.Int, int64(9007199254740993), nil),
		column(t, "f", dataset.Float, 0.1, nil),
		column(t, "ok", dataset.Bool, true, false),
		column(t, "cat", dataset.Category, "x", nil),
		column(t, "at", dataset.Datetime, when, nil),
	)
	require.NoError(t, err)
	require.NoError(t, ds.SetIndex([]string{"id"}))

	data, err := json.Marshal(ds)
	require.NoError(t, err)

	var decoded dataset.Dataset
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, ds.Names(), decoded.Names())
	assert.Equal(t, ds.Dtypes(), decoded.Dtypes())
	assert.Equal(t, []string{"id"}, decoded.IndexNames())
	assert.Equal(t, int64(9007199254740993), decoded.Column("n").Values[0])
	assert.True(t, when.Equal(decoded.Column("at").Values[0].(time.Time)))
	assert.Nil(t, decoded.Column("cat").Values[1])
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", dataset.FormatValue(nil))
	assert.Equal(t, "1.5", dataset.FormatValue(1.5))
	assert.Equal(t, "3", dataset.FormatValue(int64(3)))
	assert.Equal(t, "True", dataset.FormatValue(true))
	assert.Equal(t, "2024-01-02", dataset.FormatValue(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-01-02 03:04:05", dataset.FormatValue(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
}
