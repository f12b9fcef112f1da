package preprocessing_test

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"analysis-backend/internal/dataset"
	"analysis-backend/internal/errs"
	"analysis-backend/internal/preprocessing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestPipelineStepOrder(t *testing.T) {
	var names []string
	for _, s := range preprocessing.NewPipeline().Steps() {
		names = append(names, s.Name)
	}

	assert.Equal(t, []string{
		"lowercase", "strip punctuation", "strip digits", "row selection", "set index",
		"fill missing values", "fill missing with statistic", "forward fill", "backward fill",
		"drop missing values", "drop outliers", "drop duplicates", "datetime conversion",
		"category conversion", "merge rare categories", "scale numeric",
	}, names)
}

func TestPipelinePlan(t *testing.T) {
	params := preprocessing.DefaultParams()
	assert.Empty(t, preprocessing.NewPipeline().Plan(params))

	params.ScaleNumeric = true
	params.LowercaseColumns = dataset.AllColumns()
	params.RowStop = intPtr(3)
	assert.Equal(t, []string{"lowercase", "row selection", "scale numeric"}, preprocessing.NewPipeline().Plan(params))
}

func TestPipelineDisabledParamsLeaveDatasetUntouched(t *testing.T) {
	ds := newDataset(t,
		col(t, "s", dataset.String, "A", nil),
		col(t, "x", dataset.Float, 1.0, nil),
	)
	before := ds.Clone()

	require.NoError(t, preprocessing.Preprocess(ds, preprocessing.DefaultParams()))
	assert.Equal(t, before.Names(), ds.Names())
	for _, c := range before.Columns() {
		assert.Equal(t, c, ds.Column(c.Name))
	}
}

func TestPipelineAbortsOnFirstError(t *testing.T) {
	ds := newDataset(t,
		col(t, "s", dataset.String, "A", "B"),
		col(t, "x", dataset.Float, 1.0, 2.0),
	)
	params := preprocessing.DefaultParams()
	params.LowercaseColumns = dataset.Columns("s")
	params.IndexColumns = dataset.Columns("missing")
	params.ScaleNumeric = true

	err := preprocessing.Preprocess(ds, params)

	var notFound *errs.ColumnNotFound
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "index_cols", notFound.Parameter)

	// lowercase ran, scaling did not
	assert.Equal(t, []any{"a", "b"}, ds.Column("s").Values)
	assert.Equal(t, []any{1.0, 2.0}, ds.Column("x").Values)
}

func TestScenarioScaleNumericZScore(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	columns := []*dataset.Column{}
	for _, name := range []string{"a", "b", "c"} {
		values := make([]any, 100)
		for i := range values {
			values[i] = rng.NormFloat64()*10 + 50
		}
		columns = append(columns, col(t, name, dataset.Float, values...))
	}
	for _, name := range []string{"color", "size"} {
		values := make([]any, 100)
		for i := range values {
			values[i] = fmt.Sprintf("%s-%d", name, i%3)
		}
		columns = append(columns, col(t, name, dataset.String, values...))
	}
	ds := newDataset(t, columns...)

	params, err := preprocessing.ParseParams(preprocessing.RawParams{ScaleNumeric: "true", ScalingMethod: "z_score"})
	require.NoError(t, err)
	require.NoError(t, preprocessing.Preprocess(ds, params))

	assert.Equal(t, 100, ds.NumRows())
	for _, name := range []string{"a", "b", "c"} {
		mean, std := stat.PopMeanStdDev(ds.Column(name).PresentFloats(), nil)
		assert.InDelta(t, 0, mean, 1e-9, name)
		assert.InDelta(t, 1, std, 1e-9, name)
	}
	assert.Equal(t, "color-0", ds.Column("color").Values[0])
}

func TestScenarioMedianFill(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	values := make([]any, 50)
	var present []float64
	for i := range values {
		if i%10 == 3 {
			continue
		}
		v := float64(18 + rng.Intn(60))
		values[i] = v
		present = append(present, v)
	}
	ds := newDataset(t, col(t, "age", dataset.Float, values...))
	require.Equal(t, 5, ds.Column("age").MissingCount())

	params, err := preprocessing.ParseParams(preprocessing.RawParams{MFill: "true"})
	require.NoError(t, err)
	require.NoError(t, preprocessing.Preprocess(ds, params))

	age := ds.Column("age")
	assert.Equal(t, 0, age.MissingCount())
	median := dataset.Median(present)
	for i := 3; i < 50; i += 10 {
		assert.Equal(t, median, age.Values[i])
	}
}

func TestScenarioRowRange(t *testing.T) {
	ds := tenRows(t)

	params, err := preprocessing.ParseParams(preprocessing.RawParams{RowRangeStart: "1", RowRangeEnd: "5"})
	require.NoError(t, err)
	require.NoError(t, preprocessing.Preprocess(ds, params))

	assert.Equal(t, []any{int64(1), int64(2), int64(3), int64(4), int64(5)}, ds.Column("pos").Values)
}

func TestScenarioEmptyAfterDropNa(t *testing.T) {
	ds := newDataset(t, col(t, "x", dataset.Float, nil, 1.0), col(t, "y", dataset.Float, 2.0, nil))

	params, err := preprocessing.ParseParams(preprocessing.RawParams{DropNa: "rows"})
	require.NoError(t, err)

	err = preprocessing.Preprocess(ds, params)
	var empty *errs.EmptyDataset
	require.True(t, errors.As(err, &empty))
	assert.Contains(t, err.Error(), "DROPPING MISSING VALUES")
}
