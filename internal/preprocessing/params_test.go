package preprocessing_test

import (
	"errors"
	"testing"

	"analysis-backend/internal/dataset"
	"analysis-backend/internal/errs"
	"analysis-backend/internal/preprocessing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParamsDefaults(t *testing.T) {
	params, err := preprocessing.ParseParams(preprocessing.RawParams{})
	require.NoError(t, err)
	assert.Equal(t, preprocessing.DefaultParams(), params)
	assert.Equal(t, 3.0, params.OutlierZ)
	assert.Equal(t, preprocessing.KeepFirst, params.DuplicateKeep)
	assert.Equal(t, "Other", params.MergedCategoryLabel)
	assert.Equal(t, preprocessing.ZScore, params.ScalingMethod)
}

func TestParseParams(t *testing.T) {
	params, err := preprocessing.ParseParams(preprocessing.RawParams{
		MakeCopy:               "true",
		CaseInsensitiveColumns: "*",
		IndexCols:              `["id"]`,
		RowRangeStep:           "2",
		FillNaValues:           `{"age": 30}`,
		DropNa:                 "columns",
		OutliersThreshold:      "2.5",
		DuplicateKeep:          "false",
		CategoriesThreshold:    "0.05",
		ScalingMethod:          "MIN_MAX_SCALING",
	})
	require.NoError(t, err)

	assert.True(t, params.MakeCopy)
	assert.True(t, params.LowercaseColumns.All())
	assert.Equal(t, []string{"id"}, params.IndexColumns.Names())
	assert.Equal(t, 2, *params.RowStep)
	assert.Equal(t, map[string]any{"age": 30.0}, params.Fill.PerColumn)
	assert.Equal(t, preprocessing.AxisColumns, params.DropMissing)
	assert.Equal(t, 2.5, params.OutlierZ)
	assert.Equal(t, preprocessing.KeepNone, params.DuplicateKeep)
	assert.Equal(t, 0.05, *params.CategoryThreshold)
	assert.Equal(t, preprocessing.MinMaxScaling, params.ScalingMethod)
}

func TestParseFillValues(t *testing.T) {
	cases := map[string]*preprocessing.FillValue{
		"0":       {Scalar: 0.0},
		`"n/a"`:   {Scalar: "n/a"},
		"unknown": {Scalar: "unknown"},
		"true":    {Scalar: true},
		"null":    nil,
		"{}":      nil,
	}
	for raw, expected := range cases {
		params, err := preprocessing.ParseParams(preprocessing.RawParams{FillNaValues: raw})
		require.NoError(t, err, raw)
		assert.Equal(t, expected, params.Fill, raw)
	}

	_, err := preprocessing.ParseParams(preprocessing.RawParams{FillNaValues: "[1, 2]"})
	assert.Error(t, err)
}

func TestParseParamsInvalid(t *testing.T) {
	cases := map[string]preprocessing.RawParams{
		"drop_na":              {DropNa: "both"},
		"outliers_threshold":   {OutliersThreshold: "-1"},
		"duplicate_keep":       {DuplicateKeep: "middle"},
		"categories_threshold": {CategoriesThreshold: "1.5"},
		"scaling_method":       {ScalingMethod: "robust"},
		"row_range_start":      {RowRangeStart: "0"},
		"ffill":                {FFill: "sometimes"},
		"index_cols":           {IndexCols: "[a"},
	}

	for param, raw := range cases {
		t.Run(param, func(t *testing.T) {
			_, err := preprocessing.ParseParams(raw)
			var perr *errs.ParameterError
			require.True(t, errors.As(err, &perr), "%v", err)
			assert.Equal(t, param, perr.Parameter)
		})
	}
}

func TestParsedSelectorsDriveSteps(t *testing.T) {
	params, err := preprocessing.ParseParams(preprocessing.RawParams{ClearDigitsColumns: "code, label"})
	require.NoError(t, err)

	ds := newDataset(t,
		col(t, "code", dataset.String, "a1"),
		col(t, "label", dataset.String, "b2"),
		col(t, "other", dataset.String, "c3"),
	)
	require.NoError(t, preprocessing.Preprocess(ds, params))

	assert.Equal(t, "a", ds.Column("code").Values[0])
	assert.Equal(t, "b", ds.Column("label").Values[0])
	assert.Equal(t, "c3", ds.Column("other").Values[0])
}
