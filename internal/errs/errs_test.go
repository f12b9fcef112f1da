package errs_test

import (
	"analysis-backend/internal/errs"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorStatuses(t *testing.T) {
	cases := []struct {
		err    errs.Coded
		status int
		kind   string
	}{
		{&errs.ParameterError{Parameter: "drop_na", Value: "both", Expected: []string{"rows", "columns"}}, http.StatusBadRequest, "Invalid parameter"},
		{&errs.ParameterMissing{Parameter: "target_col"}, http.StatusBadRequest, "Missing required parameter"},
		{&errs.ColumnNotFound{Parameter: "index_cols", Missing: []string{"x"}, Available: []string{"a"}}, http.StatusBadRequest, "Invalid parameter"},
		{&errs.TransformationError{Operation: "lowercase", Column: "a", Err: errors.New("not text")}, http.StatusUnprocessableEntity, "Transformation error"},
		{&errs.EmptyDataset{Operation: "drop missing values"}, http.StatusUnprocessableEntity, "Empty dataset"},
		{&errs.ReadingError{File: "data.csv", Details: "bad quote"}, http.StatusUnprocessableEntity, "Reading error"},
		{&errs.StorageError{Message: "not found", Code: http.StatusNotFound}, http.StatusNotFound, "Storage error"},
		{&errs.StorageError{Message: "disk full"}, http.StatusInternalServerError, "Storage error"},
	}

	for _, c := range cases {
		t.Run(fmt.Sprintf("%T", c.err), func(t *testing.T) {
			assert.Equal(t, c.status, c.err.Status())
			assert.Equal(t, c.kind, c.err.Payload()["error"])
		})
	}
}

func TestEmptyDatasetMessage(t *testing.T) {
	err := &errs.EmptyDataset{Operation: "select rows"}
	assert.Equal(t, "The dataset is empty after: SELECT ROWS. Please review your preprocessing parameters.", err.Error())
	assert.Equal(t, err.Error(), err.Payload()["message"])

	upload := &errs.EmptyDataset{File: "data.csv"}
	assert.Equal(t, "The uploaded file 'data.csv' contains no data.", upload.Error())
}

func TestWrappedErrorsAreDetected(t *testing.T) {
	inner := &errs.TransformationError{Operation: "cast datetime", Column: "when", Err: errors.New("bad layout")}
	wrapped := fmt.Errorf("step failed: %w", inner)

	var coded errs.Coded
	require.True(t, errors.As(wrapped, &coded))
	assert.Equal(t, http.StatusUnprocessableEntity, coded.Status())
	assert.Contains(t, wrapped.Error(), "column 'when'")
}
