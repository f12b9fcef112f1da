// Package errs holds the structured errors raised while loading, transforming,
// analyzing and storing datasets. Each error knows the HTTP status it maps to
// and the diagnostic payload rendered to clients.
package errs

import (
	"fmt"
	"net/http"
	"strings"
)

type Coded interface {
	error
	Status() int
	Payload() map[string]any
}

type ParameterError struct {
	Parameter string
	Value     any
	Expected  any
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid value %v for parameter '%s', expected %v", e.Value, e.Parameter, e.Expected)
}

func (e *ParameterError) Status() int {
	return http.StatusBadRequest
}

func (e *ParameterError) Payload() map[string]any {
	return map[string]any{
		"error":           "Invalid parameter",
		"parameter":       e.Parameter,
		"invalid_value":   e.Value,
		"expected_values": e.Expected,
	}
}

type ParameterMissing struct {
	Parameter string
}

func (e *ParameterMissing) Error() string {
	return fmt.Sprintf("missing required parameter '%s'", e.Parameter)
}

func (e *ParameterMissing) Status() int {
	return http.StatusBadRequest
}

func (e *ParameterMissing) Payload() map[string]any {
	return map[string]any{
		"error":     "Missing required parameter",
		"parameter": e.Parameter,
	}
}

// ColumnNotFound is returned when a selector names columns that are not
// present in the dataset. Parameter is filled in by the caller that knows
// which request parameter carried the selector.
type ColumnNotFound struct {
	Parameter string
	Missing   []string
	Available []string
}

func (e *ColumnNotFound) Error() string {
	return fmt.Sprintf("columns [%s] not found, available columns: [%s]",
		strings.Join(e.Missing, ", "), strings.Join(e.Available, ", "))
}

func (e *ColumnNotFound) Status() int {
	return http.StatusBadRequest
}

func (e *ColumnNotFound) Payload() map[string]any {
	return map[string]any{
		"error":           "Invalid parameter",
		"parameter":       e.Parameter,
		"invalid_value":   e.Missing,
		"expected_values": e.Available,
	}
}

type TransformationError struct {
	Operation string
	Column    string
	Err       error
}

func (e *TransformationError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("%s failed on column '%s': %v", e.Operation, e.Column, e.Err)
}

func (e *TransformationError) Unwrap() error {
	return e.Err
}

func (e *TransformationError) Status() int {
	return http.StatusUnprocessableEntity
}

func (e *TransformationError) Payload() map[string]any {
	return map[string]any{
		"error":     "Transformation error",
		"operation": e.Operation,
		"column":    e.Column,
		"details":   fmt.Sprint(e.Err),
	}
}

// EmptyDataset is returned when an operation leaves no rows, or when an
// uploaded File holds no data at all.
type EmptyDataset struct {
	Operation string
	File      string
}

func (e *EmptyDataset) Error() string {
	if e.File != "" {
		return fmt.Sprintf("The uploaded file '%s' contains no data.", e.File)
	}
	return fmt.Sprintf("The dataset is empty after: %s. Please review your preprocessing parameters.", strings.ToUpper(e.Operation))
}

func (e *EmptyDataset) Status() int {
	return http.StatusUnprocessableEntity
}

func (e *EmptyDataset) Payload() map[string]any {
	return map[string]any{
		"error":   "Empty dataset",
		"message": e.Error(),
	}
}

type ReadingError struct {
	File    string
	Details string
}

func (e *ReadingError) Error() string {
	return fmt.Sprintf("error reading file '%s': %s", e.File, e.Details)
}

func (e *ReadingError) Status() int {
	return http.StatusUnprocessableEntity
}

func (e *ReadingError) Payload() map[string]any {
	return map[string]any{
		"error":   "Reading error",
		"file":    e.File,
		"details": e.Details,
	}
}

type StorageError struct {
	Message string
	Code    int
}

func (e *StorageError) Error() string {
	return e.Message
}

func (e *StorageError) Status() int {
	if e.Code == 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

func (e *StorageError) Payload() map[string]any {
	return map[string]any{
		"error":   "Storage error",
		"message": e.Message,
	}
}
