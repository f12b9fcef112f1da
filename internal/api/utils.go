package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"analysis-backend/internal/errs"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/schema"
)

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	return e.err.Error()
}

func (e *codedError) Unwrap() error {
	return e.err
}

func CodedError(code int, err error) error {
	return &codedError{err: err, code: code}
}

func CodedErrorf(code int, format string, args ...any) error {
	return &codedError{err: fmt.Errorf(format, args...), code: code}
}

var formDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	// Loader, preprocessing and analysis options share one form.
	d.IgnoreUnknownKeys(true)
	return d
}()

const formMemory = 32 << 20

// ParseRequestForm decodes the query string and any url-encoded or multipart
// body of r into T.
func ParseRequestForm[T any](r *http.Request) (T, error) {
	var data T
	if r.MultipartForm == nil && strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(formMemory); err != nil {
			slog.Error("error parsing multipart form", "error", err)
			return data, CodedErrorf(http.StatusBadRequest, "unable to parse request form")
		}
	}
	if err := r.ParseForm(); err != nil {
		slog.Error("error parsing form", "error", err)
		return data, CodedErrorf(http.StatusBadRequest, "unable to parse request form")
	}

	if err := formDecoder.Decode(&data, r.Form); err != nil {
		slog.Error("error decoding form values", "error", err)
		return data, CodedErrorf(http.StatusBadRequest, "unable to parse request form")
	}

	return data, nil
}

func errorResponse(err error) (int, map[string]any) {
	var coded errs.Coded
	if errors.As(err, &coded) {
		if coded.Status() == http.StatusInternalServerError {
			slog.Error("internal server error received in endpoint", "error", err)
		}
		return coded.Status(), coded.Payload()
	}

	var cerr *codedError
	if errors.As(err, &cerr) {
		if cerr.code == http.StatusInternalServerError {
			slog.Error("internal server error received in endpoint", "error", err)
		}
		return cerr.code, map[string]any{"error": http.StatusText(cerr.code), "message": cerr.Error()}
	}

	slog.Error("recieved non coded error from endpoint", "error", err)
	return http.StatusInternalServerError, map[string]any{
		"error":   http.StatusText(http.StatusInternalServerError),
		"message": "The server encountered an unexpected error.",
	}
}

func WriteError(w http.ResponseWriter, err error) {
	status, payload := errorResponse(err)
	writeJson(w, status, payload)
}

func RestHandler(handler func(r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := handler(r)
		if err != nil {
			WriteError(w, err)
			return
		}

		if res == nil {
			res = struct{}{}
		}

		WriteJsonResponse(w, res)
	}
}

// File is a binary endpoint response sent inline with the given name.
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

func FileHandler(handler func(r *http.Request) (*File, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, err := handler(r)
		if err != nil {
			WriteError(w, err)
			return
		}

		w.Header().Set("Content-Type", file.MimeType)
		w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", file.Name))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(file.Data); err != nil {
			slog.Error("error writing file response", "file", file.Name, "error", err)
		}
	}
}

func writeJson(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("error serializing response body", "error", err)
		http.Error(w, fmt.Sprintf("error serializing response body: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n')) //nolint:errcheck
}

func WriteJsonResponse(w http.ResponseWriter, data any) {
	writeJson(w, http.StatusOK, data)
}

func URLParamUUID(r *http.Request, key string) (uuid.UUID, error) {
	param := chi.URLParam(r, key)

	if len(param) == 0 {
		return uuid.Nil, CodedErrorf(http.StatusBadRequest, "missing {%v} url parameter", key)
	}

	id, err := uuid.Parse(param)
	if err != nil {
		return uuid.Nil, CodedErrorf(http.StatusBadRequest, "invalid uuid '%v' url parameter provided: %w", key, err)
	}

	return id, nil
}
