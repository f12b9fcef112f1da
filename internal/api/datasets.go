package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"analysis-backend/internal/analysis"
	"analysis-backend/internal/core/utils"
	"analysis-backend/internal/database"
	"analysis-backend/internal/dataset"
	"analysis-backend/internal/errs"
	"analysis-backend/internal/loader"
	"analysis-backend/internal/preprocessing"
	"analysis-backend/internal/report"
	"analysis-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// DatasetStore is the storage the service keeps datasets in between requests.
type DatasetStore interface {
	Get(ctx context.Context, id uuid.UUID, accessKey string) (*dataset.Dataset, *database.Dataset, error)
	Put(ctx context.Context, ds *dataset.Dataset, id uuid.UUID, accessKey string) (uuid.UUID, string, error)
}

type Options struct {
	AccessKeyHeader string
	MaxUploadBytes  int64
	ReportDPI       int
}

type DatasetService struct {
	store DatasetStore
	opts  Options
}

func NewDatasetService(store DatasetStore, opts Options) *DatasetService {
	if opts.AccessKeyHeader == "" {
		opts.AccessKeyHeader = "X-Dataset-Token"
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 100 * 1024 * 1024
	}
	if opts.ReportDPI <= 0 {
		opts.ReportDPI = report.DefaultDPI
	}
	return &DatasetService{store: store, opts: opts}
}

func (s *DatasetService) AddRoutes(r chi.Router) {
	r.Get("/", RestHandler(s.Index))
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return api.HealthResponse{Status: "ok"}, nil }))

	r.Route("/datasets", func(r chi.Router) {
		upload := r.With(middleware.RequestSize(s.opts.MaxUploadBytes))
		upload.Post("/upload", RestHandler(s.Upload))
		upload.Post("/full_pipeline", FileHandler(s.FullPipeline))

		r.Route("/{dataset_id}", func(r chi.Router) {
			r.Get("/", RestHandler(s.GetInfo))
			r.Get("/download", FileHandler(s.Download))
			r.Post("/preprocess", RestHandler(s.Preprocess))
			r.Get("/report", FileHandler(s.Report))
		})
	})
}

func (s *DatasetService) Index(r *http.Request) (any, error) {
	return api.IndexResponse{
		Message: "Automated data analysis web service",
		Endpoints: map[string]string{
			"upload":        "POST /datasets/upload",
			"info":          "GET /datasets/{dataset_id}",
			"download":      "GET /datasets/{dataset_id}/download",
			"preprocess":    "POST /datasets/{dataset_id}/preprocess",
			"report":        "GET /datasets/{dataset_id}/report",
			"full_pipeline": "POST /datasets/full_pipeline",
		},
	}, nil
}

func preprocessStep(id uuid.UUID) string {
	return fmt.Sprintf("/datasets/%s/preprocess", id)
}

func reportStep(id uuid.UUID) string {
	return fmt.Sprintf("/datasets/%s/report", id)
}

func metadata(ds *dataset.Dataset) api.DatasetMetadata {
	meta := api.DatasetMetadata{
		NumRows:     ds.NumRows(),
		NumColumns:  ds.NumColumns(),
		Columns:     make(map[string]string, ds.NumColumns()),
		ColumnOrder: ds.Names(),
		Index:       ds.IndexNames(),
	}
	for _, t := range ds.Dtypes() {
		meta.Columns[t.Name] = string(t.Kind)
	}
	return meta
}

// accessKey returns the key sent in the access key header. Requests reading a
// stored dataset must send one.
func (s *DatasetService) accessKey(r *http.Request, required bool) (string, error) {
	key := strings.TrimSpace(r.Header.Get(s.opts.AccessKeyHeader))
	if key == "" && required {
		return "", &errs.StorageError{Message: "Missing access key in headers.", Code: http.StatusBadRequest}
	}
	return key, nil
}

func (s *DatasetService) loadDataset(r *http.Request) (uuid.UUID, *dataset.Dataset, string, error) {
	id, err := URLParamUUID(r, "dataset_id")
	if err != nil {
		return uuid.Nil, nil, "", err
	}
	key, err := s.accessKey(r, true)
	if err != nil {
		return uuid.Nil, nil, "", err
	}
	ds, _, err := s.store.Get(r.Context(), id, key)
	if err != nil {
		return uuid.Nil, nil, "", err
	}
	return id, ds, key, nil
}

// parseUpload parses the multipart body of r and returns the header of its
// "file" field.
func parseUpload(r *http.Request, maxBytes int64) (*multipart.FileHeader, error) {
	if r.ContentLength > maxBytes {
		return nil, CodedErrorf(http.StatusRequestEntityTooLarge, "uploaded file exceeds the limit of %d MB", maxBytes/(1024*1024))
	}
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, CodedErrorf(http.StatusRequestEntityTooLarge, "uploaded file exceeds the limit of %d MB", maxBytes/(1024*1024))
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, &errs.ParameterMissing{Parameter: "file"}
		}
		return nil, CodedErrorf(http.StatusBadRequest, "unable to parse multipart form: %v", err)
	}

	_, header, err := r.FormFile("file")
	if err != nil || header.Filename == "" {
		return nil, &errs.ParameterMissing{Parameter: "file"}
	}
	return header, nil
}

func loadUpload(header *multipart.FileHeader, params loader.Params) (*dataset.Dataset, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening uploaded file: %w", err)
	}
	defer file.Close()

	return loader.Load(header.Filename, file, params)
}

func (s *DatasetService) Upload(r *http.Request) (any, error) {
	key, err := s.accessKey(r, false)
	if err != nil {
		return nil, err
	}

	header, err := parseUpload(r, s.opts.MaxUploadBytes)
	if err != nil {
		return nil, err
	}
	params, err := ParseRequestForm[loader.Params](r)
	if err != nil {
		return nil, err
	}
	ds, err := loadUpload(header, params)
	if err != nil {
		return nil, err
	}

	id, key, err := s.store.Put(r.Context(), ds, uuid.Nil, key)
	if err != nil {
		return nil, err
	}

	slog.Info("dataset uploaded", "dataset_id", id, "rows", ds.NumRows(), "columns", ds.NumColumns())

	return api.DatasetResponse{
		Message:   "Dataset uploaded successfully",
		DatasetId: id,
		AccessKey: key,
		NextStep:  preprocessStep(id),
		Metadata:  metadata(ds),
	}, nil
}

func (s *DatasetService) GetInfo(r *http.Request) (any, error) {
	id, ds, _, err := s.loadDataset(r)
	if err != nil {
		return nil, err
	}

	return api.DatasetResponse{
		Message:   "Dataset found successfully",
		DatasetId: id,
		NextStep:  preprocessStep(id),
		Metadata:  metadata(ds),
	}, nil
}

func (s *DatasetService) Download(r *http.Request) (*File, error) {
	id, ds, _, err := s.loadDataset(r)
	if err != nil {
		return nil, err
	}

	params, err := ParseRequestForm[api.DownloadParams](r)
	if err != nil {
		return nil, err
	}
	format, err := loader.ParseFormat(params.Format)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := format.Write(ds, &buf); err != nil {
		return nil, fmt.Errorf("error exporting dataset %s as %s: %w", id, format.Name, err)
	}

	return &File{Name: fmt.Sprintf("%s.%s", id, format.Ext), MimeType: format.MimeType, Data: buf.Bytes()}, nil
}

// Preprocess runs the pipeline on a stored dataset. The result replaces the
// stored dataset unless make_copy is set, in which case it is stored under a
// new id with the same access key.
func (s *DatasetService) Preprocess(r *http.Request) (any, error) {
	id, ds, key, err := s.loadDataset(r)
	if err != nil {
		return nil, err
	}

	raw, err := ParseRequestForm[preprocessing.RawParams](r)
	if err != nil {
		return nil, err
	}
	params, err := preprocessing.ParseParams(raw)
	if err != nil {
		return nil, err
	}

	if err := preprocessing.Preprocess(ds, params); err != nil {
		return nil, err
	}

	target := id
	if params.MakeCopy {
		target = uuid.Nil
	}
	newId, _, err := s.store.Put(r.Context(), ds, target, key)
	if err != nil {
		return nil, err
	}

	slog.Info("dataset preprocessed", "dataset_id", id, "stored_as", newId, "rows", ds.NumRows())

	return api.DatasetResponse{
		Message:   "Dataset preprocessed successfully",
		DatasetId: newId,
		NextStep:  reportStep(newId),
		Metadata:  metadata(ds),
	}, nil
}

// renderReport analyzes ds. With outline set the report blocks are returned
// as JSON instead of a PDF.
func (s *DatasetService) renderReport(ds *dataset.Dataset, raw analysis.RawParams, outline bool) (*File, error) {
	params, err := analysis.ParseParams(raw)
	if err != nil {
		return nil, err
	}

	var doc report.Document
	file := &File{Name: "report.pdf", MimeType: "application/pdf"}
	if outline {
		doc = report.NewRecorder()
		file = &File{Name: "report.json", MimeType: "application/json"}
	} else {
		doc = report.NewPDFDocument(params.ReportOptions(s.opts.ReportDPI))
	}

	if err := analysis.NewAnalyzer(ds).FillReport(params, doc); err != nil {
		return nil, err
	}

	data, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("error rendering report: %w", err)
	}
	file.Data = data
	return file, nil
}

func (s *DatasetService) Report(r *http.Request) (*File, error) {
	id, ds, _, err := s.loadDataset(r)
	if err != nil {
		return nil, err
	}

	raw, err := ParseRequestForm[analysis.RawParams](r)
	if err != nil {
		return nil, err
	}
	opts, err := ParseRequestForm[api.ReportOutlineParams](r)
	if err != nil {
		return nil, err
	}
	outline, err := utils.ParseBool("outline", opts.Outline, false)
	if err != nil {
		return nil, err
	}

	file, err := s.renderReport(ds, raw, outline)
	if err != nil {
		return nil, err
	}

	slog.Info("report generated", "dataset_id", id, "task", raw.AnalysisTask, "bytes", len(file.Data))
	return file, nil
}

// FullPipeline loads, preprocesses and analyzes an uploaded file in one
// request without storing it.
func (s *DatasetService) FullPipeline(r *http.Request) (*File, error) {
	header, err := parseUpload(r, s.opts.MaxUploadBytes)
	if err != nil {
		return nil, err
	}

	loadParams, err := ParseRequestForm[loader.Params](r)
	if err != nil {
		return nil, err
	}
	if err := loadParams.Validate(); err != nil {
		return nil, err
	}
	raw, err := ParseRequestForm[preprocessing.RawParams](r)
	if err != nil {
		return nil, err
	}
	params, err := preprocessing.ParseParams(raw)
	if err != nil {
		return nil, err
	}
	analysisRaw, err := ParseRequestForm[analysis.RawParams](r)
	if err != nil {
		return nil, err
	}
	if _, err := analysis.ParseParams(analysisRaw); err != nil {
		return nil, err
	}

	ds, err := loadUpload(header, loadParams)
	if err != nil {
		return nil, err
	}
	if err := preprocessing.Preprocess(ds, params); err != nil {
		return nil, err
	}

	return s.renderReport(ds, analysisRaw, false)
}
