package api

import "github.com/google/uuid"

type HealthResponse struct {
	Status string `json:"status"`
}

type IndexResponse struct {
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
}

// DatasetMetadata describes a stored dataset. Columns maps each column name
// to its dtype; ColumnOrder keeps the column order of the dataset.
type DatasetMetadata struct {
	NumRows     int               `json:"num_rows"`
	NumColumns  int               `json:"num_columns"`
	Columns     map[string]string `json:"columns"`
	ColumnOrder []string          `json:"column_order"`
	Index       []string          `json:"index,omitempty"`
}

type DatasetResponse struct {
	Message   string          `json:"message"`
	DatasetId uuid.UUID       `json:"dataset_id"`
	AccessKey string          `json:"access_key,omitempty"`
	NextStep  string          `json:"next_step"`
	Metadata  DatasetMetadata `json:"metadata"`
}

type DownloadParams struct {
	Format string `schema:"format"`
}

type ReportOutlineParams struct {
	Outline string `schema:"outline"`
}
