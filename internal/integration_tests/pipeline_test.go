package integrationtests

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"testing"
	"time"

	"analysis-backend/pkg/api"

	"github.com/gen2brain/go-fitz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func housingCSV() string {
	var b strings.Builder
	b.WriteString("rooms;area;price;district\n")
	for i := 0; i < 60; i++ {
		area := 30 + float64(i)*1.5
		price := 1000*area + 500*math.Cos(float64(i))
		fmt.Fprintf(&b, "%d;%s;%s;%s\n", 1+i%4, decimalComma(area), decimalComma(price), []string{"north", "south", "east"}[i%3])
	}
	return b.String()
}

func decimalComma(v float64) string {
	return strings.Replace(fmt.Sprintf("%.2f", v), ".", ",", 1)
}

func pdfText(t *testing.T, data []byte) string {
	doc, err := fitz.NewFromMemory(data)
	require.NoError(t, err)
	defer doc.Close()

	var text strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		page, err := doc.Text(i)
		require.NoError(t, err)
		text.WriteString(page)
	}
	return text.String()
}

func TestUploadPreprocessReport(t *testing.T) {
	skipShort(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, cfg := setupStore(t, ctx)
	client := startServer(t, store, cfg)

	var uploaded api.DatasetResponse
	res, err := client.R().
		SetFileReader("file", "housing.csv", strings.NewReader(housingCSV())).
		SetFormData(map[string]string{"sep": ";", "decimal": ","}).
		SetResult(&uploaded).
		Post("/datasets/upload")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode(), res.String())
	assert.Equal(t, 60, uploaded.Metadata.NumRows)
	assert.Equal(t, "float64", uploaded.Metadata.Columns["area"])

	var preprocessed api.DatasetResponse
	res, err = client.R().
		SetHeader(cfg.AccessKeyHeader, uploaded.AccessKey).
		SetFormData(map[string]string{
			"make_copy":        "true",
			"category_columns": "district",
			"scale_numeric":    "true",
			"scaling_method":   "min_max_scaling",
		}).
		SetResult(&preprocessed).
		Post(fmt.Sprintf("/datasets/%s/preprocess", uploaded.DatasetId))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode(), res.String())
	assert.NotEqual(t, uploaded.DatasetId, preprocessed.DatasetId)
	assert.Equal(t, "category", preprocessed.Metadata.Columns["district"])

	res, err = client.R().
		SetHeader(cfg.AccessKeyHeader, uploaded.AccessKey).
		SetQueryParams(map[string]string{"analysis_task": "regression", "target_col": "price"}).
		Get(preprocessed.NextStep)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode(), res.String())
	assert.Equal(t, "application/pdf", res.Header().Get("Content-Type"))

	text := pdfText(t, res.Body())
	assert.Contains(t, text, "Regression Recommendations for 'price'")
	assert.Contains(t, text, "Regression preparation completed")

	res, err = client.R().
		SetHeader(cfg.AccessKeyHeader, "wrong").
		Get(fmt.Sprintf("/datasets/%s", uploaded.DatasetId))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.StatusCode())
}
