// Package loader reads uploaded tabular files into datasets and writes
// datasets back out in the supported export formats.
package loader

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"analysis-backend/internal/dataset"
	"analysis-backend/internal/errs"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Cells matching one of these are read as missing.
var naValues = []string{"", "NA", "N/A", "n/a", "NaN", "nan", "-NaN", "-nan", "NULL", "null", "None", "<NA>", "#N/A", "<nil>"}

type readFunc func(data []byte, p Params) (*dataset.Dataset, error)

var readers = map[string]readFunc{
	"csv":    readCSV,
	"xls":    readExcel,
	"xlsx":   readExcel,
	"json":   readJSON,
	"db":     readSQLite,
	"sqlite": readSQLite,
}

// Extensions lists the accepted upload extensions.
var Extensions = []string{"csv", "xls", "xlsx", "json", "db", "sqlite"}

// Load picks a reader by the extension of filename and parses r into a
// dataset. Parameter errors are returned as is, any other failure to parse
// becomes a ReadingError, and a file without rows is an EmptyDataset error.
func Load(filename string, r io.Reader, p Params) (*dataset.Dataset, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	read, ok := readers[ext]
	if !ok {
		return nil, &errs.ParameterError{Parameter: "file", Value: ext, Expected: Extensions}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &errs.ReadingError{File: filename, Details: err.Error()}
	}

	ds, err := read(data, p)
	if err != nil {
		var coded errs.Coded
		if errors.As(err, &coded) {
			return nil, err
		}
		return nil, &errs.ReadingError{File: filename, Details: err.Error()}
	}
	if ds.Empty() {
		return nil, &errs.EmptyDataset{File: filename}
	}

	slog.Info("dataset loaded", "file", filename, "rows", ds.NumRows(), "columns", ds.NumColumns())
	return ds, nil
}

// fromRecords infers column kinds for a header row followed by data rows.
// Rows shorter than the widest row are padded with missing cells.
func fromRecords(records [][]string, p Params) (*dataset.Dataset, error) {
	if len(records) < 2 {
		return dataset.New()
	}

	width := 0
	for _, rec := range records {
		width = max(width, len(rec))
	}

	rows := make([][]string, 0, len(records))
	rows = append(rows, headerNames(records[0], width))
	for _, rec := range records[1:] {
		row := make([]string, width)
		for i, cell := range rec {
			row[i] = normalizeNumber(cell, p)
		}
		rows = append(rows, row)
	}

	df := dataframe.LoadRecords(rows,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(naValues),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("error inferring column types: %w", df.Err)
	}

	columns := make([]*dataset.Column, 0, df.Ncol())
	for i := 0; i < df.Ncol(); i++ {
		c, err := fromSeries(df.Col(rows[0][i]))
		if err != nil {
			return nil, err
		}
		columns = append(columns, c)
	}
	return dataset.New(columns...)
}

// headerNames names blank header cells "Unnamed: i" and suffixes repeated
// names with ".1", ".2" and so on.
func headerNames(header []string, width int) []string {
	names := make([]string, width)
	seen := make(map[string]int, width)
	for i := range names {
		name := ""
		if i < len(header) {
			name = strings.TrimPrefix(header[i], "\ufeff")
		}
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		base := name
		for seen[name] > 0 {
			name = fmt.Sprintf("%s.%d", base, seen[base])
			seen[base]++
		}
		seen[name]++
		names[i] = name
	}
	return names
}

// normalizeNumber rewrites a cell using the thousands and decimal separators
// of p into a plain number when the result parses as one.
func normalizeNumber(cell string, p Params) string {
	if p.Thousands == "" && (p.Decimal == "" || p.Decimal == ".") {
		return cell
	}
	candidate := strings.TrimSpace(cell)
	if p.Thousands != "" {
		candidate = strings.ReplaceAll(candidate, p.Thousands, "")
	}
	if p.Decimal != "" && p.Decimal != "." {
		if strings.Contains(candidate, ".") {
			return cell
		}
		candidate = strings.Replace(candidate, p.Decimal, ".", 1)
	}
	if _, err := strconv.ParseFloat(candidate, 64); err != nil {
		return cell
	}
	return candidate
}

func fromSeries(s series.Series) (*dataset.Column, error) {
	n := s.Len()
	missing := 0
	for i := 0; i < n; i++ {
		if s.Elem(i).IsNA() {
			missing++
		}
	}

	var kind dataset.Kind
	switch s.Type() {
	case series.Int:
		kind = dataset.Int
		if missing > 0 {
			kind = dataset.Float
		}
	case series.Float:
		kind = dataset.Float
	case series.Bool:
		kind = dataset.Bool
	default:
		kind = dataset.String
	}
	if missing == n {
		kind = dataset.Float
	}

	values := make([]any, n)
	for i := 0; i < n; i++ {
		e := s.Elem(i)
		if e.IsNA() {
			continue
		}
		switch kind {
		case dataset.Int:
			v, err := e.Int()
			if err != nil {
				return nil, fmt.Errorf("column '%s' row %d: %w", s.Name, i, err)
			}
			values[i] = int64(v)
		case dataset.Float:
			values[i] = e.Float()
		case dataset.Bool:
			v, err := e.Bool()
			if err != nil {
				return nil, fmt.Errorf("column '%s' row %d: %w", s.Name, i, err)
			}
			values[i] = v
		default:
			values[i] = e.String()
		}
	}

	if kind == dataset.String && textualBools(values) {
		kind = dataset.Bool
		for i, v := range values {
			if v != nil {
				values[i] = strings.EqualFold(v.(string), "true")
			}
		}
	}
	return dataset.NewColumn(s.Name, kind, values)
}

// textualBools reports whether every present cell spells true or false in
// any letter case.
func textualBools(values []any) bool {
	present := false
	for _, v := range values {
		if v == nil {
			continue
		}
		s := v.(string)
		if !strings.EqualFold(s, "true") && !strings.EqualFold(s, "false") {
			return false
		}
		present = true
	}
	return present
}
