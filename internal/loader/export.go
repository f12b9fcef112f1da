package loader

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"analysis-backend/internal/dataset"
	"analysis-backend/internal/errs"

	"github.com/xuri/excelize/v2"
)

// Format is a download format for datasets.
type Format struct {
	Name     string
	MimeType string
	Ext      string
	write    func(columns []*dataset.Column, w io.Writer) error
}

var formats = []Format{
	{Name: "csv", MimeType: "text/csv", Ext: "csv", write: writeCSV},
	{Name: "json", MimeType: "application/json", Ext: "json", write: writeJSON},
	{Name: "excel", MimeType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Ext: "xlsx", write: writeExcel},
}

func FormatNames() []string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = f.Name
	}
	return names
}

// ParseFormat resolves a format name case-insensitively. An empty name
// selects csv.
func ParseFormat(raw string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		name = "csv"
	}
	for _, f := range formats {
		if f.Name == name {
			return f, nil
		}
	}
	return Format{}, &errs.ParameterError{Parameter: "format", Value: raw, Expected: FormatNames()}
}

// Write exports ds to w. Index columns come first, followed by the data
// columns.
func (f Format) Write(ds *dataset.Dataset, w io.Writer) error {
	columns := append(slices.Clone(ds.Index()), ds.Columns()...)
	if err := f.write(columns, w); err != nil {
		return fmt.Errorf("error exporting dataset as %s: %w", f.Name, err)
	}
	return nil
}

func Export(ds *dataset.Dataset, format string, w io.Writer) error {
	f, err := ParseFormat(format)
	if err != nil {
		return err
	}
	return f.Write(ds, w)
}

func numRows(columns []*dataset.Column) int {
	if len(columns) == 0 {
		return 0
	}
	return columns[0].Len()
}

func writeCSV(columns []*dataset.Column, w io.Writer) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(columns))
	for j, c := range columns {
		header[j] = c.Name
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(columns))
	for i := 0; i < numRows(columns); i++ {
		for j, c := range columns {
			row[j] = dataset.FormatValue(c.Values[i])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeJSON writes one object per row with keys in column order.
func writeJSON(columns []*dataset.Column, w io.Writer) error {
	bw := bufio.NewWriter(w)
	keys := make([][]byte, len(columns))
	for j, c := range columns {
		key, err := json.Marshal(c.Name)
		if err != nil {
			return err
		}
		keys[j] = key
	}

	bw.WriteByte('[')
	for i := 0; i < numRows(columns); i++ {
		if i > 0 {
			bw.WriteByte(',')
		}
		bw.WriteByte('{')
		for j, c := range columns {
			if j > 0 {
				bw.WriteByte(',')
			}
			value, err := json.Marshal(jsonValue(c, i))
			if err != nil {
				return err
			}
			bw.Write(keys[j])
			bw.WriteByte(':')
			bw.Write(value)
		}
		bw.WriteByte('}')
	}
	bw.WriteByte(']')
	return bw.Flush()
}

func jsonValue(c *dataset.Column, i int) any {
	v := c.Values[i]
	if c.Kind == dataset.Datetime && v != nil {
		return dataset.FormatValue(v)
	}
	return v
}

func writeExcel(columns []*dataset.Column, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := make([]any, len(columns))
	for j, c := range columns {
		header[j] = c.Name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	row := make([]any, len(columns))
	for i := 0; i < numRows(columns); i++ {
		for j, c := range columns {
			row[j] = c.Values[i]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.Write(w)
}
