package loader

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"analysis-backend/internal/dataset"
	"analysis-backend/internal/errs"

	"github.com/xuri/excelize/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func readCSV(data []byte, p Params) (*dataset.Dataset, error) {
	sep, err := p.separator()
	if err != nil {
		return nil, err
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sep
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return fromRecords(records, p)
}

func readExcel(data []byte, p Params) (*dataset.Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	sheet := p.SheetName
	switch {
	case sheet == "" && len(sheets) == 0:
		return dataset.New()
	case sheet == "":
		sheet = sheets[0]
	case !slices.Contains(sheets, sheet):
		return nil, &errs.ParameterError{Parameter: "sheet_name", Value: sheet, Expected: sheets}
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	return fromRecords(rows, p)
}

// readJSON accepts either an array of row objects or an object of columns,
// where each column is an array of cells or an object keyed by row label.
func readJSON(data []byte, p Params) (*dataset.Dataset, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("file is empty")
	}

	var records [][]string
	var err error
	switch data[0] {
	case '[':
		records, err = jsonRows(data)
	case '{':
		records, err = jsonColumns(data)
	default:
		err = errors.New("expected a JSON array of records or a JSON object of columns")
	}
	if err != nil {
		return nil, err
	}
	return fromRecords(records, Params{})
}

func jsonRows(data []byte) ([][]string, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	var header []string
	position := map[string]int{}
	objects := make([]map[string]json.RawMessage, len(raw))
	for i, r := range raw {
		keys, values, err := orderedObject(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		for _, k := range keys {
			if _, ok := position[k]; !ok {
				position[k] = len(header)
				header = append(header, k)
			}
		}
		objects[i] = values
	}

	records := [][]string{header}
	for _, obj := range objects {
		row := make([]string, len(header))
		for k, v := range obj {
			row[position[k]] = jsonCell(v)
		}
		records = append(records, row)
	}
	return records, nil
}

func jsonColumns(data []byte) ([][]string, error) {
	header, columns, err := orderedObject(data)
	if err != nil {
		return nil, err
	}

	var labels []string
	position := map[string]int{}
	cells := make([]map[string]string, len(header))
	for j, name := range header {
		cells[j] = map[string]string{}
		raw := bytes.TrimSpace(columns[name])

		var keys []string
		var values map[string]json.RawMessage
		if len(raw) > 0 && raw[0] == '[' {
			var list []json.RawMessage
			if err := json.Unmarshal(raw, &list); err != nil {
				return nil, fmt.Errorf("column '%s': %w", name, err)
			}
			values = make(map[string]json.RawMessage, len(list))
			for i, v := range list {
				key := fmt.Sprint(i)
				keys = append(keys, key)
				values[key] = v
			}
		} else if keys, values, err = orderedObject(raw); err != nil {
			return nil, fmt.Errorf("column '%s': %w", name, err)
		}

		for _, k := range keys {
			if _, ok := position[k]; !ok {
				position[k] = len(labels)
				labels = append(labels, k)
			}
			cells[j][k] = jsonCell(values[k])
		}
	}

	records := [][]string{header}
	for _, label := range labels {
		row := make([]string, len(header))
		for j := range header {
			row[j] = cells[j][label]
		}
		records = append(records, row)
	}
	return records, nil
}

// orderedObject decodes a JSON object keeping the order of its keys.
func orderedObject(data []byte) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, errors.New("expected a JSON object")
	}

	var keys []string
	values := map[string]json.RawMessage{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, nil, err
		}
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = value
	}
	return keys, values, nil
}

func jsonCell(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

// readSQLite copies the upload to a temporary file and reads one table
// through gorm. Only tables listed in sqlite_master are queried.
func readSQLite(data []byte, p Params) (*dataset.Dataset, error) {
	if p.TableName == "" {
		return nil, &errs.ParameterMissing{Parameter: "table_name"}
	}

	tmp, err := os.CreateTemp("", "upload-*.db")
	if err != nil {
		return nil, fmt.Errorf("error creating temporary database: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("error writing temporary database: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("error writing temporary database: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(tmp.Name()), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	defer sqlDB.Close()

	tables, err := db.Migrator().GetTables()
	if err != nil {
		return nil, err
	}
	if !slices.Contains(tables, p.TableName) {
		return nil, &errs.ParameterError{Parameter: "table_name", Value: p.TableName, Expected: tables}
	}

	rows, err := db.Table(p.TableName).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	cells := make([][]any, len(names))
	scan := make([]any, len(names))
	ptrs := make([]any, len(names))
	for rows.Next() {
		for j := range scan {
			scan[j] = nil
			ptrs[j] = &scan[j]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for j, v := range scan {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			cells[j] = append(cells[j], v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	columns := make([]*dataset.Column, len(names))
	for j, name := range names {
		c, err := sqlColumn(name, cells[j])
		if err != nil {
			return nil, err
		}
		columns[j] = c
	}
	return dataset.New(columns...)
}

// sqlColumn picks the kind from the driver values: integers with missing
// cells load as floats and mixed columns as strings.
func sqlColumn(name string, values []any) (*dataset.Column, error) {
	var ints, floats, bools, times, missing int
	for _, v := range values {
		switch v.(type) {
		case nil:
			missing++
		case int64:
			ints++
		case float64:
			floats++
		case bool:
			bools++
		case time.Time:
			times++
		}
	}

	present := len(values) - missing
	kind := dataset.String
	switch {
	case present == 0:
		kind = dataset.Float
	case ints == present && missing == 0:
		kind = dataset.Int
	case ints+floats == present:
		kind = dataset.Float
	case bools == present:
		kind = dataset.Bool
	case times == present:
		kind = dataset.Datetime
	}

	if kind == dataset.String {
		for i, v := range values {
			if v != nil {
				values[i] = dataset.FormatValue(v)
			}
		}
	}
	return dataset.NewColumn(name, kind, values)
}
