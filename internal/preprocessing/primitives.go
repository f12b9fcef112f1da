package preprocessing

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"analysis-backend/internal/dataset"
	"analysis-backend/internal/errs"

	"gonum.org/v1/gonum/stat"
)

const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

func requireNonEmpty(ds *dataset.Dataset, operation string) error {
	if ds.Empty() {
		return &errs.EmptyDataset{Operation: operation}
	}
	return nil
}

func mapStrings(ds *dataset.Dataset, sel dataset.Selector, operation string, fn func(string) string) error {
	names, err := dataset.Resolve(sel, ds.Names())
	if err != nil {
		return err
	}
	for _, name := range names {
		col := ds.Column(name)
		if !col.Kind.Textual() {
			return &errs.TransformationError{Operation: operation, Column: name, Err: fmt.Errorf("column of type %s does not hold text", col.Kind)}
		}
		for i, v := range col.Values {
			if s, ok := v.(string); ok {
				col.Values[i] = fn(s)
			}
		}
	}
	return nil
}

func Lowercase(ds *dataset.Dataset, sel dataset.Selector) error {
	return mapStrings(ds, sel, "lowercase", strings.ToLower)
}

func StripPunctuation(ds *dataset.Dataset, sel dataset.Selector) error {
	return mapStrings(ds, sel, "strip punctuation", func(s string) string {
		return strings.Map(func(r rune) rune {
			if r < unicode.MaxASCII && strings.ContainsRune(asciiPunctuation, r) {
				return -1
			}
			return r
		}, s)
	})
}

func StripDigits(ds *dataset.Dataset, sel dataset.Selector) error {
	return mapStrings(ds, sel, "strip digits", func(s string) string {
		return strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return -1
			}
			return r
		}, s)
	})
}

// SelectRows keeps rows start..stop (start is 1-based and inclusive, stop is
// exclusive when read 0-based) taking every step-th row. Nil bounds are open.
func SelectRows(ds *dataset.Dataset, start, stop, step *int) error {
	n := ds.NumRows()
	from, to, by := 0, n, 1
	if start != nil {
		from = *start - 1
	}
	if stop != nil {
		to = min(*stop, n)
	}
	if step != nil {
		by = *step
	}

	var rows []int
	for i := from; i < to; i += by {
		rows = append(rows, i)
	}
	ds.Take(rows)

	return requireNonEmpty(ds, "row selection")
}

func SetIndex(ds *dataset.Dataset, sel dataset.Selector) error {
	names, err := dataset.Resolve(sel, ds.Names())
	if err != nil {
		return err
	}
	if err := ds.SetIndex(names); err != nil {
		return err
	}
	return requireNonEmpty(ds, "setting index")
}

// FillValues replaces missing cells with the given scalar, or with the value
// mapped to each column. A value the column cannot hold fails the operation.
func FillValues(ds *dataset.Dataset, fill FillValue) error {
	const operation = "fill missing values"

	if fill.PerColumn != nil {
		var missing []string
		for name := range fill.PerColumn {
			if !ds.Has(name) {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return &errs.ColumnNotFound{Missing: missing, Available: ds.Names()}
		}
	}

	for _, col := range ds.Columns() {
		value := fill.Scalar
		if fill.PerColumn != nil {
			v, ok := fill.PerColumn[col.Name]
			if !ok {
				continue
			}
			value = v
		}
		if value == nil || !col.HasMissing() {
			continue
		}
		if err := fillColumn(col, value); err != nil {
			return &errs.TransformationError{Operation: operation, Column: col.Name, Err: err}
		}
	}
	return nil
}

func fillColumn(col *dataset.Column, value any) error {
	cell, err := coerceFill(col, value)
	if err != nil {
		return err
	}
	for i, v := range col.Values {
		if v == nil {
			col.Values[i] = cell
		}
	}
	return nil
}

// coerceFill converts a fill value to the column's cell type. An Int column
// receiving a non integral number is promoted to Float.
func coerceFill(col *dataset.Column, value any) (any, error) {
	switch col.Kind {
	case dataset.Int:
		f, ok := value.(float64)
		if !ok {
			break
		}
		if f == math.Trunc(f) {
			return int64(f), nil
		}
		promoteToFloat(col)
		return f, nil
	case dataset.Float:
		if f, ok := value.(float64); ok {
			return f, nil
		}
	case dataset.Bool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
	case dataset.String, dataset.Category:
		return dataset.FormatValue(value), nil
	case dataset.Datetime:
		if s, ok := value.(string); ok {
			return parseTime(s)
		}
	}
	return nil, fmt.Errorf("value %v of type %T cannot be stored in a %s column", value, value, col.Kind)
}

func promoteToFloat(col *dataset.Column) {
	for i, v := range col.Values {
		if n, ok := v.(int64); ok {
			col.Values[i] = float64(n)
		}
	}
	col.Kind = dataset.Float
}

// FillStatistic fills numeric columns with their median and every other
// column with its most frequent value.
func FillStatistic(ds *dataset.Dataset) error {
	for _, col := range ds.Columns() {
		if !col.HasMissing() {
			continue
		}

		if col.Kind.Numeric() {
			present := col.PresentFloats()
			if len(present) == 0 {
				continue
			}
			if err := fillColumn(col, dataset.Median(present)); err != nil {
				return &errs.TransformationError{Operation: "fill missing with statistic", Column: col.Name, Err: err}
			}
			continue
		}

		mode, ok := col.Mode()
		if !ok {
			continue
		}
		for i, v := range col.Values {
			if v == nil {
				col.Values[i] = mode
			}
		}
	}
	return nil
}

func ForwardFill(ds *dataset.Dataset) error {
	for _, col := range ds.Columns() {
		var last any
		for i, v := range col.Values {
			if v == nil {
				col.Values[i] = last
			} else {
				last = v
			}
		}
	}
	return nil
}

func BackwardFill(ds *dataset.Dataset) error {
	for _, col := range ds.Columns() {
		var next any
		for i := len(col.Values) - 1; i >= 0; i-- {
			if col.Values[i] == nil {
				col.Values[i] = next
			} else {
				next = col.Values[i]
			}
		}
	}
	return nil
}

func DropMissing(ds *dataset.Dataset, axis Axis) error {
	switch axis {
	case AxisRows:
		keep := make([]bool, ds.NumRows())
		for i := range keep {
			keep[i] = true
		}
		for _, col := range ds.Columns() {
			for i, v := range col.Values {
				if v == nil {
					keep[i] = false
				}
			}
		}
		ds.Filter(keep)
	case AxisColumns:
		var drop []string
		for _, col := range ds.Columns() {
			if col.HasMissing() {
				drop = append(drop, col.Name)
			}
		}
		ds.RemoveColumns(drop...)
	default:
		return &errs.ParameterError{Parameter: "drop_na", Value: axis, Expected: []Axis{AxisRows, AxisColumns}}
	}
	return requireNonEmpty(ds, "dropping missing values")
}

// DropOutliers removes every row in which some numeric column has an absolute
// z-score above threshold. Columns with zero or undefined spread never flag.
func DropOutliers(ds *dataset.Dataset, threshold float64) error {
	keep := make([]bool, ds.NumRows())
	for i := range keep {
		keep[i] = true
	}

	for _, col := range ds.NumericColumns() {
		present := col.PresentFloats()
		if len(present) < 2 {
			continue
		}
		mean, std := stat.MeanStdDev(present, nil)
		if std == 0 || math.IsNaN(std) {
			continue
		}
		for i := range col.Values {
			x, ok := col.Float(i)
			if ok && math.Abs((x-mean)/std) > threshold {
				keep[i] = false
			}
		}
	}

	ds.Filter(keep)
	return requireNonEmpty(ds, "dropping outliers")
}

// DropDuplicates removes repeated rows, comparing the subset columns (all
// columns when the selector is disabled).
func DropDuplicates(ds *dataset.Dataset, subset dataset.Selector, keep KeepPolicy) error {
	columns := ds.Columns()
	if subset.Enabled() {
		names, err := dataset.Resolve(subset, ds.Names())
		if err != nil {
			return err
		}
		columns = make([]*dataset.Column, len(names))
		for i, n := range names {
			columns[i] = ds.Column(n)
		}
	}

	keys := ds.RowKeys(columns)
	counts := make(map[string]int, len(keys))
	for _, k := range keys {
		counts[k]++
	}

	mask := make([]bool, len(keys))
	seen := make(map[string]bool, len(keys))
	switch keep {
	case KeepFirst:
		for i, k := range keys {
			mask[i] = !seen[k]
			seen[k] = true
		}
	case KeepLast:
		for i := len(keys) - 1; i >= 0; i-- {
			mask[i] = !seen[keys[i]]
			seen[keys[i]] = true
		}
	case KeepNone:
		for i, k := range keys {
			mask[i] = counts[k] == 1
		}
	default:
		return &errs.ParameterError{Parameter: "duplicate_keep", Value: keep, Expected: []KeepPolicy{KeepFirst, KeepLast, KeepNone}}
	}

	ds.Filter(mask)
	return requireNonEmpty(ds, "dropping duplicates")
}

func CastDatetime(ds *dataset.Dataset, sel dataset.Selector) error {
	const operation = "datetime conversion"

	names, err := dataset.Resolve(sel, ds.Names())
	if err != nil {
		return err
	}
	for _, name := range names {
		col := ds.Column(name)
		if col.Kind == dataset.Datetime {
			continue
		}
		if col.Kind == dataset.Bool {
			return &errs.TransformationError{Operation: operation, Column: name, Err: errors.New("boolean values cannot be read as dates")}
		}

		values := make([]any, len(col.Values))
		for i, v := range col.Values {
			t, err := toTime(v)
			if err != nil {
				return &errs.TransformationError{Operation: operation, Column: name, Err: err}
			}
			values[i] = t
		}
		col.Values = values
		col.Kind = dataset.Datetime
	}
	return nil
}

func CastCategory(ds *dataset.Dataset, sel dataset.Selector) error {
	names, err := dataset.Resolve(sel, ds.Names())
	if err != nil {
		return err
	}
	for _, name := range names {
		col := ds.Column(name)
		for i, v := range col.Values {
			if v != nil {
				col.Values[i] = dataset.FormatValue(v)
			}
		}
		col.Kind = dataset.Category
	}
	return nil
}

// MergeRareCategories relabels, in every category column, the categories
// whose share of the non missing cells is at most threshold. Without an
// explicit threshold each column uses the 20th percentile of its own shares.
func MergeRareCategories(ds *dataset.Dataset, label string, threshold *float64) error {
	for _, col := range ds.ColumnsOfKind(dataset.Category) {
		counts := col.ValueCounts()
		present := col.Len() - col.MissingCount()
		if present == 0 {
			continue
		}

		shares := make(map[string]float64, len(counts))
		sorted := make([]float64, 0, len(counts))
		for _, vc := range counts {
			share := float64(vc.Count) / float64(present)
			shares[vc.Value.(string)] = share
			sorted = append(sorted, share)
		}
		sort.Float64s(sorted)

		limit := dataset.Quantile(sorted, 0.2)
		if threshold != nil {
			limit = *threshold
		}

		for i, v := range col.Values {
			if s, ok := v.(string); ok && shares[s] <= limit {
				col.Values[i] = label
			}
		}
	}
	return nil
}

// ScaleNumeric rescales every numeric column with the given method. Integer
// columns become float columns.
func ScaleNumeric(ds *dataset.Dataset, method ScalingMethod) error {
	columns := ds.NumericColumns()
	if len(columns) == 0 {
		return nil
	}

	scaler, err := newScaler(method)
	if err != nil {
		return err
	}

	matrix := make([][]float64, len(columns))
	for j, col := range columns {
		matrix[j] = col.Floats()
	}

	scaled := scaler.FitTransform(matrix)

	for j, col := range columns {
		for i, x := range scaled[j] {
			if math.IsNaN(x) {
				col.Values[i] = nil
			} else {
				col.Values[i] = x
			}
		}
		col.Kind = dataset.Float
	}
	return nil
}
