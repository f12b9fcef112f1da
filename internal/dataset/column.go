package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// Kind is the storage type of a column. The values follow the dtype names
// reported to clients in dataset metadata.
type Kind string

const (
	Int      Kind = "int64"
	Float    Kind = "float64"
	Bool     Kind = "bool"
	Category Kind = "category"
	Datetime Kind = "datetime64[ns]"
	String   Kind = "object"
)

func (k Kind) Numeric() bool {
	return k == Int || k == Float
}

func (k Kind) Textual() bool {
	return k == String || k == Category
}

func (k Kind) Valid() bool {
	switch k {
	case Int, Float, Bool, Category, Datetime, String:
		return true
	}
	return false
}

// Column is a named, typed sequence of cells. A nil cell is missing.
type Column struct {
	Name   string
	Kind   Kind
	Values []any
}

// NewColumn builds a column, converting cells to the canonical Go type of the
// kind (int64, float64, bool, string, time.Time). Non-finite floats become
// missing cells.
func NewColumn(name string, kind Kind, values []any) (*Column, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown column kind %q", kind)
	}
	normalized := make([]any, len(values))
	for i, v := range values {
		cell, err := Normalize(kind, v)
		if err != nil {
			return nil, fmt.Errorf("column '%s' row %d: %w", name, i, err)
		}
		normalized[i] = cell
	}
	return &Column{Name: name, Kind: kind, Values: normalized}, nil
}

// Normalize converts a single cell to the canonical type for kind.
func Normalize(kind Kind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch kind {
	case Int:
		switch x := v.(type) {
		case int:
			return int64(x), nil
		case int32:
			return int64(x), nil
		case int64:
			return x, nil
		case float64:
			if x != math.Trunc(x) || math.IsInf(x, 0) {
				return nil, fmt.Errorf("value %v is not an integer", x)
			}
			return int64(x), nil
		}
	case Float:
		switch x := v.(type) {
		case float64:
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, nil
			}
			return x, nil
		case float32:
			return Normalize(Float, float64(x))
		case int:
			return float64(x), nil
		case int64:
			return float64(x), nil
		}
	case Bool:
		if x, ok := v.(bool); ok {
			return x, nil
		}
	case String, Category:
		if x, ok := v.(string); ok {
			return x, nil
		}
	case Datetime:
		if x, ok := v.(time.Time); ok {
			return x, nil
		}
	}
	return nil, fmt.Errorf("value %v of type %T cannot be stored in a %s column", v, v, kind)
}

func (c *Column) Len() int {
	return len(c.Values)
}

func (c *Column) IsMissing(i int) bool {
	return c.Values[i] == nil
}

func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if v == nil {
			n++
		}
	}
	return n
}

func (c *Column) HasMissing() bool {
	for _, v := range c.Values {
		if v == nil {
			return true
		}
	}
	return false
}

// Float returns the numeric value of cell i. Bool cells are read as 0/1.
func (c *Column) Float(i int) (float64, bool) {
	switch x := c.Values[i].(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return math.NaN(), false
}

// Floats returns every cell as a float, NaN for missing or non numeric cells.
func (c *Column) Floats() []float64 {
	out := make([]float64, len(c.Values))
	for i := range c.Values {
		out[i], _ = c.Float(i)
	}
	return out
}

// PresentFloats returns the numeric values of the non missing cells.
func (c *Column) PresentFloats() []float64 {
	out := make([]float64, 0, len(c.Values))
	for i := range c.Values {
		if f, ok := c.Float(i); ok {
			out = append(out, f)
		}
	}
	return out
}

// Unique counts distinct non missing values.
func (c *Column) Unique() int {
	seen := make(map[any]struct{})
	for _, v := range c.Values {
		if v != nil {
			seen[key(v)] = struct{}{}
		}
	}
	return len(seen)
}

type ValueCount struct {
	Value any
	Count int
}

// ValueCounts returns the distinct non missing values ordered by descending
// count. Ties keep the order of first appearance.
func (c *Column) ValueCounts() []ValueCount {
	index := make(map[any]int)
	var counts []ValueCount
	for _, v := range c.Values {
		if v == nil {
			continue
		}
		k := key(v)
		if i, ok := index[k]; ok {
			counts[i].Count++
			continue
		}
		index[k] = len(counts)
		counts = append(counts, ValueCount{Value: v, Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

func (c *Column) Clone() *Column {
	values := make([]any, len(c.Values))
	copy(values, c.Values)
	return &Column{Name: c.Name, Kind: c.Kind, Values: values}
}

func (c *Column) take(rows []int) {
	values := make([]any, len(rows))
	for i, r := range rows {
		values[i] = c.Values[r]
	}
	c.Values = values
}

// key maps a cell to a comparable map key. Times are keyed by instant so that
// equal timestamps in different locations collapse, and -0 is keyed as 0.
func key(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.UnixNano()
	case float64:
		if x == 0 {
			return 0.0
		}
	}
	return v
}

// FormatValue renders a cell the way it is shown in reports and exports.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "True"
		}
		return "False"
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.DateTime)
	}
	return fmt.Sprint(v)
}

// Compare orders two non missing cells of the same kind.
func Compare(a, b any) int {
	switch x := a.(type) {
	case int64:
		y := b.(int64)
		return cmpOrdered(x, y)
	case float64:
		y := b.(float64)
		return cmpOrdered(x, y)
	case string:
		y := b.(string)
		return cmpOrdered(x, y)
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case time.Time:
		return x.Compare(b.(time.Time))
	}
	return cmpOrdered(FormatValue(a), FormatValue(b))
}

func cmpOrdered[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
