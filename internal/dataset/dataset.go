// Package dataset implements the in-memory tabular model shared by the loader,
// the preprocessing pipeline and the analyzer.
package dataset

import (
	"fmt"
	"strings"
)

// Dataset is an ordered set of equally long columns plus the columns that were
// moved into the row index. A Dataset belongs to a single request and is
// mutated in place by the preprocessing steps.
type Dataset struct {
	columns []*Column
	index   []*Column
}

func New(columns ...*Column) (*Dataset, error) {
	d := &Dataset{}
	for _, c := range columns {
		if err := d.AddColumn(c); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Dataset) NumRows() int {
	if len(d.columns) > 0 {
		return d.columns[0].Len()
	}
	if len(d.index) > 0 {
		return d.index[0].Len()
	}
	return 0
}

func (d *Dataset) NumColumns() int {
	return len(d.columns)
}

// Empty reports whether the dataset has no rows or no data columns.
func (d *Dataset) Empty() bool {
	return d.NumRows() == 0 || d.NumColumns() == 0
}

func (d *Dataset) Names() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

func (d *Dataset) Columns() []*Column {
	return d.columns
}

func (d *Dataset) Index() []*Column {
	return d.index
}

func (d *Dataset) IndexNames() []string {
	names := make([]string, len(d.index))
	for i, c := range d.index {
		names[i] = c.Name
	}
	return names
}

func (d *Dataset) Column(name string) *Column {
	for _, c := range d.columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (d *Dataset) Has(name string) bool {
	return d.Column(name) != nil
}

// AddColumn appends c, or replaces the column with the same name in place.
func (d *Dataset) AddColumn(c *Column) error {
	if (len(d.columns) > 0 || len(d.index) > 0) && c.Len() != d.NumRows() {
		return fmt.Errorf("column '%s' has %d rows, dataset has %d", c.Name, c.Len(), d.NumRows())
	}
	for i, existing := range d.columns {
		if existing.Name == c.Name {
			d.columns[i] = c
			return nil
		}
	}
	d.columns = append(d.columns, c)
	return nil
}

func (d *Dataset) RemoveColumns(names ...string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := d.columns[:0]
	for _, c := range d.columns {
		if !drop[c.Name] {
			kept = append(kept, c)
		}
	}
	d.columns = kept
}

// SetIndex moves the named columns out of the data and into the row index,
// replacing any previous index.
func (d *Dataset) SetIndex(names []string) error {
	index := make([]*Column, 0, len(names))
	for _, n := range names {
		c := d.Column(n)
		if c == nil {
			return fmt.Errorf("column '%s' not found", n)
		}
		index = append(index, c)
	}
	d.RemoveColumns(names...)
	d.index = index
	return nil
}

// Take keeps the rows at the given positions, in the given order.
func (d *Dataset) Take(rows []int) {
	for _, c := range d.columns {
		c.take(rows)
	}
	for _, c := range d.index {
		c.take(rows)
	}
}

// Filter keeps the rows where keep is true.
func (d *Dataset) Filter(keep []bool) {
	rows := make([]int, 0, len(keep))
	for i, k := range keep {
		if k {
			rows = append(rows, i)
		}
	}
	d.Take(rows)
}

func (d *Dataset) ColumnsOfKind(kinds ...Kind) []*Column {
	var out []*Column
	for _, c := range d.columns {
		for _, k := range kinds {
			if c.Kind == k {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func (d *Dataset) NumericColumns() []*Column {
	return d.ColumnsOfKind(Int, Float)
}

func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		columns: make([]*Column, len(d.columns)),
		index:   make([]*Column, len(d.index)),
	}
	for i, c := range d.columns {
		out.columns[i] = c.Clone()
	}
	for i, c := range d.index {
		out.index[i] = c.Clone()
	}
	return out
}

type ColumnType struct {
	Name string
	Kind Kind
}

func (d *Dataset) Dtypes() []ColumnType {
	out := make([]ColumnType, len(d.columns))
	for i, c := range d.columns {
		out[i] = ColumnType{Name: c.Name, Kind: c.Kind}
	}
	return out
}

// RowKeys returns one comparable key per row built from the given columns.
// Rows with equal keys hold equal values in every one of those columns.
func (d *Dataset) RowKeys(columns []*Column) []string {
	keys := make([]string, d.NumRows())
	var b strings.Builder
	for i := range keys {
		b.Reset()
		for _, c := range columns {
			v := c.Values[i]
			if v == nil {
				b.WriteString("\x00")
			} else {
				fmt.Fprintf(&b, "%T:%v", key(v), key(v))
			}
			b.WriteString("\x1f")
		}
		keys[i] = b.String()
	}
	return keys
}

// HasDuplicateRows reports whether any two rows are equal across all data columns.
func (d *Dataset) HasDuplicateRows() bool {
	seen := make(map[string]struct{})
	for _, k := range d.RowKeys(d.columns) {
		if _, ok := seen[k]; ok {
			return true
		}
		seen[k] = struct{}{}
	}
	return false
}
