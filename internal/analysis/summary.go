package analysis

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"analysis-backend/internal/dataset"
	"analysis-backend/internal/report"

	"gonum.org/v1/plot"
)

// KindCounts tallies the columns of a dataset by kind.
type KindCounts struct {
	Numeric, Categorical, Boolean, Datetime, String int
}

func countKinds(ds *dataset.Dataset) KindCounts {
	return KindCounts{
		Numeric:     len(ds.NumericColumns()),
		Categorical: len(ds.ColumnsOfKind(dataset.Category)),
		Boolean:     len(ds.ColumnsOfKind(dataset.Bool)),
		Datetime:    len(ds.ColumnsOfKind(dataset.Datetime)),
		String:      len(ds.ColumnsOfKind(dataset.String)),
	}
}

// MissingShare returns the missing cell count and its percentage of all cells.
func MissingShare(ds *dataset.Dataset) (int, float64) {
	missing := 0
	for _, c := range ds.Columns() {
		missing += c.MissingCount()
	}
	size := ds.NumRows() * ds.NumColumns()
	if size == 0 {
		return missing, 0
	}
	return missing, float64(missing) / float64(size) * 100
}

func (a *Analyzer) basicStats() error {
	ds := a.ds
	a.doc.AddHeading("Overall dataset summary:")

	kinds := countKinds(ds)
	missing, pct := MissingShare(ds)
	duplicates := "not found"
	if ds.HasDuplicateRows() {
		duplicates = "found"
	}
	a.doc.AddText(fmt.Sprintf("* Dataset contains %d rows, %d columns\n"+
		"(%d numeric, %d categorical, %d boolean, %d datetime, %d string).\n"+
		"* Duplicated rows %s.\n"+
		"* Missing values: %s%% .",
		ds.NumRows(), ds.NumColumns(),
		kinds.Numeric, kinds.Categorical, kinds.Boolean, kinds.Datetime, kinds.String,
		duplicates, formatRounded(pct)), report.Plain)

	var names, kindNames []string
	for _, ct := range ds.Dtypes() {
		names = append(names, ct.Name)
		kindNames = append(kindNames, string(ct.Kind))
	}
	a.doc.AddSeries(report.NewSeries(names, kindNames), "Column Types:")

	if missing > 0 {
		if err := a.plot("", func() (*plot.Plot, error) { return missingValuesChart(ds) }); err != nil {
			return err
		}
	}

	if numeric := ds.NumericColumns(); len(numeric) > 0 {
		a.doc.AddTable(numericDescribe(numeric), "Numeric Stats:")
	}
	if other := ds.ColumnsOfKind(dataset.String, dataset.Category, dataset.Bool); len(other) > 0 {
		a.doc.AddTable(categoricalDescribe(other), "Non-numeric Stats:")
	}
	return nil
}

func missingValuesChart(ds *dataset.Dataset) (*plot.Plot, error) {
	names := ds.Names()
	missing := make([]float64, len(names))
	present := make([]float64, len(names))
	for i, c := range ds.Columns() {
		missing[i] = float64(c.MissingCount())
		present[i] = float64(c.Len() - c.MissingCount())
	}
	return stackedBars("Missing values by column", names, []string{"Missing", "Non-missing"}, [][]float64{missing, present})
}

func numericDescribe(columns []*dataset.Column) report.Table {
	t := report.Table{Index: []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}}
	t.Rows = make([][]string, len(t.Index))
	for _, c := range columns {
		t.Columns = append(t.Columns, c.Name)
		s := c.Describe()
		for i, v := range []float64{float64(s.Count), s.Mean, s.Std, s.Min, s.Q25, s.Median, s.Q75, s.Max} {
			t.Rows[i] = append(t.Rows[i], formatStat(v))
		}
	}
	return t
}

func categoricalDescribe(columns []*dataset.Column) report.Table {
	t := report.Table{Index: []string{"count", "unique", "top", "freq"}}
	t.Rows = make([][]string, len(t.Index))
	for _, c := range columns {
		t.Columns = append(t.Columns, c.Name)
		count := c.Len() - c.MissingCount()
		top, freq := "NaN", "NaN"
		if counts := c.ValueCounts(); len(counts) > 0 {
			top = dataset.FormatValue(counts[0].Value)
			freq = strconv.Itoa(counts[0].Count)
		}
		for i, cell := range []string{strconv.Itoa(count), strconv.Itoa(c.Unique()), top, freq} {
			t.Rows[i] = append(t.Rows[i], cell)
		}
	}
	return t
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// formatRounded rounds to two decimals and always keeps a fractional part.
func formatRounded(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
