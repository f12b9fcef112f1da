// Package report renders analysis output into a document. PDFDocument
// produces the downloadable report and Recorder keeps an in-memory outline.
package report

import (
	"strconv"

	"gonum.org/v1/plot"
)

type TextStyle struct {
	Monospaced bool
	Bold       bool
}

var (
	Plain     = TextStyle{}
	Bold      = TextStyle{Bold: true}
	Monospace = TextStyle{Monospaced: true}
)

// Series is a labelled column of values rendered without a header.
type Series struct {
	Labels []string `json:"labels"`
	Values []string `json:"values"`
}

// NewSeries pairs labels with values. Extra entries on either side are dropped.
func NewSeries(labels, values []string) Series {
	n := min(len(labels), len(values))
	return Series{Labels: labels[:n], Values: values[:n]}
}

// ListSeries renders values labelled by position, starting at 0.
func ListSeries(values []string) Series {
	labels := make([]string, len(values))
	for i := range values {
		labels[i] = strconv.Itoa(i)
	}
	return Series{Labels: labels, Values: values}
}

func (s Series) Len() int {
	return len(s.Labels)
}

// Table is a row-major grid of preformatted cells with row and column labels.
type Table struct {
	Columns []string   `json:"columns"`
	Index   []string   `json:"index"`
	Rows    [][]string `json:"rows"`
}

// Document is the sink the analysis writes into. Blocks are appended in call
// order.
type Document interface {
	AddHeading(text string)
	AddText(text string, style TextStyle)
	AddSeries(s Series, title string)
	AddTable(t Table, title string)
	AddPlot(p *plot.Plot, title string) error
	// AddSubplots lays plots out two per row with suptitle above the first row.
	AddSubplots(plots []*plot.Plot, suptitle string) error
	Bytes() ([]byte, error)
}
