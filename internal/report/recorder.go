package report

import (
	"encoding/json"
	"errors"

	"gonum.org/v1/plot"
)

type BlockKind string

const (
	HeadingBlock  BlockKind = "heading"
	TextBlock     BlockKind = "text"
	SeriesBlock   BlockKind = "series"
	TableBlock    BlockKind = "table"
	PlotBlock     BlockKind = "plot"
	SubplotsBlock BlockKind = "subplots"
)

// Block is one recorded call on a Recorder.
type Block struct {
	Kind   BlockKind  `json:"kind"`
	Text   string     `json:"text,omitempty"`
	Style  *TextStyle `json:"style,omitempty"`
	Title  string     `json:"title,omitempty"`
	Series *Series    `json:"series,omitempty"`
	Table  *Table     `json:"table,omitempty"`
	// Plots holds the titles of the recorded plots.
	Plots []string `json:"plots,omitempty"`
}

// Recorder is a Document that keeps the blocks in memory instead of
// rendering them. Bytes returns the blocks as JSON.
type Recorder struct {
	Blocks []Block
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) AddHeading(text string) {
	r.Blocks = append(r.Blocks, Block{Kind: HeadingBlock, Text: text})
}

func (r *Recorder) AddText(text string, style TextStyle) {
	b := Block{Kind: TextBlock, Text: text}
	if style != Plain {
		b.Style = &style
	}
	r.Blocks = append(r.Blocks, b)
}

func (r *Recorder) AddSeries(s Series, title string) {
	r.Blocks = append(r.Blocks, Block{Kind: SeriesBlock, Title: title, Series: &s})
}

func (r *Recorder) AddTable(t Table, title string) {
	r.Blocks = append(r.Blocks, Block{Kind: TableBlock, Title: title, Table: &t})
}

var errNilPlot = errors.New("plot is nil")

func (r *Recorder) AddPlot(p *plot.Plot, title string) error {
	if p == nil {
		return errNilPlot
	}
	if title != "" {
		p.Title.Text = title
	}
	r.Blocks = append(r.Blocks, Block{Kind: PlotBlock, Title: p.Title.Text})
	return nil
}

func (r *Recorder) AddSubplots(plots []*plot.Plot, suptitle string) error {
	titles := make([]string, len(plots))
	for i, p := range plots {
		if p == nil {
			return errNilPlot
		}
		titles[i] = p.Title.Text
	}
	r.Blocks = append(r.Blocks, Block{Kind: SubplotsBlock, Title: suptitle, Plots: titles})
	return nil
}

func (r *Recorder) Bytes() ([]byte, error) {
	return json.Marshal(r.Blocks)
}

// Texts returns the text of every heading and text block in order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, b := range r.Blocks {
		if b.Kind == HeadingBlock || b.Kind == TextBlock {
			out = append(out, b.Text)
		}
	}
	return out
}

// Kinds returns the kind of every block in order.
func (r *Recorder) Kinds() []BlockKind {
	out := make([]BlockKind, len(r.Blocks))
	for i, b := range r.Blocks {
		out[i] = b.Kind
	}
	return out
}
