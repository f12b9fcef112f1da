package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gen2brain/go-fitz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
)

func TestTruncateName(t *testing.T) {
	assert.Equal(t, "short", truncateName("short", 14))
	assert.Equal(t, "exactly_14_chr", truncateName("exactly_14_chr", 14))
	assert.Equal(t, "averyl...nname", truncateName("averylongcolumnname", 14))
}

func TestFormatSeries(t *testing.T) {
	s := NewSeries([]string{"age", "name"}, []string{"int64", "object"})
	assert.Equal(t, "age    int64\nname  object", formatTable(seriesTable(s), false))

	list := ListSeries([]string{"a", "bb"})
	assert.Equal(t, []string{"0", "1"}, list.Labels)
	assert.Equal(t, "0   a\n1  bb", formatTable(seriesTable(list), false))
}

func TestTableChunks(t *testing.T) {
	table := Table{
		Columns: []string{"a", "b", "c", "d", "averylongcolumnname"},
		Index:   []string{"count", "mean"},
		Rows: [][]string{
			{"1", "2", "3", "4", "5"},
			{"1.5", "2", "3", "4", "5.25"},
		},
	}

	chunks := tableChunks(table, true)
	require.Len(t, chunks, 2)
	assert.Equal(t, "         a  b  c  d\ncount    1  2  3  4\nmean   1.5  2  3  4\n", chunks[0])
	assert.Equal(t, "       averyl...nname\ncount"+strings.Repeat(" ", 15)+"5\nmean"+strings.Repeat(" ", 13)+"5.25\n", chunks[1])
}

func linePlot(t *testing.T, title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	s, err := plotter.NewScatter(plotter.XYs{{X: 1, Y: 2}, {X: 2, Y: 3}, {X: 3, Y: 5}})
	require.NoError(t, err)
	p.Add(s)
	return p
}

func pdfText(t *testing.T, data []byte) (string, int) {
	doc, err := fitz.NewFromMemory(data)
	require.NoError(t, err)
	defer doc.Close()

	var pages []string
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		require.NoError(t, err)
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n"), doc.NumPage()
}

func TestPDFDocument(t *testing.T) {
	for _, theme := range []Theme{ThemeLight, ThemeDark} {
		t.Run(string(theme), func(t *testing.T) {
			doc := NewPDFDocument(Options{
				DPI:      72,
				Theme:    theme,
				ShowTime: true,
				Now:      func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) },
			})

			doc.AddHeading("Overall dataset summary:")
			doc.AddText("* Dataset contains 3 rows, 2 columns", Plain)
			doc.AddSeries(NewSeries([]string{"x"}, []string{"float64"}), "Column Types:")
			doc.AddTable(Table{Columns: []string{"x"}, Index: []string{"count"}, Rows: [][]string{{"3.0000"}}}, "Numeric Stats:")
			require.NoError(t, doc.AddPlot(linePlot(t, ""), "Single"))
			require.NoError(t, doc.AddSubplots([]*plot.Plot{linePlot(t, "a"), linePlot(t, "b"), linePlot(t, "c")}, "Grid"))
			doc.AddText("|====<   done   >====|", TextStyle{Monospaced: true, Bold: true})

			data, err := doc.Bytes()
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(string(data), "%PDF"))

			again, err := doc.Bytes()
			require.NoError(t, err)
			assert.Equal(t, data, again)

			text, pages := pdfText(t, data)
			assert.GreaterOrEqual(t, pages, 1)
			assert.Contains(t, text, "Data Analysis Report")
			assert.Contains(t, text, "Generated: 2024-01-02 03:04:05 UTC")
			assert.Contains(t, text, "Overall dataset summary:")
			assert.Contains(t, text, "Page 1")
			assert.Contains(t, text, "done")
		})
	}
}

func TestPDFDocumentWithoutTime(t *testing.T) {
	doc := NewPDFDocument(Options{ShowTime: false})
	doc.AddText("hello", Plain)

	data, err := doc.Bytes()
	require.NoError(t, err)

	text, _ := pdfText(t, data)
	assert.Contains(t, text, "Data Analysis Report")
	assert.NotContains(t, text, "Generated:")
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	rec.AddHeading("Heading")
	rec.AddText("body", Plain)
	rec.AddText("marker", TextStyle{Monospaced: true, Bold: true})
	rec.AddSeries(ListSeries([]string{"a"}), "")
	rec.AddTable(Table{Columns: []string{"x"}}, "T")
	require.NoError(t, rec.AddPlot(linePlot(t, "inner"), "outer"))
	require.NoError(t, rec.AddSubplots([]*plot.Plot{linePlot(t, "a"), linePlot(t, "b")}, "pair"))
	assert.ErrorIs(t, rec.AddPlot(nil, ""), errNilPlot)

	assert.Equal(t, []BlockKind{HeadingBlock, TextBlock, TextBlock, SeriesBlock, TableBlock, PlotBlock, SubplotsBlock}, rec.Kinds())
	assert.Equal(t, []string{"Heading", "body", "marker"}, rec.Texts())
	assert.Equal(t, "outer", rec.Blocks[5].Title)
	assert.Equal(t, []string{"a", "b"}, rec.Blocks[6].Plots)
	assert.Nil(t, rec.Blocks[1].Style)
	assert.Equal(t, &TextStyle{Monospaced: true, Bold: true}, rec.Blocks[2].Style)

	data, err := rec.Bytes()
	require.NoError(t, err)
	var decoded []Block
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, 7)
}
