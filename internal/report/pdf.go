package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

const (
	DefaultDPI = 200

	subplotColumns = 2

	textLineHeight  = 6.0
	monoLineHeight  = 4.5
	textFontSize    = 14
	monoFontSize    = 10
	headingIndent   = "        "
	reportTitle     = "Data Analysis Report"
	generatedFormat = "2006-01-02 15:04:05 UTC"
)

var (
	plotWidth, plotHeight       = 6 * vg.Inch, 4 * vg.Inch
	subplotWidth, subplotHeight = 5 * vg.Inch, 5 * vg.Inch
)

type Options struct {
	DPI      int
	Theme    Theme
	ShowTime bool
	// Now stamps the header. Defaults to time.Now.
	Now func() time.Time
}

func DefaultOptions() Options {
	return Options{DPI: DefaultDPI, Theme: ThemeLight, ShowTime: true}
}

// PDFDocument writes report blocks to an A4 PDF.
type PDFDocument struct {
	pdf     *fpdf.Fpdf
	tr      func(string) string
	opts    Options
	created string
	images  int
	output  []byte
}

func NewPDFDocument(opts Options) *PDFDocument {
	if opts.DPI <= 0 {
		opts.DPI = DefaultDPI
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	now := opts.Now().UTC()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(reportTitle, true)
	pdf.SetCreator("analysis-backend", true)
	pdf.SetCreationDate(now)

	d := &PDFDocument{
		pdf:     pdf,
		tr:      pdf.UnicodeTranslatorFromDescriptor(""),
		opts:    opts,
		created: now.Format(generatedFormat),
	}
	if opts.Theme == ThemeDark {
		pdf.SetTextColor(255, 255, 255)
		pdf.SetDrawColor(255, 255, 255)
	}
	pdf.SetHeaderFunc(d.header)
	pdf.SetFooterFunc(d.footer)
	pdf.AddPage()
	return d
}

func (d *PDFDocument) header() {
	pdf := d.pdf
	if d.opts.Theme == ThemeDark {
		w, h := pdf.GetPageSize()
		pdf.SetFillColor(0, 0, 0)
		pdf.Rect(0, 0, w, h, "F")
		pdf.SetTextColor(255, 255, 255)
		pdf.SetDrawColor(255, 255, 255)
	}

	pdf.SetFont("Arial", "B", 15)
	pdf.CellFormat(0, 10, reportTitle, "", 0, "C", false, 0, "")
	if d.opts.ShowTime {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 10, "Generated: "+d.created, "", 1, "R", false, 0, "")
	} else {
		pdf.Ln(10)
	}

	left, _, right, _ := pdf.GetMargins()
	w, _ := pdf.GetPageSize()
	y := pdf.GetY()
	pdf.Line(left, y, w-right, y)
	pdf.Ln(5)
}

func (d *PDFDocument) footer() {
	d.pdf.SetY(-15)
	d.pdf.SetFont("Arial", "I", 10)
	d.pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", d.pdf.PageNo()), "", 0, "C", false, 0, "")
}

func (d *PDFDocument) AddText(text string, style TextStyle) {
	fontStyle := ""
	if style.Bold {
		fontStyle = "B"
	}
	if style.Monospaced {
		d.pdf.SetFont("Courier", fontStyle, monoFontSize)
		d.pdf.Write(monoLineHeight, d.tr(text+"\n"))
		return
	}
	d.pdf.SetFont("Times", fontStyle, textFontSize)
	d.pdf.Write(textLineHeight, d.tr(text+"\n"))
}

func (d *PDFDocument) AddHeading(text string) {
	d.pdf.Ln(5)
	d.AddText(headingIndent+text, Bold)
	d.pdf.Ln(3)
}

func (d *PDFDocument) AddSeries(s Series, title string) {
	d.addTable(seriesTable(s), title, false)
}

func (d *PDFDocument) AddTable(t Table, title string) {
	d.addTable(t, title, true)
}

func (d *PDFDocument) addTable(t Table, title string, header bool) {
	if title != "" {
		d.AddHeading(title)
	}
	for _, chunk := range tableChunks(t, header) {
		d.AddText(chunk, Monospace)
	}
	d.AddText("", Plain)
}

func (d *PDFDocument) AddPlot(p *plot.Plot, title string) error {
	if title != "" {
		p.Title.Text = title
	}

	img := vgimg.NewWith(vgimg.UseWH(plotWidth, plotHeight), vgimg.UseDPI(d.opts.DPI))
	p.Draw(draw.New(img))
	return d.embed(img, plotWidth, plotHeight)
}

func (d *PDFDocument) AddSubplots(plots []*plot.Plot, suptitle string) error {
	for start := 0; start < len(plots); start += subplotColumns {
		if start == 0 && suptitle != "" {
			d.pdf.Ln(4)
			d.pdf.SetFont("Times", "B", textFontSize+2)
			d.pdf.MultiCell(0, textLineHeight+2, d.tr(suptitle), "", "C", false)
		}

		row := make([]*plot.Plot, subplotColumns)
		for j := range row {
			if start+j < len(plots) {
				row[j] = plots[start+j]
				continue
			}
			blank := plot.New()
			blank.HideAxes()
			row[j] = blank
		}

		w, h := subplotWidth*subplotColumns, subplotHeight
		img := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(d.opts.DPI))
		tiles := draw.Tiles{
			Rows:      1,
			Cols:      subplotColumns,
			PadX:      vg.Millimeter * 8,
			PadTop:    vg.Millimeter * 2,
			PadBottom: vg.Millimeter * 2,
			PadLeft:   vg.Millimeter * 2,
			PadRight:  vg.Millimeter * 2,
		}
		canvases := plot.Align([][]*plot.Plot{row}, tiles, draw.New(img))
		for j, p := range row {
			p.Draw(canvases[0][j])
		}

		if err := d.embed(img, w, h); err != nil {
			return err
		}
	}
	return nil
}

// embed encodes img as PNG and places it at the full text width, breaking the
// page when it does not fit.
func (d *PDFDocument) embed(img *vgimg.Canvas, w, h vg.Length) error {
	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(&buf); err != nil {
		return fmt.Errorf("error encoding plot: %w", err)
	}

	d.images++
	name := fmt.Sprintf("plot-%d", d.images)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	d.pdf.RegisterImageOptionsReader(name, opts, &buf)

	left, _, right, _ := d.pdf.GetMargins()
	pageW, _ := d.pdf.GetPageSize()
	width := pageW - left - right
	height := width * float64(h) / float64(w)
	d.pdf.ImageOptions(name, left, -1, width, height, true, opts, 0, "")

	if err := d.pdf.Error(); err != nil {
		return fmt.Errorf("error adding plot to report: %w", err)
	}
	return nil
}

// Bytes closes the document and returns the encoded PDF. Later calls return
// the same bytes.
func (d *PDFDocument) Bytes() ([]byte, error) {
	if d.output != nil {
		return d.output, nil
	}
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("error rendering report: %w", err)
	}
	d.output = buf.Bytes()
	return d.output, nil
}
