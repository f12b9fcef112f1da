package analysis

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

var (
	crimson = color.RGBA{R: 220, G: 20, B: 60, A: 255}
	orange  = color.RGBA{R: 255, G: 165, A: 255}
)

const barWidth = vg.Length(14)

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	return p
}

// stackedBars draws one horizontal bar per label split into the given
// stacked segments.
func stackedBars(title string, labels []string, segments []string, values [][]float64) (*plot.Plot, error) {
	p := newPlot(title, "", "")
	var below *plotter.BarChart
	for s, name := range segments {
		bars, err := plotter.NewBarChart(plotter.Values(values[s]), barWidth)
		if err != nil {
			return nil, fmt.Errorf("error building bar chart: %w", err)
		}
		bars.Horizontal = true
		bars.Color = plotutil.Color(s)
		bars.LineStyle.Width = 0
		if below != nil {
			bars.StackOn(below)
		}
		p.Add(bars)
		p.Legend.Add(name, bars)
		below = bars
	}
	p.Legend.Top = true
	p.NominalY(labels...)
	return p, nil
}

func barPlot(title string, labels []string, values []float64, horizontal bool) (*plot.Plot, error) {
	p := newPlot(title, "", "")
	bars, err := plotter.NewBarChart(plotter.Values(values), barWidth)
	if err != nil {
		return nil, fmt.Errorf("error building bar chart: %w", err)
	}
	bars.Horizontal = horizontal
	bars.Color = plotutil.Color(0)
	bars.LineStyle.Width = 0
	p.Add(bars)
	if horizontal {
		p.NominalY(labels...)
	} else {
		p.NominalX(labels...)
	}
	return p, nil
}

// scoreBars shows feature scores as annotated bars, bounded by the tier.
func scoreBars(title string, scores []FeatureScore, tier Tier) (*plot.Plot, error) {
	labels := make([]string, len(scores))
	values := make([]float64, len(scores))
	annotations := plotter.XYLabels{XYs: make(plotter.XYs, len(scores)), Labels: make([]string, len(scores))}
	for i, s := range scores {
		labels[i] = s.Feature
		values[i] = s.Score
		annotations.XYs[i] = plotter.XY{X: float64(i), Y: s.Score}
		annotations.Labels[i] = fmt.Sprintf("%.2f", s.Score)
	}

	p, err := barPlot(title, labels, values, false)
	if err != nil {
		return nil, err
	}
	text, err := plotter.NewLabels(annotations)
	if err != nil {
		return nil, fmt.Errorf("error building labels: %w", err)
	}
	p.Add(text)
	if !math.IsInf(tier.High, 1) {
		p.Y.Max = math.Max(p.Y.Max, tier.High)
	}
	return p, nil
}

func boxPlot(title string, values []float64) (*plot.Plot, error) {
	p := newPlot(title, "", "")
	box, err := plotter.NewBoxPlot(barWidth*3, 0, plotter.Values(values))
	if err != nil {
		return nil, fmt.Errorf("error building box plot: %w", err)
	}
	box.Horizontal = true
	box.FillColor = plotutil.Color(0)
	p.Add(box)
	p.Y.Tick.Marker = plot.ConstantTicks(nil)
	return p, nil
}

// groupedBoxPlot draws one horizontal box per group. Empty groups are left
// blank.
func groupedBoxPlot(title, xLabel string, groups []string, values [][]float64) (*plot.Plot, error) {
	p := newPlot(title, xLabel, "")
	for i, vs := range values {
		if len(vs) == 0 {
			continue
		}
		box, err := plotter.NewBoxPlot(barWidth, float64(i), plotter.Values(vs))
		if err != nil {
			return nil, fmt.Errorf("error building box plot: %w", err)
		}
		box.Horizontal = true
		box.FillColor = plotutil.Color(i)
		p.Add(box)
	}
	p.NominalY(groups...)
	return p, nil
}

// histogram draws a normalized histogram of values with a Gaussian kernel
// density estimate on top.
func histogram(title string, values []float64) (*plot.Plot, error) {
	p := newPlot(title, "", "Density")
	bins := int(math.Ceil(math.Log2(float64(len(values))))) + 1
	hist, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return nil, fmt.Errorf("error building histogram: %w", err)
	}
	hist.FillColor = plotutil.Color(0)
	p.Add(hist)

	lo, hi := floats.Min(values), floats.Max(values)
	if len(values) < 2 || lo == hi {
		return p, nil
	}
	hist.Normalize(1)

	bandwidth := stat.StdDev(values, nil) * math.Pow(float64(len(values)), -0.2)
	kde := plotter.NewFunction(func(x float64) float64 {
		sum := 0.0
		for _, v := range values {
			z := (x - v) / bandwidth
			sum += math.Exp(-0.5 * z * z)
		}
		return sum / (float64(len(values)) * bandwidth * math.Sqrt(2*math.Pi))
	})
	kde.XMin, kde.XMax = lo, hi
	kde.Samples = 200
	kde.Color = crimson
	kde.Width = vg.Points(2)
	p.Add(kde)
	return p, nil
}

// regressionPlot scatters y against x with the least squares line.
func regressionPlot(xLabel, yLabel string, xs, ys []float64) (*plot.Plot, error) {
	p := newPlot("", xLabel, yLabel)
	points := make(plotter.XYs, len(xs))
	for i := range xs {
		points[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}
	scatter, err := plotter.NewScatter(points)
	if err != nil {
		return nil, fmt.Errorf("error building scatter plot: %w", err)
	}
	scatter.Color = plotutil.Color(0)
	p.Add(scatter)

	if len(xs) < 2 || stat.Variance(xs, nil) == 0 {
		return p, nil
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	fit := plotter.NewFunction(func(x float64) float64 { return alpha + beta*x })
	fit.XMin, fit.XMax = floats.Min(xs), floats.Max(xs)
	fit.Color = orange
	fit.Width = vg.Points(2)
	p.Add(fit)
	return p, nil
}
