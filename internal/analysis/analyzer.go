// Package analysis inspects a dataset for a machine learning task and writes
// its findings and recommendations into a report document.
package analysis

import (
	"fmt"
	"log/slog"
	"strings"

	"analysis-backend/internal/dataset"
	"analysis-backend/internal/errs"
	"analysis-backend/internal/report"

	"gonum.org/v1/plot"
)

const maxClassificationClasses = 10

type plotFunc func() (*plot.Plot, error)

type Analyzer struct {
	ds     *dataset.Dataset
	doc    report.Document
	params Params
}

// NewAnalyzer analyzes ds in place. A clusterization pass adds its placeholder
// label column to ds.
func NewAnalyzer(ds *dataset.Dataset) *Analyzer {
	return &Analyzer{ds: ds}
}

// FillReport writes the basic statistics block, when enabled, followed by the
// recommendations for params.Task into doc.
func (a *Analyzer) FillReport(params Params, doc report.Document) error {
	a.params, a.doc = params, doc

	if err := a.checkTarget(); err != nil {
		return err
	}

	slog.Info("filling analysis report", "task", params.Task, "target", params.Target, "rows", a.ds.NumRows(), "columns", a.ds.NumColumns())

	if params.BasicStats {
		if err := a.basicStats(); err != nil {
			return fmt.Errorf("error writing basic statistics: %w", err)
		}
	}

	a.doc.AddHeading(fmt.Sprintf("%s Recommendations for '%s'", params.Task.Title(), params.Target))

	var err error
	switch params.Task {
	case Regression:
		err = a.regression()
	case Classification:
		err = a.classification()
	case Clusterization:
		err = a.clusterization()
	default:
		return &errs.ParameterError{Parameter: "analysis_task", Value: string(params.Task), Expected: tasks}
	}
	if err != nil {
		return fmt.Errorf("error writing %s recommendations: %w", params.Task, err)
	}

	a.featureEngineering()
	a.doc.AddText(fmt.Sprintf("\n|====<   %s preparation completed !   >====|", params.Task.Title()), report.TextStyle{Monospaced: true, Bold: true})
	return nil
}

func (a *Analyzer) checkTarget() error {
	if a.params.Task == Clusterization {
		return nil
	}
	if a.params.Target == "" {
		return &errs.ParameterMissing{Parameter: "target_col"}
	}
	if !a.ds.Has(a.params.Target) {
		return &errs.ParameterError{Parameter: "target_col", Value: a.params.Target, Expected: a.ds.Names()}
	}
	return nil
}

func (a *Analyzer) plot(title string, build plotFunc) error {
	if !a.params.Visualize {
		return nil
	}
	p, err := build()
	if err != nil {
		return err
	}
	return a.doc.AddPlot(p, title)
}

func (a *Analyzer) subplots(suptitle string, builds []plotFunc) error {
	if !a.params.Visualize || len(builds) == 0 {
		return nil
	}
	plots := make([]*plot.Plot, 0, len(builds))
	for _, build := range builds {
		p, err := build()
		if err != nil {
			return err
		}
		plots = append(plots, p)
	}
	return a.doc.AddSubplots(plots, suptitle)
}

func (a *Analyzer) targetMissingNote(y *dataset.Column) {
	missing := y.MissingCount()
	if missing == 0 {
		a.doc.AddText(fmt.Sprintf("* Target column '%s' has no missing values.", y.Name), report.Plain)
		return
	}
	pct := float64(missing) / float64(y.Len()) * 100
	a.doc.AddText(fmt.Sprintf("* Target column '%s' has %d missing values (%s%% of all):\n"+
		"    if missing values share is not too significant - "+
		"consider removal or using median/mode/mean value for imputation\n"+
		"    else - consider special methods of imputation "+
		"(Forward Fill, Backward Fill, using exact value or based on other columns)",
		y.Name, missing, formatRounded(pct)), report.Plain)
}

func (a *Analyzer) regression() error {
	target := a.params.Target
	y := a.ds.Column(target)
	a.targetMissingNote(y)

	if !y.Kind.Numeric() {
		a.doc.AddText(fmt.Sprintf("* Target column '%s' is not numeric.\n"+
			"* No further reporting can be performed. Consider encoding or converting it.", target), report.Plain)
		return nil
	}
	a.doc.AddText(fmt.Sprintf("* Target column '%s' is numeric (%s).", target, y.Kind), report.Plain)

	values := y.PresentFloats()
	if len(values) > 0 {
		err := a.subplots(fmt.Sprintf("'%s' values distribution", target), []plotFunc{
			func() (*plot.Plot, error) { return boxPlot(target, values) },
			func() (*plot.Plot, error) { return histogram(target, values) },
		})
		if err != nil {
			return err
		}
	}

	if outliers := IQROutliers(values); outliers > 0 {
		a.doc.AddText(fmt.Sprintf("* %d potential outliers detected in '%s'.\n"+
			"* Consider handling them or leave these values as-is if they are important.\n", outliers, target), report.Plain)
	} else {
		a.doc.AddText("* No potential outliers were detected in target column, which is perfect for building a "+
			"stable predictive model and indicates good data quality!\n", report.Plain)
	}
	a.doc.AddText(fmt.Sprintf("* If the distribution of '%s' is not normal (look at the chart above), consider "+
		"applying transformations such as log or Box-Cox to make the data more suitable for reporting.\n"+
		"A transformation can sometimes help stabilize variance and improve the model's performance.", target), report.Plain)

	featurePlot := func(feature string) plotFunc {
		return func() (*plot.Plot, error) {
			xs, ys := pairedFloats(y, a.ds.Column(feature))
			return regressionPlot(target, feature, xs, ys)
		}
	}
	return a.selectFeatures(CorrelationScores(a.ds, target), "regression", featurePlot, nil)
}

// ClassificationTarget reports whether y can serve as class labels: boolean
// and category columns always can, string and integer columns when they hold
// at most 10 distinct values.
func ClassificationTarget(y *dataset.Column) bool {
	unique := y.Unique()
	if unique == 0 {
		return false
	}
	switch y.Kind {
	case dataset.Bool, dataset.Category:
		return true
	case dataset.String, dataset.Int:
		return unique <= maxClassificationClasses
	}
	return false
}

func (a *Analyzer) classification() error {
	target := a.params.Target
	y := a.ds.Column(target)
	a.targetMissingNote(y)

	if !ClassificationTarget(y) {
		a.doc.AddText(fmt.Sprintf("* Target column '%s' (%s, %d unique values) is not suitable for classification.\n"+
			"* No further reporting can be performed. Consider binning it or converting it to a category "+
			"with at most %d classes.", target, y.Kind, y.Unique(), maxClassificationClasses), report.Plain)
		return nil
	}

	balance := Balance(y)
	classes := make([]string, len(balance.Shares))
	for i, s := range balance.Shares {
		classes[i] = s.Class
	}

	err := a.plot(fmt.Sprintf("'%s' class distribution", target), func() (*plot.Plot, error) {
		counts := y.ValueCounts()
		values := make([]float64, len(counts))
		for i, vc := range counts {
			values[i] = float64(vc.Count)
		}
		return barPlot("", classes, values, false)
	})
	if err != nil {
		return err
	}

	if balance.Imbalanced {
		a.doc.AddText(fmt.Sprintf("* Target column is imbalanced:\n"+
			"    - the most frequent class appears %sx more often than the least frequent.\n"+
			"    - consider using techniques like oversampling (SMOTE), undersampling, or class weighting in your model.",
			formatRounded(balance.Ratio)), report.Plain)
	} else {
		a.doc.AddText("* Target column has a balanced distribution of classes.", report.Plain)
	}

	if len(balance.Rare) > 0 {
		a.doc.AddText("* Some target classes are very rare (<1% of total data):", report.Plain)
		labels := make([]string, len(balance.Rare))
		shares := make([]string, len(balance.Rare))
		for i, r := range balance.Rare {
			labels[i], shares[i] = r.Class, formatStat(r.Share)
		}
		a.doc.AddSeries(report.NewSeries(labels, shares), "")
		a.doc.AddText("* Consider:\n"+
			"    - grouping rare classes into an 'Other' category (if appropriate)\n"+
			"    - collecting more data\n"+
			"    - using stratified sampling during training.", report.Plain)
	}

	featurePlot := func(feature string) plotFunc {
		return func() (*plot.Plot, error) {
			return groupedBoxPlot("", feature, classes, valuesByClass(a.ds.Column(feature), y, classes))
		}
	}
	return a.selectFeatures(MutualInformationScores(a.ds, target), "classification", featurePlot, nil)
}

func (a *Analyzer) clusterization() error {
	label := a.params.Target
	placeholder, err := dataset.NewColumn(label, dataset.String, make([]any, a.ds.NumRows()))
	if err != nil {
		return err
	}
	if err := a.ds.AddColumn(placeholder); err != nil {
		return err
	}

	n := a.ds.NumRows()
	if n < 100 {
		a.doc.AddText(fmt.Sprintf("* Small data (%d rows): clustering may be unreliable.", n), report.Plain)
	} else {
		a.doc.AddText(fmt.Sprintf("* Considering your dataset size (%d rows), expected number of clusters should not be"+
			" more than %d.\n    - Otherwise, clustering algorithms would have low performance.", n, n/10), report.Plain)
	}

	if numeric := len(a.ds.NumericColumns()); numeric > 3 {
		a.doc.AddText(fmt.Sprintf("\n* The dataset consists of %d numeric columns:\n    - To facilitate clustering "+
			"and improve visualization, dimensionality reduction techniques like PCA or t-SNE should be applied.", numeric), report.Plain)
	}

	scores, ok := PCAScores(a.ds)
	if !ok {
		a.doc.AddHeading("Feature Selection Recommendations:")
		a.doc.AddText("* Not enough complete numeric rows to compute weighted PCA scores.", report.Plain)
	} else {
		groupPlot := func(group []FeatureScore) plotFunc {
			return func() (*plot.Plot, error) {
				names := make([]string, len(group))
				values := make([][]float64, len(group))
				for i, f := range group {
					names[i] = f.Feature
					values[i] = a.ds.Column(f.Feature).PresentFloats()
				}
				return groupedBoxPlot("", "", names, values)
			}
		}
		if err := a.selectFeatures(scores, "clustering", nil, groupPlot); err != nil {
			return err
		}
	}

	a.doc.AddText("\n* Looking at the feature distribution chart, consider preprocessing decisions:\n"+
		"    1) whether scaling should be applied, as most clustering algorithms are distance-based;\n"+
		"        - actually, scaling can result in a completely different set of important features.\n"+
		"    2) whether outliers should be handled properly, as they can significantly impact the results;\n"+
		"        - this operation can also significantly impact the feature importance.", report.Plain)
	return nil
}

// selectFeatures writes the tiered scoring output. Each non empty tier gets
// either one chart per feature or a single chart for the whole tier.
func (a *Analyzer) selectFeatures(scores Scores, task string, featurePlot func(string) plotFunc, groupPlot func([]FeatureScore) plotFunc) error {
	a.doc.AddHeading("Feature Selection Recommendations:")

	if !scores.Relevant() {
		a.doc.AddText(fmt.Sprintf("* No significant relationship between '%s' and the numeric features was found based on %s.",
			a.params.Target, scores.Metric), report.Plain)
		return nil
	}

	for _, tier := range scores.Tiers {
		group := scores.Group(tier)
		if len(group) == 0 {
			a.doc.AddText(fmt.Sprintf("* No %s meaningful features found based on %s.", tier.Name, scores.Metric), report.Plain)
			continue
		}
		a.doc.AddText(fmt.Sprintf("* %d %s meaningful features were found. Consider using them in %s:", len(group), tier.Name, task), report.Plain)

		if len(group) >= 3 && len(group) <= 7 {
			err := a.plot(titleCase(scores.Metric), func() (*plot.Plot, error) { return scoreBars("", group, tier) })
			if err != nil {
				return err
			}
		} else {
			a.doc.AddSeries(scoreSeries(group), "")
		}

		switch {
		case featurePlot != nil:
			builds := make([]plotFunc, len(group))
			for i, f := range group {
				builds[i] = featurePlot(f.Feature)
			}
			suptitle := fmt.Sprintf("Dependency between '%s' and %s meaningful features", a.params.Target, tier.Name)
			if err := a.subplots(suptitle, builds); err != nil {
				return err
			}
		case groupPlot != nil:
			if err := a.plot(fmt.Sprintf("%s meaningful features chart", titleCase(tier.Name)), groupPlot(group)); err != nil {
				return err
			}
		}
	}

	if len(scores.Rest()) > 0 {
		a.doc.AddText("* Remaining features have low relevance.", report.Plain)
	}
	return nil
}

func (a *Analyzer) featureEngineering() {
	a.doc.AddHeading("Feature Engineering Recommendations:")
	for _, g := range FeatureEngineering(a.ds, a.params.Target) {
		a.doc.AddText("* "+g.Message, report.Plain)
		a.doc.AddSeries(report.ListSeries(g.Columns), "")
	}
}

func scoreSeries(group []FeatureScore) report.Series {
	labels := make([]string, len(group))
	values := make([]string, len(group))
	for i, f := range group {
		labels[i], values[i] = f.Feature, formatStat(f.Score)
	}
	return report.NewSeries(labels, values)
}

// pairedFloats returns the rows where both x and y hold a number.
func pairedFloats(x, y *dataset.Column) ([]float64, []float64) {
	var xs, ys []float64
	for i := range x.Values {
		a, ok1 := x.Float(i)
		b, ok2 := y.Float(i)
		if ok1 && ok2 {
			xs = append(xs, a)
			ys = append(ys, b)
		}
	}
	return xs, ys
}

func valuesByClass(feature, target *dataset.Column, classes []string) [][]float64 {
	position := make(map[string]int, len(classes))
	for i, c := range classes {
		position[c] = i
	}
	out := make([][]float64, len(classes))
	for i := range feature.Values {
		v, ok := feature.Float(i)
		if !ok || target.IsMissing(i) {
			continue
		}
		j := position[dataset.FormatValue(target.Values[i])]
		out[j] = append(out[j], v)
	}
	return out
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
