package analysis

import (
	"math"
	"sort"

	"analysis-backend/internal/dataset"

	"gonum.org/v1/gonum/stat"
)

// Tier is a named score band. A score belongs to the tier when its absolute
// value lies in [Low, High).
type Tier struct {
	Name string
	Low  float64
	High float64
}

func (t Tier) Contains(score float64) bool {
	a := math.Abs(score)
	return a >= t.Low && a < t.High
}

var (
	correlationTiers = []Tier{
		{Name: "highly", Low: 0.7, High: 1.0},
		{Name: "moderately", Low: 0.5, High: 0.7},
		{Name: "low", Low: 0.3, High: 0.5},
	}
	mutualInformationTiers = []Tier{
		{Name: "highly", Low: 0.1, High: 1.0},
		{Name: "moderately", Low: 0.05, High: 0.1},
		{Name: "low", Low: 0.01, High: 0.05},
	}
)

type FeatureScore struct {
	Feature string
	Score   float64
}

// Scores is the outcome of one scoring pass: a metric value per feature and
// the tiers used to bucket them.
type Scores struct {
	Metric string
	Tiers  []Tier
	Values []FeatureScore
}

// Group returns the features inside t in scoring order.
func (s Scores) Group(t Tier) []FeatureScore {
	var out []FeatureScore
	for _, v := range s.Values {
		if t.Contains(v.Score) {
			out = append(out, v)
		}
	}
	return out
}

func (s Scores) lowest() float64 {
	low := math.Inf(1)
	for _, t := range s.Tiers {
		low = min(low, t.Low)
	}
	return low
}

// Rest returns the features scoring below every tier. Undefined scores are
// not part of it.
func (s Scores) Rest() []FeatureScore {
	low := s.lowest()
	var out []FeatureScore
	for _, v := range s.Values {
		if math.Abs(v.Score) < low {
			out = append(out, v)
		}
	}
	return out
}

// Relevant reports whether any feature falls into a tier.
func (s Scores) Relevant() bool {
	for _, t := range s.Tiers {
		if len(s.Group(t)) > 0 {
			return true
		}
	}
	return false
}

// CorrelationScores computes the Pearson correlation between target and every
// other numeric or boolean column over the rows where both are present.
func CorrelationScores(ds *dataset.Dataset, target string) Scores {
	y := ds.Column(target)
	scores := Scores{Metric: "correlation", Tiers: correlationTiers}
	for _, c := range ds.ColumnsOfKind(dataset.Int, dataset.Float, dataset.Bool) {
		if c.Name == target {
			continue
		}
		scores.Values = append(scores.Values, FeatureScore{Feature: c.Name, Score: pearson(c, y)})
	}
	return scores
}

func pearson(x, y *dataset.Column) float64 {
	xs, ys := pairedFloats(x, y)
	if len(xs) < 2 {
		return math.NaN()
	}
	if stat.Variance(xs, nil) == 0 || stat.Variance(ys, nil) == 0 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// MutualInformationScores estimates the mutual information between each
// numeric feature and the class labels of target.
func MutualInformationScores(ds *dataset.Dataset, target string) Scores {
	y := ds.Column(target)
	scores := Scores{Metric: "mutual information", Tiers: mutualInformationTiers}
	features := ds.NumericColumns()

	rng := newNoiseSource()
	for _, c := range features {
		if c.Name == target {
			continue
		}
		var xs []float64
		var labels []string
		for i := range c.Values {
			x, ok := c.Float(i)
			if !ok || y.IsMissing(i) {
				continue
			}
			xs = append(xs, x)
			labels = append(labels, dataset.FormatValue(y.Values[i]))
		}
		scores.Values = append(scores.Values, FeatureScore{Feature: c.Name, Score: mutualInformation(xs, labels, rng)})
	}
	return scores
}

// PCAScores weights the absolute principal component loadings of every
// numeric column by the explained variance ratio of the component. The
// result is sorted by descending score. ok is false when fewer than two
// complete rows are available.
func PCAScores(ds *dataset.Dataset) (Scores, bool) {
	columns := ds.NumericColumns()
	importance, ok := weightedPCA(columns)
	if !ok {
		return Scores{}, false
	}

	scores := Scores{Metric: "weighted PCA score"}
	total := 0.0
	for j, c := range columns {
		scores.Values = append(scores.Values, FeatureScore{Feature: c.Name, Score: importance[j]})
		total += importance[j]
	}
	sort.SliceStable(scores.Values, func(i, j int) bool {
		return scores.Values[i].Score > scores.Values[j].Score
	})

	// A feature is important when it holds more than 1% of the total score.
	scores.Tiers = []Tier{{Name: "highly", Low: math.Nextafter(0.01*total, math.Inf(1)), High: math.Inf(1)}}
	return scores, true
}

// IQROutliers counts the values outside [Q1 - 1.5 IQR, Q3 + 1.5 IQR].
func IQROutliers(values []float64) int {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q1, q3 := dataset.Quantile(sorted, 0.25), dataset.Quantile(sorted, 0.75)
	iqr := q3 - q1
	lo, hi := q1-1.5*iqr, q3+1.5*iqr

	count := 0
	for _, v := range sorted {
		if v < lo || v > hi {
			count++
		}
	}
	return count
}

const (
	imbalanceRatio = 3.0
	rareClassShare = 0.01
)

type ClassShare struct {
	Class string
	Share float64
}

// ClassBalance describes the distribution of the target classes.
type ClassBalance struct {
	Shares     []ClassShare
	Ratio      float64
	Imbalanced bool
	Rare       []ClassShare
}

// Balance computes class shares over the non missing cells of target. A
// class is rare when it covers less than 1% of all rows, missing ones
// included, and the target is imbalanced when the most frequent class
// outnumbers the least frequent more than 3 to 1.
func Balance(target *dataset.Column) ClassBalance {
	counts := target.ValueCounts()
	total := 0
	for _, vc := range counts {
		total += vc.Count
	}

	var b ClassBalance
	if total == 0 {
		return b
	}
	for _, vc := range counts {
		share := float64(vc.Count) / float64(total)
		cs := ClassShare{Class: dataset.FormatValue(vc.Value), Share: share}
		b.Shares = append(b.Shares, cs)
		if float64(vc.Count)/float64(target.Len()) < rareClassShare {
			b.Rare = append(b.Rare, cs)
		}
	}

	maxShare, minShare := b.Shares[0].Share, b.Shares[len(b.Shares)-1].Share
	b.Ratio = maxShare / minShare
	b.Imbalanced = b.Ratio > imbalanceRatio
	return b
}
