package analysis

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"analysis-backend/internal/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func column(t *testing.T, name string, kind dataset.Kind, values ...any) *dataset.Column {
	c, err := dataset.NewColumn(name, kind, values)
	require.NoError(t, err)
	return c
}

func newDataset(t *testing.T, columns ...*dataset.Column) *dataset.Dataset {
	ds, err := dataset.New(columns...)
	require.NoError(t, err)
	return ds
}

func features(scores []FeatureScore) []string {
	var out []string
	for _, s := range scores {
		out = append(out, s.Feature)
	}
	return out
}

func TestCorrelationTierBoundaries(t *testing.T) {
	scores := Scores{Metric: "correlation", Tiers: correlationTiers, Values: []FeatureScore{
		{"a", 0.69999}, {"b", 0.7}, {"c", 0.99999}, {"d", 1.0}, {"e", -0.7}, {"f", 0.3}, {"g", 0.29}, {"h", math.NaN()},
	}}

	assert.Equal(t, []string{"b", "c", "e"}, features(scores.Group(correlationTiers[0])))
	assert.Equal(t, []string{"a"}, features(scores.Group(correlationTiers[1])))
	assert.Equal(t, []string{"f"}, features(scores.Group(correlationTiers[2])))
	assert.Equal(t, []string{"g"}, features(scores.Rest()))
	assert.True(t, scores.Relevant())

	none := Scores{Tiers: correlationTiers, Values: []FeatureScore{{"a", 1.0}, {"b", 0.1}}}
	assert.False(t, none.Relevant())
}

func TestCorrelationScores(t *testing.T) {
	ds := newDataset(t,
		column(t, "y", dataset.Float, 1.0, 2.0, 3.0, 4.0, 5.0, nil),
		column(t, "up", dataset.Int, int64(2), int64(4), int64(6), int64(8), int64(10), int64(12)),
		column(t, "down", dataset.Float, 5.0, 4.0, 3.0, 2.0, 1.0, 0.0),
		column(t, "flat", dataset.Float, 1.0, 1.0, 1.0, 1.0, 1.0, 1.0),
		column(t, "flag", dataset.Bool, false, false, true, true, true, false),
		column(t, "name", dataset.String, "a", "b", "c", "d", "e", "f"),
	)

	scores := CorrelationScores(ds, "y")
	require.Equal(t, []string{"up", "down", "flat", "flag"}, features(scores.Values))
	assert.InDelta(t, 1.0, scores.Values[0].Score, 1e-12)
	assert.InDelta(t, -1.0, scores.Values[1].Score, 1e-12)
	assert.True(t, math.IsNaN(scores.Values[2].Score))
	assert.InDelta(t, math.Sqrt(3)/2, scores.Values[3].Score, 1e-12)
}

func TestMutualInformationScores(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := 200
	labels := make([]any, n)
	informative := make([]any, n)
	noise := make([]any, n)
	for i := 0; i < n; i++ {
		class := i % 2
		labels[i] = fmt.Sprintf("class-%d", class)
		informative[i] = float64(class*10) + rng.Float64()
		noise[i] = rng.Float64()
	}
	ds := newDataset(t,
		column(t, "label", dataset.String, labels...),
		column(t, "informative", dataset.Float, informative...),
		column(t, "noise", dataset.Float, noise...),
	)

	scores := MutualInformationScores(ds, "label")
	require.Equal(t, []string{"informative", "noise"}, features(scores.Values))
	assert.InDelta(t, math.Ln2, scores.Values[0].Score, 0.05)
	assert.Less(t, scores.Values[1].Score, 0.1)
	assert.GreaterOrEqual(t, scores.Values[1].Score, 0.0)

	again := MutualInformationScores(ds, "label")
	assert.Equal(t, scores.Values, again.Values)
}

func TestMutualInformationIgnoresSingletonLabels(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 0.0, mutualInformation(x, []string{"a", "b", "c", "d", "e"}, newNoiseSource()))
	assert.Equal(t, 0.0, mutualInformation(nil, nil, newNoiseSource()))
}

func TestMutualInformationSeparatedClasses(t *testing.T) {
	x := []float64{0, 1, 2, 3, 100, 101, 102, 103}
	labels := []string{"a", "a", "a", "a", "b", "b", "b", "b"}

	// Every point has exactly its k=3 in-class neighbourhood inside the
	// radius, so the estimate reduces to digamma(8) - digamma(4).
	expected := 1.0/4 + 1.0/5 + 1.0/6 + 1.0/7
	assert.InDelta(t, expected, mutualInformation(x, labels, newNoiseSource()), 1e-6)
}

func TestCountWithinExcludesRadiusBoundary(t *testing.T) {
	sorted := []float64{0, 1, 2, 3}
	assert.Equal(t, 3, countWithin(sorted, 1, math.Nextafter(2, 0)))
	assert.Equal(t, 4, countWithin(sorted, 1, 2))
	assert.Equal(t, 1, countWithin(sorted, 3, 0.5))

	v, neighbor := 0.1, 0.3
	r := math.Nextafter(neighbor-v, 0)
	assert.Equal(t, 1, countWithin([]float64{v, neighbor}, v, r))
}

func TestNeighborDistances(t *testing.T) {
	group := []float64{0, 10, 1, 3}
	assert.Equal(t, []float64{1, 7, 1, 2}, neighborDistances(group, 1))
	assert.Equal(t, []float64{3, 9, 2, 3}, neighborDistances(group, 2))
}

func TestPCAScores(t *testing.T) {
	ds := newDataset(t,
		column(t, "x", dataset.Float, 1.0, 2.0, 3.0, 4.0, nil),
		column(t, "double", dataset.Float, 2.0, 4.0, 6.0, 8.0, 1.0),
		column(t, "const", dataset.Int, int64(7), int64(7), int64(7), int64(7), int64(7)),
		column(t, "label", dataset.String, "a", "b", "c", "d", "e"),
	)

	scores, ok := PCAScores(ds)
	require.True(t, ok)
	require.Equal(t, []string{"double", "x", "const"}, features(scores.Values))
	assert.InDelta(t, 2/math.Sqrt(5), scores.Values[0].Score, 1e-9)
	assert.InDelta(t, 1/math.Sqrt(5), scores.Values[1].Score, 1e-9)
	assert.InDelta(t, 0, scores.Values[2].Score, 1e-9)

	require.Len(t, scores.Tiers, 1)
	assert.Equal(t, []string{"double", "x"}, features(scores.Group(scores.Tiers[0])))
	assert.Equal(t, []string{"const"}, features(scores.Rest()))
}

func TestPCAScoresSingleFeature(t *testing.T) {
	ds := newDataset(t, column(t, "x", dataset.Float, 1.0, 5.0, 2.0))

	scores, ok := PCAScores(ds)
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, features(scores.Group(scores.Tiers[0])))
}

func TestPCAScoresNotEnoughRows(t *testing.T) {
	ds := newDataset(t,
		column(t, "x", dataset.Float, 1.0, nil),
		column(t, "y", dataset.Float, nil, 2.0),
	)
	_, ok := PCAScores(ds)
	assert.False(t, ok)

	_, ok = PCAScores(newDataset(t, column(t, "s", dataset.String, "a", "b")))
	assert.False(t, ok)
}

func TestIQROutliers(t *testing.T) {
	assert.Equal(t, 1, IQROutliers([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 100}))
	assert.Equal(t, 0, IQROutliers([]float64{5, 5, 5}))
	assert.Equal(t, 0, IQROutliers(nil))
}

func classes(counts map[string]int, order ...string) *dataset.Column {
	var values []any
	for _, class := range order {
		for i := 0; i < counts[class]; i++ {
			values = append(values, class)
		}
	}
	return &dataset.Column{Name: "target", Kind: dataset.String, Values: values}
}

func TestBalanceImbalancedTarget(t *testing.T) {
	b := Balance(classes(map[string]int{"major": 95, "minor": 5}, "major", "minor"))

	assert.InDelta(t, 19, b.Ratio, 1e-9)
	assert.True(t, b.Imbalanced)
	assert.Empty(t, b.Rare)
	assert.Equal(t, "19.0", formatRounded(b.Ratio))
}

func TestBalanceRareBoundary(t *testing.T) {
	exact := Balance(classes(map[string]int{"a": 99, "b": 1}, "a", "b"))
	assert.Empty(t, exact.Rare)

	below := Balance(classes(map[string]int{"a": 991, "b": 9}, "a", "b"))
	require.Len(t, below.Rare, 1)
	assert.Equal(t, "b", below.Rare[0].Class)
	assert.InDelta(t, 0.009, below.Rare[0].Share, 1e-12)
}

func TestBalanceRareCountsMissingRows(t *testing.T) {
	target := classes(map[string]int{"a": 89, "b": 1}, "a", "b")
	for i := 0; i < 11; i++ {
		target.Values = append(target.Values, nil)
	}

	b := Balance(target)
	require.Len(t, b.Rare, 1)
	assert.Equal(t, "b", b.Rare[0].Class)
	assert.InDelta(t, 1.0/90, b.Rare[0].Share, 1e-12)
}

func TestBalanceBalanced(t *testing.T) {
	b := Balance(classes(map[string]int{"a": 40, "b": 20, "c": 20}, "a", "b", "c"))
	assert.Equal(t, 2.0, b.Ratio)
	assert.False(t, b.Imbalanced)

	empty := Balance(&dataset.Column{Name: "target", Kind: dataset.String, Values: []any{nil, nil}})
	assert.Empty(t, empty.Shares)
}
