package analysis

import (
	"math"

	"analysis-backend/internal/dataset"

	"gonum.org/v1/gonum/stat"
)

const (
	lowCardinalityInts  = 20
	lowCardinalityShare = 0.1
	highSkewness        = 1.0
)

// FeatureGroup is a feature engineering recommendation and the columns it
// applies to.
type FeatureGroup struct {
	Message string
	Columns []string
}

var featureBuckets = []struct {
	kind    dataset.Kind
	message string
	accept  func(c *dataset.Column) bool
}{
	{dataset.Bool, "Encode boolean features as 0/1 if needed:", nil},
	{dataset.Int, "Bin or treat small-cardinality integer features (having few unique values) as categorical:",
		lowCardinality},
	{dataset.Float, "Transform highly skewed (|skewness| > 1) float features (log, sqrt, Box-Cox):",
		func(c *dataset.Column) bool { return math.Abs(skewness(c.PresentFloats())) > highSkewness }},
	{dataset.Datetime, "Extract useful date parts (year, month, day, weekday etc) from datetime features:", nil},
	{dataset.Category, "Encode category features using One-Hot, Target, Frequency or Ordinal Encoding methods. " +
		"Group rare categories to avoid sparsity:", nil},
	{dataset.String, "Convert string features to categorical ones, apply text transformations or drop:", nil},
}

// lowCardinality reports whether an integer column has at most 20 distinct
// values or fewer distinct values than 10% of its rows.
func lowCardinality(c *dataset.Column) bool {
	unique := c.Unique()
	return unique <= lowCardinalityInts || float64(unique) < lowCardinalityShare*float64(c.Len())
}

// FeatureEngineering buckets every column except target by kind and returns
// the non empty buckets in a fixed order.
func FeatureEngineering(ds *dataset.Dataset, target string) []FeatureGroup {
	var groups []FeatureGroup
	for _, bucket := range featureBuckets {
		var columns []string
		for _, c := range ds.ColumnsOfKind(bucket.kind) {
			if c.Name == target {
				continue
			}
			if bucket.accept == nil || bucket.accept(c) {
				columns = append(columns, c.Name)
			}
		}
		if len(columns) > 0 {
			groups = append(groups, FeatureGroup{Message: bucket.message, Columns: columns})
		}
	}
	return groups
}

// skewness is the adjusted Fisher-Pearson sample skewness. It is NaN with
// fewer than three values and 0 for constant values.
func skewness(values []float64) float64 {
	if len(values) < 3 {
		return math.NaN()
	}
	if stat.Variance(values, nil) == 0 {
		return 0
	}
	return stat.Skew(values, nil)
}
