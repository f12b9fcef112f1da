package dataset

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Quantile returns the q-th quantile of sorted values, interpolating linearly
// between the two closest ranks.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	pos := q * float64(n-1)
	lo, hi := math.Floor(pos), math.Ceil(pos)
	return sorted[int(lo)] + (sorted[int(hi)]-sorted[int(lo)])*(pos-lo)
}

func Median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return Quantile(sorted, 0.5)
}

// Mode returns the most frequent non missing cell of c. Among equally frequent
// values the smallest one wins. ok is false when every cell is missing.
func (c *Column) Mode() (mode any, ok bool) {
	counts := c.ValueCounts()
	if len(counts) == 0 {
		return nil, false
	}
	mode = counts[0].Value
	for _, vc := range counts[1:] {
		if vc.Count < counts[0].Count {
			break
		}
		if Compare(vc.Value, mode) < 0 {
			mode = vc.Value
		}
	}
	return mode, true
}

// Summary holds the descriptive statistics of a numeric column.
type Summary struct {
	Count               int
	Mean, Std, Min, Max float64
	Q25, Median, Q75    float64
}

// Describe summarizes the non missing values of a numeric column. Std is the
// sample standard deviation and is NaN with fewer than two values.
func (c *Column) Describe() Summary {
	values := c.PresentFloats()
	s := Summary{Count: len(values)}
	if len(values) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Max, s.Q25, s.Median, s.Q75 = nan, nan, nan, nan, nan, nan, nan
		return s
	}
	sort.Float64s(values)
	s.Mean = stat.Mean(values, nil)
	s.Std = math.NaN()
	if len(values) > 1 {
		s.Std = stat.StdDev(values, nil)
	}
	s.Min, s.Max = floats.Min(values), floats.Max(values)
	s.Q25 = Quantile(values, 0.25)
	s.Median = Quantile(values, 0.5)
	s.Q75 = Quantile(values, 0.75)
	return s
}
