package analysis

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat"
)

const (
	miNeighbors = 3
	noiseSeed   = 42
	noiseScale  = 1e-10
)

func newNoiseSource() *rand.Rand {
	return rand.New(rand.NewSource(noiseSeed))
}

// mutualInformation estimates I(X; Y) between a continuous feature and
// discrete labels with the nearest neighbour estimator of Ross (2014). The
// feature is scaled to unit variance and jittered with tiny noise drawn from
// rng so ties do not collapse neighbour distances.
func mutualInformation(x []float64, labels []string, rng *rand.Rand) float64 {
	n := len(x)
	if n == 0 {
		return 0
	}

	values := make([]float64, n)
	copy(values, x)
	if _, std := stat.PopMeanStdDev(values, nil); std > 0 {
		for i := range values {
			values[i] /= std
		}
	}
	meanAbs := 0.0
	for _, v := range values {
		meanAbs += math.Abs(v)
	}
	amplitude := noiseScale * math.Max(1, meanAbs/float64(n))
	for i := range values {
		values[i] += amplitude * rng.NormFloat64()
	}

	byLabel := make(map[string][]int)
	for i, l := range labels {
		byLabel[l] = append(byLabel[l], i)
	}

	radius := make([]float64, n)
	kAll := make([]int, n)
	labelCount := make([]int, n)
	for _, rows := range byLabel {
		count := len(rows)
		for _, i := range rows {
			labelCount[i] = count
		}
		if count < 2 {
			continue
		}
		k := min(miNeighbors, count-1)
		group := make([]float64, count)
		for j, i := range rows {
			group[j] = values[i]
		}
		for j, d := range neighborDistances(group, k) {
			radius[rows[j]] = math.Nextafter(d, 0)
			kAll[rows[j]] = k
		}
	}

	// Points whose label occurs once carry no neighbour information.
	var kept []int
	for i := range values {
		if labelCount[i] > 1 {
			kept = append(kept, i)
		}
	}
	if len(kept) == 0 {
		return 0
	}

	sorted := make([]float64, len(kept))
	for j, i := range kept {
		sorted[j] = values[i]
	}
	sort.Float64s(sorted)

	var sumK, sumLabel, sumM float64
	for _, i := range kept {
		sumK += mathext.Digamma(float64(kAll[i]))
		sumLabel += mathext.Digamma(float64(labelCount[i]))
		sumM += mathext.Digamma(float64(countWithin(sorted, values[i], radius[i])))
	}

	m := float64(len(kept))
	mi := mathext.Digamma(m) + sumK/m - sumLabel/m - sumM/m
	return math.Max(0, mi)
}

// countWithin returns how many values of sorted, v itself included, lie at a
// distance of at most r from v. Distances are compared directly since v±r can
// round onto a point lying just outside the radius.
func countWithin(sorted []float64, v, r float64) int {
	pos := sort.SearchFloat64s(sorted, v)
	lo := pos
	for lo > 0 && math.Abs(sorted[lo-1]-v) <= r {
		lo--
	}
	hi := pos
	for hi < len(sorted) && math.Abs(sorted[hi]-v) <= r {
		hi++
	}
	return hi - lo
}

// neighborDistances returns, for every point of group, the distance to its
// k-th nearest other point. k must be below len(group).
func neighborDistances(group []float64, k int) []float64 {
	order := make([]int, len(group))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return group[order[a]] < group[order[b]] })
	sorted := make([]float64, len(group))
	for i, o := range order {
		sorted[i] = group[o]
	}

	out := make([]float64, len(group))
	for pos, o := range order {
		left, right := pos-1, pos+1
		var d float64
		for step := 0; step < k; step++ {
			switch {
			case left < 0:
				d = sorted[right] - sorted[pos]
				right++
			case right >= len(sorted):
				d = sorted[pos] - sorted[left]
				left--
			case sorted[pos]-sorted[left] <= sorted[right]-sorted[pos]:
				d = sorted[pos] - sorted[left]
				left--
			default:
				d = sorted[right] - sorted[pos]
				right++
			}
		}
		out[o] = d
	}
	return out
}
