package analysis

import (
	"math"

	"analysis-backend/internal/dataset"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// weightedPCA returns Σ_k |v_kj| · r_k for every column j, where v_k is the
// k-th principal axis and r_k its explained variance ratio. Rows with a
// missing cell in any column are excluded.
func weightedPCA(columns []*dataset.Column) ([]float64, bool) {
	if len(columns) == 0 {
		return nil, false
	}

	var rows [][]float64
	for i := range columns[0].Values {
		row := make([]float64, len(columns))
		complete := true
		for j, c := range columns {
			v, ok := c.Float(i)
			if !ok {
				complete = false
				break
			}
			row[j] = v
		}
		if complete {
			rows = append(rows, row)
		}
	}
	if len(rows) < 2 {
		return nil, false
	}

	x := mat.NewDense(len(rows), len(columns), nil)
	for i, row := range rows {
		x.SetRow(i, row)
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, x, nil)

	var eig mat.EigenSym
	if !eig.Factorize(&cov, true) {
		return nil, false
	}
	variances := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	total := 0.0
	for k, v := range variances {
		// Round-off can leave tiny negative eigenvalues on singular matrices.
		variances[k] = math.Max(0, v)
		total += variances[k]
	}

	importance := make([]float64, len(columns))
	if total == 0 {
		return importance, true
	}
	for k, v := range variances {
		ratio := v / total
		for j := range columns {
			importance[j] += math.Abs(vectors.At(j, k)) * ratio
		}
	}
	return importance, true
}
