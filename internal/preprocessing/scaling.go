package preprocessing

import (
	"math"

	"analysis-backend/internal/errs"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Scaler fits per-column statistics on a column-major matrix and rescales it.
// NaN marks a missing cell; missing cells are ignored while fitting and stay
// missing.
type Scaler interface {
	FitTransform(columns [][]float64) [][]float64
}

func newScaler(method ScalingMethod) (Scaler, error) {
	switch method {
	case MaxAbsScaling:
		return columnScaler(maxAbsParams), nil
	case MinMaxScaling:
		return columnScaler(minMaxParams), nil
	case ZScore:
		return columnScaler(standardParams), nil
	}
	return nil, &errs.ParameterError{Parameter: "scaling_method", Value: method, Expected: scalingMethods}
}

// columnScaler computes (x - center) / scale column by column. A zero scale
// is treated as 1.
type columnScaler func(present []float64) (center, scale float64)

func (fit columnScaler) FitTransform(columns [][]float64) [][]float64 {
	out := make([][]float64, len(columns))
	for j, col := range columns {
		present := make([]float64, 0, len(col))
		for _, x := range col {
			if !math.IsNaN(x) {
				present = append(present, x)
			}
		}

		center, scale := 0.0, 1.0
		if len(present) > 0 {
			center, scale = fit(present)
		}
		if scale == 0 || math.IsNaN(scale) {
			scale = 1
		}

		out[j] = make([]float64, len(col))
		for i, x := range col {
			out[j][i] = (x - center) / scale
		}
	}
	return out
}

func maxAbsParams(present []float64) (float64, float64) {
	return 0, math.Max(math.Abs(floats.Min(present)), math.Abs(floats.Max(present)))
}

func minMaxParams(present []float64) (float64, float64) {
	lo, hi := floats.Min(present), floats.Max(present)
	return lo, hi - lo
}

func standardParams(present []float64) (float64, float64) {
	return stat.PopMeanStdDev(present, nil)
}
