package cluster

import "gonum.org/v1/gonum/stat"

// StandardScaler normalizes features to zero mean and unit variance. It is
// fitted once on training data and reused, not refitted, for every
// subsequent transform.
type StandardScaler struct {
	Mean []float64
	Std  []float64
}

// Fit computes per-column mean and standard deviation. Constant columns get
// a standard deviation of 1 so transforming them is a no-op shift.
func (s *StandardScaler) Fit(x [][]float64) {
	d := len(x[0])
	s.Mean = make([]float64, d)
	s.Std = make([]float64, d)
	col := make([]float64, len(x))
	for j := 0; j < d; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		s.Mean[j] = stat.Mean(col, nil)
		s.Std[j] = stat.StdDev(col, nil)
		if s.Std[j] == 0 || len(x) < 2 {
			s.Std[j] = 1
		}
	}
}

// Transform returns a standardized copy of x.
func (s *StandardScaler) Transform(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.Mean[j]) / s.Std[j]
		}
		out[i] = scaled
	}
	return out
}

// InverseTransform maps standardized rows back to original feature units.
func (s *StandardScaler) InverseTransform(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		orig := make([]float64, len(row))
		for j, v := range row {
			orig[j] = v*s.Std[j] + s.Mean[j]
		}
		out[i] = orig
	}
	return out
}

// Fitted reports whether Fit has been called.
func (s *StandardScaler) Fitted() bool {
	return len(s.Mean) > 0
}
