package cluster

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Covariance structures supported by the Gaussian mixture engine.
const (
	CovFull      = "full"
	CovDiag      = "diag"
	CovTied      = "tied"
	CovSpherical = "spherical"
)

// covReg is added to covariance diagonals so Cholesky factorizations stay
// positive definite.
const covReg = 1e-6

// GMMOptions configure the Gaussian mixture engine.
type GMMOptions struct {
	NClusters      int
	CovarianceType string
	MaxIter        int
	NInit          int
	Tolerance      float64
	Seed           int64
}

// GMMUncertainty summarizes how confident the soft assignments are.
type GMMUncertainty struct {
	MeanMaxProbability float64 `json:"mean_max_probability" yaml:"mean_max_probability"`
	StdMaxProbability  float64 `json:"std_max_probability" yaml:"std_max_probability"`
	HighConfidence     int     `json:"high_confidence_count" yaml:"high_confidence_count"`
	HighConfidencePct  float64 `json:"high_confidence_pct" yaml:"high_confidence_pct"`
	LowConfidence      int     `json:"low_confidence_count" yaml:"low_confidence_count"`
	LowConfidencePct   float64 `json:"low_confidence_pct" yaml:"low_confidence_pct"`
	MeanEntropy        float64 `json:"mean_entropy" yaml:"mean_entropy"`
}

// gmmState is one fitted mixture: weights, means, and covariance in the
// representation matching the covariance type.
type gmmState struct {
	weights []float64
	means   [][]float64

	covFull [][]float64 // per-component row-major d x d
	covTied []float64   // shared row-major d x d
	covDiag [][]float64 // per-component variances
	covSph  []float64   // per-component scalar variance

	logLik     float64
	iterations int
	converged  bool
}

// GMMEngine fits a Gaussian mixture with expectation-maximization over
// several random restarts, keeping the solution with the best
// log-likelihood.
type GMMEngine struct {
	opts   GMMOptions
	scaler StandardScaler
	state  *gmmState
	resp   [][]float64 // posteriors from the fitting data, n x k
	dim    int
	n      int
	fitted bool
}

// NewGMM builds an unfitted Gaussian mixture engine.
func NewGMM(opts GMMOptions) *GMMEngine {
	return &GMMEngine{opts: opts}
}

func (e *GMMEngine) Name() string     { return "gmm" }
func (e *GMMEngine) NumClusters() int { return e.opts.NClusters }

func (e *GMMEngine) Fit(x [][]float64) error {
	if err := checkMatrix(e.Name(), x); err != nil {
		return err
	}
	if e.opts.NClusters < 1 {
		return fmt.Errorf("%s: n_clusters must be >= 1, got %d", e.Name(), e.opts.NClusters)
	}
	switch e.opts.CovarianceType {
	case CovFull, CovDiag, CovTied, CovSpherical:
	default:
		return fmt.Errorf("%s: unknown covariance type %q", e.Name(), e.opts.CovarianceType)
	}
	if len(x) < e.opts.NClusters {
		return fmt.Errorf("%s: %d samples cannot support %d components", e.Name(), len(x), e.opts.NClusters)
	}

	e.scaler.Fit(x)
	xs := e.scaler.Transform(x)
	e.dim = len(xs[0])
	e.n = len(xs)

	rng := rand.New(rand.NewSource(e.opts.Seed))
	nInit := e.opts.NInit
	if nInit < 1 {
		nInit = 1
	}

	var best *gmmState
	for i := 0; i < nInit; i++ {
		st, err := e.fitOnce(xs, rng)
		if err != nil {
			continue
		}
		if best == nil || st.logLik > best.logLik {
			best = st
		}
	}
	if best == nil {
		return fmt.Errorf("%s: all %d initializations failed", e.Name(), nInit)
	}

	e.state = best
	resp, _, err := e.responsibilities(xs, best)
	if err != nil {
		return err
	}
	e.resp = resp
	e.fitted = true
	return nil
}

// fitOnce runs a single EM trajectory from a random initialization:
// means at random data points, covariances at the global variance, uniform
// weights. Converges on the average log-likelihood delta.
func (e *GMMEngine) fitOnce(xs [][]float64, rng *rand.Rand) (*gmmState, error) {
	k := e.opts.NClusters
	d := e.dim
	n := e.n

	globalVar := make([]float64, d)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		for i := range xs {
			col[i] = xs[i][j]
		}
		globalVar[j] = popVariance(col) + covReg
	}

	st := &gmmState{
		weights: make([]float64, k),
		means:   make([][]float64, k),
	}
	perm := rng.Perm(n)
	for c := 0; c < k; c++ {
		st.weights[c] = 1 / float64(k)
		st.means[c] = make([]float64, d)
		copy(st.means[c], xs[perm[c]])
	}
	switch e.opts.CovarianceType {
	case CovFull:
		st.covFull = make([][]float64, k)
		for c := range st.covFull {
			st.covFull[c] = diagMatrix(globalVar)
		}
	case CovTied:
		st.covTied = diagMatrix(globalVar)
	case CovDiag:
		st.covDiag = make([][]float64, k)
		for c := range st.covDiag {
			st.covDiag[c] = append([]float64(nil), globalVar...)
		}
	case CovSpherical:
		st.covSph = make([]float64, k)
		mean := floats.Sum(globalVar) / float64(d)
		for c := range st.covSph {
			st.covSph[c] = mean
		}
	}

	prevLL := math.Inf(-1)
	for iter := 1; iter <= e.opts.MaxIter; iter++ {
		resp, ll, err := e.responsibilities(xs, st)
		if err != nil {
			return nil, err
		}
		avgLL := ll / float64(n)
		st.logLik = ll
		st.iterations = iter
		if math.Abs(avgLL-prevLL) < e.opts.Tolerance {
			st.converged = true
			break
		}
		prevLL = avgLL
		e.mStep(xs, resp, st)
	}
	return st, nil
}

// mStep re-estimates weights, means, and covariances from posteriors.
func (e *GMMEngine) mStep(xs [][]float64, resp [][]float64, st *gmmState) {
	k := e.opts.NClusters
	d := e.dim
	n := e.n

	nk := make([]float64, k)
	for i := 0; i < n; i++ {
		for c := 0; c < k; c++ {
			nk[c] += resp[i][c]
		}
	}
	for c := 0; c < k; c++ {
		if nk[c] < logFloor {
			nk[c] = logFloor
		}
		st.weights[c] = nk[c] / float64(n)
		for j := 0; j < d; j++ {
			st.means[c][j] = 0
		}
		for i := 0; i < n; i++ {
			for j := 0; j < d; j++ {
				st.means[c][j] += resp[i][c] * xs[i][j]
			}
		}
		for j := 0; j < d; j++ {
			st.means[c][j] /= nk[c]
		}
	}

	diff := make([]float64, d)
	switch e.opts.CovarianceType {
	case CovFull:
		for c := 0; c < k; c++ {
			cov := make([]float64, d*d)
			for i := 0; i < n; i++ {
				floats.SubTo(diff, xs[i], st.means[c])
				r := resp[i][c]
				for a := 0; a < d; a++ {
					for b := 0; b < d; b++ {
						cov[a*d+b] += r * diff[a] * diff[b]
					}
				}
			}
			for idx := range cov {
				cov[idx] /= nk[c]
			}
			for a := 0; a < d; a++ {
				cov[a*d+a] += covReg
			}
			st.covFull[c] = cov
		}
	case CovTied:
		cov := make([]float64, d*d)
		for c := 0; c < k; c++ {
			for i := 0; i < n; i++ {
				floats.SubTo(diff, xs[i], st.means[c])
				r := resp[i][c]
				for a := 0; a < d; a++ {
					for b := 0; b < d; b++ {
						cov[a*d+b] += r * diff[a] * diff[b]
					}
				}
			}
		}
		for idx := range cov {
			cov[idx] /= float64(n)
		}
		for a := 0; a < d; a++ {
			cov[a*d+a] += covReg
		}
		st.covTied = cov
	case CovDiag:
		for c := 0; c < k; c++ {
			v := make([]float64, d)
			for i := 0; i < n; i++ {
				for j := 0; j < d; j++ {
					dv := xs[i][j] - st.means[c][j]
					v[j] += resp[i][c] * dv * dv
				}
			}
			for j := 0; j < d; j++ {
				v[j] = v[j]/nk[c] + covReg
			}
			st.covDiag[c] = v
		}
	case CovSpherical:
		for c := 0; c < k; c++ {
			total := 0.0
			for i := 0; i < n; i++ {
				floats.SubTo(diff, xs[i], st.means[c])
				total += resp[i][c] * floats.Dot(diff, diff)
			}
			st.covSph[c] = total/(nk[c]*float64(d)) + covReg
		}
	}
}

// responsibilities runs the E-step: per-row posteriors via logsumexp and
// the total log-likelihood.
func (e *GMMEngine) responsibilities(xs [][]float64, st *gmmState) ([][]float64, float64, error) {
	k := e.opts.NClusters
	n := len(xs)

	logDens, err := e.componentLogDensities(xs, st)
	if err != nil {
		return nil, 0, err
	}

	resp := make([][]float64, n)
	total := 0.0
	for i := 0; i < n; i++ {
		row := make([]float64, k)
		maxLog := math.Inf(-1)
		for c := 0; c < k; c++ {
			row[c] = math.Log(st.weights[c]+logFloor) + logDens[c][i]
			if row[c] > maxLog {
				maxLog = row[c]
			}
		}
		sum := 0.0
		for c := 0; c < k; c++ {
			row[c] = math.Exp(row[c] - maxLog)
			sum += row[c]
		}
		total += maxLog + math.Log(sum)
		for c := 0; c < k; c++ {
			row[c] /= sum
		}
		resp[i] = row
	}
	return resp, total, nil
}

// componentLogDensities computes log N(x | mean_c, cov_c) for every
// component and row. Full and tied covariances go through a Cholesky
// factorization; failures get a diagonal jitter retry before erroring.
func (e *GMMEngine) componentLogDensities(xs [][]float64, st *gmmState) ([][]float64, error) {
	k := e.opts.NClusters
	d := e.dim
	out := make([][]float64, k)

	logNorm := float64(d) * math.Log(2*math.Pi)

	choleskyOf := func(cov []float64) (*mat.Cholesky, error) {
		sym := mat.NewSymDense(d, nil)
		for a := 0; a < d; a++ {
			for b := a; b < d; b++ {
				sym.SetSym(a, b, (cov[a*d+b]+cov[b*d+a])/2)
			}
		}
		var chol mat.Cholesky
		if chol.Factorize(sym) {
			return &chol, nil
		}
		for a := 0; a < d; a++ {
			sym.SetSym(a, a, sym.At(a, a)+1e-4)
		}
		if chol.Factorize(sym) {
			return &chol, nil
		}
		return nil, fmt.Errorf("%s: covariance is not positive definite", e.Name())
	}

	gaussianRow := func(chol *mat.Cholesky, mean []float64) []float64 {
		logDet := chol.LogDet()
		dens := make([]float64, len(xs))
		diff := mat.NewVecDense(d, nil)
		var sol mat.VecDense
		for i, row := range xs {
			for j := 0; j < d; j++ {
				diff.SetVec(j, row[j]-mean[j])
			}
			_ = chol.SolveVecTo(&sol, diff)
			maha := mat.Dot(diff, &sol)
			dens[i] = -0.5 * (logNorm + logDet + maha)
		}
		return dens
	}

	switch e.opts.CovarianceType {
	case CovFull:
		for c := 0; c < k; c++ {
			chol, err := choleskyOf(st.covFull[c])
			if err != nil {
				return nil, err
			}
			out[c] = gaussianRow(chol, st.means[c])
		}
	case CovTied:
		chol, err := choleskyOf(st.covTied)
		if err != nil {
			return nil, err
		}
		for c := 0; c < k; c++ {
			out[c] = gaussianRow(chol, st.means[c])
		}
	case CovDiag:
		for c := 0; c < k; c++ {
			logDet := 0.0
			for _, v := range st.covDiag[c] {
				logDet += math.Log(v)
			}
			dens := make([]float64, len(xs))
			for i, row := range xs {
				maha := 0.0
				for j := 0; j < d; j++ {
					dv := row[j] - st.means[c][j]
					maha += dv * dv / st.covDiag[c][j]
				}
				dens[i] = -0.5 * (logNorm + logDet + maha)
			}
			out[c] = dens
		}
	case CovSpherical:
		for c := 0; c < k; c++ {
			v := st.covSph[c]
			logDet := float64(d) * math.Log(v)
			dens := make([]float64, len(xs))
			for i, row := range xs {
				maha := squaredDistance(row, st.means[c]) / v
				dens[i] = -0.5 * (logNorm + logDet + maha)
			}
			out[c] = dens
		}
	}
	return out, nil
}

func (e *GMMEngine) Predict(x [][]float64) ([]int, error) {
	proba, err := e.PredictProba(x)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(proba))
	for i, row := range proba {
		labels[i] = argmax(row)
	}
	return labels, nil
}

// PredictProba returns the n x k posterior probability matrix for x.
func (e *GMMEngine) PredictProba(x [][]float64) ([][]float64, error) {
	if !e.fitted {
		return nil, notFitted(e.Name())
	}
	if err := checkMatrix(e.Name(), x); err != nil {
		return nil, err
	}
	xs := e.scaler.Transform(x)
	resp, _, err := e.responsibilities(xs, e.state)
	return resp, err
}

// Evaluate reports silhouette, BIC, AIC, Davies-Bouldin, Calinski-Harabasz,
// and the total log-likelihood on the fitting assignments.
func (e *GMMEngine) Evaluate(x [][]float64) (map[string]float64, error) {
	if !e.fitted {
		return nil, notFitted(e.Name())
	}
	if err := checkMatrix(e.Name(), x); err != nil {
		return nil, err
	}
	xs := e.scaler.Transform(x)
	labels := make([]int, len(e.resp))
	for i, row := range e.resp {
		labels[i] = argmax(row)
	}

	p := float64(e.paramCount())
	n := float64(e.n)
	k := e.opts.NClusters
	return map[string]float64{
		"silhouette_score":        Silhouette(xs, labels, k),
		"davies_bouldin_index":    DaviesBouldin(xs, labels, k),
		"calinski_harabasz_score": CalinskiHarabasz(xs, labels, k),
		"bic":                     -2*e.state.logLik + p*math.Log(n),
		"aic":                     -2*e.state.logLik + 2*p,
		"log_likelihood":          e.state.logLik,
		"n_clusters":              float64(k),
	}, nil
}

// paramCount returns the number of free parameters: mixture weights (k-1),
// means (k*d), and the covariance parameters for the configured structure.
func (e *GMMEngine) paramCount() int {
	k := e.opts.NClusters
	d := e.dim
	base := (k - 1) + k*d
	switch e.opts.CovarianceType {
	case CovFull:
		return base + k*d*(d+1)/2
	case CovTied:
		return base + d*(d+1)/2
	case CovDiag:
		return base + k*d
	default: // spherical
		return base + k
	}
}

// Centers returns the component means in original feature units.
func (e *GMMEngine) Centers() ([][]float64, error) {
	if !e.fitted {
		return nil, notFitted(e.Name())
	}
	return e.scaler.InverseTransform(e.state.means), nil
}

// Weights returns the fitted mixture weights.
func (e *GMMEngine) Weights() ([]float64, error) {
	if !e.fitted {
		return nil, notFitted(e.Name())
	}
	return e.state.weights, nil
}

// Converged reports whether EM reached the tolerance, and the iteration
// count of the best restart.
func (e *GMMEngine) Converged() (bool, int, error) {
	if !e.fitted {
		return false, 0, notFitted(e.Name())
	}
	return e.state.converged, e.state.iterations, nil
}

// CovarianceDiagonals returns the per-component feature variances in
// standardized units: the covariance diagonal for full and diag, the shared
// diagonal repeated for tied, and the scalar variance broadcast for
// spherical.
func (e *GMMEngine) CovarianceDiagonals() ([][]float64, error) {
	if !e.fitted {
		return nil, notFitted(e.Name())
	}
	k := e.opts.NClusters
	d := e.dim
	out := make([][]float64, k)
	for c := 0; c < k; c++ {
		diag := make([]float64, d)
		switch e.opts.CovarianceType {
		case CovFull:
			for j := 0; j < d; j++ {
				diag[j] = e.state.covFull[c][j*d+j]
			}
		case CovTied:
			for j := 0; j < d; j++ {
				diag[j] = e.state.covTied[j*d+j]
			}
		case CovDiag:
			copy(diag, e.state.covDiag[c])
		case CovSpherical:
			for j := 0; j < d; j++ {
				diag[j] = e.state.covSph[c]
			}
		}
		out[c] = diag
	}
	return out, nil
}

// Uncertainty summarizes assignment confidence from the fitting posteriors:
// rows with a max posterior above 0.9 count as high confidence, below 0.7
// as low confidence.
func (e *GMMEngine) Uncertainty() (GMMUncertainty, error) {
	if !e.fitted {
		return GMMUncertainty{}, notFitted(e.Name())
	}
	n := len(e.resp)
	maxes := make([]float64, n)
	var high, low int
	entropy := 0.0
	for i, row := range e.resp {
		m := row[argmax(row)]
		maxes[i] = m
		if m > 0.9 {
			high++
		}
		if m < 0.7 {
			low++
		}
		for _, p := range row {
			entropy -= p * math.Log(p+logFloor)
		}
	}

	mean := floats.Sum(maxes) / float64(n)
	variance := 0.0
	for _, m := range maxes {
		variance += (m - mean) * (m - mean)
	}
	std := math.Sqrt(variance / float64(n))

	return GMMUncertainty{
		MeanMaxProbability: mean,
		StdMaxProbability:  std,
		HighConfidence:     high,
		HighConfidencePct:  100 * float64(high) / float64(n),
		LowConfidence:      low,
		LowConfidencePct:   100 * float64(low) / float64(n),
		MeanEntropy:        entropy / float64(n),
	}, nil
}

func diagMatrix(diag []float64) []float64 {
	d := len(diag)
	m := make([]float64, d*d)
	for i, v := range diag {
		m[i*d+i] = v
	}
	return m
}

func popVariance(col []float64) float64 {
	n := float64(len(col))
	mean := floats.Sum(col) / n
	total := 0.0
	for _, v := range col {
		total += (v - mean) * (v - mean)
	}
	return total / n
}

func argmax(row []float64) int {
	best := 0
	for i := 1; i < len(row); i++ {
		if row[i] > row[best] {
			best = i
		}
	}
	return best
}
