package cluster

import (
	"fmt"
	"math"
	"math/rand"
)

// FuzzyOptions are the fuzzy c-means hyperparameters.
type FuzzyOptions struct {
	NClusters int
	// Fuzziness is the exponent m > 1; values near 1 approach hard k-means.
	Fuzziness float64
	MaxIter   int
	Tolerance float64
	Seed      int64
}

// FuzzyEngine is the fuzzy c-means clustering engine. Membership matrices
// are cluster-major: u[i][j] is the membership of customer j in cluster i,
// and each customer's memberships sum to 1.
type FuzzyEngine struct {
	opts    FuzzyOptions
	scaler  StandardScaler
	centers [][]float64 // standardized feature space
	u       [][]float64 // memberships from the fitting data
	fitted  bool
}

// NewFuzzy builds an unfitted fuzzy c-means engine.
func NewFuzzy(opts FuzzyOptions) *FuzzyEngine {
	return &FuzzyEngine{opts: opts}
}

func (e *FuzzyEngine) Name() string     { return "fuzzy_cmeans" }
func (e *FuzzyEngine) NumClusters() int { return e.opts.NClusters }

// Fit standardizes the features (fitting the scaler once) and minimizes the
// fuzzy objective sum over u^m * d^2 by alternating center and membership
// updates until the membership matrix moves less than the tolerance.
func (e *FuzzyEngine) Fit(x [][]float64) error {
	if err := checkMatrix(e.Name(), x); err != nil {
		return err
	}
	if e.opts.NClusters < 2 {
		return fmt.Errorf("%s: n_clusters must be >= 2, got %d", e.Name(), e.opts.NClusters)
	}
	e.scaler.Fit(x)
	xs := e.scaler.Transform(x)

	rng := rand.New(rand.NewSource(e.opts.Seed))
	k := e.opts.NClusters
	n := len(xs)

	// Random partition init: each customer's memberships sum to 1.
	u := make([][]float64, k)
	for i := range u {
		u[i] = make([]float64, n)
	}
	for j := 0; j < n; j++ {
		total := 0.0
		for i := 0; i < k; i++ {
			u[i][j] = rng.Float64()
			total += u[i][j]
		}
		for i := 0; i < k; i++ {
			u[i][j] /= total
		}
	}

	for iter := 0; iter < e.opts.MaxIter; iter++ {
		centers := fuzzyCenters(xs, u, e.opts.Fuzziness)
		next := fuzzyMembership(xs, centers, e.opts.Fuzziness)

		delta := 0.0
		for i := range u {
			for j := range u[i] {
				diff := next[i][j] - u[i][j]
				delta += diff * diff
			}
		}
		u = next
		e.centers = centers
		if math.Sqrt(delta) < e.opts.Tolerance {
			break
		}
	}

	e.u = u
	e.fitted = true
	return nil
}

// Predict computes hard labels for x against the fitted centers. The full
// membership matrix is available through PredictMembership.
func (e *FuzzyEngine) Predict(x [][]float64) ([]int, error) {
	labels, _, err := e.PredictMembership(x)
	return labels, err
}

// PredictMembership returns hard labels and the cluster-major membership
// matrix for x, using the scaler and centers fitted during Fit.
func (e *FuzzyEngine) PredictMembership(x [][]float64) ([]int, [][]float64, error) {
	if !e.fitted {
		return nil, nil, notFitted(e.Name())
	}
	if err := checkMatrix(e.Name(), x); err != nil {
		return nil, nil, err
	}
	xs := e.scaler.Transform(x)
	u := fuzzyMembership(xs, e.centers, e.opts.Fuzziness)
	return hardLabels(u), u, nil
}

// Membership returns the membership matrix computed during Fit.
func (e *FuzzyEngine) Membership() ([][]float64, error) {
	if !e.fitted {
		return nil, notFitted(e.Name())
	}
	return e.u, nil
}

// Evaluate reports the silhouette score on standardized features plus the
// two fuzzy partition metrics. The partition coefficient lies in [1/k, 1]
// (higher is crisper); partition entropy is lower for crisper partitions.
func (e *FuzzyEngine) Evaluate(x [][]float64) (map[string]float64, error) {
	if !e.fitted {
		return nil, notFitted(e.Name())
	}
	if err := checkMatrix(e.Name(), x); err != nil {
		return nil, err
	}
	xs := e.scaler.Transform(x)
	labels := hardLabels(e.u)

	n := float64(len(e.u[0]))
	pc := 0.0
	pe := 0.0
	for i := range e.u {
		for _, v := range e.u[i] {
			pc += v * v
			pe -= v * math.Log(v+logFloor)
		}
	}

	return map[string]float64{
		"silhouette_score":      Silhouette(xs, labels, e.opts.NClusters),
		"partition_coefficient": pc / n,
		"partition_entropy":     pe / n,
		"n_clusters":            float64(e.opts.NClusters),
	}, nil
}

// Centers returns the cluster centers in original feature units.
func (e *FuzzyEngine) Centers() ([][]float64, error) {
	if !e.fitted {
		return nil, notFitted(e.Name())
	}
	return e.scaler.InverseTransform(e.centers), nil
}

// fuzzyCenters computes c_i = sum_j u_ij^m x_j / sum_j u_ij^m.
func fuzzyCenters(x [][]float64, u [][]float64, m float64) [][]float64 {
	k := len(u)
	d := len(x[0])
	centers := make([][]float64, k)
	for i := 0; i < k; i++ {
		centers[i] = make([]float64, d)
		denom := 0.0
		for j, row := range x {
			w := math.Pow(u[i][j], m)
			denom += w
			for f, v := range row {
				centers[i][f] += w * v
			}
		}
		if denom > 0 {
			for f := range centers[i] {
				centers[i][f] /= denom
			}
		}
	}
	return centers
}

// fuzzyMembership computes u_ij = 1 / sum_l (d_ij/d_lj)^(2/(m-1)), the
// closed-form membership update given fixed centers. Distances are floored
// so a customer sitting exactly on a center stays finite.
func fuzzyMembership(x [][]float64, centers [][]float64, m float64) [][]float64 {
	k := len(centers)
	n := len(x)
	u := make([][]float64, k)
	for i := range u {
		u[i] = make([]float64, n)
	}
	exp := 2 / (m - 1)
	dists := make([]float64, k)
	for j, row := range x {
		for i, c := range centers {
			d := euclidean(row, c)
			if d < logFloor {
				d = logFloor
			}
			dists[i] = d
		}
		for i := 0; i < k; i++ {
			sum := 0.0
			for l := 0; l < k; l++ {
				sum += math.Pow(dists[i]/dists[l], exp)
			}
			u[i][j] = 1 / sum
		}
	}
	return u
}

// hardLabels assigns each customer to its highest-membership cluster.
func hardLabels(u [][]float64) []int {
	n := len(u[0])
	labels := make([]int, n)
	for j := 0; j < n; j++ {
		best := 0
		for i := 1; i < len(u); i++ {
			if u[i][j] > u[best][j] {
				best = i
			}
		}
		labels[j] = best
	}
	return labels
}
