package cluster

import (
	"math"
	"testing"
)

func fittedGMM(t *testing.T, x [][]float64, covType string) *GMMEngine {
	t.Helper()
	e := NewGMM(GMMOptions{
		NClusters:      2,
		CovarianceType: covType,
		MaxIter:        200,
		NInit:          5,
		Tolerance:      1e-3,
		Seed:           42,
	})
	if err := e.Fit(x); err != nil {
		t.Fatalf("%s: unexpected error: %v", covType, err)
	}
	return e
}

func TestGMM_AllCovarianceTypes(t *testing.T) {
	x := twoBlobs(30, 10)
	for _, covType := range []string{CovFull, CovDiag, CovTied, CovSpherical} {
		e := fittedGMM(t, x, covType)
		labels, err := e.Predict(x)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", covType, err)
		}
		if len(labels) != len(x) {
			t.Fatalf("%s: got %d labels, want %d", covType, len(labels), len(x))
		}
		if !sameSide(labels, 30) {
			t.Fatalf("%s: failed to separate two distant blobs", covType)
		}
	}
}

func TestGMM_PosteriorRowsSumToOne(t *testing.T) {
	x := twoBlobs(25, 11)
	e := fittedGMM(t, x, CovFull)
	proba, err := e.PredictProba(x)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(proba) != len(x) || len(proba[0]) != 2 {
		t.Fatalf("posterior shape %dx%d, want %dx2", len(proba), len(proba[0]), len(x))
	}
	for i, row := range proba {
		sum := 0.0
		for _, p := range row {
			if p < 0 || p > 1 {
				t.Fatalf("row %d: posterior %v outside [0,1]", i, p)
			}
			sum += p
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("row %d sums to %v, want 1", i, sum)
		}
	}
}

func TestGMM_EvaluateMetricsFinite(t *testing.T) {
	x := twoBlobs(25, 12)
	e := fittedGMM(t, x, CovDiag)
	m, err := e.Evaluate(x)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, key := range []string{"silhouette_score", "bic", "aic", "davies_bouldin_index", "calinski_harabasz_score", "log_likelihood"} {
		v, ok := m[key]
		if !ok {
			t.Fatalf("missing metric %q", key)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("metric %q is not finite: %v", key, v)
		}
	}
	// BIC penalizes parameters harder than AIC for n > e^2 samples.
	if m["bic"] <= m["aic"] {
		t.Fatalf("bic %v not above aic %v", m["bic"], m["aic"])
	}
}

func TestGMM_ParamCounts(t *testing.T) {
	x := twoBlobs(20, 13)
	// d=2, k=2: base = 1 + 4 = 5.
	want := map[string]int{
		CovFull:      5 + 2*3,
		CovTied:      5 + 3,
		CovDiag:      5 + 4,
		CovSpherical: 5 + 2,
	}
	for covType, expected := range want {
		e := fittedGMM(t, x, covType)
		if got := e.paramCount(); got != expected {
			t.Fatalf("%s: paramCount = %d, want %d", covType, got, expected)
		}
	}
}

func TestGMM_WeightsSumToOne(t *testing.T) {
	e := fittedGMM(t, twoBlobs(25, 14), CovSpherical)
	w, err := e.Weights()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Fatalf("weights sum to %v, want 1", sum)
	}
}

func TestGMM_Uncertainty(t *testing.T) {
	e := fittedGMM(t, twoBlobs(25, 15), CovFull)
	u, err := e.Uncertainty()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.MeanMaxProbability < 0.5 || u.MeanMaxProbability > 1 {
		t.Fatalf("mean max probability %v outside [0.5, 1]", u.MeanMaxProbability)
	}
	if u.HighConfidencePct < 0 || u.HighConfidencePct > 100 {
		t.Fatalf("high confidence pct %v outside [0, 100]", u.HighConfidencePct)
	}
	if u.HighConfidence+u.LowConfidence > 50 {
		t.Fatalf("confidence counts exceed sample count")
	}
	if u.MeanEntropy < 0 {
		t.Fatalf("mean entropy %v negative", u.MeanEntropy)
	}
	// Distant blobs assign almost every point with near-certainty.
	if u.MeanMaxProbability < 0.95 {
		t.Fatalf("mean max probability %v too low for separated blobs", u.MeanMaxProbability)
	}
}

func TestGMM_CovarianceDiagonals(t *testing.T) {
	for _, covType := range []string{CovFull, CovDiag, CovTied, CovSpherical} {
		e := fittedGMM(t, twoBlobs(20, 16), covType)
		diags, err := e.CovarianceDiagonals()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", covType, err)
		}
		if len(diags) != 2 || len(diags[0]) != 2 {
			t.Fatalf("%s: diagonal shape %dx%d, want 2x2", covType, len(diags), len(diags[0]))
		}
		for _, diag := range diags {
			for _, v := range diag {
				if v <= 0 {
					t.Fatalf("%s: non-positive variance %v", covType, v)
				}
			}
		}
	}
}

func TestGMM_RejectsUnknownCovariance(t *testing.T) {
	e := NewGMM(GMMOptions{NClusters: 2, CovarianceType: "banana", MaxIter: 10, NInit: 1, Tolerance: 1e-3})
	if err := e.Fit(twoBlobs(5, 1)); err == nil {
		t.Fatal("expected error for unknown covariance type, got nil")
	}
}

func TestGMM_RejectsTooFewSamples(t *testing.T) {
	e := NewGMM(GMMOptions{NClusters: 5, CovarianceType: CovDiag, MaxIter: 10, NInit: 1, Tolerance: 1e-3})
	if err := e.Fit([][]float64{{1, 2}, {3, 4}}); err == nil {
		t.Fatal("expected error for k > n, got nil")
	}
}
