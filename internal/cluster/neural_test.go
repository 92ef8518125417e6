package cluster

import (
	"math"
	"math/rand"
	"testing"
)

func neuralOptions() NeuralOptions {
	return NeuralOptions{
		NClusters:    2,
		EncodingDim:  2,
		HiddenLayers: []int{8},
		Epochs:       40,
		BatchSize:    16,
		LearningRate: 0.01,
		KMeansNInit:  5,
		Seed:         42,
	}
}

func TestNeural_FitPredictShapes(t *testing.T) {
	x := twoBlobs(30, 20)
	e := NewNeural(neuralOptions())
	if err := e.Fit(x); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	labels, err := e.Labels()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(labels) != len(x) {
		t.Fatalf("got %d labels, want %d", len(labels), len(x))
	}
	for i, l := range labels {
		if l < 0 || l >= 2 {
			t.Fatalf("label[%d] = %d outside [0, 2)", i, l)
		}
	}
	predicted, err := e.Predict(x)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(predicted) != len(x) {
		t.Fatalf("got %d predictions, want %d", len(predicted), len(x))
	}
}

func TestNeural_EvaluateMetrics(t *testing.T) {
	x := twoBlobs(25, 21)
	e := NewNeural(neuralOptions())
	if err := e.Fit(x); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, err := e.Evaluate(x)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	re := m["reconstruction_error"]
	if math.IsNaN(re) || re < 0 {
		t.Fatalf("reconstruction error %v invalid", re)
	}
	sil := m["silhouette_score"]
	if sil < -1 || sil > 1 {
		t.Fatalf("silhouette %v outside [-1, 1]", sil)
	}
}

func TestNeural_CentersInOriginalSpace(t *testing.T) {
	x := twoBlobs(30, 22)
	e := NewNeural(neuralOptions())
	if err := e.Fit(x); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	centers, err := e.Centers()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(centers) != 2 || len(centers[0]) != 2 {
		t.Fatalf("centers shape %dx%d, want 2x2", len(centers), len(centers[0]))
	}
	// Centers are means of original features, so both coordinates must sit
	// inside the data's bounding box.
	for _, c := range centers {
		for _, v := range c {
			if v < -3 || v > 13 {
				t.Fatalf("center coordinate %v outside data range", v)
			}
		}
	}
}

func TestNeural_RejectsBadOptions(t *testing.T) {
	x := twoBlobs(5, 1)

	bad := neuralOptions()
	bad.NClusters = 1
	if err := NewNeural(bad).Fit(x); err == nil {
		t.Fatal("expected error for n_clusters=1, got nil")
	}

	bad = neuralOptions()
	bad.EncodingDim = 0
	if err := NewNeural(bad).Fit(x); err == nil {
		t.Fatal("expected error for encoding_dim=0, got nil")
	}
}

func TestAutoencoder_TrainingReducesError(t *testing.T) {
	x := twoBlobs(30, 23)
	var scaler StandardScaler
	scaler.Fit(x)
	xs := scaler.Transform(x)

	rng := rand.New(rand.NewSource(42))
	ae := newAutoencoder(2, 2, []int{8}, 0.01, rng)
	before := ae.ReconstructionError(xs)
	ae.Train(xs, 40, 16, rng)
	after := ae.ReconstructionError(xs)

	if after >= before {
		t.Fatalf("training did not reduce reconstruction error: %v -> %v", before, after)
	}
}

func TestAutoencoder_EncodeShape(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	ae := newAutoencoder(4, 2, []int{6}, 0.01, rng)
	x := [][]float64{{1, 2, 3, 4}, {4, 3, 2, 1}}
	enc := ae.Encode(x)
	if len(enc) != 2 || len(enc[0]) != 2 {
		t.Fatalf("encoded shape %dx%d, want 2x2", len(enc), len(enc[0]))
	}
}
