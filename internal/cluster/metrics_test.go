package cluster

import (
	"math"
	"testing"
)

func blobLabels(n int) []int {
	labels := make([]int, 2*n)
	for i := n; i < 2*n; i++ {
		labels[i] = 1
	}
	return labels
}

func TestSilhouette_SeparatedBlobs(t *testing.T) {
	x := twoBlobs(20, 30)
	s := Silhouette(x, blobLabels(20), 2)
	if s < 0.9 {
		t.Fatalf("silhouette %v, want > 0.9 for distant blobs", s)
	}
	if s > 1 {
		t.Fatalf("silhouette %v above 1", s)
	}
}

func TestSilhouette_SingleClusterIsZero(t *testing.T) {
	x := twoBlobs(10, 31)
	labels := make([]int, len(x))
	if s := Silhouette(x, labels, 2); s != 0 {
		t.Fatalf("silhouette %v, want 0 when one cluster is populated", s)
	}
}

func TestSilhouette_ShuffledLabelsScoreLower(t *testing.T) {
	x := twoBlobs(20, 32)
	good := Silhouette(x, blobLabels(20), 2)

	// Alternate labels across both blobs: a deliberately bad partition.
	bad := make([]int, len(x))
	for i := range bad {
		bad[i] = i % 2
	}
	if s := Silhouette(x, bad, 2); s >= good {
		t.Fatalf("bad partition scored %v, not below good partition %v", s, good)
	}
}

func TestDaviesBouldin_LowerForSeparatedBlobs(t *testing.T) {
	x := twoBlobs(20, 33)
	good := DaviesBouldin(x, blobLabels(20), 2)
	if good < 0 {
		t.Fatalf("davies-bouldin %v negative", good)
	}
	if good > 0.5 {
		t.Fatalf("davies-bouldin %v too high for distant blobs", good)
	}

	bad := make([]int, len(x))
	for i := range bad {
		bad[i] = i % 2
	}
	if db := DaviesBouldin(x, bad, 2); db <= good {
		t.Fatalf("bad partition scored %v, not above good partition %v", db, good)
	}
}

func TestCalinskiHarabasz_HigherForSeparatedBlobs(t *testing.T) {
	x := twoBlobs(20, 34)
	good := CalinskiHarabasz(x, blobLabels(20), 2)
	if good <= 0 {
		t.Fatalf("calinski-harabasz %v, want positive", good)
	}

	bad := make([]int, len(x))
	for i := range bad {
		bad[i] = i % 2
	}
	if ch := CalinskiHarabasz(x, bad, 2); ch >= good {
		t.Fatalf("bad partition scored %v, not below good partition %v", ch, good)
	}
}

func TestScaler_RoundTrip(t *testing.T) {
	x := [][]float64{{1, 100}, {2, 200}, {3, 300}, {4, 400}}
	var s StandardScaler
	s.Fit(x)
	if !s.Fitted() {
		t.Fatal("scaler not marked fitted")
	}

	xs := s.Transform(x)
	for j := 0; j < 2; j++ {
		mean := 0.0
		for i := range xs {
			mean += xs[i][j]
		}
		mean /= float64(len(xs))
		if math.Abs(mean) > 1e-9 {
			t.Fatalf("column %d mean %v after scaling, want 0", j, mean)
		}
	}

	back := s.InverseTransform(xs)
	for i := range x {
		for j := range x[i] {
			if math.Abs(back[i][j]-x[i][j]) > 1e-9 {
				t.Fatalf("round trip [%d][%d]: %v, want %v", i, j, back[i][j], x[i][j])
			}
		}
	}
}

func TestScaler_ConstantColumn(t *testing.T) {
	x := [][]float64{{5, 1}, {5, 2}, {5, 3}}
	var s StandardScaler
	s.Fit(x)
	xs := s.Transform(x)
	for i := range xs {
		if xs[i][0] != 0 {
			t.Fatalf("constant column scaled to %v, want 0", xs[i][0])
		}
	}
}

func TestRunKMeans_SeparatesBlobs(t *testing.T) {
	x := twoBlobs(25, 35)
	rng := newTestRand()
	res := runKMeans(x, 2, 10, rng)
	if len(res.labels) != len(x) {
		t.Fatalf("got %d labels, want %d", len(res.labels), len(x))
	}
	if !sameSide(res.labels, 25) {
		t.Fatal("k-means failed to separate two distant blobs")
	}
	if res.inertia <= 0 {
		t.Fatalf("inertia %v, want positive", res.inertia)
	}
	// Restarts keep the best solution, so more restarts never do worse.
	single := runKMeans(x, 2, 1, newTestRand())
	multi := runKMeans(x, 2, 10, newTestRand())
	if multi.inertia > single.inertia+1e-9 {
		t.Fatalf("10 restarts inertia %v worse than 1 restart %v", multi.inertia, single.inertia)
	}
}
