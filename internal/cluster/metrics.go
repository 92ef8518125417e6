package cluster

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// logFloor is added inside entropy-style log terms so degenerate memberships
// never produce NaN or -Inf.
const logFloor = 1e-10

func euclidean(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

func squaredDistance(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

// Silhouette computes the mean silhouette coefficient over all samples.
// Samples in singleton clusters contribute 0. Returns 0 when fewer than two
// clusters are populated, keeping batch reporting resilient.
func Silhouette(x [][]float64, labels []int, k int) float64 {
	n := len(x)
	sizes := make([]int, k)
	for _, l := range labels {
		sizes[l]++
	}
	populated := 0
	for _, s := range sizes {
		if s > 0 {
			populated++
		}
	}
	if populated < 2 || n < 2 {
		return 0
	}

	total := 0.0
	sumTo := make([]float64, k)
	for i := 0; i < n; i++ {
		for c := range sumTo {
			sumTo[c] = 0
		}
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			sumTo[labels[j]] += euclidean(x[i], x[j])
		}

		own := labels[i]
		if sizes[own] <= 1 {
			continue
		}
		a := sumTo[own] / float64(sizes[own]-1)
		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if c == own || sizes[c] == 0 {
				continue
			}
			if mean := sumTo[c] / float64(sizes[c]); mean < b {
				b = mean
			}
		}
		if denom := math.Max(a, b); denom > 0 {
			total += (b - a) / denom
		}
	}
	return total / float64(n)
}

// DaviesBouldin computes the Davies-Bouldin index (lower is better):
// the mean over clusters of the worst-case ratio of within-cluster scatter
// to between-center separation.
func DaviesBouldin(x [][]float64, labels []int, k int) float64 {
	centroids, sizes := centroidsOf(x, labels, k)
	scatter := make([]float64, k)
	for i, row := range x {
		l := labels[i]
		scatter[l] += euclidean(row, centroids[l])
	}
	for c := 0; c < k; c++ {
		if sizes[c] > 0 {
			scatter[c] /= float64(sizes[c])
		}
	}

	sum := 0.0
	populated := 0
	for i := 0; i < k; i++ {
		if sizes[i] == 0 {
			continue
		}
		populated++
		worst := 0.0
		for j := 0; j < k; j++ {
			if j == i || sizes[j] == 0 {
				continue
			}
			sep := euclidean(centroids[i], centroids[j])
			if sep == 0 {
				continue
			}
			if r := (scatter[i] + scatter[j]) / sep; r > worst {
				worst = r
			}
		}
		sum += worst
	}
	if populated == 0 {
		return 0
	}
	return sum / float64(populated)
}

// CalinskiHarabasz computes the variance-ratio criterion (higher is
// better): between-cluster dispersion over within-cluster dispersion,
// normalized by degrees of freedom.
func CalinskiHarabasz(x [][]float64, labels []int, k int) float64 {
	n := len(x)
	if n <= k || k < 2 {
		return 0
	}
	centroids, sizes := centroidsOf(x, labels, k)

	d := len(x[0])
	grand := make([]float64, d)
	for _, row := range x {
		floats.Add(grand, row)
	}
	floats.Scale(1/float64(n), grand)

	between := 0.0
	for c := 0; c < k; c++ {
		if sizes[c] == 0 {
			continue
		}
		between += float64(sizes[c]) * squaredDistance(centroids[c], grand)
	}
	within := 0.0
	for i, row := range x {
		within += squaredDistance(row, centroids[labels[i]])
	}
	if within == 0 {
		return 0
	}
	return (between / float64(k-1)) / (within / float64(n-k))
}

// centroidsOf returns per-cluster mean vectors and sizes. Empty clusters
// report a zero vector.
func centroidsOf(x [][]float64, labels []int, k int) ([][]float64, []int) {
	d := len(x[0])
	centroids := make([][]float64, k)
	for c := range centroids {
		centroids[c] = make([]float64, d)
	}
	sizes := make([]int, k)
	for i, row := range x {
		l := labels[i]
		sizes[l]++
		floats.Add(centroids[l], row)
	}
	for c := 0; c < k; c++ {
		if sizes[c] > 0 {
			floats.Scale(1/float64(sizes[c]), centroids[c])
		}
	}
	return centroids, sizes
}
