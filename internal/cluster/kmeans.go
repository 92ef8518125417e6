package cluster

import (
	"math"
	"math/rand"
)

const kmeansMaxIter = 300

type kmeansResult struct {
	centroids [][]float64
	labels    []int
	inertia   float64
}

// runKMeans performs Lloyd's algorithm with nInit random restarts, keeping
// the solution with the lowest inertia.
func runKMeans(x [][]float64, k, nInit int, rng *rand.Rand) kmeansResult {
	best := kmeansResult{inertia: math.Inf(1)}
	for i := 0; i < nInit; i++ {
		res := kmeansOnce(x, k, rng)
		if res.inertia < best.inertia {
			best = res
		}
	}
	return best
}

func kmeansOnce(x [][]float64, k int, rng *rand.Rand) kmeansResult {
	n := len(x)
	d := len(x[0])
	if k > n {
		k = n
	}

	// Forgy init: k distinct data points.
	perm := rng.Perm(n)
	centroids := make([][]float64, k)
	for c := 0; c < k; c++ {
		centroids[c] = make([]float64, d)
		copy(centroids[c], x[perm[c]])
	}

	labels := make([]int, n)
	for iter := 0; iter < kmeansMaxIter; iter++ {
		changes := 0
		for i, row := range x {
			best := nearestCentroid(row, centroids)
			if labels[i] != best {
				labels[i] = best
				changes++
			}
		}
		if changes == 0 && iter > 0 {
			break
		}

		counts := make([]int, k)
		next := make([][]float64, k)
		for c := range next {
			next[c] = make([]float64, d)
		}
		for i, row := range x {
			counts[labels[i]]++
			for j, v := range row {
				next[labels[i]][j] += v
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				// Re-seed an empty cluster from a random point.
				copy(next[c], x[rng.Intn(n)])
				continue
			}
			for j := range next[c] {
				next[c][j] /= float64(counts[c])
			}
		}
		centroids = next
	}

	inertia := 0.0
	for i, row := range x {
		inertia += squaredDistance(row, centroids[labels[i]])
	}
	return kmeansResult{centroids: centroids, labels: labels, inertia: inertia}
}

func kmeansAssign(x [][]float64, centroids [][]float64) []int {
	labels := make([]int, len(x))
	for i, row := range x {
		labels[i] = nearestCentroid(row, centroids)
	}
	return labels
}

func nearestCentroid(row []float64, centroids [][]float64) int {
	best := 0
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		if d := squaredDistance(row, centroid); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}
