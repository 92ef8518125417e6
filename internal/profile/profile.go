// Package profile assembles the per-engine cluster profile documents
// written for downstream analysis. A document bundles run metadata, the
// engine's evaluation metrics, and per-cluster statistics over the
// original (unscaled) feature values.
package profile

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"customer-segmentation/internal/models"
)

// Input carries everything a profile document is built from. X holds the
// clustering features in original units, one row per customer; Soft, when
// present, is the row-major n x k soft assignment matrix (fuzzy membership
// or GMM posterior).
type Input struct {
	Method      string
	NClusters   int
	Features    []string
	Hyperparams map[string]interface{}

	X      [][]float64
	Labels []int

	Soft             [][]float64
	MixtureWeights   []float64
	Metrics          map[string]float64
	Uncertainty      map[string]float64
	FeatureVariances [][]float64 // per cluster, aligned with Features
	Centers          [][]float64
}

// Build assembles a profile document with a fresh run id.
func Build(in Input, now time.Time) (*models.ProfileDocument, error) {
	if len(in.X) == 0 || len(in.X) != len(in.Labels) {
		return nil, fmt.Errorf("profile: %d feature rows but %d labels", len(in.X), len(in.Labels))
	}
	if len(in.Features) != len(in.X[0]) {
		return nil, fmt.Errorf("profile: %d feature names but %d columns", len(in.Features), len(in.X[0]))
	}

	doc := &models.ProfileDocument{
		Metadata: models.ProfileMetadata{
			Method:      in.Method,
			RunID:       uuid.NewString(),
			Timestamp:   now.UTC(),
			NClusters:   in.NClusters,
			NSamples:    len(in.X),
			Hyperparams: in.Hyperparams,
		},
		Metrics:      in.Metrics,
		Uncertainty:  in.Uncertainty,
		FeaturesUsed: in.Features,
		Clusters:     make(map[string]models.ClusterInfo, in.NClusters),
	}

	n := len(in.X)
	for c := 0; c < in.NClusters; c++ {
		var rows []int
		for i, l := range in.Labels {
			if l == c {
				rows = append(rows, i)
			}
		}

		info := models.ClusterInfo{
			ClusterID:         c,
			Size:              len(rows),
			Percentage:        float64(len(rows)) / float64(n) * 100,
			FeatureStatistics: make(map[string]models.FeatureStats, len(in.Features)),
			ClusterCenter:     make(map[string]float64, len(in.Features)),
		}
		if in.MixtureWeights != nil && c < len(in.MixtureWeights) {
			w := in.MixtureWeights[c]
			info.MixtureWeight = &w
		}
		if in.Centers != nil && c < len(in.Centers) {
			for j, name := range in.Features {
				info.ClusterCenter[name] = in.Centers[c][j]
			}
		}
		if in.FeatureVariances != nil && c < len(in.FeatureVariances) {
			info.FeatureVariances = make(map[string]float64, len(in.Features))
			for j, name := range in.Features {
				info.FeatureVariances[name] = in.FeatureVariances[c][j]
			}
		}
		if in.Soft != nil && len(rows) > 0 {
			strengths := make([]float64, len(rows))
			for i, r := range rows {
				strengths[i] = in.Soft[r][c]
			}
			info.AssignmentStats = assignmentStats(strengths)
		}
		for j, name := range in.Features {
			if len(rows) == 0 {
				continue
			}
			values := make([]float64, len(rows))
			for i, r := range rows {
				values[i] = in.X[r][j]
			}
			info.FeatureStatistics[name] = featureStats(values)
		}

		doc.Clusters[fmt.Sprintf("cluster_%d", c)] = info
	}
	return doc, nil
}

func featureStats(values []float64) models.FeatureStats {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return models.FeatureStats{
		Mean:   stat.Mean(values, nil),
		Median: quantile(sorted, 0.5),
		Std:    sampleStd(values),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Q25:    quantile(sorted, 0.25),
		Q75:    quantile(sorted, 0.75),
	}
}

func assignmentStats(values []float64) *models.AssignmentStats {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return &models.AssignmentStats{
		Mean:   stat.Mean(values, nil),
		Std:    sampleStd(values),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Median: quantile(sorted, 0.5),
	}
}

// quantile interpolates linearly between order statistics. sorted must be
// ascending and non-empty.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// sampleStd is the n-1 denominator standard deviation, 0 for singletons.
func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}
