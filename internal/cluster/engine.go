// Package cluster implements the three clustering engines behind a shared
// contract: fuzzy c-means, autoencoder + k-means, and a Gaussian mixture
// model. Engines operate on feature matrices already extracted from a
// dataset table; they own their fitted scaler and model state exclusively.
package cluster

import (
	"errors"
	"fmt"
)

// ErrNotFitted is returned when Predict or Evaluate is called before Fit.
var ErrNotFitted = errors.New("model must be fitted first")

// Engine is the contract shared by all three clustering methods. Soft
// engines expose their membership or posterior matrices through additional
// methods on the concrete type.
type Engine interface {
	// Name identifies the method in logs and profile documents.
	Name() string
	// Fit trains on the feature matrix (rows = customers).
	Fit(x [][]float64) error
	// Predict assigns a hard cluster label in [0, k) per row.
	Predict(x [][]float64) ([]int, error)
	// Evaluate computes the method's internal quality metrics.
	Evaluate(x [][]float64) (map[string]float64, error)
	// Centers returns cluster centers in original (unscaled) feature units.
	Centers() ([][]float64, error)
	// NumClusters returns the configured cluster count.
	NumClusters() int
}

func notFitted(engine string) error {
	return fmt.Errorf("%s: %w", engine, ErrNotFitted)
}

func checkMatrix(engine string, x [][]float64) error {
	if len(x) == 0 {
		return fmt.Errorf("%s: empty feature matrix", engine)
	}
	width := len(x[0])
	if width == 0 {
		return fmt.Errorf("%s: feature matrix has no columns", engine)
	}
	for i, row := range x {
		if len(row) != width {
			return fmt.Errorf("%s: ragged feature matrix at row %d", engine, i)
		}
	}
	return nil
}
