package cluster

import (
	"fmt"
	"math/rand"
)

// NeuralOptions configure the autoencoder + k-means engine.
type NeuralOptions struct {
	NClusters    int
	EncodingDim  int
	HiddenLayers []int
	Epochs       int
	BatchSize    int
	LearningRate float64
	KMeansNInit  int
	Seed         int64
}

// NeuralEngine learns a compressed representation of the standardized
// features with an autoencoder, then runs k-means on the encoded space.
// Reported centers and the silhouette score live in the original feature
// space so they stay comparable with the other engines.
type NeuralEngine struct {
	opts   NeuralOptions
	scaler StandardScaler
	ae     *autoencoder

	encCentroids [][]float64 // k-means centroids in encoded space
	centers      [][]float64 // per-cluster means, original units
	labels       []int
	reconErr     float64
	fitted       bool
}

// NewNeural builds an unfitted autoencoder + k-means engine.
func NewNeural(opts NeuralOptions) *NeuralEngine {
	return &NeuralEngine{opts: opts}
}

func (e *NeuralEngine) Name() string     { return "neural" }
func (e *NeuralEngine) NumClusters() int { return e.opts.NClusters }

func (e *NeuralEngine) Fit(x [][]float64) error {
	if err := checkMatrix(e.Name(), x); err != nil {
		return err
	}
	if e.opts.NClusters < 2 {
		return fmt.Errorf("%s: n_clusters must be >= 2, got %d", e.Name(), e.opts.NClusters)
	}
	if e.opts.EncodingDim < 1 {
		return fmt.Errorf("%s: encoding_dim must be >= 1, got %d", e.Name(), e.opts.EncodingDim)
	}

	e.scaler.Fit(x)
	xs := e.scaler.Transform(x)

	rng := rand.New(rand.NewSource(e.opts.Seed))
	e.ae = newAutoencoder(len(xs[0]), e.opts.EncodingDim, e.opts.HiddenLayers, e.opts.LearningRate, rng)
	e.ae.Train(xs, e.opts.Epochs, e.opts.BatchSize, rng)
	e.reconErr = e.ae.ReconstructionError(xs)

	encoded := e.ae.Encode(xs)
	res := runKMeans(encoded, e.opts.NClusters, e.opts.KMeansNInit, rng)
	e.encCentroids = res.centroids
	e.labels = res.labels

	// Centers are per-cluster means of the standardized original features
	// mapped back to original units, not the encoded-space centroids.
	centroids, _ := centroidsOf(xs, e.labels, e.opts.NClusters)
	e.centers = e.scaler.InverseTransform(centroids)

	e.fitted = true
	return nil
}

// Predict encodes x with the trained autoencoder and assigns each row to
// its nearest encoded-space centroid.
func (e *NeuralEngine) Predict(x [][]float64) ([]int, error) {
	if !e.fitted {
		return nil, notFitted(e.Name())
	}
	if err := checkMatrix(e.Name(), x); err != nil {
		return nil, err
	}
	encoded := e.ae.Encode(e.scaler.Transform(x))
	return kmeansAssign(encoded, e.encCentroids), nil
}

// Evaluate reports the silhouette score computed in the standardized
// original feature space plus the autoencoder reconstruction error.
func (e *NeuralEngine) Evaluate(x [][]float64) (map[string]float64, error) {
	if !e.fitted {
		return nil, notFitted(e.Name())
	}
	if err := checkMatrix(e.Name(), x); err != nil {
		return nil, err
	}
	xs := e.scaler.Transform(x)
	return map[string]float64{
		"silhouette_score":     Silhouette(xs, e.labels, e.opts.NClusters),
		"reconstruction_error": e.reconErr,
		"n_clusters":           float64(e.opts.NClusters),
	}, nil
}

// Centers returns per-cluster mean vectors in original feature units.
// Empty clusters report the inverse-transformed zero vector, i.e. the
// feature means.
func (e *NeuralEngine) Centers() ([][]float64, error) {
	if !e.fitted {
		return nil, notFitted(e.Name())
	}
	return e.centers, nil
}

// Labels returns the hard assignments from the fitting data.
func (e *NeuralEngine) Labels() ([]int, error) {
	if !e.fitted {
		return nil, notFitted(e.Name())
	}
	return e.labels, nil
}
