package api

import (
	"fmt"
	"time"

	"customer-segmentation/internal/cluster"
	"customer-segmentation/internal/config"
	"customer-segmentation/internal/dataset"
	"customer-segmentation/internal/enrich"
	"customer-segmentation/internal/generator"
	"customer-segmentation/internal/logger"
	"customer-segmentation/internal/models"
	"customer-segmentation/internal/profile"
)

// Clustering method names accepted by the pipeline.
const (
	MethodFuzzy  = "fuzzy"
	MethodNeural = "neural"
	MethodGMM    = "gmm"
)

// Pipeline runs the segmentation stages over an in-memory table: generate,
// select features, cluster, evaluate, profile, enrich. It holds resolved
// configuration only; all file loading happened before construction.
type Pipeline struct {
	cfg config.Config
	log *logger.Logger

	personas  []models.Persona
	hierarchy models.Hierarchy
}

// NewPipeline builds a pipeline. personas and hierarchy may be empty, in
// which case the generator falls back to the legacy four-segment scheme.
func NewPipeline(cfg config.Config, personas []models.Persona, hierarchy models.Hierarchy, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{cfg: cfg, log: log, personas: personas, hierarchy: hierarchy}
}

// NewGenerator wires a generator from the pipeline configuration.
func (p *Pipeline) NewGenerator(onProgress func(done, total int)) (*generator.Generator, error) {
	gen := p.cfg.DataGeneration
	opts := generator.Options{
		Seed:       gen.RandomSeed,
		ChildAges:  gen.ChildAges,
		AdultSizes: gen.AdultSizes,
		OnProgress: onProgress,
	}
	if gen.UsePersonas {
		opts.Personas = p.personas
		opts.Hierarchy = p.hierarchy
	}
	if gen.Faker.Enabled {
		opts.Profiles = generator.NewFakeProfiles(gen.RandomSeed)
	}
	return generator.New(opts)
}

// Generate produces a table of the requested kind. With dual-dataset output
// enabled the basic projection is returned alongside the enriched table.
func (p *Pipeline) Generate(n int, kind dataset.Kind, onProgress func(done, total int)) (main, basic *dataset.Table, err error) {
	g, err := p.NewGenerator(onProgress)
	if err != nil {
		return nil, nil, err
	}
	p.log.Info("generating customers",
		"n_customers", n,
		"dataset_type", kind.String(),
		"persona_mode", g.PersonaMode(),
	)
	if p.cfg.DataGeneration.GenerateDualDatasets && kind == dataset.Enriched {
		main, basic, err = g.GenerateBoth(n)
		return main, basic, err
	}
	main, err = g.Generate(n, kind)
	return main, nil, err
}

// GenerateDual produces the enriched table together with its basic
// projection, regardless of the dual-dataset config flag. Used when a
// request asks for both datasets explicitly.
func (p *Pipeline) GenerateDual(n int, onProgress func(done, total int)) (enriched, basic *dataset.Table, err error) {
	g, err := p.NewGenerator(onProgress)
	if err != nil {
		return nil, nil, err
	}
	p.log.Info("generating customers",
		"n_customers", n,
		"dataset_type", "both",
		"persona_mode", g.PersonaMode(),
	)
	return g.GenerateBoth(n)
}

// RunResult bundles everything one clustering run produced.
type RunResult struct {
	Method          string                        `json:"method"`
	FeaturesUsed    []string                      `json:"features_used"`
	FeaturesDropped []string                      `json:"features_dropped,omitempty"`
	Labels          []int                         `json:"labels"`
	Metrics         map[string]float64            `json:"metrics"`
	Document        *models.ProfileDocument       `json:"profile"`
	Segments        map[int]models.SegmentProfile `json:"segments"`
}

// Run executes one clustering method end to end against the table.
func (p *Pipeline) Run(method string, t *dataset.Table) (*RunResult, error) {
	if t == nil || t.Len() == 0 {
		return nil, fmt.Errorf("pipeline: no dataset to cluster")
	}

	features := p.features(method)
	used, dropped := dataset.SelectFeatures(features, t)
	if len(dropped) > 0 {
		p.log.Warn("dropping features absent from dataset",
			"method", method, "dropped", dropped)
	}
	if len(used) == 0 {
		return nil, fmt.Errorf("pipeline: no usable feature columns for %s", method)
	}
	x, _, _ := t.Matrix(used)

	engine, err := p.engine(method)
	if err != nil {
		return nil, err
	}

	p.log.Info("fitting clustering engine",
		"method", method,
		"n_clusters", engine.NumClusters(),
		"n_samples", len(x),
		"n_features", len(used),
	)
	if err := engine.Fit(x); err != nil {
		return nil, fmt.Errorf("fit %s: %w", method, err)
	}
	labels, err := engine.Predict(x)
	if err != nil {
		return nil, err
	}
	metrics, err := engine.Evaluate(x)
	if err != nil {
		return nil, err
	}
	centers, err := engine.Centers()
	if err != nil {
		return nil, err
	}

	in := profile.Input{
		Method:      method,
		NClusters:   engine.NumClusters(),
		Features:    used,
		Hyperparams: p.hyperparams(method),
		X:           x,
		Labels:      labels,
		Metrics:     metrics,
		Centers:     centers,
	}
	p.addSoftOutputs(engine, x, &in)

	doc, err := profile.Build(in, time.Now())
	if err != nil {
		return nil, err
	}
	segments, err := enrich.Enrich(t.Customers, labels, centers)
	if err != nil {
		return nil, err
	}

	p.log.Info("clustering run complete",
		"method", method,
		"run_id", doc.Metadata.RunID,
		"silhouette", metrics["silhouette_score"],
	)
	return &RunResult{
		Method:          method,
		FeaturesUsed:    used,
		FeaturesDropped: dropped,
		Labels:          labels,
		Metrics:         metrics,
		Document:        doc,
		Segments:        segments,
	}, nil
}

// RunAll runs every clustering method sequentially, keyed by method name.
func (p *Pipeline) RunAll(t *dataset.Table) (map[string]*RunResult, error) {
	out := make(map[string]*RunResult, 3)
	for _, method := range []string{MethodFuzzy, MethodNeural, MethodGMM} {
		res, err := p.Run(method, t)
		if err != nil {
			return nil, err
		}
		out[method] = res
	}
	return out, nil
}

func (p *Pipeline) features(method string) config.Features {
	switch method {
	case MethodFuzzy:
		return p.cfg.Fuzzy.Features
	case MethodNeural:
		return p.cfg.Neural.Features
	default:
		return p.cfg.GMM.Features
	}
}

func (p *Pipeline) engine(method string) (cluster.Engine, error) {
	switch method {
	case MethodFuzzy:
		return cluster.NewFuzzy(cluster.FuzzyOptions{
			NClusters: p.cfg.Fuzzy.NClusters,
			Fuzziness: p.cfg.Fuzzy.Fuzziness,
			MaxIter:   p.cfg.Fuzzy.MaxIterations,
			Tolerance: p.cfg.Fuzzy.Tolerance,
			Seed:      p.cfg.Fuzzy.RandomSeed,
		}), nil
	case MethodNeural:
		return cluster.NewNeural(cluster.NeuralOptions{
			NClusters:    p.cfg.Neural.NClusters,
			EncodingDim:  p.cfg.Neural.EncodingDim,
			HiddenLayers: p.cfg.Neural.HiddenLayers,
			Epochs:       p.cfg.Neural.Epochs,
			BatchSize:    p.cfg.Neural.BatchSize,
			LearningRate: p.cfg.Neural.LearningRate,
			KMeansNInit:  p.cfg.Neural.KMeansInit,
			Seed:         p.cfg.Neural.RandomSeed,
		}), nil
	case MethodGMM:
		return cluster.NewGMM(cluster.GMMOptions{
			NClusters:      p.cfg.GMM.NClusters,
			CovarianceType: p.cfg.GMM.CovarianceType,
			MaxIter:        p.cfg.GMM.MaxIterations,
			NInit:          p.cfg.GMM.NInit,
			Tolerance:      p.cfg.GMM.Tolerance,
			Seed:           p.cfg.GMM.RandomSeed,
		}), nil
	default:
		return nil, fmt.Errorf("pipeline: unknown clustering method %q", method)
	}
}

func (p *Pipeline) hyperparams(method string) map[string]interface{} {
	switch method {
	case MethodFuzzy:
		return map[string]interface{}{
			"fuzziness_parameter": p.cfg.Fuzzy.Fuzziness,
			"max_iterations":      p.cfg.Fuzzy.MaxIterations,
			"tolerance":           p.cfg.Fuzzy.Tolerance,
			"random_seed":         p.cfg.Fuzzy.RandomSeed,
		}
	case MethodNeural:
		return map[string]interface{}{
			"encoding_dim":  p.cfg.Neural.EncodingDim,
			"hidden_layers": p.cfg.Neural.HiddenLayers,
			"epochs":        p.cfg.Neural.Epochs,
			"batch_size":    p.cfg.Neural.BatchSize,
			"learning_rate": p.cfg.Neural.LearningRate,
			"kmeans_n_init": p.cfg.Neural.KMeansInit,
			"random_seed":   p.cfg.Neural.RandomSeed,
		}
	default:
		return map[string]interface{}{
			"covariance_type": p.cfg.GMM.CovarianceType,
			"max_iterations":  p.cfg.GMM.MaxIterations,
			"n_init":          p.cfg.GMM.NInit,
			"tolerance":       p.cfg.GMM.Tolerance,
			"random_seed":     p.cfg.GMM.RandomSeed,
		}
	}
}

// addSoftOutputs attaches the method-specific soft assignment material to
// the profile input when the engine exposes it.
func (p *Pipeline) addSoftOutputs(engine cluster.Engine, x [][]float64, in *profile.Input) {
	switch e := engine.(type) {
	case *cluster.FuzzyEngine:
		if u, err := e.Membership(); err == nil {
			in.Soft = transposeClusterMajor(u)
		}
	case *cluster.GMMEngine:
		if proba, err := e.PredictProba(x); err == nil {
			in.Soft = proba
		}
		if w, err := e.Weights(); err == nil {
			in.MixtureWeights = w
		}
		if diags, err := e.CovarianceDiagonals(); err == nil {
			in.FeatureVariances = diags
		}
		if u, err := e.Uncertainty(); err == nil {
			in.Uncertainty = map[string]float64{
				"mean_max_probability":  u.MeanMaxProbability,
				"std_max_probability":   u.StdMaxProbability,
				"high_confidence_count": float64(u.HighConfidence),
				"high_confidence_pct":   u.HighConfidencePct,
				"low_confidence_count":  float64(u.LowConfidence),
				"low_confidence_pct":    u.LowConfidencePct,
				"mean_entropy":          u.MeanEntropy,
			}
		}
		if converged, iters, err := e.Converged(); err == nil {
			in.Hyperparams["converged"] = converged
			in.Hyperparams["n_iterations"] = iters
		}
	}
}

// transposeClusterMajor turns a k x n membership matrix into the row-major
// n x k layout profile documents use.
func transposeClusterMajor(u [][]float64) [][]float64 {
	if len(u) == 0 {
		return nil
	}
	k := len(u)
	n := len(u[0])
	out := make([][]float64, n)
	for j := 0; j < n; j++ {
		row := make([]float64, k)
		for i := 0; i < k; i++ {
			row[i] = u[i][j]
		}
		out[j] = row
	}
	return out
}
