// Package config defines the typed configuration for the segmentation
// pipeline and loads it from YAML documents. All defaults are resolved here,
// once, at load time; core packages receive plain resolved values and never
// touch files themselves.
package config

import "fmt"

// Config is the top-level pipeline configuration.
type Config struct {
	DataGeneration Generation   `yaml:"data_generation"`
	Fuzzy          FuzzyConfig  `yaml:"fuzzy_clustering"`
	Neural         NeuralConfig `yaml:"neural_clustering"`
	GMM            GMMConfig    `yaml:"gmm_clustering"`
}

// Generation configures the customer data generator.
type Generation struct {
	NCustomers           int         `yaml:"n_customers"`
	RandomSeed           int64       `yaml:"random_seed"`
	UsePersonas          bool        `yaml:"use_personas"`
	PersonasFile         string      `yaml:"personas_config_file"`
	HierarchyFile        string      `yaml:"hierarchy_config_file"`
	GenerateDualDatasets bool        `yaml:"generate_dual_datasets"`
	ChildAges            []string    `yaml:"child_ages"`
	AdultSizes           []string    `yaml:"adult_sizes"`
	Faker                FakerConfig `yaml:"faker"`
}

// FakerConfig toggles demographic profile generation.
type FakerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Locale  string `yaml:"locale"`
}

// Features selects the columns fed into a clustering method. When
// UseEnriched is false only the core RFM columns are used. An empty
// Enriched list with UseEnriched set means "all enriched columns the
// dataset carries".
type Features struct {
	Core        []string `yaml:"features_to_use"`
	Enriched    []string `yaml:"enriched_features_to_use"`
	UseEnriched bool     `yaml:"use_enriched_features"`
}

// FuzzyConfig holds the fuzzy c-means hyperparameters.
type FuzzyConfig struct {
	NClusters     int     `yaml:"n_clusters"`
	Fuzziness     float64 `yaml:"fuzziness_parameter"`
	MaxIterations int     `yaml:"max_iterations"`
	Tolerance     float64 `yaml:"tolerance"`
	RandomSeed    int64   `yaml:"random_seed"`
	Features      Features `yaml:",inline"`
}

// NeuralConfig holds the autoencoder + k-means hyperparameters.
type NeuralConfig struct {
	NClusters    int     `yaml:"n_clusters"`
	EncodingDim  int     `yaml:"encoding_dim"`
	HiddenLayers []int   `yaml:"hidden_layers"`
	Epochs       int     `yaml:"epochs"`
	BatchSize    int     `yaml:"batch_size"`
	LearningRate float64 `yaml:"learning_rate"`
	KMeansInit   int     `yaml:"kmeans_n_init"`
	RandomSeed   int64   `yaml:"random_seed"`
	Features     Features `yaml:",inline"`
}

// GMMConfig holds the Gaussian mixture hyperparameters.
type GMMConfig struct {
	NClusters      int     `yaml:"n_clusters"`
	CovarianceType string  `yaml:"covariance_type"`
	MaxIterations  int     `yaml:"max_iterations"`
	NInit          int     `yaml:"n_init"`
	Tolerance      float64 `yaml:"tolerance"`
	RandomSeed     int64   `yaml:"random_seed"`
	Features       Features `yaml:",inline"`
}

// CoreFeatureColumns are the seven RFM columns every method defaults to.
var CoreFeatureColumns = []string{
	"total_purchases",
	"total_revenue",
	"avg_order_value",
	"recency_days",
	"frequency_per_month",
	"customer_lifetime_months",
	"return_rate",
}

// Default returns the configuration used when no config document is given.
// The values mirror the documented defaults of the reference pipeline.
func Default() Config {
	return Config{
		DataGeneration: Generation{
			NCustomers:           500,
			RandomSeed:           42,
			UsePersonas:          false,
			GenerateDualDatasets: false,
			ChildAges:            []string{"Baby", "Child"},
			AdultSizes:           []string{"XS", "S", "M", "L", "XL"},
			Faker:                FakerConfig{Enabled: false, Locale: "en_US"},
		},
		Fuzzy: FuzzyConfig{
			NClusters:     4,
			Fuzziness:     2.0,
			MaxIterations: 150,
			Tolerance:     1e-5,
			RandomSeed:    42,
			Features:      Features{Core: append([]string(nil), CoreFeatureColumns...)},
		},
		Neural: NeuralConfig{
			NClusters:    4,
			EncodingDim:  10,
			HiddenLayers: []int{64, 32},
			Epochs:       50,
			BatchSize:    32,
			LearningRate: 0.001,
			KMeansInit:   10,
			RandomSeed:   42,
			Features:     Features{Core: append([]string(nil), CoreFeatureColumns...)},
		},
		GMM: GMMConfig{
			NClusters:      4,
			CovarianceType: "full",
			MaxIterations:  200,
			NInit:          10,
			Tolerance:      1e-3,
			RandomSeed:     42,
			Features:       Features{Core: append([]string(nil), CoreFeatureColumns...)},
		},
	}
}

// applyDefaults fills zero values with the defaults above after a YAML load.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.DataGeneration.NCustomers <= 0 {
		cfg.DataGeneration.NCustomers = def.DataGeneration.NCustomers
	}
	if len(cfg.DataGeneration.ChildAges) == 0 {
		cfg.DataGeneration.ChildAges = def.DataGeneration.ChildAges
	}
	if len(cfg.DataGeneration.AdultSizes) == 0 {
		cfg.DataGeneration.AdultSizes = def.DataGeneration.AdultSizes
	}
	if cfg.DataGeneration.Faker.Locale == "" {
		cfg.DataGeneration.Faker.Locale = def.DataGeneration.Faker.Locale
	}
	if cfg.Fuzzy.NClusters <= 0 {
		cfg.Fuzzy.NClusters = def.Fuzzy.NClusters
	}
	if cfg.Fuzzy.Fuzziness <= 1 {
		cfg.Fuzzy.Fuzziness = def.Fuzzy.Fuzziness
	}
	if cfg.Fuzzy.MaxIterations <= 0 {
		cfg.Fuzzy.MaxIterations = def.Fuzzy.MaxIterations
	}
	if cfg.Fuzzy.Tolerance <= 0 {
		cfg.Fuzzy.Tolerance = def.Fuzzy.Tolerance
	}
	if len(cfg.Fuzzy.Features.Core) == 0 {
		cfg.Fuzzy.Features.Core = append([]string(nil), CoreFeatureColumns...)
	}
	if cfg.Neural.NClusters <= 0 {
		cfg.Neural.NClusters = def.Neural.NClusters
	}
	if cfg.Neural.EncodingDim <= 0 {
		cfg.Neural.EncodingDim = def.Neural.EncodingDim
	}
	if len(cfg.Neural.HiddenLayers) == 0 {
		cfg.Neural.HiddenLayers = append([]int(nil), def.Neural.HiddenLayers...)
	}
	if cfg.Neural.Epochs <= 0 {
		cfg.Neural.Epochs = def.Neural.Epochs
	}
	if cfg.Neural.BatchSize <= 0 {
		cfg.Neural.BatchSize = def.Neural.BatchSize
	}
	if cfg.Neural.LearningRate <= 0 {
		cfg.Neural.LearningRate = def.Neural.LearningRate
	}
	if cfg.Neural.KMeansInit <= 0 {
		cfg.Neural.KMeansInit = def.Neural.KMeansInit
	}
	if len(cfg.Neural.Features.Core) == 0 {
		cfg.Neural.Features.Core = append([]string(nil), CoreFeatureColumns...)
	}
	if cfg.GMM.NClusters <= 0 {
		cfg.GMM.NClusters = def.GMM.NClusters
	}
	if cfg.GMM.CovarianceType == "" {
		cfg.GMM.CovarianceType = def.GMM.CovarianceType
	}
	if cfg.GMM.MaxIterations <= 0 {
		cfg.GMM.MaxIterations = def.GMM.MaxIterations
	}
	if cfg.GMM.NInit <= 0 {
		cfg.GMM.NInit = def.GMM.NInit
	}
	if cfg.GMM.Tolerance <= 0 {
		cfg.GMM.Tolerance = def.GMM.Tolerance
	}
	if len(cfg.GMM.Features.Core) == 0 {
		cfg.GMM.Features.Core = append([]string(nil), CoreFeatureColumns...)
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	switch c.GMM.CovarianceType {
	case "full", "diag", "tied", "spherical":
	default:
		return fmt.Errorf("gmm_clustering: unknown covariance_type %q", c.GMM.CovarianceType)
	}
	if c.Fuzzy.Fuzziness <= 1 {
		return fmt.Errorf("fuzzy_clustering: fuzziness_parameter must be > 1, got %v", c.Fuzzy.Fuzziness)
	}
	if c.DataGeneration.UsePersonas && (c.DataGeneration.PersonasFile == "" || c.DataGeneration.HierarchyFile == "") {
		return fmt.Errorf("data_generation: use_personas requires personas_config_file and hierarchy_config_file")
	}
	return nil
}
