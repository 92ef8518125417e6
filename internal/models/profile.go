package models

import "time"

// FeatureStats are the descriptive statistics reported per clustering
// feature within one cluster.
type FeatureStats struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	Std    float64 `json:"std" yaml:"std"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Q25    float64 `json:"q25" yaml:"q25"`
	Q75    float64 `json:"q75" yaml:"q75"`
}

// AssignmentStats summarize the soft assignment strength (fuzzy membership
// or posterior probability) of the customers assigned to one cluster.
type AssignmentStats struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	Std    float64 `json:"std" yaml:"std"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Median float64 `json:"median" yaml:"median"`
}

// ClusterInfo is the per-cluster section of a profile document.
type ClusterInfo struct {
	ClusterID         int                     `json:"cluster_id" yaml:"cluster_id"`
	Size              int                     `json:"size" yaml:"size"`
	Percentage        float64                 `json:"percentage" yaml:"percentage"`
	MixtureWeight     *float64                `json:"mixture_weight,omitempty" yaml:"mixture_weight,omitempty"`
	AssignmentStats   *AssignmentStats        `json:"assignment_stats,omitempty" yaml:"assignment_stats,omitempty"`
	FeatureStatistics map[string]FeatureStats `json:"feature_statistics" yaml:"feature_statistics"`
	ClusterCenter     map[string]float64      `json:"cluster_center" yaml:"cluster_center"`
	FeatureVariances  map[string]float64      `json:"feature_variances,omitempty" yaml:"feature_variances,omitempty"`
}

// ProfileMetadata identifies the run that produced a profile document.
type ProfileMetadata struct {
	Method      string                 `json:"method" yaml:"method"`
	RunID       string                 `json:"run_id" yaml:"run_id"`
	Timestamp   time.Time              `json:"timestamp" yaml:"timestamp"`
	NClusters   int                    `json:"n_clusters" yaml:"n_clusters"`
	NSamples    int                    `json:"n_samples" yaml:"n_samples"`
	Hyperparams map[string]interface{} `json:"hyperparameters" yaml:"hyperparameters"`
}

// ProfileDocument is the full per-engine cluster profile written for
// downstream consumption. It serializes losslessly to JSON, YAML, and a
// flat key-value form.
type ProfileDocument struct {
	Metadata     ProfileMetadata        `json:"metadata" yaml:"metadata"`
	Metrics      map[string]float64     `json:"metrics" yaml:"metrics"`
	Uncertainty  map[string]float64     `json:"uncertainty_metrics,omitempty" yaml:"uncertainty_metrics,omitempty"`
	FeaturesUsed []string               `json:"features_used" yaml:"features_used"`
	Clusters     map[string]ClusterInfo `json:"clusters" yaml:"clusters"`
}

// SegmentProfile is the enrichment output for one cluster: a business-facing
// name, a templated narrative, the quantitative characteristics it was
// derived from, and recommended interaction strategies.
type SegmentProfile struct {
	ClusterID             int                    `json:"cluster_id" yaml:"cluster_id"`
	SegmentName           string                 `json:"segment_name" yaml:"segment_name"`
	Description           string                 `json:"description" yaml:"description"`
	Characteristics       SegmentCharacteristics `json:"characteristics" yaml:"characteristics"`
	InteractionStrategies []string               `json:"interaction_strategies" yaml:"interaction_strategies"`
}

// SegmentCharacteristics are the per-cluster aggregates enrichment rules
// operate on.
type SegmentCharacteristics struct {
	Size              int     `json:"size" yaml:"size"`
	Percentage        float64 `json:"percentage" yaml:"percentage"`
	AvgTotalRevenue   float64 `json:"avg_total_revenue" yaml:"avg_total_revenue"`
	AvgTotalPurchases float64 `json:"avg_total_purchases" yaml:"avg_total_purchases"`
	AvgOrderValue     float64 `json:"avg_order_value" yaml:"avg_order_value"`
	AvgRecencyDays    float64 `json:"avg_recency_days" yaml:"avg_recency_days"`
	AvgFrequency      float64 `json:"avg_frequency" yaml:"avg_frequency"`
	AvgLifetimeMonths float64 `json:"avg_lifetime_months" yaml:"avg_lifetime_months"`
	AvgReturnRate     float64 `json:"avg_return_rate" yaml:"avg_return_rate"`
}
