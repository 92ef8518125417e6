package profile

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"customer-segmentation/internal/models"
)

func testInput() Input {
	return Input{
		Method:      "gmm",
		NClusters:   2,
		Features:    []string{"total_revenue", "recency_days"},
		Hyperparams: map[string]interface{}{"covariance_type": "full"},
		X: [][]float64{
			{100, 10},
			{120, 20},
			{140, 30},
			{1000, 200},
			{1200, 220},
		},
		Labels: []int{0, 0, 0, 1, 1},
		Soft: [][]float64{
			{0.9, 0.1},
			{0.8, 0.2},
			{0.95, 0.05},
			{0.1, 0.9},
			{0.2, 0.8},
		},
		MixtureWeights: []float64{0.6, 0.4},
		Metrics:        map[string]float64{"silhouette_score": 0.8},
		Uncertainty:    map[string]float64{"mean_entropy": 0.3},
		Centers:        [][]float64{{120, 20}, {1100, 210}},
		FeatureVariances: [][]float64{
			{400, 100},
			{10000, 100},
		},
	}
}

func TestBuild_Document(t *testing.T) {
	now := time.Date(2026, 8, 27, 15, 30, 0, 0, time.UTC)
	doc, err := Build(testInput(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Metadata.Method != "gmm" || doc.Metadata.NClusters != 2 || doc.Metadata.NSamples != 5 {
		t.Fatalf("metadata %+v", doc.Metadata)
	}
	if doc.Metadata.RunID == "" {
		t.Fatal("run id not assigned")
	}
	if !doc.Metadata.Timestamp.Equal(now) {
		t.Fatalf("timestamp %v, want %v", doc.Metadata.Timestamp, now)
	}
	if len(doc.Clusters) != 2 {
		t.Fatalf("got %d clusters, want 2", len(doc.Clusters))
	}

	c0, ok := doc.Clusters["cluster_0"]
	if !ok {
		t.Fatal("cluster_0 key missing")
	}
	if c0.Size != 3 || c0.Percentage != 60 {
		t.Fatalf("cluster 0 size %d pct %v, want 3 / 60", c0.Size, c0.Percentage)
	}
	if c0.MixtureWeight == nil || *c0.MixtureWeight != 0.6 {
		t.Fatalf("mixture weight %v, want 0.6", c0.MixtureWeight)
	}
	if c0.ClusterCenter["total_revenue"] != 120 {
		t.Fatalf("center %v", c0.ClusterCenter)
	}
	if c0.FeatureVariances["recency_days"] != 100 {
		t.Fatalf("variances %v", c0.FeatureVariances)
	}

	stats := c0.FeatureStatistics["total_revenue"]
	if stats.Mean != 120 || stats.Median != 120 || stats.Min != 100 || stats.Max != 140 {
		t.Fatalf("stats %+v", stats)
	}
	if stats.Q25 != 110 || stats.Q75 != 130 {
		t.Fatalf("quartiles %v / %v, want 110 / 130", stats.Q25, stats.Q75)
	}
	if math.Abs(stats.Std-20) > 1e-9 {
		t.Fatalf("std %v, want 20", stats.Std)
	}

	if c0.AssignmentStats == nil {
		t.Fatal("assignment stats missing with soft matrix present")
	}
	if c0.AssignmentStats.Min != 0.8 || c0.AssignmentStats.Max != 0.95 {
		t.Fatalf("assignment stats %+v", c0.AssignmentStats)
	}
}

func TestBuild_UniqueRunIDs(t *testing.T) {
	now := time.Now()
	a, _ := Build(testInput(), now)
	b, _ := Build(testInput(), now)
	if a.Metadata.RunID == b.Metadata.RunID {
		t.Fatal("two runs share a run id")
	}
}

func TestBuild_EmptyClusterHasNoStats(t *testing.T) {
	in := testInput()
	in.NClusters = 3
	in.Centers = append(in.Centers, []float64{0, 0})
	doc, err := Build(in, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c2, ok := doc.Clusters["cluster_2"]
	if !ok {
		t.Fatal("empty cluster omitted from document")
	}
	if c2.Size != 0 || len(c2.FeatureStatistics) != 0 {
		t.Fatalf("empty cluster carries stats: %+v", c2)
	}
	if c2.AssignmentStats != nil {
		t.Fatal("empty cluster carries assignment stats")
	}
}

func TestBuild_Errors(t *testing.T) {
	in := testInput()
	in.Labels = in.Labels[:3]
	if _, err := Build(in, time.Now()); err == nil {
		t.Fatal("expected error for label length mismatch, got nil")
	}

	in = testInput()
	in.Features = []string{"total_revenue"}
	if _, err := Build(in, time.Now()); err == nil {
		t.Fatal("expected error for feature width mismatch, got nil")
	}
}

func TestQuantile_Interpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	cases := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{0.25, 1.75},
		{0.5, 2.5},
		{0.75, 3.25},
		{1, 4},
	}
	for _, tc := range cases {
		if got := quantile(sorted, tc.p); math.Abs(got-tc.want) > 1e-12 {
			t.Fatalf("quantile(%v) = %v, want %v", tc.p, got, tc.want)
		}
	}
	if got := quantile([]float64{7}, 0.5); got != 7 {
		t.Fatalf("singleton quantile %v, want 7", got)
	}
}

func TestSampleStd(t *testing.T) {
	if got := sampleStd([]float64{5}); got != 0 {
		t.Fatalf("singleton std %v, want 0", got)
	}
	if got := sampleStd([]float64{2, 4}); math.Abs(got-math.Sqrt2) > 1e-12 {
		t.Fatalf("std %v, want sqrt(2)", got)
	}
}

func TestWriteJSON_RoundTrip(t *testing.T) {
	doc, _ := Build(testInput(), time.Now())
	var buf bytes.Buffer
	if err := WriteJSON(&buf, doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded models.ProfileDocument
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.Metadata.RunID != doc.Metadata.RunID {
		t.Fatal("run id did not round-trip")
	}
	if decoded.Clusters["cluster_1"].Size != 2 {
		t.Fatalf("cluster sizes did not round-trip: %+v", decoded.Clusters)
	}
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	doc, _ := Build(testInput(), time.Now())
	var buf bytes.Buffer
	if err := WriteYAML(&buf, doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"cluster_0:", "cluster_1:", "run_id:", "silhouette_score:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("yaml output missing %q", want)
		}
	}
	var decoded models.ProfileDocument
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.Metadata.RunID != doc.Metadata.RunID {
		t.Fatal("run id did not round-trip through yaml")
	}
	if decoded.Clusters["cluster_0"].Size != 3 {
		t.Fatalf("cluster sizes did not round-trip: %+v", decoded.Clusters)
	}
}

func TestWriteFlatCSV_SortedDottedKeys(t *testing.T) {
	doc, _ := Build(testInput(), time.Now())
	var buf bytes.Buffer
	if err := WriteFlatCSV(&buf, doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) < 10 {
		t.Fatalf("only %d rows, want a flattened document", len(records))
	}
	if records[0][0] != "key" || records[0][1] != "value" {
		t.Fatalf("header %v", records[0])
	}
	values := map[string]string{}
	prev := ""
	for _, rec := range records[1:] {
		if rec[0] < prev {
			t.Fatalf("keys out of order: %q after %q", rec[0], prev)
		}
		prev = rec[0]
		values[rec[0]] = rec[1]
	}
	if values["metadata.method"] != "gmm" {
		t.Fatalf("metadata.method = %q", values["metadata.method"])
	}
	if values["clusters.cluster_0.size"] != "3" {
		t.Fatalf("clusters.cluster_0.size = %q", values["clusters.cluster_0.size"])
	}
	if _, ok := values["clusters.cluster_0.feature_statistics.total_revenue.mean"]; !ok {
		t.Fatal("nested feature statistics not flattened")
	}
}

func TestFilename(t *testing.T) {
	ts := time.Date(2026, 8, 27, 15, 30, 0, 0, time.UTC)
	if got := Filename("fuzzy", "json", ts); got != "fuzzy_cluster_profile_20260827_153000.json" {
		t.Fatalf("filename %q", got)
	}
}
