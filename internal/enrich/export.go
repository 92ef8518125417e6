package enrich

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"customer-segmentation/internal/models"
)

// Export is the downstream-facing bundle of segment profiles. Cluster ids
// become string keys so the document round-trips through JSON and YAML
// object types unchanged.
type Export struct {
	ClusterProfiles map[string]models.SegmentProfile `json:"cluster_profiles" yaml:"cluster_profiles"`
	Metadata        ExportMetadata                   `json:"metadata" yaml:"metadata"`
}

// ExportMetadata summarizes the profile set.
type ExportMetadata struct {
	NClusters      int `json:"n_clusters" yaml:"n_clusters"`
	TotalCustomers int `json:"total_customers" yaml:"total_customers"`
}

// NewExport assembles an export document from enriched profiles.
func NewExport(profiles map[int]models.SegmentProfile) (*Export, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("enrich: no cluster profiles to export")
	}
	keyed := make(map[string]models.SegmentProfile, len(profiles))
	total := 0
	for id, p := range profiles {
		keyed[strconv.Itoa(id)] = p
		total += p.Characteristics.Size
	}
	return &Export{
		ClusterProfiles: keyed,
		Metadata: ExportMetadata{
			NClusters:      len(profiles),
			TotalCustomers: total,
		},
	}, nil
}

// WriteJSON encodes the export document as indented JSON.
func (e *Export) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
