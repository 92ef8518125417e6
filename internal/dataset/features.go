package dataset

import "customer-segmentation/internal/config"

// SelectFeatures resolves the feature list a clustering method should run
// on. The core columns are always candidates; enriched columns join them
// when the method opts in. Candidates missing from the table (a basic table
// fed to an enriched-feature pipeline) are dropped rather than rejected —
// an intentional tolerance policy, surfaced through the dropped return.
func SelectFeatures(f config.Features, t *Table) (used, dropped []string) {
	candidates := append([]string(nil), f.Core...)
	if len(candidates) == 0 {
		candidates = append(candidates, config.CoreFeatureColumns...)
	}
	if f.UseEnriched {
		if len(f.Enriched) > 0 {
			candidates = append(candidates, f.Enriched...)
		} else {
			candidates = append(candidates, t.EnrichedColumns()...)
		}
	}
	for _, col := range candidates {
		if t.HasColumn(col) {
			used = append(used, col)
		} else {
			dropped = append(dropped, col)
		}
	}
	return used, dropped
}
