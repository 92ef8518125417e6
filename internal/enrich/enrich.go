// Package enrich turns quantitative cluster results into business-facing
// segment narratives: a memorable name, a templated description, and a
// rule-based list of interaction strategies per cluster. It works from
// labels and per-cluster aggregates only, so the output is identical no
// matter which clustering engine produced the assignment.
package enrich

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"customer-segmentation/internal/models"
)

// Tier thresholds over per-cluster means.
const (
	highValueRevenue   = 15000.0
	mediumValueRevenue = 5000.0
	highEngagementFreq = 3.0
	regEngagementFreq  = 1.0
	recentDays         = 30.0
	moderateDays       = 90.0
	winBackDays        = 90.0
	hibernatingDays    = 120.0
	highReturnRate     = 0.15
)

// Enrich builds a segment profile per populated cluster. Centers fix the
// cluster id range; clusters with no assigned customers are skipped.
func Enrich(customers []models.Customer, labels []int, centers [][]float64) (map[int]models.SegmentProfile, error) {
	if len(customers) != len(labels) {
		return nil, fmt.Errorf("enrich: %d customers but %d labels", len(customers), len(labels))
	}
	if len(customers) == 0 {
		return nil, fmt.Errorf("enrich: no customers")
	}
	k := len(centers)

	characteristics := analyze(customers, labels, k)
	names := segmentNames(characteristics)

	profiles := make(map[int]models.SegmentProfile, len(characteristics))
	for id, stats := range characteristics {
		profiles[id] = models.SegmentProfile{
			ClusterID:             id,
			SegmentName:           names[id],
			Description:           describe(stats),
			Characteristics:       stats,
			InteractionStrategies: strategies(stats),
		}
	}
	return profiles, nil
}

// analyze computes per-cluster aggregates for every populated cluster.
func analyze(customers []models.Customer, labels []int, k int) map[int]models.SegmentCharacteristics {
	type acc struct {
		n         int
		revenue   float64
		purchases float64
		aov       float64
		recency   float64
		freq      float64
		lifetime  float64
		returns   float64
	}
	sums := make([]acc, k)
	for i, c := range customers {
		l := labels[i]
		if l < 0 || l >= k {
			continue
		}
		a := &sums[l]
		a.n++
		a.revenue += c.TotalRevenue
		a.purchases += float64(c.TotalPurchases)
		a.aov += c.AvgOrderValue
		a.recency += float64(c.RecencyDays)
		a.freq += c.FrequencyPerMonth
		a.lifetime += c.LifetimeMonths
		a.returns += c.ReturnRate
	}

	total := float64(len(customers))
	out := make(map[int]models.SegmentCharacteristics)
	for id, a := range sums {
		if a.n == 0 {
			continue
		}
		n := float64(a.n)
		out[id] = models.SegmentCharacteristics{
			Size:              a.n,
			Percentage:        round2(n / total * 100),
			AvgTotalRevenue:   round2(a.revenue / n),
			AvgTotalPurchases: round2(a.purchases / n),
			AvgOrderValue:     round2(a.aov / n),
			AvgRecencyDays:    round2(a.recency / n),
			AvgFrequency:      round2(a.freq / n),
			AvgLifetimeMonths: round2(a.lifetime / n),
			AvgReturnRate:     round3(a.returns / n),
		}
	}
	return out
}

// segmentNames assigns names by revenue rank, not absolute thresholds:
// clusters are sorted by mean revenue descending (ties broken by cluster id
// ascending) and each rank gets a fixed naming rule.
func segmentNames(characteristics map[int]models.SegmentCharacteristics) map[int]string {
	ids := make([]int, 0, len(characteristics))
	for id := range characteristics {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool {
		ra := characteristics[ids[a]].AvgTotalRevenue
		rb := characteristics[ids[b]].AvgTotalRevenue
		if ra != rb {
			return ra > rb
		}
		return ids[a] < ids[b]
	})

	names := make(map[int]string, len(ids))
	for rank, id := range ids {
		stats := characteristics[id]
		var name string
		switch rank {
		case 0:
			if stats.AvgRecencyDays < recentDays {
				name = "VIP Champions"
			} else {
				name = "High-Value At-Risk"
			}
		case 1:
			if stats.AvgFrequency > 2 {
				name = "Loyal Regulars"
			} else {
				name = "Potential Loyalists"
			}
		case 2:
			if stats.AvgRecencyDays < 60 {
				name = "Promising Customers"
			} else {
				name = "Need Attention"
			}
		default:
			if stats.AvgRecencyDays > hibernatingDays {
				name = "Hibernating"
			} else {
				name = "Price Sensitive"
			}
		}
		names[id] = name
	}
	return names
}

// describe renders the templated narrative sentence from tier labels and
// the key aggregates.
func describe(stats models.SegmentCharacteristics) string {
	var valueTier string
	switch {
	case stats.AvgTotalRevenue > highValueRevenue:
		valueTier = "High-Value"
	case stats.AvgTotalRevenue > mediumValueRevenue:
		valueTier = "Medium-Value"
	default:
		valueTier = "Low-Value"
	}

	var engagement string
	switch {
	case stats.AvgFrequency > highEngagementFreq:
		engagement = "Highly Engaged"
	case stats.AvgFrequency > regEngagementFreq:
		engagement = "Regularly Engaged"
	default:
		engagement = "Occasionally Engaged"
	}

	var recency string
	switch {
	case stats.AvgRecencyDays < recentDays:
		recency = "Recent"
	case stats.AvgRecencyDays < moderateDays:
		recency = "Moderately Recent"
	default:
		recency = "At-Risk"
	}

	return fmt.Sprintf(
		"%s %s Customers (%s): This segment represents %v%% of the customer base "+
			"with average revenue of $%s. They purchase approximately %.1f times per month "+
			"with an average order value of $%.2f. Last purchase was %.0f days ago on average.",
		valueTier, engagement, recency,
		stats.Percentage, commaMoney(stats.AvgTotalRevenue),
		stats.AvgFrequency, stats.AvgOrderValue, stats.AvgRecencyDays,
	)
}

// strategies accumulates recommendations from every matching rule; a
// cluster can pick up strategies from several rules at once.
func strategies(stats models.SegmentCharacteristics) []string {
	var out []string

	switch {
	case stats.AvgTotalRevenue > highValueRevenue:
		out = append(out,
			"Provide premium customer service and dedicated account manager",
			"Offer exclusive early access to new products",
			"Create personalized shopping experiences",
		)
	case stats.AvgTotalRevenue > mediumValueRevenue:
		out = append(out,
			"Implement loyalty program with tiered rewards",
			"Send personalized product recommendations",
			"Offer bundle deals to increase order value",
		)
	default:
		out = append(out,
			"Provide special discounts and promotions",
			"Send educational content about product value",
			"Create entry-level product bundles",
		)
	}

	if stats.AvgFrequency < 1 {
		out = append(out, "Increase engagement through regular newsletters and updates")
	}
	if stats.AvgRecencyDays > winBackDays {
		out = append(out,
			"Launch win-back campaign with special offers",
			"Send re-engagement email sequence",
			"Conduct customer feedback survey to understand concerns",
		)
	}
	if stats.AvgReturnRate > highReturnRate {
		out = append(out,
			"Improve product descriptions and sizing guides",
			"Offer virtual try-on or consultation services",
			"Review product quality and customer expectations",
		)
	}
	return out
}

// commaMoney formats a value with thousands separators and two decimals.
func commaMoney(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	dot := strings.IndexByte(s, '.')
	intPart, frac := s[:dot], s[dot:]
	neg := false
	if strings.HasPrefix(intPart, "-") {
		neg = true
		intPart = intPart[1:]
	}
	var b strings.Builder
	for i, ch := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	if neg {
		return "-" + b.String() + frac
	}
	return b.String() + frac
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
