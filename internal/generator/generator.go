// Package generator synthesizes retail customer tables, either from a
// configured persona table constrained by a product hierarchy, or from the
// legacy four-segment scheme when no personas are configured.
package generator

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"customer-segmentation/internal/dataset"
	"customer-segmentation/internal/models"
)

// Options configure a Generator. Personas and Hierarchy must either both be
// set (persona mode) or both be empty (legacy fallback mode).
type Options struct {
	Seed       int64
	Personas   []models.Persona
	Hierarchy  models.Hierarchy
	ChildAges  []string
	AdultSizes []string

	// Profiles supplies demographic fields; nil disables them.
	Profiles ProfileGenerator

	// Now anchors signup-date back-computation. Zero means time.Now().UTC().
	Now time.Time

	// OnProgress, when set, is called after each synthesized customer.
	OnProgress func(done, total int)
}

// Generator produces synthetic customer tables. All randomness flows from
// the single seed, so a fresh generator with the same options reproduces the
// same table byte for byte.
type Generator struct {
	opts        Options
	rng         *rand.Rand
	hierarchy   models.Hierarchy
	personas    []models.Persona
	cumWeights  []float64
	personaMode bool
	now         time.Time
}

// legacySegmentRanges mirror the original four-segment scheme. Index 0 is
// segment 1 (high-value frequent) through index 3 (churned/inactive). The
// recency and return-rate ranges double as the tier buckets persona-mode
// customers draw from.
var legacySegmentRanges = [4]struct {
	purchases, aov, recency, freq, returns models.Range
}{
	{models.Range{Lo: 50, Hi: 100}, models.Range{Lo: 150, Hi: 300}, models.Range{Lo: 1, Hi: 30}, models.Range{Lo: 4, Hi: 8}, models.Range{Lo: 0.01, Hi: 0.05}},
	{models.Range{Lo: 15, Hi: 50}, models.Range{Lo: 75, Hi: 150}, models.Range{Lo: 15, Hi: 60}, models.Range{Lo: 1.5, Hi: 4}, models.Range{Lo: 0.05, Hi: 0.15}},
	{models.Range{Lo: 3, Hi: 15}, models.Range{Lo: 30, Hi: 75}, models.Range{Lo: 30, Hi: 120}, models.Range{Lo: 0.3, Hi: 1.5}, models.Range{Lo: 0.10, Hi: 0.25}},
	{models.Range{Lo: 1, Hi: 5}, models.Range{Lo: 20, Hi: 60}, models.Range{Lo: 120, Hi: 365}, models.Range{Lo: 0.05, Hi: 0.3}, models.Range{Lo: 0.20, Hi: 0.40}},
}

// legacySegmentProbs is the fixed categorical over segments 1..4 used when
// no personas are configured.
var legacySegmentProbs = [4]float64{0.20, 0.35, 0.30, 0.15}

// LegacyHierarchy is the built-in taxonomy used in fallback mode.
func LegacyHierarchy() models.Hierarchy {
	return models.Hierarchy{
		Departments: []string{"Accessories & Footwear", "Health & Wellness", "Home & Lifestyle"},
		Classes: map[string][]string{
			"Accessories & Footwear": {"Bags & Wallets", "Soft & Hard Accessories"},
			"Health & Wellness":      {"Consumables", "Personal Care"},
			"Home & Lifestyle":       {"Bedding"},
		},
	}
}

// New validates the options and builds a generator. Persona configuration
// errors fail here, never mid-generation.
func New(opts Options) (*Generator, error) {
	g := &Generator{
		opts: opts,
		rng:  rand.New(rand.NewSource(opts.Seed)),
		now:  opts.Now,
	}
	if g.now.IsZero() {
		g.now = time.Now().UTC()
	}
	if len(opts.ChildAges) == 0 {
		g.opts.ChildAges = []string{"Baby", "Child"}
	}
	if len(opts.AdultSizes) == 0 {
		g.opts.AdultSizes = []string{"XS", "S", "M", "L", "XL"}
	}

	g.personaMode = len(opts.Personas) > 0
	if g.personaMode {
		if err := opts.Hierarchy.Validate(); err != nil {
			return nil, fmt.Errorf("generator: persona mode requires a valid hierarchy: %w", err)
		}
		g.hierarchy = opts.Hierarchy
		g.personas = opts.Personas
		total := 0.0
		for _, p := range g.personas {
			if p.Weight <= 0 {
				return nil, fmt.Errorf("generator: persona %q has non-positive weight", p.Name)
			}
			if !p.Spending.AvgOrderValue.Valid() || !p.Spending.FrequencyPerMonth.Valid() {
				return nil, fmt.Errorf("generator: persona %q has an invalid spending range", p.Name)
			}
			if p.Spending.ValueTier < models.TierHigh || p.Spending.ValueTier > models.TierInactive {
				return nil, fmt.Errorf("generator: persona %q has an unknown value tier %d", p.Name, p.Spending.ValueTier)
			}
			total += p.Weight
		}
		g.cumWeights = make([]float64, len(g.personas))
		acc := 0.0
		for i, p := range g.personas {
			acc += p.Weight / total
			g.cumWeights[i] = acc
		}
	} else {
		g.hierarchy = LegacyHierarchy()
	}
	return g, nil
}

// PersonaMode reports whether the generator samples from a persona table.
func (g *Generator) PersonaMode() bool {
	return g.personaMode
}

// Hierarchy returns the taxonomy the generator draws departments from.
func (g *Generator) Hierarchy() models.Hierarchy {
	return g.hierarchy
}

// Generate synthesizes n customers as a table of the requested kind.
func (g *Generator) Generate(n int, kind dataset.Kind) (*dataset.Table, error) {
	if n <= 0 {
		return nil, fmt.Errorf("generator: n_customers must be positive, got %d", n)
	}
	customers := make([]models.Customer, 0, n)
	hasProfile := false
	for i := 1; i <= n; i++ {
		c := g.synthesize(i)
		if c.Profile != nil {
			hasProfile = true
		}
		customers = append(customers, c)
		if g.opts.OnProgress != nil {
			g.opts.OnProgress(i, n)
		}
	}
	return dataset.New(kind, customers, g.hierarchy, g.opts.ChildAges, g.opts.AdultSizes, g.personaMode, hasProfile), nil
}

// GenerateBoth synthesizes one enriched table and returns it together with
// its basic-column projection. Persisting either is the caller's concern.
func (g *Generator) GenerateBoth(n int) (enriched, basic *dataset.Table, err error) {
	enriched, err = g.Generate(n, dataset.Enriched)
	if err != nil {
		return nil, nil, err
	}
	return enriched, enriched.Basic(), nil
}

func (g *Generator) synthesize(seq int) models.Customer {
	c := models.Customer{
		CustomerID:  fmt.Sprintf("CUST_%05d", seq),
		DeptValues:  make(map[string]float64, len(g.hierarchy.Departments)),
		DeptUnits:   make(map[string]int, len(g.hierarchy.Departments)),
		ClassValues: make(map[string]float64),
		ClassUnits:  make(map[string]int),
	}
	c.AgeGroupCounts = make(map[string]int, len(g.opts.ChildAges))
	c.SizeCounts = make(map[string]int, len(g.opts.AdultSizes))

	var persona *models.Persona
	var lifetime float64
	if g.personaMode {
		persona = g.drawPersona()
		c.PersonaType = persona.Name
		tier := persona.Spending.ValueTier
		c.TrueSegment = int(tier)

		aov := round2(g.uniform(persona.Spending.AvgOrderValue))
		freq := g.uniform(persona.Spending.FrequencyPerMonth)
		lifetime = g.uniformRange(3, 36)
		purchases := int(math.Round(freq * lifetime))
		if purchases < 1 {
			purchases = 1
		}
		ranges := legacySegmentRanges[tier-1]
		c.AvgOrderValue = aov
		c.FrequencyPerMonth = round2(freq)
		c.TotalPurchases = purchases
		c.RecencyDays = int(math.Round(g.uniform(ranges.recency)))
		c.ReturnRate = round3(g.uniform(ranges.returns))
	} else {
		segment := g.drawLegacySegment()
		c.TrueSegment = segment
		ranges := legacySegmentRanges[segment-1]

		purchases := int(math.Round(g.uniform(ranges.purchases)))
		if purchases < 1 {
			purchases = 1
		}
		lifetime = g.uniformRange(3, 36)
		c.AvgOrderValue = round2(g.uniform(ranges.aov))
		c.FrequencyPerMonth = round2(g.uniform(ranges.freq))
		c.TotalPurchases = purchases
		c.RecencyDays = int(math.Round(g.uniform(ranges.recency)))
		c.ReturnRate = round3(g.uniform(ranges.returns))
	}

	c.LifetimeMonths = round1(lifetime)
	c.TotalRevenue = round2(float64(c.TotalPurchases) * c.AvgOrderValue)
	signupDays := int(math.Round(lifetime * 30))
	if signupDays < 0 {
		signupDays = 0
	}
	c.SignupDate = g.now.AddDate(0, 0, -signupDays).Truncate(24 * time.Hour)

	g.simulatePurchases(&c, persona)

	if g.opts.Profiles != nil {
		c.Profile = g.opts.Profiles.Generate()
	}
	return c
}

// simulatePurchases runs one draw per purchase: a department (persona
// weighted when configured), a class within it (80% from the persona's
// preferred list when available), an independent purchase value in
// [10, avg_order_value], and an independent age/size bucket. Department
// units therefore sum exactly to total_purchases, while department values
// relate to total_revenue only statistically.
func (g *Generator) simulatePurchases(c *models.Customer, persona *models.Persona) {
	for i := 0; i < c.TotalPurchases; i++ {
		dept := g.drawDepartment(persona)
		cls := g.drawClass(dept, persona)

		lo, hi := 10.0, c.AvgOrderValue
		if hi < lo {
			lo, hi = hi, lo
		}
		value := lo + g.rng.Float64()*(hi-lo)

		c.DeptValues[dept] += value
		c.DeptUnits[dept]++
		c.ClassValues[cls] += value
		c.ClassUnits[cls]++

		if g.rng.Float64() < 0.2 {
			age := g.opts.ChildAges[g.rng.Intn(len(g.opts.ChildAges))]
			c.AgeGroupCounts[age]++
		} else {
			size := g.opts.AdultSizes[g.rng.Intn(len(g.opts.AdultSizes))]
			c.SizeCounts[size]++
		}
	}
}

func (g *Generator) drawPersona() *models.Persona {
	r := g.rng.Float64()
	for i := range g.cumWeights {
		if r <= g.cumWeights[i] {
			return &g.personas[i]
		}
	}
	return &g.personas[len(g.personas)-1]
}

func (g *Generator) drawLegacySegment() int {
	r := g.rng.Float64()
	acc := 0.0
	for i, p := range legacySegmentProbs {
		acc += p
		if r <= acc {
			return i + 1
		}
	}
	return len(legacySegmentProbs)
}

func (g *Generator) drawDepartment(persona *models.Persona) string {
	depts := g.hierarchy.Departments
	if persona != nil && len(persona.DeptPreferences) > 0 {
		total := 0.0
		for _, dept := range depts {
			total += persona.DeptPreferences[dept]
		}
		if total > 0 {
			r := g.rng.Float64() * total
			acc := 0.0
			for _, dept := range depts {
				acc += persona.DeptPreferences[dept]
				if r <= acc {
					return dept
				}
			}
			return depts[len(depts)-1]
		}
	}
	return depts[g.rng.Intn(len(depts))]
}

func (g *Generator) drawClass(dept string, persona *models.Persona) string {
	classes := g.hierarchy.Classes[dept]
	if persona != nil {
		if prefs := g.preferredClasses(dept, persona); len(prefs) > 0 && g.rng.Float64() < 0.8 {
			return prefs[g.rng.Intn(len(prefs))]
		}
	}
	return classes[g.rng.Intn(len(classes))]
}

// preferredClasses filters a persona's preference list for a department down
// to classes that actually exist in that department.
func (g *Generator) preferredClasses(dept string, persona *models.Persona) []string {
	prefs := persona.ClassPreferences[dept]
	if len(prefs) == 0 {
		return nil
	}
	valid := make(map[string]bool, len(g.hierarchy.Classes[dept]))
	for _, cls := range g.hierarchy.Classes[dept] {
		valid[cls] = true
	}
	var out []string
	for _, cls := range prefs {
		if valid[cls] {
			out = append(out, cls)
		}
	}
	return out
}

func (g *Generator) uniform(r models.Range) float64 {
	return r.Lo + g.rng.Float64()*(r.Hi-r.Lo)
}

func (g *Generator) uniformRange(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }
func round2(x float64) float64 { return math.Round(x*100) / 100 }
func round3(x float64) float64 { return math.Round(x*1000) / 1000 }
