package generator

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"customer-segmentation/internal/dataset"
	"customer-segmentation/internal/models"
)

func testPersonas() []models.Persona {
	return []models.Persona{
		{
			Name:   "bargain_hunter",
			Weight: 0.5,
			Spending: models.SpendingProfile{
				AvgOrderValue:     models.Range{Lo: 25, Hi: 60},
				FrequencyPerMonth: models.Range{Lo: 0.5, Hi: 1.5},
				ValueTier:         models.TierLow,
			},
			DeptPreferences: map[string]float64{"Home & Lifestyle": 1.0},
		},
		{
			Name:   "premium_shopper",
			Weight: 0.5,
			Spending: models.SpendingProfile{
				AvgOrderValue:     models.Range{Lo: 150, Hi: 280},
				FrequencyPerMonth: models.Range{Lo: 4, Hi: 7},
				ValueTier:         models.TierHigh,
			},
			DeptPreferences:  map[string]float64{"Accessories & Footwear": 0.7, "Health & Wellness": 0.3},
			ClassPreferences: map[string][]string{"Accessories & Footwear": {"Bags & Wallets"}},
		},
	}
}

func TestGenerate_RowCountAndIDs(t *testing.T) {
	g, err := New(Options{Seed: 42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	table, err := g.Generate(25, dataset.Enriched)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Len() != 25 {
		t.Fatalf("got %d rows, want 25", table.Len())
	}
	if got := table.Customers[0].CustomerID; got != "CUST_00001" {
		t.Fatalf("first id = %q, want CUST_00001", got)
	}
	if got := table.Customers[24].CustomerID; got != "CUST_00025" {
		t.Fatalf("last id = %q, want CUST_00025", got)
	}
}

func TestGenerate_RejectsNonPositiveCount(t *testing.T) {
	g, _ := New(Options{Seed: 1})
	if _, err := g.Generate(0, dataset.Basic); err == nil {
		t.Fatal("expected error for n=0, got nil")
	}
}

func TestGenerate_RevenueIdentity(t *testing.T) {
	g, _ := New(Options{Seed: 7})
	table, _ := g.Generate(200, dataset.Enriched)
	for _, c := range table.Customers {
		want := math.Round(float64(c.TotalPurchases)*c.AvgOrderValue*100) / 100
		if c.TotalRevenue != want {
			t.Fatalf("%s: total_revenue = %v, want %v", c.CustomerID, c.TotalRevenue, want)
		}
	}
}

func TestGenerate_DeptUnitsSumToPurchases(t *testing.T) {
	g, _ := New(Options{Seed: 3})
	table, _ := g.Generate(100, dataset.Enriched)
	for _, c := range table.Customers {
		units := 0
		for _, u := range c.DeptUnits {
			units += u
		}
		if units != c.TotalPurchases {
			t.Fatalf("%s: dept units sum %d, want %d", c.CustomerID, units, c.TotalPurchases)
		}
		classUnits := 0
		for _, u := range c.ClassUnits {
			classUnits += u
		}
		if classUnits != c.TotalPurchases {
			t.Fatalf("%s: class units sum %d, want %d", c.CustomerID, classUnits, c.TotalPurchases)
		}
		buckets := 0
		for _, n := range c.AgeGroupCounts {
			buckets += n
		}
		for _, n := range c.SizeCounts {
			buckets += n
		}
		if buckets != c.TotalPurchases {
			t.Fatalf("%s: age+size counts sum %d, want %d", c.CustomerID, buckets, c.TotalPurchases)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	render := func() []byte {
		g, err := New(Options{Seed: 42, Personas: testPersonas(), Hierarchy: LegacyHierarchy(), Now: now})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		table, err := g.Generate(50, dataset.Enriched)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var buf bytes.Buffer
		if err := table.WriteCSV(&buf); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return buf.Bytes()
	}
	first := render()
	second := render()
	if !bytes.Equal(first, second) {
		t.Fatal("same seed produced different CSV output")
	}
}

func TestGenerate_BasicProjectionColumns(t *testing.T) {
	g, _ := New(Options{Seed: 9, Personas: testPersonas(), Hierarchy: LegacyHierarchy()})
	enriched, basic, err := g.GenerateBoth(20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enriched.Len() != basic.Len() {
		t.Fatalf("projection changed row count: %d vs %d", enriched.Len(), basic.Len())
	}
	for _, col := range basic.Columns() {
		if col == "persona_type" {
			t.Fatal("basic projection carries persona_type")
		}
		if strings.HasPrefix(col, dataset.ClassValuePrefix) ||
			strings.HasPrefix(col, dataset.ClassUnitPrefix) ||
			strings.HasPrefix(col, dataset.SizeCountPrefix) {
			t.Fatalf("basic projection carries enriched column %q", col)
		}
	}
	hasDept := false
	for _, col := range basic.Columns() {
		if strings.HasPrefix(col, dataset.DeptValuePrefix) {
			hasDept = true
		}
	}
	if !hasDept {
		t.Fatal("basic projection is missing department totals")
	}
}

func TestGenerate_LegacySegmentDistribution(t *testing.T) {
	g, _ := New(Options{Seed: 42})
	table, _ := g.Generate(2000, dataset.Basic)

	counts := map[int]int{}
	for _, c := range table.Customers {
		counts[c.TrueSegment]++
	}
	want := map[int]float64{1: 0.20, 2: 0.35, 3: 0.30, 4: 0.15}
	for seg, p := range want {
		got := float64(counts[seg]) / float64(table.Len())
		if math.Abs(got-p) > 0.05 {
			t.Fatalf("segment %d frequency %.3f, want %.2f +/- 0.05", seg, got, p)
		}
	}
}

func TestGenerate_LegacyRanges(t *testing.T) {
	g, _ := New(Options{Seed: 11})
	table, _ := g.Generate(300, dataset.Basic)
	for _, c := range table.Customers {
		r := legacySegmentRanges[c.TrueSegment-1]
		if c.AvgOrderValue < r.aov.Lo || c.AvgOrderValue > r.aov.Hi {
			t.Fatalf("%s: aov %v outside [%v, %v]", c.CustomerID, c.AvgOrderValue, r.aov.Lo, r.aov.Hi)
		}
		if float64(c.RecencyDays) < r.recency.Lo-0.5 || float64(c.RecencyDays) > r.recency.Hi+0.5 {
			t.Fatalf("%s: recency %d outside segment range", c.CustomerID, c.RecencyDays)
		}
		if c.LifetimeMonths < 3 || c.LifetimeMonths > 36 {
			t.Fatalf("%s: lifetime %v outside [3, 36]", c.CustomerID, c.LifetimeMonths)
		}
		if c.TotalPurchases < 1 {
			t.Fatalf("%s: zero purchases", c.CustomerID)
		}
	}
}

func TestGenerate_PersonaMode(t *testing.T) {
	g, err := New(Options{Seed: 42, Personas: testPersonas(), Hierarchy: LegacyHierarchy()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !g.PersonaMode() {
		t.Fatal("expected persona mode")
	}
	table, _ := g.Generate(1500, dataset.Enriched)

	counts := map[string]int{}
	for _, c := range table.Customers {
		counts[c.PersonaType]++
		switch c.PersonaType {
		case "bargain_hunter":
			if c.TrueSegment != int(models.TierLow) {
				t.Fatalf("%s: true_segment %d, want %d", c.CustomerID, c.TrueSegment, models.TierLow)
			}
			if c.AvgOrderValue < 25 || c.AvgOrderValue > 60 {
				t.Fatalf("%s: aov %v outside persona range", c.CustomerID, c.AvgOrderValue)
			}
		case "premium_shopper":
			if c.TrueSegment != int(models.TierHigh) {
				t.Fatalf("%s: true_segment %d, want %d", c.CustomerID, c.TrueSegment, models.TierHigh)
			}
		default:
			t.Fatalf("unexpected persona %q", c.PersonaType)
		}
	}
	for name, n := range counts {
		got := float64(n) / float64(table.Len())
		if math.Abs(got-0.5) > 0.06 {
			t.Fatalf("persona %s frequency %.3f, want 0.50 +/- 0.06", name, got)
		}
	}
}

func TestGenerate_SignupDateFromLifetime(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	g, _ := New(Options{Seed: 5, Now: now})
	table, _ := g.Generate(50, dataset.Basic)
	for _, c := range table.Customers {
		if c.SignupDate.After(now) {
			t.Fatalf("%s: signup date %v after now", c.CustomerID, c.SignupDate)
		}
		days := now.Sub(c.SignupDate).Hours() / 24
		// lifetime is stored rounded to one decimal; allow the rounding slack
		if math.Abs(days-c.LifetimeMonths*30) > 3 {
			t.Fatalf("%s: signup %v days ago, lifetime %v months", c.CustomerID, days, c.LifetimeMonths)
		}
	}
}

func TestNew_RejectsInvalidPersonas(t *testing.T) {
	bad := testPersonas()
	bad[0].Weight = 0
	if _, err := New(Options{Seed: 1, Personas: bad, Hierarchy: LegacyHierarchy()}); err == nil {
		t.Fatal("expected error for zero-weight persona, got nil")
	}

	noRange := testPersonas()
	noRange[1].Spending.AvgOrderValue = models.Range{Lo: 100, Hi: 50}
	if _, err := New(Options{Seed: 1, Personas: noRange, Hierarchy: LegacyHierarchy()}); err == nil {
		t.Fatal("expected error for inverted spending range, got nil")
	}

	// An unset tier would index outside the segment ranges during synthesis,
	// so construction must reject it.
	noTier := testPersonas()
	noTier[0].Spending.ValueTier = 0
	if _, err := New(Options{Seed: 1, Personas: noTier, Hierarchy: LegacyHierarchy()}); err == nil {
		t.Fatal("expected error for unset value tier, got nil")
	}

	highTier := testPersonas()
	highTier[0].Spending.ValueTier = models.TierInactive + 1
	if _, err := New(Options{Seed: 1, Personas: highTier, Hierarchy: LegacyHierarchy()}); err == nil {
		t.Fatal("expected error for out-of-range value tier, got nil")
	}
}

func TestGenerate_ProfilesAttached(t *testing.T) {
	g, _ := New(Options{Seed: 8, Profiles: NewFakeProfiles(8)})
	table, _ := g.Generate(10, dataset.Enriched)
	if !table.HasProfile {
		t.Fatal("expected profile columns on enriched table")
	}
	for _, c := range table.Customers {
		if c.Profile == nil {
			t.Fatalf("%s: missing profile", c.CustomerID)
		}
		if c.Profile.Email == "" || c.Profile.FirstName == "" {
			t.Fatalf("%s: incomplete profile", c.CustomerID)
		}
	}
}
