// Package dataset holds the tabular view over generated customers: ordered
// column layout, numeric column access for the clustering engines, and the
// basic/enriched projections.
package dataset

import (
	"strings"

	"customer-segmentation/internal/models"
)

// Kind tags which column variant a table carries. The distinction is decided
// once, at table assembly, and never re-checked downstream.
type Kind int

const (
	// Basic carries the RFM core plus department totals only.
	Basic Kind = iota
	// Enriched adds class totals, size/age counts, persona and profile fields.
	Enriched
)

func (k Kind) String() string {
	if k == Basic {
		return "basic"
	}
	return "enriched"
}

// Column name prefixes shared by the generator, selector, and exporters.
const (
	DeptValuePrefix  = "dept_total_value_"
	DeptUnitPrefix   = "dept_total_units_"
	ClassValuePrefix = "class_total_value_"
	ClassUnitPrefix  = "class_total_units_"
	AgeCountPrefix   = "count_"
	SizeCountPrefix  = "count_size_"
)

// SanitizeName converts a department or class display name into a column
// name fragment: spaces become underscores and ampersands become "and".
func SanitizeName(name string) string {
	return strings.ReplaceAll(strings.ReplaceAll(name, " ", "_"), "&", "and")
}

// Table is an ordered, column-addressable view over generated customers.
type Table struct {
	Kind       Kind
	Customers  []models.Customer
	Hierarchy  models.Hierarchy
	ChildAges  []string
	AdultSizes []string
	HasPersona bool
	HasProfile bool

	deptBySanitized  map[string]string
	classBySanitized map[string]string
}

// New assembles a table over the given customers.
func New(kind Kind, customers []models.Customer, hierarchy models.Hierarchy, childAges, adultSizes []string, hasPersona, hasProfile bool) *Table {
	t := &Table{
		Kind:       kind,
		Customers:  customers,
		Hierarchy:  hierarchy,
		ChildAges:  childAges,
		AdultSizes: adultSizes,
		HasPersona: hasPersona && kind == Enriched,
		HasProfile: hasProfile && kind == Enriched,
	}
	t.deptBySanitized = make(map[string]string, len(hierarchy.Departments))
	for _, dept := range hierarchy.Departments {
		t.deptBySanitized[SanitizeName(dept)] = dept
	}
	t.classBySanitized = make(map[string]string)
	for _, cls := range hierarchy.AllClasses() {
		t.classBySanitized[SanitizeName(cls)] = cls
	}
	return t
}

// Basic returns the basic-column projection of an enriched table. The
// underlying customers are shared; only the column layout narrows.
func (t *Table) Basic() *Table {
	return New(Basic, t.Customers, t.Hierarchy, t.ChildAges, t.AdultSizes, false, false)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Customers)
}

var coreColumns = []string{
	"customer_id",
	"total_purchases",
	"total_revenue",
	"avg_order_value",
	"recency_days",
	"frequency_per_month",
	"customer_lifetime_months",
	"return_rate",
	"true_segment",
	"signup_date",
}

var profileColumns = []string{
	"first_name", "last_name", "email", "phone",
	"address", "city", "state", "zip_code", "country",
}

// Columns returns the ordered column layout for this table's kind.
func (t *Table) Columns() []string {
	cols := append([]string(nil), coreColumns...)
	if t.HasPersona {
		cols = append(cols, "persona_type")
	}
	if t.HasProfile {
		cols = append(cols, profileColumns...)
	}
	for _, dept := range t.Hierarchy.Departments {
		cols = append(cols, DeptValuePrefix+SanitizeName(dept))
	}
	for _, dept := range t.Hierarchy.Departments {
		cols = append(cols, DeptUnitPrefix+SanitizeName(dept))
	}
	if t.Kind == Enriched {
		classes := t.Hierarchy.AllClasses()
		for _, cls := range classes {
			cols = append(cols, ClassValuePrefix+SanitizeName(cls))
		}
		for _, cls := range classes {
			cols = append(cols, ClassUnitPrefix+SanitizeName(cls))
		}
		for _, age := range t.ChildAges {
			cols = append(cols, AgeCountPrefix+SanitizeName(age))
		}
		for _, size := range t.AdultSizes {
			cols = append(cols, SizeCountPrefix+SanitizeName(size))
		}
	}
	return cols
}

// EnrichedColumns returns the enriched numeric columns this table carries,
// in column order. Empty for basic tables.
func (t *Table) EnrichedColumns() []string {
	if t.Kind != Enriched {
		return nil
	}
	var cols []string
	for _, dept := range t.Hierarchy.Departments {
		cols = append(cols, DeptValuePrefix+SanitizeName(dept))
	}
	for _, dept := range t.Hierarchy.Departments {
		cols = append(cols, DeptUnitPrefix+SanitizeName(dept))
	}
	classes := t.Hierarchy.AllClasses()
	for _, cls := range classes {
		cols = append(cols, ClassValuePrefix+SanitizeName(cls))
	}
	for _, cls := range classes {
		cols = append(cols, ClassUnitPrefix+SanitizeName(cls))
	}
	for _, age := range t.ChildAges {
		cols = append(cols, AgeCountPrefix+SanitizeName(age))
	}
	for _, size := range t.AdultSizes {
		cols = append(cols, SizeCountPrefix+SanitizeName(size))
	}
	return cols
}

// Value returns the numeric value of the given column for row i, and
// whether the column exists as a numeric column on this table.
func (t *Table) Value(i int, col string) (float64, bool) {
	c := &t.Customers[i]
	switch col {
	case "total_purchases":
		return float64(c.TotalPurchases), true
	case "total_revenue":
		return c.TotalRevenue, true
	case "avg_order_value":
		return c.AvgOrderValue, true
	case "recency_days":
		return float64(c.RecencyDays), true
	case "frequency_per_month":
		return c.FrequencyPerMonth, true
	case "customer_lifetime_months":
		return c.LifetimeMonths, true
	case "return_rate":
		return c.ReturnRate, true
	case "true_segment":
		return float64(c.TrueSegment), true
	}
	switch {
	case strings.HasPrefix(col, DeptValuePrefix):
		dept, ok := t.deptBySanitized[strings.TrimPrefix(col, DeptValuePrefix)]
		if !ok {
			return 0, false
		}
		return c.DeptValues[dept], true
	case strings.HasPrefix(col, DeptUnitPrefix):
		dept, ok := t.deptBySanitized[strings.TrimPrefix(col, DeptUnitPrefix)]
		if !ok {
			return 0, false
		}
		return float64(c.DeptUnits[dept]), true
	}
	if t.Kind != Enriched {
		return 0, false
	}
	switch {
	case strings.HasPrefix(col, ClassValuePrefix):
		cls, ok := t.classBySanitized[strings.TrimPrefix(col, ClassValuePrefix)]
		if !ok {
			return 0, false
		}
		return c.ClassValues[cls], true
	case strings.HasPrefix(col, ClassUnitPrefix):
		cls, ok := t.classBySanitized[strings.TrimPrefix(col, ClassUnitPrefix)]
		if !ok {
			return 0, false
		}
		return float64(c.ClassUnits[cls]), true
	case strings.HasPrefix(col, SizeCountPrefix):
		for _, size := range t.AdultSizes {
			if SanitizeName(size) == strings.TrimPrefix(col, SizeCountPrefix) {
				return float64(c.SizeCounts[size]), true
			}
		}
		return 0, false
	case strings.HasPrefix(col, AgeCountPrefix):
		for _, age := range t.ChildAges {
			if SanitizeName(age) == strings.TrimPrefix(col, AgeCountPrefix) {
				return float64(c.AgeGroupCounts[age]), true
			}
		}
		return 0, false
	}
	return 0, false
}

// HasColumn reports whether col resolves to a numeric column on this table.
func (t *Table) HasColumn(col string) bool {
	if t.Len() == 0 {
		return false
	}
	_, ok := t.Value(0, col)
	return ok
}

// Matrix extracts the requested feature columns into a row-major matrix.
// Features absent from the table are silently dropped; the dropped names are
// returned so callers can surface the degradation.
func (t *Table) Matrix(features []string) (x [][]float64, used, dropped []string) {
	for _, f := range features {
		if t.HasColumn(f) {
			used = append(used, f)
		} else {
			dropped = append(dropped, f)
		}
	}
	x = make([][]float64, t.Len())
	for i := range x {
		row := make([]float64, len(used))
		for j, f := range used {
			row[j], _ = t.Value(i, f)
		}
		x[i] = row
	}
	return x, used, dropped
}
