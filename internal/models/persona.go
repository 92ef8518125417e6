package models

import "fmt"

// ValueTier is the coarse spending tier a persona maps to. It doubles as
// the ground-truth segment (1..4) written into generated customers.
type ValueTier int

const (
	TierHigh ValueTier = iota + 1
	TierMedium
	TierLow
	TierInactive
)

// ParseValueTier maps the tier tag used in persona configuration to a tier.
func ParseValueTier(tag string) (ValueTier, error) {
	switch tag {
	case "high":
		return TierHigh, nil
	case "medium":
		return TierMedium, nil
	case "low":
		return TierLow, nil
	case "inactive", "churned":
		return TierInactive, nil
	}
	return 0, fmt.Errorf("unknown value tier %q", tag)
}

func (t ValueTier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	case TierLow:
		return "low"
	case TierInactive:
		return "inactive"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// Range is an inclusive [Lo, Hi] sampling range.
type Range struct {
	Lo float64
	Hi float64
}

// Valid reports whether the range can be sampled from.
func (r Range) Valid() bool {
	return r.Hi >= r.Lo
}

// SpendingProfile bounds a persona's order value and purchase cadence.
type SpendingProfile struct {
	AvgOrderValue     Range
	FrequencyPerMonth Range
	ValueTier         ValueTier
}

// Persona is a named customer archetype. Weights across a persona table need
// not be pre-normalized; the generator normalizes them into a sampling
// distribution at construction.
type Persona struct {
	Name             string
	Weight           float64
	Spending         SpendingProfile
	DeptPreferences  map[string]float64
	ClassPreferences map[string][]string
}

// Hierarchy is the product taxonomy: an ordered list of departments, each
// owning an ordered list of class names unique within the department.
type Hierarchy struct {
	Departments []string
	Classes     map[string][]string
}

// Validate checks structural invariants: at least one department, every
// department has classes, and no class repeats within its department.
func (h Hierarchy) Validate() error {
	if len(h.Departments) == 0 {
		return fmt.Errorf("hierarchy has no departments")
	}
	for _, dept := range h.Departments {
		classes, ok := h.Classes[dept]
		if !ok || len(classes) == 0 {
			return fmt.Errorf("department %q has no classes", dept)
		}
		seen := make(map[string]bool, len(classes))
		for _, cls := range classes {
			if seen[cls] {
				return fmt.Errorf("department %q has duplicate class %q", dept, cls)
			}
			seen[cls] = true
		}
	}
	return nil
}

// AllClasses returns every class in department order.
func (h Hierarchy) AllClasses() []string {
	var out []string
	for _, dept := range h.Departments {
		out = append(out, h.Classes[dept]...)
	}
	return out
}
