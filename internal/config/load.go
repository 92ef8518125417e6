package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"customer-segmentation/internal/models"
)

// Load reads a pipeline configuration document, fills defaults, and
// validates it.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a configuration document from memory.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type personaDoc struct {
	CustomerPersonas map[string]personaYAML `yaml:"customer_personas"`
}

type personaYAML struct {
	Weight          float64 `yaml:"weight"`
	SpendingProfile struct {
		AvgOrderValue     []float64 `yaml:"avg_order_value"`
		FrequencyPerMonth []float64 `yaml:"frequency_per_month"`
		ValueTier         string    `yaml:"value_tier"`
	} `yaml:"spending_profile"`
	DeptPreferences  map[string]float64  `yaml:"department_preferences"`
	ClassPreferences map[string][]string `yaml:"class_preferences"`
}

// LoadPersonas reads a persona table. Personas are returned sorted by name
// so that sampling order is deterministic regardless of document order.
func LoadPersonas(path string) ([]models.Persona, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read personas: %w", err)
	}
	return ParsePersonas(raw)
}

// ParsePersonas decodes a persona table from memory.
func ParsePersonas(raw []byte) ([]models.Persona, error) {
	var doc personaDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse personas: %w", err)
	}
	if len(doc.CustomerPersonas) == 0 {
		return nil, fmt.Errorf("persona table is empty")
	}

	names := make([]string, 0, len(doc.CustomerPersonas))
	for name := range doc.CustomerPersonas {
		names = append(names, name)
	}
	sort.Strings(names)

	personas := make([]models.Persona, 0, len(names))
	for _, name := range names {
		p := doc.CustomerPersonas[name]
		persona, err := buildPersona(name, p)
		if err != nil {
			return nil, err
		}
		personas = append(personas, persona)
	}
	return personas, nil
}

func buildPersona(name string, p personaYAML) (models.Persona, error) {
	if p.Weight <= 0 {
		return models.Persona{}, fmt.Errorf("persona %q: weight must be positive, got %v", name, p.Weight)
	}
	aov, err := rangeFromPair(p.SpendingProfile.AvgOrderValue)
	if err != nil {
		return models.Persona{}, fmt.Errorf("persona %q: avg_order_value: %w", name, err)
	}
	freq, err := rangeFromPair(p.SpendingProfile.FrequencyPerMonth)
	if err != nil {
		return models.Persona{}, fmt.Errorf("persona %q: frequency_per_month: %w", name, err)
	}
	tier, err := models.ParseValueTier(p.SpendingProfile.ValueTier)
	if err != nil {
		return models.Persona{}, fmt.Errorf("persona %q: %w", name, err)
	}
	for dept, w := range p.DeptPreferences {
		if w < 0 {
			return models.Persona{}, fmt.Errorf("persona %q: department %q has negative weight %v", name, dept, w)
		}
	}
	return models.Persona{
		Name:   name,
		Weight: p.Weight,
		Spending: models.SpendingProfile{
			AvgOrderValue:     aov,
			FrequencyPerMonth: freq,
			ValueTier:         tier,
		},
		DeptPreferences:  p.DeptPreferences,
		ClassPreferences: p.ClassPreferences,
	}, nil
}

func rangeFromPair(pair []float64) (models.Range, error) {
	if len(pair) != 2 {
		return models.Range{}, fmt.Errorf("expected [lo, hi], got %v", pair)
	}
	r := models.Range{Lo: pair[0], Hi: pair[1]}
	if !r.Valid() {
		return models.Range{}, fmt.Errorf("range [%v, %v] is inverted", r.Lo, r.Hi)
	}
	return r, nil
}

type hierarchyDoc struct {
	Departments map[string][]string `yaml:"departments"`
}

// LoadHierarchy reads the parsed product taxonomy (department -> classes).
// Departments are sorted by name for deterministic iteration.
func LoadHierarchy(path string) (models.Hierarchy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.Hierarchy{}, fmt.Errorf("read hierarchy: %w", err)
	}
	return ParseHierarchy(raw)
}

// ParseHierarchy decodes a product taxonomy from memory.
func ParseHierarchy(raw []byte) (models.Hierarchy, error) {
	var doc hierarchyDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return models.Hierarchy{}, fmt.Errorf("parse hierarchy: %w", err)
	}
	depts := make([]string, 0, len(doc.Departments))
	for dept := range doc.Departments {
		depts = append(depts, dept)
	}
	sort.Strings(depts)

	h := models.Hierarchy{Departments: depts, Classes: doc.Departments}
	if err := h.Validate(); err != nil {
		return models.Hierarchy{}, err
	}
	return h, nil
}
