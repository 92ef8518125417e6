package models

import "time"

// Customer is one synthesized retail customer: an RFM summary, the ground
// truth segment it was generated from, and the per-department/class spend
// breakdown accumulated over its simulated purchase events.
type Customer struct {
	CustomerID string `json:"customer_id"`

	// RFM core features.
	TotalPurchases    int     `json:"total_purchases"`
	TotalRevenue      float64 `json:"total_revenue"`
	AvgOrderValue     float64 `json:"avg_order_value"`
	RecencyDays       int     `json:"recency_days"`
	FrequencyPerMonth float64 `json:"frequency_per_month"`
	LifetimeMonths    float64 `json:"customer_lifetime_months"`
	ReturnRate        float64 `json:"return_rate"`

	// Ground truth used for validation, never fed to the engines.
	TrueSegment int    `json:"true_segment"`
	PersonaType string `json:"persona_type,omitempty"`

	SignupDate time.Time `json:"signup_date"`

	// Optional demographic profile, nil when profile generation is disabled.
	Profile *Profile `json:"profile,omitempty"`

	// Spend breakdown. Department units always sum to TotalPurchases;
	// department values relate to TotalRevenue only statistically, since
	// each purchase value is drawn independently.
	DeptValues  map[string]float64 `json:"dept_values"`
	DeptUnits   map[string]int     `json:"dept_units"`
	ClassValues map[string]float64 `json:"class_values,omitempty"`
	ClassUnits  map[string]int     `json:"class_units,omitempty"`

	// Purchase counts per child age group and adult size bucket.
	AgeGroupCounts map[string]int `json:"age_group_counts,omitempty"`
	SizeCounts     map[string]int `json:"size_counts,omitempty"`
}

// Profile holds the optional demographic fields attached to a customer when
// profile generation is enabled.
type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
	Country   string `json:"country"`
}
