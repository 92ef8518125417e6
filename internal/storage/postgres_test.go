package storage

import "testing"

func TestColumnType(t *testing.T) {
	cases := map[string]string{
		"customer_id":                 "TEXT",
		"persona_type":                "TEXT",
		"email":                       "TEXT",
		"signup_date":                 "DATE",
		"total_purchases":             "INTEGER",
		"recency_days":                "INTEGER",
		"true_segment":                "INTEGER",
		"dept_total_units_Women":      "INTEGER",
		"class_total_units_Sleepwear": "INTEGER",
		"count_0-2_years":             "INTEGER",
		"count_size_M":                "INTEGER",
		"total_revenue":               "DOUBLE PRECISION",
		"return_rate":                 "DOUBLE PRECISION",
		"dept_total_value_Women":      "DOUBLE PRECISION",
		"class_total_value_Sleepwear": "DOUBLE PRECISION",
		"frequency_per_month":         "DOUBLE PRECISION",
	}
	for col, want := range cases {
		if got := columnType(col); got != want {
			t.Fatalf("columnType(%q) = %q, want %q", col, got, want)
		}
	}
}
