package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteCSV writes the table with its full column layout. Number formatting
// is stable, so two tables generated with the same seed and configuration
// encode to byte-identical output.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	cols := t.Columns()
	record := make([]string, len(cols))
	for i := range t.Customers {
		for j, col := range cols {
			record[j] = t.Cell(i, col)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Cell renders one cell as its stable string form. Integer-valued columns
// never carry a decimal point; unknown columns render empty.
func (t *Table) Cell(i int, col string) string {
	c := &t.Customers[i]
	switch col {
	case "customer_id":
		return c.CustomerID
	case "signup_date":
		return c.SignupDate.Format("2006-01-02")
	case "persona_type":
		return c.PersonaType
	}
	if t.HasProfile {
		if p := c.Profile; p != nil {
			switch col {
			case "first_name":
				return p.FirstName
			case "last_name":
				return p.LastName
			case "email":
				return p.Email
			case "phone":
				return p.Phone
			case "address":
				return p.Address
			case "city":
				return p.City
			case "state":
				return p.State
			case "zip_code":
				return p.ZipCode
			case "country":
				return p.Country
			}
		} else {
			for _, pc := range profileColumns {
				if col == pc {
					return ""
				}
			}
		}
	}
	v, ok := t.Value(i, col)
	if !ok {
		return ""
	}
	if isIntegerColumn(col) {
		return strconv.Itoa(int(v))
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func isIntegerColumn(col string) bool {
	switch col {
	case "total_purchases", "recency_days", "true_segment":
		return true
	}
	return strings.HasPrefix(col, DeptUnitPrefix) ||
		strings.HasPrefix(col, ClassUnitPrefix) ||
		strings.HasPrefix(col, AgeCountPrefix)
}
