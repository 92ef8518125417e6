// Package storage persists generated customer tables to PostgreSQL so runs
// can be inspected with ordinary SQL tooling.
package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"customer-segmentation/internal/dataset"
)

// Config holds connection details.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require"
}

// Store is the sink the pipeline persists tables through.
type Store interface {
	Connect(config Config) error
	Close() error
	SaveTable(name string, t *dataset.Table) error
	ListTables() ([]string, error)
}

// PostgresStore implements Store over lib/pq.
type PostgresStore struct {
	db *sql.DB
}

func (p *PostgresStore) Connect(config Config) error {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		return err
	}

	p.db = db
	return nil
}

func (p *PostgresStore) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// SaveTable drops and recreates the target table from the dataset's column
// layout, then bulk-loads all rows with COPY.
func (p *PostgresStore) SaveTable(name string, t *dataset.Table) error {
	cols := t.Columns()

	var ddl strings.Builder
	fmt.Fprintf(&ddl, "CREATE TABLE %s (", pq.QuoteIdentifier(name))
	for i, col := range cols {
		if i > 0 {
			ddl.WriteString(", ")
		}
		fmt.Fprintf(&ddl, "%s %s", pq.QuoteIdentifier(col), columnType(col))
	}
	ddl.WriteString(")")

	tx, err := p.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", pq.QuoteIdentifier(name))); err != nil {
		return fmt.Errorf("drop table %s: %w", name, err)
	}
	if _, err := tx.Exec(ddl.String()); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}

	stmt, err := tx.Prepare(pq.CopyIn(name, cols...))
	if err != nil {
		return fmt.Errorf("prepare copy into %s: %w", name, err)
	}
	row := make([]interface{}, len(cols))
	for i := 0; i < t.Len(); i++ {
		for j, col := range cols {
			row[j] = t.Cell(i, col)
		}
		if _, err := stmt.Exec(row...); err != nil {
			stmt.Close()
			return fmt.Errorf("copy row %d into %s: %w", i, name, err)
		}
	}
	if _, err := stmt.Exec(); err != nil {
		stmt.Close()
		return fmt.Errorf("flush copy into %s: %w", name, err)
	}
	if err := stmt.Close(); err != nil {
		return err
	}
	return tx.Commit()
}

func (p *PostgresStore) ListTables() ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name;
	`
	rows, err := p.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}
	return tables, rows.Err()
}

// columnType maps a dataset column to its SQL type. String cells load
// through COPY as text, so only numeric columns get numeric types.
func columnType(col string) string {
	switch col {
	case "customer_id", "persona_type",
		"first_name", "last_name", "email", "phone",
		"address", "city", "state", "zip_code", "country":
		return "TEXT"
	case "signup_date":
		return "DATE"
	case "total_purchases", "recency_days", "true_segment":
		return "INTEGER"
	}
	if strings.HasPrefix(col, dataset.DeptUnitPrefix) ||
		strings.HasPrefix(col, dataset.ClassUnitPrefix) ||
		strings.HasPrefix(col, dataset.AgeCountPrefix) {
		return "INTEGER"
	}
	return "DOUBLE PRECISION"
}
