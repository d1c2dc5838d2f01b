package export

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/laborstats/bls-client/pkg/table"
)

// PostgresWriter persists merged rows to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migration,
// and returns a ready-to-use writer.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS labor_monthly (
			parish                     TEXT    NOT NULL,
			date                       DATE    NOT NULL,
			labor_force                NUMERIC,
			employment                 NUMERIC,
			unemployment               NUMERIC,
			unemployment_rate          NUMERIC,
			national_labor_force       NUMERIC,
			national_employment        NUMERIC,
			national_unemployment      NUMERIC,
			national_unemployment_rate NUMERIC,
			PRIMARY KEY (parish, date)
		);

		CREATE INDEX IF NOT EXISTS idx_labor_monthly_date ON labor_monthly(date);
	`)
	return err
}

const insertBatchSize = 50

// Write upserts all merged rows in batches keyed on (parish, date).
func (pw *PostgresWriter) Write(rows []table.MergedRow) error {
	if len(rows) == 0 {
		return nil
	}

	for i := 0; i < len(rows); i += insertBatchSize {
		end := i + insertBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := pw.insertBatch(rows[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []table.MergedRow) error {
	const cols = 10
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, row := range batch {
		base := idx * cols
		placeholders := make([]string, cols)
		for c := 0; c < cols; c++ {
			placeholders[c] = fmt.Sprintf("$%d", base+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		valueArgs = append(valueArgs,
			row.Entity,
			row.Date,
			nullable(row.LaborForce),
			nullable(row.Employment),
			nullable(row.Unemployment),
			nullable(row.UnemploymentRate),
			nullable(row.NationalLaborForce),
			nullable(row.NationalEmployment),
			nullable(row.NationalUnemployment),
			nullable(row.NationalUnemploymentRate),
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO labor_monthly (
			parish, date,
			labor_force, employment, unemployment, unemployment_rate,
			national_labor_force, national_employment, national_unemployment, national_unemployment_rate
		)
		VALUES %s
		ON CONFLICT (parish, date) DO UPDATE SET
			labor_force = EXCLUDED.labor_force,
			employment = EXCLUDED.employment,
			unemployment = EXCLUDED.unemployment,
			unemployment_rate = EXCLUDED.unemployment_rate,
			national_labor_force = EXCLUDED.national_labor_force,
			national_employment = EXCLUDED.national_employment,
			national_unemployment = EXCLUDED.national_unemployment,
			national_unemployment_rate = EXCLUDED.national_unemployment_rate
	`, strings.Join(valueStrings, ","))

	if _, err := pw.db.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert batch: %w", err)
	}
	return nil
}

// nullable maps a missing metric to SQL NULL.
func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// Close closes the database connection.
func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
