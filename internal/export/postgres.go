package export

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/landreg-pipeline/internal/config"
	"github.com/landreg-pipeline/internal/merge"
)

// Exporter pushes pipeline outputs into Postgres for downstream querying.
type Exporter struct {
	db *sql.DB
}

// NewExporter connects using the standard PG* environment variables.
func NewExporter() (*Exporter, error) {
	host := config.GetEnv("PGHOST", "localhost")
	port := config.GetEnv("PGPORT", "5432")
	user := config.GetEnv("PGUSER", "user")
	password := config.GetEnv("PGPASSWORD", "password")
	dbname := config.GetEnv("PGDATABASE", "landreg")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)

	return &Exporter{db: db}, nil
}

// Close closes the database connection
func (e *Exporter) Close() error {
	return e.db.Close()
}

// ExportDistrictStats replaces the district_price_stats table with the given
// aggregate rows.
func (e *Exporter) ExportDistrictStats(rows []merge.DistrictStats) error {
	_, err := e.db.Exec(`
		CREATE TABLE IF NOT EXISTS district_price_stats (
			postcode_district  TEXT NOT NULL,
			postcode_area      TEXT,
			is_london          TEXT,
			property_type      TEXT,
			year               INT NOT NULL,
			num_transactions   BIGINT NOT NULL,
			avg_price          DOUBLE PRECISION NOT NULL,
			median_price       DOUBLE PRECISION NOT NULL,
			five_year_pct_inc  DOUBLE PRECISION
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	if _, err := e.db.Exec(`TRUNCATE district_price_stats`); err != nil {
		return fmt.Errorf("failed to truncate table: %w", err)
	}

	stmt, err := e.db.Prepare(`
		INSERT INTO district_price_stats (
			postcode_district, postcode_area, is_london, property_type, year,
			num_transactions, avg_price, median_price, five_year_pct_inc
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	exported := 0
	for _, r := range rows {
		var fiveYear interface{}
		if r.FiveYearPctInc != nil {
			fiveYear = *r.FiveYearPctInc
		}
		_, err := stmt.Exec(
			r.PostcodeDistrict, r.PostcodeArea, r.IsLondon, r.PropertyType, r.Year,
			r.NumTransactions, r.AvgPrice, r.MedianPrice, fiveYear,
		)
		if err != nil {
			return fmt.Errorf("failed to insert %s/%d: %w", r.PostcodeDistrict, r.Year, err)
		}
		exported++
		if exported%1000 == 0 {
			fmt.Printf("Exported %d rows...\n", exported)
		}
	}

	fmt.Printf("Export complete: %d rows in district_price_stats\n", exported)
	return nil
}
