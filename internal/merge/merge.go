package merge

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/landreg-pipeline/internal/socio"
)

// DistrictStats is one row of the district-level transaction aggregate CSV
// produced by the groupby stage.
type DistrictStats struct {
	PostcodeDistrict string
	PostcodeArea     string
	IsLondon         string
	PropertyType     string
	Year             int
	NumTransactions  int64
	AvgPrice         float64
	MedianPrice      float64
	FiveYearPctInc   *float64
}

// Row is a district transaction aggregate joined to its socio-economic
// aggregate. Socio is nil when the left join found no spatial match.
type Row struct {
	DistrictStats
	Socio *socio.DistrictAggregate
}

// ReadDistrictStats reads the pre-aggregated district transaction CSV,
// locating columns by header name.
func ReadDistrictStats(path string) ([]DistrictStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"postcode_district", "is_london", "property_type", "year", "num_transactions", "avg_price", "median_price"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("district stats CSV missing column %q", required)
		}
	}

	var rows []DistrictStats
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		get := func(name string) string {
			if i, ok := cols[name]; ok && i < len(record) {
				return record[i]
			}
			return ""
		}

		year, err := strconv.Atoi(get("year"))
		if err != nil {
			return nil, fmt.Errorf("bad year %q: %w", get("year"), err)
		}
		count, err := strconv.ParseInt(get("num_transactions"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad num_transactions %q: %w", get("num_transactions"), err)
		}
		avg, err := strconv.ParseFloat(get("avg_price"), 64)
		if err != nil {
			return nil, fmt.Errorf("bad avg_price %q: %w", get("avg_price"), err)
		}
		median, err := strconv.ParseFloat(get("median_price"), 64)
		if err != nil {
			return nil, fmt.Errorf("bad median_price %q: %w", get("median_price"), err)
		}

		row := DistrictStats{
			PostcodeDistrict: get("postcode_district"),
			PostcodeArea:     get("postcode_area"),
			IsLondon:         get("is_london"),
			PropertyType:     get("property_type"),
			Year:             year,
			NumTransactions:  count,
			AvgPrice:         avg,
			MedianPrice:      median,
		}
		if s := get("5_year_avg_pct_inc"); s != "" {
			if v, err := strconv.ParseFloat(s, 64); err == nil {
				row.FiveYearPctInc = &v
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LeftJoin attaches the socio-economic district aggregate to each transaction
// aggregate row by district code. Every stats row survives; rows without a
// match keep a nil Socio.
func LeftJoin(stats []DistrictStats, aggs []socio.DistrictAggregate) []Row {
	byDistrict := make(map[string]*socio.DistrictAggregate, len(aggs))
	for i := range aggs {
		byDistrict[aggs[i].District] = &aggs[i]
	}

	rows := make([]Row, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, Row{DistrictStats: s, Socio: byDistrict[s.PostcodeDistrict]})
	}
	return rows
}

// FilterCurrent returns the current-period snapshot: rows with a resolved,
// known district and the configured year. It is a view over the merged rows,
// the input is not mutated.
func FilterCurrent(rows []Row, year int) []Row {
	var out []Row
	for _, r := range rows {
		if r.Socio == nil {
			continue
		}
		if r.Year != year {
			continue
		}
		if r.PostcodeDistrict == "Unknown" || r.Socio.District == "Unknown" {
			continue
		}
		out = append(out, r)
	}
	return out
}
