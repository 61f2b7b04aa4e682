package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/landreg-pipeline/internal/config"
	"github.com/landreg-pipeline/internal/dataset"
	"github.com/landreg-pipeline/internal/stats"
)

// GroupByConfig configures the transaction aggregation stage. The config is
// passed explicitly through the run; there is no shared session state.
type GroupByConfig struct {
	TransactionsCSV string
	OutDir          string
	Partitions      int
	Quality         config.SampleQualityParams
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatOptFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

func pctChangeRecords(geoColumn string, rows []stats.ChangeRow) ([]string, [][]string) {
	header := []string{
		geoColumn, "is_london", "property_type", "year",
		"num_transactions", "avg_price", "median_price",
		"pct_25_price", "pct_75_price", "coef_var", "iqr_pct",
		"prev_year_avg_price", "pct_change", "5_year_pct_change",
		"median_mean_diff_pct", "sufficient_sample", "low_variance", "low_skew", "reliable",
	}

	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Geo, r.IsLondon, r.PropertyType, strconv.Itoa(r.Year),
			strconv.FormatInt(r.NumTransactions, 10),
			formatFloat(r.AvgPrice), formatFloat(r.MedianPrice),
			formatFloat(r.Percentiles[25]), formatFloat(r.Percentiles[75]),
			formatFloat(r.CoefVar), formatFloat(r.IQRPct),
			formatOptFloat(r.PrevYearAvgPrice), formatOptFloat(r.PctChange), formatOptFloat(r.FiveYearPctChange),
			formatFloat(r.Quality.MedianMeanDiffPct),
			strconv.FormatBool(r.Quality.SufficientSample),
			strconv.FormatBool(r.Quality.LowVariance),
			strconv.FormatBool(r.Quality.LowSkew),
			strconv.FormatBool(r.Quality.Reliable),
		})
	}
	return header, records
}

// areaOf strips the digit group from a district code: "SW1A" -> "SW".
func areaOf(district string) string {
	for i, c := range district {
		if c >= '0' && c <= '9' {
			return district[:i]
		}
	}
	return district
}

func districtGroupbyRecords(rows []stats.ChangeRow) ([]string, [][]string) {
	header := []string{
		"postcode_district", "postcode_area", "is_london", "property_type", "year",
		"num_transactions", "avg_price", "median_price", "5_year_avg_pct_inc",
	}
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Geo, areaOf(r.Geo), r.IsLondon, r.PropertyType, strconv.Itoa(r.Year),
			strconv.FormatInt(r.NumTransactions, 10),
			formatFloat(r.AvgPrice), formatFloat(r.MedianPrice),
			formatOptFloat(r.FiveYearPctChange),
		})
	}
	return header, records
}

// RunGroupBy aggregates the transactions at every granularity and writes the
// percentage-change CSVs plus the district groupby consumed by the geomerge
// stage. Outputs overwrite any previous run.
func RunGroupBy(cfg GroupByConfig) error {
	if err := os.MkdirAll(cfg.OutDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	txs, readStats, err := dataset.ReadTransactions(cfg.TransactionsCSV)
	if err != nil {
		return err
	}
	decorated, malformed := dataset.Decorate(txs, cfg.Partitions)
	fmt.Printf("Loaded %d transactions (%d missing postcode, %d malformed postcode, %d bad rows)\n",
		len(decorated), readStats.MissingPostcode, malformed, readStats.BadRows)

	outputs := map[stats.Granularity]string{
		stats.ByArea:     "area_pct_change.csv",
		stats.ByDistrict: "district_pct_change.csv",
		stats.BySector:   "sector_pct_change.csv",
	}

	for _, gran := range stats.Granularities {
		rows := stats.GroupBy(decorated, gran, nil, cfg.Partitions)
		changes := stats.AnnotateQuality(stats.PctChange(rows), cfg.Quality)
		fmt.Printf("%s: %d groups\n", gran, len(rows))

		header, records := pctChangeRecords(string(gran), changes)
		path := filepath.Join(cfg.OutDir, outputs[gran])
		if err := dataset.WriteCSV(path, header, records); err != nil {
			return err
		}

		if gran == stats.ByDistrict {
			header, records := districtGroupbyRecords(changes)
			path := filepath.Join(cfg.OutDir, "district_transaction_groupby.csv")
			if err := dataset.WriteCSV(path, header, records); err != nil {
				return err
			}
		}
	}

	fmt.Println("Group-by stage complete")
	return nil
}
