package stats

import (
	"sort"

	"github.com/landreg-pipeline/internal/config"
)

// ChangeRow extends an aggregate row with its period-over-period comparison
// and, once annotated, the sample quality flags.
type ChangeRow struct {
	Row
	Quality           QualityFlags
	PrevYearAvgPrice  *float64
	PctChange         *float64
	FiveYearPctChange *float64
}

type seriesKey struct {
	Geo          string
	IsLondon     string
	PropertyType string
}

// PctChange computes the year-over-year percentage change of average price
// within each non-year group. Rows are ordered by year inside each group and
// compared against the previous present year: a missing year is skipped, not
// treated as zero. The first year of a series has no change value. The
// five-year change requires an exact year-5 counterpart and is nil otherwise.
// The result carries the same key ordering as GroupBy, independent of the
// caller's row order.
func PctChange(rows []Row) []ChangeRow {
	series := map[seriesKey][]Row{}
	for _, r := range rows {
		k := seriesKey{Geo: r.Geo, IsLondon: r.IsLondon, PropertyType: r.PropertyType}
		series[k] = append(series[k], r)
	}

	out := make([]ChangeRow, 0, len(rows))
	for _, group := range series {
		sort.Slice(group, func(i, j int) bool { return group[i].Year < group[j].Year })

		byYear := map[int]float64{}
		for _, r := range group {
			byYear[r.Year] = r.AvgPrice
		}

		for i, r := range group {
			cr := ChangeRow{Row: r}
			if i > 0 {
				prev := group[i-1].AvgPrice
				cr.PrevYearAvgPrice = &prev
				if prev != 0 {
					change := (r.AvgPrice - prev) / prev * 100
					cr.PctChange = &change
				}
			}
			if base, ok := byYear[r.Year-5]; ok && base != 0 {
				change := (r.AvgPrice - base) / base * 100
				cr.FiveYearPctChange = &change
			}
			out = append(out, cr)
		}
	}

	sort.Slice(out, func(i, j int) bool { return keyLess(out[i].Key, out[j].Key) })
	return out
}

// AnnotateQuality fills in the sample quality flags for every change row.
func AnnotateQuality(rows []ChangeRow, p config.SampleQualityParams) []ChangeRow {
	for i := range rows {
		rows[i].Quality = EvaluateQuality(rows[i].Row, p)
	}
	return rows
}
