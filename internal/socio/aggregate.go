package socio

import (
	"sort"

	"github.com/twpayne/go-geom"

	"github.com/landreg-pipeline/internal/geo"
)

// DistrictAggregate rolls many deprivation areas up into one row per postal
// district. Created once per run from the containment join, never updated
// incrementally. District geometry is carried through from the district
// record, not aggregated.
type DistrictAggregate struct {
	District           string
	AreaKm2            float64
	CountLowLevelAreas int
	ScoreAvgs          map[string]float64
	Population         float64
	DependentChildren  float64
	PopulationDensity  float64
	Geometry           geom.T
}

type accumulator struct {
	district  *geo.District
	count     int
	scoreSums map[string]float64
	pop       float64
	children  float64
}

// Aggregate groups the inner containment join by district and computes the
// simple mean of each domain score, population sums and the contained-area
// count. Domain scores deliberately use a simple mean rather than a
// population-weighted one; see DESIGN.md.
func Aggregate(areas []DeprivationArea, inner []geo.Assignment) []DistrictAggregate {
	accs := map[string]*accumulator{}

	for _, a := range inner {
		if a.District == nil {
			continue
		}
		area := areas[a.AreaIndex]

		acc := accs[a.District.Code]
		if acc == nil {
			acc = &accumulator{district: a.District, scoreSums: map[string]float64{}}
			accs[a.District.Code] = acc
		}
		acc.count++
		acc.pop += area.Population
		acc.children += area.DependentChildren
		for _, col := range ScoreColumns {
			acc.scoreSums[col] += area.Scores[col]
		}
	}

	out := make([]DistrictAggregate, 0, len(accs))
	for code, acc := range accs {
		agg := DistrictAggregate{
			District:           code,
			AreaKm2:            acc.district.AreaKm2,
			CountLowLevelAreas: acc.count,
			ScoreAvgs:          map[string]float64{},
			Population:         acc.pop,
			DependentChildren:  acc.children,
			Geometry:           acc.district.Geometry,
		}
		for _, col := range ScoreColumns {
			agg.ScoreAvgs[col] = acc.scoreSums[col] / float64(acc.count)
		}
		if acc.district.AreaKm2 > 0 {
			agg.PopulationDensity = acc.pop / acc.district.AreaKm2
		}
		out = append(out, agg)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].District < out[j].District })
	return out
}
