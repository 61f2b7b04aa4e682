package socio

import (
	"fmt"
	"sort"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// Static mapping from the deprivation shapefile's abbreviated property names
// to readable ones. Validated against the actual input schema at load time;
// an unexpected schema fails fast instead of passing through silently.
var columnRenames = map[string]string{
	"lsoa11cd":  "AreaCode",
	"lsoa11nmw": "AreaName",
	"IMDScore":  "OverallScore",
	"IMDRank0":  "OverallRank",
	"IncScore":  "IncomeScore",
	"EduScore":  "EducationScore",
	"CriScore":  "CrimeScore",
	"EnvScore":  "EnvironmentScore",
	"GBScore":   "GeographicalBarriersScore",
	"InDScore":  "IndoorLivingScore",
	"TotPop":    "Population",
	"DepChi":    "DependentChildren",
}

// ScoreColumns lists the deprivation domain scores in output order.
var ScoreColumns = []string{
	"OverallScore",
	"IncomeScore",
	"EducationScore",
	"CrimeScore",
	"EnvironmentScore",
	"GeographicalBarriersScore",
	"IndoorLivingScore",
}

// AvgName maps a domain score column to its district-level average column,
// e.g. "IncomeScore" -> "IncomeAvg".
func AvgName(scoreColumn string) string {
	return strings.TrimSuffix(scoreColumn, "Score") + "Avg"
}

// DeprivationArea is one small statistical area with its indicator scores.
// Immutable once loaded; an area with rank 1 is the most deprived.
type DeprivationArea struct {
	Code              string
	Name              string
	OverallRank       float64
	Scores            map[string]float64
	Population        float64
	DependentChildren float64
	Geometry          geom.T
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// FromFeatures validates the deprivation dataset schema against the rename
// table and builds the area records.
func FromFeatures(features []*geojson.Feature) ([]DeprivationArea, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("deprivation dataset has no features")
	}

	var missing []string
	for abbrev := range columnRenames {
		if _, ok := features[0].Properties[abbrev]; !ok {
			missing = append(missing, abbrev)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("deprivation dataset missing columns %v", missing)
	}

	areas := make([]DeprivationArea, 0, len(features))
	for i, f := range features {
		if f.Geometry == nil {
			return nil, fmt.Errorf("deprivation feature %d has no geometry", i)
		}

		area := DeprivationArea{
			Code:     toString(f.Properties["lsoa11cd"]),
			Name:     toString(f.Properties["lsoa11nmw"]),
			Scores:   map[string]float64{},
			Geometry: f.Geometry,
		}
		area.OverallRank, _ = toFloat(f.Properties["IMDRank0"])
		area.Population, _ = toFloat(f.Properties["TotPop"])
		area.DependentChildren, _ = toFloat(f.Properties["DepChi"])

		for abbrev, renamed := range columnRenames {
			if !strings.HasSuffix(renamed, "Score") {
				continue
			}
			v, ok := toFloat(f.Properties[abbrev])
			if !ok {
				return nil, fmt.Errorf("deprivation feature %d: column %s is not numeric", i, abbrev)
			}
			area.Scores[renamed] = v
		}

		areas = append(areas, area)
	}
	return areas, nil
}
