package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/landreg-pipeline/internal/dataset"
	"github.com/landreg-pipeline/internal/geo"
	"github.com/landreg-pipeline/internal/merge"
	"github.com/landreg-pipeline/internal/socio"
)

// GeoMergeConfig configures the spatial merge stage.
type GeoMergeConfig struct {
	DistrictsGeoJSON string
	SocioGeoJSON     string
	DistrictStatsCSV string
	OutDir           string
	CurrentYear      int
}

// loadDistricts reads the postal district polygons, measures their areas in
// the projected CRS, then reprojects to WGS84 for containment testing. The
// order matters: degree coordinates are not area-accurate.
func loadDistricts(path string) ([]*geo.District, error) {
	ff, err := dataset.ReadFeatureFile(path)
	if err != nil {
		return nil, err
	}
	if crs := ff.CRSCode(); crs != dataset.CRSOSGB36 {
		return nil, fmt.Errorf("district polygons must be in %s (planar metres), got %s", dataset.CRSOSGB36, crs)
	}

	districts := make([]*geo.District, 0, len(ff.Features))
	for i, f := range ff.Features {
		code, ok := f.Properties["PostDist"].(string)
		if !ok || code == "" {
			return nil, fmt.Errorf("district feature %d has no PostDist code", i)
		}
		if f.Geometry == nil {
			return nil, fmt.Errorf("district feature %d has no geometry", i)
		}

		areaKm2 := geo.AreaKm2(f.Geometry)
		reprojected, err := geo.TransformOSGB36ToWGS84(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("district %s: %w", code, err)
		}
		districts = append(districts, &geo.District{Code: code, AreaKm2: areaKm2, Geometry: reprojected})
	}
	return districts, nil
}

func loadDeprivationAreas(path string) ([]socio.DeprivationArea, error) {
	ff, err := dataset.ReadFeatureFile(path)
	if err != nil {
		return nil, err
	}
	if crs := ff.CRSCode(); crs != dataset.CRSWGS84 {
		return nil, fmt.Errorf("deprivation polygons must be in %s, got %s", dataset.CRSWGS84, crs)
	}
	return socio.FromFeatures(ff.Features)
}

// leftJoinFeatures builds the per-area output: the deprivation record plus
// its containing district code, without the district geometry.
func leftJoinFeatures(areas []socio.DeprivationArea, left []geo.Assignment) []*geojson.Feature {
	features := make([]*geojson.Feature, 0, len(left))
	for _, a := range left {
		area := areas[a.AreaIndex]

		props := map[string]interface{}{
			"AreaCode":          area.Code,
			"AreaName":          area.Name,
			"OverallRank":       area.OverallRank,
			"Population":        area.Population,
			"DependentChildren": area.DependentChildren,
		}
		for col, v := range area.Scores {
			props[col] = v
		}
		if a.District != nil {
			props["PostDist"] = a.District.Code
		} else {
			props["PostDist"] = nil
		}

		features = append(features, &geojson.Feature{Geometry: area.Geometry, Properties: props})
	}
	return features
}

// mergedFeatures builds the final district snapshot with the fixed column
// set: transaction aggregates plus rolled-up socio-economic indicators, one
// feature per district row, district geometry attached.
func mergedFeatures(rows []merge.Row) []*geojson.Feature {
	features := make([]*geojson.Feature, 0, len(rows))
	for _, r := range rows {
		props := map[string]interface{}{
			"postcode_district":  r.PostcodeDistrict,
			"postcode_area":      r.PostcodeArea,
			"is_london":          r.IsLondon,
			"property_type":      r.PropertyType,
			"year":               r.Year,
			"num_transactions":   r.NumTransactions,
			"avg_price":          r.AvgPrice,
			"median_price":       r.MedianPrice,
			"PostDist":           r.Socio.District,
			"AreaKm2":            r.Socio.AreaKm2,
			"CountLowLevelAreas": r.Socio.CountLowLevelAreas,
			"Population":         r.Socio.Population,
			"PopulationDensity":  r.Socio.PopulationDensity,
		}
		if r.FiveYearPctInc != nil {
			props["5_year_avg_pct_inc"] = *r.FiveYearPctInc
		} else {
			props["5_year_avg_pct_inc"] = nil
		}
		for _, col := range socio.ScoreColumns {
			props[socio.AvgName(col)] = r.Socio.ScoreAvgs[col]
		}

		features = append(features, &geojson.Feature{Geometry: r.Socio.Geometry, Properties: props})
	}
	return features
}

func geomsOf(areas []socio.DeprivationArea) []geom.T {
	geoms := make([]geom.T, len(areas))
	for i := range areas {
		geoms[i] = areas[i].Geometry
	}
	return geoms
}

// RunGeoMerge resolves deprivation areas into postal districts, rolls their
// indicator scores up to district level and merges them with the district
// transaction aggregates, filtered to the current year.
func RunGeoMerge(cfg GeoMergeConfig) error {
	if err := os.MkdirAll(cfg.OutDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// CRS checks happen up front: a mismatch is a configuration error, not
	// something to reproject around mid-pipeline.
	districts, err := loadDistricts(cfg.DistrictsGeoJSON)
	if err != nil {
		return err
	}
	areas, err := loadDeprivationAreas(cfg.SocioGeoJSON)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d districts and %d deprivation areas\n", len(districts), len(areas))

	resolver := geo.NewResolver(districts)
	res := resolver.Resolve(geomsOf(areas))
	fmt.Printf("Containment join: %d matched, %d outside coverage, %d multi-match\n",
		len(res.Inner), res.Unmatched, res.MultiMatch)

	leftPath := filepath.Join(cfg.OutDir, "socio_economic_postcode.geojson")
	if err := dataset.WriteFeatureFile(leftPath, leftJoinFeatures(areas, res.Left), dataset.CRSWGS84); err != nil {
		return err
	}

	aggs := socio.Aggregate(areas, res.Inner)
	fmt.Printf("Aggregated %d districts with socio-economic data\n", len(aggs))

	statsRows, err := merge.ReadDistrictStats(cfg.DistrictStatsCSV)
	if err != nil {
		return err
	}
	merged := merge.LeftJoin(statsRows, aggs)
	final := merge.FilterCurrent(merged, cfg.CurrentYear)
	fmt.Printf("Final snapshot: %d of %d merged rows for year %d\n", len(final), len(merged), cfg.CurrentYear)

	finalPath := filepath.Join(cfg.OutDir, "district_socio_economic.geojson")
	if err := dataset.WriteFeatureFile(finalPath, mergedFeatures(final), dataset.CRSWGS84); err != nil {
		return err
	}

	fmt.Println("Geo-merge stage complete")
	return nil
}
