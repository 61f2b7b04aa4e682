package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/twpayne/go-geom/encoding/geojson"
)

// CRS codes accepted by the pipeline.
const (
	CRSOSGB36 = "EPSG:27700"
	CRSWGS84  = "EPSG:4326"
)

// CRSMember is the legacy GeoJSON crs object, used to tag files that carry a
// projected coordinate reference system.
type CRSMember struct {
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties"`
}

// FeatureFile is a GeoJSON FeatureCollection plus its optional crs envelope.
type FeatureFile struct {
	Type     string             `json:"type"`
	CRS      *CRSMember         `json:"crs,omitempty"`
	Features []*geojson.Feature `json:"features"`
}

// ReadFeatureFile reads and decodes a GeoJSON file.
func ReadFeatureFile(path string) (*FeatureFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	var ff FeatureFile
	if err := json.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("failed to decode GeoJSON %s: %w", path, err)
	}
	if ff.Type != "FeatureCollection" {
		return nil, fmt.Errorf("%s: expected a FeatureCollection, got %q", path, ff.Type)
	}
	return &ff, nil
}

// CRSCode normalizes the file's crs member to an "EPSG:nnnn" code. A missing
// crs member means WGS84, per the GeoJSON default.
func (f *FeatureFile) CRSCode() string {
	if f.CRS == nil {
		return CRSWGS84
	}
	name := f.CRS.Properties["name"]
	switch {
	case strings.HasPrefix(name, "urn:ogc:def:crs:EPSG::"):
		return "EPSG:" + strings.TrimPrefix(name, "urn:ogc:def:crs:EPSG::")
	case strings.HasPrefix(name, "EPSG:"):
		return name
	case name == "urn:ogc:def:crs:OGC:1.3:CRS84":
		return CRSWGS84
	}
	return name
}

// WriteFeatureFile writes features to path, overwriting any previous output.
// Files in anything other than WGS84 get a crs member so the CRS survives a
// round trip.
func WriteFeatureFile(path string, features []*geojson.Feature, crs string) error {
	ff := FeatureFile{Type: "FeatureCollection", Features: features}
	if crs != "" && crs != CRSWGS84 {
		ff.CRS = &CRSMember{
			Type:       "name",
			Properties: map[string]string{"name": "urn:ogc:def:crs:EPSG::" + strings.TrimPrefix(crs, "EPSG:")},
		}
	}
	data, err := json.Marshal(&ff)
	if err != nil {
		return fmt.Errorf("failed to encode GeoJSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
