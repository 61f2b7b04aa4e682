package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/landreg-pipeline/internal/dataset"
)

func testServer() *Server {
	features := []*geojson.Feature{
		{
			Geometry: geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
				{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}},
			}),
			Properties: map[string]interface{}{
				"postcode_district": "SW1A",
				"num_transactions":  45.0,
				"avg_price":         910000.0,
			},
		},
		{
			Geometry: geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
				{{1, 0}, {2, 0}, {2, 1}, {1, 1}, {1, 0}},
			}),
			Properties: map[string]interface{}{
				"postcode_district": "GU34",
				"num_transactions":  120.0,
				"avg_price":         385000.0,
			},
		},
	}
	s := &Server{
		districts: &dataset.FeatureFile{Type: "FeatureCollection", Features: features},
	}
	s.indexDistricts()
	s.router = newRouter(s)
	return s
}

func TestListDistricts(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/districts", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("got %d districts, want 2", len(out))
	}
}

func TestGetDistrict(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/districts/GU34", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var props map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &props); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if props["avg_price"].(float64) != 385000 {
		t.Errorf("avg_price = %v, want 385000", props["avg_price"])
	}
}

func TestGetDistrictNotFound(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/districts/ZZ99", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetStats(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/stats", nil))

	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if out["districts"].(float64) != 2 {
		t.Errorf("districts = %v, want 2", out["districts"])
	}
	if out["transactions"].(float64) != 165 {
		t.Errorf("transactions = %v, want 165", out["transactions"])
	}
}
