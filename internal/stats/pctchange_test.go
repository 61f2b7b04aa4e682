package stats

import (
	"math"
	"testing"

	"github.com/landreg-pipeline/internal/config"
)

func yearRow(geo string, year int, avg float64) Row {
	return Row{
		Key:             Key{Geo: geo, IsLondon: "Outside London", PropertyType: "D", Year: year},
		Granularity:     ByDistrict,
		NumTransactions: 50,
		AvgPrice:        avg,
		MedianPrice:     avg,
	}
}

func findYear(t *testing.T, rows []ChangeRow, geo string, year int) ChangeRow {
	t.Helper()
	for _, r := range rows {
		if r.Geo == geo && r.Year == year {
			return r
		}
	}
	t.Fatalf("no row for %s/%d", geo, year)
	return ChangeRow{}
}

func TestPctChangeFirstYearUndefined(t *testing.T) {
	out := PctChange([]Row{
		yearRow("GU34", 2022, 300000),
		yearRow("GU34", 2023, 330000),
	})

	first := findYear(t, out, "GU34", 2022)
	if first.PctChange != nil || first.PrevYearAvgPrice != nil {
		t.Errorf("first year change = %v prev = %v, want nil", first.PctChange, first.PrevYearAvgPrice)
	}

	second := findYear(t, out, "GU34", 2023)
	if second.PctChange == nil {
		t.Fatal("second year change is nil")
	}
	if math.Abs(*second.PctChange-10) > 1e-9 {
		t.Errorf("pct change = %v, want 10", *second.PctChange)
	}
	if second.PrevYearAvgPrice == nil || *second.PrevYearAvgPrice != 300000 {
		t.Errorf("prev avg = %v, want 300000", second.PrevYearAvgPrice)
	}
}

func TestPctChangeSkipsGapYears(t *testing.T) {
	// 2021 is missing: 2022 compares against 2020, not nil, not gap-adjusted.
	out := PctChange([]Row{
		yearRow("GU34", 2020, 200000),
		yearRow("GU34", 2022, 250000),
	})

	r := findYear(t, out, "GU34", 2022)
	if r.PctChange == nil {
		t.Fatal("gap year change is nil")
	}
	if math.Abs(*r.PctChange-25) > 1e-9 {
		t.Errorf("pct change across gap = %v, want 25", *r.PctChange)
	}
	if *r.PrevYearAvgPrice != 200000 {
		t.Errorf("prev avg = %v, want 200000", *r.PrevYearAvgPrice)
	}
}

func TestPctChangeSeparatesSeries(t *testing.T) {
	out := PctChange([]Row{
		yearRow("GU34", 2022, 100000),
		yearRow("GU34", 2023, 110000),
		yearRow("SO24", 2022, 200000),
		yearRow("SO24", 2023, 150000),
	})

	gu := findYear(t, out, "GU34", 2023)
	so := findYear(t, out, "SO24", 2023)
	if math.Abs(*gu.PctChange-10) > 1e-9 {
		t.Errorf("GU34 change = %v, want 10", *gu.PctChange)
	}
	if math.Abs(*so.PctChange-(-25)) > 1e-9 {
		t.Errorf("SO24 change = %v, want -25", *so.PctChange)
	}
}

func TestPctChangeOrderInvariance(t *testing.T) {
	rows := []Row{
		yearRow("GU34", 2021, 150000),
		yearRow("GU34", 2019, 120000),
		yearRow("GU34", 2020, 140000),
	}
	reversed := []Row{rows[2], rows[0], rows[1]}

	a := PctChange(rows)
	b := PctChange(reversed)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Key != b[i].Key {
			t.Errorf("row %d keys differ: %v vs %v", i, a[i].Key, b[i].Key)
		}
		av, bv := a[i].PctChange, b[i].PctChange
		if (av == nil) != (bv == nil) || (av != nil && *av != *bv) {
			t.Errorf("row %d changes differ", i)
		}
	}
}

func TestFiveYearPctChange(t *testing.T) {
	out := PctChange([]Row{
		yearRow("GU34", 2018, 200000),
		yearRow("GU34", 2022, 240000),
		yearRow("GU34", 2023, 300000),
	})

	r := findYear(t, out, "GU34", 2023)
	if r.FiveYearPctChange == nil {
		t.Fatal("five year change is nil")
	}
	if math.Abs(*r.FiveYearPctChange-50) > 1e-9 {
		t.Errorf("five year change = %v, want 50", *r.FiveYearPctChange)
	}

	// 2022 has no 2017 counterpart.
	if r22 := findYear(t, out, "GU34", 2022); r22.FiveYearPctChange != nil {
		t.Errorf("2022 five year change = %v, want nil", *r22.FiveYearPctChange)
	}
}

func TestAnnotateQuality(t *testing.T) {
	rows := PctChange([]Row{yearRow("GU34", 2023, 300000)})
	rows[0].NumTransactions = 10

	out := AnnotateQuality(rows, config.DefaultSampleQualityParams())
	if out[0].Quality.SufficientSample || out[0].Quality.Reliable {
		t.Errorf("quality = %+v, want insufficient and unreliable", out[0].Quality)
	}
}
