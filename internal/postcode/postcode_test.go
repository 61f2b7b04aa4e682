package postcode

import (
	"errors"
	"strings"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantArea     string
		wantDistrict string
		wantSector   string
	}{
		{
			name:         "central london with district letter",
			input:        "SW1A 1AA",
			wantArea:     "SW",
			wantDistrict: "SW1A",
			wantSector:   "SW1A 1",
		},
		{
			name:         "two letter area",
			input:        "GU34 1AA",
			wantArea:     "GU",
			wantDistrict: "GU34",
			wantSector:   "GU34 1",
		},
		{
			name:         "single letter area",
			input:        "N1 7AB",
			wantArea:     "N",
			wantDistrict: "N1",
			wantSector:   "N1 7",
		},
		{
			name:         "no space lowercase",
			input:        "gu341aa",
			wantArea:     "GU",
			wantDistrict: "GU34",
			wantSector:   "GU34 1",
		},
		{
			name:         "surrounding whitespace",
			input:        "  SO24 0HJ ",
			wantArea:     "SO",
			wantDistrict: "SO24",
			wantSector:   "SO24 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Split(tt.input)
			if err != nil {
				t.Fatalf("Split(%q) error = %v", tt.input, err)
			}
			if got.Area != tt.wantArea {
				t.Errorf("Split(%q) area = %v, want %v", tt.input, got.Area, tt.wantArea)
			}
			if got.District != tt.wantDistrict {
				t.Errorf("Split(%q) district = %v, want %v", tt.input, got.District, tt.wantDistrict)
			}
			if got.Sector != tt.wantSector {
				t.Errorf("Split(%q) sector = %v, want %v", tt.input, got.Sector, tt.wantSector)
			}
		})
	}
}

func TestSplitMalformed(t *testing.T) {
	inputs := []string{"", "12345", "SW1A", "SW1A 1A", "QWERTY", "1AB 2CD", "SW1A 1AI"}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := Split(input)
			if err == nil {
				t.Fatalf("Split(%q) expected error, got none", input)
			}
			var mpe *MalformedPostcodeError
			if !errors.As(err, &mpe) {
				t.Errorf("Split(%q) error type = %T, want *MalformedPostcodeError", input, err)
			}
		})
	}
}

// The components form a strict prefix hierarchy: sector starts with district,
// district starts with area.
func TestSplitPrefixHierarchy(t *testing.T) {
	inputs := []string{"SW1A 1AA", "GU34 1AA", "N1 7AB", "EC1A 1BB", "M1 1AE", "B33 8TH", "CR2 6XH", "DN55 1PT"}

	for _, input := range inputs {
		p, err := Split(input)
		if err != nil {
			t.Fatalf("Split(%q) error = %v", input, err)
		}
		if !strings.HasPrefix(p.District, p.Area) {
			t.Errorf("district %q does not start with area %q", p.District, p.Area)
		}
		if !strings.HasPrefix(p.Sector, p.District+" ") {
			t.Errorf("sector %q does not start with district %q", p.Sector, p.District)
		}
	}
}

func TestClassifyLondon(t *testing.T) {
	tests := []struct {
		area     string
		district string
		want     string
	}{
		{"SW", "SW1A", InsideLondon},
		{"EC", "EC1A", InsideLondon},
		{"HA", "HA1", InsideLondon},
		{"EN", "EN2", InsideLondon},   // Enfield district inside a straddling area
		{"EN", "EN6", OutsideLondon},  // Potters Bar
		{"TW", "TW10", InsideLondon},  // Richmond
		{"TW", "TW15", OutsideLondon}, // Ashford
		{"GU", "GU34", OutsideLondon},
		{"M", "M1", OutsideLondon},
		{"", "", Unknown},
		{"123", "1234", Unknown},
	}

	for _, tt := range tests {
		if got := ClassifyLondon(tt.area, tt.district); got != tt.want {
			t.Errorf("ClassifyLondon(%q, %q) = %v, want %v", tt.area, tt.district, got, tt.want)
		}
	}
}
