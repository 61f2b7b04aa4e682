package postcode

import (
	"fmt"
	"regexp"
	"strings"
)

// UK postcode pattern: outward code (area letters + digit group + optional
// trailing letter), optional space, inward code (digit + two letters).
var rePostcode = regexp.MustCompile(`^([A-Z]{1,2})(\d[A-Z\d]?)\s*(\d)([ABD-HJLNP-UW-Z]{2})$`)

var reArea = regexp.MustCompile(`^[A-Z]{1,2}$`)

// Parts holds the nested components of a postcode. Sector starts with
// District, District starts with Area.
type Parts struct {
	Area     string
	District string
	Sector   string
}

// MalformedPostcodeError reports a postcode that does not match the expected
// alphanumeric pattern.
type MalformedPostcodeError struct {
	Postcode string
}

func (e *MalformedPostcodeError) Error() string {
	return fmt.Sprintf("malformed postcode: %q", e.Postcode)
}

// Split decomposes a raw postcode string into area, district and sector.
// Input is upper-cased and trimmed first, so "gu341aa" and "GU34 1AA" split
// the same way.
func Split(raw string) (Parts, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	m := rePostcode.FindStringSubmatch(s)
	if m == nil {
		return Parts{}, &MalformedPostcodeError{Postcode: raw}
	}

	area := m[1]
	district := area + m[2]
	sector := district + " " + m[3]

	return Parts{Area: area, District: district, Sector: sector}, nil
}

// London classification values.
const (
	InsideLondon  = "Inside London"
	OutsideLondon = "Outside London"
	Unknown       = "Unknown"
)

// Postcode areas wholly (or almost wholly) inside Greater London.
var londonAreas = map[string]bool{
	"E": true, "EC": true, "N": true, "NW": true,
	"SE": true, "SW": true, "W": true, "WC": true,
	"BR": true, "CR": true, "HA": true, "IG": true,
	"RM": true, "SM": true, "UB": true,
}

// Districts inside Greater London whose wider postcode area straddles the
// boundary.
var londonDistricts = map[string]bool{
	"EN1": true, "EN2": true, "EN3": true, "EN4": true, "EN5": true,
	"KT1": true, "KT2": true, "KT3": true, "KT4": true, "KT5": true,
	"KT6": true, "KT7": true, "KT8": true, "KT9": true,
	"TW1": true, "TW2": true, "TW3": true, "TW4": true, "TW5": true,
	"TW6": true, "TW7": true, "TW8": true, "TW9": true, "TW10": true,
	"TW11": true, "TW12": true, "TW13": true, "TW14": true,
	"DA1": true, "DA5": true, "DA6": true, "DA7": true, "DA8": true,
	"DA14": true, "DA15": true, "DA16": true, "DA17": true, "DA18": true,
}

// ClassifyLondon reports whether a postcode area/district pair falls inside
// Greater London. Codes that do not look like a postcode area at all come
// back as Unknown rather than failing.
func ClassifyLondon(area, district string) string {
	if londonAreas[area] || londonDistricts[district] {
		return InsideLondon
	}
	if reArea.MatchString(area) {
		return OutsideLondon
	}
	return Unknown
}
