package geo

import (
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
)

// Airy 1830 ellipsoid and National Grid projection constants, from the
// Ordnance Survey transverse Mercator formulas.
const (
	airyA = 6377563.396
	airyB = 6356256.909

	gridF0   = 0.9996012717
	gridLat0 = 49.0 * math.Pi / 180
	gridLon0 = -2.0 * math.Pi / 180
	gridN0   = -100000.0
	gridE0   = 400000.0

	// GRS80/WGS84 ellipsoid.
	wgsA = 6378137.0
	wgsB = 6356752.3141
)

func meridionalArc(lat, lat0 float64) float64 {
	n := (airyA - airyB) / (airyA + airyB)
	n2 := n * n
	n3 := n2 * n
	return airyB * gridF0 * ((1+n+1.25*n2+1.25*n3)*(lat-lat0) -
		(3*n+3*n2+(21.0/8)*n3)*math.Sin(lat-lat0)*math.Cos(lat+lat0) +
		((15.0/8)*n2+(15.0/8)*n3)*math.Sin(2*(lat-lat0))*math.Cos(2*(lat+lat0)) -
		(35.0/24)*n3*math.Sin(3*(lat-lat0))*math.Cos(3*(lat+lat0)))
}

// gridToOSGB36 converts National Grid easting/northing to OSGB36 latitude
// and longitude in radians (inverse transverse Mercator).
func gridToOSGB36(e, n float64) (lat, lon float64) {
	e2 := 1 - (airyB*airyB)/(airyA*airyA)

	lat = gridLat0
	m := 0.0
	for {
		lat = (n-gridN0-m)/(airyA*gridF0) + lat
		m = meridionalArc(lat, gridLat0)
		if math.Abs(n-gridN0-m) < 1e-5 {
			break
		}
	}

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	tanLat := math.Tan(lat)
	tan2 := tanLat * tanLat
	tan4 := tan2 * tan2
	secLat := 1 / cosLat

	nu := airyA * gridF0 / math.Sqrt(1-e2*sinLat*sinLat)
	rho := airyA * gridF0 * (1 - e2) * math.Pow(1-e2*sinLat*sinLat, -1.5)
	eta2 := nu/rho - 1

	vii := tanLat / (2 * rho * nu)
	viii := tanLat / (24 * rho * nu * nu * nu) * (5 + 3*tan2 + eta2 - 9*tan2*eta2)
	ix := tanLat / (720 * rho * math.Pow(nu, 5)) * (61 + 90*tan2 + 45*tan4)
	x := secLat / nu
	xi := secLat / (6 * nu * nu * nu) * (nu/rho + 2*tan2)
	xii := secLat / (120 * math.Pow(nu, 5)) * (5 + 28*tan2 + 24*tan4)
	xiia := secLat / (5040 * math.Pow(nu, 7)) * (61 + 662*tan2 + 1320*tan4 + 720*tan4*tan2)

	de := e - gridE0
	de2 := de * de
	de3 := de2 * de
	de4 := de2 * de2
	de5 := de4 * de
	de6 := de4 * de2
	de7 := de6 * de

	lat = lat - vii*de2 + viii*de4 - ix*de6
	lon = gridLon0 + x*de - xi*de3 + xii*de5 - xiia*de7
	return lat, lon
}

func toCartesian(lat, lon, a, b float64) (x, y, z float64) {
	e2 := 1 - (b*b)/(a*a)
	sinLat := math.Sin(lat)
	nu := a / math.Sqrt(1-e2*sinLat*sinLat)
	x = nu * math.Cos(lat) * math.Cos(lon)
	y = nu * math.Cos(lat) * math.Sin(lon)
	z = (1 - e2) * nu * sinLat
	return x, y, z
}

func fromCartesian(x, y, z, a, b float64) (lat, lon float64) {
	e2 := 1 - (b*b)/(a*a)
	p := math.Sqrt(x*x + y*y)
	lat = math.Atan2(z, p*(1-e2))
	for i := 0; i < 10; i++ {
		sinLat := math.Sin(lat)
		nu := a / math.Sqrt(1-e2*sinLat*sinLat)
		lat = math.Atan2(z+e2*nu*sinLat, p)
	}
	lon = math.Atan2(y, x)
	return lat, lon
}

// helmertOSGB36ToWGS84 applies the inverse of the published WGS84->OSGB36
// seven-parameter transformation.
func helmertOSGB36ToWGS84(x, y, z float64) (float64, float64, float64) {
	const (
		tx = 446.448
		ty = -125.157
		tz = 542.060
		s  = -20.4894e-6
		// Rotations in radians (arcseconds / 3600 * pi / 180).
		rx = 0.1502 / 3600 * math.Pi / 180
		ry = 0.2470 / 3600 * math.Pi / 180
		rz = 0.8421 / 3600 * math.Pi / 180
	)
	x2 := tx + (1+s)*x - rz*y + ry*z
	y2 := ty + rz*x + (1+s)*y - rx*z
	z2 := tz - ry*x + rx*y + (1+s)*z
	return x2, y2, z2
}

// GridToWGS84 converts a National Grid easting/northing to WGS84 longitude
// and latitude in degrees.
func GridToWGS84(e, n float64) (lon, lat float64) {
	latR, lonR := gridToOSGB36(e, n)
	x, y, z := toCartesian(latR, lonR, airyA, airyB)
	x, y, z = helmertOSGB36ToWGS84(x, y, z)
	latR, lonR = fromCartesian(x, y, z, wgsA, wgsB)
	return lonR * 180 / math.Pi, latR * 180 / math.Pi
}

func transformFlat(flat []float64, stride int) []float64 {
	out := make([]float64, len(flat))
	copy(out, flat)
	for i := 0; i+1 < len(flat); i += stride {
		lon, lat := GridToWGS84(flat[i], flat[i+1])
		out[i] = lon
		out[i+1] = lat
	}
	return out
}

// TransformOSGB36ToWGS84 reprojects a National Grid geometry to WGS84,
// returning a new geometry. This is the only place the pipeline reprojects:
// areas are measured before this call, containment is tested after it.
func TransformOSGB36ToWGS84(g geom.T) (geom.T, error) {
	switch t := g.(type) {
	case *geom.Point:
		return geom.NewPointFlat(t.Layout(), transformFlat(t.FlatCoords(), t.Layout().Stride())), nil
	case *geom.Polygon:
		return geom.NewPolygonFlat(t.Layout(), transformFlat(t.FlatCoords(), t.Layout().Stride()), t.Ends()), nil
	case *geom.MultiPolygon:
		return geom.NewMultiPolygonFlat(t.Layout(), transformFlat(t.FlatCoords(), t.Layout().Stride()), t.Endss()), nil
	}
	return nil, fmt.Errorf("unsupported geometry type %T", g)
}
