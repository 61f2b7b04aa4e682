package geo

import (
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"github.com/twpayne/go-geom/xy/location"
)

// District is one postal district polygon. AreaKm2 is measured in the
// projected CRS before the geometry is reprojected for containment testing.
type District struct {
	Code     string
	AreaKm2  float64
	Geometry geom.T
}

// AreaKm2 returns the polygon area divided by 1,000,000. Only meaningful for
// geometries in a projected CRS with metre units.
func AreaKm2(g geom.T) float64 {
	switch t := g.(type) {
	case *geom.Polygon:
		return math.Abs(t.Area()) / 1e6
	case *geom.MultiPolygon:
		return math.Abs(t.Area()) / 1e6
	}
	return 0
}

func boundsOf(g geom.T) (min, max [2]float64) {
	b := g.Bounds()
	return [2]float64{b.Min(0), b.Min(1)}, [2]float64{b.Max(0), b.Max(1)}
}

// bboxCovers reports whether the outer box contains the inner box.
func bboxCovers(outerMin, outerMax, innerMin, innerMax [2]float64) bool {
	return outerMin[0] <= innerMin[0] && outerMin[1] <= innerMin[1] &&
		outerMax[0] >= innerMax[0] && outerMax[1] >= innerMax[1]
}

func polygonsOf(g geom.T) []*geom.Polygon {
	switch t := g.(type) {
	case *geom.Polygon:
		return []*geom.Polygon{t}
	case *geom.MultiPolygon:
		polys := make([]*geom.Polygon, t.NumPolygons())
		for i := range polys {
			polys[i] = t.Polygon(i)
		}
		return polys
	}
	return nil
}

// pointInPolygon locates c against one polygon. A point on the exterior ring
// counts as inside; a point strictly inside a hole does not.
func pointInPolygon(p *geom.Polygon, c geom.Coord) bool {
	if p.NumLinearRings() == 0 {
		return false
	}
	exterior := p.LinearRing(0)
	switch xy.LocatePointInRing(p.Layout(), c, exterior.FlatCoords()) {
	case location.Exterior:
		return false
	case location.Boundary:
		return true
	}
	for i := 1; i < p.NumLinearRings(); i++ {
		hole := p.LinearRing(i)
		if xy.LocatePointInRing(p.Layout(), c, hole.FlatCoords()) == location.Interior {
			return false
		}
	}
	return true
}

// Contains reports whether container fully contains inner: every
// exterior-ring vertex of inner must lie inside or on the boundary of a
// single polygon of container. With non-overlapping, exhaustive district
// polygons this vertex test is equivalent to full polygon containment, since
// a straddling polygon always has vertices on both sides of the shared
// boundary.
func Contains(container, inner geom.T) bool {
	containerPolys := polygonsOf(container)
	if len(containerPolys) == 0 {
		return false
	}

	for _, ip := range polygonsOf(inner) {
		if ip.NumLinearRings() == 0 {
			return false
		}
		exterior := ip.LinearRing(0)
		flat := exterior.FlatCoords()
		stride := exterior.Layout().Stride()

		for i := 0; i < len(flat); i += stride {
			c := geom.Coord{flat[i], flat[i+1]}
			inAny := false
			for _, cp := range containerPolys {
				if pointInPolygon(cp, c) {
					inAny = true
					break
				}
			}
			if !inAny {
				return false
			}
		}
	}
	return true
}
