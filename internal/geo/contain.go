package geo

import (
	"fmt"
	"sort"

	rtree "github.com/tidwall/rtree"
	"github.com/twpayne/go-geom"
)

// Assignment links a small polygon (by index into the resolved slice) to its
// containing district. District is nil for unmatched rows in the left output.
type Assignment struct {
	AreaIndex int
	District  *District
}

// JoinResult holds both views of the containment join: Inner drops unmatched
// rows, Left keeps every input row.
type JoinResult struct {
	Inner      []Assignment
	Left       []Assignment
	Unmatched  int
	MultiMatch int
}

// Resolver answers which district polygon fully contains a given small
// polygon. District bounding boxes are indexed in an R-tree, so each lookup
// only runs the exact containment test against a handful of candidates.
type Resolver struct {
	tree      rtree.RTree
	districts []*District
}

// NewResolver indexes the district polygons. The district set is typically
// far smaller than the polygon set being resolved, matching the broadcast
// side of the join.
func NewResolver(districts []*District) *Resolver {
	r := &Resolver{districts: districts}
	for _, d := range districts {
		min, max := boundsOf(d.Geometry)
		r.tree.Insert(min, max, d)
	}
	return r
}

// Resolve assigns each geometry to the district that fully contains it.
// Zero matches keeps the row in the left output with a nil district; more
// than one match means the district polygons overlap, which is flagged as a
// data-quality warning and broken deterministically by lowest district code.
func (r *Resolver) Resolve(geoms []geom.T) JoinResult {
	var res JoinResult

	for i, g := range geoms {
		min, max := boundsOf(g)

		var matches []*District
		r.tree.Search(min, max, func(dmin, dmax [2]float64, value interface{}) bool {
			d := value.(*District)
			if bboxCovers(dmin, dmax, min, max) && Contains(d.Geometry, g) {
				matches = append(matches, d)
			}
			return true
		})

		switch {
		case len(matches) == 0:
			res.Unmatched++
			res.Left = append(res.Left, Assignment{AreaIndex: i})
			continue
		case len(matches) > 1:
			res.MultiMatch++
			sort.Slice(matches, func(a, b int) bool { return matches[a].Code < matches[b].Code })
			codes := make([]string, len(matches))
			for j, m := range matches {
				codes[j] = m.Code
			}
			fmt.Printf("Warning: polygon %d contained by %d overlapping districts %v, keeping %s\n",
				i, len(matches), codes, matches[0].Code)
		}

		a := Assignment{AreaIndex: i, District: matches[0]}
		res.Inner = append(res.Inner, a)
		res.Left = append(res.Left, a)
	}

	return res
}
