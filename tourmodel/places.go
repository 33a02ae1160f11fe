// Package tourmodel finds the places a cat keeps coming back to and the trips it keeps making between them.
package tourmodel

import (
	"math"
	"sort"

	"github.com/asim/quadtree"

	"github.com/rotblauer/catTrips/geo"
	"github.com/rotblauer/catTrips/model"
)

// DefaultRadius in meters.
const DefaultRadius = 100.0

// Places clusters trip endpoints greedily: each location joins the nearest place
// whose centroid lies within Radius, or founds a new one.
type Places struct {
	Radius float64 `koanf:"radius"`
}

// place is a cluster under construction.
type place struct {
	ordinal  int
	visits   []model.PlaceVisit
	centroid model.Location
	qp       *quadtree.Point
}

// placeIndex finds candidate places near a location.
// Centroids that will not go into the tree land in overflow and are always checked.
type placeIndex struct {
	qt       *quadtree.QuadTree
	overflow map[*place]bool
}

func worldBounds() *quadtree.AABB {
	// x is latitude, y is longitude
	return quadtree.NewAABB(quadtree.NewPoint(0, 0, nil), quadtree.NewPoint(90, 180, nil))
}

func newPlaceIndex() *placeIndex {
	return &placeIndex{
		qt:       quadtree.New(worldBounds(), 0, nil),
		overflow: map[*place]bool{},
	}
}

func (ix *placeIndex) insert(p *place) {
	p.qp = quadtree.NewPoint(p.centroid.Lat, p.centroid.Lng, p)
	if !ix.qt.Insert(p.qp) {
		p.qp = nil
		ix.overflow[p] = true
	}
}

func (ix *placeIndex) move(p *place, to model.Location) {
	if p.qp != nil {
		ix.qt.Remove(p.qp)
	}
	delete(ix.overflow, p)
	p.centroid = to
	ix.insert(p)
}

// near returns places whose centroid may lie within radius meters of l.
// A box reaching past ±180 longitude is searched again on the far side.
func (ix *placeIndex) near(l model.Location, radius float64) []*place {
	dLat := 2 * geo.MetersToDegrees(radius)
	dLng := 180.0
	if c := math.Cos(l.Lat * math.Pi / 180); c > 1e-6 {
		dLng = math.Min(180, dLat/c)
	}
	centers := []float64{l.Lng}
	if l.Lng-dLng < -180 {
		centers = append(centers, l.Lng+360)
	}
	if l.Lng+dLng > 180 {
		centers = append(centers, l.Lng-360)
	}

	seen := map[*place]bool{}
	var out []*place
	add := func(p *place) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, lng := range centers {
		box := quadtree.NewAABB(quadtree.NewPoint(l.Lat, lng, nil), quadtree.NewPoint(dLat, dLng, nil))
		for _, qp := range ix.qt.Search(box) {
			if p, ok := qp.Data().(*place); ok {
				add(p)
			}
		}
	}
	for p := range ix.overflow {
		add(p)
	}
	return out
}

// Cluster assigns every visit to exactly one place. Visits are taken in time order.
// The returned places are in founding order.
func (pl Places) Cluster(visits []model.PlaceVisit) [][]model.PlaceVisit {
	radius := pl.Radius
	if radius <= 0 {
		radius = DefaultRadius
	}
	ordered := make([]model.PlaceVisit, len(visits))
	copy(ordered, visits)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Ts < ordered[j].Ts })

	ix := newPlaceIndex()
	var places []*place
	for _, v := range ordered {
		var best *place
		bestDist := math.Inf(1)
		for _, p := range ix.near(v.Location, radius) {
			d := geo.Distance(p.centroid, v.Location)
			if d > radius {
				continue
			}
			if d < bestDist || (d == bestDist && p.ordinal < best.ordinal) {
				best, bestDist = p, d
			}
		}
		if best == nil {
			p := &place{ordinal: len(places), visits: []model.PlaceVisit{v}, centroid: v.Location}
			ix.insert(p)
			places = append(places, p)
			continue
		}
		best.visits = append(best.visits, v)
		locs := make([]model.Location, len(best.visits))
		for i, bv := range best.visits {
			locs[i] = bv.Location
		}
		ix.move(best, geo.Centroid(locs))
	}

	out := make([][]model.PlaceVisit, len(places))
	for i, p := range places {
		out[i] = p.visits
	}
	return out
}
