// Package geo holds the spherical helpers every stage shares.
package geo

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"

	"github.com/rotblauer/catTrips/model"
)

// EarthRadius in meters.
const EarthRadius = 6371008.8

// Distance is the great-circle distance between a and b in meters.
func Distance(a, b model.Location) float64 {
	return s2.LatLngFromDegrees(a.Lat, a.Lng).Distance(s2.LatLngFromDegrees(b.Lat, b.Lng)).Radians() * EarthRadius
}

// Bearing from a to b in degrees, [-180, 180].
func Bearing(a, b model.Location) float64 {
	return orbgeo.Bearing(orb.Point{a.Lng, a.Lat}, orb.Point{b.Lng, b.Lat})
}

// Centroid is the spherical mean of locs.
// Zero locations, or locations that cancel out, give the zero Location.
func Centroid(locs []model.Location) model.Location {
	var sum r3.Vector
	for _, l := range locs {
		sum = sum.Add(s2.PointFromLatLng(s2.LatLngFromDegrees(l.Lat, l.Lng)).Vector)
	}
	if sum.Norm() == 0 {
		return model.Location{}
	}
	ll := s2.LatLngFromPoint(s2.Point{Vector: sum.Normalize()})
	return model.Location{Lat: ll.Lat.Degrees(), Lng: ll.Lng.Degrees()}
}

// PointsCentroid is Centroid over point locations.
func PointsCentroid(ps []model.Point) model.Location {
	locs := make([]model.Location, len(ps))
	for i, p := range ps {
		locs[i] = p.Loc()
	}
	return Centroid(locs)
}

// CellID is the leaf s2 cell containing l.
func CellID(l model.Location) s2.CellID {
	return s2.CellIDFromLatLng(s2.LatLngFromDegrees(l.Lat, l.Lng))
}

// CellIDAt is the cell containing l at the given s2 level.
func CellIDAt(l model.Location, level int) s2.CellID {
	return CellID(l).Parent(level)
}

// MetersToDegrees approximates a distance along a meridian in degrees of latitude.
func MetersToDegrees(m float64) float64 {
	return m / EarthRadius * 180 / math.Pi
}
