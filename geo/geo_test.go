package geo

import (
	"math"
	"testing"

	"github.com/rotblauer/catTrips/model"
)

func TestDistance(t *testing.T) {
	// one degree of latitude is about 111.2km
	d := Distance(model.Location{Lat: 0, Lng: 0}, model.Location{Lat: 1, Lng: 0})
	if math.Abs(d-111195) > 100 {
		t.Errorf("got %v", d)
	}
	if d := Distance(model.Location{Lat: 38.6, Lng: -90.2}, model.Location{Lat: 38.6, Lng: -90.2}); d != 0 {
		t.Errorf("same point distance %v", d)
	}
}

func TestBearing(t *testing.T) {
	b := Bearing(model.Location{Lat: 0, Lng: 0}, model.Location{Lat: 1, Lng: 0})
	if math.Abs(b) > 1e-6 {
		t.Errorf("north bearing %v", b)
	}
	b = Bearing(model.Location{Lat: 0, Lng: 0}, model.Location{Lat: 0, Lng: 1})
	if math.Abs(b-90) > 1e-6 {
		t.Errorf("east bearing %v", b)
	}
}

func TestCentroid(t *testing.T) {
	c := Centroid([]model.Location{{Lat: 10, Lng: 10}, {Lat: -10, Lng: 10}})
	if math.Abs(c.Lat) > 1e-9 || math.Abs(c.Lng-10) > 1e-9 {
		t.Errorf("got %+v", c)
	}
	if c := Centroid(nil); c != (model.Location{}) {
		t.Errorf("empty centroid %+v", c)
	}
}

func TestCellIDAt(t *testing.T) {
	l := model.Location{Lat: 38.6, Lng: -90.2}
	if got := CellIDAt(l, 13).Level(); got != 13 {
		t.Errorf("level %d", got)
	}
	if !CellIDAt(l, 13).Contains(CellID(l)) {
		t.Error("parent should contain leaf")
	}
}
