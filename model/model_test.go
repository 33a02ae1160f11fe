package model

import (
	"math"
	"testing"
	"time"

	"github.com/rotblauer/trackpoints/trackPoint"
)

func TestNewIDDeterministic(t *testing.T) {
	a := NewID("rye8", "trip", "1", "2")
	b := NewID("rye8", "trip", "1", "2")
	if a != b {
		t.Fatalf("same parts gave different ids: %s %s", a, b)
	}
	if c := NewID("rye8", "trip", "12"); c == a {
		t.Error("joined parts should not collide")
	}
}

func TestActivityFromNotes(t *testing.T) {
	notes := `{"floorsAscended":0,"activity":"Stationary","currentPace":0}`
	if got := ActivityFromNotes(notes); got != "Stationary" {
		t.Errorf("got %q", got)
	}
	if got := ActivityFromNotes("not json"); got != "" {
		t.Errorf("got %q for junk notes", got)
	}
	if got := ActivityFromNotes(""); got != "" {
		t.Errorf("got %q for empty notes", got)
	}
}

func TestFromTrackPoint(t *testing.T) {
	tt := time.Date(2018, time.November, 8, 13, 30, 52, 850000000, time.UTC)
	tp := trackPoint.TrackPoint{
		Uuid:     "9B4843BB-0EF7-4B54-832A-B6940304C531",
		Name:     "tester",
		Lat:      38.633697509765625,
		Lng:      -90.26709747314453,
		Accuracy: 5,
		Time:     tt,
		Notes:    `{"activity":"Walking"}`,
	}
	p := FromTrackPoint(tp)
	if p.Mode != "Walking" {
		t.Errorf("mode %q", p.Mode)
	}
	if math.Abs(p.Ts-TsFromTime(tt)) > 1e-6 {
		t.Errorf("ts %v", p.Ts)
	}
	if p.ID != FromTrackPoint(tp).ID {
		t.Error("id not stable")
	}
	if !p.Valid() {
		t.Error("expected valid point")
	}
}

func TestPointValid(t *testing.T) {
	cases := []struct {
		name string
		p    Point
		want bool
	}{
		{"ok", Point{Lat: 1, Lng: 2, Ts: 10}, true},
		{"no time", Point{Lat: 1, Lng: 2}, false},
		{"nan lat", Point{Lat: math.NaN(), Lng: 2, Ts: 10}, false},
		{"lat out of range", Point{Lat: 91, Lng: 2, Ts: 10}, false},
	}
	for _, c := range cases {
		if got := c.p.Valid(); got != c.want {
			t.Errorf("%s: got %v want %v", c.name, got, c.want)
		}
	}
}

func TestPointsWithout(t *testing.T) {
	ps := Points{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	got := ps.Without([]string{"b"})
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("got %v", got.IDs())
	}
	if len(ps) != 3 {
		t.Error("original mutated")
	}
}

func TestTimeFromTsRoundTrip(t *testing.T) {
	tt := time.Date(2015, time.August, 27, 14, 38, 59, 672000000, time.UTC)
	if got := TimeFromTs(TsFromTime(tt)); !got.Equal(tt) {
		t.Errorf("got %v want %v", got, tt)
	}
}
