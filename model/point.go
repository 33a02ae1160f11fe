package model

import (
	"math"
)

// Point is one sensed location sample.
// Distance, Heading and Speed are derived relative to the previous point
// and are zero until smoothing.WithMotion fills them in.
type Point struct {
	ID       string  `json:"id"`
	Lat      float64 `json:"latitude"`
	Lng      float64 `json:"longitude"`
	Ts       float64 `json:"ts"`
	Accuracy float64 `json:"accuracy"`
	Mode     string  `json:"mode,omitempty"`

	Distance float64 `json:"distance,omitempty"`
	Heading  float64 `json:"heading,omitempty"`
	Speed    float64 `json:"speed,omitempty"`
}

// Location is a bare coordinate pair.
type Location struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

func (p Point) Loc() Location {
	return Location{Lat: p.Lat, Lng: p.Lng}
}

// Valid reports whether the point carries the fields every stage relies on.
func (p Point) Valid() bool {
	if p.Ts <= 0 || math.IsNaN(p.Ts) || math.IsInf(p.Ts, 0) {
		return false
	}
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Points is sortable by timestamp.
type Points []Point

func (ps Points) Len() int           { return len(ps) }
func (ps Points) Less(i, j int) bool { return ps[i].Ts < ps[j].Ts }
func (ps Points) Swap(i, j int)      { ps[i], ps[j] = ps[j], ps[i] }

// IDs returns the point ids in order.
func (ps Points) IDs() []string {
	ids := make([]string, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
	}
	return ids
}

// Without returns a copy of ps lacking any point whose id is in deleted.
func (ps Points) Without(deleted []string) Points {
	if len(deleted) == 0 {
		out := make(Points, len(ps))
		copy(out, ps)
		return out
	}
	skip := make(map[string]struct{}, len(deleted))
	for _, id := range deleted {
		skip[id] = struct{}{}
	}
	out := make(Points, 0, len(ps))
	for _, p := range ps {
		if _, ok := skip[p.ID]; ok {
			continue
		}
		out = append(out, p)
	}
	return out
}
