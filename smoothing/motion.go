package smoothing

import (
	"math"

	"github.com/rotblauer/catTrips/geo"
	"github.com/rotblauer/catTrips/model"
)

// WithMotion returns a copy of points with distance, heading and speed
// filled in relative to each point's predecessor. The first point gets zeros.
func WithMotion(points []model.Point) []model.Point {
	out := make([]model.Point, len(points))
	copy(out, points)
	for i := range out {
		if i == 0 {
			out[i].Distance, out[i].Heading, out[i].Speed = 0, 0, 0
			continue
		}
		prev := out[i-1]
		out[i].Distance = geo.Distance(prev.Loc(), out[i].Loc())
		out[i].Heading = geo.Bearing(prev.Loc(), out[i].Loc())
		out[i].Speed = speed(out[i].Distance, out[i].Ts-prev.Ts)
	}
	return out
}

func speed(dist, dt float64) float64 {
	if dt <= 0 {
		if dist == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return dist / dt
}

// speedBetween is the implied speed of going straight from a to b.
func speedBetween(a, b model.Point) float64 {
	return speed(geo.Distance(a.Loc(), b.Loc()), b.Ts-a.Ts)
}
