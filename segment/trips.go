// Package segment cuts a cat's point stream into trips at its dwells,
// and trips into sections at mode changes and gaps.
package segment

import (
	"time"

	"github.com/rotblauer/catTrips/geo"
	"github.com/rotblauer/catTrips/model"
)

const (
	DefaultDwellDuration      = 2 * time.Minute
	DefaultDwellDistance      = 50.0
	DefaultSignalLossSpeed    = 0.5
	DefaultSectionGapDuration = 5 * time.Minute
	DefaultSectionGapDistance = 1000.0
)

type Config struct {
	// DwellDuration is how long a cat has to stay put for a trip to end.
	DwellDuration time.Duration `koanf:"dwell_duration"`
	// DwellDistance in meters is how far it may wander while staying put.
	DwellDistance float64 `koanf:"dwell_distance"`
	// SignalLossSpeed in m/s. A gap longer than DwellDuration crossed slower than this ends the trip.
	SignalLossSpeed float64 `koanf:"signal_loss_speed"`

	SectionGapDuration time.Duration `koanf:"section_gap_duration"`
	SectionGapDistance float64       `koanf:"section_gap_distance"`
}

func DefaultConfig() Config {
	return Config{
		DwellDuration:      DefaultDwellDuration,
		DwellDistance:      DefaultDwellDistance,
		SignalLossSpeed:    DefaultSignalLossSpeed,
		SectionGapDuration: DefaultSectionGapDuration,
		SectionGapDistance: DefaultSectionGapDistance,
	}
}

// detector walks points in time order and collects the moving runs between dwells.
type detector struct {
	cfg    Config
	points []model.Point

	tripping bool
	cur      []int
	trips    [][]int
}

// Trips returns the points of each detected trip, in order.
// Points must be time ordered without duplicate timestamps.
func Trips(points []model.Point, cfg Config) [][]model.Point {
	d := &detector{cfg: cfg, points: points}
	for i := range points {
		d.add(i)
	}
	d.end(len(points))

	out := make([][]model.Point, 0, len(d.trips))
	for _, idx := range d.trips {
		tp := make([]model.Point, len(idx))
		for j, i := range idx {
			tp[j] = points[i]
		}
		out = append(out, tp)
	}
	return out
}

func (d *detector) add(i int) {
	if i > 0 && d.signalLoss(i) {
		d.end(i)
	}
	still := d.still(i)
	if !d.tripping {
		if !still {
			d.tripping = true
			d.cur = []int{i}
		}
		return
	}
	if still {
		d.end(d.clusterStart(i))
		return
	}
	d.cur = append(d.cur, i)
}

// end closes the open trip, keeping only the points before index before.
func (d *detector) end(before int) {
	if !d.tripping {
		return
	}
	d.tripping = false
	var kept []int
	for _, i := range d.cur {
		if i < before {
			kept = append(kept, i)
		}
	}
	d.cur = nil
	if len(kept) == 0 {
		return
	}
	d.trips = append(d.trips, kept)
}

func (d *detector) signalLoss(i int) bool {
	prev, p := d.points[i-1], d.points[i]
	dt := p.Ts - prev.Ts
	if dt <= d.cfg.DwellDuration.Seconds() {
		return false
	}
	return geo.Distance(prev.Loc(), p.Loc())/dt < d.cfg.SignalLossSpeed
}

// still reports whether every point from the one at or just before DwellDuration ago
// up to i lies within DwellDistance of i. Without such a point there is no verdict yet.
func (d *detector) still(i int) bool {
	p := d.points[i]
	windowStart := p.Ts - d.cfg.DwellDuration.Seconds()
	for j := i - 1; j >= 0; j-- {
		q := d.points[j]
		if geo.Distance(q.Loc(), p.Loc()) > d.cfg.DwellDistance {
			return false
		}
		if q.Ts <= windowStart {
			return true
		}
	}
	return false
}

// clusterStart is the earliest index of the unbroken run ending at i
// whose points all sit within DwellDistance of i.
func (d *detector) clusterStart(i int) int {
	p := d.points[i]
	start := i
	for j := i - 1; j >= 0; j-- {
		if geo.Distance(d.points[j].Loc(), p.Loc()) > d.cfg.DwellDistance {
			break
		}
		start = j
	}
	return start
}
