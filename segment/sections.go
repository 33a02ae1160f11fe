package segment

import (
	"github.com/rotblauer/catTrips/geo"
	"github.com/rotblauer/catTrips/model"
)

// Sections splits one trip's points wherever the upstream mode label changes
// or consecutive points are too far apart in time or space.
// An empty label never opens a section on its own.
func Sections(points []model.Point, cfg Config) [][]model.Point {
	if len(points) == 0 {
		return nil
	}
	var out [][]model.Point
	cur := []model.Point{points[0]}
	mode := points[0].Mode
	for i := 1; i < len(points); i++ {
		prev, p := points[i-1], points[i]
		if splits(prev, p, mode, cfg) {
			out = append(out, cur)
			cur = nil
			mode = ""
		}
		cur = append(cur, p)
		if mode == "" {
			mode = p.Mode
		}
	}
	return append(out, cur)
}

func splits(prev, p model.Point, mode string, cfg Config) bool {
	if p.Mode != "" && mode != "" && p.Mode != mode {
		return true
	}
	if cfg.SectionGapDuration > 0 && p.Ts-prev.Ts > cfg.SectionGapDuration.Seconds() {
		return true
	}
	return cfg.SectionGapDistance > 0 && geo.Distance(prev.Loc(), p.Loc()) > cfg.SectionGapDistance
}

// sectionMode is the first label seen in a section.
func sectionMode(points []model.Point) string {
	for _, p := range points {
		if p.Mode != "" {
			return p.Mode
		}
	}
	return ""
}
