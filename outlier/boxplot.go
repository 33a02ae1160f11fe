// Package outlier estimates the speed above which a point is considered a jump.
package outlier

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/rotblauer/catTrips/model"
)

const (
	// Mild is the usual boxplot whisker.
	Mild = 1.5
	// Extreme only flags far outliers.
	Extreme = 3.0

	// DefaultCeiling in m/s, used when there is not enough spread to estimate anything.
	DefaultCeiling = 100.0

	Name = "BoxplotOutlier"
)

// Boxplot puts the fence at Q3 + Multiplier*IQR.
type Boxplot struct {
	Multiplier float64 `koanf:"multiplier"`
	Ceiling    float64 `koanf:"ceiling"`
}

// DefaultBoxplot is the mild fence with the default ceiling.
func DefaultBoxplot() Boxplot {
	return Boxplot{Multiplier: Mild, Ceiling: DefaultCeiling}
}

// Threshold returns the fence for speeds.
// Fewer than two finite speeds, or no spread between the quartiles, gives the ceiling.
// For a fixed Q3 and positive spread the result never decreases as the spread grows.
func (b Boxplot) Threshold(speeds []float64) float64 {
	ceiling := b.Ceiling
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	data := make(stats.Float64Data, 0, len(speeds))
	for _, s := range speeds {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			continue
		}
		data = append(data, s)
	}
	if len(data) < 2 {
		return ceiling
	}
	q, err := stats.Quartile(data)
	if err != nil {
		return ceiling
	}
	iqr := q.Q3 - q.Q1
	if iqr <= 0 {
		return ceiling
	}
	m := b.Multiplier
	if m < 0 {
		m = Mild
	}
	return math.Max(0, q.Q3+m*iqr)
}

// SectionSpeeds is the speed of every point after the first, which has none.
// Points are expected to already carry derived motion.
func SectionSpeeds(points []model.Point) []float64 {
	if len(points) < 2 {
		return nil
	}
	out := make([]float64, 0, len(points)-1)
	for _, p := range points[1:] {
		out = append(out, p.Speed)
	}
	return out
}
