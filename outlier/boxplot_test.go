package outlier

import (
	"math"
	"testing"

	"github.com/rotblauer/catTrips/model"
)

func TestThreshold(t *testing.T) {
	b := DefaultBoxplot()
	cases := []struct {
		name   string
		speeds []float64
		want   float64
	}{
		{"empty", nil, DefaultCeiling},
		{"one", []float64{3}, DefaultCeiling},
		{"flat", []float64{2, 2, 2, 2}, DefaultCeiling},
		{"even", []float64{1, 2, 3, 4}, 3.5 + 1.5*2},
		{"unsorted", []float64{4, 1, 3, 2}, 3.5 + 1.5*2},
		{"nan skipped", []float64{1, math.NaN(), 2, 3, 4, math.Inf(1)}, 3.5 + 1.5*2},
	}
	for _, c := range cases {
		if got := b.Threshold(c.speeds); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("%s: got %v want %v", c.name, got, c.want)
		}
	}
}

func TestThresholdExtreme(t *testing.T) {
	b := Boxplot{Multiplier: Extreme, Ceiling: 50}
	if got := b.Threshold([]float64{1, 2, 3, 4}); math.Abs(got-9.5) > 1e-9 {
		t.Errorf("got %v", got)
	}
	if got := b.Threshold(nil); got != 50 {
		t.Errorf("ceiling got %v", got)
	}
}

func TestThresholdNonNegative(t *testing.T) {
	b := DefaultBoxplot()
	inputs := [][]float64{
		{0, 0, 0, 1},
		{0, 0.1, 0.2, 30, 40},
		{5, 1, 0, 0, 0, 0, 0, 0},
	}
	for _, in := range inputs {
		if got := b.Threshold(in); got < 0 {
			t.Errorf("%v: negative threshold %v", in, got)
		}
	}
}

// Holding Q3 at 10 while pulling Q1 down widens the spread.
func TestThresholdMonotoneInSpread(t *testing.T) {
	b := DefaultBoxplot()
	prev := -1.0
	for _, q1 := range []float64{9, 7, 5, 3, 1} {
		got := b.Threshold([]float64{q1, q1, 10, 10})
		if got < prev {
			t.Fatalf("q1=%v: threshold %v fell below %v", q1, got, prev)
		}
		prev = got
	}
}

func TestSectionSpeeds(t *testing.T) {
	ps := []model.Point{{Speed: 0}, {Speed: 1}, {Speed: 2}}
	got := SectionSpeeds(ps)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("got %v", got)
	}
	if SectionSpeeds(ps[:1]) != nil {
		t.Error("single point should have no speeds")
	}
}
