package smoothing

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/rotblauer/catTrips/geo"
	"github.com/rotblauer/catTrips/model"
	"github.com/rotblauer/catTrips/segment"
	"github.com/rotblauer/catTrips/store"
)

const t0 = 1541683852.0

var origin = model.Location{Lat: 38.6337, Lng: -90.2671}

// line returns n points one second apart walking north, alternating steps of
// mps and 2*mps meters so the speeds have some spread.
func line(n int, mps float64) []model.Point {
	ps := make([]model.Point, n)
	pos := 0.0
	for i := range ps {
		if i > 0 {
			pos += mps * float64(2-i%2)
		}
		ps[i] = model.Point{
			ID:  fmt.Sprintf("p%02d", i),
			Lat: origin.Lat + geo.MetersToDegrees(pos),
			Lng: origin.Lng,
			Ts:  t0 + float64(i),
		}
	}
	return ps
}

// jump moves points[i] km kilometers east.
func jump(ps []model.Point, km float64, idx ...int) {
	for _, i := range idx {
		ps[i].Lng = origin.Lng + geo.MetersToDegrees(km*1000)/math.Cos(origin.Lat*math.Pi/180)
	}
}

func TestWithMotion(t *testing.T) {
	ps := WithMotion(line(3, 2))
	if ps[0].Speed != 0 || ps[0].Distance != 0 {
		t.Errorf("first point %+v", ps[0])
	}
	for i, want := range []float64{0, 2, 4} {
		p := ps[i]
		if math.Abs(p.Speed-want) > 0.01 || math.Abs(p.Distance-want) > 0.01 {
			t.Errorf("point %s speed %v distance %v", p.ID, p.Speed, p.Distance)
		}
		if math.Abs(p.Heading) > 0.01 {
			t.Errorf("point %s heading %v", p.ID, p.Heading)
		}
	}
	if speed(5, 0) != math.Inf(1) || speed(0, 0) != 0 {
		t.Error("zero elapsed time")
	}
}

func TestFilterNothingAboveThreshold(t *testing.T) {
	res := DefaultZigzag().Filter(line(20, 1.5), 10)
	if len(res.Deleted) != 0 || res.Clusters != 1 {
		t.Errorf("deleted %v from %d clusters", res.Deleted, res.Clusters)
	}
	for i, ok := range res.Inliers {
		if !ok {
			t.Errorf("point %d marked outlier", i)
		}
	}
	if res := DefaultZigzag().Filter(line(1, 1), 10); len(res.Deleted) != 0 {
		t.Errorf("single point deleted %v", res.Deleted)
	}
	if res := DefaultZigzag().Filter(nil, 10); len(res.Deleted) != 0 {
		t.Errorf("no points deleted %v", res.Deleted)
	}
}

func TestFilterSingleExcursion(t *testing.T) {
	ps := line(10, 1)
	jump(ps, 10, 5)
	res := DefaultZigzag().Filter(ps, 10)
	if res.Clusters != 3 {
		t.Errorf("clusters %d", res.Clusters)
	}
	if !reflect.DeepEqual(res.DeletedIDs(ps), []string{"p05"}) {
		t.Errorf("deleted %v", res.DeletedIDs(ps))
	}
}

func TestFilterInteriorZigzag(t *testing.T) {
	ps := line(20, 1)
	// out, back, out, back
	jump(ps, 10, 10, 12)
	res := DefaultZigzag().Filter(ps, 10)
	if !reflect.DeepEqual(res.DeletedIDs(ps), []string{"p10", "p12"}) {
		t.Errorf("deleted %v", res.DeletedIDs(ps))
	}
}

func TestFilterTwoClusters(t *testing.T) {
	ps := line(10, 1)
	jump(ps, 10, 7, 8, 9)
	res := DefaultZigzag().Filter(ps, 10)
	if !reflect.DeepEqual(res.Deleted, []int{7, 8, 9}) {
		t.Errorf("deleted %v", res.Deleted)
	}
}

func TestFilterLongExcursionNearEnd(t *testing.T) {
	span := func(from, to int) []int {
		var out []int
		for i := from; i <= to; i++ {
			out = append(out, i)
		}
		return out
	}
	cases := []struct {
		name string
		away []int
	}{
		{"after short head", span(3, 13)},
		{"before short tail", span(16, 26)},
	}
	for _, c := range cases {
		ps := line(30, 1)
		jump(ps, 10, c.away...)
		res := DefaultZigzag().Filter(WithMotion(ps), 10)
		if res.Clusters != 3 || !reflect.DeepEqual(res.Deleted, c.away) {
			t.Errorf("%s: deleted %v from %d clusters", c.name, res.Deleted, res.Clusters)
		}

		sr := Smooth("rye8", "s", ps, DefaultConfig())
		if len(sr.DeletedPoints) != len(c.away) || sr.DeletedPoints[0] != ps[c.away[0]].ID {
			t.Errorf("%s: smooth at %.2f deleted %v", c.name, sr.ThresholdUsed, sr.DeletedPoints)
		}
	}
}

func TestFilterTieBreak(t *testing.T) {
	ps := line(6, 1)
	jump(ps, 10, 3, 4, 5)
	cases := []struct {
		tb   TieBreak
		want []int
	}{
		// equally far from the middle, so the earlier one goes
		{TieFartherFromCentroid, []int{0, 1, 2}},
		{TieEarlier, []int{0, 1, 2}},
		{TieLater, []int{3, 4, 5}},
	}
	for _, c := range cases {
		res := Zigzag{TieBreak: c.tb}.Filter(ps, 10)
		if !reflect.DeepEqual(res.Deleted, c.want) {
			t.Errorf("%s: deleted %v", c.tb, res.Deleted)
		}
	}
}

func TestFilterIterationCap(t *testing.T) {
	ps := line(12, 1)
	// every other point jumps, so everything is its own cluster
	jump(ps, 10, 1, 3, 5, 7, 9, 11)
	res := Zigzag{MaxIterations: 1}.Filter(ps, 10)
	if res.Iterations != 1 {
		t.Errorf("iterations %d", res.Iterations)
	}
	// whatever is left, only one cluster survives
	kept := 0
	for _, ok := range res.Inliers {
		if ok {
			kept++
		}
	}
	if kept == 0 || kept+len(res.Deleted) != len(ps) {
		t.Errorf("kept %d deleted %d", kept, len(res.Deleted))
	}
}

func TestParseTieBreak(t *testing.T) {
	if tb, err := ParseTieBreak(""); err != nil || tb != TieFartherFromCentroid {
		t.Errorf("empty: %v %v", tb, err)
	}
	if _, err := ParseTieBreak("coin_flip"); err == nil {
		t.Error("expected error")
	}
}

func seedSection(t *testing.T, st store.Store, id string, ps []model.Point) {
	t.Helper()
	ctx := context.Background()
	if _, err := st.AppendPoints(ctx, "rye8", store.StreamFilteredLocation, ps); err != nil {
		t.Fatal(err)
	}
	sec := model.Section{
		ID:       id,
		UserID:   "rye8",
		StartTs:  ps[0].Ts,
		EndTs:    ps[len(ps)-1].Ts,
		PointIDs: model.Points(ps).IDs(),
	}
	if err := store.PutSection(ctx, st, sec, time.Now()); err != nil {
		t.Fatal(err)
	}
}

func TestFilterJumps(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()

	bad := line(20, 1)
	jump(bad, 10, 10, 12)
	seedSection(t, st, "zigzag", bad)

	res, err := FilterJumps(ctx, st, "rye8", "zigzag", DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.DeletedPoints, []string{"p10", "p12"}) {
		t.Errorf("deleted %v", res.DeletedPoints)
	}
	if res.OutlierAlgo == "" || res.FilteringAlgo == "" || res.ThresholdUsed <= 0 {
		t.Errorf("result %+v", res)
	}
	again, err := FilterJumps(ctx, st, "rye8", "zigzag", DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res, again) {
		t.Error("second run differs")
	}

	cleaned, err := CleanedPoints(ctx, st, "rye8", "zigzag")
	if err != nil {
		t.Fatal(err)
	}
	if len(cleaned) != 18 {
		t.Errorf("cleaned %d points", len(cleaned))
	}
	if _, err := FilterJumps(ctx, st, "rye8", "missing", DefaultConfig()); err == nil {
		t.Error("expected error for a missing section")
	}
}

func TestFilterJumpsOneTrip(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()

	// walk, then run with a zigzag, all in one trip
	ps := line(60, 1)
	for i := range ps {
		ps[i].Mode = "Walking"
		if i >= 30 {
			ps[i].Mode = "Running"
		}
	}
	jump(ps, 0.5, 40, 42)
	if _, err := st.AppendPoints(ctx, "rye8", store.StreamFilteredLocation, ps); err != nil {
		t.Fatal(err)
	}
	trips, sections, err := segment.SegmentCurrentTrips(ctx, st, "rye8", store.AllTime, segment.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(trips) != 1 || len(sections) != 2 {
		t.Fatalf("%d trips, %d sections", len(trips), len(sections))
	}

	for _, sec := range sections {
		res, err := FilterJumps(ctx, st, "rye8", sec.ID, DefaultConfig())
		if err != nil {
			t.Fatal(err)
		}
		switch sec.Mode {
		case "Running":
			if !reflect.DeepEqual(res.DeletedPoints, []string{"p40", "p42"}) {
				t.Errorf("zigzag section deleted %v", res.DeletedPoints)
			}
		default:
			if len(res.DeletedPoints) != 0 {
				t.Errorf("%s section lost %v", sec.Mode, res.DeletedPoints)
			}
		}
	}
}
