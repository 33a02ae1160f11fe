package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rotblauer/catTrips/config"
	"github.com/rotblauer/catTrips/geo"
	"github.com/rotblauer/catTrips/model"
	"github.com/rotblauer/catTrips/store"
)

const t0 = 1541683852.0

// commute sits at home, drives 3km north, sits, then drives back.
func commute() []model.Point {
	var ps []model.Point
	loc := model.Location{Lat: 38.6337, Lng: -90.2671}
	ts := t0
	emit := func(mode string) {
		ps = append(ps, model.Point{
			ID:       fmt.Sprintf("p%03d", len(ps)),
			Lat:      loc.Lat,
			Lng:      loc.Lng,
			Ts:       ts,
			Accuracy: 5,
			Mode:     mode,
		})
	}
	leg := func(step float64) {
		for i := 0; i < 20; i++ {
			ts += 30
			emit("Stationary")
		}
		for i := 0; i < 10; i++ {
			ts += 30
			loc.Lat += geo.MetersToDegrees(step)
			emit("Automotive")
		}
	}
	leg(300)
	leg(-300)
	for i := 0; i < 20; i++ {
		ts += 30
		emit("Stationary")
	}
	return ps
}

func seed(t *testing.T, st store.Store, users ...string) {
	t.Helper()
	for _, u := range users {
		if _, err := st.AppendPoints(context.Background(), u, store.StreamLocation, commute()); err != nil {
			t.Fatal(err)
		}
	}
}

func snapshot(t *testing.T, st store.Store, user string) map[string][][]byte {
	t.Helper()
	out := map[string][][]byte{}
	for _, key := range []string{store.KeyRawTrip, store.KeyRawSection, store.KeySmoothing, store.KeyTourModel} {
		entries, err := st.Entries(context.Background(), user, key)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			out[key] = append(out[key], e.Data)
		}
	}
	return out
}

func TestRunUser(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	seed(t, st, "rye8")
	cfg := config.Default()

	rep, err := RunUser(ctx, st, "rye8", store.AllTime, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Trips != 2 || rep.Places != 2 || rep.CommonTrips != 2 {
		t.Errorf("report %+v", rep)
	}
	if rep.Smoothed != rep.Sections || rep.FailedSecs != 0 || rep.Deleted != 0 {
		t.Errorf("smoothing %+v", rep)
	}
	first := snapshot(t, st, "rye8")
	if len(first[store.KeySmoothing]) != rep.Sections {
		t.Errorf("%d smoothing records for %d sections", len(first[store.KeySmoothing]), rep.Sections)
	}

	if _, err := RunUser(ctx, st, "rye8", store.AllTime, cfg); err != nil {
		t.Fatal(err)
	}
	second := snapshot(t, st, "rye8")
	for key, recs := range first {
		if len(second[key]) != len(recs) {
			t.Fatalf("%s: %d records then %d", key, len(recs), len(second[key]))
		}
		for i := range recs {
			if !bytes.Equal(recs[i], second[key][i]) {
				t.Errorf("%s record %d changed on rerun", key, i)
			}
		}
	}
}

func TestRunUserNoPoints(t *testing.T) {
	rep, err := RunUser(context.Background(), store.NewMem(), "rye8", store.AllTime, config.Default())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Trips != 0 || rep.Places != 0 {
		t.Errorf("report %+v", rep)
	}
}

func TestRunAll(t *testing.T) {
	st := store.NewMem()
	seed(t, st, "rye8", "ia", "jl")
	cfg := config.Default()
	cfg.Pipeline.Workers = 2

	var mu sync.Mutex
	done := map[string]bool{}
	reports, err := RunAll(context.Background(), st, store.AllTime, cfg, func(r Report) {
		mu.Lock()
		done[r.User] = true
		mu.Unlock()
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 3 || len(done) != 3 {
		t.Fatalf("%d reports, %d callbacks", len(reports), len(done))
	}
	for _, r := range reports {
		if r.Err != "" || r.Trips != 2 {
			t.Errorf("report %+v", r)
		}
	}
}

func TestRunUserShiftedWindows(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	seed(t, st, "rye8")
	ps := commute()
	cfg := config.Default()

	// each window after the first cuts into a trip or a dwell
	windows := []store.TimeQuery{
		store.AllTime,
		{Start: ps[25].Ts},
		{Start: ps[45].Ts},
		{Start: ps[5].Ts, End: ps[55].Ts},
		store.AllTime,
	}
	for _, tq := range windows {
		if _, err := RunUser(ctx, st, "rye8", tq, cfg); err != nil {
			t.Fatal(err)
		}
		trips, err := store.GetTrips(ctx, st, "rye8")
		if err != nil {
			t.Fatal(err)
		}
		if len(trips) != 2 {
			t.Fatalf("window %+v: %d trips stored", tq, len(trips))
		}
		if trips[1].StartTs <= trips[0].EndTs {
			t.Errorf("window %+v: trips overlap %+v", tq, trips)
		}
		secs, err := store.GetSections(ctx, st, "rye8")
		if err != nil {
			t.Fatal(err)
		}
		if len(secs) != len(trips[0].SectionIDs)+len(trips[1].SectionIDs) {
			t.Errorf("window %+v: %d sections stored", tq, len(secs))
		}
		tm, err := store.GetTourModel(ctx, st, "rye8")
		if err != nil {
			t.Fatal(err)
		}
		members := 0
		for _, ct := range tm.CommonTrips {
			members += ct.MemberCount
		}
		if members != 2 {
			t.Errorf("window %+v: tour model counts %d trips", tq, members)
		}
	}
}

func TestRunUserOnePerCat(t *testing.T) {
	st := store.NewMem()
	seed(t, st, "rye8")
	cfg := config.Default()

	release, err := lockCat(context.Background(), "rye8")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := RunUser(ctx, st, "rye8", store.AllTime, cfg); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("run while locked: %v", err)
	}
	// other cats are not held up
	if _, err := RunUser(context.Background(), st, "ia", store.AllTime, cfg); err != nil {
		t.Errorf("other cat: %v", err)
	}
	release()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = RunUser(context.Background(), st, "rye8", store.AllTime, cfg)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			t.Error(err)
		}
	}
	trips, err := store.GetTrips(context.Background(), st, "rye8")
	if err != nil || len(trips) != 2 {
		t.Errorf("%d trips, %v", len(trips), err)
	}
}
