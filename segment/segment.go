package segment

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rotblauer/catTrips/model"
	"github.com/rotblauer/catTrips/store"
)

// Segment turns a cat's points into trips and their sections.
// Ids depend only on the user and the points, so the same input always
// yields the same records.
func Segment(user string, points []model.Point, cfg Config) ([]model.Trip, []model.Section) {
	points = FilterAccuracy(points, 0)

	var trips []model.Trip
	var sections []model.Section
	for _, tp := range Trips(points, cfg) {
		first, last := tp[0], tp[len(tp)-1]
		trip := model.Trip{
			ID:       model.NewID(user, "trip", model.FormatTs(first.Ts), first.ID),
			UserID:   user,
			StartTs:  first.Ts,
			EndTs:    last.Ts,
			StartLoc: first.Loc(),
			EndLoc:   last.Loc(),
		}
		for _, sp := range Sections(tp, cfg) {
			sf, sl := sp[0], sp[len(sp)-1]
			sec := model.Section{
				ID:       model.NewID(user, "section", trip.ID, model.FormatTs(sf.Ts), sf.ID),
				UserID:   user,
				TripID:   trip.ID,
				StartTs:  sf.Ts,
				EndTs:    sl.Ts,
				StartLoc: sf.Loc(),
				EndLoc:   sl.Loc(),
				Mode:     sectionMode(sp),
				PointIDs: model.Points(sp).IDs(),
			}
			trip.SectionIDs = append(trip.SectionIDs, sec.ID)
			sections = append(sections, sec)
		}
		trips = append(trips, trip)
	}
	return trips, sections
}

// SegmentCurrentTrips segments the filtered stream inside tq and stores the result.
// tq is first widened to whole stored trips, so a trip is never cut by the window.
// Records from an earlier run over the same points are overwritten in place, and
// stored trips and sections inside the window that this run no longer yields are
// deleted along with their smoothing.
func SegmentCurrentTrips(ctx context.Context, st store.Store, user string, tq store.TimeQuery, cfg Config) ([]model.Trip, []model.Section, error) {
	stored, err := store.GetTrips(ctx, st, user)
	if err != nil {
		return nil, nil, fmt.Errorf("read stored trips: %w", err)
	}
	tq = alignWindow(tq, stored)

	points, err := st.Points(ctx, user, store.StreamFilteredLocation, tq)
	if err != nil {
		return nil, nil, fmt.Errorf("read filtered points: %w", err)
	}
	trips, sections := Segment(user, points, cfg)

	dropped, err := dropStale(ctx, st, user, tq, stored, trips, sections)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	for _, s := range sections {
		if err := store.PutSection(ctx, st, s, now); err != nil {
			return nil, nil, err
		}
	}
	for _, t := range trips {
		if err := store.PutTrip(ctx, st, t, now); err != nil {
			return nil, nil, err
		}
	}
	log.Info().
		Str("cat", user).
		Int("points", len(points)).
		Int("trips", len(trips)).
		Int("sections", len(sections)).
		Int("dropped", dropped).
		Msg("segmented")
	return trips, sections, nil
}

// alignWindow stretches tq out to the ends of any stored trip it cuts through.
// Stored trips never overlap, so one pass in start order is enough.
func alignWindow(tq store.TimeQuery, stored []model.Trip) store.TimeQuery {
	for _, t := range stored {
		if t.StartTs < tq.Start && t.EndTs >= tq.Start {
			tq.Start = t.StartTs
		}
		if tq.End != 0 && t.StartTs <= tq.End && t.EndTs > tq.End {
			tq.End = t.EndTs
		}
	}
	return tq
}

// dropStale deletes the stored trips and sections overlapping tq that are not
// among the fresh ones, and returns how many records went.
func dropStale(ctx context.Context, st store.Store, user string, tq store.TimeQuery, stored []model.Trip, trips []model.Trip, sections []model.Section) (int, error) {
	fresh := make(map[string]bool, len(trips)+len(sections))
	for _, t := range trips {
		fresh[t.ID] = true
	}
	for _, s := range sections {
		fresh[s.ID] = true
	}

	gone := map[string]bool{}
	dropSection := func(id string) error {
		if fresh[id] || gone[id] {
			return nil
		}
		gone[id] = true
		return store.DeleteSection(ctx, st, user, id)
	}

	for _, t := range stored {
		if fresh[t.ID] || !tq.Overlaps(t.StartTs, t.EndTs) {
			continue
		}
		for _, id := range t.SectionIDs {
			if err := dropSection(id); err != nil {
				return len(gone), err
			}
		}
		if err := store.DeleteTrip(ctx, st, user, t.ID); err != nil {
			return len(gone), err
		}
		gone[t.ID] = true
	}

	// sections of a trip that was kept but re-cut differently
	secs, err := store.GetSections(ctx, st, user)
	if err != nil {
		return len(gone), fmt.Errorf("read stored sections: %w", err)
	}
	for _, s := range secs {
		if !tq.Overlaps(s.StartTs, s.EndTs) {
			continue
		}
		if err := dropSection(s.ID); err != nil {
			return len(gone), err
		}
	}
	return len(gone), nil
}
