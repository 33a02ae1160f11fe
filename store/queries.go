package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/rotblauer/catTrips/model"
)

func put(ctx context.Context, st Store, user, key, entityID string, v interface{}, now time.Time) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	e := Entry{Metadata: model.NewResultMetadata(key, now), Data: data}
	if err := st.PutEntry(ctx, user, key, entityID, e); err != nil {
		return fmt.Errorf("put %s/%s: %w", key, entityID, err)
	}
	return nil
}

func get(ctx context.Context, st Store, user, key, entityID string, v interface{}) error {
	e, err := st.Entry(ctx, user, key, entityID)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s/%s: %w", key, entityID, err)
	}
	return nil
}

func PutTrip(ctx context.Context, st Store, t model.Trip, now time.Time) error {
	return put(ctx, st, t.UserID, KeyRawTrip, t.ID, t, now)
}

func GetTrip(ctx context.Context, st Store, user, id string) (model.Trip, error) {
	var t model.Trip
	err := get(ctx, st, user, KeyRawTrip, id, &t)
	return t, err
}

// GetTrips returns every trip of user ordered by start time.
func GetTrips(ctx context.Context, st Store, user string) ([]model.Trip, error) {
	es, err := st.Entries(ctx, user, KeyRawTrip)
	if err != nil {
		return nil, err
	}
	trips := make(model.Trips, 0, len(es))
	for _, e := range es {
		var t model.Trip
		if err := json.Unmarshal(e.Data, &t); err != nil {
			return nil, fmt.Errorf("decode trip: %w", err)
		}
		trips = append(trips, t)
	}
	sort.Stable(trips)
	return trips, nil
}

// DeleteTrip drops a trip record. Its sections are left alone.
func DeleteTrip(ctx context.Context, st Store, user, id string) error {
	if err := st.DeleteEntry(ctx, user, KeyRawTrip, id); err != nil {
		return fmt.Errorf("delete trip %s: %w", id, err)
	}
	return nil
}

func PutSection(ctx context.Context, st Store, s model.Section, now time.Time) error {
	return put(ctx, st, s.UserID, KeyRawSection, s.ID, s, now)
}

func GetSection(ctx context.Context, st Store, user, id string) (model.Section, error) {
	var s model.Section
	err := get(ctx, st, user, KeyRawSection, id, &s)
	return s, err
}

// DeleteSection drops a section along with its smoothing result.
func DeleteSection(ctx context.Context, st Store, user, id string) error {
	for _, key := range []string{KeySmoothing, KeyRawSection} {
		if err := st.DeleteEntry(ctx, user, key, id); err != nil {
			return fmt.Errorf("delete %s/%s: %w", key, id, err)
		}
	}
	return nil
}

// GetSections returns every section of user ordered by start time.
func GetSections(ctx context.Context, st Store, user string) ([]model.Section, error) {
	es, err := st.Entries(ctx, user, KeyRawSection)
	if err != nil {
		return nil, err
	}
	secs := make(model.Sections, 0, len(es))
	for _, e := range es {
		var s model.Section
		if err := json.Unmarshal(e.Data, &s); err != nil {
			return nil, fmt.Errorf("decode section: %w", err)
		}
		secs = append(secs, s)
	}
	sort.Stable(secs)
	return secs, nil
}

// GetTripSections returns the sections of a trip in the trip's own order.
func GetTripSections(ctx context.Context, st Store, user string, trip model.Trip) ([]model.Section, error) {
	out := make([]model.Section, 0, len(trip.SectionIDs))
	for _, id := range trip.SectionIDs {
		s, err := GetSection(ctx, st, user, id)
		if err != nil {
			return nil, fmt.Errorf("section %s of trip %s: %w", id, trip.ID, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// SectionPoints reads a section's member points back out of the filtered stream.
func SectionPoints(ctx context.Context, st Store, user string, s model.Section) ([]model.Point, error) {
	ps, err := st.Points(ctx, user, StreamFilteredLocation, TimeQuery{Start: s.StartTs, End: s.EndTs})
	if err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(s.PointIDs))
	for _, id := range s.PointIDs {
		want[id] = true
	}
	out := make([]model.Point, 0, len(s.PointIDs))
	for _, p := range ps {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func PutSmoothing(ctx context.Context, st Store, r model.SmoothingResult, now time.Time) error {
	return put(ctx, st, r.UserID, KeySmoothing, r.SectionID, r, now)
}

func GetSmoothing(ctx context.Context, st Store, user, sectionID string) (model.SmoothingResult, error) {
	var r model.SmoothingResult
	err := get(ctx, st, user, KeySmoothing, sectionID, &r)
	return r, err
}

func PutTourModel(ctx context.Context, st Store, tm model.TourModel, now time.Time) error {
	return put(ctx, st, tm.UserID, KeyTourModel, tm.UserID, tm, now)
}

// GetTourModel returns an empty model for a user that has none yet.
func GetTourModel(ctx context.Context, st Store, user string) (model.TourModel, error) {
	var tm model.TourModel
	err := get(ctx, st, user, KeyTourModel, user, &tm)
	if errors.Is(err, ErrNotFound) {
		return model.EmptyTourModel(user), nil
	}
	if err != nil {
		return model.TourModel{}, err
	}
	return tm, nil
}
