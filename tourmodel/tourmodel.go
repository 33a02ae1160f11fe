package tourmodel

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/geo/s2"
	"github.com/rs/zerolog/log"

	"github.com/rotblauer/catTrips/geo"
	"github.com/rotblauer/catTrips/model"
	"github.com/rotblauer/catTrips/store"
)

// MakeTourModel rebuilds the tour model of user from all the trips on record
// and replaces the stored one. Places are named when cfg carries a maps key.
func MakeTourModel(ctx context.Context, st store.Store, user string, cfg Config) (model.TourModel, error) {
	var namer Namer
	if cfg.GoogleMapsAPIKey != "" {
		gn, err := NewGoogleNamer(cfg.GoogleMapsAPIKey)
		if err != nil {
			return model.TourModel{}, err
		}
		namer = gn
	}
	return MakeTourModelNamed(ctx, st, user, cfg, namer)
}

// MakeTourModelNamed is MakeTourModel with an explicit namer, which may be nil.
func MakeTourModelNamed(ctx context.Context, st store.Store, user string, cfg Config, namer Namer) (model.TourModel, error) {
	trips, err := store.GetTrips(ctx, st, user)
	if err != nil {
		return model.TourModel{}, fmt.Errorf("read trips: %w", err)
	}
	tm := Build(user, trips, cfg)
	if namer != nil {
		NamePlaces(ctx, namer, &tm)
	}
	if err := store.PutTourModel(ctx, st, tm, time.Now()); err != nil {
		return tm, err
	}
	if ci, ok := st.(store.CellIndex); ok {
		cells := make(map[string]s2.CellID, len(tm.CommonPlaces))
		for _, cp := range tm.CommonPlaces {
			cells[cp.ID] = geo.CellID(cp.Centroid)
		}
		if err := ci.ReplaceCells(ctx, user, store.KeyTourModel, cells); err != nil {
			return tm, fmt.Errorf("index places: %w", err)
		}
	}
	log.Info().
		Str("cat", user).
		Int("trips", len(trips)).
		Int("places", len(tm.CommonPlaces)).
		Int("common_trips", len(tm.CommonTrips)).
		Msg("tour model")
	return tm, nil
}

// GetTourModel reads the stored tour model; a cat without one gets an empty model.
func GetTourModel(ctx context.Context, st store.Store, user string) (model.TourModel, error) {
	return store.GetTourModel(ctx, st, user)
}

// PlacesInCell returns the common places whose centroid falls inside c.
// Stores without a cell index are scanned.
func PlacesInCell(ctx context.Context, st store.Store, user string, c s2.CellID) ([]model.CommonPlace, error) {
	tm, err := GetTourModel(ctx, st, user)
	if err != nil {
		return nil, err
	}
	ci, ok := st.(store.CellIndex)
	if !ok {
		var out []model.CommonPlace
		for _, cp := range tm.CommonPlaces {
			if c.Contains(geo.CellID(cp.Centroid)) {
				out = append(out, cp)
			}
		}
		return out, nil
	}
	ids, err := ci.InCell(ctx, user, store.KeyTourModel, c)
	if err != nil {
		return nil, err
	}
	out := make([]model.CommonPlace, 0, len(ids))
	for _, id := range ids {
		if cp, ok := tm.Place(id); ok {
			out = append(out, cp)
		}
	}
	return out, nil
}
