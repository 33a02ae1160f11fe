package layers

import (
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kpawlik/geojson"
	"github.com/rs/zerolog/log"

	"github.com/rotblauer/catTrips/model"
	"github.com/rotblauer/catTrips/store"
)

// PlacesFile is the places layer inside a layers dir.
const PlacesFile = "places.json.gz"

// PlaceFeature is a common place as a point feature.
func PlaceFeature(cp model.CommonPlace) *geojson.Feature {
	pt := geojson.NewPoint(geojson.Coordinate{
		geojson.CoordType(cp.Centroid.Lng),
		geojson.CoordType(cp.Centroid.Lat),
	})
	props := map[string]interface{}{
		"Name":        cp.UserID,
		"PlaceID":     cp.ID,
		"MemberCount": cp.MemberCount,
	}
	if cp.Name != "" {
		props["Title"] = cp.Name
	}
	return geojson.NewFeature(pt, props, cp.ID)
}

// WritePlaces replaces the places layer at path with features, one per line.
// It writes to a sibling file first and renames it over path.
func WritePlaces(path string, features []*geojson.Feature) error {
	wip := path + ".wip"
	pgz, err := createGZ(wip, gzip.BestCompression)
	if err != nil {
		return err
	}
	for i, f := range features {
		if f == nil {
			continue
		}
		if err := pgz.JE().Encode(f); err != nil {
			pgz.Close()
			return fmt.Errorf("encode place %d: %w", i, err)
		}
	}
	if err := pgz.Close(); err != nil {
		return err
	}
	return os.Rename(wip, path)
}

// PlacesLayer writes the common places of every cat into dir/places.json.gz.
// It returns the path written and how many places went into it.
func PlacesLayer(ctx context.Context, st store.Store, dir string) (string, int, error) {
	users, err := st.Users(ctx)
	if err != nil {
		return "", 0, err
	}
	var features []*geojson.Feature
	for _, u := range users {
		tm, err := store.GetTourModel(ctx, st, u)
		if err != nil {
			return "", 0, fmt.Errorf("tour model of %s: %w", u, err)
		}
		for _, cp := range tm.CommonPlaces {
			features = append(features, PlaceFeature(cp))
		}
	}
	path := filepath.Join(dir, PlacesFile)
	if err := WritePlaces(path, features); err != nil {
		return "", 0, err
	}
	log.Info().Str("path", path).Int("places", len(features)).Int("cats", len(users)).Msg("places layer")
	return path, len(features), nil
}

// PlaceLine is one decoded line of a places layer.
type PlaceLine struct {
	ID       string `json:"id"`
	Geometry struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// ReadPlaces reads back a places layer.
func ReadPlaces(path string) ([]PlaceLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readGZLines[PlaceLine](f)
}
