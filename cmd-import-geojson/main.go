// Command cmd-import-geojson reads a RideWithGPS GeoJSON export on stdin and
// appends its points to a cat's raw location stream.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/trackpoints/trackPoint"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/rotblauer/catTrips/config"
	"github.com/rotblauer/catTrips/logging"
	"github.com/rotblauer/catTrips/model"
	"github.com/rotblauer/catTrips/store"
)

func main() {
	var configPath, cat, uuid, activity string
	flag.StringVar(&configPath, "config", "", "path to yaml config")
	flag.StringVar(&cat, "cat", "", "cat the points belong to")
	flag.StringVar(&uuid, "uuid", "ia_elemnt_roam_2023", "device uuid to stamp on every point")
	flag.StringVar(&activity, "activity", "Bike", "activity to put in the notes")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logging.Init(cfg.Logging)
	if cat == "" {
		log.Fatal().Msg("-cat is required")
	}

	read, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Fatal().Err(err).Msg("read stdin")
	}
	tps, err := rideWithGPSTrackPoints(read, cat, uuid, activity)
	if err != nil {
		log.Fatal().Err(err).Msg("decode")
	}

	points := make([]model.Point, 0, len(tps))
	for _, tp := range tps {
		points = append(points, model.FromTrackPoint(tp))
	}

	db, err := store.OpenBolt(cfg.Store.Path, cfg.Store.Timeout)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	defer db.Close()
	n, err := db.AppendPoints(context.Background(), cat, store.StreamLocation, points)
	if err != nil {
		log.Fatal().Err(err).Msg("append")
	}
	log.Info().Str("cat", cat).Int("decoded", len(points)).Int("new", n).Msg("imported")
}

// rideWithGPSTrackPoints decodes an export holding a single LineString feature
// with a coordTimes property lined up with its coordinates.
func rideWithGPSTrackPoints(read []byte, cat, uuid, activity string) ([]trackPoint.TrackPoint, error) {
	fc, err := geojson.UnmarshalFeatureCollection(read)
	if err != nil {
		return nil, err
	}
	if len(fc.Features) != 1 {
		return nil, fmt.Errorf("RideWithGPS exports are expected to have exactly one feature, got %d", len(fc.Features))
	}
	feature := fc.Features[0]
	lineStringOrb, ok := feature.Geometry.(orb.LineString)
	if !ok {
		return nil, errors.New("RideWithGPS exports are expected to have a LineString geometry")
	}

	coordTimes, ok := feature.Properties["coordTimes"].([]interface{})
	if !ok {
		return nil, errors.New("missing coordTimes")
	}
	if len(coordTimes) != len(lineStringOrb) {
		return nil, fmt.Errorf("mismatch between number of points in LineString (%d) and coordTimes (%d)", len(lineStringOrb), len(coordTimes))
	}

	// orb drops the third coordinate, so elevation comes from the raw json.
	rawCoords := gjson.GetBytes(read, "features.0.geometry.coordinates").Array()
	if len(rawCoords) != len(lineStringOrb) {
		return nil, fmt.Errorf("mismatch between number of points in LineString (%d) and raw coordinates (%d)", len(lineStringOrb), len(rawCoords))
	}

	notes := fmt.Sprintf(`{"activity": %q}`, activity)
	out := make([]trackPoint.TrackPoint, 0, len(lineStringOrb))
	for i, coord := range lineStringOrb {
		s, _ := coordTimes[i].(string)
		trackTime, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		var elevation float64
		if c := rawCoords[i].Array(); len(c) == 3 {
			elevation = c[2].Float()
		}
		out = append(out, trackPoint.TrackPoint{
			Uuid:      uuid,
			Name:      cat,
			Lat:       coord.Lat(),
			Lng:       coord.Lon(),
			Elevation: elevation,
			Speed:     -1,
			Heading:   -1,
			HeartRate: -1,
			Time:      trackTime,
			Notes:     notes,
		})
	}
	return out, nil
}
