package layers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/deet/simpleline"
	"github.com/paulmach/orb"
	orbjson "github.com/paulmach/orb/geojson"
	"github.com/rotblauer/trackpoints/trackPoint"
	"github.com/rs/zerolog/log"

	"github.com/rotblauer/catTrips/model"
	"github.com/rotblauer/catTrips/smoothing"
	"github.com/rotblauer/catTrips/store"
)

// Simplify drops points RDP says the line does not need. epsilon is in degrees;
// zero, or fewer than three points, returns points unchanged.
func Simplify(user string, points []model.Point, epsilon float64) []model.Point {
	if epsilon <= 0 || len(points) < 3 {
		return points
	}
	var tpsSimple []simpleline.Point
	byID := make(map[string]model.Point, len(points))
	for _, p := range points {
		tpsSimple = append(tpsSimple, model.ToTrackPoint(user, p))
		byID[p.ID] = p
	}
	res, err := simpleline.RDP(tpsSimple, epsilon, simpleline.Euclidean, true)
	if err != nil {
		log.Warn().Err(err).Str("cat", user).Msg("simplify failed, keeping every point")
		return points
	}
	out := make([]model.Point, 0, len(res))
	for _, sp := range res {
		tp, ok := sp.(*trackPoint.TrackPoint)
		if !ok {
			continue
		}
		out = append(out, byID[tp.Uuid])
	}
	return out
}

// SectionFeature is a section's cleaned points as a line, simplified by epsilon.
func SectionFeature(ctx context.Context, st store.Store, user string, sec model.Section, epsilon float64) (*orbjson.Feature, error) {
	points, err := smoothing.CleanedPoints(ctx, st, user, sec.ID)
	if err != nil {
		return nil, err
	}
	simple := Simplify(user, points, epsilon)
	ls := make(orb.LineString, len(simple))
	for i, p := range simple {
		ls[i] = orb.Point{p.Lng, p.Lat}
	}
	f := orbjson.NewFeature(ls)
	f.ID = sec.ID
	f.Properties["Name"] = user
	f.Properties["SectionID"] = sec.ID
	f.Properties["TripID"] = sec.TripID
	f.Properties["Activity"] = sec.Mode
	f.Properties["StartTs"] = sec.StartTs
	f.Properties["EndTs"] = sec.EndTs
	f.Properties["PointCount"] = len(points)
	return f, nil
}

// SectionsCollection holds a line for every section of user.
// A section that cannot be read is logged and left out.
func SectionsCollection(ctx context.Context, st store.Store, user string, epsilon float64) (*orbjson.FeatureCollection, error) {
	secs, err := store.GetSections(ctx, st, user)
	if err != nil {
		return nil, err
	}
	fc := orbjson.NewFeatureCollection()
	for _, s := range secs {
		f, err := SectionFeature(ctx, st, user, s, epsilon)
		if err != nil {
			log.Warn().Err(err).Str("cat", user).Str("section", s.ID).Msg("section line")
			continue
		}
		fc.Append(f)
	}
	return fc, nil
}

// WriteSections writes dir/sections-<user>.geojson and returns its path.
func WriteSections(ctx context.Context, st store.Store, user, dir string, epsilon float64) (string, error) {
	fc, err := SectionsCollection(ctx, st, user, epsilon)
	if err != nil {
		return "", err
	}
	b, err := fc.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("marshal sections of %s: %w", user, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("sections-%s.geojson", user))
	if err := os.WriteFile(path, b, 0644); err != nil {
		return "", err
	}
	log.Debug().Str("cat", user).Str("path", path).Int("sections", len(fc.Features)).Msg("sections layer")
	return path, nil
}
