package segment

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/rotblauer/catTrips/model"
	"github.com/rotblauer/catTrips/store"
)

// DefaultMaxAccuracy in meters.
const DefaultMaxAccuracy = 100.0

type AccuracyConfig struct {
	MaxAccuracy float64 `koanf:"max_accuracy"`
}

func DefaultAccuracyConfig() AccuracyConfig {
	return AccuracyConfig{MaxAccuracy: DefaultMaxAccuracy}
}

// FilterAccuracy returns the time ordered points whose accuracy radius is within maxAccuracy.
// Invalid points go too, and of several points sharing a timestamp only the first is kept.
// An accuracy of zero means unknown and is let through.
func FilterAccuracy(points []model.Point, maxAccuracy float64) []model.Point {
	sorted := make(model.Points, len(points))
	copy(sorted, points)
	sort.Stable(sorted)

	out := make([]model.Point, 0, len(sorted))
	for _, p := range sorted {
		if !p.Valid() {
			continue
		}
		if maxAccuracy > 0 && p.Accuracy > maxAccuracy {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Ts == p.Ts {
			continue
		}
		out = append(out, p)
	}
	return out
}

// FilterAccuracyStream copies the good points of the raw location stream in tq
// into the filtered stream. It returns how many points passed.
func FilterAccuracyStream(ctx context.Context, st store.Store, user string, tq store.TimeQuery, cfg AccuracyConfig) (int, error) {
	raw, err := st.Points(ctx, user, store.StreamLocation, tq)
	if err != nil {
		return 0, fmt.Errorf("read raw points: %w", err)
	}
	kept := FilterAccuracy(raw, cfg.MaxAccuracy)
	if _, err := st.AppendPoints(ctx, user, store.StreamFilteredLocation, kept); err != nil {
		return 0, fmt.Errorf("write filtered points: %w", err)
	}
	log.Debug().Str("cat", user).Int("raw", len(raw)).Int("kept", len(kept)).Msg("accuracy filter")
	return len(kept), nil
}
