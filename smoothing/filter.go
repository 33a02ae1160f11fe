package smoothing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rotblauer/catTrips/model"
	"github.com/rotblauer/catTrips/outlier"
	"github.com/rotblauer/catTrips/store"
)

// Config bundles the two halves of jump detection.
type Config struct {
	Outlier outlier.Boxplot `koanf:"outlier"`
	Zigzag  Zigzag          `koanf:"zigzag"`
}

func DefaultConfig() Config {
	return Config{Outlier: outlier.DefaultBoxplot(), Zigzag: DefaultZigzag()}
}

// Smooth runs estimation and filtering over one section's points, which must be time ordered.
func Smooth(user, sectionID string, points []model.Point, cfg Config) model.SmoothingResult {
	derived := WithMotion(points)
	threshold := cfg.Outlier.Threshold(outlier.SectionSpeeds(derived))
	res := cfg.Zigzag.Filter(derived, threshold)
	return model.SmoothingResult{
		SectionID:     sectionID,
		UserID:        user,
		DeletedPoints: res.DeletedIDs(derived),
		ThresholdUsed: threshold,
		OutlierAlgo:   outlier.Name,
		FilteringAlgo: Name,
	}
}

// FilterJumps smooths one stored section and writes its result, replacing any earlier one.
func FilterJumps(ctx context.Context, st store.Store, user, sectionID string, cfg Config) (model.SmoothingResult, error) {
	sec, err := store.GetSection(ctx, st, user, sectionID)
	if err != nil {
		return model.SmoothingResult{}, fmt.Errorf("load section %s: %w", sectionID, err)
	}
	points, err := store.SectionPoints(ctx, st, user, sec)
	if err != nil {
		return model.SmoothingResult{}, fmt.Errorf("load points for section %s: %w", sectionID, err)
	}

	result := Smooth(user, sectionID, points, cfg)
	if err := store.PutSmoothing(ctx, st, result, time.Now()); err != nil {
		return result, fmt.Errorf("save smoothing for section %s: %w", sectionID, err)
	}
	log.Debug().
		Str("cat", user).
		Str("section", sectionID).
		Int("points", len(points)).
		Int("deleted", len(result.DeletedPoints)).
		Float64("threshold", result.ThresholdUsed).
		Msg("filtered jumps")
	return result, nil
}

// CleanedPoints is a section's points without the ones its smoothing result deleted.
// A section that was never smoothed comes back whole.
func CleanedPoints(ctx context.Context, st store.Store, user, sectionID string) ([]model.Point, error) {
	sec, err := store.GetSection(ctx, st, user, sectionID)
	if err != nil {
		return nil, fmt.Errorf("load section %s: %w", sectionID, err)
	}
	points, err := store.SectionPoints(ctx, st, user, sec)
	if err != nil {
		return nil, err
	}
	res, err := store.GetSmoothing(ctx, st, user, sectionID)
	if errors.Is(err, store.ErrNotFound) {
		return points, nil
	}
	if err != nil {
		return nil, err
	}
	return model.Points(points).Without(res.DeletedPoints), nil
}
