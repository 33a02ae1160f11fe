// Package pipeline runs the analysis stages over a cat's points, in order:
// accuracy filter, segmentation, jump smoothing per section, tour model.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/rotblauer/catTrips/config"
	"github.com/rotblauer/catTrips/logging"
	"github.com/rotblauer/catTrips/segment"
	"github.com/rotblauer/catTrips/smoothing"
	"github.com/rotblauer/catTrips/store"
	"github.com/rotblauer/catTrips/tourmodel"
)

// Report sums up one run for one cat.
type Report struct {
	User        string  `json:"user"`
	Points      int     `json:"points"`
	Trips       int     `json:"trips"`
	Sections    int     `json:"sections"`
	Smoothed    int     `json:"smoothed"`
	Deleted     int     `json:"deleted"`
	FailedSecs  int     `json:"failed_sections"`
	Places      int     `json:"places"`
	CommonTrips int     `json:"common_trips"`
	Took        float64 `json:"took_seconds"`
	Err         string  `json:"error,omitempty"`
}

// running holds one *semaphore.Weighted per cat.
var running sync.Map

// lockCat waits until no other run holds user, or ctx is done.
func lockCat(ctx context.Context, user string) (release func(), err error) {
	v, _ := running.LoadOrStore(user, semaphore.NewWeighted(1))
	sem := v.(*semaphore.Weighted)
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { sem.Release(1) }, nil
}

// RunUser runs every stage for user over the points in tq.
// Runs for the same cat wait on each other, wherever they come from.
// A section that fails to smooth is logged and skipped; the other stages
// stop the run on error.
func RunUser(ctx context.Context, st store.Store, user string, tq store.TimeQuery, cfg *config.Config) (Report, error) {
	rep := Report{User: user}
	release, err := lockCat(ctx, user)
	if err != nil {
		return rep, fmt.Errorf("wait for running %s: %w", user, err)
	}
	defer release()

	started := time.Now()
	clog := logging.Cat(user)

	n, err := segment.FilterAccuracyStream(ctx, st, user, tq, cfg.Accuracy)
	if err != nil {
		return rep, fmt.Errorf("filter accuracy: %w", err)
	}
	rep.Points = n

	trips, sections, err := segment.SegmentCurrentTrips(ctx, st, user, tq, cfg.Segment)
	if err != nil {
		return rep, fmt.Errorf("segment: %w", err)
	}
	rep.Trips, rep.Sections = len(trips), len(sections)

	for _, s := range sections {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		res, err := smoothing.FilterJumps(ctx, st, user, s.ID, cfg.Smoothing)
		if err != nil {
			clog.Warn().Err(err).Str("section", s.ID).Msg("smoothing failed, skipping section")
			rep.FailedSecs++
			continue
		}
		rep.Smoothed++
		rep.Deleted += len(res.DeletedPoints)
	}

	tm, err := tourmodel.MakeTourModel(ctx, st, user, cfg.TourModel)
	if err != nil {
		return rep, fmt.Errorf("tour model: %w", err)
	}
	rep.Places, rep.CommonTrips = len(tm.CommonPlaces), len(tm.CommonTrips)
	rep.Took = time.Since(started).Seconds()

	clog.Info().
		Int("points", rep.Points).
		Int("trips", rep.Trips).
		Int("sections", rep.Sections).
		Int("deleted", rep.Deleted).
		Int("places", rep.Places).
		Dur("took", time.Since(started)).
		Msg("pipeline done")
	return rep, nil
}

// RunAll runs every cat in the store, cfg.Pipeline.Workers at a time.
// One cat failing does not stop the others; its report carries the error.
// done, if not nil, is called once per cat as it finishes, from the worker goroutine.
func RunAll(ctx context.Context, st store.Store, tq store.TimeQuery, cfg *config.Config, done func(Report)) ([]Report, error) {
	users, err := st.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cats: %w", err)
	}

	reports := make([]Report, len(users))
	g, gctx := errgroup.WithContext(ctx)
	workers := cfg.Pipeline.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)
	for i, user := range users {
		i, user := i, user
		g.Go(func() error {
			rep, err := RunUser(gctx, st, user, tq, cfg)
			if err != nil {
				log.Error().Err(err).Str("cat", user).Msg("pipeline failed")
				rep.Err = err.Error()
			}
			reports[i] = rep
			if done != nil {
				done(rep)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return reports, err
	}
	return reports, ctx.Err()
}
