package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rotblauer/catTrips/api"
	"github.com/rotblauer/catTrips/config"
	"github.com/rotblauer/catTrips/layers"
	"github.com/rotblauer/catTrips/logging"
	"github.com/rotblauer/catTrips/model"
	"github.com/rotblauer/catTrips/pipeline"
	"github.com/rotblauer/catTrips/store"
)

func main() {
	var configPath string
	var serve, once bool
	var placesLayer, sectionsLayer, tippe bool
	var since time.Duration

	flag.StringVar(&configPath, "config", "", "path to yaml config (default $"+config.PathEnvVar+" or ./cattrips.yaml)")
	flag.BoolVar(&serve, "serve", false, "serve the api, running the pipeline every pipeline.interval")
	flag.BoolVar(&once, "once", false, "run the pipeline over every cat once and exit")
	flag.DurationVar(&since, "since", 0, "only look at points newer than this, eg. 72h (default everything)")
	flag.BoolVar(&placesLayer, "places-layer", false, "write places.json.gz after each run")
	flag.BoolVar(&sectionsLayer, "sections-layer", false, "write a sections geojson per cat after each run")
	flag.BoolVar(&tippe, "tippe", false, "run tippecanoe on the places layer")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logging.Init(cfg.Logging)
	if serve {
		cfg.Server.Enabled = true
	}

	db, err := store.OpenBolt(cfg.Store.Path, cfg.Store.Timeout)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("open db")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := api.NewServer(db, cfg)
	lay := layerOpts{places: placesLayer, sections: sectionsLayer, tippe: tippe}

	run := func() {
		reports, err := pipeline.RunAll(ctx, db, timeWindow(since, time.Now()), cfg, srv.Notify)
		if err != nil {
			log.Error().Err(err).Msg("run")
			return
		}
		writeLayers(ctx, db, cfg, reports, lay)
	}

	if once || !cfg.Server.Enabled {
		run()
		return
	}

	go func() {
		run()
		if cfg.Pipeline.Interval <= 0 {
			return
		}
		ticker := time.NewTicker(cfg.Pipeline.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				run()
			}
		}
	}()

	hs := &http.Server{Addr: cfg.Server.Addr, Handler: srv.NewRouter()}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Close()
		hs.Shutdown(shutCtx)
	}()
	log.Info().Str("addr", cfg.Server.Addr).Msg("serving")
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("serve")
	}
}

// timeWindow is everything when since is zero, else the last since of it.
func timeWindow(since time.Duration, now time.Time) store.TimeQuery {
	if since <= 0 {
		return store.AllTime
	}
	return store.TimeQuery{Start: model.TsFromTime(now.Add(-since))}
}

type layerOpts struct {
	places, sections, tippe bool
}

func writeLayers(ctx context.Context, st store.Store, cfg *config.Config, reports []pipeline.Report, opts layerOpts) {
	dir := cfg.Layers.Dir
	if opts.sections {
		for _, r := range reports {
			if r.Err != "" {
				continue
			}
			if _, err := layers.WriteSections(ctx, st, r.User, dir, cfg.Layers.Epsilon); err != nil {
				log.Error().Err(err).Str("cat", r.User).Msg("sections layer")
			}
		}
	}
	if !opts.places {
		return
	}
	placesJSONGZ, n, err := layers.PlacesLayer(ctx, st, dir)
	if err != nil {
		log.Error().Err(err).Msg("places layer")
		return
	}
	if !opts.tippe || n == 0 {
		return
	}
	wipTilesDB := filepath.Join(dir, "places.mbtiles.wip")
	if err := runTippeLite(wipTilesDB, placesJSONGZ, "catTrackPlace"); err != nil {
		log.Error().Err(err).Msg("tippe/places")
		return
	}
	if err := os.Rename(wipTilesDB, filepath.Join(dir, "places.mbtiles")); err != nil {
		log.Error().Err(err).Msg("tippe/places")
	}
}

func runTippeLite(out, in string, tilesetname string) error {
	tippCmd, tippargs, err := getTippyProcessLite(out, in, tilesetname)
	if err != nil {
		return err
	}

	log.Info().Str("tileset", tilesetname).Str("cmd", tippCmd).Strs("args", tippargs).Msg("tippe")
	tippmycanoe := exec.Command(tippCmd, tippargs...)
	tippmycanoe.Stdout = os.Stdout
	tippmycanoe.Stderr = os.Stderr
	return tippmycanoe.Run()
}

// getTippyProcessLite builds a tippecanoe call for the places layer. There are
// few enough places that every one is kept at every zoom.
func getTippyProcessLite(out string, in string, tilesetname string) (tippCmd string, tippargs []string, err error) {
	tippCmd = "/usr/local/bin/tippecanoe"
	tippargs = []string{
		"-r1",
		"-Z", "3",
		"-z", "16",
		"-l", tilesetname,
		"-n", tilesetname,
		"-o", out,
		"--force",
		"-P", in,
	}

	// 'in' should be an existing file
	if _, err = os.Stat(in); err != nil {
		return
	}

	if p, e := exec.LookPath("tippecanoe"); e == nil {
		tippCmd = p
	}
	return
}
