// Package config loads catTrips settings: built in defaults, then an optional yaml file,
// then CATTRIPS_ environment variables. Later layers win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rotblauer/catTrips/logging"
	"github.com/rotblauer/catTrips/segment"
	"github.com/rotblauer/catTrips/smoothing"
	"github.com/rotblauer/catTrips/tourmodel"
)

const (
	// PathEnvVar names the config file when no path is given.
	PathEnvVar = "CATTRIPS_CONFIG"

	// EnvPrefix marks the variables that override settings.
	// CATTRIPS_SEGMENT__DWELL_DURATION=5m sets segment.dwell_duration.
	EnvPrefix = "CATTRIPS_"
)

// DefaultPaths are tried in order when neither a path nor PathEnvVar is set.
var DefaultPaths = []string{
	"cattrips.yaml",
	"cattrips.yml",
	"/etc/cattrips/config.yaml",
}

type Config struct {
	Logging   logging.Config         `koanf:"logging"`
	Store     StoreConfig            `koanf:"store"`
	Accuracy  segment.AccuracyConfig `koanf:"accuracy"`
	Segment   segment.Config         `koanf:"segment"`
	Smoothing smoothing.Config       `koanf:"smoothing"`
	TourModel tourmodel.Config       `koanf:"tour_model"`
	Layers    LayersConfig           `koanf:"layers"`
	Server    ServerConfig           `koanf:"server"`
	Pipeline  PipelineConfig         `koanf:"pipeline"`
}

type StoreConfig struct {
	// Path of the bolt file.
	Path string `koanf:"path"`
	// Timeout waiting for the file lock.
	Timeout time.Duration `koanf:"timeout"`
}

type LayersConfig struct {
	// Dir is where places.json.gz and the section lines get written.
	Dir string `koanf:"dir"`
	// Epsilon in degrees for RDP simplification of section lines. Zero keeps every point.
	Epsilon float64 `koanf:"epsilon"`
}

type ServerConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

type PipelineConfig struct {
	// Workers is how many cats get processed at once.
	Workers int `koanf:"workers"`
	// Interval between runs over every cat when serving. Zero runs once.
	Interval time.Duration `koanf:"interval"`
}

// Default is the configuration before any file or environment is applied.
func Default() *Config {
	return &Config{
		Logging:   logging.DefaultConfig(),
		Store:     StoreConfig{Path: "db/trips.db", Timeout: time.Second},
		Accuracy:  segment.DefaultAccuracyConfig(),
		Segment:   segment.DefaultConfig(),
		Smoothing: smoothing.DefaultConfig(),
		TourModel: tourmodel.DefaultConfig(),
		Layers:    LayersConfig{Dir: "db/layers", Epsilon: 0.00001},
		Server:    ServerConfig{Addr: ":3001"},
		Pipeline:  PipelineConfig{Workers: 4, Interval: 10 * time.Minute},
	}
}

// Load reads the layered configuration. path may be empty, in which case
// PathEnvVar and then DefaultPaths are consulted; a missing default file is fine,
// an explicitly named one that cannot be read is not.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func findFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envKey maps CATTRIPS_TOUR_MODEL__PLACES__RADIUS to tour_model.places.radius.
// The file path variable is not a setting.
func envKey(s string) string {
	if s == PathEnvVar {
		return ""
	}
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Store.Path == "" {
		errs = append(errs, errors.New("store.path is required"))
	}
	if c.Accuracy.MaxAccuracy < 0 {
		errs = append(errs, errors.New("accuracy.max_accuracy must not be negative"))
	}
	if c.Segment.DwellDuration <= 0 {
		errs = append(errs, errors.New("segment.dwell_duration must be positive"))
	}
	if c.Segment.DwellDistance <= 0 {
		errs = append(errs, errors.New("segment.dwell_distance must be positive"))
	}
	if c.Segment.SignalLossSpeed < 0 {
		errs = append(errs, errors.New("segment.signal_loss_speed must not be negative"))
	}
	if c.Segment.SectionGapDuration <= 0 || c.Segment.SectionGapDistance <= 0 {
		errs = append(errs, errors.New("segment section gaps must be positive"))
	}
	if c.Smoothing.Outlier.Multiplier <= 0 {
		errs = append(errs, errors.New("smoothing.outlier.multiplier must be positive"))
	}
	if c.Smoothing.Outlier.Ceiling <= 0 {
		errs = append(errs, errors.New("smoothing.outlier.ceiling must be positive"))
	}
	if c.Smoothing.Zigzag.MaxIterations <= 0 {
		errs = append(errs, errors.New("smoothing.zigzag.max_iterations must be positive"))
	}
	if _, err := smoothing.ParseTieBreak(string(c.Smoothing.Zigzag.TieBreak)); err != nil {
		errs = append(errs, fmt.Errorf("smoothing.zigzag.tie_break: %w", err))
	}
	if c.TourModel.Places.Radius <= 0 {
		errs = append(errs, errors.New("tour_model.places.radius must be positive"))
	}
	if c.Layers.Epsilon < 0 {
		errs = append(errs, errors.New("layers.epsilon must not be negative"))
	}
	if c.Pipeline.Workers < 1 {
		errs = append(errs, errors.New("pipeline.workers must be at least 1"))
	}
	if c.Pipeline.Interval < 0 {
		errs = append(errs, errors.New("pipeline.interval must not be negative"))
	}
	return errors.Join(errs...)
}
