// Package config holds the settings of the image-views tools, read from an
// optional YAML file and overridden by command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/image-views/internal/filter"
	"github.com/ironsheep/image-views/internal/kernel"
	"github.com/ironsheep/image-views/internal/viewset"
)

// DefaultCacheSize is the number of decoded files kept by the image cache.
const DefaultCacheSize = 16

// Config is the on-disk configuration.
//
// Example:
//
//	feature_level: filters
//	default_view: highlight
//	highlight_threshold: 0.25
//	edge_detector: canny
type Config struct {
	FeatureLevel       string  `yaml:"feature_level"`
	DefaultView        string  `yaml:"default_view"`
	HighlightThreshold float64 `yaml:"highlight_threshold"`
	ReduceColors       int     `yaml:"reduce_colors"`
	ClampMode          string  `yaml:"clamp_mode"`
	EdgeDetector       string  `yaml:"edge_detector"`
	Parallel           bool    `yaml:"parallel"`
	CacheSize          int     `yaml:"cache_size"`
	LogLevel           string  `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		FeatureLevel:       viewset.LevelFull.String(),
		DefaultView:        viewset.Edges.String(),
		HighlightThreshold: kernel.DefaultThreshold,
		ReduceColors:       viewset.DefaultReduceColors,
		ClampMode:          kernel.ClampIndependent.String(),
		EdgeDetector:       filter.Sobel.String(),
		CacheSize:          DefaultCacheSize,
		LogLevel:           log.InfoLevel.String(),
	}
}

// Load reads path on top of the defaults. Keys missing from the file keep
// their default value; unknown keys are an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field that has a restricted domain.
func (c Config) Validate() error {
	if _, err := c.ViewOptions(); err != nil {
		return err
	}
	if _, err := filter.ParseEdgeDetector(c.EdgeDetector); err != nil {
		return fmt.Errorf("edge_detector: %w", err)
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("cache_size: %w: %d < 1", viewset.ErrInvalidParameter, c.CacheSize)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// ViewOptions converts the view related settings. The Logger field is left
// for the caller to fill in.
func (c Config) ViewOptions() (viewset.Options, error) {
	level, err := viewset.ParseFeatureLevel(c.FeatureLevel)
	if err != nil {
		return viewset.Options{}, fmt.Errorf("feature_level: %w", err)
	}
	view, err := viewset.ParseName(c.DefaultView)
	if err != nil {
		return viewset.Options{}, fmt.Errorf("default_view: %w", err)
	}
	mode, err := kernel.ParseClampMode(c.ClampMode)
	if err != nil {
		return viewset.Options{}, fmt.Errorf("clamp_mode: %w", err)
	}

	opts := viewset.Options{
		Level:        level,
		DefaultView:  view,
		Threshold:    c.HighlightThreshold,
		ReduceColors: c.ReduceColors,
		ClampMode:    mode,
		Parallel:     c.Parallel,
	}
	if err := opts.Validate(); err != nil {
		return viewset.Options{}, err
	}
	return opts, nil
}

// Library builds the filter library selected by edge_detector.
func (c Config) Library() (*filter.Standard, error) {
	det, err := filter.ParseEdgeDetector(c.EdgeDetector)
	if err != nil {
		return nil, fmt.Errorf("edge_detector: %w", err)
	}
	return filter.NewStandard(det), nil
}

// Level returns the parsed log level, falling back to info.
func (c Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
