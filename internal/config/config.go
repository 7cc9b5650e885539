package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// FileName is the name of the configuration file inside an input directory.
const FileName = "config.json"

// Defaults for optional keys.
const (
	DefaultMaxSide     = 2048
	DefaultSearchRange = 20.0
	DefaultMemory      = 2
	DefaultMinPresence = 0.5
	DefaultBoxColor    = "#FF00FF"
	DefaultInputGlob   = "*.jpg"
)

// Group names the regex must define.
const (
	GroupWell = "WELL"
	GroupTime = "T"
)

// ErrMissingKey is returned when a required key is absent from the file.
var ErrMissingKey = errors.New("missing required config key")

// DefaultMeanPixel is the ImageNet BGR mean subtracted by caffe-style backbones.
var DefaultMeanPixel = []float64{103.939, 116.779, 123.68}

// DefaultExclude lists path substrings that mark previously written outputs.
var DefaultExclude = []string{"_detected"}

// Config is the per-run configuration read from config.json.
type Config struct {
	// Required
	Model     *string  `json:"model"`
	ImageSize *int     `json:"image_size"`
	Contrast  *float64 `json:"contrast"`
	Threshold *float64 `json:"threshold"`
	Regex     *string  `json:"regex"`

	// Optional
	MaxSide     *int      `json:"max_side,omitempty"`
	SearchRange *float64  `json:"search_range,omitempty"`
	Memory      *int      `json:"memory,omitempty"`
	MinPresence *float64  `json:"min_presence,omitempty"`
	BoxColor    *string   `json:"box_color,omitempty"`
	MeanPixel   []float64 `json:"mean_pixel,omitempty"`
	InputGlob   *string   `json:"input_glob,omitempty"`
	Exclude     []string  `json:"exclude,omitempty"`

	pattern *regexp.Regexp
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDir loads FileName from the given input directory.
func LoadDir(dir string) (*Config, error) {
	return Load(filepath.Join(dir, FileName))
}

// Validate checks that every required key is present and that values are in
// range. It compiles the regex as a side effect.
func (c *Config) Validate() error {
	switch {
	case c.Model == nil:
		return fmt.Errorf("%w: model", ErrMissingKey)
	case c.ImageSize == nil:
		return fmt.Errorf("%w: image_size", ErrMissingKey)
	case c.Contrast == nil:
		return fmt.Errorf("%w: contrast", ErrMissingKey)
	case c.Threshold == nil:
		return fmt.Errorf("%w: threshold", ErrMissingKey)
	case c.Regex == nil:
		return fmt.Errorf("%w: regex", ErrMissingKey)
	}

	if *c.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	if *c.ImageSize <= 0 {
		return fmt.Errorf("image_size must be positive, got %d", *c.ImageSize)
	}
	if *c.Contrast <= 0 {
		return fmt.Errorf("contrast must be positive, got %g", *c.Contrast)
	}
	if *c.Threshold < 0 || *c.Threshold > 1 {
		return fmt.Errorf("threshold must be between 0 and 1, got %g", *c.Threshold)
	}

	re, err := regexp.Compile(*c.Regex)
	if err != nil {
		return fmt.Errorf("regex does not compile: %w", err)
	}
	for _, group := range []string{GroupWell, GroupTime} {
		if re.SubexpIndex(group) < 0 {
			return fmt.Errorf("regex %q has no named group %s", *c.Regex, group)
		}
	}
	c.pattern = re

	if c.MaxSide != nil && *c.MaxSide < *c.ImageSize {
		return fmt.Errorf("max_side (%d) must be >= image_size (%d)", *c.MaxSide, *c.ImageSize)
	}
	if c.SearchRange != nil && *c.SearchRange <= 0 {
		return fmt.Errorf("search_range must be positive, got %g", *c.SearchRange)
	}
	if c.Memory != nil && *c.Memory < 0 {
		return fmt.Errorf("memory must not be negative, got %d", *c.Memory)
	}
	if c.MinPresence != nil && (*c.MinPresence < 0 || *c.MinPresence > 1) {
		return fmt.Errorf("min_presence must be between 0 and 1, got %g", *c.MinPresence)
	}
	if c.MeanPixel != nil && len(c.MeanPixel) != 3 {
		return fmt.Errorf("mean_pixel must have 3 values (B, G, R), got %d", len(c.MeanPixel))
	}
	if c.InputGlob != nil {
		if _, err := filepath.Match(*c.InputGlob, ""); err != nil {
			return fmt.Errorf("input_glob %q: %w", *c.InputGlob, err)
		}
	}
	return nil
}

// Pattern returns the compiled file name regex. It is nil until Validate succeeds.
func (c *Config) Pattern() *regexp.Regexp { return c.pattern }

func (c *Config) GetModel() string      { return *c.Model }
func (c *Config) GetImageSize() int     { return *c.ImageSize }
func (c *Config) GetContrast() float64  { return *c.Contrast }
func (c *Config) GetThreshold() float64 { return *c.Threshold }

func (c *Config) GetMaxSide() int {
	if c.MaxSide == nil {
		return DefaultMaxSide
	}
	return *c.MaxSide
}

func (c *Config) GetSearchRange() float64 {
	if c.SearchRange == nil {
		return DefaultSearchRange
	}
	return *c.SearchRange
}

func (c *Config) GetMemory() int {
	if c.Memory == nil {
		return DefaultMemory
	}
	return *c.Memory
}

func (c *Config) GetMinPresence() float64 {
	if c.MinPresence == nil {
		return DefaultMinPresence
	}
	return *c.MinPresence
}

func (c *Config) GetBoxColor() string {
	if c.BoxColor == nil {
		return DefaultBoxColor
	}
	return *c.BoxColor
}

// GetMeanPixel returns the B, G, R means subtracted during normalisation.
func (c *Config) GetMeanPixel() [3]float64 {
	src := c.MeanPixel
	if src == nil {
		src = DefaultMeanPixel
	}
	return [3]float64{src[0], src[1], src[2]}
}

func (c *Config) GetInputGlob() string {
	if c.InputGlob == nil {
		return DefaultInputGlob
	}
	return *c.InputGlob
}

func (c *Config) GetExclude() []string {
	if c.Exclude == nil {
		return DefaultExclude
	}
	return c.Exclude
}
