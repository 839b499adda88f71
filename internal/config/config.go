// Package config loads the sorting cell's tuning parameters from a JSON
// file. Fields are pointer-typed so a partial config only overrides what it
// names; the Get* accessors supply defaults for everything else.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sortcell/sortcell/internal/actuator"
	"github.com/sortcell/sortcell/internal/geometry"
	"github.com/sortcell/sortcell/internal/stabilize"
)

// Config is the root tuning schema. Duration-valued fields are strings like
// "500ms" so the JSON stays human-editable.
type Config struct {
	// Detection params
	MinContourArea *float64 `json:"min_contour_area,omitempty"`
	FrameWidth     *int     `json:"frame_width,omitempty"`
	FrameHeight    *int     `json:"frame_height,omitempty"`
	BinaryLevel    *int     `json:"binary_level,omitempty"`

	// Stabilizer params
	StabilizerWindow    *int    `json:"stabilizer_window,omitempty"`
	StabilizerThreshold *int    `json:"stabilizer_threshold,omitempty"`
	StabilizerCooldown  *string `json:"stabilizer_cooldown,omitempty"`

	// Control loop params
	TickDelay         *string `json:"tick_delay,omitempty"`
	DetectionInterval *string `json:"detection_interval,omitempty"`
	AcquireBackoff    *string `json:"acquire_backoff,omitempty"`

	// Actuator params
	CircleDuration *string `json:"circle_duration,omitempty"`
	ShapeDuration  *string `json:"shape_duration,omitempty"`
	BaudRate       *int    `json:"baud_rate,omitempty"`
	DataBits       *int    `json:"data_bits,omitempty"`
	StopBits       *int    `json:"stop_bits,omitempty"`
	Parity         *string `json:"parity,omitempty"`
}

// Default returns a Config with all fields unset, so every accessor reports
// its default.
func Default() *Config {
	return &Config{}
}

// Load reads a Config from a JSON file. Fields omitted from the file retain
// their defaults, so partial configs are safe.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configured values are usable.
func (c *Config) Validate() error {
	if c.MinContourArea != nil && *c.MinContourArea < 0 {
		return fmt.Errorf("min_contour_area must be non-negative, got %f", *c.MinContourArea)
	}
	if c.StabilizerWindow != nil && *c.StabilizerWindow <= 0 {
		return fmt.Errorf("stabilizer_window must be positive, got %d", *c.StabilizerWindow)
	}
	if c.StabilizerThreshold != nil && *c.StabilizerThreshold <= 0 {
		return fmt.Errorf("stabilizer_threshold must be positive, got %d", *c.StabilizerThreshold)
	}
	if c.StabilizerWindow != nil && c.StabilizerThreshold != nil &&
		*c.StabilizerThreshold > *c.StabilizerWindow {
		return fmt.Errorf("stabilizer_threshold %d exceeds window %d",
			*c.StabilizerThreshold, *c.StabilizerWindow)
	}
	if c.BinaryLevel != nil && (*c.BinaryLevel < 0 || *c.BinaryLevel > 255) {
		return fmt.Errorf("binary_level must be in [0,255], got %d", *c.BinaryLevel)
	}

	for name, v := range map[string]*string{
		"stabilizer_cooldown": c.StabilizerCooldown,
		"tick_delay":          c.TickDelay,
		"detection_interval":  c.DetectionInterval,
		"acquire_backoff":     c.AcquireBackoff,
		"circle_duration":     c.CircleDuration,
		"shape_duration":      c.ShapeDuration,
	} {
		if v != nil && *v != "" {
			if _, err := time.ParseDuration(*v); err != nil {
				return fmt.Errorf("invalid %s %q: %w", name, *v, err)
			}
		}
	}

	if _, err := c.GetPortOptions().Normalize(); err != nil {
		return fmt.Errorf("invalid serial options: %w", err)
	}

	return nil
}

func durationOr(v *string, fallback time.Duration) time.Duration {
	if v == nil || *v == "" {
		return fallback
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fallback
	}
	return d
}

// GetMinContourArea returns the minimum contour area or the default.
func (c *Config) GetMinContourArea() float64 {
	if c.MinContourArea == nil {
		return geometry.DefaultMinArea
	}
	return *c.MinContourArea
}

// GetFrameWidth returns the working frame width or the default 640.
func (c *Config) GetFrameWidth() int {
	if c.FrameWidth == nil {
		return 640
	}
	return *c.FrameWidth
}

// GetFrameHeight returns the working frame height or the default 480.
func (c *Config) GetFrameHeight() int {
	if c.FrameHeight == nil {
		return 480
	}
	return *c.FrameHeight
}

// GetBinaryLevel returns the binarisation threshold or the default 128.
func (c *Config) GetBinaryLevel() uint8 {
	if c.BinaryLevel == nil {
		return 128
	}
	return uint8(*c.BinaryLevel)
}

// GetStabilizerWindow returns the stabilizer window size or the default.
func (c *Config) GetStabilizerWindow() int {
	if c.StabilizerWindow == nil {
		return stabilize.DefaultWindow
	}
	return *c.StabilizerWindow
}

// GetStabilizerThreshold returns the confirmation threshold or the default.
func (c *Config) GetStabilizerThreshold() int {
	if c.StabilizerThreshold == nil {
		return stabilize.DefaultThreshold
	}
	return *c.StabilizerThreshold
}

// GetStabilizerCooldown returns the re-confirmation cooldown or the default.
func (c *Config) GetStabilizerCooldown() time.Duration {
	return durationOr(c.StabilizerCooldown, stabilize.DefaultCooldown)
}

// GetTickDelay returns the control loop inter-iteration delay. The default
// keeps the loop around 30 Hz without saturating a core.
func (c *Config) GetTickDelay() time.Duration {
	return durationOr(c.TickDelay, 33*time.Millisecond)
}

// GetDetectionInterval returns the minimum spacing between detection
// attempts while the actuator is ready.
func (c *Config) GetDetectionInterval() time.Duration {
	return durationOr(c.DetectionInterval, time.Second)
}

// GetAcquireBackoff returns the pause after a failed frame/contour
// acquisition.
func (c *Config) GetAcquireBackoff() time.Duration {
	return durationOr(c.AcquireBackoff, 100*time.Millisecond)
}

// GetCircleDuration returns the circle busy-time estimate.
func (c *Config) GetCircleDuration() time.Duration {
	return durationOr(c.CircleDuration, actuator.DefaultCircleDuration)
}

// GetShapeDuration returns the square/triangle busy-time estimate.
func (c *Config) GetShapeDuration() time.Duration {
	return durationOr(c.ShapeDuration, actuator.DefaultShapeDuration)
}

// GetPortOptions assembles the serial connection parameters.
func (c *Config) GetPortOptions() actuator.PortOptions {
	opts := actuator.PortOptions{}
	if c.BaudRate != nil {
		opts.BaudRate = *c.BaudRate
	}
	if c.DataBits != nil {
		opts.DataBits = *c.DataBits
	}
	if c.StopBits != nil {
		opts.StopBits = *c.StopBits
	}
	if c.Parity != nil {
		opts.Parity = *c.Parity
	}
	return opts
}
