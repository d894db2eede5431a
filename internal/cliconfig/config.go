package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bft-labs/rpicamview/internal/adapters/display"
	"github.com/bft-labs/rpicamview/internal/app"
	"github.com/bft-labs/rpicamview/internal/domain"
)

// Display sources.
const (
	DisplayRuntime     = "runtime"
	DisplayFramebuffer = "framebuffer"
	DisplayStatic      = "static"
)

// Config holds CLI configuration for rpicamview.
type Config struct {
	LogLevel string
	Simulate bool

	DisplaySource string
	DisplaySize   string
	CameraDevice  uint32
	DisplayDevice uint32

	Framerate    uint32
	PollInterval time.Duration

	Sharpness          int32
	Contrast           int32
	Saturation         int32
	Brightness         uint32
	EVCompensation     int32
	ISO                uint32
	AutoSensitivity    bool
	FrameStabilisation bool
	WhiteBalance       string
	ImageFilter        string
	FlipHorizontal     bool
	FlipVertical       bool

	WatchConfig bool
	MetricsAddr string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	t := domain.DefaultCameraTuning()
	return Config{
		LogLevel:           "info",
		DisplaySource:      DisplayRuntime,
		Framerate:          25,
		PollInterval:       app.DefaultPollInterval,
		Sharpness:          t.Sharpness,
		Contrast:           t.Contrast,
		Saturation:         t.Saturation,
		Brightness:         t.Brightness,
		EVCompensation:     t.EVCompensation,
		ISO:                t.ISO,
		AutoSensitivity:    t.AutoSensitivity,
		FrameStabilisation: t.FrameStabilisation,
		WhiteBalance:       t.WhiteBalance.String(),
		ImageFilter:        t.ImageFilter.String(),
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}

	if c.DisplaySource == "" {
		c.DisplaySource = DisplayRuntime
	}
	if c.DisplaySize != "" && c.DisplaySource == DisplayRuntime {
		c.DisplaySource = DisplayStatic
	}
	switch c.DisplaySource {
	case DisplayRuntime, DisplayFramebuffer:
	case DisplayStatic:
		if _, err := display.ParseSize(c.DisplaySize); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown display source %q (want runtime, framebuffer or static)", c.DisplaySource)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.Framerate < 1 || c.Framerate > 120 {
		return fmt.Errorf("framerate must be within 1..120, got %d", c.Framerate)
	}

	for _, r := range []struct {
		name  string
		value int32
	}{
		{"sharpness", c.Sharpness},
		{"contrast", c.Contrast},
		{"saturation", c.Saturation},
	} {
		if r.value < -100 || r.value > 100 {
			return fmt.Errorf("%s must be within -100..100, got %d", r.name, r.value)
		}
	}
	if c.Brightness > 100 {
		return fmt.Errorf("brightness must be within 0..100, got %d", c.Brightness)
	}

	if _, err := c.Tuning(); err != nil {
		return err
	}
	return nil
}

// Tuning converts the image quality fields into a domain.CameraTuning.
func (c Config) Tuning() (domain.CameraTuning, error) {
	wb, err := domain.ParseWhiteBalance(c.WhiteBalance)
	if err != nil {
		return domain.CameraTuning{}, err
	}
	filter, err := domain.ParseImageFilter(c.ImageFilter)
	if err != nil {
		return domain.CameraTuning{}, err
	}
	return domain.CameraTuning{
		Sharpness:          c.Sharpness,
		Contrast:           c.Contrast,
		Saturation:         c.Saturation,
		Brightness:         c.Brightness,
		EVCompensation:     c.EVCompensation,
		ISO:                c.ISO,
		AutoSensitivity:    c.AutoSensitivity,
		FrameStabilisation: c.FrameStabilisation,
		WhiteBalance:       wb,
		ImageFilter:        filter,
		FlipHorizontal:     c.FlipHorizontal,
		FlipVertical:       c.FlipVertical,
	}, nil
}

// Pipeline returns the pipeline configuration. Validate must have succeeded.
func (c Config) Pipeline() app.Config {
	t, _ := c.Tuning()
	return app.Config{
		PollInterval:  c.PollInterval,
		Framerate:     c.Framerate,
		CameraDevice:  c.CameraDevice,
		DisplayDevice: c.DisplayDevice,
		Tuning:        t,
	}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt32 sets an int32 value from a pointer if not nil and flag not changed.
// Zero is a valid tuning value.
func (s *configSetter) setInt32(flag string, value *int32, dst *int32) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setUint32 sets a uint32 value from a pointer if not nil and flag not changed.
func (s *configSetter) setUint32(flag string, value *uint32, dst *uint32) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setInt32FromString parses a string to int32 and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setInt32FromString(flag, value string, dst *int32) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = int32(i)
	return nil
}

// setUint32FromString parses a string to uint32 and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setUint32FromString(flag, value string, dst *uint32) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	u, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = uint32(u)
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
