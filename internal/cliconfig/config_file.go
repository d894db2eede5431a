package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/bft-labs/rpicamview/internal/domain"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
// Numeric tuning values are pointers so that an explicit zero overrides the default.
type FileConfig struct {
	LogLevel      string  `toml:"log_level"`
	Simulate      *bool   `toml:"simulate"`
	DisplaySource string  `toml:"display_source"`
	DisplaySize   string  `toml:"display_size"`
	CameraDevice  *uint32 `toml:"camera_device"`
	DisplayDevice *uint32 `toml:"display_device"`
	Framerate     *uint32 `toml:"framerate"`
	PollInterval  string  `toml:"poll_interval"`
	WatchConfig   *bool   `toml:"watch_config"`
	MetricsAddr   string  `toml:"metrics_addr"`

	Camera CameraFileConfig `toml:"camera"`
}

// CameraFileConfig is the [camera] table holding the image quality tuning.
type CameraFileConfig struct {
	Sharpness          *int32  `toml:"sharpness"`
	Contrast           *int32  `toml:"contrast"`
	Saturation         *int32  `toml:"saturation"`
	Brightness         *uint32 `toml:"brightness"`
	EVCompensation     *int32  `toml:"ev_compensation"`
	ISO                *uint32 `toml:"iso"`
	AutoSensitivity    *bool   `toml:"auto_iso"`
	FrameStabilisation *bool   `toml:"stabilisation"`
	WhiteBalance       string  `toml:"white_balance"`
	ImageFilter        string  `toml:"image_filter"`
	FlipHorizontal     *bool   `toml:"hflip"`
	FlipVertical       *bool   `toml:"vflip"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.rpicamview/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".rpicamview", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("display-source", fc.DisplaySource, &cfg.DisplaySource)
	s.setString("display-size", fc.DisplaySize, &cfg.DisplaySize)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)

	if err := s.setDuration("poll", fc.PollInterval, &cfg.PollInterval); err != nil {
		return err
	}

	s.setUint32("camera", fc.CameraDevice, &cfg.CameraDevice)
	s.setUint32("display", fc.DisplayDevice, &cfg.DisplayDevice)
	s.setUint32("framerate", fc.Framerate, &cfg.Framerate)

	s.setBool("simulate", fc.Simulate, &cfg.Simulate)
	s.setBool("watch-config", fc.WatchConfig, &cfg.WatchConfig)

	applyCameraConfig(s, cfg, fc.Camera)
	return nil
}

func applyCameraConfig(s *configSetter, cfg *Config, cc CameraFileConfig) {
	s.setInt32("sharpness", cc.Sharpness, &cfg.Sharpness)
	s.setInt32("contrast", cc.Contrast, &cfg.Contrast)
	s.setInt32("saturation", cc.Saturation, &cfg.Saturation)
	s.setUint32("brightness", cc.Brightness, &cfg.Brightness)
	s.setInt32("ev", cc.EVCompensation, &cfg.EVCompensation)
	s.setUint32("iso", cc.ISO, &cfg.ISO)
	s.setBool("auto-iso", cc.AutoSensitivity, &cfg.AutoSensitivity)
	s.setBool("stabilisation", cc.FrameStabilisation, &cfg.FrameStabilisation)
	s.setString("white-balance", cc.WhiteBalance, &cfg.WhiteBalance)
	s.setString("image-filter", cc.ImageFilter, &cfg.ImageFilter)
	s.setBool("hflip", cc.FlipHorizontal, &cfg.FlipHorizontal)
	s.setBool("vflip", cc.FlipVertical, &cfg.FlipVertical)
}

// TuningLoader returns a loader that re-reads the tuning from a config file
// on top of base. Flags in changed keep their command line value and
// environment variables still outrank the file.
func TuningLoader(base Config, changed map[string]bool) func(path string) (domain.CameraTuning, error) {
	return func(path string) (domain.CameraTuning, error) {
		fc, err := LoadFileConfig(path)
		if err != nil {
			return domain.CameraTuning{}, err
		}
		cfg := base
		applyCameraConfig(newConfigSetter(changed), &cfg, fc.Camera)
		if err := ApplyEnvConfig(&cfg, changed); err != nil {
			return domain.CameraTuning{}, err
		}
		if err := cfg.Validate(); err != nil {
			return domain.CameraTuning{}, err
		}
		return cfg.Tuning()
	}
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
