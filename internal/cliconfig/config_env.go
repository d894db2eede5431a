package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (RPICAMVIEW_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("log-level", os.Getenv("RPICAMVIEW_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("display-source", os.Getenv("RPICAMVIEW_DISPLAY_SOURCE"), &cfg.DisplaySource)
	s.setString("display-size", os.Getenv("RPICAMVIEW_DISPLAY_SIZE"), &cfg.DisplaySize)
	s.setString("white-balance", os.Getenv("RPICAMVIEW_WHITE_BALANCE"), &cfg.WhiteBalance)
	s.setString("image-filter", os.Getenv("RPICAMVIEW_IMAGE_FILTER"), &cfg.ImageFilter)
	s.setString("metrics-addr", os.Getenv("RPICAMVIEW_METRICS_ADDR"), &cfg.MetricsAddr)

	if err := s.setDuration("poll", os.Getenv("RPICAMVIEW_POLL_INTERVAL"), &cfg.PollInterval); err != nil {
		return err
	}

	for _, v := range []struct {
		flag, env string
		dst       *uint32
	}{
		{"camera", "RPICAMVIEW_CAMERA_DEVICE", &cfg.CameraDevice},
		{"display", "RPICAMVIEW_DISPLAY_DEVICE", &cfg.DisplayDevice},
		{"framerate", "RPICAMVIEW_FRAMERATE", &cfg.Framerate},
		{"brightness", "RPICAMVIEW_BRIGHTNESS", &cfg.Brightness},
		{"iso", "RPICAMVIEW_ISO", &cfg.ISO},
	} {
		if err := s.setUint32FromString(v.flag, os.Getenv(v.env), v.dst); err != nil {
			return err
		}
	}

	for _, v := range []struct {
		flag, env string
		dst       *int32
	}{
		{"sharpness", "RPICAMVIEW_SHARPNESS", &cfg.Sharpness},
		{"contrast", "RPICAMVIEW_CONTRAST", &cfg.Contrast},
		{"saturation", "RPICAMVIEW_SATURATION", &cfg.Saturation},
		{"ev", "RPICAMVIEW_EV", &cfg.EVCompensation},
	} {
		if err := s.setInt32FromString(v.flag, os.Getenv(v.env), v.dst); err != nil {
			return err
		}
	}

	s.setBoolFromString("simulate", os.Getenv("RPICAMVIEW_SIMULATE"), &cfg.Simulate)
	s.setBoolFromString("auto-iso", os.Getenv("RPICAMVIEW_AUTO_ISO"), &cfg.AutoSensitivity)
	s.setBoolFromString("stabilisation", os.Getenv("RPICAMVIEW_STABILISATION"), &cfg.FrameStabilisation)
	s.setBoolFromString("hflip", os.Getenv("RPICAMVIEW_HFLIP"), &cfg.FlipHorizontal)
	s.setBoolFromString("vflip", os.Getenv("RPICAMVIEW_VFLIP"), &cfg.FlipVertical)
	s.setBoolFromString("watch-config", os.Getenv("RPICAMVIEW_WATCH_CONFIG"), &cfg.WatchConfig)

	return nil
}
