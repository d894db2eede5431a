package cliconfig

import (
	"os"
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"RPICAMVIEW_LOG_LEVEL":     "debug",
				"RPICAMVIEW_POLL_INTERVAL": "20ms",
				"RPICAMVIEW_FRAMERATE":     "30",
				"RPICAMVIEW_SHARPNESS":     "-40",
				"RPICAMVIEW_WHITE_BALANCE": "cloudy",
				"RPICAMVIEW_SIMULATE":      "true",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				LogLevel:     "debug",
				PollInterval: 20 * time.Millisecond,
				Framerate:    30,
				Sharpness:    -40,
				WhiteBalance: "cloudy",
				Simulate:     true,
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"RPICAMVIEW_FRAMERATE":  "30",
				"RPICAMVIEW_BRIGHTNESS": "70",
			},
			changed: map[string]bool{"framerate": true},
			initial: Config{Framerate: 15},
			expected: Config{
				Framerate:  15,
				Brightness: 70,
			},
		},
		{
			name: "returns error for invalid duration",
			envVars: map[string]string{
				"RPICAMVIEW_POLL_INTERVAL": "not-a-duration",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name: "returns error for invalid unsigned",
			envVars: map[string]string{
				"RPICAMVIEW_ISO": "-100",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name: "returns error for invalid signed",
			envVars: map[string]string{
				"RPICAMVIEW_EV": "two",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name: "handles bool '1' as true",
			envVars: map[string]string{
				"RPICAMVIEW_HFLIP": "1",
			},
			changed:  map[string]bool{},
			expected: Config{FlipHorizontal: true},
		},
		{
			name: "handles bool 'false' as false",
			envVars: map[string]string{
				"RPICAMVIEW_STABILISATION": "false",
			},
			changed:  map[string]bool{},
			initial:  Config{FrameStabilisation: true},
			expected: Config{FrameStabilisation: false},
		},
		{
			name: "handles all field types correctly",
			envVars: map[string]string{
				"RPICAMVIEW_LOG_LEVEL":      "warn",
				"RPICAMVIEW_DISPLAY_SOURCE": "static",
				"RPICAMVIEW_DISPLAY_SIZE":   "800x480",
				"RPICAMVIEW_CAMERA_DEVICE":  "1",
				"RPICAMVIEW_DISPLAY_DEVICE": "2",
				"RPICAMVIEW_FRAMERATE":      "60",
				"RPICAMVIEW_POLL_INTERVAL":  "1ms",
				"RPICAMVIEW_SHARPNESS":      "10",
				"RPICAMVIEW_CONTRAST":       "-10",
				"RPICAMVIEW_SATURATION":     "5",
				"RPICAMVIEW_BRIGHTNESS":     "60",
				"RPICAMVIEW_EV":             "-6",
				"RPICAMVIEW_ISO":            "400",
				"RPICAMVIEW_AUTO_ISO":       "true",
				"RPICAMVIEW_STABILISATION":  "1",
				"RPICAMVIEW_WHITE_BALANCE":  "shade",
				"RPICAMVIEW_IMAGE_FILTER":   "emboss",
				"RPICAMVIEW_HFLIP":          "true",
				"RPICAMVIEW_VFLIP":          "true",
				"RPICAMVIEW_SIMULATE":       "1",
				"RPICAMVIEW_WATCH_CONFIG":   "true",
				"RPICAMVIEW_METRICS_ADDR":   ":9100",
			},
			changed: map[string]bool{},
			expected: Config{
				LogLevel:           "warn",
				DisplaySource:      "static",
				DisplaySize:        "800x480",
				CameraDevice:       1,
				DisplayDevice:      2,
				Framerate:          60,
				PollInterval:       time.Millisecond,
				Sharpness:          10,
				Contrast:           -10,
				Saturation:         5,
				Brightness:         60,
				EVCompensation:     -6,
				ISO:                400,
				AutoSensitivity:    true,
				FrameStabilisation: true,
				WhiteBalance:       "shade",
				ImageFilter:        "emboss",
				FlipHorizontal:     true,
				FlipVertical:       true,
				Simulate:           true,
				WatchConfig:        true,
				MetricsAddr:        ":9100",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Set environment variables
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}
			// Clean up after test
			defer func() {
				for k := range tt.envVars {
					os.Unsetenv(k)
				}
			}()

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyEnvConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyEnvConfig() unexpected error: %v", err)
				return
			}

			if !tt.wantErr && cfg != tt.expected {
				t.Errorf("ApplyEnvConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestConfigPrecedence(t *testing.T) {
	framerate := uint32(15)
	brightness := uint32(20)
	hflip := true
	fileConf := FileConfig{
		Framerate: &framerate,
		LogLevel:  "error",
		Camera: CameraFileConfig{
			Brightness:     &brightness,
			FlipHorizontal: &hflip,
		},
	}

	// Setup env vars
	os.Setenv("RPICAMVIEW_FRAMERATE", "30")
	os.Setenv("RPICAMVIEW_LOG_LEVEL", "debug")
	defer func() {
		os.Unsetenv("RPICAMVIEW_FRAMERATE")
		os.Unsetenv("RPICAMVIEW_LOG_LEVEL")
	}()

	// Simulate CLI flags
	changed := map[string]bool{
		"log-level": true,
	}

	cfg := DefaultConfig()
	cfg.LogLevel = "warn" // This should remain (CLI wins)

	if err := ApplyFileConfig(&cfg, fileConf, changed); err != nil {
		t.Fatalf("ApplyFileConfig failed: %v", err)
	}
	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatalf("ApplyEnvConfig failed: %v", err)
	}

	// Verify precedence: CLI > Env > File
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %v, want warn (CLI should win)", cfg.LogLevel)
	}
	if cfg.Framerate != 30 {
		t.Errorf("Framerate = %v, want 30 (env should override file)", cfg.Framerate)
	}
	if cfg.Brightness != 20 {
		t.Errorf("Brightness = %v, want 20 (file should set)", cfg.Brightness)
	}
	if !cfg.FlipHorizontal {
		t.Error("FlipHorizontal = false, want true (file should set)")
	}
	if cfg.ISO != 100 {
		t.Errorf("ISO = %v, want 100 (default should remain)", cfg.ISO)
	}
}
