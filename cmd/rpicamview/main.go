package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/rpicamview/internal/cliconfig"
)

const helpDescription = `
Preview the Raspberry Pi camera on the attached display.

The camera output is tunnelled in firmware to the video renderer and to a
null sink; the host never touches frame data. The preview is drawn at half
the display size, centred, until SIGINT, SIGTERM or SIGQUIT.

Configuration comes from flags, RPICAMVIEW_* environment variables and a TOML
file, in that order of precedence. With --watch-config the [camera] table of
the file is re-applied while streaming.
`

var exampleUsage = strings.TrimSpace(`
  rpicamview --brightness 60 --white-balance sunlight --hflip
  rpicamview --config $HOME/.rpicamview/config.toml --watch-config --metrics-addr :9100
  rpicamview --simulate --display-size 1920x1080 --log-level debug
  rpicamview describe
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// settings is the configuration resolved for one command invocation.
type settings struct {
	cfg     cliconfig.Config
	path    string
	changed map[string]bool
}

// resolve layers the config file and the environment under the flags of cmd.
func resolve(cmd *cobra.Command, cfg cliconfig.Config, cfgPath string) (settings, error) {
	// Build set of changed flags
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}
	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return settings{}, fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
			return settings{}, err
		}
	} else {
		cfgFile = ""
	}

	// These override file config but are overridden by flags (checked via changed map)
	if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
		return settings{}, err
	}

	if err := cfg.Validate(); err != nil {
		return settings{}, err
	}
	if err := cliconfig.SetLevel(cfg.LogLevel); err != nil {
		return settings{}, err
	}
	return settings{cfg: cfg, path: cfgFile, changed: changed}, nil
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:           "rpicamview",
		Short:         "Preview the Raspberry Pi camera on the attached display",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := resolve(cmd, cfg, cfgPath)
			if err != nil {
				return err
			}
			log.Info().Interface("config", s.cfg).Msg("configuration")
			return runPipeline(cmd.Context(), s, log)
		},
	}

	describe := &cobra.Command{
		Use:   "describe",
		Short: "Print the default port definitions of every component and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := resolve(cmd, cfg, cfgPath)
			if err != nil {
				return err
			}
			return runDescribe(cmd.OutOrStdout(), s, log)
		},
	}
	root.AddCommand(describe)

	// Flags shared by both commands
	pf := root.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.rpicamview/config.toml)")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	pf.BoolVar(&cfg.Simulate, "simulate", cfg.Simulate, "drive a simulated component runtime instead of the camera")
	pf.DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "interval between checks of a pending transition")

	// Pipeline flags
	f := root.Flags()
	f.StringVar(&cfg.DisplaySource, "display-source", cfg.DisplaySource, "where the display size comes from: runtime, framebuffer or static")
	f.StringVar(&cfg.DisplaySize, "display-size", cfg.DisplaySize, "display size as WIDTHxHEIGHT (implies --display-source static)")
	f.Uint32Var(&cfg.CameraDevice, "camera", cfg.CameraDevice, "camera device number")
	f.Uint32Var(&cfg.DisplayDevice, "display", cfg.DisplayDevice, "display device number")
	f.Uint32Var(&cfg.Framerate, "framerate", cfg.Framerate, "capture frame rate in frames per second")

	f.Int32Var(&cfg.Sharpness, "sharpness", cfg.Sharpness, "sharpness, -100..100")
	f.Int32Var(&cfg.Contrast, "contrast", cfg.Contrast, "contrast, -100..100")
	f.Int32Var(&cfg.Saturation, "saturation", cfg.Saturation, "saturation, -100..100")
	f.Uint32Var(&cfg.Brightness, "brightness", cfg.Brightness, "brightness, 0..100")
	f.Int32Var(&cfg.EVCompensation, "ev", cfg.EVCompensation, "exposure compensation in sixths of a stop")
	f.Uint32Var(&cfg.ISO, "iso", cfg.ISO, "sensitivity, 100..1600")
	f.BoolVar(&cfg.AutoSensitivity, "auto-iso", cfg.AutoSensitivity, "let the camera pick the sensitivity")
	f.BoolVar(&cfg.FrameStabilisation, "stabilisation", cfg.FrameStabilisation, "enable frame stabilisation")
	f.StringVar(&cfg.WhiteBalance, "white-balance", cfg.WhiteBalance, "white balance mode (off, auto, sunlight, cloudy, shade, tungsten, fluorescent, incandescent, flash, horizon)")
	f.StringVar(&cfg.ImageFilter, "image-filter", cfg.ImageFilter, "image filter (none, noise, emboss, negative, sketch, oilpaint, hatch, gpen, antialias, dering, solarize)")
	f.BoolVar(&cfg.FlipHorizontal, "hflip", cfg.FlipHorizontal, "flip the preview horizontally")
	f.BoolVar(&cfg.FlipVertical, "vflip", cfg.FlipVertical, "flip the preview vertically")

	f.BoolVar(&cfg.WatchConfig, "watch-config", cfg.WatchConfig, "re-apply the [camera] table when the config file changes")
	f.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address, e.g. :9100")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("rpicamview")
		os.Exit(1)
	}
}

