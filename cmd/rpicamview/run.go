package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/rpicamview/internal/adapters/display"
	logAdapter "github.com/bft-labs/rpicamview/internal/adapters/log"
	"github.com/bft-labs/rpicamview/internal/adapters/omx"
	"github.com/bft-labs/rpicamview/internal/adapters/sim"
	"github.com/bft-labs/rpicamview/internal/adapters/watch"
	"github.com/bft-labs/rpicamview/internal/app"
	"github.com/bft-labs/rpicamview/internal/cliconfig"
	"github.com/bft-labs/rpicamview/internal/domain"
	"github.com/bft-labs/rpicamview/internal/events"
	"github.com/bft-labs/rpicamview/internal/metrics"
	"github.com/bft-labs/rpicamview/internal/metrics/exporters"
	"github.com/bft-labs/rpicamview/internal/ports"
)

// notifyShutdown cancels the returned context on the first SIGINT, SIGTERM
// or SIGQUIT. Signal handling goes back to the default once one was seen, so
// a second signal kills a stuck teardown.
func notifyShutdown(parent context.Context, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			log.Info().Str("signal", sig.String()).Msg("received signal, stopping...")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// newRuntime returns the component runtime and the display sizer to use.
// A simulated runtime is advanced until the returned stop function is
// called; it must outlive the shutdown signal so teardown can complete.
func newRuntime(cfg cliconfig.Config, logger ports.Logger) (ports.Runtime, ports.DisplaySizer, func(), error) {
	var (
		rt    ports.Runtime
		sizer ports.DisplaySizer
		stop  = func() {}
	)
	if cfg.Simulate {
		simCtx, cancel := context.WithCancel(context.Background())
		s := sim.New(logger)
		s.Start(simCtx, cfg.PollInterval)
		rt, sizer, stop = s, display.NewStatic(1920, 1080), cancel
	} else {
		r, err := omx.New(logger)
		if err != nil {
			return nil, nil, nil, err
		}
		rt, sizer = r, omx.Display{}
	}

	switch cfg.DisplaySource {
	case cliconfig.DisplayFramebuffer:
		sizer = display.Framebuffer{}
	case cliconfig.DisplayStatic:
		size, err := display.ParseSize(cfg.DisplaySize)
		if err != nil {
			stop()
			return nil, nil, nil, err
		}
		sizer = display.Static{Size: size}
	}
	return rt, sizer, stop, nil
}

// runtimeLogger tags runtime messages with the runtime in use.
func runtimeLogger(cfg cliconfig.Config, logger *logAdapter.ZerologAdapter) ports.Logger {
	name := "omx"
	if cfg.Simulate {
		name = "sim"
	}
	return logger.With(ports.String("runtime", name))
}

func runPipeline(parent context.Context, s settings, log zerolog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := notifyShutdown(parent, log)
	defer cancel()

	logger := logAdapter.NewZerologAdapterWithLogger(log)

	bus := events.New()
	unsubscribe := metrics.Subscribe(bus)
	defer unsubscribe()

	if s.cfg.MetricsAddr != "" {
		srv := exporters.NewServer(s.cfg.MetricsAddr)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Str("addr", s.cfg.MetricsAddr).Msg("metrics server")
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info().Str("addr", s.cfg.MetricsAddr).Msg("serving metrics")
	}

	var tuning <-chan domain.CameraTuning
	if s.cfg.WatchConfig {
		if s.path == "" {
			return fmt.Errorf("watch-config: no config file to watch")
		}
		w := watch.New(s.path, cliconfig.TuningLoader(s.cfg, s.changed), logger, watch.DefaultConfig())
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		defer w.Stop()
		tuning = w.Updates()
	}

	rt, sizer, stop, err := newRuntime(s.cfg, runtimeLogger(s.cfg, logger))
	if err != nil {
		return err
	}
	defer stop()

	opts := []app.Option{
		app.WithLogger(logger),
		app.WithEmitter(events.NewEmitter(bus)),
	}
	p := app.New(s.cfg.Pipeline(), rt, sizer, opts...)
	if err := p.Execute(ctx, tuning); err != nil {
		return err
	}
	log.Info().Msg("Exit!")
	return nil
}

func runDescribe(w io.Writer, s settings, log zerolog.Logger) error {
	logger := logAdapter.NewZerologAdapterWithLogger(log)
	rt, sizer, stop, err := newRuntime(s.cfg, runtimeLogger(s.cfg, logger))
	if err != nil {
		return err
	}
	defer stop()

	p := app.New(s.cfg.Pipeline(), rt, sizer, app.WithLogger(logger))
	reports, err := p.Describe()
	if err != nil {
		return err
	}
	for _, r := range reports {
		d := r.Descriptor
		fmt.Fprintf(w, "%-12s port %3d  %-6s %-5s enabled=%-5t buffers=%d/%d size=%d\n",
			r.Component, d.Index, d.Domain, d.Direction, d.Enabled,
			d.BufferCountActual, d.BufferCountMin, d.BufferSize)
	}
	return nil
}
