package app

import (
	"time"

	"github.com/bft-labs/rpicamview/internal/ports"
)

// DefaultPollInterval is the pause between two checks of a pending transition.
const DefaultPollInterval = 10 * time.Millisecond

// poller implements condition synchronization by polling with a fixed
// interval. There is no timeout: a stalled runtime stalls the caller.
type poller struct {
	interval time.Duration
	sleeper  ports.Sleeper
	// fatal reports an error that must abort any wait, e.g. a runtime
	// error event delivered while polling.
	fatal func() error
}

// newPoller creates a poller with the given interval and sleeper.
func newPoller(interval time.Duration, sleeper ports.Sleeper, fatal func() error) *poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if sleeper == nil {
		sleeper = ports.RealSleeper
	}
	if fatal == nil {
		fatal = func() error { return nil }
	}
	return &poller{interval: interval, sleeper: sleeper, fatal: fatal}
}

// until evaluates cond until it reports true or fails, sleeping between
// evaluations. The first evaluation happens immediately.
func (p *poller) until(cond func() (bool, error)) error {
	for {
		done, err := cond()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if err := p.fatal(); err != nil {
			return err
		}
		p.sleeper.Sleep(p.interval)
	}
}

// Interval returns the configured poll interval.
func (p *poller) Interval() time.Duration {
	return p.interval
}
