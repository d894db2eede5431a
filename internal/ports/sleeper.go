package ports

import "time"

// Sleeper pauses the calling goroutine between polls.
// Tests inject an implementation that advances simulated time instead.
type Sleeper interface {
	Sleep(d time.Duration)
}

// SleepFunc adapts a function to Sleeper.
type SleepFunc func(d time.Duration)

// Sleep calls f(d).
func (f SleepFunc) Sleep(d time.Duration) { f(d) }

// RealSleeper sleeps on the wall clock.
var RealSleeper Sleeper = SleepFunc(time.Sleep)
