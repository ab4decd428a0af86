// Package telemetry provides small timing/counting helpers; the CLI
// uses the timing ones to report progress, grounded on the teacher CLI's own
// startTime/formatDuration idiom (cmd/kanso-cli/main.go).
package telemetry

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Timer measures a single phase of work.
type Timer struct {
	start time.Time
}

// StartTimer begins timing now.
func StartTimer() Timer { return Timer{start: time.Now()} }

// Elapsed returns the duration since the timer started.
func (t Timer) Elapsed() time.Duration { return time.Since(t.start) }

// FormatDuration renders d the way the CLI's success/failure summaries
// do: minutes down to nanoseconds, whichever unit is most legible.
func FormatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return fmt.Sprintf("%.2fmin", d.Minutes())
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1e6)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1e3)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}

// Counter is a monotonically increasing, concurrency-safe count. The
// other packages of this module do not use it; kernel dispatches and
// loop iterations are not counted.
type Counter struct {
	n int64
}

func (c *Counter) Add(delta int64) int64 { return atomic.AddInt64(&c.n, delta) }
func (c *Counter) Inc() int64            { return c.Add(1) }
func (c *Counter) Load() int64           { return atomic.LoadInt64(&c.n) }
