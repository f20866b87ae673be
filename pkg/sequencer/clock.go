package sequencer

import (
	"sync"
	"time"
)

// tickDuration is the sequencer's unit of time: 100 microseconds, per
// spec §6 ("Time unit: 100 μs").
const tickDuration = 100 * time.Microsecond

// clock reports elapsed ticks since a start epoch captured by
// start(). time.Since is monotonic on every platform Go supports, which
// satisfies spec §4.1's "monotonic across any supported wall-clock
// adjustment" without reaching for a platform timer API.
type clock struct {
	mu      sync.Mutex
	epoch   time.Time
	running bool
}

// start records the epoch and marks the clock running.
func (c *clock) start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch = time.Now()
	c.running = true
}

// stop clears the epoch. Subsequent elapsed() calls fail with
// ErrNotRunning until start is called again.
func (c *clock) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	c.epoch = time.Time{}
}

// elapsed returns ticks since the epoch, or ErrNotRunning if the clock
// isn't running.
func (c *clock) elapsed() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return 0, newErr(KindNotRunning, "clock is not running", nil)
	}
	return int64(time.Since(c.epoch) / tickDuration), nil
}

func (c *clock) isRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// ticksToDuration converts a tick count (possibly negative) to a
// time.Duration, used to arm timers.
func ticksToDuration(ticks int64) time.Duration {
	return time.Duration(ticks) * tickDuration
}
