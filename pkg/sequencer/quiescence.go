package sequencer

import "sync"

// quiescenceCounter is a counted semaphore that additionally signals
// waiters the instant the count returns to zero, per spec §4.10. The
// scheduler, and every SMF/PCM playback worker, increments the counter
// when they begin doing work that counts against "the sequencer is
// idle" and decrement it when they finish; wait blocks until the
// count is (and stays, at the moment of the call) zero.
type quiescenceCounter struct {
	mu    sync.Mutex
	cond  *sync.Cond
	count int
}

func newQuiescenceCounter() *quiescenceCounter {
	c := &quiescenceCounter{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// enter increments the counter, marking one more worker active.
func (c *quiescenceCounter) enter() {
	c.mu.Lock()
	c.count++
	c.mu.Unlock()
}

// leave decrements the counter and, if it just crossed to zero, wakes
// every goroutine blocked in wait.
func (c *quiescenceCounter) leave() {
	c.mu.Lock()
	c.count--
	if c.count == 0 {
		c.cond.Broadcast()
	}
	c.mu.Unlock()
}

// wait blocks until the counter reads zero.
func (c *quiescenceCounter) wait() {
	c.mu.Lock()
	for c.count != 0 {
		c.cond.Wait()
	}
	c.mu.Unlock()
}

// value returns the current count, for diagnostics and tests.
func (c *quiescenceCounter) value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}
