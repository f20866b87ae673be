package sequencer

import (
	"sync"
	"time"

	"flowseq/pkg/logger"
)

// scheduler owns the one-shot timer driving queue drains, per spec
// §4.4. It is created once per Sequencer and lives across Start/Stop
// cycles; start/stop only toggle whether the goroutine's timer is
// armed, matching the Stopped/Running state machine.
type scheduler struct {
	queue *eventQueue
	clock *clock
	midi  *quiescenceCounter // the scheduler counts itself as one virtual MIDI worker while armed
	ctx   *executeContext

	mu    sync.Mutex
	timer *time.Timer
	armed bool
}

func newScheduler(q *eventQueue, c *clock, midi *quiescenceCounter, ctx *executeContext) *scheduler {
	return &scheduler{queue: q, clock: c, midi: midi, ctx: ctx}
}

// arm schedules the next wakeup for `at` ticks from now, clamped to
// >= 0 (spec §4.4 "clamped to ≥0"). If the scheduler was not
// previously armed, it enters the global MIDI counter as its virtual
// worker.
func (s *scheduler) arm(at int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armUnlocked(at)
}

func (s *scheduler) armUnlocked(at int64) {
	if at < 0 {
		at = 0
	}
	if !s.armed {
		s.midi.enter()
		s.armed = true
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(ticksToDuration(at), s.wake)
}

// wake is the timer callback: drain every due event, execute each, and
// re-arm for the new head or retire if the queue emptied (spec §4.4's
// overrun policy — drain ALL past-due events, not just one).
func (s *scheduler) wake() {
	for {
		now, err := s.clock.elapsed()
		if err != nil {
			// Sequencer was stopped concurrently with the timer firing;
			// stop() already drained the queue and disarmed us.
			return
		}
		e := s.queue.popDue(now)
		if e == nil {
			break
		}
		if err := execute(s.ctx, e); err != nil {
			// A failed execute is not fatal here: the error is logged,
			// this event is dropped, and the scheduler keeps draining the
			// rest of the due events rather than wedging the queue.
			logger.GetLogger().Error("scheduler execute failed", "event", e.String(), "err", err)
		}
		s.queue.release(e)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if head, ok := s.queue.peekTime(); ok {
		now, err := s.clock.elapsed()
		if err != nil {
			return
		}
		s.armUnlocked(head - now)
		return
	}
	s.retireUnlocked()
}

// retireUnlocked marks the scheduler idle, decrementing the global
// MIDI counter it entered when first armed. Caller must hold s.mu.
func (s *scheduler) retireUnlocked() {
	if s.armed {
		s.armed = false
		s.midi.leave()
	}
}

// stop cancels any pending timer and retires the scheduler's virtual
// worker slot, per the Running -> Stopped transition (spec §4.4).
func (s *scheduler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.retireUnlocked()
}

// onEnqueue is called by submit paths whenever insert reports the
// queue transitioned from empty to non-empty, per the timer-arming
// discipline in spec §4.4.
func (s *scheduler) onEnqueue(headTime int64, now int64) {
	s.arm(headTime - now)
}
