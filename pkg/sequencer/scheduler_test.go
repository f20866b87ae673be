package sequencer

import (
	"testing"
	"time"
)

func newTestScheduler(out MIDIOut, port int) (*scheduler, *eventQueue, *clock) {
	q := &eventQueue{}
	c := &clock{}
	c.start()
	midi := newQuiescenceCounter()
	ctx := newTestContext(out, port)
	return newScheduler(q, c, midi, ctx), q, c
}

func TestSchedulerWakeExecutesDueEventsAndRetires(t *testing.T) {
	out := &fakeMIDIOut{}
	sched, q, c := newTestScheduler(out, 1)

	now, _ := c.elapsed()
	e := q.acquire()
	e.kind, e.port, e.channel, e.note, e.time = NoteOn, 1, 1, 1, now+1
	q.insert(e)
	sched.onEnqueue(e.time, now)

	deadline := time.Now().Add(time.Second)
	for out.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if out.count() != 1 {
		t.Fatalf("expected the scheduler to execute the due event, got %d messages", len(out.messages))
	}
	if sched.midi.value() != 0 {
		t.Fatalf("expected the scheduler to retire its virtual worker slot, counter=%d", sched.midi.value())
	}
}

func TestSchedulerWakeDrainsAllPastDueEventsInOneCall(t *testing.T) {
	out := &fakeMIDIOut{}
	sched, q, c := newTestScheduler(out, 1)

	now, _ := c.elapsed()
	for i := 0; i < 3; i++ {
		e := q.acquire()
		e.kind, e.port, e.channel, e.note, e.time = NoteOn, 1, 1, 1, now+1
		q.insert(e)
	}
	sched.onEnqueue(now+1, now)

	deadline := time.Now().Add(time.Second)
	for out.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if out.count() != 3 {
		t.Fatalf("expected all 3 overdue events drained in one wake, got %d", len(out.messages))
	}
}

func TestSchedulerStopCancelsPendingTimerAndRetires(t *testing.T) {
	out := &fakeMIDIOut{}
	sched, q, c := newTestScheduler(out, 1)

	now, _ := c.elapsed()
	e := q.acquire()
	e.kind, e.port, e.channel, e.note, e.time = NoteOn, 1, 1, 1, now+10000
	q.insert(e)
	sched.onEnqueue(e.time, now)

	if sched.midi.value() != 1 {
		t.Fatalf("expected armed scheduler to count itself as one virtual worker, got %d", sched.midi.value())
	}
	sched.stop()
	if sched.midi.value() != 0 {
		t.Fatalf("expected stop to retire the virtual worker slot, got %d", sched.midi.value())
	}

	time.Sleep(5 * time.Millisecond)
	if len(out.messages) != 0 {
		t.Fatal("stop must cancel the pending timer so it never fires")
	}
}

func TestSchedulerArmClampsNegativeDelayToZero(t *testing.T) {
	out := &fakeMIDIOut{}
	sched, _, _ := newTestScheduler(out, 1)
	sched.arm(-100)
	if !sched.armed {
		t.Fatal("arm must mark the scheduler armed even for a negative delay")
	}
	sched.stop()
}
