package sequencer

import (
	"testing"
	"time"
)

func TestQuiescenceCounterWaitReturnsImmediatelyWhenIdle(t *testing.T) {
	c := newQuiescenceCounter()
	done := make(chan struct{})
	go func() {
		c.wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("wait on an already-idle counter should return immediately")
	}
}

func TestQuiescenceCounterWaitBlocksUntilLastLeave(t *testing.T) {
	c := newQuiescenceCounter()
	c.enter()
	c.enter()

	done := make(chan struct{})
	go func() {
		c.wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("wait must not return while the counter is non-zero")
	case <-time.After(20 * time.Millisecond):
	}

	c.leave()
	select {
	case <-done:
		t.Fatal("wait must not return until the counter reaches zero")
	case <-time.After(20 * time.Millisecond):
	}

	c.leave()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("wait should have returned once the counter reached zero")
	}
}

func TestQuiescenceCounterValueTracksEnterLeave(t *testing.T) {
	c := newQuiescenceCounter()
	if c.value() != 0 {
		t.Fatalf("expected 0, got %d", c.value())
	}
	c.enter()
	c.enter()
	if c.value() != 2 {
		t.Fatalf("expected 2, got %d", c.value())
	}
	c.leave()
	if c.value() != 1 {
		t.Fatalf("expected 1, got %d", c.value())
	}
}
