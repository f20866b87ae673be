package sequencer

import (
	"errors"
	"testing"
)

func TestErrorIsMatchesSentinelByKind(t *testing.T) {
	err := newErr(KindBadArgument, "port out of range", nil)
	if !errors.Is(err, ErrBadArgument) {
		t.Fatal("expected errors.Is to match the BadArgument sentinel")
	}
	if errors.Is(err, ErrNotRunning) {
		t.Fatal("errors.Is must not match a different kind's sentinel")
	}
}

func TestErrorUnwrapExposesCause(t *testing.T) {
	cause := errors.New("disk on fire")
	err := newErr(KindInvalidFile, "cannot open synth file", cause)
	if !errors.Is(err, cause) {
		t.Fatal("errors.Is must see through Unwrap to the wrapped cause")
	}
}

func TestKindStringIsNonEmptyForEveryKind(t *testing.T) {
	kinds := []Kind{
		KindBadArgument, KindNotRunning, KindInvalidFile, KindSlotInUse,
		KindNoSlot, KindOutputDevice, KindTimerFault, KindResourceExhausted,
	}
	for _, k := range kinds {
		if k.String() == "" || k.String() == "unknown" {
			t.Fatalf("Kind %d has no name", k)
		}
	}
}
