package sequencer

import "testing"

func TestTrackTableLoadAndDeleteRoundTrip(t *testing.T) {
	tt := newTrackTable(newQuiescenceCounter())
	tr := &midiTrack{events: []*event{{kind: NoteOn, time: 0}}}

	if err := tt.load(1, tr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tt.load(1, tr); !isKindErr(err, KindSlotInUse) {
		t.Fatalf("expected KindSlotInUse on double load, got %v", err)
	}
	if err := tt.delete(1); err != nil {
		t.Fatalf("unexpected error deleting: %v", err)
	}
	if err := tt.delete(1); !isKindErr(err, KindNoSlot) {
		t.Fatalf("expected KindNoSlot deleting an empty slot, got %v", err)
	}
}

func TestTrackTableRejectsOutOfRangeIDs(t *testing.T) {
	tt := newTrackTable(newQuiescenceCounter())
	if err := tt.load(0, &midiTrack{}); !isKindErr(err, KindBadArgument) {
		t.Fatalf("expected KindBadArgument for id 0, got %v", err)
	}
	if err := tt.load(MaxMIDITracks+1, &midiTrack{}); !isKindErr(err, KindBadArgument) {
		t.Fatalf("expected KindBadArgument for id over range, got %v", err)
	}
}

func TestTrackTableDeleteRejectsBusySlot(t *testing.T) {
	global := newQuiescenceCounter()
	tt := newTrackTable(global)
	tt.load(1, &midiTrack{})

	tr, err := tt.acquirePlay(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if global.value() != 1 {
		t.Fatalf("expected global counter to read 1, got %d", global.value())
	}

	if err := tt.delete(1); !isKindErr(err, KindSlotInUse) {
		t.Fatalf("expected KindSlotInUse while a worker holds the slot, got %v", err)
	}

	tt.releasePlay(tr)
	if global.value() != 0 {
		t.Fatalf("expected global counter to return to 0, got %d", global.value())
	}
	if err := tt.delete(1); err != nil {
		t.Fatalf("expected delete to succeed once quiet, got %v", err)
	}
}

func TestTrackTableAcquirePlayOnEmptySlot(t *testing.T) {
	tt := newTrackTable(newQuiescenceCounter())
	if _, err := tt.acquirePlay(1); !isKindErr(err, KindNoSlot) {
		t.Fatalf("expected KindNoSlot, got %v", err)
	}
}

func TestWaveTableDeleteIgnoresBusyWorkers(t *testing.T) {
	global := newQuiescenceCounter()
	wt := newWaveTable(global)
	wt.load(1, &waveClip{path: "clip.wav"})

	wc, err := wt.acquirePlay(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if global.value() != 1 {
		t.Fatalf("expected global counter to read 1, got %d", global.value())
	}

	// Unlike trackTable, a busy wave slot still deletes immediately:
	// the worker already copied the filename out (spec §4.7).
	if err := wt.delete(1); err != nil {
		t.Fatalf("expected delete to succeed while the slot is playing, got %v", err)
	}
	if wc.path != "clip.wav" {
		t.Fatalf("worker's already-acquired clip must be unaffected by the delete: %+v", wc)
	}

	wt.releasePlay(wc)
	if global.value() != 0 {
		t.Fatalf("expected global counter to return to 0, got %d", global.value())
	}
}

func TestWaveTableLoadDoubleAndMissingSlot(t *testing.T) {
	wt := newWaveTable(newQuiescenceCounter())
	wt.load(1, &waveClip{path: "a.wav"})
	if err := wt.load(1, &waveClip{path: "b.wav"}); !isKindErr(err, KindSlotInUse) {
		t.Fatalf("expected KindSlotInUse, got %v", err)
	}
	if err := wt.delete(2); !isKindErr(err, KindNoSlot) {
		t.Fatalf("expected KindNoSlot for an unloaded slot, got %v", err)
	}
}
