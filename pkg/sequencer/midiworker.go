package sequencer

import (
	"time"

	"flowseq/pkg/logger"
)

// scratchEvent is a worker-local copy of everything playMIDITrack
// needs from a cached event, decoupled from the cached *event so two
// workers may safely play the same slot concurrently. This is the
// clone-on-read redesign spec §9 calls out as the safer alternative to
// the original in-place `port` mutation (see DESIGN.md).
type scratchEvent struct {
	kind                                      EventKind
	time                                      int64
	channel, note, velocity, instrument, value int
	boolean                                   bool
	synthID, waveID                           int
}

func cloneForPlayback(e *event) scratchEvent {
	return scratchEvent{
		kind: e.kind, time: e.time,
		channel: e.channel, note: e.note, velocity: e.velocity,
		instrument: e.instrument, value: e.value, boolean: e.boolean,
		synthID: e.synthID, waveID: e.waveID,
	}
}

func (s scratchEvent) toEvent(port int) *event {
	return &event{
		kind: s.kind, port: port, time: s.time,
		channel: s.channel, note: s.note, velocity: s.velocity,
		instrument: s.instrument, value: s.value, boolean: s.boolean,
		synthID: s.synthID, waveID: s.waveID,
	}
}

// playMIDITrack walks a loaded SMF event list, sleeping between
// entries so each fires at its recorded track-relative time, then
// submits it to the executor with the caller-supplied port stamped in
// (spec §4.8). It runs on its own goroutine; track.acquirePlay and
// track.releasePlay bracket the call to keep the slot's and the global
// MIDI counters accurate.
func playMIDITrack(events []*event, port int, ctx *executeContext, now func() int64) {
	scratch := make([]scratchEvent, len(events))
	for i, e := range events {
		scratch[i] = cloneForPlayback(e)
	}

	epoch := now()
	for _, s := range scratch {
		target := s.time - (now() - epoch)
		if target > 0 {
			time.Sleep(ticksToDuration(target))
		}
		e := s.toEvent(port)
		if err := execute(ctx, e); err != nil {
			logger.GetLogger().Warn("smf worker execute failed", "event", e.String(), "err", err)
		}
	}
}
