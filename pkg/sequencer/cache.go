package sequencer

import (
	"fmt"
	"strings"
	"sync"
)

// MaxMIDITracks and MaxWaveClips are the fixed slot-table capacities,
// per spec §4.7 ("MAXMIDT/MAXWAVT, each >= 100"). Ids are 1-based and
// must fall in [1, MaxMIDITracks] / [1, MaxWaveClips].
const (
	MaxMIDITracks = 128
	MaxWaveClips  = 128
)

// midiTrack is a cached, decoded SMF ready for repeated PlaySynth
// submissions, per spec §4.6/§4.7.
type midiTrack struct {
	events []*event // time-sorted, time is ticks since track start (spec §4.6)
	active int       // number of workers currently playing this slot
}

// String renders the loaded event list for diagnostics, the Go-idiomatic
// replacement for the original sequencer's dmpseqlst ASCII dump.
func (t *midiTrack) String() string {
	lines := make([]string, len(t.events))
	for i, e := range t.events {
		lines[i] = e.String()
	}
	return fmt.Sprintf("midiTrack active=%d events=%d\n%s", t.active, len(t.events), strings.Join(lines, "\n"))
}

// waveClip owns a PCM filename, per spec §3 ("Loaded PCM filenames:
// created by loadwave, owned by a wave slot"). Unlike a midiTrack the
// file itself is not parsed at load time: each PCM playback worker
// copies path out under the table lock and parses the WAV data itself
// (spec §4.9 step 1). Unlike midiTrack there is no per-slot counter
// (spec §4.7: PCM delete "take the lock, take and clear the slot
// pointer, release the lock, free the filename" — no counter check),
// since a running worker has already copied the filename and cannot be
// affected by the slot being cleared.
type waveClip struct {
	path string
}

// String renders the clip's filename for diagnostics.
func (w *waveClip) String() string {
	return fmt.Sprintf("waveClip path=%q", w.path)
}

// trackTable holds the loaded SMF slots. Spec §4.7 keeps load/delete
// and the active-worker counters behind one lock so a delete can never
// race a load into the same slot, and so wait/load/delete observe a
// consistent view of which slots are busy. global is the Sequencer's
// shared MIDI quiescence counter (spec §4.4: the scheduler itself also
// counts against it while armed), not owned by this table.
type trackTable struct {
	mu     sync.Mutex
	slots  [MaxMIDITracks + 1]*midiTrack // index 0 unused, ids are 1-based
	global *quiescenceCounter
}

func newTrackTable(global *quiescenceCounter) *trackTable {
	return &trackTable{global: global}
}

// load installs t into slot id. Returns SlotInUse if the slot is
// already occupied, per spec §4.7.
func (t *trackTable) load(id int, tr *midiTrack) error {
	if id < 1 || id > MaxMIDITracks {
		return newErr(KindBadArgument, "midi track id out of range", nil)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.slots[id] != nil {
		return newErr(KindSlotInUse, "midi track slot already loaded", nil)
	}
	t.slots[id] = tr
	return nil
}

// delete removes slot id. Deleting a slot with active workers is
// rejected; callers must wait for quiescence first (spec §4.7 "cannot
// delete a busy slot").
func (t *trackTable) delete(id int) error {
	if id < 1 || id > MaxMIDITracks {
		return newErr(KindBadArgument, "midi track id out of range", nil)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	tr := t.slots[id]
	if tr == nil {
		return newErr(KindNoSlot, "midi track slot not loaded", nil)
	}
	if tr.active != 0 {
		return newErr(KindSlotInUse, "midi track slot busy", nil)
	}
	t.slots[id] = nil
	return nil
}

// acquirePlay returns the cached track for id and marks one more
// worker active against it, or an error if the slot is empty. The
// returned events slice must be treated as read-only: spec §9's
// clone-on-read redesign (see DESIGN.md) has every worker copy what it
// needs before iterating, so the cache is never mutated by playback.
func (t *trackTable) acquirePlay(id int) (*midiTrack, error) {
	if id < 1 || id > MaxMIDITracks {
		return nil, newErr(KindBadArgument, "midi track id out of range", nil)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	tr := t.slots[id]
	if tr == nil {
		return nil, newErr(KindNoSlot, "midi track slot not loaded", nil)
	}
	tr.active++
	t.global.enter()
	return tr, nil
}

// releasePlay marks one worker done against tr.
func (t *trackTable) releasePlay(tr *midiTrack) {
	t.mu.Lock()
	tr.active--
	t.mu.Unlock()
	t.global.leave()
}

// waveTable is the PCM-clip counterpart of trackTable.
type waveTable struct {
	mu     sync.Mutex
	slots  [MaxWaveClips + 1]*waveClip
	global *quiescenceCounter
}

func newWaveTable(global *quiescenceCounter) *waveTable {
	return &waveTable{global: global}
}

func (w *waveTable) load(id int, wc *waveClip) error {
	if id < 1 || id > MaxWaveClips {
		return newErr(KindBadArgument, "wave clip id out of range", nil)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.slots[id] != nil {
		return newErr(KindSlotInUse, "wave clip slot already loaded", nil)
	}
	w.slots[id] = wc
	return nil
}

// delete clears slot id unconditionally, per spec §4.7: PCM slots carry
// no per-slot busy counter, so delete never waits on running workers.
func (w *waveTable) delete(id int) error {
	if id < 1 || id > MaxWaveClips {
		return newErr(KindBadArgument, "wave clip id out of range", nil)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.slots[id] == nil {
		return newErr(KindNoSlot, "wave clip slot not loaded", nil)
	}
	w.slots[id] = nil
	return nil
}

// acquirePlay copies out the clip for id and enters the global PCM
// counter. The returned *waveClip is a read-only snapshot; it may
// outlive the slot itself (spec §4.9 step 1 / §3 lifecycle note).
func (w *waveTable) acquirePlay(id int) (*waveClip, error) {
	if id < 1 || id > MaxWaveClips {
		return nil, newErr(KindBadArgument, "wave clip id out of range", nil)
	}
	w.mu.Lock()
	wc := w.slots[id]
	w.mu.Unlock()
	if wc == nil {
		return nil, newErr(KindNoSlot, "wave clip slot not loaded", nil)
	}
	w.global.enter()
	return wc, nil
}

// releasePlay leaves the global PCM counter entered by acquirePlay.
func (w *waveTable) releasePlay(wc *waveClip) {
	w.global.leave()
}
