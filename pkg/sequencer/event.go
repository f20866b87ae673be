package sequencer

import "fmt"

// EventKind discriminates the payload carried by an event record. The names
// mirror spec §3's event kind table and are normative for tests.
type EventKind int

const (
	NoteOn EventKind = iota
	NoteOff
	Aftertouch
	InstChange
	Pressure
	Pitch
	PitchRange
	Attack
	Release
	Vibrato
	VolSynthChan
	PortTime
	Balance
	Pan
	Timbre
	Brightness
	Reverb
	Tremulo
	Chorus
	Celeste
	Phaser
	Mono
	Legato
	Portamento
	Poly
	PlaySynth
	PlayWave
	VolWave
)

func (k EventKind) String() string {
	switch k {
	case NoteOn:
		return "NoteOn"
	case NoteOff:
		return "NoteOff"
	case Aftertouch:
		return "Aftertouch"
	case InstChange:
		return "InstChange"
	case Pressure:
		return "Pressure"
	case Pitch:
		return "Pitch"
	case PitchRange:
		return "PitchRange"
	case Attack:
		return "Attack"
	case Release:
		return "Release"
	case Vibrato:
		return "Vibrato"
	case VolSynthChan:
		return "VolSynthChan"
	case PortTime:
		return "PortTime"
	case Balance:
		return "Balance"
	case Pan:
		return "Pan"
	case Timbre:
		return "Timbre"
	case Brightness:
		return "Brightness"
	case Reverb:
		return "Reverb"
	case Tremulo:
		return "Tremulo"
	case Chorus:
		return "Chorus"
	case Celeste:
		return "Celeste"
	case Phaser:
		return "Phaser"
	case Mono:
		return "Mono"
	case Legato:
		return "Legato"
	case Portamento:
		return "Portamento"
	case Poly:
		return "Poly"
	case PlaySynth:
		return "PlaySynth"
	case PlayWave:
		return "PlayWave"
	case VolWave:
		return "VolWave"
	default:
		return "Unknown"
	}
}

// event is a single scheduling unit. Every event is owned by exactly one
// of: the caller (before submission), the queue, an executing worker, or
// the pool free-list (spec §3 invariant). next is the pool/queue's
// intrusive singly-linked-list pointer; callers never see it.
//
// The struct carries the union of every kind's payload fields rather than
// an interface{} payload, so acquiring one from the pool never allocates
// and putting it back never leaks a boxed value.
type event struct {
	kind EventKind
	port int   // 1-based logical MIDI/PCM output index
	time int64 // absolute ticks since epoch; 0 means "now"

	channel    int // 1..16
	note       int // 1..128
	velocity   int // 0..math.MaxInt32
	instrument int // 1..128
	value      int // domain per control; signed for Pitch
	boolean    bool

	synthID int // logical MIDI track id (PlaySynth)
	waveID  int // logical PCM clip id (PlayWave)

	next *event
}

// String renders an event for diagnostics, the Go-idiomatic replacement
// for the original sequencer's dmpseq ASCII dump.
func (e *event) String() string {
	switch e.kind {
	case NoteOn, NoteOff, Aftertouch:
		return fmt.Sprintf("%s time=%d port=%d chan=%d note=%d vel=%d",
			e.kind, e.time, e.port, e.channel, e.note, e.velocity)
	case InstChange:
		return fmt.Sprintf("%s time=%d port=%d chan=%d inst=%d",
			e.kind, e.time, e.port, e.channel, e.instrument)
	case PlaySynth:
		return fmt.Sprintf("%s time=%d port=%d id=%d", e.kind, e.time, e.port, e.synthID)
	case PlayWave:
		return fmt.Sprintf("%s time=%d port=%d id=%d", e.kind, e.time, e.port, e.waveID)
	case VolWave:
		return fmt.Sprintf("%s time=%d port=%d value=%d", e.kind, e.time, e.port, e.value)
	case Legato, Portamento:
		return fmt.Sprintf("%s time=%d port=%d chan=%d on=%v",
			e.kind, e.time, e.port, e.channel, e.boolean)
	case Poly:
		return fmt.Sprintf("%s time=%d port=%d chan=%d", e.kind, e.time, e.port, e.channel)
	default:
		return fmt.Sprintf("%s time=%d port=%d chan=%d value=%d",
			e.kind, e.time, e.port, e.channel, e.value)
	}
}

// reset clears every payload field before an event returns to the pool,
// so a reused record never leaks a stale value from a previous owner.
func (e *event) reset() {
	*e = event{}
}
