package driver

import (
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// RawMIDIOut is a MIDIOut that writes the executor's already-encoded
// wire MIDI bytes straight to a real system MIDI output port via
// gomidi/midi/v2's cross-platform driver layer (ALSA/CoreMIDI/WinMM),
// for callers with actual MIDI hardware rather than the software
// synthesizer fallback in softsynth.go.
type RawMIDIOut struct {
	send midi.Sender
	out  drivers.Out
}

// OpenRawMIDIOut opens the first system MIDI output port whose name
// contains nameSubstr (case-sensitive, per midi.v2's FindOutPort), or
// output port number 0 if nameSubstr is empty.
func OpenRawMIDIOut(nameSubstr string) (*RawMIDIOut, error) {
	var out drivers.Out
	var err error
	if nameSubstr == "" {
		out, err = midi.OutPort(0)
	} else {
		out, err = midi.FindOutPort(nameSubstr)
	}
	if err != nil {
		return nil, err
	}
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, err
	}
	return &RawMIDIOut{send: send, out: out}, nil
}

// WriteMessage forwards msg unmodified; the executor has already built
// a complete, running-status-free wire message (spec §4.5/§6).
func (r *RawMIDIOut) WriteMessage(msg []byte) error {
	return r.send(msg)
}

// Close releases the underlying system MIDI output port.
func (r *RawMIDIOut) Close() error {
	return midi.CloseDriver()
}
