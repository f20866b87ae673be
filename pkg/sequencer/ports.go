package sequencer

import (
	"io"
	"sync"
)

// MIDIOut is the external collaborator a port's wire MIDI bytes are
// written to. Spec §1 places the actual MIDI device driver out of
// scope; this interface is the seam the executor (C5) writes through.
// See pkg/driver for reference implementations (a software synthesizer
// and a real system MIDI output).
type MIDIOut interface {
	// WriteMessage writes one complete, already-encoded wire MIDI
	// message (2 or 3 bytes, no running status) to the device.
	WriteMessage(msg []byte) error
}

// PCMFormat describes the format a PCM clip was decoded to, passed to
// PCMOut.Open so the driver can configure the playback device to match
// (spec §4.9 step 3).
type PCMFormat struct {
	SampleRate    int
	Channels      int
	BitsPerSample int // one of 8, 16, 24, 32
}

// PCMOut is the external collaborator PCM frames are streamed to. Spec
// §1 places the actual PCM device driver out of scope; this interface
// is the seam the PCM playback worker (C9) writes through.
type PCMOut interface {
	// Open configures the device for the given port and format. It is
	// called once per PlayWave before any WriteFrames call.
	Open(port int, format PCMFormat) error
	// WriteFrames writes raw PCM frame bytes already in the device's
	// configured format. On a recoverable underrun/overrun the driver
	// should retry internally; only an unrecoverable failure should
	// be returned.
	WriteFrames(frames []byte) error
	// Close releases the device opened by Open.
	Close() error
}

// PortRegistry resolves logical 1-based port indices to opened
// MIDIOut/PCMOut collaborators. Device enumeration and capability
// negotiation are out of scope (spec §1); the registry only tracks
// which logical ports are currently open, leaving the actual open/close
// plumbing to the caller-supplied ports.
//
// The scheduler goroutine, any PlaySynth/PlayWave worker, and the API
// caller issuing immediate events or Open/CloseSynthOut/Open/CloseWaveOut
// may all touch the registry concurrently, so mu guards both maps.
type PortRegistry struct {
	mu   sync.RWMutex
	midi map[int]MIDIOut
	pcm  map[int]PCMOut
}

// NewPortRegistry returns an empty registry.
func NewPortRegistry() *PortRegistry {
	return &PortRegistry{
		midi: make(map[int]MIDIOut),
		pcm:  make(map[int]PCMOut),
	}
}

// OpenSynthOut registers out as the MIDI output for port p. Per spec
// §8 item 7, opening an already-open port is a BadArgument.
func (r *PortRegistry) OpenSynthOut(p int, out MIDIOut) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, open := r.midi[p]; open {
		return newErr(KindBadArgument, "synth out port already open", nil)
	}
	r.midi[p] = out
	return nil
}

// CloseSynthOut closes the underlying driver if it implements
// io.Closer and unregisters port p.
func (r *PortRegistry) CloseSynthOut(p int) error {
	r.mu.Lock()
	out, open := r.midi[p]
	if !open {
		r.mu.Unlock()
		return newErr(KindBadArgument, "synth out port not open", nil)
	}
	delete(r.midi, p)
	r.mu.Unlock()
	if c, ok := out.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// OpenWaveOut registers out as the PCM output for port p.
func (r *PortRegistry) OpenWaveOut(p int, out PCMOut) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, open := r.pcm[p]; open {
		return newErr(KindBadArgument, "wave out port already open", nil)
	}
	r.pcm[p] = out
	return nil
}

// CloseWaveOut unregisters the PCM output for port p.
func (r *PortRegistry) CloseWaveOut(p int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, open := r.pcm[p]
	if !open {
		return newErr(KindBadArgument, "wave out port not open", nil)
	}
	delete(r.pcm, p)
	return nil
}

func (r *PortRegistry) midiOut(p int) (MIDIOut, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out, ok := r.midi[p]
	return out, ok
}

func (r *PortRegistry) pcmOut(p int) (PCMOut, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out, ok := r.pcm[p]
	return out, ok
}

func (r *PortRegistry) isSynthOpen(p int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.midi[p]
	return ok
}

func (r *PortRegistry) isWaveOpen(p int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.pcm[p]
	return ok
}
