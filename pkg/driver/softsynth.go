// Package driver provides reference MIDIOut/PCMOut implementations for
// pkg/sequencer's out-of-scope collaborators (spec §1/§6): a software
// synthesizer driven by go-meltysynth, an ebiten/audio PCM player, and
// a real system MIDI output via gomidi/midi/v2.
package driver

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/sinshu/go-meltysynth/meltysynth"
)

// SynthSampleRate is the sample rate the software synthesizer renders
// at and the rate every SoftSynth/PCMPlayer sharing one audio.Context
// must agree on.
const SynthSampleRate = 44100

// ErrNoSoundFont mirrors the teacher's MIDI player error for a missing
// SoundFont path.
var ErrNoSoundFont = errors.New("SoundFont file is required for software synthesis")

// SoftSynth is a MIDIOut that feeds the executor's wire MIDI bytes
// directly into an in-process go-meltysynth synthesizer, so a caller
// with no MIDI hardware still hears the sequence (spec DOMAIN STACK).
type SoftSynth struct {
	synth  *meltysynth.Synthesizer
	ctx    *audio.Context
	stream *synthStream
	player *audio.Player
	mu     sync.Mutex
}

// NewSoftSynth loads soundFontPath and starts a continuously-rendering
// player against ctx. ctx's sample rate must equal SynthSampleRate.
func NewSoftSynth(soundFontPath string, ctx *audio.Context) (*SoftSynth, error) {
	if soundFontPath == "" {
		return nil, ErrNoSoundFont
	}
	data, err := os.ReadFile(soundFontPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read SoundFont %q: %w", soundFontPath, err)
	}
	soundFont, err := meltysynth.NewSoundFont(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot parse SoundFont %q: %w", soundFontPath, err)
	}
	settings := meltysynth.NewSynthesizerSettings(SynthSampleRate)
	synth, err := meltysynth.NewSynthesizer(soundFont, settings)
	if err != nil {
		return nil, fmt.Errorf("cannot create synthesizer: %w", err)
	}

	s := &SoftSynth{synth: synth, ctx: ctx, stream: &synthStream{synth: synth}}
	player, err := ctx.NewPlayer(s.stream)
	if err != nil {
		return nil, fmt.Errorf("cannot create audio player: %w", err)
	}
	s.player = player
	s.player.Play()
	return s, nil
}

// WriteMessage decodes the wire status byte into channel/command/data
// and dispatches it to the synthesizer, per sequencer.MIDIOut.
func (s *SoftSynth) WriteMessage(msg []byte) error {
	if len(msg) == 0 {
		return nil
	}
	status := msg[0]
	channel := int32(status & 0x0F)
	command := int32(status & 0xF0)
	var data1, data2 int32
	if len(msg) > 1 {
		data1 = int32(msg[1])
	}
	if len(msg) > 2 {
		data2 = int32(msg[2])
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.synth.ProcessMidiMessage(channel, command, data1, data2)
	return nil
}

// Close stops the rendering player. Satisfies io.Closer so
// PortRegistry.CloseSynthOut releases it automatically.
func (s *SoftSynth) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil {
		s.player.Close()
		s.player = nil
	}
	return nil
}

// synthStream renders the synthesizer's float32 stereo output into
// 16-bit interleaved PCM for ebiten/audio, the same conversion the
// teacher's MIDIStream.Read performs.
type synthStream struct {
	synth *meltysynth.Synthesizer
}

func (s *synthStream) Read(p []byte) (int, error) {
	samples := len(p) / 4
	if samples == 0 {
		return 0, nil
	}
	left := make([]float32, samples)
	right := make([]float32, samples)
	s.synth.Render(left, right)
	for i := range samples {
		l := int16(clampUnit(left[i]) * 32767)
		r := int16(clampUnit(right[i]) * 32767)
		binary.LittleEndian.PutUint16(p[i*4:], uint16(l))
		binary.LittleEndian.PutUint16(p[i*4+2:], uint16(r))
	}
	return samples * 4, nil
}

func clampUnit(v float32) float32 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
