package driver

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"

	"flowseq/pkg/sequencer"
)

// PCMPlayer is a sequencer.PCMOut that streams the frames a PCM
// playback worker decodes (spec §4.9) into an ebiten/audio player,
// converting mono or stereo clips of any accepted bit width into the
// shared context's native 16-bit stereo stream; clips with more than
// two channels are rejected. Resampling is
// out of scope (spec §1 Non-goals): a clip whose sample rate doesn't
// match ctx's is rejected.
type PCMPlayer struct {
	ctx *audio.Context

	mu     sync.Mutex
	format sequencer.PCMFormat
	stream *pcmStream
	player *audio.Player
}

// NewPCMPlayer wraps ctx, shared with a SoftSynth so both event
// classes mix through one audio output (spec DOMAIN STACK).
func NewPCMPlayer(ctx *audio.Context) *PCMPlayer {
	return &PCMPlayer{ctx: ctx}
}

// Open validates format against what this driver can convert and
// starts a fresh stream/player pair for the clip about to play.
func (p *PCMPlayer) Open(port int, format sequencer.PCMFormat) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if format.SampleRate != p.ctx.SampleRate() {
		return fmt.Errorf("pcm sample rate %d does not match output context rate %d",
			format.SampleRate, p.ctx.SampleRate())
	}
	if format.Channels != 1 && format.Channels != 2 {
		return fmt.Errorf("unsupported channel count %d", format.Channels)
	}
	switch format.BitsPerSample {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("unsupported bit width %d", format.BitsPerSample)
	}

	p.format = format
	p.stream = newPCMStream(format)
	player, err := p.ctx.NewPlayer(p.stream)
	if err != nil {
		return fmt.Errorf("cannot create audio player: %w", err)
	}
	p.player = player
	p.player.Play()
	return nil
}

// WriteFrames converts and pushes one transfer buffer's worth of raw
// frames (spec §4.9 step 4). It blocks briefly if the stream's
// pending-chunk queue is full, applying natural backpressure.
func (p *PCMPlayer) WriteFrames(frames []byte) error {
	p.mu.Lock()
	stream := p.stream
	p.mu.Unlock()
	if stream == nil {
		return fmt.Errorf("pcm output not open")
	}
	stream.push(convertToStereo16(frames, stream.format))
	return nil
}

// Close stops playback and releases the stream and player.
func (p *PCMPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream != nil {
		p.stream.close()
		p.stream = nil
	}
	if p.player != nil {
		p.player.Close()
		p.player = nil
	}
	return nil
}

// pcmStream feeds pushed, already-converted 16-bit stereo chunks to
// ebiten/audio's player goroutine via a buffered channel; Read blocks
// until a chunk is available, which is safe since it only ever runs on
// ebiten's dedicated player goroutine.
type pcmStream struct {
	format  sequencer.PCMFormat
	chunks  chan []byte
	pending []byte
}

func newPCMStream(format sequencer.PCMFormat) *pcmStream {
	return &pcmStream{format: format, chunks: make(chan []byte, 64)}
}

func (s *pcmStream) push(chunk []byte) {
	s.chunks <- chunk
}

func (s *pcmStream) close() {
	close(s.chunks)
}

func (s *pcmStream) Read(p []byte) (int, error) {
	if len(s.pending) == 0 {
		chunk, ok := <-s.chunks
		if !ok {
			return 0, io.EOF
		}
		s.pending = chunk
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// convertToStereo16 widens raw[format] frames to 16-bit little-endian
// stereo, duplicating a mono channel to both output channels.
func convertToStereo16(raw []byte, format sequencer.PCMFormat) []byte {
	bytesPerSample := format.BitsPerSample / 8
	frameSize := bytesPerSample * format.Channels
	if frameSize == 0 {
		return nil
	}
	frameCount := len(raw) / frameSize
	out := make([]byte, frameCount*4)

	for i := 0; i < frameCount; i++ {
		base := i * frameSize
		var l, r int16
		switch format.Channels {
		case 1:
			l = sampleToInt16(raw[base:base+bytesPerSample], format.BitsPerSample)
			r = l
		default: // 2
			l = sampleToInt16(raw[base:base+bytesPerSample], format.BitsPerSample)
			r = sampleToInt16(raw[base+bytesPerSample:base+2*bytesPerSample], format.BitsPerSample)
		}
		binary.LittleEndian.PutUint16(out[i*4:], uint16(l))
		binary.LittleEndian.PutUint16(out[i*4+2:], uint16(r))
	}
	return out
}

// sampleToInt16 widens/narrows one little-endian PCM sample to a
// signed 16-bit value. 8-bit WAV samples are unsigned with a 0x80 bias
// per the RIFF/WAVE convention; 16/24/32-bit samples are signed.
func sampleToInt16(b []byte, bits int) int16 {
	switch bits {
	case 8:
		return int16(int(b[0])-128) << 8
	case 16:
		return int16(binary.LittleEndian.Uint16(b))
	case 24:
		v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		if v&0x800000 != 0 {
			v |= -(1 << 24)
		}
		return int16(v >> 8)
	case 32:
		v := int32(binary.LittleEndian.Uint32(b))
		return int16(v >> 16)
	default:
		return 0
	}
}
