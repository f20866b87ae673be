package sequencer

import (
	"time"

	"flowseq/pkg/fileutil"
	"flowseq/pkg/logger"
)

// Sequencer is the explicit engine value spec §9 calls for in place of
// the original's process-wide statics: every other component (clock,
// queue, scheduler, caches, counters, port registry) is a field here,
// and every API entry is a method.
type Sequencer struct {
	clock clock
	queue *eventQueue
	sched *scheduler
	ports *PortRegistry

	tracks *trackTable
	waves  *waveTable

	midiQuiescence *quiescenceCounter
	pcmQuiescence  *quiescenceCounter

	fs  fileutil.FileSystem
	ctx *executeContext
}

// NewSequencer builds a Sequencer in the Stopped state. fs resolves
// the paths passed to LoadSynth/LoadWave; pass fileutil.NewRealFS for
// an on-disk library, or an EmbedFS to ship assets inside the binary.
func NewSequencer(fs fileutil.FileSystem) *Sequencer {
	s := &Sequencer{
		queue:          &eventQueue{},
		ports:          NewPortRegistry(),
		midiQuiescence: newQuiescenceCounter(),
		pcmQuiescence:  newQuiescenceCounter(),
		fs:             fs,
	}
	s.tracks = newTrackTable(s.midiQuiescence)
	s.waves = newWaveTable(s.pcmQuiescence)
	s.ctx = &executeContext{
		registry:  s.ports,
		playSynth: s.spawnSynth,
		playWave:  s.spawnWave,
	}
	s.sched = newScheduler(s.queue, &s.clock, s.midiQuiescence, s.ctx)
	return s
}

// StartTime transitions Stopped -> Running, capturing the epoch every
// subsequent absolute time field is relative to (spec §4.4).
func (s *Sequencer) StartTime() {
	s.clock.start()
}

// StopTime transitions Running -> Stopped: cancels the pending timer,
// drains the queue back to the pool, and clears the epoch (spec §4.4).
// Running SMF/PCM workers are not cancelled; they complete naturally
// (spec §5 Cancellation).
func (s *Sequencer) StopTime() {
	s.sched.stop()
	s.queue.drain()
	s.clock.stop()
}

// CurrentTime reports elapsed ticks since the epoch, or NotRunning if
// the sequencer is Stopped (spec §4.1).
func (s *Sequencer) CurrentTime() (int64, error) {
	return s.clock.elapsed()
}

// OpenSynthOut registers a MIDI output collaborator for port. Opening
// an already-open port raises BadArgument (spec §8 item 7).
func (s *Sequencer) OpenSynthOut(port int, out MIDIOut) error {
	return s.ports.OpenSynthOut(port, out)
}

// CloseSynthOut releases the MIDI output collaborator for port.
func (s *Sequencer) CloseSynthOut(port int) error {
	return s.ports.CloseSynthOut(port)
}

// OpenWaveOut registers a PCM output collaborator for port.
func (s *Sequencer) OpenWaveOut(port int, out PCMOut) error {
	return s.ports.OpenWaveOut(port, out)
}

// CloseWaveOut releases the PCM output collaborator for port.
func (s *Sequencer) CloseWaveOut(port int) error {
	return s.ports.CloseWaveOut(port)
}

// --- entry guards (spec §4.11) ---

func (s *Sequencer) validateSynthPort(port int) error {
	if port < 1 {
		return newErr(KindBadArgument, "synth port out of range", nil)
	}
	if !s.ports.isSynthOpen(port) {
		return newErr(KindBadArgument, "synth out port not open", nil)
	}
	return nil
}

func (s *Sequencer) validateWavePort(port int) error {
	if port < 1 {
		return newErr(KindBadArgument, "wave port out of range", nil)
	}
	if !s.ports.isWaveOpen(port) {
		return newErr(KindBadArgument, "wave out port not open", nil)
	}
	return nil
}

func validateChannel(channel int) error {
	if channel < 1 || channel > 16 {
		return newErr(KindBadArgument, "channel out of range", nil)
	}
	return nil
}

// validateMonoMode allows 0..16, the mono mode/channel-count value
// (spec §4.11: "Mono mode accepts 0..16"), distinct from the regular
// 1..16 channel argument every event carries.
func validateMonoMode(value int) error {
	if value < 0 || value > 16 {
		return newErr(KindBadArgument, "mono mode out of range", nil)
	}
	return nil
}

func validateNote(note int) error {
	if note < 1 || note > 128 {
		return newErr(KindBadArgument, "note out of range", nil)
	}
	return nil
}

func validateInstrument(instrument int) error {
	if instrument < 1 || instrument > 128 {
		return newErr(KindBadArgument, "instrument out of range", nil)
	}
	return nil
}

// --- submission plumbing ---

// submit routes e per spec §3/§4.4: time<=0 (or already due) executes
// inline and returns e to the pool; otherwise e is enqueued and the
// scheduler is armed if the queue had been empty.
func (s *Sequencer) submit(e *event) error {
	if e.time <= 0 {
		err := execute(s.ctx, e)
		s.queue.release(e)
		return err
	}

	now, err := s.clock.elapsed()
	if err != nil {
		s.queue.release(e)
		return err
	}
	if e.time <= now {
		err := execute(s.ctx, e)
		s.queue.release(e)
		return err
	}

	if wasEmpty := s.queue.insert(e); wasEmpty {
		s.sched.onEnqueue(e.time, now)
	}
	return nil
}

func (s *Sequencer) submitChannelValue(kind EventKind, port int, t int64, channel, value int) error {
	if err := s.validateSynthPort(port); err != nil {
		return err
	}
	if err := validateChannel(channel); err != nil {
		return err
	}
	e := s.queue.acquire()
	e.kind, e.port, e.time, e.channel, e.value = kind, port, t, channel, value
	return s.submit(e)
}

func (s *Sequencer) submitChannelBool(kind EventKind, port int, t int64, channel int, on bool) error {
	if err := s.validateSynthPort(port); err != nil {
		return err
	}
	if err := validateChannel(channel); err != nil {
		return err
	}
	e := s.queue.acquire()
	e.kind, e.port, e.time, e.channel, e.boolean = kind, port, t, channel, on
	return s.submit(e)
}

// --- live events: notes (spec §3 table) ---

func (s *Sequencer) NoteOn(port int, t int64, channel, note, velocity int) error {
	if err := s.validateSynthPort(port); err != nil {
		return err
	}
	if err := validateChannel(channel); err != nil {
		return err
	}
	if err := validateNote(note); err != nil {
		return err
	}
	e := s.queue.acquire()
	e.kind, e.port, e.time = NoteOn, port, t
	e.channel, e.note, e.velocity = channel, note, velocity
	return s.submit(e)
}

func (s *Sequencer) NoteOff(port int, t int64, channel, note, velocity int) error {
	if err := s.validateSynthPort(port); err != nil {
		return err
	}
	if err := validateChannel(channel); err != nil {
		return err
	}
	if err := validateNote(note); err != nil {
		return err
	}
	e := s.queue.acquire()
	e.kind, e.port, e.time = NoteOff, port, t
	e.channel, e.note, e.velocity = channel, note, velocity
	return s.submit(e)
}

func (s *Sequencer) Aftertouch(port int, t int64, channel, note, velocity int) error {
	if err := s.validateSynthPort(port); err != nil {
		return err
	}
	if err := validateChannel(channel); err != nil {
		return err
	}
	if err := validateNote(note); err != nil {
		return err
	}
	e := s.queue.acquire()
	e.kind, e.port, e.time = Aftertouch, port, t
	e.channel, e.note, e.velocity = channel, note, velocity
	return s.submit(e)
}

func (s *Sequencer) InstChange(port int, t int64, channel, instrument int) error {
	if err := s.validateSynthPort(port); err != nil {
		return err
	}
	if err := validateChannel(channel); err != nil {
		return err
	}
	if err := validateInstrument(instrument); err != nil {
		return err
	}
	e := s.queue.acquire()
	e.kind, e.port, e.time = InstChange, port, t
	e.channel, e.instrument = channel, instrument
	return s.submit(e)
}

// --- live events: channel+value controls ---

func (s *Sequencer) Pressure(port int, t int64, channel, value int) error {
	return s.submitChannelValue(Pressure, port, t, channel, value)
}

func (s *Sequencer) Pitch(port int, t int64, channel, value int) error {
	return s.submitChannelValue(Pitch, port, t, channel, value)
}

func (s *Sequencer) PitchRange(port int, t int64, channel, value int) error {
	return s.submitChannelValue(PitchRange, port, t, channel, value)
}

func (s *Sequencer) Attack(port int, t int64, channel, value int) error {
	return s.submitChannelValue(Attack, port, t, channel, value)
}

func (s *Sequencer) Release(port int, t int64, channel, value int) error {
	return s.submitChannelValue(Release, port, t, channel, value)
}

func (s *Sequencer) Vibrato(port int, t int64, channel, value int) error {
	return s.submitChannelValue(Vibrato, port, t, channel, value)
}

func (s *Sequencer) VolSynthChan(port int, t int64, channel, value int) error {
	return s.submitChannelValue(VolSynthChan, port, t, channel, value)
}

func (s *Sequencer) PortTime(port int, t int64, channel, value int) error {
	return s.submitChannelValue(PortTime, port, t, channel, value)
}

func (s *Sequencer) Balance(port int, t int64, channel, value int) error {
	return s.submitChannelValue(Balance, port, t, channel, value)
}

func (s *Sequencer) Pan(port int, t int64, channel, value int) error {
	return s.submitChannelValue(Pan, port, t, channel, value)
}

func (s *Sequencer) Timbre(port int, t int64, channel, value int) error {
	return s.submitChannelValue(Timbre, port, t, channel, value)
}

func (s *Sequencer) Brightness(port int, t int64, channel, value int) error {
	return s.submitChannelValue(Brightness, port, t, channel, value)
}

func (s *Sequencer) Reverb(port int, t int64, channel, value int) error {
	return s.submitChannelValue(Reverb, port, t, channel, value)
}

func (s *Sequencer) Tremulo(port int, t int64, channel, value int) error {
	return s.submitChannelValue(Tremulo, port, t, channel, value)
}

func (s *Sequencer) Chorus(port int, t int64, channel, value int) error {
	return s.submitChannelValue(Chorus, port, t, channel, value)
}

func (s *Sequencer) Celeste(port int, t int64, channel, value int) error {
	return s.submitChannelValue(Celeste, port, t, channel, value)
}

func (s *Sequencer) Phaser(port int, t int64, channel, value int) error {
	return s.submitChannelValue(Phaser, port, t, channel, value)
}

// Mono takes a regular 1..16 channel like every other channel event;
// the 0..16 range in spec §4.11 is the mono mode number (value), the
// count of channels to respond to, not the channel argument.
func (s *Sequencer) Mono(port int, t int64, channel, value int) error {
	if err := s.validateSynthPort(port); err != nil {
		return err
	}
	if err := validateChannel(channel); err != nil {
		return err
	}
	if err := validateMonoMode(value); err != nil {
		return err
	}
	e := s.queue.acquire()
	e.kind, e.port, e.time, e.channel, e.value = Mono, port, t, channel, value
	return s.submit(e)
}

// --- live events: channel+bool controls ---

func (s *Sequencer) Legato(port int, t int64, channel int, on bool) error {
	return s.submitChannelBool(Legato, port, t, channel, on)
}

func (s *Sequencer) Portamento(port int, t int64, channel int, on bool) error {
	return s.submitChannelBool(Portamento, port, t, channel, on)
}

// Poly carries no payload beyond the channel (spec §3 table).
func (s *Sequencer) Poly(port int, t int64, channel int) error {
	if err := s.validateSynthPort(port); err != nil {
		return err
	}
	if err := validateChannel(channel); err != nil {
		return err
	}
	e := s.queue.acquire()
	e.kind, e.port, e.time, e.channel = Poly, port, t, channel
	return s.submit(e)
}

// VolWave is accepted but is a no-op in this design (spec §4.5, §9 Open
// Question 3): the event still validates and executes on schedule, it
// simply produces no side effect.
func (s *Sequencer) VolWave(port int, t int64, value int) error {
	if err := s.validateWavePort(port); err != nil {
		return err
	}
	e := s.queue.acquire()
	e.kind, e.port, e.time, e.value = VolWave, port, t, value
	return s.submit(e)
}

// --- loaded content: SMF tracks ---

// LoadSynth reads path through the sequencer's file system, decodes it
// as an SMF (or RIFF-wrapped RMID), and installs the resulting
// time-sorted event list into track slot id (spec §4.6/§4.7).
func (s *Sequencer) LoadSynth(id int, path string) error {
	raw, err := s.fs.ReadFile(path)
	if err != nil {
		return newErr(KindInvalidFile, "cannot open synth file", err)
	}
	events, err := decodeSMF(raw)
	if err != nil {
		return err
	}
	return s.tracks.load(id, &midiTrack{events: events})
}

// DeleteSynth removes track slot id, retrying until the slot's active
// worker count reaches zero (spec §4.7's "retry until quiet" MIDI
// delete policy — see DESIGN.md for why this polls rather than waiting
// on a per-slot condition variable).
func (s *Sequencer) DeleteSynth(id int) error {
	for {
		err := s.tracks.delete(id)
		if err == nil {
			return nil
		}
		se, ok := err.(*Error)
		if !ok || se.Kind != KindSlotInUse {
			return err
		}
		time.Sleep(time.Millisecond)
	}
}

// PlaySynth executes immediately (time<=0) or schedules a PlaySynth
// event that, when due, spawns a detached worker walking track id
// through port (spec §4.5, §4.8).
func (s *Sequencer) PlaySynth(port int, t int64, id int) error {
	if err := s.validateSynthPort(port); err != nil {
		return err
	}
	if id < 1 || id > MaxMIDITracks {
		return newErr(KindBadArgument, "midi track id out of range", nil)
	}
	e := s.queue.acquire()
	e.kind, e.port, e.time, e.synthID = PlaySynth, port, t, id
	return s.submit(e)
}

// spawnSynth is the executeContext.playSynth collaborator: it never
// waits on playback (spec §4.5). The slot lookup and counter entry
// happen before it returns, so a WaitSynth issued after PlaySynth
// already sees the worker; playback itself runs on its own goroutine.
func (s *Sequencer) spawnSynth(port, id int) {
	tr, err := s.tracks.acquirePlay(id)
	if err != nil {
		// Empty slot: spec §4.8 step 1 just returns.
		return
	}
	go func() {
		defer s.tracks.releasePlay(tr)
		start := time.Now()
		playMIDITrack(tr.events, port, s.ctx, func() int64 {
			return int64(time.Since(start) / tickDuration)
		})
	}()
}

// --- loaded content: PCM clips ---

// LoadWave stores path (not its contents) in wave slot id; the file is
// opened and parsed by the playback worker at play time (spec §3/§4.9).
func (s *Sequencer) LoadWave(id int, path string) error {
	return s.waves.load(id, &waveClip{path: path})
}

// DeleteWave removes wave slot id. Unlike DeleteSynth this never
// blocks: a running worker has already copied the filename out
// (spec §4.7/§3).
func (s *Sequencer) DeleteWave(id int) error {
	return s.waves.delete(id)
}

// PlayWave executes immediately or schedules a PlayWave event that
// spawns a detached worker streaming clip id through port.
func (s *Sequencer) PlayWave(port int, t int64, id int) error {
	if err := s.validateWavePort(port); err != nil {
		return err
	}
	if id < 1 || id > MaxWaveClips {
		return newErr(KindBadArgument, "wave clip id out of range", nil)
	}
	e := s.queue.acquire()
	e.kind, e.port, e.time, e.waveID = PlayWave, port, t, id
	return s.submit(e)
}

// spawnWave enters the PCM counter before it returns, so a WaitWave
// issued after PlayWave already sees the worker; playback runs on its
// own goroutine.
func (s *Sequencer) spawnWave(port, id int) {
	wc, err := s.waves.acquirePlay(id)
	if err != nil {
		return
	}
	go func() {
		defer s.waves.releasePlay(wc)
		out, ok := s.ports.pcmOut(port)
		if !ok {
			return
		}
		if err := playPCMClip(s.fs, wc.path, port, out); err != nil {
			logger.GetLogger().Warn("pcm playback failed", "path", wc.path, "err", err)
		}
	}()
}

// --- quiescence (spec §4.10, §6) ---

// WaitSynth blocks until every MIDI-class worker — SMF playback
// workers and the scheduler's own armed timer — has gone idle. port is
// validated to be an open synth port; the underlying counter is global
// across all ports (spec §9 Open Question 4 resolves this in favor of
// tying the scheduler's count to the same counter SMF workers use, see
// DESIGN.md).
func (s *Sequencer) WaitSynth(port int) error {
	if err := s.validateSynthPort(port); err != nil {
		return err
	}
	s.midiQuiescence.wait()
	return nil
}

// WaitWave blocks until every PCM playback worker has gone idle.
func (s *Sequencer) WaitWave(port int) error {
	if err := s.validateWavePort(port); err != nil {
		return err
	}
	s.pcmQuiescence.wait()
	return nil
}
