package sequencer

// Standard MIDI channel voice status bytes (high nibble; channel is
// added in the low nibble on write).
const (
	statusNoteOff   byte = 0x80
	statusNoteOn    byte = 0x90
	statusAftertchV byte = 0xA0 // polyphonic key pressure
	statusCtrlChg   byte = 0xB0
	statusPgmChg    byte = 0xC0
	statusChanPres  byte = 0xD0
	statusPitchWhl  byte = 0xE0
)

// Controller numbers used by the coarse/fine expansions below, per the
// MIDI 1.0 control-change assignment table.
const (
	ccModWheelCoarse   = 1
	ccModWheelFine     = 33
	ccPortTimeCoarse   = 5
	ccPortTimeFine     = 37
	ccDataEntryCoarse  = 6
	ccVolumeCoarse     = 7
	ccVolumeFine       = 39
	ccBalanceCoarse    = 8
	ccBalanceFine      = 40
	ccDataEntryFine    = 38
	ccPanCoarse        = 10
	ccPortamento       = 65
	ccLegatoPedal      = 68
	ccSoundTimbre      = 71
	ccSoundReleaseTime = 72
	ccSoundAttackTime  = 73
	ccSoundBrightness  = 74
	ccEffectsLevel     = 91
	ccTremuloLevel     = 92
	ccChorusLevel      = 93
	ccCelesteLevel     = 94
	ccPhaserLevel      = 95
	ccRPNCoarse        = 101
	ccRPNFine          = 100
	ccPanFine          = 42
	ccMonoOperation    = 126
	ccPolyOperation    = 127
)

// scale7 maps a value in [0, math.MaxInt32] down to a 7-bit MIDI data
// byte by integer division, mirroring the original sequencer's
// `v/0x01000000`.
func scale7(v int) byte {
	return byte(v / 0x01000000)
}

// scale14Biased maps a signed value in [-math.MaxInt32, math.MaxInt32]
// to a 14-bit value biased by 0x2000 (used for pan, balance, and pitch
// bend), mirroring `v/0x00040000+0x2000`.
func scale14Biased(v int) int {
	return v/0x00040000 + 0x2000
}

// executeContext supplies the per-port MIDIOut a pure execute call
// needs, plus the hooks for spawning PlaySynth/PlayWave workers.
type executeContext struct {
	registry  *PortRegistry
	playSynth func(port int, id int)
	playWave  func(port int, id int)
}

// execute translates e into wire MIDI bytes written to the port's
// MIDIOut, or — for PlaySynth/PlayWave — spawns the corresponding
// worker and returns immediately without blocking (spec §4.5).
//
// execute never touches the queue or pool locks; it is a pure
// transformation plus a side effect on the configured output.
func execute(ctx *executeContext, e *event) error {
	switch e.kind {
	case PlaySynth:
		ctx.playSynth(e.port, e.synthID)
		return nil
	case PlayWave:
		ctx.playWave(e.port, e.waveID)
		return nil
	case VolWave:
		// Not implemented in this design, per spec §4.5/§9.
		return nil
	}

	out, ok := ctx.registry.midiOut(e.port)
	if !ok {
		return newErr(KindBadArgument, "midi out port not open", nil)
	}
	return writeEvent(out, e)
}

// writeEvent performs the actual wire encoding, split out from execute
// so tests can drive it without an executeContext.
func writeEvent(out MIDIOut, e *event) error {
	ch := byte(e.channel - 1)

	switch e.kind {
	case NoteOn:
		return out.WriteMessage([]byte{statusNoteOn + ch, byte(e.note - 1), scale7(e.velocity)})
	case NoteOff:
		return out.WriteMessage([]byte{statusNoteOff + ch, byte(e.note - 1), scale7(e.velocity)})
	case Aftertouch:
		return out.WriteMessage([]byte{statusAftertchV + ch, byte(e.note - 1), scale7(e.velocity)})
	case InstChange:
		return out.WriteMessage([]byte{statusPgmChg + ch, byte(e.instrument - 1)})
	case Pressure:
		return out.WriteMessage([]byte{statusChanPres + ch, scale7(e.value)})
	case Pitch:
		pt := scale14Biased(e.value)
		return out.WriteMessage([]byte{statusPitchWhl + ch, byte(pt & 0x7f), byte(pt / 0x80)})
	case PitchRange:
		if err := controlChange(out, ch, ccRPNCoarse, 0); err != nil {
			return err
		}
		if err := controlChange(out, ch, ccRPNFine, 0); err != nil {
			return err
		}
		if err := controlChange(out, ch, ccDataEntryCoarse, int(scale7(e.value))); err != nil {
			return err
		}
		return controlChange(out, ch, ccDataEntryFine, (e.value/0x00020000)&0x7f)
	case Attack:
		return controlChange(out, ch, ccSoundAttackTime, int(scale7(e.value)))
	case Release:
		return controlChange(out, ch, ccSoundReleaseTime, int(scale7(e.value)))
	case Vibrato:
		if err := controlChange(out, ch, ccModWheelCoarse, int(scale7(e.value))); err != nil {
			return err
		}
		return controlChange(out, ch, ccModWheelFine, (e.value/0x00020000)&0x7f)
	case VolSynthChan:
		if err := controlChange(out, ch, ccVolumeCoarse, int(scale7(e.value))); err != nil {
			return err
		}
		return controlChange(out, ch, ccVolumeFine, (e.value/0x00020000)&0x7f)
	case PortTime:
		if err := controlChange(out, ch, ccPortTimeCoarse, int(scale7(e.value))); err != nil {
			return err
		}
		return controlChange(out, ch, ccPortTimeFine, (e.value/0x00020000)&0x7f)
	case Balance:
		b := scale14Biased(e.value)
		if err := controlChange(out, ch, ccBalanceCoarse, b/0x80); err != nil {
			return err
		}
		return controlChange(out, ch, ccBalanceFine, b&0x7f)
	case Pan:
		b := scale14Biased(e.value)
		if err := controlChange(out, ch, ccPanCoarse, b/0x80); err != nil {
			return err
		}
		return controlChange(out, ch, ccPanFine, b&0x7f)
	case Timbre:
		return controlChange(out, ch, ccSoundTimbre, int(scale7(e.value)))
	case Brightness:
		return controlChange(out, ch, ccSoundBrightness, int(scale7(e.value)))
	case Reverb:
		return controlChange(out, ch, ccEffectsLevel, int(scale7(e.value)))
	case Tremulo:
		return controlChange(out, ch, ccTremuloLevel, int(scale7(e.value)))
	case Chorus:
		return controlChange(out, ch, ccChorusLevel, int(scale7(e.value)))
	case Celeste:
		return controlChange(out, ch, ccCelesteLevel, int(scale7(e.value)))
	case Phaser:
		return controlChange(out, ch, ccPhaserLevel, int(scale7(e.value)))
	case Legato:
		return controlChange(out, ch, ccLegatoPedal, boolToByte(e.boolean))
	case Portamento:
		return controlChange(out, ch, ccPortamento, boolToByte(e.boolean))
	case Mono:
		// Mono carries a raw 0..16 channel count, not an INT_MAX-domain
		// control value, so it is written unscaled (unlike every other
		// controller case above).
		return controlChange(out, ch, ccMonoOperation, e.value)
	case Poly:
		return controlChange(out, ch, ccPolyOperation, 0)
	default:
		return newErr(KindBadArgument, "unrecognized event kind", nil)
	}
}

// controlChange builds and writes a 3-byte Bn cc vv control-change
// message. value must already be a 7-bit data byte (0-127); every
// caller above scales its field with scale7 (or an equivalent) before
// calling in, except Mono, which passes its raw 0..16 mode number,
// mirroring the original sequencer's single ctlchg helper
// that every coarse/fine expansion funnels through.
func controlChange(out MIDIOut, ch byte, controller int, value int) error {
	return out.WriteMessage([]byte{statusCtrlChg + ch, byte(controller), byte(value & 0x7f)})
}

// boolToByte maps a boolean to the 7-bit on/off convention used for
// Legato/Portamento (127 for on, 0 for off).
func boolToByte(b bool) int {
	if b {
		return 127
	}
	return 0
}
