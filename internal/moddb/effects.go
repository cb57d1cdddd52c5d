package moddb

import (
	"github.com/quasilyte/amigamod/modfile"
)

type Effect struct {
	Op  EffectOp
	Arg uint8
}

type EffectOp uint8

const (
	// Encoding: effect=0x0
	// Arg: two semitone offsets (x and y nibbles); zero arg means "no effect"
	EffectArpeggio EffectOp = iota

	// Encoding: effect=0x1
	// Arg: period decrement per tick
	EffectPortamentoUp

	// Encoding: effect=0x2
	// Arg: period increment per tick
	EffectPortamentoDown

	// Encoding: effect=0x3
	// Arg: slide speed
	EffectTonePortamento

	// Encoding: effect=0x4
	// Arg: speed (x) and depth (y)
	EffectVibrato

	// Encoding: effect=0x5
	// Arg: volume slide; the slide speed is taken from 0x3 memory
	EffectTonePortamentoVolumeSlide

	// Encoding: effect=0x6
	// Arg: volume slide; vibrato params are taken from 0x4 memory
	EffectVibratoVolumeSlide

	// Encoding: effect=0x7
	// Arg: speed (x) and depth (y)
	EffectTremolo

	// Encoding: effect=0x8
	// Not used by the classic 4-channel players.
	EffectSetPanning

	// Encoding: effect=0x9
	// Arg: sample offset in 256-byte units
	EffectSampleOffset

	// Encoding: effect=0xA
	// Arg: up (x) or down (y) speed
	EffectVolumeSlide

	// Encoding: effect=0xB
	// Arg: song position
	EffectPositionJump

	// Encoding: effect=0xC
	// Arg: volume level, clamped to 64
	EffectSetVolume

	// Encoding: effect=0xD
	// Arg: a row number in the next pattern, as two decimal digits
	EffectPatternBreak

	// Encoding: effect=0xE
	// Arg: sub-command (x) and its value (y), see ExtOp
	EffectExtended

	// Encoding: effect=0xF
	// Arg: ticks per row if <=32, BPM otherwise
	EffectSetSpeed
)

// ExtOp is a sub-command of EffectExtended.
type ExtOp uint8

const (
	ExtSetFilter ExtOp = iota
	ExtFinePortamentoUp
	ExtFinePortamentoDown
	ExtGlissando
	ExtVibratoWaveform
	ExtSetFinetune
	ExtPatternLoop
	ExtTremoloWaveform
	ExtUnused8
	ExtRetrigger
	ExtFineVolumeSlideUp
	ExtFineVolumeSlideDown
	ExtNoteCut
	ExtNoteDelay
	ExtPatternDelay
	ExtInvertLoop
)

func ConvertEffect(e modfile.Event) Effect {
	return Effect{
		Op:  EffectOp(e.Effect & 0x0f),
		Arg: e.EffectParameter,
	}
}

// X returns the high nibble of the argument.
func (e Effect) X() int { return int(e.Arg >> 4) }

// Y returns the low nibble of the argument.
func (e Effect) Y() int { return int(e.Arg & 0x0f) }

// Ext returns the extended effect sub-command.
// The result is meaningful only for EffectExtended.
func (e Effect) Ext() ExtOp { return ExtOp(e.Arg >> 4) }

// IsNoteDelay reports whether this effect postpones the note trigger.
func (e Effect) IsNoteDelay() bool {
	return e.Op == EffectExtended && e.Ext() == ExtNoteDelay
}
