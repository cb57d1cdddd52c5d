package amigamod

import (
	"github.com/quasilyte/amigamod/internal/moddb"
	"github.com/quasilyte/amigamod/modfile"
)

type streamChannel struct {
	// Note-related data.
	note     int
	period   int
	sample   int
	finetune int
	volume   int

	// The last non-zero parameter of every effect.
	// The extended effects have a separate memory slot per sub-command.
	fxMemory  [16]int
	extMemory [16]int

	// Pattern loop effect state.
	loopStart int
	loopCount int

	retrigCount int

	vibrato oscillator
	tremolo oscillator
}

type oscillator struct {
	wave        int
	noRetrigger bool
	pos         int
	amplitude   int
	speed       int
}

// voiceUpdate is a set of voice register writes produced by a channel tick.
type voiceUpdate struct {
	// trigger is set when the voice should start the sample playback.
	trigger bool
	sample  int
	offset  int

	period int
	volume int
}

// stepEnv is a read-only data needed by the channel steps.
type stepEnv struct {
	tables     *moddb.Tables
	samples    *[modfile.MaxSampleSlots]sample
	sampleRate int
}

// stepChannel executes one tick of the channel event.
//
// The channel state and the transport are passed by value
// and the updated copies are returned.
// The transport changes made by the channel (speed, jumps, delays)
// are visible to the channels that are processed after it.
func stepChannel(ch streamChannel, tr transport, e event, env *stepEnv) (streamChannel, transport, voiceUpdate) {
	var upd voiceUpdate
	tremoloVolume := 0
	param := int(e.effect.Arg)

	if tr.tick == 0 {
		if e.sample != 0 {
			s := &env.samples[e.sample]
			ch.sample = int(e.sample)
			ch.finetune = s.finetune
			ch.volume = s.volume
		}

		if param != 0 {
			ch.fxMemory[e.effect.Op] = param
		}

		if e.note != 0 && !e.effect.IsNoteDelay() {
			ch.note = int(e.note)
			ch.trigger(e, env, &upd)
		}

		switch e.effect.Op {
		case moddb.EffectVibrato, moddb.EffectVibratoVolumeSlide:
			ch.vibrato.setParams(ch.fxMemory[moddb.EffectVibrato])
			ch.setPeriod(env.tables, 0, ch.vibrato.value(env.tables))

		case moddb.EffectTremolo:
			ch.tremolo.setParams(ch.fxMemory[moddb.EffectTremolo])
			tremoloVolume = ch.tremolo.value(env.tables)

		case moddb.EffectSetVolume:
			ch.volume = clamp(param, 0, 64)

		case moddb.EffectExtended:
			ch.applyRowExtendedEffect(&tr, e, env, &upd)

		case moddb.EffectSetSpeed:
			if param == 0 {
				break
			}
			if param <= 32 {
				tr.speed = param
			} else {
				tr.setBPM(param, env.sampleRate)
			}
		}
	} else {
		switch e.effect.Op {
		case moddb.EffectArpeggio:
			if param == 0 {
				break
			}
			noteOffset := 0
			switch tr.tick % 3 {
			case 1:
				noteOffset = e.effect.X()
			case 2:
				noteOffset = e.effect.Y()
			}
			ch.setPeriod(env.tables, noteOffset, 0)

		case moddb.EffectPortamentoUp:
			ch.period = max(moddb.MinPeriod, ch.period-ch.fxMemory[moddb.EffectPortamentoUp])

		case moddb.EffectPortamentoDown:
			ch.period = min(moddb.MaxPeriod, ch.period+ch.fxMemory[moddb.EffectPortamentoDown])

		case moddb.EffectTonePortamento:
			tonePortamento(&ch, env.tables)

		case moddb.EffectTonePortamentoVolumeSlide:
			ch.volume = slideVolume(ch.volume, ch.fxMemory[moddb.EffectTonePortamentoVolumeSlide])
			tonePortamento(&ch, env.tables)

		case moddb.EffectVibrato:
			vibratoStep(&ch, env.tables)

		case moddb.EffectVibratoVolumeSlide:
			ch.volume = slideVolume(ch.volume, ch.fxMemory[moddb.EffectVibratoVolumeSlide])
			vibratoStep(&ch, env.tables)

		case moddb.EffectTremolo:
			tremoloVolume = ch.tremolo.value(env.tables)
			ch.tremolo.advance()

		case moddb.EffectVolumeSlide:
			ch.volume = slideVolume(ch.volume, ch.fxMemory[moddb.EffectVolumeSlide])

		case moddb.EffectPositionJump:
			if tr.isLastTick() {
				tr.row = -1
				tr.position = param
				tr.jumped = true
			}

		case moddb.EffectPatternBreak:
			if tr.isLastTick() {
				tr.position++
				tr.row = 10*e.effect.X() + e.effect.Y() - 1
				tr.jumped = true
			}

		case moddb.EffectExtended:
			ch.applyTickExtendedEffect(&tr, e, env, &upd)
		}
	}

	upd.volume = clamp(ch.volume+tremoloVolume, 0, 64)
	upd.period = ch.period
	return ch, tr, upd
}

func (ch *streamChannel) applyRowExtendedEffect(tr *transport, e event, env *stepEnv, upd *voiceUpdate) {
	y := e.effect.Y()
	if y != 0 {
		ch.extMemory[e.effect.Ext()] = y
	}

	switch e.effect.Ext() {
	case moddb.ExtFinePortamentoUp:
		ch.period = max(moddb.MinPeriod, ch.period-ch.extMemory[moddb.ExtFinePortamentoUp])

	case moddb.ExtFinePortamentoDown:
		ch.period = min(moddb.MaxPeriod, ch.period+ch.extMemory[moddb.ExtFinePortamentoDown])

	case moddb.ExtVibratoWaveform:
		ch.vibrato.setWaveform(y)

	case moddb.ExtSetFinetune:
		ch.finetune = y
		if ch.finetune >= 8 {
			ch.finetune -= 16
		}

	case moddb.ExtTremoloWaveform:
		ch.tremolo.setWaveform(y)

	case moddb.ExtRetrigger:
		if ch.extMemory[moddb.ExtRetrigger] != 0 && e.note == 0 {
			ch.trigger(e, env, upd)
		}
		ch.retrigCount = 0

	case moddb.ExtFineVolumeSlideUp:
		ch.volume = min(ch.volume+ch.extMemory[moddb.ExtFineVolumeSlideUp], 64)

	case moddb.ExtFineVolumeSlideDown:
		ch.volume = max(ch.volume-ch.extMemory[moddb.ExtFineVolumeSlideDown], 0)

	case moddb.ExtPatternDelay:
		tr.delay = ch.extMemory[moddb.ExtPatternDelay]

	case moddb.ExtSetFilter, moddb.ExtGlissando, moddb.ExtInvertLoop:
		// Not emulated.
	}
}

func (ch *streamChannel) applyTickExtendedEffect(tr *transport, e event, env *stepEnv, upd *voiceUpdate) {
	switch e.effect.Ext() {
	case moddb.ExtPatternLoop:
		count := e.effect.Y()
		if count == 0 {
			ch.loopStart = tr.row
			break
		}
		if !tr.isLastTick() {
			break
		}
		if ch.loopCount < count {
			tr.row = ch.loopStart - 1
			ch.loopCount++
		} else {
			ch.loopCount = 0
		}

	case moddb.ExtRetrigger:
		ch.retrigCount++
		if ch.retrigCount == ch.extMemory[moddb.ExtRetrigger] {
			ch.retrigCount = 0
			ch.trigger(e, env, upd)
		}

	case moddb.ExtNoteCut:
		if tr.tick == ch.extMemory[moddb.ExtNoteCut] {
			ch.volume = 0
		}

	case moddb.ExtNoteDelay:
		if tr.tick == ch.extMemory[moddb.ExtNoteDelay] {
			if e.note != 0 {
				ch.note = int(e.note)
			}
			ch.trigger(e, env, upd)
		}
	}
}

// trigger restarts the channel sample from the current note.
// Tone portamento effects only change the slide target.
func (ch *streamChannel) trigger(e event, env *stepEnv, upd *voiceUpdate) {
	switch e.effect.Op {
	case moddb.EffectTonePortamento, moddb.EffectTonePortamentoVolumeSlide:
		return
	}

	ch.setPeriod(env.tables, 0, 0)
	upd.trigger = true
	upd.sample = ch.sample
	upd.offset = 0
	if e.effect.Op == moddb.EffectSampleOffset {
		upd.offset = ch.fxMemory[moddb.EffectSampleOffset] << 8
	}

	if !ch.vibrato.noRetrigger {
		ch.vibrato.pos = 0
	}
	if !ch.tremolo.noRetrigger {
		ch.tremolo.pos = 0
	}
}

func (ch *streamChannel) getPeriod(tabs *moddb.Tables, noteOffset, fineOffset int) int {
	return tabs.Period(ch.note, ch.finetune, noteOffset, fineOffset)
}

// setPeriod is a no-op until the channel has a note.
func (ch *streamChannel) setPeriod(tabs *moddb.Tables, noteOffset, fineOffset int) {
	if ch.note != 0 {
		ch.period = ch.getPeriod(tabs, noteOffset, fineOffset)
	}
}

// slideVolume applies the volume slide parameter.
// The up speed (x) has a priority over the down speed (y).
func slideVolume(volume, param int) int {
	if param&0xf0 != 0 {
		return min(volume+(param>>4), 64)
	}
	return max(volume-(param&0x0f), 0)
}

// tonePortamento slides the period towards the current note period.
func tonePortamento(ch *streamChannel, tabs *moddb.Tables) {
	target := ch.getPeriod(tabs, 0, 0)
	if target == 0 {
		return
	}
	step := ch.fxMemory[moddb.EffectTonePortamento]
	if ch.period > target {
		ch.period = max(ch.period-step, target)
	} else if ch.period < target {
		ch.period = min(ch.period+step, target)
	}
}

func vibratoStep(ch *streamChannel, tabs *moddb.Tables) {
	ch.setPeriod(tabs, 0, ch.vibrato.value(tabs))
	ch.vibrato.advance()
}

func (o *oscillator) setParams(param int) {
	if param&0x0f != 0 {
		o.amplitude = param & 0x0f
	}
	if param&0xf0 != 0 {
		o.speed = param >> 4
	}
}

// setWaveform applies the E4x/E7x parameter.
// Bits 0-1 select the waveform (3 is an alias of the sine),
// bit 2 disables the position reset on the note trigger.
func (o *oscillator) setWaveform(v int) {
	o.wave = v & 3
	if o.wave == 3 {
		o.wave = moddb.WaveSine
	}
	o.noRetrigger = v&4 != 0
}

func (o *oscillator) value(tabs *moddb.Tables) int {
	return tabs.Oscillator(o.wave, o.amplitude, o.pos)
}

func (o *oscillator) advance() {
	o.pos = (o.pos + o.speed) & (moddb.OscillatorSize - 1)
}
