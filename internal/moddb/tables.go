package moddb

import (
	"math"

	"github.com/quasilyte/amigamod/modfile"
)

const (
	NumFinetunes   = 16
	NumWaveforms   = 3
	NumAmplitudes  = 15
	OscillatorSize = 64

	MinPeriod = 113
	MaxPeriod = 856
)

// Oscillator waveforms used by the vibrato and tremolo effects.
const (
	WaveSine = iota
	WaveRampDown
	WaveSquare
)

// Tables holds the lookup tables derived from the base period table.
// It's immutable after NewTables returns.
type Tables struct {
	// periods[ft][note-1] is a period of the note for the finetune
	// nibble ft (8..15 are the negative finetunes).
	periods [NumFinetunes][modfile.NumNotes]int

	// oscillator[wave][amplitude-1][pos] is a modulation offset.
	oscillator [NumWaveforms][NumAmplitudes][OscillatorSize]int
}

func NewTables() *Tables {
	t := &Tables{}

	// A finetune step is 1/16 of a semitone.
	for ft := 0; ft < NumFinetunes; ft++ {
		rft := ft
		if rft >= 8 {
			rft -= 16
		}
		fac := math.Pow(2, -float64(rft)/(12*16))
		for i := range t.periods[ft] {
			t.periods[ft][i] = int(float64(modfile.BasePeriod(i+1))*fac + 0.5)
		}
	}

	for ampl := 0; ampl < NumAmplitudes; ampl++ {
		scale := float64(ampl) + 1.5
		for x := 0; x < OscillatorSize; x++ {
			square := scale
			if x >= 32 {
				square = -scale
			}
			t.oscillator[WaveSine][ampl][x] = int(scale * math.Sin(float64(x)*math.Pi/32))
			t.oscillator[WaveRampDown][ampl][x] = int(scale * (float64(63-x)/31.5 - 1))
			t.oscillator[WaveSquare][ampl][x] = int(square)
		}
	}

	return t
}

// Period returns the period of the note transposed by noteOffset semitones
// and detuned by finetune+fineOffset finetune steps.
//
// Finetune overflows move the note by a semitone.
// The resulting note is clamped to the table range.
// The "no note" value (0) always gives a zero period.
func (t *Tables) Period(note, finetune, noteOffset, fineOffset int) int {
	if note == 0 {
		return 0
	}
	ft := finetune + fineOffset
	for ft > 7 {
		noteOffset++
		ft -= 16
	}
	for ft < -8 {
		noteOffset--
		ft += 16
	}
	i := note + noteOffset - 1
	if i < 0 {
		i = 0
	} else if i >= modfile.NumNotes {
		i = modfile.NumNotes - 1
	}
	return t.periods[ft&0x0f][i]
}

// Oscillator returns the modulation offset for the given oscillator state.
// A zero amplitude (effect depth was never set) gives 0.
func (t *Tables) Oscillator(wave, amplitude, pos int) int {
	if amplitude <= 0 {
		return 0
	}
	return t.oscillator[wave%NumWaveforms][min(amplitude, NumAmplitudes)-1][pos&(OscillatorSize-1)]
}
