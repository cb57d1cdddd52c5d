package amigamod

import (
	"github.com/quasilyte/amigamod/internal/moddb"
	"github.com/quasilyte/amigamod/modfile"
)

type module struct {
	name string

	samples [modfile.MaxSampleSlots]sample

	patterns  []pattern
	positions []*pattern

	sampleRate int
	chipRate   int
	bpm        int
	speed      int
}

type moduleConfig struct {
	sampleRate uint
	chipRate   uint
	bpm        uint
	speed      uint
}

type pattern struct {
	rows [modfile.NumRows][modfile.NumChannels]event
}

// event is a compiled pattern cell.
type event struct {
	sample uint8
	note   uint8
	effect moddb.Effect
}

type sample struct {
	data []byte

	finetune int
	volume   int

	// Voice trigger params, in bytes.
	length     int
	loopLength int
}
