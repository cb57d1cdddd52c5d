package amigamod

import (
	"github.com/quasilyte/amigamod/modfile"
)

// transport is a song playback cursor.
//
// The effects can move the cursor in the middle of a tick,
// row and position may go out of range until next() is called.
type transport struct {
	tick     int
	row      int
	position int

	// speed is a number of ticks per row.
	speed int

	// delay is a number of extra row repeats requested by the pattern delay.
	delay int

	bpm int

	// tickRate is a number of output frames per tick.
	tickRate int

	// jumped is set by the position jump and pattern break effects.
	// It's cleared on the next row switch.
	jumped bool

	// newPosition reports whether the last next() call has
	// switched to another song position (or restarted the current one).
	newPosition bool
}

func newTransport(speed, bpm, sampleRate int) transport {
	tr := transport{speed: speed}
	tr.setBPM(bpm, sampleRate)
	return tr
}

func (tr *transport) setBPM(bpm, sampleRate int) {
	tr.bpm = bpm
	tr.tickRate = calcTickRate(sampleRate, bpm)
}

// rowIndex returns the current row clamped to the pattern bounds.
// A position jump sets the row to -1, it becomes 0 on the row switch.
func (tr transport) rowIndex() int {
	return clamp(tr.row, 0, modfile.NumRows-1)
}

// next advances the cursor by one tick.
func (tr transport) next(numPositions int) transport {
	tr.newPosition = false
	tr.tick++
	if tr.tick >= tr.speed*(tr.delay+1) {
		tr.tick = 0
		tr.row++
		tr.delay = 0
		tr.newPosition = tr.jumped
		tr.jumped = false
	}
	if tr.row >= modfile.NumRows {
		tr.row = 0
		tr.position++
		tr.newPosition = true
	}
	if tr.position >= numPositions || tr.position < 0 {
		tr.position = 0
	}
	return tr
}

// isLastTick reports whether the current tick is the last one of the row.
// The pattern delay extends the row, but this check ignores the extra ticks.
func (tr transport) isLastTick() bool {
	return tr.tick == tr.speed-1
}
