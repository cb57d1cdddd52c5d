package main

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// statusLine prints the playback position in place.
// It's a no-op when the output is not a terminal.
type statusLine struct {
	w       *os.File
	enabled bool
	dirty   bool
}

func newStatusLine(w *os.File) *statusLine {
	return &statusLine{
		w:       w,
		enabled: term.IsTerminal(int(w.Fd())),
	}
}

func (l *statusLine) update(position, row, numPositions int) {
	if !l.enabled {
		return
	}
	fmt.Fprintf(l.w, "\rposition %03d/%03d row %02d", position, numPositions, row)
	l.dirty = true
}

func (l *statusLine) finish() {
	if l.dirty {
		fmt.Fprintln(l.w)
	}
}
