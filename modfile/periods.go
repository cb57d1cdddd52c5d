package modfile

// basePeriods maps a note index to its Amiga period at finetune 0.
// Index 0 is a "no note" sentinel.
var basePeriods = [NumNotes + 1]int{
	0,
	1712, 1616, 1525, 1440, 1357, 1281, 1209, 1141, 1077, 1017, 961, 907, // C-0 .. B-0
	856, 808, 762, 720, 678, 640, 604, 570, 538, 508, 480, 453, // C-1 .. B-1
	428, 404, 381, 360, 339, 320, 302, 285, 269, 254, 240, 226, // C-2 .. B-2
	214, 202, 190, 180, 170, 160, 151, 143, 135, 127, 120, 113, // C-3 .. B-3
	107, 101, 95, 90, 85, 80, 76, 71, 67, 64, 60, 57, // C-4 .. B-4
}

// BasePeriod returns the finetune 0 period of the note.
// A zero is returned for the "no note" value and for out of range notes.
func BasePeriod(note int) int {
	if note <= 0 || note > NumNotes {
		return 0
	}
	return basePeriods[note]
}

// NoteFromPeriod resolves a raw period into the closest note index.
//
// The search goes from the lowest note index up and the first strictly
// better match wins, so ties resolve to the lower index.
// A zero period resolves into 0 ("no note").
func NoteFromPeriod(period int) uint8 {
	if period == 0 {
		return 0
	}
	note := 0
	best := absInt(period - basePeriods[0])
	for i := 1; i <= NumNotes; i++ {
		d := absInt(period - basePeriods[i])
		if d < best {
			best = d
			note = i
		}
	}
	return uint8(note)
}
