package amigamod

import (
	"encoding/binary"
	"math"
)

type numeric interface {
	uint8 | int | float64
}

func clamp[T numeric](v, min, max T) T {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// calcTickRate returns the number of output frames per tick.
// The default 125 BPM gives 50 ticks per second.
func calcTickRate(sampleRate, bpm int) int {
	return (125 * sampleRate) / (bpm * 50)
}

func putPCM(b []byte, left, right float32) {
	binary.LittleEndian.PutUint16(b[0:], uint16(floatToPCM(left)))
	binary.LittleEndian.PutUint16(b[2:], uint16(floatToPCM(right)))
}

func floatToPCM(v float32) int16 {
	return int16(clamp(math.Round(float64(v)*32767), -32768, 32767))
}
