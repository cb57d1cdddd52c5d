package paula

import (
	"math"
)

// Voice emulates one Paula audio DMA channel.
//
// The voice is rendered at the chip clock rate: every emulated cycle
// the period divider counts down and a new sample byte is fetched when
// it reaches zero. The volume is applied the way Paula does it, as a
// pulse-width gate driven by a 6-bit counter.
type Voice struct {
	// Period is a clock divisor; higher values give lower pitch.
	// Zero or negative period stops the sample fetching.
	Period int

	// Volume is a PWM duty cycle in [0, 64].
	Volume int

	sample     []byte
	sampleLen  int
	loopLength int

	pos    int
	pwmCnt int
	divCnt int
	cur    float32
}

func (v *Voice) reset() {
	*v = Voice{
		Period:     silentPeriod,
		loopLength: 1,
	}
}

// Trigger starts the sample playback.
//
// data is a signed 8-bit PCM, the voice keeps the reference to it.
// When the playback position reaches length, it goes loopLength bytes back.
// The offset is clamped to length-1.
//
// A zero length makes the voice silent.
func (v *Voice) Trigger(data []byte, length, loopLength, offset int) {
	length = min(length, len(data))
	if length <= 0 {
		v.sample = nil
		return
	}
	v.sample = data[:length]
	v.sampleLen = length
	v.loopLength = clampInt(loopLength, 1, length)
	v.pos = clampInt(offset, 0, length-1)
}

// Stop makes the voice silent until the next Trigger.
func (v *Voice) Stop() {
	v.sample = nil
}

// IsActive reports whether the voice has a sample to play.
func (v *Voice) IsActive() bool {
	return v.sample != nil
}

// render adds len(buf) chip clock cycles of output to buf.
func (v *Voice) render(buf []float32) {
	if v.sample == nil {
		return
	}

	smp := v.sample
	for i := range buf {
		if v.divCnt == 0 && v.Period > 0 {
			v.cur = dacValue(smp[v.pos])
			v.pos++
			if v.pos == v.sampleLen {
				v.pos -= v.loopLength
			}
			v.divCnt = v.Period
		}
		if v.pwmCnt < v.Volume {
			buf[i] += v.cur
		}
		v.pwmCnt = (v.pwmCnt + 1) & 0x3f
		if v.divCnt > 0 {
			v.divCnt--
		}
	}
}

// dacValue converts a signed 8-bit sample into [-1, 1).
//
// The unsigned sample byte becomes the top of a mantissa of
// a float in [2, 4), the bias is then subtracted.
func dacValue(b byte) float32 {
	return math.Float32frombits(uint32(b^0x80)<<15|0x40000000) - 3
}
