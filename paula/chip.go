package paula

import (
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultChipRate is the emulated clock rate used when Config.ChipRate is 0.
	DefaultChipRate = 3740000

	// PALChipRate is the exact PAL Amiga audio clock.
	PALChipRate = 3546895

	// FIRWidth is a half-width of the resampling filter.
	FIRWidth = 512

	NumVoices = 4

	// ringSize is a per-lane ring buffer size, must be a power of two.
	ringSize = 4096

	// silentPeriod is a reset value of the voice period.
	silentPeriod = 65535

	minOutputRate = 8000
	maxOutputRate = 192000
)

var ErrBadRate = errors.New("unsupported sample rate")

type Config struct {
	// ChipRate is an emulated Paula clock rate.
	// A zero value means DefaultChipRate.
	ChipRate int

	// OutputRate is the rate of the Render output frames.
	// Supported rates are in [8000, 192000].
	OutputRate int
}

// Chip emulates the Paula audio output: four voices mixed into
// two stereo lanes at the chip clock rate, then resampled
// to the output rate with a windowed-sinc FIR filter.
//
// The voices 0 and 3 go to the first (left) lane, voices 1 and 2
// go to the second (right) lane, like on the real hardware.
type Chip struct {
	Voices [NumVoices]Voice

	masterVolume     float32
	masterSeparation float32

	step float32

	fir [2*FIRWidth + 1]float32

	ring     [2][ringSize]float32
	writePos int
	readPos  int
	readFrac float32
}

// NewChip allocates a chip for the given rates.
// All the buffers and the filter are prepared right away,
// rendering does not allocate.
func NewChip(config Config) (*Chip, error) {
	if config.ChipRate == 0 {
		config.ChipRate = DefaultChipRate
	}
	if config.OutputRate < minOutputRate || config.OutputRate > maxOutputRate {
		return nil, fmt.Errorf("%w: output rate %d is out of [%d, %d]",
			ErrBadRate, config.OutputRate, minOutputRate, maxOutputRate)
	}
	// The read window must fit the ring buffer with a decent margin.
	if config.ChipRate < config.OutputRate || config.ChipRate/config.OutputRate > ringSize/4 {
		return nil, fmt.Errorf("%w: chip rate %d does not fit the output rate %d",
			ErrBadRate, config.ChipRate, config.OutputRate)
	}

	c := &Chip{
		step: float32(config.ChipRate) / float32(config.OutputRate),
	}
	initFilter(c.fir[:], float64(config.OutputRate)/float64(config.ChipRate))
	c.masterVolume = 0.66
	c.masterSeparation = 0.5
	c.Reset()
	return c, nil
}

// SetVolume adjusts the master volume.
// The default value is 0.66.
func (c *Chip) SetVolume(v float64) {
	c.masterVolume = float32(v)
}

// SetSeparation adjusts the stereo separation.
// 1 is a hard left/right panning of the lanes, 0 is mono,
// -1 swaps the lanes. The value is clamped in [-1, 1].
// The default value is 0.5.
func (c *Chip) SetSeparation(v float64) {
	c.masterSeparation = float32(clampFloat(v, -1, 1))
}

// Reset silences the voices and clears the ring buffer.
// The master volume and separation are preserved.
func (c *Chip) Reset() {
	for i := range c.Voices {
		c.Voices[i].reset()
	}
	c.ring = [2][ringSize]float32{}
	c.readPos = 0
	c.readFrac = 0
	c.writePos = FIRWidth
}

// FIR returns the resampling filter coefficients.
// The returned slice must not be modified.
func (c *Chip) FIR() []float32 {
	return c.fir[:]
}

// Render fills out with interleaved stereo frames.
// The frame count is len(out)/2.
func (c *Chip) Render(out []float32) {
	pan := 0.5 + 0.5*c.masterSeparation
	vm0 := c.masterVolume * float32(math.Sqrt(float64(pan)))
	vm1 := c.masterVolume * float32(math.Sqrt(float64(1-pan)))

	left := &c.ring[0]
	right := &c.ring[1]
	for i := 0; i+1 < len(out); i += 2 {
		readEnd := c.readPos + FIRWidth + 1
		if c.writePos < c.readPos {
			readEnd -= ringSize
		}
		if readEnd > c.writePos {
			c.fill()
		}

		// Two convolutions: one anchored at the read position,
		// another one sample ahead. The result is interpolated
		// by the fractional part of the read position.
		var outl0, outl1, outr0, outr1 float32
		offs := (c.readPos - FIRWidth - 1) & (ringSize - 1)
		vl := left[offs]
		vr := right[offs]
		for _, w := range c.fir[1 : 2*FIRWidth-1] {
			outl0 += vl * w
			outr0 += vr * w
			offs = (offs + 1) & (ringSize - 1)
			vl = left[offs]
			vr = right[offs]
			outl1 += vl * w
			outr1 += vr * w
		}
		outl := outl0 + c.readFrac*(outl1-outl0)
		outr := outr0 + c.readFrac*(outr1-outr0)
		out[i] = vm0*outl + vm1*outr
		out[i+1] = vm1*outl + vm0*outr

		c.readFrac += c.step
		rfi := int(c.readFrac)
		c.readPos = (c.readPos + rfi) & (ringSize - 1)
		c.readFrac -= float32(rfi)
	}
}

// fill renders the chip output up to the start of the read window.
func (c *Chip) fill() {
	realReadPos := c.readPos - FIRWidth - 1
	samples := (realReadPos - c.writePos) & (ringSize - 1)

	todo := min(samples, ringSize-c.writePos)
	c.renderFragment(c.writePos, todo)
	if todo < samples {
		c.writePos = 0
		todo = samples - todo
		c.renderFragment(0, todo)
	}
	c.writePos = (c.writePos + todo) & (ringSize - 1)
}

func (c *Chip) renderFragment(offset, n int) {
	left := c.ring[0][offset : offset+n]
	right := c.ring[1][offset : offset+n]
	clear(left)
	clear(right)
	for i := range c.Voices {
		if i == 1 || i == 2 {
			c.Voices[i].render(right)
		} else {
			c.Voices[i].render(left)
		}
	}
}
