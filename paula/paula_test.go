package paula

import (
	"errors"
	"math"
	"testing"
)

func TestDACValue(t *testing.T) {
	tests := []struct {
		b    byte
		want float32
	}{
		{0x00, 0},
		{0x7f, 127.0 / 128.0},
		{0x80, -1},
		{0xff, -1.0 / 128.0},
		{0x40, 0.5},
	}
	for _, test := range tests {
		if got := dacValue(test.b); got != test.want {
			t.Errorf("dacValue(%#x): expected %v, got %v", test.b, test.want, got)
		}
	}
}

func TestFilterShape(t *testing.T) {
	c, err := NewChip(Config{OutputRate: 48000})
	if err != nil {
		t.Fatal(err)
	}
	fir := c.FIR()
	if len(fir) != 2*FIRWidth+1 {
		t.Fatalf("unexpected filter size %d", len(fir))
	}
	for i := 0; i < FIRWidth; i++ {
		if fir[i] != fir[len(fir)-1-i] {
			t.Fatalf("filter is not symmetric at %d: %v != %v", i, fir[i], fir[len(fir)-1-i])
		}
	}
	scale := float32(48000.0 / 3740000.0)
	if math.Abs(float64(fir[FIRWidth]-scale)) > 1e-7 {
		t.Errorf("center tap: expected %v, got %v", scale, fir[FIRWidth])
	}
	if fir[0] != 0 || fir[1] != 0 {
		t.Errorf("the window edges are expected to be zero")
	}
	sum := 0.0
	for _, w := range fir {
		sum += float64(w)
	}
	if math.Abs(sum-1) > 0.05 {
		t.Errorf("unexpected filter gain %v", sum)
	}
}

func TestNewChipErrors(t *testing.T) {
	configs := []Config{
		{OutputRate: 0},
		{OutputRate: 4000},
		{OutputRate: 400000},
		{ChipRate: 22050, OutputRate: 44100},
		{ChipRate: 100000000, OutputRate: 8000},
	}
	for _, config := range configs {
		_, err := NewChip(config)
		if !errors.Is(err, ErrBadRate) {
			t.Errorf("%+v: expected ErrBadRate, got %v", config, err)
		}
	}
	if _, err := NewChip(Config{ChipRate: PALChipRate, OutputRate: 44100}); err != nil {
		t.Errorf("PAL rate: unexpected error: %v", err)
	}
}

func TestVoiceVolumeGate(t *testing.T) {
	data := []byte{0x40, 0x40, 0x40, 0x40}
	for _, vol := range []int{0, 1, 16, 32, 64} {
		var v Voice
		v.reset()
		v.Trigger(data, len(data), len(data), 0)
		v.Period = 1
		v.Volume = vol
		buf := make([]float32, 64)
		v.render(buf)
		sum := float32(0)
		for _, x := range buf {
			sum += x
		}
		want := float32(vol) * 0.5
		if sum != want {
			t.Errorf("volume %d: expected %v, got %v", vol, want, sum)
		}
	}
}

func TestVoiceLoop(t *testing.T) {
	data := []byte{0, 1, 2, 3, 99}
	var v Voice
	v.reset()
	v.Trigger(data, 4, 2, 0)
	v.Period = 2
	v.Volume = 64

	buf := make([]float32, 16)
	v.render(buf)
	fetched := []byte{0, 1, 2, 3, 2, 3, 2, 3}
	for i, x := range buf {
		want := dacValue(fetched[i/2])
		if x != want {
			t.Fatalf("cycle %d: expected %v, got %v", i, want, x)
		}
	}
}

func TestVoiceOneShot(t *testing.T) {
	// A loop length of 1 repeats the last byte forever.
	data := []byte{0x10, 0x20}
	var v Voice
	v.reset()
	v.Trigger(data, 2, 1, 0)
	v.Period = 1
	v.Volume = 64
	buf := make([]float32, 8)
	v.render(buf)
	for i := 1; i < len(buf); i++ {
		if buf[i] != dacValue(0x20) {
			t.Fatalf("cycle %d: unexpected value %v", i, buf[i])
		}
	}
}

func TestVoiceTrigger(t *testing.T) {
	data := make([]byte, 16)

	var v Voice
	v.reset()
	v.Trigger(data, 8, 100, 50)
	if v.pos != 7 {
		t.Errorf("offset: expected 7, got %d", v.pos)
	}
	if v.loopLength != 8 {
		t.Errorf("loop length: expected 8, got %d", v.loopLength)
	}

	v.Trigger(data, 100, 0, -5)
	if v.sampleLen != 16 || v.loopLength != 1 || v.pos != 0 {
		t.Errorf("unexpected voice state: len=%d loop=%d pos=%d", v.sampleLen, v.loopLength, v.pos)
	}

	v.Trigger(data, 0, 1, 0)
	if v.IsActive() {
		t.Errorf("zero length sample is expected to be silent")
	}
	v.Trigger(data, 8, 1, 0)
	v.Stop()
	if v.IsActive() {
		t.Errorf("stopped voice is expected to be silent")
	}
}

func TestVoiceZeroPeriod(t *testing.T) {
	var v Voice
	v.reset()
	v.Trigger([]byte{0x7f, 0x7f}, 2, 2, 0)
	v.Period = 0
	v.Volume = 64
	buf := make([]float32, 32)
	v.render(buf)
	for i, x := range buf {
		if x != 0 {
			t.Fatalf("cycle %d: expected silence, got %v", i, x)
		}
	}
}

func TestChipSilence(t *testing.T) {
	c, err := NewChip(Config{OutputRate: 48000})
	if err != nil {
		t.Fatal(err)
	}
	out := make([]float32, 2*1000)
	c.Render(out)
	for i, x := range out {
		if x != 0 {
			t.Fatalf("out[%d]: expected silence, got %v", i, x)
		}
	}
}

func TestChipDC(t *testing.T) {
	c, err := NewChip(Config{OutputRate: 48000})
	if err != nil {
		t.Fatal(err)
	}
	data := []byte{0x40, 0x40, 0x40, 0x40}
	c.Voices[0].Trigger(data, len(data), len(data), 0)
	c.Voices[0].Period = 100
	c.Voices[0].Volume = 64

	out := make([]float32, 2*200)
	c.Render(out)
	for i, x := range out {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			t.Fatalf("out[%d]: bad value %v", i, x)
		}
	}

	// Voice 0 is on the left lane; the panning leaks it to the right.
	l, r := out[len(out)-2], out[len(out)-1]
	wantL := 0.66 * math.Sqrt(0.75) * 0.5
	wantR := 0.66 * math.Sqrt(0.25) * 0.5
	if math.Abs(float64(l)-wantL) > 0.05*wantL {
		t.Errorf("left: expected ~%v, got %v", wantL, l)
	}
	if math.Abs(float64(r)-wantR) > 0.05*wantR {
		t.Errorf("right: expected ~%v, got %v", wantR, r)
	}

	c.SetSeparation(5)
	c.Render(out)
	if r := out[len(out)-1]; r != 0 {
		t.Errorf("full separation: expected silent right channel, got %v", r)
	}

	c.SetSeparation(0)
	c.Render(out)
	if l, r := out[len(out)-2], out[len(out)-1]; l != r {
		t.Errorf("mono: %v != %v", l, r)
	}

	c.Reset()
	if c.Voices[0].IsActive() || c.Voices[0].Period != silentPeriod {
		t.Errorf("voices are expected to be reset")
	}
}
