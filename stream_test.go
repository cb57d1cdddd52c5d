package amigamod

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/quasilyte/amigamod/modfile"
)

func newTestModule(numPatterns int) *modfile.Module {
	m := &modfile.Module{
		Name:       "test",
		Signature:  "M.K.",
		NumSamples: modfile.MaxSampleSlots,
		SongLength: numPatterns,
		Samples:    make([]modfile.Sample, modfile.MaxSampleSlots),
		Patterns:   make([]modfile.Pattern, numPatterns),
	}
	for i := 0; i < numPatterns; i++ {
		m.PatternOrder[i] = uint8(i)
	}

	// A looped square wave.
	data := make([]byte, 64)
	for i := range data {
		if i < 32 {
			data[i] = 0x60
		} else {
			data[i] = 0xa0
		}
	}
	m.Samples[1] = modfile.Sample{
		Length:     32,
		Volume:     64,
		LoopLength: 32,
		Data:       data,
	}

	// A short one-shot sample.
	m.Samples[2] = modfile.Sample{
		Length:     8,
		Volume:     48,
		LoopLength: 1,
		Data:       []byte{0, 40, 80, 120, 80, 40, 0, 0xd8, 0xb0, 0x88, 0xb0, 0xd8, 0, 40, 80, 120},
	}
	return m
}

func mustLoad(t *testing.T, m *modfile.Module, config LoadModuleConfig) *Stream {
	t.Helper()
	s := NewStream()
	if err := s.LoadModule(m, config); err != nil {
		t.Fatalf("load module: %v", err)
	}
	return s
}

func TestRenderEndToEnd(t *testing.T) {
	m := newTestModule(1)
	m.Patterns[0].Rows[0][0] = modfile.Event{Sample: 1, Note: 13}
	s := mustLoad(t, m, LoadModuleConfig{SampleRate: 48000})

	out := make([]float32, 2*48000)
	if n := s.Render(out); n != 48000 {
		t.Fatalf("expected 48000 frames, got %d", n)
	}

	peak := 0.0
	for i, x := range out {
		v := float64(x)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("out[%d]: bad value %v", i, v)
		}
		peak = math.Max(peak, math.Abs(v))
	}
	if peak > 0.66+1e-6 {
		t.Fatalf("peak %v is above the master volume", peak)
	}
	if peak < 0.1 {
		t.Fatalf("peak %v is too low, the note is not playing", peak)
	}
}

func TestRenderOddBuffer(t *testing.T) {
	s := mustLoad(t, newTestModule(1), LoadModuleConfig{})
	out := make([]float32, 7)
	out[6] = 123
	if n := s.Render(out); n != 3 {
		t.Fatalf("expected 3 frames, got %d", n)
	}
	if out[6] != 123 {
		t.Fatalf("the trailing element is not expected to be modified")
	}
}

func TestRenderWithoutModule(t *testing.T) {
	s := NewStream()
	out := []float32{1, 2, 3, 4}
	if n := s.Render(out); n != 2 {
		t.Fatalf("expected 2 frames, got %d", n)
	}
	for i, x := range out {
		if x != 0 {
			t.Fatalf("out[%d]: expected silence, got %v", i, x)
		}
	}
	if _, err := s.Read(make([]byte, 16)); err == nil {
		t.Fatalf("expected an error")
	}
}

type voiceTrace struct {
	period [4]int
	volume [4]int
	active [4]bool
}

func TestTransportWrapRepeats(t *testing.T) {
	m := newTestModule(2)
	p0 := &m.Patterns[0]
	p0.Rows[0][0] = modfile.Event{Sample: 1, Note: 13}
	p0.Rows[0][1] = modfile.Event{Sample: 2, Note: 25, Effect: 0x4, EffectParameter: 0x46}
	p0.Rows[1][1] = modfile.Event{Effect: 0x4, EffectParameter: 0x46}
	p0.Rows[2][1] = modfile.Event{Effect: 0x6, EffectParameter: 0x01}
	p0.Rows[16][0] = modfile.Event{Effect: 0xA, EffectParameter: 0x02}
	p0.Rows[20][2] = modfile.Event{Sample: 1, Note: 30, Effect: 0x0, EffectParameter: 0x37}
	p0.Rows[24][2] = modfile.Event{Note: 18, Effect: 0x3, EffectParameter: 0x08}
	p0.Rows[40][3] = modfile.Event{Sample: 2, Note: 1, Effect: 0xE, EffectParameter: 0x93}
	p1 := &m.Patterns[1]
	p1.Rows[0][3] = modfile.Event{Sample: 1, Note: 37, Effect: 0x7, EffectParameter: 0x38}
	p1.Rows[32][0] = modfile.Event{Effect: 0xD, EffectParameter: 0x00}

	s := mustLoad(t, m, LoadModuleConfig{})
	numSongEnds := 0
	s.SetEventHandler(func(e StreamEvent) {
		if e.Kind == EventSongEnd {
			numSongEnds++
			if e.SongEndEventData() != 0 {
				t.Errorf("expected the song to restart from 0, got %d", e.SongEndEventData())
			}
		}
	})

	var passes [3][]voiceTrace
	for numSongEnds < len(passes) {
		pass := numSongEnds
		s.advanceTick()
		var trace voiceTrace
		for i := range s.chip.Voices {
			v := &s.chip.Voices[i]
			trace.period[i] = v.Period
			trace.volume[i] = v.Volume
			trace.active[i] = v.IsActive()
		}
		passes[pass] = append(passes[pass], trace)
	}

	// 64 rows of the first pattern, 33 rows of the second one.
	const wantTicks = (64 + 33) * 6
	for i, pass := range passes {
		if len(pass) != wantTicks {
			t.Fatalf("pass %d: expected %d ticks, got %d", i, wantTicks, len(pass))
		}
	}
	if position, row := s.Position(); position != 0 || row != 0 {
		t.Fatalf("expected position=0 row=0 after wrap, got position=%d row=%d", position, row)
	}
	for i := range passes[1] {
		if passes[1][i] != passes[2][i] {
			t.Fatalf("tick %d: the second pass differs:\nhave %+v\nwant %+v", i, passes[2][i], passes[1][i])
		}
	}
}

func TestStreamSpeedEffect(t *testing.T) {
	m := newTestModule(1)
	m.Patterns[0].Rows[0][2] = modfile.Event{Effect: 0xF, EffectParameter: 32}
	m.Patterns[0].Rows[1][2] = modfile.Event{Effect: 0xF, EffectParameter: 33}
	s := mustLoad(t, m, LoadModuleConfig{})

	s.advanceTick()
	if s.transport.speed != 32 {
		t.Fatalf("expected speed 32, got %d", s.transport.speed)
	}
	for i := 0; i < 32; i++ {
		s.advanceTick()
	}
	if s.transport.speed != 32 || s.transport.bpm != 33 {
		t.Fatalf("expected speed=32 bpm=33, got speed=%d bpm=%d", s.transport.speed, s.transport.bpm)
	}
	if info := s.GetInfo(); info.BytesPerTick != uint(4*calcTickRate(48000, 33)) {
		t.Fatalf("unexpected bytes per tick: %d", info.BytesPerTick)
	}
}

func TestStreamReadEOF(t *testing.T) {
	m := newTestModule(1)
	m.Patterns[0].Rows[0][0] = modfile.Event{Sample: 2, Note: 13}
	s := mustLoad(t, m, LoadModuleConfig{SampleRate: 8000, Speed: 1})
	s.SetLooping(false)

	// 64 ticks of 160 frames.
	const songBytes = 64 * 160 * 4

	buf := make([]byte, 4096)
	total := 0
	for i := 0; ; i++ {
		n, err := s.Read(buf)
		total += n
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if i > 1000 {
			t.Fatalf("the stream never ends")
		}
	}
	if total < songBytes || total > songBytes+len(buf) {
		t.Fatalf("unexpected stream size %d", total)
	}
	if n, err := s.Read(buf); n != 0 || err != io.EOF {
		t.Fatalf("expected (0, EOF), got (%d, %v)", n, err)
	}
	if pos, _ := s.Seek(0, io.SeekCurrent); pos != int64(total) {
		t.Fatalf("expected byte pos %d, got %d", total, pos)
	}

	// Rewind restarts the song.
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("rewind: %v", err)
	}
	if n, err := s.Read(buf); n != len(buf) || err != nil {
		t.Fatalf("expected a full read after rewind, got (%d, %v)", n, err)
	}
}

func TestStreamReadShortBuffer(t *testing.T) {
	s := mustLoad(t, newTestModule(1), LoadModuleConfig{})
	for size := 0; size < 4; size++ {
		n, err := s.Read(make([]byte, size))
		if n != 0 || !errors.Is(err, io.ErrShortBuffer) {
			t.Fatalf("size %d: expected (0, ErrShortBuffer), got (%d, %v)", size, n, err)
		}
	}
	if n, err := s.Read(make([]byte, 6)); n != 4 || err != nil {
		t.Fatalf("expected a single frame, got (%d, %v)", n, err)
	}
}

func TestStreamEvents(t *testing.T) {
	m := newTestModule(1)
	m.Patterns[0].Rows[0][0] = modfile.Event{Sample: 1, Note: 13}
	m.Patterns[0].Rows[1][3] = modfile.Event{Sample: 2, Note: 25, Effect: 0xC, EffectParameter: 20}
	s := mustLoad(t, m, LoadModuleConfig{})

	var events []StreamEvent
	s.SetEventHandler(func(e StreamEvent) {
		events = append(events, e)
	})
	s.Render(make([]float32, 2*960*12))

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if e := events[0]; e.Kind != EventNote || e.Channel != 0 || e.Time != 0 {
		t.Fatalf("unexpected event: %+v", e)
	}
	if note, smp, vol := events[0].NoteEventData(); note != 13 || smp != 1 || vol != 64 {
		t.Fatalf("unexpected note data: note=%d sample=%d vol=%d", note, smp, vol)
	}
	e := events[1]
	if e.Kind != EventNote || e.Channel != 3 || math.Abs(e.Time-0.12) > 1e-9 {
		t.Fatalf("unexpected event: %+v", e)
	}
	if note, smp, vol := e.NoteEventData(); note != 25 || smp != 2 || vol != 20 {
		t.Fatalf("unexpected note data: note=%d sample=%d vol=%d", note, smp, vol)
	}

	events = events[:0]
	s.Rewind()
	if len(events) != 1 || events[0].Kind != EventSync || events[0].SyncEventData() != 0 {
		t.Fatalf("expected a sync event, got %+v", events)
	}
	if events[0].Time != 0.24 {
		t.Fatalf("expected the sync event at 0.24, got %v", events[0].Time)
	}
}

func TestSeekPosition(t *testing.T) {
	m := newTestModule(3)
	s := mustLoad(t, m, LoadModuleConfig{})

	if err := s.SeekPosition(3); err == nil {
		t.Fatalf("expected an error")
	}
	if err := s.SeekPosition(-1); err == nil {
		t.Fatalf("expected an error")
	}
	if err := s.SeekPosition(2); err != nil {
		t.Fatalf("seek: %v", err)
	}
	if position, row := s.Position(); position != 2 || row != 0 {
		t.Fatalf("expected position=2 row=0, got position=%d row=%d", position, row)
	}
	for i := 0; i < 6*64; i++ {
		s.advanceTick()
	}
	if position, _ := s.Position(); position != 0 {
		t.Fatalf("expected position 0 after the last pattern, got %d", position)
	}
}

func TestLoadModuleErrors(t *testing.T) {
	s := NewStream()

	if err := s.LoadModule(nil, LoadModuleConfig{}); err == nil {
		t.Fatalf("nil module: expected an error")
	}

	m := newTestModule(1)
	m.PatternOrder[0] = 5
	if err := s.LoadModule(m, LoadModuleConfig{}); err == nil {
		t.Fatalf("bad pattern reference: expected an error")
	}

	m = newTestModule(1)
	m.SongLength = 0
	if err := s.LoadModule(m, LoadModuleConfig{}); err == nil {
		t.Fatalf("zero song length: expected an error")
	}

	if err := s.LoadModule(newTestModule(1), LoadModuleConfig{SampleRate: 1000}); err == nil {
		t.Fatalf("bad sample rate: expected an error")
	}
	if err := s.LoadModule(newTestModule(1), LoadModuleConfig{Speed: 50}); err == nil {
		t.Fatalf("bad speed: expected an error")
	}
}

func TestCompileSample(t *testing.T) {
	tests := []struct {
		name           string
		s              modfile.Sample
		wantLength     int
		wantLoopLength int
		wantVolume     int
	}{
		{
			name:           "one-shot",
			s:              modfile.Sample{Length: 4, LoopLength: 1, Volume: 30, Data: make([]byte, 8)},
			wantLength:     8,
			wantLoopLength: 1,
			wantVolume:     30,
		},
		{
			name:           "loop",
			s:              modfile.Sample{Length: 8, LoopStart: 2, LoopLength: 4, Volume: 64, Data: make([]byte, 16)},
			wantLength:     12,
			wantLoopLength: 8,
			wantVolume:     64,
		},
		{
			name:           "loop past the end",
			s:              modfile.Sample{Length: 8, LoopStart: 6, LoopLength: 8, Volume: 80, Data: make([]byte, 16)},
			wantLength:     16,
			wantLoopLength: 16,
			wantVolume:     64,
		},
		{
			name:           "no data",
			s:              modfile.Sample{Length: 8, LoopLength: 1},
			wantLength:     0,
			wantLoopLength: 1,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			smp := compileSample(&test.s)
			if smp.length != test.wantLength || smp.loopLength != test.wantLoopLength || smp.volume != test.wantVolume {
				t.Fatalf("unexpected sample: length=%d loop=%d volume=%d", smp.length, smp.loopLength, smp.volume)
			}
		})
	}
}

func TestFloatToPCM(t *testing.T) {
	tests := []struct {
		v    float32
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{2, 32767},
		{-2, -32768},
		{0.5, 16384},
	}
	for _, test := range tests {
		if got := floatToPCM(test.v); got != test.want {
			t.Errorf("floatToPCM(%v): expected %d, got %d", test.v, test.want, got)
		}
	}
}

func TestSynthesizer(t *testing.T) {
	synth := NewSynthesizer()
	if err := synth.PlayNote(modfile.Event{Sample: 1, Note: 13}); err == nil {
		t.Fatalf("expected an error before loading the samples")
	}
	if err := synth.LoadSamples(newTestModule(1), LoadModuleConfig{}); err != nil {
		t.Fatalf("load samples: %v", err)
	}

	out := make([]float32, 2*4800)
	synth.Render(out)
	if peakOf(out) != 0 {
		t.Fatalf("expected silence before the first note")
	}

	if err := synth.PlayNote(modfile.Event{Sample: 1, Note: 13}, modfile.Event{Sample: 2, Period: 428}); err != nil {
		t.Fatalf("play note: %v", err)
	}
	synth.Render(out)
	if peakOf(out) < 0.1 {
		t.Fatalf("expected a note to play")
	}

	synth.Stop()
	synth.Render(out)
	if peakOf(out) != 0 {
		t.Fatalf("expected silence after Stop")
	}

	events := make([]modfile.Event, 5)
	if err := synth.PlayNote(events...); err == nil {
		t.Fatalf("too many events: expected an error")
	}
	if err := synth.PlayNote(modfile.Event{Sample: 40, Note: 1}); err == nil {
		t.Fatalf("bad sample: expected an error")
	}
}

func peakOf(buf []float32) float64 {
	peak := 0.0
	for _, x := range buf {
		peak = math.Max(peak, math.Abs(float64(x)))
	}
	return peak
}
