package amigamod

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/quasilyte/amigamod/internal/moddb"
	"github.com/quasilyte/amigamod/modfile"
	"github.com/quasilyte/amigamod/paula"
)

// Stream plays the compiled MOD module through the emulated Paula chip.
//
// There are two ways to get the audio out of it:
//   - Render() produces interleaved stereo float32 frames
//   - Read() produces 16-bit little endian PCM bytes
//
// The Read() output is what ebiten/audio package expects.
// Use Stream as an io.Reader argument for audio.NewPlayer().
//
// Stream is not thread-safe.
type Stream struct {
	module module

	chip   *paula.Chip
	tables *moddb.Tables
	env    stepEnv

	channels  [modfile.NumChannels]streamChannel
	transport transport

	// tickFramesRemain is a number of output frames until the next tick.
	tickFramesRemain int

	// framePos is a number of rendered frames since the last rewind.
	framePos int

	// ended is set when the song is over and the looping is disabled.
	ended bool

	settings streamSettings

	pcmBuf []float32
}

type streamSettings struct {
	volume       float64
	separation   float64
	loop         bool
	eventHandler func(e StreamEvent)
}

// pcmBufFrames is a Read() conversion buffer size.
const pcmBufFrames = 1024

// StreamInfo contains a compiled module stream information.
type StreamInfo struct {
	// Title is a module name.
	Title string

	// NumPositions is the song length.
	NumPositions int

	// BytesPerTick tells how much Read() bytes a single tick takes
	// with the current tempo.
	// Read() can be called with any slice size though.
	BytesPerTick uint

	// MemoryUsage approximates the compiled module size in bytes.
	// The sample data is included even though it's shared with the parsed module.
	MemoryUsage uint
}

// LoadModuleConfig configures the module loading.
//
// These settings can't be changed after a module is loaded.
//
// Some extra configurations are available via Stream methods:
//   - Stream.SetVolume()
//   - Stream.SetSeparation()
//   - Stream.SetLooping()
//
// These extra configuration methods can be used even after a module is loaded.
type LoadModuleConfig struct {
	// The sound device sample rate.
	// If you're using Ebitengine, it's the same value that
	// was used to create an audio context.
	//
	// A zero value will assume a sample rate of 48000.
	// The supported rates are in [8000, 192000].
	SampleRate uint

	// ChipRate is an emulated Paula clock rate.
	// The sample pitch is proportional to it.
	//
	// A zero value will use paula.DefaultChipRate.
	// Use paula.PALChipRate for the exact PAL machine timing.
	ChipRate uint

	// BPM sets the initial playback speed.
	// Higher BPM will make the music play faster.
	// The module can change it with the set speed effect.
	//
	// A zero value will use 125, the standard MOD tempo.
	BPM uint

	// Speed specifies the initial number of ticks per pattern row.
	// Higher values make the song play slower.
	//
	// A zero value will use 6.
	Speed uint
}

// NewStream allocates a stream that can load and play MOD tracks.
// Use LoadModule method to finish stream initialization.
func NewStream() *Stream {
	return &Stream{
		settings: streamSettings{
			volume:     0.66,
			separation: 0.5,
			loop:       true,
		},
	}
}

// SetEventHandler installs an event listener to the stream.
//
// f is called on every stream event.
//
// Events are produced when the track is being played.
// Therefore, calling Read() or Render() may produce multiple events.
func (s *Stream) SetEventHandler(f func(e StreamEvent)) {
	s.settings.eventHandler = f
}

// SetVolume adjusts the master volume of the stream.
// The default value is 0.66; a value of 0 disables the sound.
// The value is clamped in [0, 1].
func (s *Stream) SetVolume(v float64) {
	s.settings.volume = clamp(v, 0, 1)
	if s.chip != nil {
		s.chip.SetVolume(s.settings.volume)
	}
}

// SetSeparation adjusts the stereo separation.
// The default value is 0.5; 0 is mono and 1 is a hard Amiga panning.
// The value is clamped in [-1, 1], negative values swap the channels.
func (s *Stream) SetSeparation(v float64) {
	s.settings.separation = clamp(v, -1, 1)
	if s.chip != nil {
		s.chip.SetSeparation(s.settings.separation)
	}
}

// SetLooping controls what happens when the song is over.
//
// The MOD songs are played in a loop by default.
// When looping is disabled, the stream goes silent after the last
// song position and Read() returns io.EOF.
// Render() still fills the entire buffer.
//
// Some songs loop back to the middle of the song with a position jump;
// this is treated as the song end too.
func (s *Stream) SetLooping(loop bool) {
	s.settings.loop = loop
}

// LoadModule assigns a new MOD module to this stream.
//
// The module sample data is used directly, the module
// should not be modified while it's being played.
func (s *Stream) LoadModule(m *modfile.Module, config LoadModuleConfig) error {
	if m == nil {
		return errors.New("nil module")
	}
	s.applyConfigDefaults(&config)

	compiled, err := compileModule(m, moduleConfig{
		sampleRate: config.SampleRate,
		chipRate:   config.ChipRate,
		bpm:        config.BPM,
		speed:      config.Speed,
	})
	if err != nil {
		return err
	}

	if err := s.assignCompiledModule(compiled); err != nil {
		return err
	}

	// Call a rewind() that won't trigger a Sync event.
	s.rewind()

	return nil
}

func (s *Stream) assignCompiledModule(compiled module) error {
	chip, err := paula.NewChip(paula.Config{
		ChipRate:   compiled.chipRate,
		OutputRate: compiled.sampleRate,
	})
	if err != nil {
		return err
	}
	chip.SetVolume(s.settings.volume)
	chip.SetSeparation(s.settings.separation)

	s.module = compiled
	s.chip = chip
	if s.tables == nil {
		s.tables = moddb.NewTables()
	}
	s.env = stepEnv{
		tables:     s.tables,
		samples:    &s.module.samples,
		sampleRate: s.module.sampleRate,
	}
	if s.pcmBuf == nil {
		s.pcmBuf = make([]float32, 2*pcmBufFrames)
	}
	return nil
}

func (s *Stream) applyConfigDefaults(config *LoadModuleConfig) {
	if config.SampleRate == 0 {
		config.SampleRate = 48000
	}
	if config.ChipRate == 0 {
		config.ChipRate = paula.DefaultChipRate
	}
	if config.BPM == 0 {
		config.BPM = 125
	}
	if config.Speed == 0 {
		config.Speed = 6
	}
}

// Seek partially implements io.Seeker.
//
// You can use it for two things:
//  1. (0, SeekStart) for rewind
//  2. (0, SeekCurrent) to get the byte pos inside the stream
//
// Use SeekPosition to jump to a song position.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		if offset == 0 {
			s.Rewind()
			return 0, nil
		}

	case io.SeekCurrent:
		if offset == 0 {
			return int64(s.framePos) * 4, nil
		}
	}

	return 0, errors.New("unsupported Seek call")
}

// SeekPosition restarts the playback from the specified song position.
//
// All channels are reset, the notes triggered before that
// position are not restored.
// The Seek byte pos counter starts from 0 again.
func (s *Stream) SeekPosition(position int) error {
	if s.chip == nil {
		return errors.New("no module loaded")
	}
	if position < 0 || position >= len(s.module.positions) {
		return fmt.Errorf("position %d is out of [0, %d) range", position, len(s.module.positions))
	}
	s.rewind()
	s.transport.position = position
	return nil
}

// Position returns the current song position and row.
func (s *Stream) Position() (position, row int) {
	return s.transport.position, s.transport.rowIndex()
}

// Render fills out with interleaved stereo frames (left, right).
//
// Render always fills len(out)/2 frames and returns that number.
// A trailing odd element is left untouched.
//
// The output is not clipped, but it rarely goes beyond [-1, 1]
// with the default volume.
func (s *Stream) Render(out []float32) int {
	numFrames := len(out) / 2
	out = out[:2*numFrames]
	if s.chip == nil {
		clear(out)
		return numFrames
	}

	for len(out) != 0 {
		if s.tickFramesRemain == 0 {
			s.advanceTick()
			s.tickFramesRemain = s.transport.tickRate
			continue
		}
		n := min(len(out)/2, s.tickFramesRemain)
		s.chip.Render(out[:2*n])
		out = out[2*n:]
		s.tickFramesRemain -= n
		s.framePos += n
	}

	return numFrames
}

// Read puts next PCM bytes into provided slice.
//
// It produces 16-bit (2 bytes per sample) LE stereo PCM data,
// so every frame takes 4 bytes. A trailing part of b that
// can't fit a whole frame is not written to.
//
// When looping is disabled and the song is over, io.EOF error is returned.
// A slice that can't hold a single frame gives io.ErrShortBuffer.
func (s *Stream) Read(b []byte) (int, error) {
	if s.chip == nil {
		return 0, errors.New("no module loaded")
	}
	if len(b) < 4 && !s.ended {
		return 0, io.ErrShortBuffer
	}

	written := 0
	for len(b) >= 4 && !s.ended {
		numFrames := min(len(b)/4, pcmBufFrames)
		buf := s.pcmBuf[:2*numFrames]
		s.Render(buf)
		for i := 0; i < numFrames; i++ {
			putPCM(b[4*i:], buf[2*i], buf[2*i+1])
		}
		written += 4 * numFrames
		b = b[4*numFrames:]
	}

	if s.ended && written == 0 {
		return 0, io.EOF
	}
	return written, nil
}

// Rewind prepares the stream to play the module right from the start.
// Doing rewind is relatively cheap.
func (s *Stream) Rewind() {
	if s.settings.eventHandler != nil {
		s.settings.eventHandler(StreamEvent{
			Kind:  EventSync,
			Time:  s.currentTime(),
			value: math.Float64bits(0),
		})
	}
	s.rewind()
}

func (s *Stream) rewind() {
	for i := range s.channels {
		s.channels[i] = streamChannel{}
	}
	s.tickFramesRemain = 0
	s.framePos = 0
	s.ended = false
	if s.chip == nil {
		return
	}
	s.transport = newTransport(s.module.speed, s.module.bpm, s.module.sampleRate)
	s.chip.Reset()
}

// GetInfo returns stream-related info.
// See StreamInfo for more details.
func (s *Stream) GetInfo() StreamInfo {
	return StreamInfo{
		Title:        s.module.name,
		NumPositions: len(s.module.positions),
		BytesPerTick: uint(s.transport.tickRate) * 4,
		MemoryUsage:  moduleSize(&s.module),
	}
}

func (s *Stream) currentTime() float64 {
	if s.module.sampleRate == 0 {
		return 0
	}
	return float64(s.framePos) / float64(s.module.sampleRate)
}

// advanceTick runs one tick of all channels and writes the results
// into the chip voice registers.
func (s *Stream) advanceTick() {
	if s.ended {
		return
	}

	tr := s.transport
	row := &s.module.positions[tr.position].rows[tr.rowIndex()]
	for i := range s.channels {
		var upd voiceUpdate
		s.channels[i], tr, upd = stepChannel(s.channels[i], tr, row[i], &s.env)
		s.applyVoiceUpdate(i, &upd)
	}

	prevPosition := s.transport.position
	s.transport = tr.next(len(s.module.positions))
	if s.transport.newPosition && s.transport.position <= prevPosition {
		s.songEnd()
	}
}

func (s *Stream) applyVoiceUpdate(channel int, upd *voiceUpdate) {
	v := &s.chip.Voices[channel]
	if upd.trigger {
		smp := &s.module.samples[upd.sample]
		v.Trigger(smp.data, smp.length, smp.loopLength, upd.offset)
		if s.settings.eventHandler != nil {
			s.settings.eventHandler(StreamEvent{
				Kind:    EventNote,
				Channel: channel,
				Time:    s.currentTime(),
				value:   makeNoteEventValue(s.channels[channel].note, upd.sample, upd.volume),
			})
		}
	}
	v.Period = upd.period
	v.Volume = upd.volume
}

func (s *Stream) songEnd() {
	if s.settings.eventHandler != nil {
		s.settings.eventHandler(StreamEvent{
			Kind:  EventSongEnd,
			Time:  s.currentTime(),
			value: uint64(s.transport.position),
		})
	}
	if s.settings.loop {
		return
	}
	s.ended = true
	for i := range s.chip.Voices {
		s.chip.Voices[i].Stop()
	}
}
