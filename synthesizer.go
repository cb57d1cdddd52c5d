package amigamod

import (
	"errors"
	"fmt"

	"github.com/quasilyte/amigamod/modfile"
)

// Synthesizer can be used to play individual MOD notes.
//
// It is more efficient and convenient to use for this
// use case than a stream with a constant module re-loading.
//
// The notes are played through the same emulated chip as the songs,
// the effects work as well (within one pattern).
type Synthesizer struct {
	stream     *Stream
	numSamples int
}

func NewSynthesizer() *Synthesizer {
	return &Synthesizer{
		stream: NewStream(),
	}
}

// SetVolume adjusts the master volume for the underlying stream.
func (s *Synthesizer) SetVolume(v float64) {
	s.stream.SetVolume(v)
}

// SetSeparation adjusts the stereo separation for the underlying stream.
func (s *Synthesizer) SetSeparation(v float64) {
	s.stream.SetSeparation(v)
}

// LoadSamples prepares the samples from the module
// for further use.
//
// The patterns don't really matter as this method
// is only interested in samples.
func (s *Synthesizer) LoadSamples(m *modfile.Module, config LoadModuleConfig) error {
	// Position 0 holds the notes to play.
	// Position 1 is an empty pattern that loops forever.
	samplesOnly := modfile.Module{
		Name:       m.Name,
		NumSamples: m.NumSamples,
		SongLength: 2,
		Samples:    m.Samples,
		Patterns:   make([]modfile.Pattern, 2),
	}
	samplesOnly.PatternOrder[1] = 1
	samplesOnly.Patterns[1].Rows[modfile.NumRows-1][0] = modfile.Event{
		Effect:          0xB,
		EffectParameter: 1,
	}

	if err := s.stream.LoadModule(&samplesOnly, config); err != nil {
		return err
	}
	s.numSamples = len(m.Samples)
	// Don't play anything until PlayNote is called.
	return s.stream.SeekPosition(1)
}

// PlayNote plays up to 4 events, one per channel.
// The notes that are still playing are stopped.
//
// The event sample index must refer to a loaded sample.
// A note can be specified either by Note or by Period.
func (s *Synthesizer) PlayNote(events ...modfile.Event) error {
	if s.stream.chip == nil {
		return errors.New("no samples loaded")
	}
	if len(events) > modfile.NumChannels {
		return fmt.Errorf("too many events: %d, at most %d are allowed", len(events), modfile.NumChannels)
	}
	for _, e := range events {
		if int(e.Sample) >= s.numSamples {
			return fmt.Errorf("sample %d is not loaded", e.Sample)
		}
	}

	row := &s.stream.module.patterns[0].rows[0]
	for i := range row {
		row[i] = event{}
		if i < len(events) {
			row[i] = compileEvent(events[i], s.numSamples)
		}
	}
	s.stream.rewind()
	return nil
}

// Stop silences all channels.
func (s *Synthesizer) Stop() {
	if s.stream.chip == nil {
		return
	}
	// Position 1 always exists, this can't fail.
	_ = s.stream.SeekPosition(1)
}

// SetEventHandler installs an event listener to the underlying stream.
func (s *Synthesizer) SetEventHandler(f func(e StreamEvent)) {
	s.stream.SetEventHandler(f)
}

// Render fills out with interleaved stereo frames.
// See Stream.Render.
func (s *Synthesizer) Render(out []float32) int {
	return s.stream.Render(out)
}

func (s *Synthesizer) Read(b []byte) (int, error) {
	return s.stream.Read(b)
}
