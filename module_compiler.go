package amigamod

import (
	"errors"
	"fmt"

	"github.com/quasilyte/amigamod/internal/moddb"
	"github.com/quasilyte/amigamod/modfile"
)

type moduleCompiler struct {
	result module
}

func compileModule(m *modfile.Module, config moduleConfig) (module, error) {
	c := &moduleCompiler{}
	c.result = module{
		name:       m.Name,
		sampleRate: int(config.sampleRate),
		chipRate:   int(config.chipRate),
		bpm:        int(config.bpm),
		speed:      int(config.speed),
	}
	err := c.compile(m)
	return c.result, err
}

func (c *moduleCompiler) compile(m *modfile.Module) error {
	if c.result.speed > 32 {
		return errors.New("speed can't be higher than 32 ticks per row")
	}
	if c.result.bpm < 32 || c.result.bpm > 255 {
		return fmt.Errorf("BPM %d is out of [32, 255] range", c.result.bpm)
	}

	if err := c.compileSamples(m); err != nil {
		return err
	}

	if err := c.compilePatterns(m); err != nil {
		return err
	}

	return nil
}

func (c *moduleCompiler) compileSamples(m *modfile.Module) error {
	if len(m.Samples) > modfile.MaxSampleSlots {
		return fmt.Errorf("too many sample slots: %d", len(m.Samples))
	}

	for i := range m.Samples {
		// Slot 0 is never referenced: the event sample 0 means "keep the current one".
		if i == 0 {
			continue
		}
		c.result.samples[i] = compileSample(&m.Samples[i])
	}

	return nil
}

func compileSample(s *modfile.Sample) sample {
	dst := sample{
		data:     s.Data,
		finetune: int(s.Finetune),
		volume:   clamp(int(s.Volume), 0, 64),
	}

	// The looped samples are played up to the loop end and
	// never return to the part before the loop start.
	if s.HasLoop() {
		dst.length = 2 * (int(s.LoopStart) + int(s.LoopLength))
		dst.loopLength = 2 * int(s.LoopLength)
	} else {
		dst.length = 2 * int(s.Length)
		dst.loopLength = 1
	}

	// Some modules have the loop running past the sample end.
	// The voice would play the garbage that follows the sample, so shift
	// the loop to fit the actual data.
	if dst.length > len(s.Data) {
		dst.length = len(s.Data)
		dst.loopLength = clamp(dst.loopLength, 1, max(dst.length, 1))
	}

	return dst
}

func (c *moduleCompiler) compilePatterns(m *modfile.Module) error {
	if m.SongLength <= 0 || m.SongLength > modfile.MaxPatterns {
		return fmt.Errorf("invalid song length %d", m.SongLength)
	}

	c.result.patterns = make([]pattern, len(m.Patterns))
	c.result.positions = make([]*pattern, m.SongLength)

	// Bind pattern order to the actual patterns.
	for i, patternIndex := range m.PatternOrder[:m.SongLength] {
		if int(patternIndex) >= len(m.Patterns) {
			return fmt.Errorf("position %d refers to a non-existing pattern %d", i, patternIndex)
		}
		c.result.positions[i] = &c.result.patterns[patternIndex]
	}

	numSamples := len(m.Samples)
	for i := range m.Patterns {
		rawPat := &m.Patterns[i]
		pat := &c.result.patterns[i]
		for row := range rawPat.Rows {
			for ch, rawEvent := range rawPat.Rows[row] {
				pat.rows[row][ch] = compileEvent(rawEvent, numSamples)
			}
		}
	}

	return nil
}

func compileEvent(e modfile.Event, numSamples int) event {
	note := e.Note
	if note == 0 && e.Period != 0 {
		note = modfile.NoteFromPeriod(int(e.Period))
	}
	sampleIndex := e.Sample
	if int(sampleIndex) >= numSamples {
		// There is no sample data to play in this slot.
		sampleIndex = 0
	}
	return event{
		sample: sampleIndex,
		note:   note,
		effect: moddb.ConvertEffect(e),
	}
}
