package modfile

import (
	"fmt"
	"io"
)

const (
	// NumRows is the number of rows inside every MOD pattern.
	NumRows = 64

	// NumChannels is the number of channels of the classic 4-channel layout.
	NumChannels = 4

	// NumNotes is the number of playable notes (5 octaves of 12 semitones).
	// Note 0 is reserved for "no note".
	NumNotes = 60

	// MaxPatterns is the upper bound of the pattern index space.
	MaxPatterns = 128

	// MaxSampleSlots is the number of sample slots of the 31-sample layout.
	// The slot 0 is never used by the patterns.
	MaxSampleSlots = 32
)

// Module is a parsed MOD file contents.
// This is a raw module format that is not optimized for anything.
//
// The sample data slices are borrowed from the parsed input buffer.
type Module struct {
	Name string

	// Signature is a 4-byte format tag stored at offset 1080, like "M.K.".
	Signature string

	// SignatureKnown reports whether Signature is one of the recognized tags.
	// Unknown signatures are not fatal unless ParserConfig.Strict is set.
	SignatureKnown bool

	// NumSamples is the number of sample slots, including the unused slot 0.
	NumSamples int

	// SongLength is the number of used entries in PatternOrder.
	SongLength int

	// RestartByte is a byte that follows the song length.
	// Most trackers store 127 here; the player ignores it.
	RestartByte uint8

	// PatternOrder holds all 128 stored entries, only first SongLength are played.
	PatternOrder [MaxPatterns]uint8

	Patterns []Pattern

	// Samples has exactly NumSamples elements.
	Samples []Sample
}

type Pattern struct {
	Rows [NumRows][NumChannels]Event
}

// Event is a single pattern cell.
type Event struct {
	// Sample is a sample slot index; 0 means "keep the current sample".
	Sample uint8

	// Note is a resolved note index in [0, 60]; 0 means "no note".
	Note uint8

	// Period is the raw 12-bit period as stored in the file.
	Period uint16

	Effect          uint8
	EffectParameter uint8
}

type Sample struct {
	Name string

	// Length is a sample length in 16-bit words.
	Length uint16

	// Finetune is normalized into [-8, 7].
	Finetune int8

	// Volume is a default sample volume, usually in [0, 64].
	Volume uint8

	// LoopStart is a loop start offset in words.
	LoopStart uint16

	// LoopLength is a loop length in words; 1 (or 0) means "no loop".
	LoopLength uint16

	// finetuneHigh keeps the unused bits of the stored finetune byte.
	finetuneHigh uint8

	// Data is a signed 8-bit PCM.
	Data []byte
}

// HasLoop reports whether the sample is played in a loop.
func (s *Sample) HasLoop() bool {
	return s.LoopLength > 1
}

// FinetuneNibble returns the finetune value as it's stored in the file.
func (s *Sample) FinetuneNibble() uint8 {
	return uint8(s.Finetune) & 0x0f
}

// Parse reads MOD file data and decodes it into a module.
//
// A non-nil error is usually a *ParseError object.
func Parse(r io.Reader) (*Module, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	p := NewParser(ParserConfig{NeedStrings: true})
	return p.ParseFromBytes(data)
}
