package modfile

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Encode serializes the module using the 31-sample 4-channel layout.
//
// Decoding the result gives back the same header fields;
// for a parsed module the sample headers are byte-exact.
// The patterns referenced by the order table but missing from
// m.Patterns are written as empty patterns.
// If m.Signature is not a 4-byte string, "M.K." is used.
func Encode(m *Module) ([]byte, error) {
	if m.SongLength <= 0 || m.SongLength > MaxPatterns {
		return nil, fmt.Errorf("invalid song length value: %d", m.SongLength)
	}
	if len(m.Samples) > MaxSampleSlots {
		return nil, errors.New("too many samples")
	}

	numPatterns := len(m.Patterns)
	for _, patternIndex := range m.PatternOrder {
		if int(patternIndex) >= MaxPatterns {
			return nil, fmt.Errorf("pattern index %d is out of range", patternIndex)
		}
		numPatterns = max(numPatterns, int(patternIndex)+1)
	}
	if numPatterns > MaxPatterns {
		return nil, errors.New("too many patterns")
	}

	size := signatureOffset + signatureSize + numPatterns*patternSize
	for i := 1; i < len(m.Samples); i++ {
		size += 2 * int(m.Samples[i].Length)
	}
	data := make([]byte, size)

	putCstring(data[:titleSize], m.Name)

	offset := titleSize
	for i := 1; i < MaxSampleSlots; i++ {
		if i < len(m.Samples) {
			m.Samples[i].putHeader(data[offset : offset+sampleHeaderSize])
		}
		offset += sampleHeaderSize
	}

	data[offset] = uint8(m.SongLength)
	data[offset+1] = m.RestartByte
	offset += 2
	offset += copy(data[offset:], m.PatternOrder[:])

	sig := m.Signature
	if len(sig) != signatureSize {
		sig = "M.K."
	}
	offset += copy(data[offset:], sig)

	for i := 0; i < numPatterns; i++ {
		if i < len(m.Patterns) {
			m.Patterns[i].put(data[offset : offset+patternSize])
		}
		offset += patternSize
	}

	for i := 1; i < len(m.Samples); i++ {
		n := 2 * int(m.Samples[i].Length)
		copy(data[offset:offset+n], m.Samples[i].Data)
		offset += n
	}

	return data, nil
}

func (s *Sample) putHeader(dst []byte) {
	putCstring(dst[:sampleNameSize], s.Name)
	binary.BigEndian.PutUint16(dst[22:], s.Length)
	dst[24] = s.finetuneHigh | s.FinetuneNibble()
	dst[25] = s.Volume
	binary.BigEndian.PutUint16(dst[26:], s.LoopStart)
	binary.BigEndian.PutUint16(dst[28:], s.LoopLength)
}

func (pat *Pattern) put(dst []byte) {
	for row := range pat.Rows {
		for _, e := range pat.Rows[row] {
			period := e.Period
			if period == 0 {
				period = uint16(BasePeriod(int(e.Note)))
			}
			dst[0] = (e.Sample & 0xf0) | uint8(period>>8)&0x0f
			dst[1] = uint8(period)
			dst[2] = (e.Sample << 4) | (e.Effect & 0x0f)
			dst[3] = e.EffectParameter
			dst = dst[4:]
		}
	}
}
