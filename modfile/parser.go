package modfile

import (
	"encoding/binary"
	"fmt"
	"strings"
)

const (
	titleSize        = 20
	sampleHeaderSize = 30
	sampleNameSize   = 22
	signatureSize    = 4
	patternSize      = NumRows * NumChannels * 4

	// The layout before the signature is fixed: a title,
	// 31 sample headers, song length, restart byte and the order table.
	signatureOffset = titleSize + (MaxSampleSlots-1)*sampleHeaderSize + 2 + MaxPatterns

	// defaultSampleSlots is used when the signature is not recognized.
	defaultSampleSlots = MaxSampleSlots
)

// knownSignatures maps the recognized tags to the number of sample slots.
var knownSignatures = map[string]int{
	"M.K.": MaxSampleSlots, // ProTracker
	"M!K!": MaxSampleSlots, // ProTracker, more than 64 patterns
	"FLT4": MaxSampleSlots, // StarTrekker 4 channels
	"4CHN": MaxSampleSlots, // FastTracker 4 channels
}

type ParserConfig struct {
	// NeedStrings makes the parser decode the module title and sample names.
	// When false, these strings are left empty.
	NeedStrings bool

	// Strict makes an unrecognized signature a parse error.
	// Otherwise the default 32 sample slots layout is assumed.
	Strict bool

	// AllowShortSamples accepts files where the sample data is cut short.
	// The missing bytes are dropped from the sample, the sample header
	// fields are kept as is.
	// This is a common artifact of the modules ripped from the games.
	AllowShortSamples bool
}

// Parser decodes MOD files.
//
// A parser can be reused to decode several modules.
// The patterns of the returned module share the parser memory,
// so the module is valid only until the next parse call.
type Parser struct {
	// data holds the MOD file input data bytes.
	data []byte

	// offset is our current position inside the data.
	offset int

	// module holds the results of MOD parsing.
	module Module

	patternPool objectPool[Pattern]

	config ParserConfig

	// These fields below are needed for better error reporting.
	stage      string
	stageIndex int
}

func NewParser(config ParserConfig) *Parser {
	p := &Parser{config: config}
	initObjectPool(&p.patternPool, MaxPatterns, 2)
	return p
}

// ParseFromBytes decodes the MOD file data.
//
// The sample data slices point into data, the data is not copied.
//
// A non-nil error is always a *ParseError.
func (p *Parser) ParseFromBytes(data []byte) (*Module, error) {
	p.reset(data)
	if err := p.parse(); err != nil {
		return nil, err
	}
	m := p.module
	return &m, nil
}

func (p *Parser) reset(data []byte) {
	p.data = data
	p.offset = 0
	p.patternPool.Reset()
	p.module = Module{}
}

func (p *Parser) startStage(name string) {
	p.stage = name
	p.stageIndex = -1
}

func (p *Parser) formatStage() string {
	if p.stageIndex < 0 {
		return p.stage
	}
	return fmt.Sprintf("%s[%d]", p.stage, p.stageIndex)
}

func (p *Parser) errorf(kind error, format string, args ...any) *ParseError {
	text := fmt.Sprintf(format, args...)
	if tag := p.formatStage(); tag != "" {
		text = tag + ": " + text
	}
	return &ParseError{
		Kind:    kind,
		Message: text,
		Offset:  p.offset,
	}
}

func (p *Parser) dataBytesRemaining() int {
	return len(p.data) - p.offset
}

func (p *Parser) skip(l int, what string) {
	if p.dataBytesRemaining() < l {
		panic(p.errorf(ErrTruncatedInput, "unexpected EOF while reading %s", what))
	}
	p.offset += l
}

func (p *Parser) read(l int, what string) []byte {
	if p.dataBytesRemaining() < l {
		panic(p.errorf(ErrTruncatedInput, "unexpected EOF while reading %s", what))
	}
	b := p.data[p.offset : p.offset+l : p.offset+l]
	p.offset += l
	return b
}

func (p *Parser) readOptionalString(l int, what string) string {
	if !p.config.NeedStrings {
		p.skip(l, what)
		return ""
	}
	return convertCstring(p.read(l, what))
}

func (p *Parser) readWord(what string) uint16 {
	return binary.BigEndian.Uint16(p.read(2, what))
}

func (p *Parser) readByte(what string) uint8 {
	return p.read(1, what)[0]
}

func (p *Parser) parse() (err error) {
	defer func() {
		rv := recover()
		if rv != nil {
			if parseErr, ok := rv.(*ParseError); ok {
				err = parseErr
			} else {
				panic(rv)
			}
		}
	}()

	p.parseModule()

	return err // See the deferred call above
}

func (p *Parser) parseModule() {
	p.startStage("header")
	p.parseHeader()

	p.startStage("sample")
	p.module.Samples = make([]Sample, p.module.NumSamples)
	for i := 1; i < p.module.NumSamples; i++ {
		p.stageIndex = i
		p.parseSampleHeader(&p.module.Samples[i])
	}

	p.startStage("order")
	numPatterns := p.parseOrder()

	p.startStage("pattern")
	p.module.Patterns = p.patternPool.MakeSlice(numPatterns)
	for i := range p.module.Patterns {
		p.stageIndex = i
		p.parsePattern(&p.module.Patterns[i])
	}

	p.startStage("sampledata")
	for i := 1; i < p.module.NumSamples; i++ {
		p.stageIndex = i
		p.parseSampleData(&p.module.Samples[i])
	}
}

func (p *Parser) parseHeader() {
	if len(p.data) < signatureOffset+signatureSize {
		panic(p.errorf(ErrTruncatedInput, "file is too small (%d bytes)", len(p.data)))
	}

	sig := p.data[signatureOffset : signatureOffset+signatureSize]
	p.module.Signature = string(sig)
	p.module.NumSamples = defaultSampleSlots
	if n, ok := knownSignatures[p.module.Signature]; ok {
		p.module.SignatureKnown = true
		p.module.NumSamples = n
	} else if p.config.Strict {
		p.offset = signatureOffset
		panic(p.errorf(ErrUnrecognizedSignature, "unexpected signature: %q", sig))
	}

	p.module.Name = strings.TrimRight(p.readOptionalString(titleSize, "module name"), " ")
}

func (p *Parser) parseSampleHeader(s *Sample) {
	s.Name = p.readOptionalString(sampleNameSize, "sample name")
	s.Length = p.readWord("sample length")
	finetuneByte := p.readByte("sample finetune")
	s.finetuneHigh = finetuneByte & 0xf0
	finetune := int8(finetuneByte & 0x0f)
	if finetune >= 8 {
		finetune -= 16
	}
	s.Finetune = finetune
	s.Volume = p.readByte("sample volume")
	s.LoopStart = p.readWord("sample loop start")
	s.LoopLength = p.readWord("sample loop length")
}

func (p *Parser) parseOrder() int {
	songLength := int(p.readByte("song length"))
	if songLength == 0 || songLength > MaxPatterns {
		panic(p.errorf(ErrInvalidSongLength, "invalid song length value: %d", songLength))
	}
	p.module.SongLength = songLength
	p.module.RestartByte = p.readByte("restart byte")

	orderStart := p.offset
	copy(p.module.PatternOrder[:], p.read(MaxPatterns, "pattern order table"))

	// Some trackers save patterns that are only referenced by the
	// unused part of the order table, so the whole table is scanned.
	numPatterns := 0
	for i, patternIndex := range p.module.PatternOrder {
		if int(patternIndex) >= MaxPatterns {
			if i < songLength {
				p.offset = orderStart + i
				panic(p.errorf(ErrInvalidPatternReference, "position %d refers to pattern %d", i, patternIndex))
			}
			continue
		}
		if int(patternIndex)+1 > numPatterns {
			numPatterns = int(patternIndex) + 1
		}
	}

	if p.module.NumSamples > 16 {
		p.skip(signatureSize, "signature")
	}

	return numPatterns
}

func (p *Parser) parsePattern(pat *Pattern) {
	data := p.read(patternSize, "pattern data")
	for row := range pat.Rows {
		for ch := range pat.Rows[row] {
			b := data[:4]
			period := uint16(b[0]&0x0f)<<8 | uint16(b[1])
			pat.Rows[row][ch] = Event{
				Sample:          (b[0] & 0xf0) | (b[2] >> 4),
				Period:          period,
				Note:            NoteFromPeriod(int(period)),
				Effect:          b[2] & 0x0f,
				EffectParameter: b[3],
			}
			data = data[4:]
		}
	}
}

func (p *Parser) parseSampleData(s *Sample) {
	n := 2 * int(s.Length)
	if n == 0 {
		return
	}
	if p.config.AllowShortSamples && p.dataBytesRemaining() < n {
		n = p.dataBytesRemaining()
	}
	s.Data = p.read(n, "sample data")
}
