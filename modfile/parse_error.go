package modfile

import (
	"errors"
	"fmt"
)

// These are the kinds of a ParseError.
// Use errors.Is to check the kind of an error returned by the parser.
var (
	ErrTruncatedInput          = errors.New("truncated input")
	ErrUnrecognizedSignature   = errors.New("unrecognized signature")
	ErrInvalidPatternReference = errors.New("invalid pattern reference")
	ErrInvalidSongLength       = errors.New("invalid song length")
)

type ParseError struct {
	// Kind is one of the Err* values above.
	Kind error

	Message string

	Offset int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s (offset=%d)", e.Message, e.Offset)
}

func (e *ParseError) Unwrap() error {
	return e.Kind
}
