package bmff

import (
	"errors"
	"fmt"
)

// Sentinel errors for box decoding.
var (
	ErrShortHeader = errors.New("bmff: not enough bytes for box header")
	ErrBoxTooSmall = errors.New("bmff: declared size smaller than header")
	ErrBoxOverrun  = errors.New("bmff: box extends past end of buffer")
	ErrNotFtyp     = errors.New("bmff: not an ftyp box")
)

// ParseError records where a box header failed to decode and why.
type ParseError struct {
	Offset int64
	Field  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bmff: parse %s at offset %d: %v", e.Field, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
