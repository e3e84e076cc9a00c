package livephoto

import "github.com/IceyWu/live-photo/internal/bmff"

// DefaultLookahead bounds how far past the proposed split point validation
// will look for a moov or mdat box.
const DefaultLookahead = 8192

// Strategy records which validation pass confirmed a container.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyBoxWalk
	StrategyByteScan
)

func (s Strategy) String() string {
	switch s {
	case StrategyBoxWalk:
		return "box_walk"
	case StrategyByteScan:
		return "byte_scan"
	default:
		return "none"
	}
}

// Validation is the outcome of Probe.
type Validation struct {
	Strategy Strategy
	Tag      bmff.BoxType // moov or mdat; zero when Strategy is StrategyNone
	Offset   int          // where Tag's box header (box walk) or the tag itself (byte scan) was found
}

// OK reports whether a media box was found.
func (v Validation) OK() bool {
	return v.Strategy != StrategyNone
}

// IsPlausibleContainer reports whether a moov or mdat box follows the box
// header at boxStart within window bytes.
func IsPlausibleContainer(buf []byte, boxStart, window int) bool {
	return Probe(buf, boxStart, window).OK()
}

// Probe validates the box chain starting at boxStart. It first walks sibling
// boxes by their declared sizes; only if that walk fails to reach a moov or
// mdat box does it fall back to a raw byte scan for either tag. Both passes
// are limited to window bytes from boxStart; window <= 0 means
// DefaultLookahead. Probe never modifies buf and never fails on malformed
// input.
func Probe(buf []byte, boxStart, window int) Validation {
	if boxStart < 0 || boxStart >= len(buf) {
		return Validation{}
	}
	if window <= 0 {
		window = DefaultLookahead
	}

	limit := len(buf)
	if window < limit-boxStart {
		limit = boxStart + window
	}

	if v, ok := walkBoxes(buf, boxStart, limit); ok {
		return v
	}
	return scanMediaTags(buf, boxStart, limit)
}

// walkBoxes follows declared box sizes from start. A header that does not
// decode or a box that overruns the buffer ends the walk unsuccessfully, as
// does a box whose size and type fields do not both lie before limit.
func walkBoxes(buf []byte, start, limit int) (Validation, bool) {
	var (
		v     Validation
		found bool
	)
	err := bmff.Walk(buf, start, limit, func(h bmff.Header) bool {
		if h.Offset+8 > int64(limit) {
			return false
		}
		if bmff.IsMediaBox(h.Type) {
			v = Validation{Strategy: StrategyBoxWalk, Tag: h.Type, Offset: int(h.Offset)}
			found = true
			return false
		}
		return true
	})
	if err != nil {
		// sizes can't be trusted; Probe falls back to the byte scan
		return Validation{}, false
	}
	return v, found
}

// scanMediaTags is the fallback for trailers whose box sizes cannot be
// trusted: a bounded search for the literal moov or mdat tags. The whole tag
// must lie before limit.
func scanMediaTags(buf []byte, start, limit int) Validation {
	for i := start; i+4 <= limit; i++ {
		if buf[i] != 'm' {
			continue
		}
		switch {
		case buf[i+1] == 'o' && buf[i+2] == 'o' && buf[i+3] == 'v':
			return Validation{Strategy: StrategyByteScan, Tag: bmff.TypeMoov, Offset: i}
		case buf[i+1] == 'd' && buf[i+2] == 'a' && buf[i+3] == 't':
			return Validation{Strategy: StrategyByteScan, Tag: bmff.TypeMdat, Offset: i}
		}
	}
	return Validation{}
}
