package bmff

import (
	"encoding/binary"
	"math"
)

const (
	headerSize         = 8
	extendedHeaderSize = 16
	maxBrands          = 64
)

// ReadHeader decodes the box header starting at off. A declared size of 0
// resolves to the end of buf; a declared size of 1 reads the 64-bit size that
// follows the type tag. The returned size is not checked against the end of
// buf; callers that need the whole box must check Header.End themselves.
func ReadHeader(buf []byte, off int) (Header, error) {
	if off < 0 || len(buf)-off < headerSize {
		return Header{}, &ParseError{Offset: int64(off), Field: "header", Err: ErrShortHeader}
	}

	h := Header{
		Offset:    int64(off),
		Size:      int64(binary.BigEndian.Uint32(buf[off : off+4])),
		HeaderLen: headerSize,
	}
	copy(h.Type[:], buf[off+4:off+8])

	switch h.Size {
	case 1:
		// Extended size (64-bit) follows the type tag
		if len(buf)-off < extendedHeaderSize {
			return h, &ParseError{Offset: h.Offset, Field: "largesize", Err: ErrShortHeader}
		}
		large := binary.BigEndian.Uint64(buf[off+8 : off+16])
		if large > uint64(math.MaxInt64/2) {
			return h, &ParseError{Offset: h.Offset, Field: "largesize", Err: ErrBoxOverrun}
		}
		h.Size = int64(large)
		h.HeaderLen = extendedHeaderSize
	case 0:
		// Box extends to end of buffer
		h.Size = int64(len(buf) - off)
	}

	if h.Size < int64(h.HeaderLen) {
		return h, &ParseError{Offset: h.Offset, Field: "size", Err: ErrBoxTooSmall}
	}
	return h, nil
}

// Walk visits consecutive sibling boxes starting at start. Boxes whose header
// begins at or after limit are not visited; limit is clamped to len(buf).
// The walk stops without error when fn returns false or when limit is
// reached. A header that fails to decode, or a box fn asked to step past
// that runs beyond the end of buf, stops the walk with a *ParseError.
func Walk(buf []byte, start, limit int, fn func(Header) bool) error {
	if limit > len(buf) {
		limit = len(buf)
	}

	pos := int64(start)
	for pos < int64(limit) {
		h, err := ReadHeader(buf, int(pos))
		if err != nil {
			return err
		}
		if !fn(h) {
			return nil
		}
		if h.End() > int64(len(buf)) {
			return &ParseError{Offset: h.Offset, Field: "size", Err: ErrBoxOverrun}
		}
		pos = h.End()
	}
	return nil
}

// ReadFtyp decodes the ftyp box whose header starts at off. A box truncated
// by the end of buf is decoded from the bytes that are present.
func ReadFtyp(buf []byte, off int) (Ftyp, error) {
	h, err := ReadHeader(buf, off)
	if err != nil {
		return Ftyp{}, err
	}
	if h.Type != TypeFtyp {
		return Ftyp{}, &ParseError{Offset: h.Offset, Field: "type", Err: ErrNotFtyp}
	}
	end := min(h.End(), int64(len(buf)))
	return ParseFtyp(buf[h.Offset+int64(h.HeaderLen) : end])
}

// ParseFtyp decodes an ftyp payload: major brand, minor version and the list
// of compatible brands.
func ParseFtyp(payload []byte) (Ftyp, error) {
	if len(payload) < 8 {
		return Ftyp{}, &ParseError{Field: "ftyp", Err: ErrShortHeader}
	}

	f := Ftyp{
		MajorBrand:   string(payload[:4]),
		MinorVersion: binary.BigEndian.Uint32(payload[4:8]),
	}
	for i := 8; i+4 <= len(payload) && len(f.CompatibleBrands) < maxBrands; i += 4 {
		f.CompatibleBrands = append(f.CompatibleBrands, string(payload[i:i+4]))
	}
	return f, nil
}
