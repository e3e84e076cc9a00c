package livephoto

import (
	"bytes"
	"encoding/binary"
)

// makeBox creates a box with the given type and payload.
func makeBox(boxType string, data []byte) []byte {
	size := uint32(8 + len(data))
	buf := make([]byte, size)
	binary.BigEndian.PutUint32(buf[:4], size)
	copy(buf[4:8], boxType)
	copy(buf[8:], data)
	return buf
}

// makePhoto returns n bytes shaped like a JPEG: SOI marker, filler, EOI
// marker. The filler never contains a box tag.
func makePhoto(n int) []byte {
	p := bytes.Repeat([]byte{0xA5}, n)
	if n >= 4 {
		p[0], p[1] = 0xFF, 0xD8
		p[n-2], p[n-1] = 0xFF, 0xD9
	}
	return p
}

// makeTrailer returns a well-formed MP4 stream: ftyp, free, moov, mdat.
func makeTrailer() []byte {
	var b bytes.Buffer
	b.Write(makeBox("ftyp", []byte("qt  \x00\x00\x00\x00qt  ")))
	b.Write(makeBox("free", make([]byte, 24)))
	b.Write(makeBox("moov", make([]byte, 200)))
	b.Write(makeBox("mdat", make([]byte, 4000)))
	return b.Bytes()
}

func makeLivePhoto(photoLen int) []byte {
	return append(makePhoto(photoLen), makeTrailer()...)
}
