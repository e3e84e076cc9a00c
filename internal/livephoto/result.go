package livephoto

import (
	"bytes"
	"io"
)

// MIME types attached to the segments. The photo type is always JPEG;
// callers holding HEIC or other stills must correct it before rendering.
const (
	MIMEPhoto = "image/jpeg"
	MIMEVideo = "video/mp4"
)

// Segment is a read-only view over a contiguous range of a SourceAsset.
type Segment struct {
	data   []byte
	offset int
	MIME   string
}

func newSegment(data []byte, from, to int, mime string) Segment {
	// Capacity is clipped so an append on one segment cannot write into the
	// bytes of the next.
	return Segment{data: data[from:to:to], offset: from, MIME: mime}
}

// Bytes returns the segment's bytes. The slice aliases the source buffer and
// must not be modified.
func (s Segment) Bytes() []byte {
	return s.data
}

// Len returns the segment length in bytes.
func (s Segment) Len() int {
	return len(s.data)
}

// Offset returns where the segment starts in the source.
func (s Segment) Offset() int {
	return s.offset
}

// Reader returns a fresh reader over the segment.
func (s Segment) Reader() *bytes.Reader {
	return bytes.NewReader(s.data)
}

// WriteTo writes the segment to w.
func (s Segment) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(s.data)
	return int64(n), err
}

// WithMIME returns a copy of the segment carrying a different MIME type.
func (s Segment) WithMIME(mime string) Segment {
	s.MIME = mime
	return s
}

// ExtractionResult is a successful split: the photo covers [0, SplitPoint)
// and the video covers [SplitPoint, Size).
type ExtractionResult struct {
	SplitPoint int
	Size       int
	Photo      Segment
	Video      Segment
	Validation Validation
}

func newResult(buf []byte, split int, v Validation) *ExtractionResult {
	return &ExtractionResult{
		SplitPoint: split,
		Size:       len(buf),
		Photo:      newSegment(buf, 0, split, MIMEPhoto),
		Video:      newSegment(buf, split, len(buf), MIMEVideo),
		Validation: v,
	}
}

// Concat returns a new buffer holding the photo followed by the video. It is
// byte-identical to the source.
func (r *ExtractionResult) Concat() []byte {
	out := make([]byte, 0, r.Photo.Len()+r.Video.Len())
	out = append(out, r.Photo.Bytes()...)
	return append(out, r.Video.Bytes()...)
}
