package bmff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
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

// makeLargeBox creates a box using the 64-bit extended size form.
func makeLargeBox(boxType string, data []byte) []byte {
	size := uint64(16 + len(data))
	buf := make([]byte, size)
	binary.BigEndian.PutUint32(buf[:4], 1)
	copy(buf[4:8], boxType)
	binary.BigEndian.PutUint64(buf[8:16], size)
	copy(buf[16:], data)
	return buf
}

func ftypPayload(major string, brands ...string) []byte {
	var b bytes.Buffer
	b.WriteString(major)
	b.Write([]byte{0, 0, 0, 1})
	for _, br := range brands {
		b.WriteString(br)
	}
	return b.Bytes()
}

func TestReadHeader(t *testing.T) {
	t.Parallel()
	buf := makeBox("ftyp", make([]byte, 12))

	h, err := ReadHeader(buf, 0)
	if err != nil {
		t.Fatalf("ReadHeader() error = %v", err)
	}
	if h.Type != TypeFtyp {
		t.Errorf("Type = %s, want ftyp", h.Type)
	}
	if h.Size != 20 {
		t.Errorf("Size = %d, want 20", h.Size)
	}
	if h.HeaderLen != 8 {
		t.Errorf("HeaderLen = %d, want 8", h.HeaderLen)
	}
	if h.End() != 20 {
		t.Errorf("End() = %d, want 20", h.End())
	}
}

func TestReadHeaderExtendedSize(t *testing.T) {
	t.Parallel()
	buf := makeLargeBox("mdat", make([]byte, 100))

	h, err := ReadHeader(buf, 0)
	if err != nil {
		t.Fatalf("ReadHeader() error = %v", err)
	}
	if h.Size != 116 {
		t.Errorf("Size = %d, want 116", h.Size)
	}
	if h.HeaderLen != 16 {
		t.Errorf("HeaderLen = %d, want 16", h.HeaderLen)
	}
}

func TestReadHeaderSizeZeroExtendsToEnd(t *testing.T) {
	t.Parallel()
	buf := append(make([]byte, 10), makeBox("mdat", make([]byte, 40))...)
	binary.BigEndian.PutUint32(buf[10:14], 0)

	h, err := ReadHeader(buf, 10)
	if err != nil {
		t.Fatalf("ReadHeader() error = %v", err)
	}
	if h.Size != 48 {
		t.Errorf("Size = %d, want 48", h.Size)
	}
}

func TestReadHeaderErrors(t *testing.T) {
	t.Parallel()

	tooSmall := makeBox("free", nil)
	binary.BigEndian.PutUint32(tooSmall[:4], 5)

	truncatedLarge := makeLargeBox("mdat", nil)[:12]

	tests := []struct {
		name  string
		buf   []byte
		off   int
		want  error
		field string
	}{
		{"empty", nil, 0, ErrShortHeader, "header"},
		{"short", []byte{0, 0, 0, 8, 'f'}, 0, ErrShortHeader, "header"},
		{"negative offset", tooSmall, -1, ErrShortHeader, "header"},
		{"size below header", tooSmall, 0, ErrBoxTooSmall, "size"},
		{"truncated largesize", truncatedLarge, 0, ErrShortHeader, "largesize"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ReadHeader(tc.buf, tc.off)
			if !errors.Is(err, tc.want) {
				t.Fatalf("ReadHeader() error = %v, want %v", err, tc.want)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error %T is not *ParseError", err)
			}
			if pe.Field != tc.field {
				t.Errorf("Field = %q, want %q", pe.Field, tc.field)
			}
		})
	}
}

func TestWalkVisitsSiblings(t *testing.T) {
	t.Parallel()
	var data bytes.Buffer
	data.Write(makeBox("ftyp", ftypPayload("isom", "mp42")))
	data.Write(makeBox("free", make([]byte, 100)))
	data.Write(makeLargeBox("mdat", make([]byte, 64)))
	data.Write(makeBox("moov", make([]byte, 92)))

	var types []string
	err := Walk(data.Bytes(), 0, data.Len(), func(h Header) bool {
		types = append(types, h.Type.String())
		return true
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	want := []string{"ftyp", "free", "mdat", "moov"}
	if len(types) != len(want) {
		t.Fatalf("visited %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("box %d = %s, want %s", i, types[i], want[i])
		}
	}
}

func TestWalkStopsAtLimit(t *testing.T) {
	t.Parallel()
	var data bytes.Buffer
	data.Write(makeBox("ftyp", make([]byte, 12))) // 20 bytes
	data.Write(makeBox("free", make([]byte, 92))) // 100 bytes
	data.Write(makeBox("moov", make([]byte, 8)))

	var visited int
	err := Walk(data.Bytes(), 0, 120, func(h Header) bool {
		visited++
		return true
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if visited != 2 {
		t.Errorf("visited %d boxes, want 2 (moov starts at the limit)", visited)
	}
}

func TestWalkEarlyStop(t *testing.T) {
	t.Parallel()
	var data bytes.Buffer
	data.Write(makeBox("ftyp", make([]byte, 12)))
	data.Write(makeBox("moov", make([]byte, 8)))
	data.Write(makeBox("mdat", make([]byte, 8)))

	var last BoxType
	err := Walk(data.Bytes(), 0, data.Len(), func(h Header) bool {
		last = h.Type
		return !IsMediaBox(h.Type)
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if last != TypeMoov {
		t.Errorf("stopped at %s, want moov", last)
	}
}

func TestWalkOverrun(t *testing.T) {
	t.Parallel()
	buf := makeBox("ftyp", make([]byte, 12))
	binary.BigEndian.PutUint32(buf[:4], 4096)

	err := Walk(buf, 0, len(buf), func(Header) bool { return true })
	if !errors.Is(err, ErrBoxOverrun) {
		t.Fatalf("Walk() error = %v, want ErrBoxOverrun", err)
	}
}

func TestReadFtyp(t *testing.T) {
	t.Parallel()
	buf := makeBox("ftyp", ftypPayload("qt  ", "qt  ", "isom"))

	f, err := ReadFtyp(buf, 0)
	if err != nil {
		t.Fatalf("ReadFtyp() error = %v", err)
	}
	if f.MajorBrand != "qt  " {
		t.Errorf("MajorBrand = %q, want %q", f.MajorBrand, "qt  ")
	}
	if f.MinorVersion != 1 {
		t.Errorf("MinorVersion = %d, want 1", f.MinorVersion)
	}
	if len(f.CompatibleBrands) != 2 || f.CompatibleBrands[1] != "isom" {
		t.Errorf("CompatibleBrands = %v", f.CompatibleBrands)
	}
}

func TestReadFtypWrongType(t *testing.T) {
	t.Parallel()
	buf := makeBox("moov", make([]byte, 12))

	_, err := ReadFtyp(buf, 0)
	if !errors.Is(err, ErrNotFtyp) {
		t.Errorf("ReadFtyp() error = %v, want ErrNotFtyp", err)
	}
}

func TestIsTopLevel(t *testing.T) {
	t.Parallel()
	for _, bt := range []BoxType{TypeFtyp, TypeMoov, TypeMdat, TypeFree, TypeSkip, TypeWide, TypePnot, TypePict} {
		if !IsTopLevel(bt) {
			t.Errorf("IsTopLevel(%s) = false, want true", bt)
		}
	}
	for _, s := range []string{"xxxx", "test", "html", "trak"} {
		var bt BoxType
		copy(bt[:], s)
		if IsTopLevel(bt) {
			t.Errorf("IsTopLevel(%s) = true, want false", bt)
		}
	}
}
