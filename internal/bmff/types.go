// Package bmff decodes the top-level box structure of ISO Base Media File
// Format streams (MP4, MOV, HEIF). It reads box headers and walks sibling
// boxes by their declared sizes; it never descends into payloads beyond the
// ftyp brand list.
package bmff

// BoxType is a 4-byte ASCII box type tag.
type BoxType [4]byte

func (t BoxType) String() string {
	return string(t[:])
}

// Known box types.
var (
	TypeFtyp = BoxType{'f', 't', 'y', 'p'}
	TypeStyp = BoxType{'s', 't', 'y', 'p'}
	TypeMoov = BoxType{'m', 'o', 'o', 'v'}
	TypeMdat = BoxType{'m', 'd', 'a', 't'}
	TypeMoof = BoxType{'m', 'o', 'o', 'f'}
	TypeSidx = BoxType{'s', 'i', 'd', 'x'}
	TypeMeta = BoxType{'m', 'e', 't', 'a'}
	TypeUuid = BoxType{'u', 'u', 'i', 'd'}
	TypeFree = BoxType{'f', 'r', 'e', 'e'}
	TypeSkip = BoxType{'s', 'k', 'i', 'p'}
	TypeWide = BoxType{'w', 'i', 'd', 'e'}
	TypePnot = BoxType{'p', 'n', 'o', 't'}
	TypePict = BoxType{'p', 'i', 'c', 't'}
)

// IsTopLevel reports whether t is a box type commonly seen at the top level
// of an MP4/MOV file.
func IsTopLevel(t BoxType) bool {
	switch t {
	case TypeFtyp, TypeStyp, TypeMoov, TypeMdat, TypeMoof, TypeSidx,
		TypeMeta, TypeUuid, TypeFree, TypeSkip, TypeWide, TypePnot, TypePict:
		return true
	default:
		return false
	}
}

// IsMediaBox reports whether t carries movie metadata or media data. Either
// one following an ftyp box is taken as evidence of a genuine media stream.
func IsMediaBox(t BoxType) bool {
	return t == TypeMoov || t == TypeMdat
}

// Header is a decoded box header.
type Header struct {
	Offset    int64   // position of the size field
	Size      int64   // total box size including the header
	Type      BoxType
	HeaderLen int // 8, or 16 with a 64-bit extended size
}

// End returns the offset one past the last byte of the box.
func (h Header) End() int64 {
	return h.Offset + h.Size
}

// Ftyp is the decoded payload of a file type box.
type Ftyp struct {
	MajorBrand       string
	MinorVersion     uint32
	CompatibleBrands []string
}
