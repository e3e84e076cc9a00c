package livephoto

import (
	"io"
	"os"
)

// SourceAsset is the complete contents of one candidate Live Photo file. It
// owns its buffer; segments produced from it are views into that buffer.
type SourceAsset struct {
	data []byte
}

// NewSourceAsset takes ownership of data. The caller must not modify data
// after the call.
func NewSourceAsset(data []byte) *SourceAsset {
	return &SourceAsset{data: data}
}

// ReadAsset reads r to EOF. A read failure is returned as a KindIO *Failure
// wrapping the reader's error unchanged.
func ReadAsset(r io.Reader) (*SourceAsset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &Failure{Kind: KindIO, Offset: -1, Err: err}
	}
	return NewSourceAsset(data), nil
}

// ReadFile loads the file at path as a SourceAsset.
func ReadFile(path string) (*SourceAsset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Failure{Kind: KindIO, Offset: -1, Err: err}
	}
	return NewSourceAsset(data), nil
}

// Len returns the size of the asset in bytes.
func (a *SourceAsset) Len() int {
	return len(a.data)
}

// Bytes returns the asset's buffer. It must be treated as read-only.
func (a *SourceAsset) Bytes() []byte {
	return a.data
}
