package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/IceyWu/live-photo/internal/livephoto"
)

// Local writes segments as files under a directory.
type Local struct {
	dir string
}

// NewLocal creates dir if needed.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Local{dir: dir}, nil
}

// Put writes seg to dir/name through a temporary file, so readers never
// see a partial segment.
func (l *Local) Put(ctx context.Context, name string, seg livephoto.Segment) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name != filepath.Base(name) {
		return "", fmt.Errorf("invalid segment name %q", name)
	}

	dst := filepath.Join(l.dir, name)
	tmp, err := os.CreateTemp(l.dir, "."+name+".*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := seg.WriteTo(tmp); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", err
	}
	return dst, nil
}
