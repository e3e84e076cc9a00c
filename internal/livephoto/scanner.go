package livephoto

import (
	"context"

	"github.com/IceyWu/live-photo/internal/bmff"
)

// DefaultCheckInterval is how many window positions the backward scan
// compares between cancellation checks.
const DefaultCheckInterval = 4096

// FindLastOccurrence returns the offset of the last 4-byte window in buf equal
// to sig. The video trailer is appended after the photo, so the match nearest
// the end wins over look-alikes inside EXIF or XMP blobs.
func FindLastOccurrence(buf []byte, sig bmff.BoxType) (int, bool) {
	off, ok, _ := findLast(context.Background(), buf, sig, 0)
	return off, ok
}

// findLast is FindLastOccurrence with cooperative cancellation: every
// interval positions it polls ctx and aborts with ctx.Err() once it is done.
// An interval <= 0 disables polling.
func findLast(ctx context.Context, buf []byte, sig bmff.BoxType, interval int) (int, bool, error) {
	done := ctx.Done()
	if done == nil {
		interval = 0
	}

	countdown := interval
	for i := len(buf) - 4; i >= 0; i-- {
		if buf[i] == sig[0] && buf[i+1] == sig[1] && buf[i+2] == sig[2] && buf[i+3] == sig[3] {
			return i, true, nil
		}

		if interval > 0 {
			countdown--
			if countdown == 0 {
				countdown = interval
				select {
				case <-done:
					return 0, false, ctx.Err()
				default:
				}
			}
		}
	}
	return 0, false, nil
}
