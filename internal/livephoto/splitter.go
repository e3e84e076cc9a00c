package livephoto

import (
	"context"

	"github.com/IceyWu/live-photo/internal/bmff"
)

// Splitter locates and validates the photo/video boundary. It holds only its
// tuning and is safe for concurrent use.
type Splitter struct {
	lookahead     int
	checkInterval int
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithLookahead sets the validation window in bytes (default 8192).
func WithLookahead(n int) Option {
	return func(s *Splitter) {
		if n > 0 {
			s.lookahead = n
		}
	}
}

// WithCheckInterval sets how many scan positions pass between cancellation
// checks (default 4096).
func WithCheckInterval(n int) Option {
	return func(s *Splitter) {
		if n > 0 {
			s.checkInterval = n
		}
	}
}

// NewSplitter creates a Splitter with the given options applied over the
// defaults.
func NewSplitter(opts ...Option) *Splitter {
	s := &Splitter{
		lookahead:     DefaultLookahead,
		checkInterval: DefaultCheckInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultSplitter = NewSplitter()

// Split splits asset with the default Splitter.
func Split(asset *SourceAsset) (*ExtractionResult, error) {
	return defaultSplitter.Split(context.Background(), asset)
}

// Lookahead returns the configured validation window.
func (s *Splitter) Lookahead() int {
	return s.lookahead
}

// Split finds the last ftyp tag in asset, backs up over its 4-byte size field
// and confirms a media box follows. On success the returned segments view the
// asset's buffer. Failures are returned as *Failure; a nil asset panics.
func (s *Splitter) Split(ctx context.Context, asset *SourceAsset) (*ExtractionResult, error) {
	if asset == nil {
		panic("livephoto: Split called with nil asset")
	}
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}

	buf := asset.data
	ftypOff, ok, err := findLast(ctx, buf, bmff.TypeFtyp, s.checkInterval)
	if err != nil {
		return nil, cancelled(err)
	}
	if !ok {
		return nil, &Failure{Kind: KindNoContainerFound, Offset: -1}
	}

	return s.SplitAt(asset, max(0, ftypOff-4))
}

// SplitAt splits asset at a previously computed split point after
// re-validating it. It is used to reuse cached split points without a full
// rescan.
func (s *Splitter) SplitAt(asset *SourceAsset, split int) (*ExtractionResult, error) {
	if asset == nil {
		panic("livephoto: SplitAt called with nil asset")
	}

	v := Probe(asset.data, split, s.lookahead)
	if !v.OK() {
		return nil, &Failure{Kind: KindInvalidContainer, Offset: split}
	}
	return newResult(asset.data, split, v), nil
}
