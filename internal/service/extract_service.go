package service

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/IceyWu/live-photo/internal/cache"
	"github.com/IceyWu/live-photo/internal/handle"
	"github.com/IceyWu/live-photo/internal/history"
	"github.com/IceyWu/live-photo/internal/livephoto"
	"github.com/IceyWu/live-photo/internal/metrics"
	"github.com/IceyWu/live-photo/internal/sink"
)

// ErrNoSink is returned by Export when no sink is configured.
var ErrNoSink = errors.New("no output sink configured")

// Options wires the service. Everything except Splitter is optional.
type Options struct {
	Splitter *livephoto.Splitter
	Pool     *livephoto.Pool
	Cache    *cache.Store
	History  *history.Repository
	Handles  *handle.Registry
	Metrics  *metrics.Metrics
	Sink     sink.Sink
}

// ExtractService orchestrates an extraction: cache lookup, split on the
// worker pool, MIME correction, history, metrics.
type ExtractService struct {
	splitter *livephoto.Splitter
	pool     *livephoto.Pool
	cache    *cache.Store
	history  *history.Repository
	handles  *handle.Registry
	metrics  *metrics.Metrics
	sink     sink.Sink
	log      *slog.Logger
}

// Extraction is a successful split plus what the service learned about it.
type Extraction struct {
	Name     string
	Digest   string
	Result   *livephoto.ExtractionResult
	Cached   bool
	Duration time.Duration

	// Set by Publish.
	Group string
	Photo *handle.Handle
	Video *handle.Handle
}

// NewExtractService creates a new extract service
func NewExtractService(opts Options) *ExtractService {
	s := opts.Splitter
	if s == nil {
		s = livephoto.NewSplitter()
	}
	return &ExtractService{
		splitter: s,
		pool:     opts.Pool,
		cache:    opts.Cache,
		history:  opts.History,
		handles:  opts.Handles,
		metrics:  opts.Metrics,
		sink:     opts.Sink,
		log:      slog.With("component", "extract-service"),
	}
}

// Handles returns the handle registry, nil when none is configured.
func (s *ExtractService) Handles() *handle.Registry {
	return s.handles
}

// History returns the history repository, nil when none is configured.
func (s *ExtractService) History() *history.Repository {
	return s.history
}

// Splitter returns the splitter the service validates with.
func (s *ExtractService) Splitter() *livephoto.Splitter {
	return s.splitter
}

// ExtractFile reads path and extracts it. Read failures are recorded like
// any other failure.
func (s *ExtractService) ExtractFile(ctx context.Context, path string) (*Extraction, error) {
	asset, err := livephoto.ReadFile(path)
	if err != nil {
		s.observe(ctx, path, nil, "", nil, false, 0, err)
		return nil, err
	}
	return s.Extract(ctx, path, asset)
}

// Extract splits asset. name is only used for history and output naming.
func (s *ExtractService) Extract(ctx context.Context, name string, asset *livephoto.SourceAsset) (*Extraction, error) {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.InFlight.Inc()
		defer s.metrics.InFlight.Dec()
		s.metrics.BytesScanned.Add(float64(asset.Len()))
	}

	var (
		digest cache.Digest
		hexSum string
	)
	if s.cache != nil || s.history != nil {
		digest = cache.DigestOf(asset.Bytes())
		hexSum = hex.EncodeToString(digest[:])
	}

	res, cached := s.fromCache(digest, asset)

	var err error
	if res == nil {
		res, err = s.split(ctx, asset)
	}

	elapsed := time.Since(start)
	s.observe(ctx, name, asset, hexSum, res, cached, elapsed, err)
	if err != nil {
		return nil, err
	}

	res.Photo = res.Photo.WithMIME(photoMIME(res.Photo))

	if s.cache != nil && !cached {
		e := cache.Entry{
			SplitPoint: res.SplitPoint,
			Size:       res.Size,
			Strategy:   res.Validation.Strategy.String(),
			StoredAt:   time.Now().UTC(),
		}
		if err := s.cache.Put(digest, e); err != nil {
			s.log.Warn("failed to cache split point", "name", name, "error", err)
		}
	}

	return &Extraction{
		Name:     name,
		Digest:   hexSum,
		Result:   res,
		Cached:   cached,
		Duration: elapsed,
	}, nil
}

func (s *ExtractService) split(ctx context.Context, asset *livephoto.SourceAsset) (*livephoto.ExtractionResult, error) {
	if s.pool != nil {
		return s.pool.Split(ctx, asset)
	}
	return s.splitter.Split(ctx, asset)
}

// fromCache reuses a remembered split point. The point is re-validated
// against the asset, so a stale or corrupt entry costs one probe and falls
// back to a full scan.
func (s *ExtractService) fromCache(d cache.Digest, asset *livephoto.SourceAsset) (*livephoto.ExtractionResult, bool) {
	if s.cache == nil {
		return nil, false
	}

	e, ok, err := s.cache.Get(d)
	switch {
	case err != nil:
		s.log.Warn("cache lookup failed", "error", err)
		s.cacheLookup("error")
		return nil, false
	case !ok:
		s.cacheLookup("miss")
		return nil, false
	case e.Size != asset.Len():
		s.cacheLookup("stale")
		return nil, false
	}

	res, err := s.splitter.SplitAt(asset, e.SplitPoint)
	if err != nil {
		s.cacheLookup("stale")
		if err := s.cache.Delete(d); err != nil {
			s.log.Warn("failed to drop stale cache entry", "error", err)
		}
		return nil, false
	}
	s.cacheLookup("hit")
	return res, true
}

func (s *ExtractService) cacheLookup(result string) {
	if s.metrics != nil {
		s.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}

// observe feeds metrics and history with the outcome of one extraction.
func (s *ExtractService) observe(ctx context.Context, name string, asset *livephoto.SourceAsset, digest string,
	res *livephoto.ExtractionResult, cached bool, elapsed time.Duration, err error) {

	outcome := history.OutcomeOK
	if err != nil {
		outcome = livephoto.KindOf(err).String()
	}

	if s.metrics != nil {
		s.metrics.Extractions.WithLabelValues(outcome).Inc()
		s.metrics.ExtractionDuration.Observe(elapsed.Seconds())
		if res != nil {
			s.metrics.Strategies.WithLabelValues(res.Validation.Strategy.String()).Inc()
		}
	}

	if err != nil {
		s.log.Info("extraction failed", "name", name, "kind", outcome, "error", err)
	} else {
		s.log.Debug("extracted",
			"name", name,
			"split_point", res.SplitPoint,
			"size", res.Size,
			"strategy", res.Validation.Strategy.String(),
			"cached", cached,
			"duration", elapsed,
		)
	}

	if s.history == nil {
		return
	}

	rec := &history.Record{
		SourceName: name,
		Digest:     digest,
		SplitPoint: -1,
		Outcome:    outcome,
		Strategy:   livephoto.StrategyNone.String(),
		Cached:     cached,
		Duration:   elapsed,
	}
	if asset != nil {
		rec.SourceSize = int64(asset.Len())
	}
	if res != nil {
		rec.SplitPoint = int64(res.SplitPoint)
		rec.Strategy = res.Validation.Strategy.String()
		rec.PhotoMIME = photoMIME(res.Photo)
	}
	if err != nil {
		rec.Error = err.Error()
	}

	// A cancelled request still gets its history row.
	if err := s.history.Insert(context.WithoutCancel(ctx), rec); err != nil {
		s.log.Error("failed to record extraction", "name", name, "error", err)
	}
}

// Publish registers both segments of ext as handles.
func (s *ExtractService) Publish(ext *Extraction) {
	if s.handles == nil {
		return
	}
	photoName, videoName := sink.Names(ext.Name, ext.Result)
	group, hs := s.handles.Register([]string{photoName, videoName}, ext.Result.Photo, ext.Result.Video)
	ext.Group = group
	ext.Photo, ext.Video = hs[0], hs[1]
}

// Export writes both segments of ext through the configured sink.
func (s *ExtractService) Export(ctx context.Context, ext *Extraction) ([]string, error) {
	if s.sink == nil {
		return nil, ErrNoSink
	}
	return sink.WriteResult(ctx, s.sink, ext.Name, ext.Result)
}

// photoMIME sniffs the still image. The splitter labels every photo JPEG;
// HEIC stills are common on newer devices.
func photoMIME(seg livephoto.Segment) string {
	if seg.Len() == 0 {
		return seg.MIME
	}
	if m := mimetype.Detect(seg.Bytes()).String(); strings.HasPrefix(m, "image/") {
		return m
	}
	return seg.MIME
}
