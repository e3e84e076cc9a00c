// Package sink writes extracted segments somewhere durable.
package sink

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/IceyWu/live-photo/internal/config"
	"github.com/IceyWu/live-photo/internal/livephoto"
)

// Sink stores one segment under name and returns where it went.
type Sink interface {
	Put(ctx context.Context, name string, seg livephoto.Segment) (string, error)
}

// New builds the sink selected by cfg.Kind.
func New(ctx context.Context, cfg config.SinkConfig) (Sink, error) {
	switch cfg.Kind {
	case "local":
		return NewLocal(cfg.Dir)
	case "minio":
		return NewMinIO(ctx, MinIOConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown sink kind %q", cfg.Kind)
	}
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/heic": ".heic",
	"image/heif": ".heif",
	"image/png":  ".png",
	"image/webp": ".webp",
	"video/mp4":  ".mp4",
	// Live Photo trailers are QuickTime files with an MP4-compatible layout
	"video/quicktime": ".mov",
}

// Extension returns the file extension for a MIME type, ".bin" if unknown.
func Extension(mime string) string {
	if ext, ok := extensions[mime]; ok {
		return ext
	}
	return ".bin"
}

// Names returns the output names for the photo and video of source,
// "<base>.photo.<ext>" and "<base>.video.<ext>".
func Names(source string, res *livephoto.ExtractionResult) (photo, video string) {
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "livephoto"
	}
	return base + ".photo" + Extension(res.Photo.MIME), base + ".video" + Extension(res.Video.MIME)
}

// WriteResult stores both segments of res and returns their locations.
func WriteResult(ctx context.Context, s Sink, source string, res *livephoto.ExtractionResult) ([]string, error) {
	photoName, videoName := Names(source, res)

	photoLoc, err := s.Put(ctx, photoName, res.Photo)
	if err != nil {
		return nil, fmt.Errorf("write photo: %w", err)
	}
	videoLoc, err := s.Put(ctx, videoName, res.Video)
	if err != nil {
		return nil, fmt.Errorf("write video: %w", err)
	}
	return []string{photoLoc, videoLoc}, nil
}
