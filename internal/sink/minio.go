package sink

import (
	"context"
	"fmt"
	"log/slog"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/IceyWu/live-photo/internal/livephoto"
)

// MinIOConfig addresses an S3-compatible bucket.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinIO uploads segments as objects.
type MinIO struct {
	client *miniogo.Client
	bucket string
	log    *slog.Logger
}

// NewMinIO connects to the endpoint and creates the bucket if it is missing.
func NewMinIO(ctx context.Context, cfg MinIOConfig) (*MinIO, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	m := &MinIO{
		client: client,
		bucket: cfg.Bucket,
		log:    slog.With("component", "minio-sink"),
	}
	if err := m.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MinIO) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.bucket, err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, miniogo.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", m.bucket, err)
		}
		m.log.Info("created bucket", "bucket", m.bucket)
	}
	return nil
}

// Put uploads seg as bucket/name with the segment's content type.
func (m *MinIO) Put(ctx context.Context, name string, seg livephoto.Segment) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, name, seg.Reader(), int64(seg.Len()), miniogo.PutObjectOptions{
		ContentType: seg.MIME,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return fmt.Sprintf("s3://%s/%s", m.bucket, name), nil
}
