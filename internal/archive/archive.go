// Package archive uploads generated exports to S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

var ErrDisabled = errors.New("export archival is not configured")

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether enough is configured to reach a bucket.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != "" && strings.TrimSpace(c.Bucket) != ""
}

// Object describes an uploaded export.
type Object struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Size   int64  `json:"size"`
	ETag   string `json:"etag,omitempty"`
}

// Store is an S3 bucket that receives export files.
type Store struct {
	client *minio.Client
	bucket string
	logger zerolog.Logger
	now    func() time.Time
}

// New connects to the bucket and creates it when missing. It returns
// ErrDisabled when cfg is not enabled.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (*Store, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info().Str("bucket", cfg.Bucket).Msg("created export bucket")
	}

	return &Store{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.With().Str("component", "archive").Logger(),
		now:    time.Now,
	}, nil
}

// Upload stores data under ObjectKey(matrixID, filename, now).
func (s *Store) Upload(ctx context.Context, matrixID, filename, contentType string, data []byte) (Object, error) {
	key := ObjectKey(matrixID, filename, s.now())
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"matrix-id": matrixID,
		},
	})
	if err != nil {
		return Object{}, fmt.Errorf("upload %s: %w", key, err)
	}
	s.logger.Info().Str("key", key).Int64("size", info.Size).Msg("archived export")
	return Object{Bucket: s.bucket, Key: key, Size: info.Size, ETag: info.ETag}, nil
}

// ObjectKey is exports/<matrixID>/<UTC timestamp>-<filename>. Path separators
// in either part are replaced so the key always has three segments.
func ObjectKey(matrixID, filename string, at time.Time) string {
	clean := func(s string) string {
		s = strings.NewReplacer("/", "-", "\\", "-").Replace(strings.TrimSpace(s))
		if s == "" {
			return "unnamed"
		}
		return s
	}
	stamp := at.UTC().Format("20060102T150405Z")
	return path.Join("exports", clean(matrixID), stamp+"-"+clean(filename))
}
