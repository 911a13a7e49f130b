package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

const minMultipartSize = 12 << 20

// AssetHost stores uploaded images and serves them from a public URL
type AssetHost interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
}

// S3AssetHost works with anything speaking the S3 API, AWS and R2 included
type S3AssetHost struct {
	C         *s3.Client
	Bucket    *string
	PublicURL string
	Timeout   time.Duration
}

func NewS3AssetHost(c *s3.Client, bucket *string, publicURL string, timeout time.Duration) (*S3AssetHost, error) {
	if c == nil || bucket == nil {
		return nil, errors.New("no s3 client provided")
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &S3AssetHost{
		C:         c,
		Bucket:    bucket,
		PublicURL: strings.TrimRight(publicURL, "/"),
		Timeout:   timeout,
	}, nil
}

func (h *S3AssetHost) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.Timeout)
	defer cancel()

	input := &s3.PutObjectInput{
		Bucket:        h.Bucket,
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	}

	var err error
	if size > minMultipartSize {
		uploader := manager.NewUploader(h.C, func(u *manager.Uploader) {
			u.Concurrency = 5
			u.PartSize = 6 << 20
		})
		_, err = uploader.Upload(ctx, input)
	} else {
		_, err = h.C.PutObject(ctx, input)
	}
	if err != nil {
		return "", fmt.Errorf("failed to upload asset to s3, %w", err)
	}

	zap.L().Debug("Uploaded asset", zap.String("key", key), zap.Int64("size", size))
	return h.PublicURL + "/" + key, nil
}

func (h *S3AssetHost) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, h.Timeout)
	defer cancel()

	_, err := h.C.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: h.Bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete asset, %w", err)
	}

	return nil
}
