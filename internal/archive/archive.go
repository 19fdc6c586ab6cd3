// Package archive keeps raw observation payloads in object storage, keyed
// by source ref, so merged records keep retrievable provenance.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bowerhall/fusemem/internal/logger"
)

type Client struct {
	mc     *minio.Client
	bucket string
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// New returns nil without error when no endpoint is configured; archival
// is optional.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, nil
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	return &Client{mc: mc, bucket: cfg.Bucket}, nil
}

// Init creates the bucket if it does not exist.
func (c *Client) Init(ctx context.Context) error {
	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", c.bucket, err)
	}

	if !exists {
		if err := c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", c.bucket, err)
		}
		logger.Info("bucket created", "bucket", c.bucket)
	}

	return nil
}

// Store uploads one observation payload under its source ref.
func (c *Client) Store(ctx context.Context, sourceRef string, payload []byte) error {
	_, err := c.mc.PutObject(ctx, c.bucket, sourceRef, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("archive %s: %w", sourceRef, err)
	}

	logger.Debug("observation archived", "source_ref", sourceRef, "size", len(payload))
	return nil
}

// Fetch retrieves an archived observation payload.
func (c *Client) Fetch(ctx context.Context, sourceRef string) ([]byte, error) {
	obj, err := c.mc.GetObject(ctx, c.bucket, sourceRef, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", sourceRef, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sourceRef, err)
	}

	return data, nil
}
