package s3

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/flavien-hugs/unsta-sfs/internal/config"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MaxBulkDelete is the object-store protocol's bulk-delete limit per request.
const MaxBulkDelete = 1000

// ObjectInfo carries the few object attributes the service cares about.
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
	ETag        string
}

// ObjectStore is the S3-compatible capability consumed by the bucket and
// media lifecycle code. Implementations return backend errors verbatim; the
// callers translate them into the service error taxonomy.
type ObjectStore interface {
	BucketExists(ctx context.Context, name string) (bool, error)
	CreateBucket(ctx context.Context, name, region string) error
	SetBucketPolicy(ctx context.Context, name, policy string) error
	DeleteBucket(ctx context.Context, name string) error

	Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string, tags map[string]string) error
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error)
	Stat(ctx context.Context, bucket, key string) (ObjectInfo, error)
	// Delete removes one object. confirmed is true only when the store
	// acknowledged the removal with its no-content success signal.
	Delete(ctx context.Context, bucket, key string) (confirmed bool, err error)

	// ForEachObject walks the paginated object listing of a bucket in
	// listing order, stopping at the first callback error.
	ForEachObject(ctx context.Context, bucket string, fn func(ObjectInfo) error) error
	// BulkDelete removes up to MaxBulkDelete keys in a single request.
	BulkDelete(ctx context.Context, bucket string, keys []string) error
}

type Client struct{ mc *minio.Client }

var _ ObjectStore = (*Client)(nil)

// New builds the process-wide object-store client from configuration.
// Construction failure is a startup error for the caller to handle.
func New(cfg *config.Config) (*Client, error) {
	endpoint, secure := normalizeEndpoint(cfg.StorageEndpoint, cfg.StorageUseSSL)
	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.StorageAccessKey, cfg.StorageSecretKey, ""),
		Secure: secure,
		Region: cfg.StorageRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}
	return &Client{mc: mc}, nil
}

// normalizeEndpoint strips a scheme prefix if present; the scheme wins over
// the useSSL flag.
func normalizeEndpoint(endpoint string, useSSL bool) (host string, secure bool) {
	secure = useSSL
	if endpoint == "" {
		return "", secure
	}
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		if u, err := url.Parse(endpoint); err == nil {
			secure = u.Scheme == "https"
			return u.Host, secure
		}
	}
	return endpoint, secure
}

func (c *Client) BucketExists(ctx context.Context, name string) (bool, error) {
	return c.mc.BucketExists(ctx, name)
}

func (c *Client) CreateBucket(ctx context.Context, name, region string) error {
	return c.mc.MakeBucket(ctx, name, minio.MakeBucketOptions{Region: region})
}

func (c *Client) SetBucketPolicy(ctx context.Context, name, policy string) error {
	return c.mc.SetBucketPolicy(ctx, name, policy)
}

func (c *Client) DeleteBucket(ctx context.Context, name string) error {
	return c.mc.RemoveBucket(ctx, name)
}

func (c *Client) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string, tags map[string]string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if len(tags) > 0 {
		opts.UserTags = tags
	}
	_, err := c.mc.PutObject(ctx, bucket, key, r, size, opts)
	return err
}

func (c *Client) Get(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	obj, err := c.mc.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	// GetObject is lazy; Stat forces the request and surfaces missing keys.
	oi, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, ObjectInfo{}, err
	}
	return obj, fromMinioInfo(oi), nil
}

func (c *Client) Stat(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	oi, err := c.mc.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, err
	}
	return fromMinioInfo(oi), nil
}

func (c *Client) Delete(ctx context.Context, bucket, key string) (bool, error) {
	if err := c.mc.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return false, err
	}
	// minio-go only returns nil after the store's 204 acknowledgement.
	return true, nil
}

func (c *Client) ForEachObject(ctx context.Context, bucket string, fn func(ObjectInfo) error) error {
	for obj := range c.mc.ListObjects(ctx, bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return obj.Err
		}
		if err := fn(fromMinioInfo(obj)); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (c *Client) BulkDelete(ctx context.Context, bucket string, keys []string) error {
	if len(keys) > MaxBulkDelete {
		return fmt.Errorf("s3: bulk delete of %d keys exceeds the %d-key limit", len(keys), MaxBulkDelete)
	}
	objectsCh := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		objectsCh <- minio.ObjectInfo{Key: k}
	}
	close(objectsCh)
	for res := range c.mc.RemoveObjects(ctx, bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if res.Err != nil {
			return fmt.Errorf("s3: bulk delete %q: %w", res.ObjectName, res.Err)
		}
	}
	return nil
}

func fromMinioInfo(oi minio.ObjectInfo) ObjectInfo {
	return ObjectInfo{Key: oi.Key, Size: oi.Size, ContentType: oi.ContentType, ETag: oi.ETag}
}

// PublicReadPolicy returns the fixed bucket policy granting anonymous
// GetObject on every object in the bucket. Buckets created with this policy
// are readable by anyone who knows the key.
func PublicReadPolicy(bucket string) string {
	policy := map[string]any{
		"Version": "2012-10-17",
		"Statement": []map[string]any{
			{
				"Sid":       "AllowAllObjects",
				"Effect":    "Allow",
				"Principal": "*",
				"Action":    "s3:GetObject",
				"Resource":  fmt.Sprintf("arn:aws:s3:::%s/*", bucket),
			},
		},
	}
	b, _ := json.Marshal(policy)
	return string(b)
}
