// Package miniostore is a remote.Backend on S3-compatible object storage.
// Each document is one object named <owner>/<base64url(key)>.json holding
// the remote.Entry envelope.
package miniostore

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/starford/notetoself/internal/apperr"
	"github.com/starford/notetoself/internal/remote"
)

// Internal adapter interface to enable mocking without a real MinIO server.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
}

// Wrapper to adapt *minio.Client to minioAPI.
type minioClientWrapper struct{ c *minio.Client }

func (w minioClientWrapper) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return w.c.BucketExists(ctx, bucketName)
}
func (w minioClientWrapper) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return w.c.MakeBucket(ctx, bucketName, opts)
}
func (w minioClientWrapper) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return w.c.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}
func (w minioClientWrapper) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	obj, err := w.c.GetObject(ctx, bucketName, objectName, opts)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

var _ remote.Backend = (*Client)(nil)

// Client stores documents in a single bucket.
type Client struct {
	api    minioAPI
	bucket string

	mu sync.Mutex // serializes read-modify-write of revisions within this process
}

// NewClient creates a MinIO backend using a real *minio.Client instance.
func NewClient(ctx context.Context, client *minio.Client, bucket string) (*Client, error) {
	return NewClientWithAPI(ctx, minioClientWrapper{c: client}, bucket)
}

// NewClientWithAPI allows injecting a mockable API (used in tests).
func NewClientWithAPI(ctx context.Context, api minioAPI, bucket string) (*Client, error) {
	c := &Client{
		api:    api,
		bucket: bucket,
	}

	if err := c.ensureBucketExists(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return c, nil
}

// ensureBucketExists creates the bucket if it doesn't exist
func (c *Client) ensureBucketExists(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = c.api.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

func objectName(owner, key string) string {
	return owner + "/" + base64.RawURLEncoding.EncodeToString([]byte(key)) + ".json"
}

// Get downloads and decodes the document for owner/key.
func (c *Client) Get(ctx context.Context, owner, key string) (remote.Entry, error) {
	rc, err := c.api.GetObject(ctx, c.bucket, objectName(owner, key), minio.GetObjectOptions{})
	if err != nil {
		return remote.Entry{}, classify(key, err)
	}
	defer rc.Close()

	// GetObject is lazy: a missing object surfaces on the first read.
	raw, err := io.ReadAll(rc)
	if err != nil {
		return remote.Entry{}, classify(key, err)
	}
	var e remote.Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return remote.Entry{}, fmt.Errorf("miniostore: decode %q: %w", key, err)
	}
	return e, nil
}

// Put uploads the document with the next revision.
func (c *Client) Put(ctx context.Context, owner, key string, data []byte) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var rev uint64 = 1
	prev, err := c.Get(ctx, owner, key)
	switch {
	case err == nil:
		rev = prev.Revision + 1
	case !errors.Is(err, apperr.ErrNotFound):
		return 0, err
	}

	content, err := json.Marshal(remote.Entry{
		Data:      json.RawMessage(data),
		Revision:  rev,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("miniostore: encode %q: %w", key, err)
	}
	_, err = c.api.PutObject(ctx, c.bucket, objectName(owner, key), bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return 0, classify(key, err)
	}
	return rev, nil
}

func classify(key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey":
		return fmt.Errorf("miniostore: %q: %w", key, apperr.ErrNotFound)
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return fmt.Errorf("miniostore: %q: %v: %w", key, err, apperr.ErrUnauthorized)
	}
	return fmt.Errorf("miniostore: %q: %v: %w", key, err, apperr.ErrUnavailable)
}
