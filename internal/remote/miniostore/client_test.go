package miniostore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	minioLib "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notetoself/internal/apperr"
)

// fakeMinio implements minioAPI in memory for testing without network.
type fakeMinio struct {
	mu sync.Mutex

	bucketExists    bool
	bucketExistsErr error
	makeBucketErr   error
	putErr          error
	getErr          error

	objects map[string][]byte
}

func newFake() *fakeMinio {
	return &fakeMinio{bucketExists: true, objects: make(map[string][]byte)}
}

func (f *fakeMinio) BucketExists(_ context.Context, _ string) (bool, error) {
	return f.bucketExists, f.bucketExistsErr
}
func (f *fakeMinio) MakeBucket(_ context.Context, _ string, _ minioLib.MakeBucketOptions) error {
	return f.makeBucketErr
}
func (f *fakeMinio) PutObject(_ context.Context, _ string, name string, r io.Reader, _ int64, _ minioLib.PutObjectOptions) (minioLib.UploadInfo, error) {
	if f.putErr != nil {
		return minioLib.UploadInfo{}, f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return minioLib.UploadInfo{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[name] = data
	return minioLib.UploadInfo{Key: name, Size: int64(len(data))}, nil
}
func (f *fakeMinio) GetObject(_ context.Context, _ string, name string, _ minioLib.GetObjectOptions) (io.ReadCloser, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[name]
	if !ok {
		return nil, minioLib.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func TestNewClientWithAPI_BucketExists(t *testing.T) {
	c, err := NewClientWithAPI(context.Background(), newFake(), "b")
	require.NoError(t, err)
	assert.Equal(t, "b", c.bucket)
}

func TestNewClientWithAPI_CreateBucket(t *testing.T) {
	api := newFake()
	api.bucketExists = false
	c, err := NewClientWithAPI(context.Background(), api, "bucket")
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestNewClientWithAPI_BucketErrors(t *testing.T) {
	api := newFake()
	api.bucketExistsErr = errors.New("boom")
	c, err := NewClientWithAPI(context.Background(), api, "bucket")
	assert.Nil(t, c)
	assert.ErrorContains(t, err, "failed to ensure bucket exists")

	api = newFake()
	api.bucketExists = false
	api.makeBucketErr = errors.New("fail")
	_, err = NewClientWithAPI(context.Background(), api, "bucket")
	assert.ErrorContains(t, err, "failed to create bucket")
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	c, err := NewClientWithAPI(ctx, newFake(), "b")
	require.NoError(t, err)

	_, err = c.Get(ctx, "aa", "Groceries")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	rev, err := c.Put(ctx, "aa", "Groceries", []byte(`{"noteBody":"Milk"}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rev)

	rev, err = c.Put(ctx, "aa", "Groceries", []byte(`{"noteBody":"Milk, Eggs"}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), rev)

	e, err := c.Get(ctx, "aa", "Groceries")
	require.NoError(t, err)
	assert.JSONEq(t, `{"noteBody":"Milk, Eggs"}`, string(e.Data))
	assert.Equal(t, uint64(2), e.Revision)
}

func TestErrorClassification(t *testing.T) {
	ctx := context.Background()
	api := newFake()
	c, err := NewClientWithAPI(ctx, api, "b")
	require.NoError(t, err)

	api.getErr = minioLib.ErrorResponse{Code: "AccessDenied"}
	_, err = c.Get(ctx, "aa", "k")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	api.getErr = errors.New("dial tcp: connection refused")
	_, err = c.Get(ctx, "aa", "k")
	assert.ErrorIs(t, err, apperr.ErrUnavailable)

	_, err = c.Put(ctx, "aa", "k", []byte(`{}`))
	assert.ErrorIs(t, err, apperr.ErrUnavailable, "revision lookup failure aborts the write")

	api.getErr = nil
	api.putErr = errors.New("connection reset")
	_, err = c.Put(ctx, "aa", "k", []byte(`{}`))
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
}

func TestObjectNameIsNamespaced(t *testing.T) {
	assert.NotEqual(t, objectName("aa", "k"), objectName("bb", "k"))
	assert.NotContains(t, objectName("aa", "../x"), "..")
}
