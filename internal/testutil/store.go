package testutil

import (
	"context"
	"io"
	"sync"

	"github.com/phambaophuc/imgbatch/internal/models"
)

// PutCall records one PutObject invocation.
type PutCall struct {
	Bucket      string
	Key         string
	Body        []byte
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// MockStore is an in-memory object store. PutObjectFunc, when set, decides
// the result of each call after it has been recorded.
type MockStore struct {
	PutObjectFunc   func(ctx context.Context, bucket, key string) (*models.UploadAck, error)
	CheckBucketFunc func(ctx context.Context, bucket string) error

	mu    sync.Mutex
	calls []PutCall
}

func (m *MockStore) PutObject(
	ctx context.Context,
	bucket, key string,
	body io.Reader,
	size int64,
	contentType string,
	metadata map[string]string,
) (*models.UploadAck, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.calls = append(m.calls, PutCall{
		Bucket:      bucket,
		Key:         key,
		Body:        data,
		Size:        size,
		ContentType: contentType,
		Metadata:    metadata,
	})
	m.mu.Unlock()

	if m.PutObjectFunc != nil {
		return m.PutObjectFunc(ctx, bucket, key)
	}
	return &models.UploadAck{Bucket: bucket, Key: key, ETag: "etag-" + key}, nil
}

func (m *MockStore) CheckBucket(ctx context.Context, bucket string) error {
	if m.CheckBucketFunc != nil {
		return m.CheckBucketFunc(ctx, bucket)
	}
	return nil
}

func (m *MockStore) Calls() []PutCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PutCall(nil), m.calls...)
}

// Keys returns the uploaded keys in call order.
func (m *MockStore) Keys() []string {
	calls := m.Calls()
	keys := make([]string, 0, len(calls))
	for _, c := range calls {
		keys = append(keys, c.Key)
	}
	return keys
}
