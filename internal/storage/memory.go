package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
)

type memObject struct {
	data        []byte
	contentType string
}

// MemoryStore keeps objects in process. Used when MinIO is not configured.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memObject
	urls    urlMapper
}

func NewMemoryStore(baseURL string) (*MemoryStore, error) {
	urls, err := newURLMapper(baseURL)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{objects: map[string]memObject{}, urls: urls}, nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.objects[key] = memObject{data: data, contentType: contentType}
	m.mu.Unlock()
	return m.urls.URL(key), nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) (*Object, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return &Object{
		Body:        io.NopCloser(bytes.NewReader(obj.data)),
		ContentType: obj.contentType,
		Size:        int64(len(obj.data)),
	}, nil
}

func (m *MemoryStore) KeyFromURL(raw string) (string, bool) {
	return m.urls.Key(raw)
}
