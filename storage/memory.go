package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// MemoryStore keeps blobs in a map. Used by tests and local runs where
// no S3 bucket is available.
type MemoryStore struct {
	mu        sync.RWMutex
	objects   map[string][]byte
	types     map[string]string
	container string
}

func NewMemory(container string) *MemoryStore {
	return &MemoryStore{
		objects:   make(map[string][]byte),
		types:     make(map[string]string),
		container: container,
	}
}

func (m *MemoryStore) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read object body, %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[key]; ok {
		return ErrObjectExists
	}

	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectMissing
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, key)
	delete(m.types, key)
	return nil
}

// SignedURL fakes a capability token so callers still get a URL that
// differs from the canonical one. Nothing validates it
func (m *MemoryStore) SignedURL(_ context.Context, key string, expires time.Duration) (string, error) {
	token, err := gonanoid.New()
	if err != nil {
		return "", err
	}

	return m.URL(key) + "?token=" + token + "&expires=" + strconv.FormatInt(int64(expires.Seconds()), 10), nil
}

// Len reports how many blobs the store currently holds
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

func (m *MemoryStore) URL(key string) string {
	return "memory://" + m.container + "/" + key
}

func (m *MemoryStore) Container() string {
	return m.container
}

func (m *MemoryStore) Account() string {
	return "memory"
}
