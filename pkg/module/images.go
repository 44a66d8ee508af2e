package module

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrImageNotFound     = errors.New("image not found")
	ErrShareNotSupported = errors.New("image store can not share")
)

// ImageStore binary image content by key
type ImageStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, string, error)
	Delete(ctx context.Context, key string) error
	// ShareURL externally reachable url for key
	ShareURL(ctx context.Context, key string) (string, error)
}

type memoryImage struct {
	data        []byte
	contentType string
}

// MemoryImageStore process local, nothing survives restart
type MemoryImageStore struct {
	images sync.Map
}

func NewMemoryImageStore() *MemoryImageStore {
	return &MemoryImageStore{}
}

func (m *MemoryImageStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	m.images.Store(key, &memoryImage{data: buf, contentType: contentType})
	return nil
}

func (m *MemoryImageStore) Get(_ context.Context, key string) ([]byte, string, error) {
	val, ok := m.images.Load(key)
	if !ok {
		return nil, "", ErrImageNotFound
	}
	img := val.(*memoryImage)
	return img.data, img.contentType, nil
}

func (m *MemoryImageStore) Delete(_ context.Context, key string) error {
	m.images.Delete(key)
	return nil
}

func (m *MemoryImageStore) ShareURL(context.Context, string) (string, error) {
	return "", ErrShareNotSupported
}

// Len stored image count
func (m *MemoryImageStore) Len() int {
	n := 0
	m.images.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
