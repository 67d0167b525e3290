package blob

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is an in-memory blob store for tests and ephemeral environments.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	nowFn   func() time.Time
}

type memoryObject struct {
	data    []byte
	modTime time.Time
}

// NewMemory constructs an empty in-memory blob store.
func NewMemory() *Memory {
	return &Memory{
		objects: make(map[string]memoryObject),
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// Put stores the object under key, replacing any previous content.
func (m *Memory) Put(_ context.Context, key string, r io.Reader) (Info, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Info{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	obj := memoryObject{data: data, modTime: m.nowFn()}
	m.objects[key] = obj
	return Info{Key: key, Size: int64(len(data)), ModTime: obj.modTime}, nil
}

// Get returns a reader over the stored object.
func (m *Memory) Get(_ context.Context, key string) (io.ReadCloser, Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, Info{}, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(append([]byte(nil), obj.data...))),
		Info{Key: key, Size: int64(len(obj.data)), ModTime: obj.modTime}, nil
}

// List returns metadata for all objects under prefix, sorted by key.
func (m *Memory) List(_ context.Context, prefix string) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Info
	for key, obj := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, Info{Key: key, Size: int64(len(obj.data)), ModTime: obj.modTime})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
