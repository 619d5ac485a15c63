package blob

import (
	"context"
	"fmt"
	"path"
	"slices"
	"sync"
)

// MemoryStore keeps objects in memory for tests and dry runs.
type MemoryStore struct {
	mu      sync.Mutex
	seq     int
	Objects map[string][]byte
	Trashed []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Objects: map[string][]byte{}}
}

func (m *MemoryStore) Put(ctx context.Context, folder, name, contentType string, data []byte) (Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	// Long enough to satisfy FileIDFromURL.
	id := fmt.Sprintf("mem-%022d", m.seq)
	m.Objects[id] = slices.Clone(data)
	return Object{
		ID:        id,
		ViewURL:   "https://example.invalid/" + path.Join(folder, name) + "?id=" + id,
		DirectURL: driveDirectURL + id,
	}, nil
}

func (m *MemoryStore) Trash(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Objects[id]; !ok {
		return fmt.Errorf("object %s not found", id)
	}
	delete(m.Objects, id)
	m.Trashed = append(m.Trashed, id)
	return nil
}

func (m *MemoryStore) IDFromURL(url string) string { return FileIDFromURL(url) }
