package blobstore

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/dmitrijs2005/clientadmin/internal/common"
)

type memoryEntry struct {
	body     []byte
	revision int64
}

// MemoryStore keeps objects in a map. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryEntry)}
}

func memoryKey(bucket, key string) string {
	return bucket + "/" + key
}

func (m *MemoryStore) Get(ctx context.Context, bucket, key string) (*Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.objects[memoryKey(bucket, key)]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", bucket, key, common.ErrNotFound)
	}

	body := make([]byte, len(e.body))
	copy(body, e.body)
	return &Object{Body: body, Revision: strconv.FormatInt(e.revision, 10)}, nil
}

func (m *MemoryStore) Put(ctx context.Context, bucket, key string, body []byte, ifMatch string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := memoryKey(bucket, key)
	e, exists := m.objects[k]
	if ifMatch != "" && (!exists || strconv.FormatInt(e.revision, 10) != ifMatch) {
		return "", fmt.Errorf("%s/%s: %w", bucket, key, common.ErrVersionConflict)
	}

	stored := make([]byte, len(body))
	copy(stored, body)
	e = memoryEntry{body: stored, revision: e.revision + 1}
	m.objects[k] = e

	return strconv.FormatInt(e.revision, 10), nil
}
