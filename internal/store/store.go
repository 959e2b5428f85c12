// Package store persists the four top-level collections (tables, orders,
// dishes, config) as independently keyed JSON documents.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Document is one named collection to persist.
type Document struct {
	Name  string
	Value any
}

// Store loads and saves collections. Save is atomic across all documents
// passed in one call.
type Store interface {
	Load(ctx context.Context, name string, dst any) (bool, error)
	Save(ctx context.Context, docs ...Document) error
}

// Memory keeps encoded documents in process. Values are round-tripped
// through JSON so callers never share memory with the store.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

// Load decodes the named document into dst. Returns false if it was never saved.
func (m *Memory) Load(ctx context.Context, name string, dst any) (bool, error) {
	m.mu.RLock()
	raw, ok := m.docs[name]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return true, nil
}

// Save encodes every document first and only then replaces them together.
func (m *Memory) Save(ctx context.Context, docs ...Document) error {
	encoded := make(map[string][]byte, len(docs))
	for _, d := range docs {
		raw, err := json.Marshal(d.Value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", d.Name, err)
		}
		encoded[d.Name] = raw
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for name, raw := range encoded {
		m.docs[name] = raw
	}
	return nil
}
