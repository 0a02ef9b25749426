package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore keeps everything in process memory. Update holds an exclusive
// lock for its whole duration, so transactions never interleave.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[Key][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[Key][]byte)}
}

func (s *MemoryStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{committed: s.data, writes: make(map[Key][]byte)}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for k, v := range tx.writes {
		s.data[k] = v
	}
	return nil
}

func (s *MemoryStore) View(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(&memoryTx{committed: s.data, readOnly: true})
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

type memoryTx struct {
	committed map[Key][]byte
	writes    map[Key][]byte
	readOnly  bool
}

func (t *memoryTx) lookup(key Key) ([]byte, bool) {
	if v, ok := t.writes[key]; ok {
		return v, true
	}
	v, ok := t.committed[key]
	return v, ok
}

func (t *memoryTx) Has(_ context.Context, key Key) (bool, error) {
	_, ok := t.lookup(key)
	return ok, nil
}

func (t *memoryTx) Get(_ context.Context, key Key, dst any) (bool, error) {
	raw, ok := t.lookup(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (t *memoryTx) Set(_ context.Context, key Key, value any) error {
	if t.readOnly {
		return ErrReadOnly
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	t.writes[key] = raw
	return nil
}
