package ink

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Store is the persistence collaborator: an asynchronous, fallible
// key-value store used for custom brushes, color history, and palettes.
// A missing key returns (nil, nil). The core treats every failure as
// non-fatal — it logs and continues with in-memory state.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Persistence keys used by the core.
const (
	storeKeyBrushes  = "ink.brushes.custom"
	storeKeyHistory  = "ink.color.history"
	storeKeyRecents  = "ink.color.recents"
	storeKeyPalettes = "ink.palettes"
)

// MemStore is an in-memory Store, used as the default collaborator and in
// tests. It never fails.
type MemStore struct {
	mu sync.RWMutex
	m  map[string][]byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{m: make(map[string][]byte)}
}

// Get implements Store.
func (s *MemStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set implements Store.
func (s *MemStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.m[key] = v
	return nil
}

// saveAsync persists v as JSON under key without blocking the drawing
// path. Marshal or store errors are logged and dropped; the in-memory
// state stays authoritative. wg lets Engine.Close wait for stragglers.
func saveAsync(wg *sync.WaitGroup, log *slog.Logger, store Store, key string, v any) {
	if store == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Warn("persist: marshal failed", "key", key, "error", err)
		return
	}
	if wg != nil {
		wg.Add(1)
	}
	go func() {
		if wg != nil {
			defer wg.Done()
		}
		if err := store.Set(context.Background(), key, data); err != nil {
			log.Warn("persist: save failed", "key", key, "error", err)
		}
	}()
}

// loadJSON fetches and unmarshals key into v. It returns false when the
// key is absent or the load failed; failures are logged, and the caller
// keeps its defaults.
func loadJSON(ctx context.Context, log *slog.Logger, store Store, key string, v any) bool {
	if store == nil {
		return false
	}
	data, err := store.Get(ctx, key)
	if err != nil {
		log.Warn("persist: load failed", "key", key, "error", err)
		return false
	}
	if data == nil {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Warn("persist: decode failed", "key", key, "error", err)
		return false
	}
	return true
}
