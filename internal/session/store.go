package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store resolves and persists session histories.
//
// Resolve with an empty id mints a fresh globally-unique id and returns an
// empty history; this is the only place new ids are created. An unknown id
// is treated as an empty history so stale client-supplied ids do not fail
// the turn. Persist overwrites the stored history for the id;
// last-writer-wins is acceptable because a session is owned by at most one
// running turn at a time.
type Store interface {
	Resolve(ctx context.Context, id string) (string, []Message, error)
	Persist(ctx context.Context, id string, history []Message) error
}

// Lister is an optional Store extension for debug/listing endpoints.
type Lister interface {
	List(ctx context.Context) ([]Info, error)
}

// MemoryStore keeps session histories in process memory. It is the default
// backend and is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
}

type memoryEntry struct {
	history   []Message
	updatedAt time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]memoryEntry)}
}

// Resolve implements Store.
func (s *MemoryStore) Resolve(_ context.Context, id string) (string, []Message, error) {
	if id == "" {
		return uuid.NewString(), nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.sessions[id]
	if !ok {
		// Unknown id: tolerate stale clients, start fresh under the same id.
		return id, nil, nil
	}

	history := make([]Message, len(entry.history))
	copy(history, entry.history)
	return id, history, nil
}

// Persist implements Store.
func (s *MemoryStore) Persist(_ context.Context, id string, history []Message) error {
	stored := make([]Message, len(history))
	copy(stored, history)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = memoryEntry{history: stored, updatedAt: time.Now()}
	return nil
}

// List implements Lister.
func (s *MemoryStore) List(_ context.Context) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]Info, 0, len(s.sessions))
	for id, entry := range s.sessions {
		infos = append(infos, Info{
			ID:        id,
			Messages:  len(entry.history),
			UpdatedAt: entry.updatedAt,
		})
	}
	return infos, nil
}
