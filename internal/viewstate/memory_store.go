package viewstate

import (
	"context"
	"sync"
	"time"

	"impactmatrix/api/internal/filter"
)

// MemoryStore is a process-local Store used when Redis is not configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	entry     Entry
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{entries: map[string]memoryEntry{}, ttl: ttl, now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, matrixID, clientID string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := matrixID + ":" + clientID
	stored, ok := s.entries[key]
	if !ok {
		return Entry{}, ErrNotFound
	}
	if !s.now().Before(stored.expiresAt) {
		delete(s.entries, key)
		return Entry{}, ErrNotFound
	}
	return stored.entry, nil
}

func (s *MemoryStore) Save(_ context.Context, matrixID, clientID string, state filter.State) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	entry := Entry{State: state, UpdatedAt: now.UTC()}
	s.entries[matrixID+":"+clientID] = memoryEntry{entry: entry, expiresAt: now.Add(s.ttl)}
	return entry, nil
}

func (s *MemoryStore) Clear(_ context.Context, matrixID, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, matrixID+":"+clientID)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}
