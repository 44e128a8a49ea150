package roleconfig

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used when no database is configured
// and in tests. Contents do not survive a restart.
type MemoryStore struct {
	entries map[string]Entry
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func entryKey(guildID, ticketType string) string {
	return guildID + "/" + ticketType
}

// Upsert writes an entry keyed by (GuildID, Type).
func (s *MemoryStore) Upsert(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entryKey(e.GuildID, e.Type)] = e
	return nil
}

// FindAll returns every stored entry.
func (s *MemoryStore) FindAll(_ context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		result = append(result, e)
	}
	return result, nil
}

// Close is a no-op for the memory store.
func (*MemoryStore) Close(context.Context) error {
	return nil
}
