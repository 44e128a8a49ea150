package roleconfig

import (
	"context"
	"errors"
	"testing"

	"github.com/codeGROOVE-dev/ticketeer/internal/ticket"
)

// failingStore rejects every write and read.
type failingStore struct {
	err error
}

func (s *failingStore) Upsert(context.Context, Entry) error     { return s.err }
func (s *failingStore) FindAll(context.Context) ([]Entry, error) { return nil, s.err }
func (s *failingStore) Close(context.Context) error              { return nil }

func TestCacheSet(t *testing.T) {
	t.Run("persists and caches", func(t *testing.T) {
		store := NewMemoryStore()
		cache := NewCache(store, nil)

		outcome, err := cache.Set(context.Background(), "guild-1", "support", "role-1")
		if err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if outcome != Persisted {
			t.Errorf("Set() outcome = %v, want Persisted", outcome)
		}

		roleID, ok := cache.RolePing("guild-1", ticket.TypeSupport)
		if !ok || roleID != "role-1" {
			t.Errorf("RolePing() = %q, %v, want %q, true", roleID, ok, "role-1")
		}

		entries, err := store.FindAll(context.Background())
		if err != nil {
			t.Fatalf("FindAll() error = %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("store holds %d entries, want 1", len(entries))
		}
		if entries[0].RoleID != "role-1" {
			t.Errorf("stored role = %q, want %q", entries[0].RoleID, "role-1")
		}
	})

	t.Run("store failure degrades to cache only", func(t *testing.T) {
		cache := NewCache(&failingStore{err: errors.New("connection reset")}, nil)

		outcome, err := cache.Set(context.Background(), "guild-1", "support", "role-1")
		if err != nil {
			t.Fatalf("Set() error = %v, want nil on store failure", err)
		}
		if outcome != CachedOnly {
			t.Errorf("Set() outcome = %v, want CachedOnly", outcome)
		}

		// The mapping must still serve reads.
		roleID, ok := cache.RolePing("guild-1", ticket.TypeSupport)
		if !ok || roleID != "role-1" {
			t.Errorf("RolePing() = %q, %v, want %q, true", roleID, ok, "role-1")
		}
	})

	t.Run("nil store degrades to cache only", func(t *testing.T) {
		cache := NewCache(nil, nil)

		outcome, err := cache.Set(context.Background(), "guild-1", "middleman", "role-2")
		if err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if outcome != CachedOnly {
			t.Errorf("Set() outcome = %v, want CachedOnly", outcome)
		}
	})

	t.Run("invalid type rejected", func(t *testing.T) {
		store := NewMemoryStore()
		cache := NewCache(store, nil)

		_, err := cache.Set(context.Background(), "guild-1", "billing", "role-1")
		if !errors.Is(err, ticket.ErrInvalidTicketType) {
			t.Fatalf("Set() error = %v, want ErrInvalidTicketType", err)
		}
		if cache.Len() != 0 {
			t.Errorf("cache holds %d entries, want 0", cache.Len())
		}
		entries, _ := store.FindAll(context.Background())
		if len(entries) != 0 {
			t.Errorf("store holds %d entries, want 0", len(entries))
		}
	})

	t.Run("overwrite replaces role", func(t *testing.T) {
		cache := NewCache(NewMemoryStore(), nil)

		if _, err := cache.Set(context.Background(), "guild-1", "support", "role-1"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if _, err := cache.Set(context.Background(), "guild-1", "support", "role-2"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		roleID, _ := cache.RolePing("guild-1", ticket.TypeSupport)
		if roleID != "role-2" {
			t.Errorf("RolePing() = %q, want %q", roleID, "role-2")
		}
		if cache.Len() != 1 {
			t.Errorf("Len() = %d, want 1", cache.Len())
		}
	})
}

func TestCacheLoadAll(t *testing.T) {
	t.Run("hydrates from store", func(t *testing.T) {
		store := NewMemoryStore()
		seed := NewCache(store, nil)
		if _, err := seed.Set(context.Background(), "guild-1", "support", "role-1"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if _, err := seed.Set(context.Background(), "guild-2", "partnership", "role-2"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		// A fresh cache over the same store sees everything.
		cache := NewCache(store, nil)
		if err := cache.LoadAll(context.Background()); err != nil {
			t.Fatalf("LoadAll() error = %v", err)
		}

		if roleID, _ := cache.RolePing("guild-1", ticket.TypeSupport); roleID != "role-1" {
			t.Errorf("RolePing(guild-1) = %q, want %q", roleID, "role-1")
		}
		if roleID, _ := cache.RolePing("guild-2", ticket.TypePartnership); roleID != "role-2" {
			t.Errorf("RolePing(guild-2) = %q, want %q", roleID, "role-2")
		}
	})

	t.Run("skips entries with unknown type", func(t *testing.T) {
		store := NewMemoryStore()
		if err := store.Upsert(context.Background(), Entry{GuildID: "guild-1", Type: "billing", RoleID: "role-1"}); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		if err := store.Upsert(context.Background(), Entry{GuildID: "guild-1", Type: "support", RoleID: "role-2"}); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}

		cache := NewCache(store, nil)
		if err := cache.LoadAll(context.Background()); err != nil {
			t.Fatalf("LoadAll() error = %v", err)
		}
		if cache.Len() != 1 {
			t.Errorf("Len() = %d, want 1", cache.Len())
		}
	})

	t.Run("nil store loads nothing", func(t *testing.T) {
		cache := NewCache(nil, nil)
		if err := cache.LoadAll(context.Background()); err != nil {
			t.Fatalf("LoadAll() error = %v", err)
		}
		if cache.Len() != 0 {
			t.Errorf("Len() = %d, want 0", cache.Len())
		}
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		wantErr := errors.New("no route to host")
		cache := NewCache(&failingStore{err: wantErr}, nil)
		if err := cache.LoadAll(context.Background()); !errors.Is(err, wantErr) {
			t.Errorf("LoadAll() error = %v, want %v", err, wantErr)
		}
	})
}

func TestCacheGuild(t *testing.T) {
	cache := NewCache(NewMemoryStore(), nil)
	if _, err := cache.Set(context.Background(), "guild-1", "support", "role-1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := cache.Set(context.Background(), "guild-1", "middleman", "role-2"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := cache.Set(context.Background(), "guild-2", "support", "role-3"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got := cache.Guild("guild-1")
	if len(got) != 2 {
		t.Fatalf("Guild() returned %d mappings, want 2", len(got))
	}
	if got[ticket.TypeSupport] != "role-1" {
		t.Errorf("Guild()[support] = %q, want %q", got[ticket.TypeSupport], "role-1")
	}
	if got[ticket.TypeMiddleman] != "role-2" {
		t.Errorf("Guild()[middleman] = %q, want %q", got[ticket.TypeMiddleman], "role-2")
	}
}

func TestPersistOutcomeString(t *testing.T) {
	if got := Persisted.String(); got != "persisted" {
		t.Errorf("Persisted.String() = %q, want %q", got, "persisted")
	}
	if got := CachedOnly.String(); got != "cached_only" {
		t.Errorf("CachedOnly.String() = %q, want %q", got, "cached_only")
	}
}
