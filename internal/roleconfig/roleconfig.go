package roleconfig

import (
	"context"
	"log/slog"
	"sync"

	"github.com/codeGROOVE-dev/ticketeer/internal/ticket"
)

// PersistOutcome reports whether a role config write reached the store.
// A CachedOnly outcome means the in-memory value is ahead of the store;
// the bot stays responsive but durability is degraded until the next
// successful write.
type PersistOutcome int

// Persist outcomes.
const (
	Persisted PersistOutcome = iota
	CachedOnly
)

// String returns the log label for an outcome.
func (o PersistOutcome) String() string {
	if o == Persisted {
		return "persisted"
	}
	return "cached_only"
}

type cacheKey struct {
	guildID    string
	ticketType ticket.Type
}

// Cache is the in-memory mirror of the role config store. Reads during
// ticket creation are synchronous map lookups; writes go through to the
// store first and update the cache unconditionally.
type Cache struct {
	store   Store // nil means cache-only mode (no persistence configured)
	entries map[cacheKey]string
	logger  *slog.Logger
	mu      sync.RWMutex
}

// NewCache creates a cache backed by store. A nil store degrades to
// cache-only operation.
func NewCache(store Store, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		store:   store,
		entries: make(map[cacheKey]string),
		logger:  logger,
	}
}

// LoadAll hydrates the cache from the store. Called once at startup;
// when the store holds duplicate keys the last record wins.
func (c *Cache) LoadAll(ctx context.Context) error {
	if c.store == nil {
		c.logger.Warn("no role config store configured, starting with empty cache")
		return nil
	}

	entries, err := c.store.FindAll(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	for _, e := range entries {
		typ, err := ticket.ParseType(e.Type)
		if err != nil {
			c.logger.Warn("skipping role config entry with unknown type",
				"guild_id", e.GuildID,
				"ticket_type", e.Type)
			continue
		}
		c.entries[cacheKey{guildID: e.GuildID, ticketType: typ}] = e.RoleID
	}
	count := len(c.entries)
	c.mu.Unlock()

	c.logger.Info("loaded role config", "entries", count)
	return nil
}

// Set validates the ticket type and writes the mapping through to the
// store, then updates the cache unconditionally. A store failure is
// reported as CachedOnly, never as an error: the bot stays usable while
// the database is unreachable.
func (c *Cache) Set(ctx context.Context, guildID, rawType, roleID string) (PersistOutcome, error) {
	typ, err := ticket.ParseType(rawType)
	if err != nil {
		return CachedOnly, err
	}

	outcome := Persisted
	switch {
	case c.store == nil:
		outcome = CachedOnly
	default:
		if err := c.store.Upsert(ctx, Entry{GuildID: guildID, Type: string(typ), RoleID: roleID}); err != nil {
			c.logger.Warn("role config write not persisted, cache updated anyway",
				"guild_id", guildID,
				"ticket_type", typ,
				"role_id", roleID,
				"error", err)
			outcome = CachedOnly
		}
	}

	c.mu.Lock()
	c.entries[cacheKey{guildID: guildID, ticketType: typ}] = roleID
	c.mu.Unlock()

	c.logger.Info("role ping configured",
		"guild_id", guildID,
		"ticket_type", typ,
		"role_id", roleID,
		"outcome", outcome)
	return outcome, nil
}

// RolePing returns the configured ping role for a guild and ticket type.
// Implements ticket.RolePings; pure cache read.
func (c *Cache) RolePing(guildID string, t ticket.Type) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	roleID, ok := c.entries[cacheKey{guildID: guildID, ticketType: t}]
	return roleID, ok
}

// Guild returns every configured mapping for a guild.
func (c *Cache) Guild(guildID string) map[ticket.Type]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[ticket.Type]string)
	for key, roleID := range c.entries {
		if key.guildID == guildID {
			result[key.ticketType] = roleID
		}
	}
	return result
}

// Len returns the number of cached mappings.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
