// Package roleconfig maintains the per-guild, per-ticket-type role ping
// configuration: an in-memory cache for synchronous lookup during ticket
// creation, write-through to a durable document store.
package roleconfig

import "context"

// Entry is one persisted role mapping. At most one entry exists per
// (guild, type) pair; writes with the same key overwrite.
type Entry struct {
	GuildID string `bson:"guild_id" json:"guild_id"`
	Type    string `bson:"type"     json:"type"`
	RoleID  string `bson:"role_id"  json:"role_id"`
}

// Store persists role config entries.
type Store interface {
	// Upsert writes an entry keyed by (GuildID, Type).
	Upsert(ctx context.Context, e Entry) error
	// FindAll returns every persisted entry.
	FindAll(ctx context.Context) ([]Entry, error)
	// Close releases store resources.
	Close(ctx context.Context) error
}
