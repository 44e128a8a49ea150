package ticket

import (
	"log/slog"
	"sync"
)

// Registry is the in-memory table of open tickets and their claims.
// Both tables are keyed by channel ID and guarded by a single mutex so
// that claim arbitration is an atomic check-then-insert. Contents are
// not persisted; a process restart starts empty.
type Registry struct {
	tickets map[string]Ticket
	claims  map[string]string // channel ID -> claimer user ID
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tickets: make(map[string]Ticket),
		claims:  make(map[string]string),
	}
}

// Add registers an open ticket for a channel.
func (r *Registry) Add(channelID string, t Ticket) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tickets[channelID] = t

	slog.Debug("registered ticket",
		"channel_id", channelID,
		"ticket_id", t.ID,
		"owner_id", t.OwnerID,
		"ticket_type", t.Type)
}

// Ticket returns the ticket registered for a channel.
func (r *Registry) Ticket(channelID string) (Ticket, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tickets[channelID]
	return t, ok
}

// Remove drops a channel from both the ticket and claim tables.
// Removing an unknown channel is a no-op.
func (r *Registry) Remove(channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tickets, channelID)
	delete(r.claims, channelID)
}

// Claim records userID as the claimer of a channel. The check and the
// insert happen under one lock, so exactly one concurrent caller wins;
// the rest get ErrAlreadyClaimed.
func (r *Registry) Claim(channelID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, claimed := r.claims[channelID]; claimed {
		return ErrAlreadyClaimed
	}
	r.claims[channelID] = userID
	return nil
}

// Claimer returns the user who claimed a channel, if any.
func (r *Registry) Claimer(channelID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userID, ok := r.claims[channelID]
	return userID, ok
}

// IsClaimed reports whether a channel has a claim entry.
func (r *Registry) IsClaimed(channelID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.claims[channelID]
	return ok
}

// Release removes the claim on a channel. Only the recorded claimer may
// release it unless force is set (administrator override).
func (r *Registry) Release(channelID, userID string, force bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	claimer, ok := r.claims[channelID]
	if !ok {
		return ErrNotClaimed
	}
	if claimer != userID && !force {
		return ErrUnauthorized
	}
	delete(r.claims, channelID)
	return nil
}

// Counts returns the number of registered tickets and claim entries.
func (r *Registry) Counts() (tickets, claims int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tickets), len(r.claims)
}
