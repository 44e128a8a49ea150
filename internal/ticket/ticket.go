// Package ticket implements the support-ticket lifecycle: typed ticket
// creation, claim arbitration, and closure.
package ticket

import (
	"errors"
	"strings"
	"time"
)

// Type identifies a ticket category.
type Type string

// Supported ticket types.
const (
	TypePartnership Type = "partnership"
	TypeMiddleman   Type = "middleman"
	TypeSupport     Type = "support"
)

// Types returns all valid ticket types in display order.
func Types() []Type {
	return []Type{TypePartnership, TypeMiddleman, TypeSupport}
}

// ParseType validates a user-supplied ticket type string.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(s)); t {
	case TypePartnership, TypeMiddleman, TypeSupport:
		return t, nil
	default:
		return "", ErrInvalidTicketType
	}
}

// Lifecycle errors surfaced to the command/interaction boundary.
var (
	ErrInvalidTicketType = errors.New("invalid ticket type")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrAlreadyClaimed    = errors.New("ticket already claimed")
	ErrNotClaimed        = errors.New("ticket not claimed")
	ErrUnauthorized      = errors.New("not authorized")
	ErrNotFound          = errors.New("not found")
)

// Ticket records one open ticket channel.
type Ticket struct {
	CreatedAt time.Time
	ID        string
	OwnerID   string
	Type      Type
}

// Member identifies the user on whose behalf an operation runs.
type Member struct {
	ID       string
	Username string
}

// Stats summarizes ticket activity for a guild.
type Stats struct {
	Active    int
	Claimed   int
	Unclaimed int
}
