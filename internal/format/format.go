// Package format provides channel naming and message text for the ticket bot.
package format

import (
	"fmt"
	"strings"
)

// Embed colors.
const (
	ColorPartnership = 0x5865F2
	ColorMiddleman   = 0xFEE75C
	ColorSupport     = 0x57F287
	ColorError       = 0xED4245
	ColorSuccess     = 0x57F287
	ColorInfo        = 0x5865F2
)

// ClaimedSuffix marks a claimed ticket channel in its name.
const ClaimedSuffix = "-claimed"

// TypeMeta describes how a ticket type is presented.
type TypeMeta struct {
	Name        string
	Emoji       string
	Description string
	Color       int
}

var typeMeta = map[string]TypeMeta{
	"partnership": {
		Name:        "Partnership",
		Emoji:       "\U0001F91D", // 🤝
		Description: "Discuss partnership opportunities",
		Color:       ColorPartnership,
	},
	"middleman": {
		Name:        "Middleman",
		Emoji:       "\u2696\uFE0F", // ⚖️
		Description: "Request middleman services",
		Color:       ColorMiddleman,
	},
	"support": {
		Name:        "Support",
		Emoji:       "\U0001F3AB", // 🎫
		Description: "Get help and support",
		Color:       ColorSupport,
	},
}

// TypeInfo returns display metadata for a ticket type.
func TypeInfo(ticketType string) (TypeMeta, bool) {
	m, ok := typeMeta[ticketType]
	return m, ok
}

// NormalizeName lowercases a requested channel name and replaces spaces
// with hyphens, matching the platform's channel naming rules.
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

// TicketChannelName builds the channel name for a new ticket.
func TicketChannelName(prefix, username, ticketType string) string {
	return prefix + NormalizeName(username) + "-" + ticketType
}

// RenamedChannelName applies the ticket prefix to a user-requested name.
func RenamedChannelName(prefix, requested string) string {
	return prefix + NormalizeName(requested)
}

// ClaimedName marks a channel name as claimed.
func ClaimedName(name string) string {
	if strings.HasSuffix(name, ClaimedSuffix) {
		return name
	}
	return name + ClaimedSuffix
}

// UnclaimedName removes the claimed marker from a channel name.
func UnclaimedName(name string) string {
	return strings.TrimSuffix(name, ClaimedSuffix)
}

// UserMention formats a user ID as a mention.
func UserMention(userID string) string {
	return "<@" + userID + ">"
}

// RoleMention formats a role ID as a mention.
func RoleMention(roleID string) string {
	return "<@&" + roleID + ">"
}

// RolePingText is the first message of a ticket when a ping role is
// configured for its type.
func RolePingText(roleID, typeName string) string {
	return fmt.Sprintf("%s - New %s ticket opened!", RoleMention(roleID), typeName)
}

// WelcomeBody is the greeting posted when a ticket channel is created.
func WelcomeBody(ownerID, description string) string {
	return fmt.Sprintf(
		"Welcome %s!\n\n**Ticket Type:** %s\n\nOur team will be with you shortly. Please describe your inquiry in detail.",
		UserMention(ownerID), description)
}

// Truncate shortens s to max characters, appending an ellipsis.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
