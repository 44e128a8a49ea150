package ticket

import "context"

// Gateway defines the chat-platform operations the lifecycle needs.
// The Discord adapter implements it; tests use a programmable mock.
type Gateway interface {
	// Category and channel provisioning
	FindCategory(ctx context.Context, guildID, name string) (categoryID string, found bool)
	CreateCategory(ctx context.Context, guildID, name string) (categoryID string, err error)
	CreateTicketChannel(ctx context.Context, guildID, name, categoryID, ownerID string) (channelID string, err error)
	DeleteChannel(ctx context.Context, channelID string) error
	RenameChannel(ctx context.Context, channelID, name string) error

	// Lookups
	ChannelName(ctx context.Context, channelID string) (string, error)
	FindChannelByName(ctx context.Context, guildID, name string) (channelID string, found bool)
	GuildChannels(ctx context.Context, guildID string) ([]NamedChannel, error)

	// Per-member permission overwrites
	GrantAccess(ctx context.Context, channelID, userID string) error
	RevokeAccess(ctx context.Context, channelID, userID string) error

	// Messaging
	PostNotice(ctx context.Context, channelID string, n Notice) error
	PostRoleMention(ctx context.Context, channelID, roleID, text string) error
}

// RolePings resolves the configured ping role for a guild and ticket type.
type RolePings interface {
	RolePing(guildID string, t Type) (roleID string, ok bool)
}

// NamedChannel is a guild channel as seen by Stats.
type NamedChannel struct {
	ID   string
	Name string
}

// Notice is a platform-neutral embed-style message. The gateway adapter
// renders it however the platform displays rich messages.
type Notice struct {
	Title       string
	Body        string
	Fields      []NoticeField
	Color       int
	CloseButton bool // attach the close-ticket control
}

// NoticeField is one labeled section of a Notice.
type NoticeField struct {
	Name   string
	Value  string
	Inline bool
}
