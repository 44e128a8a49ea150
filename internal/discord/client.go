// Package discord adapts the Discord API to the ticket lifecycle's
// gateway interface and hosts the command and button surfaces.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/codeGROOVE-dev/retry"

	"github.com/codeGROOVE-dev/ticketeer/internal/format"
	"github.com/codeGROOVE-dev/ticketeer/internal/ticket"
)

// openTimeout is the maximum time to wait for the Discord connection.
const openTimeout = 30 * time.Second

// Permission overwrites applied to new ticket channels.
const (
	ownerAllow = discordgo.PermissionViewChannel |
		discordgo.PermissionSendMessages |
		discordgo.PermissionReadMessageHistory |
		discordgo.PermissionMentionEveryone
	botAllow = discordgo.PermissionViewChannel |
		discordgo.PermissionSendMessages |
		discordgo.PermissionManageChannels |
		discordgo.PermissionManageMessages
	participantAllow = discordgo.PermissionViewChannel |
		discordgo.PermissionSendMessages |
		discordgo.PermissionReadMessageHistory
)

// Client wraps discordgo.Session and implements ticket.Gateway.
type Client struct {
	session *discordgo.Session
}

// New creates a Discord client with the gateway intents the bot needs.
func New(token string) (*Client, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentMessageContent

	return &Client{session: session}, nil
}

// retryableCtx wraps a function with standard retry configuration.
func retryableCtx(ctx context.Context, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return false
			}
			// Client errors (permissions, missing resources) won't heal.
			var restErr *discordgo.RESTError
			if errors.As(err, &restErr) && restErr.Response != nil &&
				restErr.Response.StatusCode >= 400 && restErr.Response.StatusCode < 500 {
				return false
			}
			return true
		}),
	)
}

// mapErr converts Discord REST failures into lifecycle errors so the
// command boundary can match on them with errors.Is.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusForbidden:
			return fmt.Errorf("%w: %w", ticket.ErrPermissionDenied, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w", ticket.ErrNotFound, err)
		}
	}
	return err
}

// Open opens the WebSocket connection with a timeout.
func (c *Client) Open() error {
	done := make(chan error, 1)
	go func() {
		done <- c.session.Open()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(openTimeout):
		c.session.Close() //nolint:errcheck,gosec // best-effort close on timeout
		return errors.New("timeout waiting for Discord connection")
	}
}

// Close closes the WebSocket connection.
func (c *Client) Close() error {
	return c.session.Close()
}

// Session returns the underlying discordgo session.
func (c *Client) Session() *discordgo.Session {
	return c.session
}

// SetWatchingStatus sets the bot's presence to "Watching <name>".
func (c *Client) SetWatchingStatus(name string) {
	if err := c.session.UpdateWatchStatus(0, name); err != nil {
		slog.Warn("failed to set presence", "error", err)
	}
}

// botUserID returns the bot's own user ID, or "" before the session is ready.
func (c *Client) botUserID() string {
	if c.session.State == nil || c.session.State.User == nil {
		return ""
	}
	return c.session.State.User.ID
}

// FindCategory looks up a category channel by name.
func (c *Client) FindCategory(ctx context.Context, guildID, name string) (string, bool) {
	channels, err := c.session.GuildChannels(guildID)
	if err != nil {
		slog.Warn("failed to fetch guild channels",
			"guild_id", guildID,
			"error", err)
		return "", false
	}
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildCategory && ch.Name == name {
			return ch.ID, true
		}
	}
	return "", false
}

// CreateCategory creates a category channel.
func (c *Client) CreateCategory(ctx context.Context, guildID, name string) (string, error) {
	ch, err := c.session.GuildChannelCreate(guildID, name, discordgo.ChannelTypeGuildCategory)
	if err != nil {
		return "", mapErr(err)
	}
	return ch.ID, nil
}

// CreateTicketChannel creates a text channel under a category with the
// ticket permission set: the default role cannot see it, the owner can
// talk in it, and the bot can manage it.
func (c *Client) CreateTicketChannel(ctx context.Context, guildID, name, categoryID, ownerID string) (string, error) {
	// The guild's @everyone role shares the guild's ID.
	overwrites := []*discordgo.PermissionOverwrite{
		{
			ID:   guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    ownerID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: ownerAllow,
		},
	}
	if botID := c.botUserID(); botID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    botID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: botAllow,
		})
	}

	ch, err := c.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             categoryID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		return "", mapErr(err)
	}

	slog.Info("created ticket channel",
		"guild_id", guildID,
		"channel_id", ch.ID,
		"name", name)
	return ch.ID, nil
}

// DeleteChannel deletes a channel.
func (c *Client) DeleteChannel(ctx context.Context, channelID string) error {
	err := retryableCtx(ctx, func() error {
		_, err := c.session.ChannelDelete(channelID)
		return err
	})
	return mapErr(err)
}

// RenameChannel renames a channel.
func (c *Client) RenameChannel(ctx context.Context, channelID, name string) error {
	_, err := c.session.ChannelEdit(channelID, &discordgo.ChannelEdit{Name: name})
	return mapErr(err)
}

// ChannelName returns a channel's current name, preferring local state.
func (c *Client) ChannelName(ctx context.Context, channelID string) (string, error) {
	if c.session.State != nil {
		if ch, err := c.session.State.Channel(channelID); err == nil {
			return ch.Name, nil
		}
	}
	ch, err := c.session.Channel(channelID)
	if err != nil {
		return "", mapErr(err)
	}
	return ch.Name, nil
}

// FindChannelByName looks up a guild text channel by name.
func (c *Client) FindChannelByName(ctx context.Context, guildID, name string) (string, bool) {
	channels, err := c.session.GuildChannels(guildID)
	if err != nil {
		slog.Warn("failed to fetch guild channels",
			"guild_id", guildID,
			"error", err)
		return "", false
	}
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText && ch.Name == name {
			return ch.ID, true
		}
	}
	return "", false
}

// GuildChannels lists a guild's channels as (ID, name) pairs.
func (c *Client) GuildChannels(ctx context.Context, guildID string) ([]ticket.NamedChannel, error) {
	channels, err := c.session.GuildChannels(guildID)
	if err != nil {
		return nil, mapErr(err)
	}
	result := make([]ticket.NamedChannel, 0, len(channels))
	for _, ch := range channels {
		result = append(result, ticket.NamedChannel{ID: ch.ID, Name: ch.Name})
	}
	return result, nil
}

// GrantAccess gives a member view/send/history access on a channel.
func (c *Client) GrantAccess(ctx context.Context, channelID, userID string) error {
	err := c.session.ChannelPermissionSet(channelID, userID,
		discordgo.PermissionOverwriteTypeMember, participantAllow, 0)
	return mapErr(err)
}

// RevokeAccess removes a member's permission overwrite on a channel.
func (c *Client) RevokeAccess(ctx context.Context, channelID, userID string) error {
	err := c.session.ChannelPermissionDelete(channelID, userID)
	return mapErr(err)
}

// PostNotice renders a Notice as an embed and sends it.
func (c *Client) PostNotice(ctx context.Context, channelID string, n ticket.Notice) error {
	msg := &discordgo.MessageSend{Embed: noticeEmbed(n)}
	if n.CloseButton {
		msg.Components = closeButtonComponents()
	}

	err := retryableCtx(ctx, func() error {
		_, err := c.session.ChannelMessageSendComplex(channelID, msg)
		return err
	})
	if err != nil {
		return mapErr(err)
	}

	slog.Debug("posted notice",
		"channel_id", channelID,
		"title", n.Title)
	return nil
}

// PostRoleMention sends a plain message that actually pings the role.
func (c *Client) PostRoleMention(ctx context.Context, channelID, roleID, text string) error {
	err := retryableCtx(ctx, func() error {
		_, err := c.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Content: text,
			AllowedMentions: &discordgo.MessageAllowedMentions{
				Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeRoles},
			},
		})
		return err
	})
	if err != nil {
		return mapErr(err)
	}

	slog.Debug("posted role mention",
		"channel_id", channelID,
		"role_id", roleID)
	return nil
}

// IsAdmin reports whether a user holds administrator permission in the
// channel's guild context.
func (c *Client) IsAdmin(userID, channelID string) bool {
	perms, err := c.session.UserChannelPermissions(userID, channelID)
	if err != nil {
		slog.Debug("failed to check permissions",
			"user_id", userID,
			"channel_id", channelID,
			"error", err)
		return false
	}
	return perms&discordgo.PermissionAdministrator != 0
}

// Discord embed size limits.
const (
	embedDescriptionLimit = 4096
	embedFieldValueLimit  = 1024
)

// noticeEmbed converts a platform-neutral Notice into a Discord embed.
// Oversized text is truncated to the embed limits rather than rejected.
func noticeEmbed(n ticket.Notice) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       n.Title,
		Description: format.Truncate(n.Body, embedDescriptionLimit),
		Color:       n.Color,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	for _, f := range n.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  format.Truncate(f.Value, embedFieldValueLimit),
			Inline: f.Inline,
		})
	}
	return embed
}

// closeButtonComponents is the close-ticket control attached to welcome
// notices.
func closeButtonComponents() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Close Ticket",
					Style:    discordgo.DangerButton,
					CustomID: customIDConfirmClose,
					Emoji:    &discordgo.ComponentEmoji{Name: "\U0001F512"}, // 🔒
				},
			},
		},
	}
}

// ticketPanelComponents are the ticket-type buttons on the setup panel.
func ticketPanelComponents() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Partnership",
					Style:    discordgo.PrimaryButton,
					CustomID: customIDOpenPrefix + string(ticket.TypePartnership),
					Emoji:    &discordgo.ComponentEmoji{Name: "\U0001F91D"}, // 🤝
				},
				discordgo.Button{
					Label:    "Middleman",
					Style:    discordgo.SecondaryButton,
					CustomID: customIDOpenPrefix + string(ticket.TypeMiddleman),
					Emoji:    &discordgo.ComponentEmoji{Name: "⚖️"}, // ⚖️
				},
				discordgo.Button{
					Label:    "Support",
					Style:    discordgo.SuccessButton,
					CustomID: customIDOpenPrefix + string(ticket.TypeSupport),
					Emoji:    &discordgo.ComponentEmoji{Name: "\U0001F3AB"}, // 🎫
				},
			},
		},
	}
}

// confirmCloseComponents are the confirm/cancel controls on the close
// confirmation prompt.
func confirmCloseComponents() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Close Ticket",
					Style:    discordgo.DangerButton,
					CustomID: customIDConfirmClose,
					Emoji:    &discordgo.ComponentEmoji{Name: "\U0001F512"}, // 🔒
				},
				discordgo.Button{
					Label:    "Cancel",
					Style:    discordgo.SecondaryButton,
					CustomID: customIDCancelClose,
				},
			},
		},
	}
}

// successEmbed is a small green embed used for command acknowledgments.
func successEmbed(text string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Description: text,
		Color:       format.ColorSuccess,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
}

// infoEmbed is a small blurple embed used for neutral acknowledgments.
func infoEmbed(text string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Description: text,
		Color:       format.ColorInfo,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
}
