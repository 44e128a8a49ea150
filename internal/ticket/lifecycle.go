package ticket

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codeGROOVE-dev/ticketeer/internal/format"
)

// Defaults matching the bot's public behavior.
const (
	DefaultPrefix     = "ticket-"
	DefaultCategory   = "Tickets"
	DefaultLogChannel = "ticket-logs"
	DefaultCloseDelay = 5 * time.Second
)

// Lifecycle is the policy engine for tickets. It owns the registry and
// drives the gateway; command and button handlers all share one instance.
type Lifecycle struct {
	gateway    Gateway
	roles      RolePings
	registry   *Registry
	logger     *slog.Logger
	prefix     string
	category   string
	logChannel string
	closeDelay time.Duration
	wg         sync.WaitGroup
}

// Config holds dependencies and settings for a Lifecycle.
type Config struct {
	Gateway    Gateway
	Roles      RolePings
	Registry   *Registry
	Logger     *slog.Logger
	Prefix     string
	Category   string
	LogChannel string
	CloseDelay time.Duration
}

// New creates a Lifecycle, filling in defaults for unset settings.
func New(cfg Config) *Lifecycle {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := cfg.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	category := cfg.Category
	if category == "" {
		category = DefaultCategory
	}
	logChannel := cfg.LogChannel
	if logChannel == "" {
		logChannel = DefaultLogChannel
	}
	closeDelay := cfg.CloseDelay
	if closeDelay <= 0 {
		closeDelay = DefaultCloseDelay
	}

	return &Lifecycle{
		gateway:    cfg.Gateway,
		roles:      cfg.Roles,
		registry:   registry,
		logger:     logger,
		prefix:     prefix,
		category:   category,
		logChannel: logChannel,
		closeDelay: closeDelay,
	}
}

// Registry returns the lifecycle's ticket registry.
func (l *Lifecycle) Registry() *Registry {
	return l.registry
}

// IsTicketChannel reports whether a channel name follows the ticket
// naming convention. Commands gate on this before touching a channel.
func (l *Lifecycle) IsTicketChannel(channelName string) bool {
	return strings.HasPrefix(channelName, l.prefix)
}

// OpenTicket validates the requested type, provisions a channel scoped
// to the requester, registers it, and posts the opening messages. The
// configured ping role for (guild, type) is mentioned first when set;
// the welcome notice always follows.
func (l *Lifecycle) OpenTicket(ctx context.Context, guildID string, requester Member, rawType string) (string, error) {
	typ, err := ParseType(rawType)
	if err != nil {
		return "", err
	}
	meta, _ := format.TypeInfo(string(typ))

	categoryID, found := l.gateway.FindCategory(ctx, guildID, l.category)
	if !found {
		categoryID, err = l.gateway.CreateCategory(ctx, guildID, l.category)
		if err != nil {
			return "", fmt.Errorf("create ticket category: %w", err)
		}
		l.logger.Info("created ticket category",
			"guild_id", guildID,
			"category_id", categoryID,
			"name", l.category)
	}

	name := format.TicketChannelName(l.prefix, requester.Username, string(typ))
	channelID, err := l.gateway.CreateTicketChannel(ctx, guildID, name, categoryID, requester.ID)
	if err != nil {
		return "", fmt.Errorf("create ticket channel: %w", err)
	}

	l.registry.Add(channelID, Ticket{
		ID:        uuid.New().String(),
		OwnerID:   requester.ID,
		Type:      typ,
		CreatedAt: time.Now(),
	})

	if roleID, ok := l.roles.RolePing(guildID, typ); ok {
		if err := l.gateway.PostRoleMention(ctx, channelID, roleID, format.RolePingText(roleID, meta.Name)); err != nil {
			l.logger.Warn("failed to post role ping",
				"channel_id", channelID,
				"role_id", roleID,
				"error", err)
		}
	}

	welcome := Notice{
		Title:       meta.Emoji + " " + meta.Name + " Ticket",
		Body:        format.WelcomeBody(requester.ID, meta.Description),
		Color:       meta.Color,
		CloseButton: true,
		Fields: []NoticeField{{
			Name:  "\U0001F4CC Commands", // 📌
			Value: "`.close` - Close this ticket\n`.claim` - Claim this ticket\n`.add <user>` - Add a user\n`.remove <user>` - Remove a user",
		}},
	}
	if err := l.gateway.PostNotice(ctx, channelID, welcome); err != nil {
		l.logger.Warn("failed to post welcome notice",
			"channel_id", channelID,
			"error", err)
	}

	l.logger.Info("ticket opened",
		"guild_id", guildID,
		"channel_id", channelID,
		"owner_id", requester.ID,
		"ticket_type", typ)

	return channelID, nil
}

// ClaimTicket assigns the channel to actor. At most one claim can exist
// per channel; losers of a race get ErrAlreadyClaimed. The channel is
// renamed to mark the claim; a rename failure does not undo the claim.
func (l *Lifecycle) ClaimTicket(ctx context.Context, channelID, actorID string) error {
	if err := l.registry.Claim(channelID, actorID); err != nil {
		return err
	}

	if name, err := l.gateway.ChannelName(ctx, channelID); err != nil {
		l.logger.Warn("failed to look up channel name, skipping claim rename",
			"channel_id", channelID,
			"error", err)
	} else if err := l.gateway.RenameChannel(ctx, channelID, format.ClaimedName(name)); err != nil {
		l.logger.Warn("failed to rename claimed ticket",
			"channel_id", channelID,
			"error", err)
	}

	l.logger.Info("ticket claimed",
		"channel_id", channelID,
		"actor_id", actorID)
	return nil
}

// UnclaimTicket releases the claim on a channel. Only the claimer may
// release it, unless admin is set.
func (l *Lifecycle) UnclaimTicket(ctx context.Context, channelID, actorID string, admin bool) error {
	if err := l.registry.Release(channelID, actorID, admin); err != nil {
		return err
	}

	if name, err := l.gateway.ChannelName(ctx, channelID); err != nil {
		l.logger.Warn("failed to look up channel name, skipping unclaim rename",
			"channel_id", channelID,
			"error", err)
	} else if err := l.gateway.RenameChannel(ctx, channelID, format.UnclaimedName(name)); err != nil {
		l.logger.Warn("failed to rename unclaimed ticket",
			"channel_id", channelID,
			"error", err)
	}

	l.logger.Info("ticket unclaimed",
		"channel_id", channelID,
		"actor_id", actorID)
	return nil
}

// CloseTicket posts the closure notice, writes a log entry when the
// guild has a log channel, drops the channel from both tables, and
// deletes the channel after the close delay. Closing a channel that was
// never registered still closes it; the log entry reads "Unknown".
func (l *Lifecycle) CloseTicket(ctx context.Context, guildID, channelID, actorID string) error {
	t, registered := l.registry.Ticket(channelID)

	closed := Notice{
		Title: "\U0001F512 Ticket Closed", // 🔒
		Body:  "Ticket closed by " + format.UserMention(actorID),
		Color: format.ColorError,
	}
	if err := l.gateway.PostNotice(ctx, channelID, closed); err != nil {
		l.logger.Warn("failed to post closure notice",
			"channel_id", channelID,
			"error", err)
	}

	if logChannelID, found := l.gateway.FindChannelByName(ctx, guildID, l.logChannel); found {
		l.postCloseLog(ctx, logChannelID, channelID, actorID, t, registered)
	}

	l.registry.Remove(channelID)

	// The deletion survives the inbound event's context; it is not
	// cancelable once scheduled.
	dctx := context.WithoutCancel(ctx)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		time.Sleep(l.closeDelay)
		if err := l.gateway.DeleteChannel(dctx, channelID); err != nil {
			l.logger.Warn("failed to delete closed ticket channel",
				"channel_id", channelID,
				"error", err)
		}
	}()

	l.logger.Info("ticket closed",
		"guild_id", guildID,
		"channel_id", channelID,
		"actor_id", actorID,
		"registered", registered)
	return nil
}

func (l *Lifecycle) postCloseLog(ctx context.Context, logChannelID, channelID, actorID string, t Ticket, registered bool) {
	channelName, err := l.gateway.ChannelName(ctx, channelID)
	if err != nil {
		channelName = channelID
	}
	typeLabel := "Unknown"
	if registered {
		if meta, ok := format.TypeInfo(string(t.Type)); ok {
			typeLabel = meta.Name
		}
	}

	entry := Notice{
		Title: "\U0001F3AB Ticket Closed", // 🎫
		Color: format.ColorError,
		Fields: []NoticeField{
			{Name: "Channel", Value: channelName, Inline: true},
			{Name: "Closed By", Value: format.UserMention(actorID), Inline: true},
			{Name: "Type", Value: typeLabel, Inline: true},
		},
	}
	if err := l.gateway.PostNotice(ctx, logChannelID, entry); err != nil {
		l.logger.Warn("failed to post ticket log entry",
			"log_channel_id", logChannelID,
			"channel_id", channelID,
			"error", err)
	}
}

// AddParticipant grants a member view/send/history access to a channel.
func (l *Lifecycle) AddParticipant(ctx context.Context, channelID, userID string) error {
	if err := l.gateway.GrantAccess(ctx, channelID, userID); err != nil {
		return fmt.Errorf("grant access: %w", err)
	}
	l.logger.Info("participant added",
		"channel_id", channelID,
		"user_id", userID)
	return nil
}

// RemoveParticipant clears a member's permission overwrite on a channel.
func (l *Lifecycle) RemoveParticipant(ctx context.Context, channelID, userID string) error {
	if err := l.gateway.RevokeAccess(ctx, channelID, userID); err != nil {
		return fmt.Errorf("revoke access: %w", err)
	}
	l.logger.Info("participant removed",
		"channel_id", channelID,
		"user_id", userID)
	return nil
}

// RenameTicket normalizes the requested name, applies the ticket prefix,
// and renames the channel. Returns the name that was applied.
func (l *Lifecycle) RenameTicket(ctx context.Context, channelID, requested string) (string, error) {
	name := format.RenamedChannelName(l.prefix, requested)
	if err := l.gateway.RenameChannel(ctx, channelID, name); err != nil {
		return "", fmt.Errorf("rename channel: %w", err)
	}
	l.logger.Info("ticket renamed",
		"channel_id", channelID,
		"name", name)
	return name, nil
}

// Stats counts ticket channels in a guild by naming convention and
// splits them by claim status. Channels are scanned live rather than
// read from the registry, so tickets opened before a restart count too.
func (l *Lifecycle) Stats(ctx context.Context, guildID string) (Stats, error) {
	channels, err := l.gateway.GuildChannels(ctx, guildID)
	if err != nil {
		return Stats{}, fmt.Errorf("list guild channels: %w", err)
	}

	var s Stats
	for _, ch := range channels {
		if !l.IsTicketChannel(ch.Name) {
			continue
		}
		s.Active++
		if l.registry.IsClaimed(ch.ID) {
			s.Claimed++
		}
	}
	s.Unclaimed = s.Active - s.Claimed
	return s, nil
}

// Wait blocks until all scheduled channel deletions have run.
func (l *Lifecycle) Wait() {
	l.wg.Wait()
}
