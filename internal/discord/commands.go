package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/codeGROOVE-dev/ticketeer/internal/format"
	"github.com/codeGROOVE-dev/ticketeer/internal/roleconfig"
	"github.com/codeGROOVE-dev/ticketeer/internal/ticket"
)

// DefaultCommandPrefix is the prefix commands must start with.
const DefaultCommandPrefix = "."

// commandTimeout bounds how long a single command may run.
const commandTimeout = 30 * time.Second

// commandContext carries everything a handler needs for one invocation.
type commandContext struct {
	session *discordgo.Session
	message *discordgo.MessageCreate
	args    []string
}

type commandFunc func(ctx context.Context, cc *commandContext)

// CommandRouter dispatches prefix commands to their handlers. The
// handler table is built once at construction and never mutated.
type CommandRouter struct {
	client    *Client
	lifecycle *ticket.Lifecycle
	roles     *roleconfig.Cache
	logger    *slog.Logger
	prefix    string
	handlers  map[string]commandFunc
}

// NewCommandRouter builds a router over the lifecycle and role config.
func NewCommandRouter(client *Client, lifecycle *ticket.Lifecycle, roles *roleconfig.Cache, prefix string, logger *slog.Logger) *CommandRouter {
	if prefix == "" {
		prefix = DefaultCommandPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &CommandRouter{
		client:    client,
		lifecycle: lifecycle,
		roles:     roles,
		logger:    logger,
		prefix:    prefix,
	}
	r.handlers = map[string]commandFunc{
		"help":        r.handleHelp,
		"setup":       r.adminOnly(r.handleSetup),
		"new":         r.handleNew,
		"close":       r.ticketOnly(r.handleClose),
		"claim":       r.ticketOnly(r.handleClaim),
		"unclaim":     r.ticketOnly(r.handleUnclaim),
		"add":         r.ticketOnly(r.handleAdd),
		"remove":      r.ticketOnly(r.handleRemove),
		"rename":      r.ticketOnly(r.handleRename),
		"stats":       r.handleStats,
		"ticketrole":  r.adminOnly(r.handleTicketRole),
		"ticketroles": r.adminOnly(r.handleTicketRoles),
	}
	return r
}

// Register attaches the router to the session's message events.
func (r *CommandRouter) Register(session *discordgo.Session) {
	session.AddHandler(r.HandleMessage)
}

// HandleMessage is the message-create entry point. Messages from bots
// and messages without the command prefix are ignored.
func (r *CommandRouter) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if !strings.HasPrefix(m.Content, r.prefix) {
		return
	}

	fields := strings.Fields(strings.TrimPrefix(m.Content, r.prefix))
	if len(fields) == 0 {
		return
	}
	name := strings.ToLower(fields[0])

	handler, ok := r.handlers[name]
	if !ok {
		return
	}

	r.logger.Info("command received",
		"command", name,
		"user_id", m.Author.ID,
		"channel_id", m.ChannelID,
		"guild_id", m.GuildID)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	handler(ctx, &commandContext{
		session: s,
		message: m,
		args:    fields[1:],
	})
}

// adminOnly rejects the command unless the author has administrator
// permission in the channel.
func (r *CommandRouter) adminOnly(next commandFunc) commandFunc {
	return func(ctx context.Context, cc *commandContext) {
		if !r.client.IsAdmin(cc.message.Author.ID, cc.message.ChannelID) {
			r.replyError(cc, "You need administrator permissions to use this command.")
			return
		}
		next(ctx, cc)
	}
}

// ticketOnly rejects the command outside ticket channels.
func (r *CommandRouter) ticketOnly(next commandFunc) commandFunc {
	return func(ctx context.Context, cc *commandContext) {
		name, err := r.client.ChannelName(ctx, cc.message.ChannelID)
		if err != nil || !r.lifecycle.IsTicketChannel(name) {
			r.replyError(cc, "This command can only be used in a ticket channel.")
			return
		}
		next(ctx, cc)
	}
}

func (r *CommandRouter) handleHelp(_ context.Context, cc *commandContext) {
	embed := &discordgo.MessageEmbed{
		Title:       "\U0001F3AB Ticket Bot Commands", // 🎫
		Color:       format.ColorInfo,
		Description: "All commands use the `" + r.prefix + "` prefix.",
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "General",
				Value: "`" + r.prefix + "new <type>` - Open a ticket (partnership, middleman, support)\n" +
					"`" + r.prefix + "stats` - Show ticket statistics\n" +
					"`" + r.prefix + "help` - Show this message",
			},
			{
				Name: "Inside a ticket",
				Value: "`" + r.prefix + "close` - Close the ticket\n" +
					"`" + r.prefix + "claim` - Claim the ticket\n" +
					"`" + r.prefix + "unclaim` - Release your claim\n" +
					"`" + r.prefix + "add <user>` - Add a user to the ticket\n" +
					"`" + r.prefix + "remove <user>` - Remove a user\n" +
					"`" + r.prefix + "rename <name>` - Rename the ticket",
			},
			{
				Name: "Admin",
				Value: "`" + r.prefix + "setup` - Post the ticket panel\n" +
					"`" + r.prefix + "ticketrole <type> <role>` - Set the ping role for a type\n" +
					"`" + r.prefix + "ticketroles` - List configured ping roles",
			},
		},
	}
	r.replyEmbed(cc, embed)
}

func (r *CommandRouter) handleSetup(_ context.Context, cc *commandContext) {
	embed := &discordgo.MessageEmbed{
		Title: "\U0001F3AB Support Tickets", // 🎫
		Description: "Click a button below to open a ticket.\n\n" +
			"\U0001F91D **Partnership** - Discuss partnership opportunities\n" +
			"⚖️ **Middleman** - Request middleman services\n" +
			"\U0001F3AB **Support** - Get help and support",
		Color: format.ColorInfo,
	}
	_, err := cc.session.ChannelMessageSendComplex(cc.message.ChannelID, &discordgo.MessageSend{
		Embed:      embed,
		Components: ticketPanelComponents(),
	})
	if err != nil {
		r.logger.Error("failed to post ticket panel",
			"channel_id", cc.message.ChannelID,
			"error", err)
		r.replyError(cc, "Failed to post the ticket panel.")
	}
}

func (r *CommandRouter) handleNew(ctx context.Context, cc *commandContext) {
	if len(cc.args) == 0 {
		r.replyError(cc, "Usage: `"+r.prefix+"new <partnership|middleman|support>`")
		return
	}

	channelID, err := r.lifecycle.OpenTicket(ctx, cc.message.GuildID, ticket.Member{
		ID:       cc.message.Author.ID,
		Username: cc.message.Author.Username,
	}, cc.args[0])
	if err != nil {
		r.replyLifecycleError(cc, err)
		return
	}
	r.replySuccess(cc, "✅ Ticket created! Head to <#"+channelID+">.") // ✅
}

func (r *CommandRouter) handleClose(_ context.Context, cc *commandContext) {
	embed := &discordgo.MessageEmbed{
		Title:       "⚠️ Close Ticket", // ⚠️
		Description: "Are you sure you want to close this ticket?",
		Color:       format.ColorMiddleman,
	}
	_, err := cc.session.ChannelMessageSendComplex(cc.message.ChannelID, &discordgo.MessageSend{
		Embed:      embed,
		Components: confirmCloseComponents(),
	})
	if err != nil {
		r.logger.Error("failed to post close confirmation",
			"channel_id", cc.message.ChannelID,
			"error", err)
	}
}

func (r *CommandRouter) handleClaim(ctx context.Context, cc *commandContext) {
	err := r.lifecycle.ClaimTicket(ctx, cc.message.ChannelID, cc.message.Author.ID)
	if err != nil {
		r.replyLifecycleError(cc, err)
		return
	}
	r.replySuccess(cc, "✅ Ticket claimed by "+format.UserMention(cc.message.Author.ID)+".") // ✅
}

func (r *CommandRouter) handleUnclaim(ctx context.Context, cc *commandContext) {
	admin := r.client.IsAdmin(cc.message.Author.ID, cc.message.ChannelID)
	err := r.lifecycle.UnclaimTicket(ctx, cc.message.ChannelID, cc.message.Author.ID, admin)
	if err != nil {
		r.replyLifecycleError(cc, err)
		return
	}
	r.replySuccess(cc, "✅ Ticket unclaimed.") // ✅
}

func (r *CommandRouter) handleAdd(ctx context.Context, cc *commandContext) {
	userID, ok := mentionedUserID(cc)
	if !ok {
		r.replyError(cc, "Usage: `"+r.prefix+"add @user`")
		return
	}
	if err := r.lifecycle.AddParticipant(ctx, cc.message.ChannelID, userID); err != nil {
		r.replyLifecycleError(cc, err)
		return
	}
	r.replySuccess(cc, "✅ Added "+format.UserMention(userID)+" to the ticket.") // ✅
}

func (r *CommandRouter) handleRemove(ctx context.Context, cc *commandContext) {
	userID, ok := mentionedUserID(cc)
	if !ok {
		r.replyError(cc, "Usage: `"+r.prefix+"remove @user`")
		return
	}
	if err := r.lifecycle.RemoveParticipant(ctx, cc.message.ChannelID, userID); err != nil {
		r.replyLifecycleError(cc, err)
		return
	}
	r.replySuccess(cc, "✅ Removed "+format.UserMention(userID)+" from the ticket.") // ✅
}

func (r *CommandRouter) handleRename(ctx context.Context, cc *commandContext) {
	if len(cc.args) == 0 {
		r.replyError(cc, "Usage: `"+r.prefix+"rename <new name>`")
		return
	}
	name, err := r.lifecycle.RenameTicket(ctx, cc.message.ChannelID, strings.Join(cc.args, " "))
	if err != nil {
		r.replyLifecycleError(cc, err)
		return
	}
	r.replySuccess(cc, "✅ Ticket renamed to `"+name+"`.") // ✅
}

func (r *CommandRouter) handleStats(ctx context.Context, cc *commandContext) {
	stats, err := r.lifecycle.Stats(ctx, cc.message.GuildID)
	if err != nil {
		r.replyLifecycleError(cc, err)
		return
	}
	embed := &discordgo.MessageEmbed{
		Title: "\U0001F4CA Ticket Statistics", // 📊
		Color: format.ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Active", Value: fmt.Sprintf("%d", stats.Active), Inline: true},
			{Name: "Claimed", Value: fmt.Sprintf("%d", stats.Claimed), Inline: true},
			{Name: "Unclaimed", Value: fmt.Sprintf("%d", stats.Unclaimed), Inline: true},
		},
	}
	r.replyEmbed(cc, embed)
}

func (r *CommandRouter) handleTicketRole(ctx context.Context, cc *commandContext) {
	roleID, ok := mentionedRoleID(cc)
	if len(cc.args) < 1 || !ok {
		r.replyError(cc, "Usage: `"+r.prefix+"ticketrole <partnership|middleman|support> @role`")
		return
	}

	outcome, err := r.roles.Set(ctx, cc.message.GuildID, cc.args[0], roleID)
	if err != nil {
		r.replyLifecycleError(cc, err)
		return
	}

	meta, _ := format.TypeInfo(strings.ToLower(cc.args[0]))
	msg := "✅ " + format.RoleMention(roleID) + " will be pinged for new **" + meta.Name + "** tickets." // ✅
	if outcome == roleconfig.CachedOnly {
		msg += "\n⚠️ Saved in memory only; the database is unavailable." // ⚠️
	}
	r.replySuccess(cc, msg)
}

func (r *CommandRouter) handleTicketRoles(_ context.Context, cc *commandContext) {
	mappings := r.roles.Guild(cc.message.GuildID)

	var lines []string
	for _, t := range ticket.Types() {
		meta, _ := format.TypeInfo(string(t))
		if roleID, ok := mappings[t]; ok {
			lines = append(lines, meta.Emoji+" **"+meta.Name+"**: "+format.RoleMention(roleID))
		} else {
			lines = append(lines, meta.Emoji+" **"+meta.Name+"**: not set")
		}
	}

	embed := &discordgo.MessageEmbed{
		Title:       "\U0001F514 Ticket Ping Roles", // 🔔
		Description: strings.Join(lines, "\n"),
		Color:       format.ColorInfo,
	}
	r.replyEmbed(cc, embed)
}

// replyLifecycleError translates lifecycle errors into user-facing text.
func (r *CommandRouter) replyLifecycleError(cc *commandContext, err error) {
	switch {
	case errors.Is(err, ticket.ErrInvalidTicketType):
		r.replyError(cc, "Unknown ticket type. Valid types: partnership, middleman, support.")
	case errors.Is(err, ticket.ErrAlreadyClaimed):
		r.replyError(cc, "This ticket is already claimed.")
	case errors.Is(err, ticket.ErrNotClaimed):
		r.replyError(cc, "This ticket is not claimed.")
	case errors.Is(err, ticket.ErrUnauthorized):
		r.replyError(cc, "Only the claimer or an administrator can do that.")
	case errors.Is(err, ticket.ErrPermissionDenied):
		r.replyError(cc, "I don't have permission to do that. Check my role settings.")
	case errors.Is(err, ticket.ErrNotFound):
		r.replyError(cc, "That channel or user no longer exists.")
	default:
		r.logger.Error("command failed",
			"channel_id", cc.message.ChannelID,
			"error", err)
		r.replyError(cc, "Something went wrong. Please try again.")
	}
}

func (r *CommandRouter) replySuccess(cc *commandContext, text string) {
	r.replyEmbed(cc, successEmbed(text))
}

func (r *CommandRouter) replyError(cc *commandContext, text string) {
	embed := &discordgo.MessageEmbed{
		Description: "❌ " + text, // ❌
		Color:       format.ColorError,
	}
	r.replyEmbed(cc, embed)
}

func (r *CommandRouter) replyEmbed(cc *commandContext, embed *discordgo.MessageEmbed) {
	_, err := cc.session.ChannelMessageSendComplex(cc.message.ChannelID, &discordgo.MessageSend{
		Embed:     embed,
		Reference: cc.message.Reference(),
	})
	if err != nil {
		r.logger.Warn("failed to send reply",
			"channel_id", cc.message.ChannelID,
			"error", err)
	}
}

// mentionedUserID extracts the first mentioned user from the message.
func mentionedUserID(cc *commandContext) (string, bool) {
	if len(cc.message.Mentions) > 0 {
		return cc.message.Mentions[0].ID, true
	}
	return "", false
}

// mentionedRoleID extracts the first mentioned role from the message.
func mentionedRoleID(cc *commandContext) (string, bool) {
	if len(cc.message.MentionRoles) > 0 {
		return cc.message.MentionRoles[0], true
	}
	return "", false
}
