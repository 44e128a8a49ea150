package discord

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/codeGROOVE-dev/ticketeer/internal/ticket"
)

// Component custom IDs. The open buttons carry the ticket type after
// the prefix, e.g. "ticket_support".
const (
	customIDOpenPrefix   = "ticket_"
	customIDConfirmClose = "confirm_close"
	customIDCancelClose  = "cancel_close"
)

// interactionTimeout bounds how long a button press may run.
const interactionTimeout = 30 * time.Second

// ButtonHandler reacts to component interactions from the ticket panel
// and the close confirmation prompt.
type ButtonHandler struct {
	lifecycle *ticket.Lifecycle
	logger    *slog.Logger
}

// NewButtonHandler builds a handler over the lifecycle.
func NewButtonHandler(lifecycle *ticket.Lifecycle, logger *slog.Logger) *ButtonHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ButtonHandler{lifecycle: lifecycle, logger: logger}
}

// Register attaches the handler to the session's interaction events.
func (h *ButtonHandler) Register(session *discordgo.Session) {
	session.AddHandler(h.HandleInteraction)
}

// HandleInteraction is the interaction-create entry point.
func (h *ButtonHandler) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	if i.Member == nil || i.Member.User == nil {
		return
	}

	customID := i.MessageComponentData().CustomID
	h.logger.Info("button pressed",
		"custom_id", customID,
		"user_id", i.Member.User.ID,
		"channel_id", i.ChannelID,
		"guild_id", i.GuildID)

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	switch {
	case customID == customIDConfirmClose:
		h.handleConfirmClose(ctx, s, i)
	case customID == customIDCancelClose:
		h.handleCancelClose(s, i)
	case strings.HasPrefix(customID, customIDOpenPrefix):
		h.handleOpen(ctx, s, i, strings.TrimPrefix(customID, customIDOpenPrefix))
	}
}

// handleOpen creates a ticket for the pressing user. The response is
// deferred ephemerally first so slow channel creation cannot outrun the
// interaction deadline.
func (h *ButtonHandler) handleOpen(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, rawType string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		h.logger.Warn("failed to defer interaction", "error", err)
		return
	}

	channelID, err := h.lifecycle.OpenTicket(ctx, i.GuildID, ticket.Member{
		ID:       i.Member.User.ID,
		Username: i.Member.User.Username,
	}, rawType)

	var content string
	switch {
	case err == nil:
		content = "✅ Ticket created! Head to <#" + channelID + ">." // ✅
	case errors.Is(err, ticket.ErrPermissionDenied):
		content = "❌ I don't have permission to create channels here." // ❌
	case errors.Is(err, ticket.ErrInvalidTicketType):
		content = "❌ Unknown ticket type." // ❌
	default:
		h.logger.Error("failed to open ticket from button",
			"guild_id", i.GuildID,
			"user_id", i.Member.User.ID,
			"error", err)
		content = "❌ Failed to create the ticket. Please try again." // ❌
	}

	if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	}); err != nil {
		h.logger.Warn("failed to send followup", "error", err)
	}
}

// handleConfirmClose acknowledges the press and runs the close flow on
// the channel the prompt lives in.
func (h *ButtonHandler) handleConfirmClose(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		h.logger.Warn("failed to acknowledge close button", "error", err)
	}

	if err := h.lifecycle.CloseTicket(ctx, i.GuildID, i.ChannelID, i.Member.User.ID); err != nil {
		h.logger.Error("failed to close ticket from button",
			"channel_id", i.ChannelID,
			"error", err)
	}
}

// handleCancelClose replaces the confirmation prompt with a cancellation
// note and removes the buttons.
func (h *ButtonHandler) handleCancelClose(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    "Ticket closure cancelled.",
			Embeds:     []*discordgo.MessageEmbed{},
			Components: []discordgo.MessageComponent{},
		},
	})
	if err != nil {
		h.logger.Warn("failed to cancel close prompt", "error", err)
	}
}
