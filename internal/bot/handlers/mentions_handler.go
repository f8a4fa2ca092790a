package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/chatpulse/chatpulse/internal/report"
)

// NewMentionsHandler returns a handler for the /mentions command.
func NewMentionsHandler(deps HandlerDeps) bot.HandlerFunc {
	return mentionsHandler{deps}.Handle
}

type mentionsHandler struct {
	deps HandlerDeps
}

func (h mentionsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "mentions")

	if !validMessage(update) {
		log.WarnContext(ctx, "Mentions handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	stats, err := h.deps.Report.MentionStats(ctx, chatID, h.deps.Report.WindowDays())
	if err != nil {
		log.ErrorContext(ctx, "Failed to load mention stats", "chat_id", chatID, "error", err)
		reply(ctx, log, b, update, "Could not load mention stats, try again later.")
		return
	}

	reply(ctx, log, b, update, report.FormatMentions(stats))
}
