package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/chatpulse/chatpulse/internal/report"
)

// NewActivityHandler returns a handler for the /activity command.
func NewActivityHandler(deps HandlerDeps) bot.HandlerFunc {
	return activityHandler{deps}.Handle
}

type activityHandler struct {
	deps HandlerDeps
}

func (h activityHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "activity")

	if !validMessage(update) {
		log.WarnContext(ctx, "Activity handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	stats, err := h.deps.Report.ActivityStats(ctx, chatID, h.deps.Report.WindowDays())
	if err != nil {
		log.ErrorContext(ctx, "Failed to load activity stats", "chat_id", chatID, "error", err)
		reply(ctx, log, b, update, "Could not load activity stats, try again later.")
		return
	}

	reply(ctx, log, b, update, report.FormatActivity(stats))
}
