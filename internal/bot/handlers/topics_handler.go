package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/chatpulse/chatpulse/internal/report"
)

// NewTopicsHandler returns a handler for the /topics command.
func NewTopicsHandler(deps HandlerDeps) bot.HandlerFunc {
	return topicsHandler{deps}.Handle
}

type topicsHandler struct {
	deps HandlerDeps
}

func (h topicsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "topics")

	if !validMessage(update) {
		log.WarnContext(ctx, "Topics handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	stats, err := h.deps.Report.TopicDistribution(ctx, chatID, h.deps.Report.WindowDays())
	if err != nil {
		log.ErrorContext(ctx, "Failed to load topic distribution", "chat_id", chatID, "error", err)
		reply(ctx, log, b, update, "Could not load topics, try again later.")
		return
	}

	reply(ctx, log, b, update, report.FormatTopics(stats))
}
