package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewReportHandler returns a handler for the /report command, which
// renders the full summary over the configured window.
func NewReportHandler(deps HandlerDeps) bot.HandlerFunc {
	return reportHandler{deps}.Handle
}

type reportHandler struct {
	deps HandlerDeps
}

func (h reportHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "report")

	if !validMessage(update) {
		log.WarnContext(ctx, "Report handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /report command", "chat_id", chatID)

	text, err := h.deps.Report.DailyReport(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to build report", "chat_id", chatID, "error", err)
		reply(ctx, log, b, update, "Could not build the report, try again later.")
		return
	}

	reply(ctx, log, b, update, text)
}
