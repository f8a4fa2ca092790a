package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/chatpulse/chatpulse/internal/report"
)

// NewTemperatureHandler returns a handler for the /temperature command.
func NewTemperatureHandler(deps HandlerDeps) bot.HandlerFunc {
	return temperatureHandler{deps}.Handle
}

type temperatureHandler struct {
	deps HandlerDeps
}

func (h temperatureHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "temperature")

	if !validMessage(update) {
		log.WarnContext(ctx, "Temperature handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	result, err := h.deps.Report.Temperature(ctx, chatID, h.deps.Report.WindowDays())
	if err != nil {
		log.ErrorContext(ctx, "Failed to compute temperature", "chat_id", chatID, "error", err)
		reply(ctx, log, b, update, "Could not compute the temperature, try again later.")
		return
	}

	reply(ctx, log, b, update, report.FormatTemperature(result))
}
