package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewHelpHandler returns a handler for the /help command.
func NewHelpHandler(deps HandlerDeps) bot.HandlerFunc {
	return helpHandler{deps}.Handle
}

type helpHandler struct {
	deps HandlerDeps
}

const helpText = `Available commands:
/report - full chat summary for the configured window
/activity - who posted the most
/mentions - who got mentioned the most
/tasks - pending tasks and task counts
/topics - what the chat talked about
/temperature - how heated the conversation is
/task_done - reply to a task message to mark it completed
/help - this message`

func (h helpHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "help")

	if !validMessage(update) {
		log.WarnContext(ctx, "Help handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	reply(ctx, log, b, update, helpText)
}
