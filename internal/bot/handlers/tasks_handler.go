package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/chatpulse/chatpulse/internal/report"
)

// NewTasksHandler returns a handler for the /tasks command: pending tasks
// plus status counts for the window.
func NewTasksHandler(deps HandlerDeps) bot.HandlerFunc {
	return tasksHandler{deps}.Handle
}

type tasksHandler struct {
	deps HandlerDeps
}

func (h tasksHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "tasks")

	if !validMessage(update) {
		log.WarnContext(ctx, "Tasks handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID

	stats, err := h.deps.Report.TaskStats(ctx, chatID, h.deps.Report.WindowDays())
	if err != nil {
		log.ErrorContext(ctx, "Failed to load task stats", "chat_id", chatID, "error", err)
		reply(ctx, log, b, update, "Could not load tasks, try again later.")
		return
	}
	pending, err := h.deps.Report.PendingTasks(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load pending tasks", "chat_id", chatID, "error", err)
		reply(ctx, log, b, update, "Could not load tasks, try again later.")
		return
	}

	var text strings.Builder
	text.WriteString(report.FormatTaskStats(stats))
	text.WriteString("\n")
	text.WriteString(report.FormatPendingTasks(pending, h.deps.Location))
	reply(ctx, log, b, update, text.String())
}
