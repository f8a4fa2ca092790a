package handlers

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewTaskDoneHandler returns a handler for the /task_done command. The
// command must be sent as a reply to the message that created the task;
// completion is always this explicit action, never automatic.
func NewTaskDoneHandler(deps HandlerDeps) bot.HandlerFunc {
	return taskDoneHandler{deps}.Handle
}

type taskDoneHandler struct {
	deps HandlerDeps
}

func (h taskDoneHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "task_done")

	if !validMessage(update) {
		log.WarnContext(ctx, "Task done handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	msg := update.Message
	if msg.ReplyToMessage == nil {
		reply(ctx, log, b, update, "Reply to the message that created the task with /task_done.")
		return
	}

	chatID := msg.Chat.ID
	task, err := h.deps.Store.FindPendingTaskForReply(ctx, chatID, int64(msg.ReplyToMessage.ID), msg.From.ID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to look up task", "chat_id", chatID, "error", err)
		reply(ctx, log, b, update, "Could not look up the task, try again later.")
		return
	}
	if task == nil {
		reply(ctx, log, b, update, "No pending task found for that message.")
		return
	}

	completed, err := h.deps.Store.CompleteTask(ctx, task.ID, time.Now().UTC().Unix())
	if err != nil {
		log.ErrorContext(ctx, "Failed to complete task", "chat_id", chatID, "task_id", task.ID, "error", err)
		reply(ctx, log, b, update, "Could not complete the task, try again later.")
		return
	}
	if !completed {
		reply(ctx, log, b, update, "That task was already completed.")
		return
	}

	log.InfoContext(ctx, "Task completed via command", "chat_id", chatID, "task_id", task.ID, "user_id", msg.From.ID)
	reply(ctx, log, b, update, "✅ Task marked as completed: "+task.TaskText)
}
