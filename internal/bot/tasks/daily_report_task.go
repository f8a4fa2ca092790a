package tasks

import (
	"context"
	"fmt"
	"time"

	tgbot "github.com/go-telegram/bot"
)

// newDailyReportTask creates the scheduled task that posts a summary
// report to every monitored chat. A chat failing does not stop the
// others; the task reports how many sends failed.
func newDailyReportTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "daily_report")

	return func(ctx context.Context) error {
		startTime := time.Now()

		chatIDs, err := deps.Store.GetMonitoredChats(ctx)
		if err != nil {
			log.ErrorContext(ctx, "Failed to list monitored chats", "error", err)
			return fmt.Errorf("failed to list monitored chats: %w", err)
		}
		if len(chatIDs) == 0 {
			log.InfoContext(ctx, "No monitored chats, skipping daily report")
			return nil
		}

		failed := 0
		for _, chatID := range chatIDs {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			text, err := deps.Report.DailyReport(ctx, chatID)
			if err != nil {
				log.ErrorContext(ctx, "Failed to build report for chat", "chat_id", chatID, "error", err)
				failed++
				continue
			}

			_, err = deps.TgBot.SendMessage(ctx, &tgbot.SendMessageParams{
				ChatID: chatID,
				Text:   text,
			})
			if err != nil {
				log.ErrorContext(ctx, "Failed to send report to chat", "chat_id", chatID, "error", err)
				failed++
			}
		}

		log.InfoContext(ctx, "Daily report task finished",
			"chats", len(chatIDs), "failed", failed, "duration", time.Since(startTime))
		if failed == len(chatIDs) {
			return fmt.Errorf("daily report failed for all %d chats", failed)
		}
		return nil
	}
}
