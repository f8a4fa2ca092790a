package handlers

import (
	"context"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// reply sends text back to the chat the update came from.
func reply(ctx context.Context, log *slog.Logger, b *tgbot.Bot, update *models.Update, text string) {
	_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", update.Message.Chat.ID)
	}
}

// validMessage reports whether the update carries a message with a sender.
func validMessage(update *models.Update) bool {
	return update.Message != nil && update.Message.From != nil
}
