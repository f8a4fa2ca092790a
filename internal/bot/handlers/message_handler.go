package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/chatpulse/chatpulse/internal/ingest"
)

// NewMessageHandler returns the default handler: every non-command
// message is turned into an event and offered to the update gateway. The
// handler returns as soon as the gateway has accepted or dropped the
// event; ingestion itself runs off this path.
func NewMessageHandler(deps HandlerDeps) bot.HandlerFunc {
	return messageHandler{deps}.Handle
}

type messageHandler struct {
	deps HandlerDeps
}

func (h messageHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "message")

	if update.EditedMessage != nil {
		edited := update.EditedMessage
		result := h.deps.Gateway.AcceptEdit(update.ID, int64(edited.ID), edited.Chat.ID, int64(edited.EditDate))
		log.DebugContext(ctx, "Edit event handled",
			"update_id", update.ID, "chat_id", edited.Chat.ID, "result", result)
		return
	}

	if update.Message == nil || update.Message.From == nil {
		return
	}

	msg := update.Message
	event := ingest.Event{
		MessageID:       int64(msg.ID),
		ChatID:          msg.Chat.ID,
		AuthorID:        msg.From.ID,
		AuthorHandle:    msg.From.Username,
		AuthorFirstName: msg.From.FirstName,
		AuthorLastName:  msg.From.LastName,
		Text:            msg.Text,
		Timestamp:       int64(msg.Date),
	}
	if msg.ReplyToMessage != nil {
		event.ReplyToMessageID = int64(msg.ReplyToMessage.ID)
	}
	if msg.ForwardOrigin != nil && msg.ForwardOrigin.MessageOriginUser != nil {
		event.ForwardedFromID = msg.ForwardOrigin.MessageOriginUser.SenderUser.ID
	}

	result := h.deps.Gateway.Accept(update.ID, event)
	log.DebugContext(ctx, "Message event handled",
		"update_id", update.ID, "chat_id", event.ChatID, "message_id", event.MessageID, "result", result)
}
