package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/chatpulse/chatpulse/internal/analyzer"
	"github.com/chatpulse/chatpulse/internal/database"
)

// Event is one inbound unit of work as delivered by the transport.
// Optional fields are zero when the platform did not supply them.
type Event struct {
	MessageID       int64
	ChatID          int64
	AuthorID        int64
	AuthorHandle    string
	AuthorFirstName string
	AuthorLastName  string
	Text            string
	Timestamp       int64

	ReplyToMessageID int64
	ForwardedFromID  int64
}

// Pipeline normalizes one event into a canonical message record, writes
// it through the store, and derives signals from the text. It performs no
// network I/O.
type Pipeline struct {
	store  database.Store
	logger *slog.Logger
}

// NewPipeline creates a Pipeline over the given store.
func NewPipeline(store database.Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{
		store:  store,
		logger: logger.With("component", "pipeline"),
	}
}

// Ingest processes one event and returns the stored message's id.
//
// The canonical message write and the activity counter update are the
// ingestion proper: a failure in either is returned to the caller as a
// retryable ingestion failure. Signal derivation (mentions, tasks, task
// responses, topics) is best effort on top; its failures are logged and
// swallowed, and the message still counts as ingested.
//
// Re-ingesting an already stored (message_id, chat_id) returns the
// existing id without re-deriving signals, so duplicate deliveries never
// double-count anything.
func (p *Pipeline) Ingest(ctx context.Context, event Event) (int64, error) {
	if event.ChatID == 0 || event.MessageID == 0 {
		return 0, fmt.Errorf("event missing chat_id or message_id")
	}
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UTC().Unix()
	}

	message := p.normalize(event)

	created, err := p.store.UpsertMessage(ctx, message)
	if err != nil {
		return 0, fmt.Errorf("failed to store message: %w", err)
	}
	if !created {
		return message.ID, nil
	}

	if err := p.store.RecordUserActivity(ctx, event.AuthorID, event.ChatID, event.Timestamp); err != nil {
		return 0, fmt.Errorf("failed to record activity: %w", err)
	}

	p.deriveSignals(ctx, message, event)

	return message.ID, nil
}

// MarkEdited records an edit reported by the platform for an already
// stored message. Signals are not re-derived; the original text stands.
func (p *Pipeline) MarkEdited(ctx context.Context, messageID, chatID, editedAt int64) error {
	if editedAt == 0 {
		editedAt = time.Now().UTC().Unix()
	}
	return p.store.MarkMessageEdited(ctx, messageID, chatID, editedAt)
}

// normalize builds the canonical message record for an event.
func (p *Pipeline) normalize(event Event) *database.Message {
	message := &database.Message{
		MessageID:   event.MessageID,
		ChatID:      event.ChatID,
		UserID:      event.AuthorID,
		DisplayName: displayName(event),
		Content:     event.Text,
		Timestamp:   event.Timestamp,
	}

	if event.AuthorHandle != "" {
		message.Username = sql.NullString{String: event.AuthorHandle, Valid: true}
	}
	if event.AuthorFirstName != "" {
		message.FirstName = sql.NullString{String: event.AuthorFirstName, Valid: true}
	}
	if event.AuthorLastName != "" {
		message.LastName = sql.NullString{String: event.AuthorLastName, Valid: true}
	}
	if event.ReplyToMessageID != 0 {
		message.ReplyToMessageID = sql.NullInt64{Int64: event.ReplyToMessageID, Valid: true}
	}
	if event.ForwardedFromID != 0 {
		message.ForwardFromUserID = sql.NullInt64{Int64: event.ForwardedFromID, Valid: true}
	}

	return message
}

// displayName resolves a human-readable label for the author: handle,
// else first plus last name, else first name, else a synthesized label.
func displayName(event Event) string {
	switch {
	case event.AuthorHandle != "":
		return event.AuthorHandle
	case event.AuthorFirstName != "" && event.AuthorLastName != "":
		return event.AuthorFirstName + " " + event.AuthorLastName
	case event.AuthorFirstName != "":
		return event.AuthorFirstName
	default:
		return fmt.Sprintf("user #%d", event.AuthorID)
	}
}

// deriveSignals extracts and persists mentions, tasks, task responses and
// topics for a freshly stored message. Every step is independent; one
// failing does not stop the others.
func (p *Pipeline) deriveSignals(ctx context.Context, message *database.Message, event Event) {
	if strings.TrimSpace(event.Text) == "" {
		return
	}

	p.saveMentions(ctx, message)
	p.saveTasks(ctx, message, event)
	p.saveTaskResponse(ctx, message, event)
	p.saveTopics(ctx, message)
}

func (p *Pipeline) saveMentions(ctx context.Context, message *database.Message) {
	extracted := analyzer.ExtractMentions(message.Content)
	if len(extracted) == 0 {
		return
	}

	mentions := make([]database.Mention, 0, len(extracted))
	for _, mention := range extracted {
		kind := database.MentionTypeUsername
		if mention.Kind == analyzer.MentionKindFullName {
			kind = database.MentionTypeFullName
		}
		mentions = append(mentions, database.Mention{
			MessageID:         message.ID,
			MentionedUsername: mention.Username,
			MentionType:       kind,
		})
	}

	if err := p.store.SaveMentions(ctx, mentions); err != nil {
		p.logger.ErrorContext(ctx, "Failed to save mentions, continuing",
			"chat_id", message.ChatID, "message_id", message.MessageID, "error", err)
	}
}

func (p *Pipeline) saveTasks(ctx context.Context, message *database.Message, event Event) {
	candidates := analyzer.ExtractTasks(message.Content, message.Time())
	for _, candidate := range candidates {
		task := &database.Task{
			MessageID:        message.ID,
			ChatID:           message.ChatID,
			AssignedByUserID: event.AuthorID,
			TaskText:         candidate.Text,
			Status:           database.TaskStatusPending,
			Priority:         candidate.Priority,
		}
		if candidate.Deadline != nil {
			task.Deadline = sql.NullInt64{Int64: candidate.Deadline.Unix(), Valid: true}
		}
		if candidate.Assignee != "" {
			task.AssignedToUsername = sql.NullString{String: candidate.Assignee, Valid: true}

			assigneeID, err := p.store.FindUserIDByUsername(ctx, message.ChatID, candidate.Assignee)
			if err != nil {
				p.logger.WarnContext(ctx, "Failed to resolve task assignee, leaving pending",
					"chat_id", message.ChatID, "assignee", candidate.Assignee, "error", err)
			} else if assigneeID != 0 {
				task.AssignedToUserID = sql.NullInt64{Int64: assigneeID, Valid: true}
			}
		}

		if err := p.store.SaveTask(ctx, task); err != nil {
			p.logger.ErrorContext(ctx, "Failed to save task, continuing",
				"chat_id", message.ChatID, "message_id", message.MessageID, "error", err)
		}
	}
}

// saveTaskResponse links a reply to the pending task its target message
// created, when there is one.
func (p *Pipeline) saveTaskResponse(ctx context.Context, message *database.Message, event Event) {
	if event.ReplyToMessageID == 0 {
		return
	}

	task, err := p.store.FindPendingTaskForReply(ctx, message.ChatID, event.ReplyToMessageID, event.AuthorID)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to look up task for reply, continuing",
			"chat_id", message.ChatID, "reply_to", event.ReplyToMessageID, "error", err)
		return
	}
	if task == nil {
		return
	}

	response := &database.TaskResponse{
		TaskID:            task.ID,
		ResponseMessageID: message.ID,
		ResponseUserID:    event.AuthorID,
		ResponseText:      message.Content,
		ResponseType:      "reply",
	}
	if err := p.store.SaveTaskResponse(ctx, response); err != nil {
		p.logger.ErrorContext(ctx, "Failed to save task response, continuing",
			"chat_id", message.ChatID, "task_id", task.ID, "error", err)
	}
}

func (p *Pipeline) saveTopics(ctx context.Context, message *database.Message) {
	scores := analyzer.DetectTopics(message.Content)
	if len(scores) == 0 {
		return
	}

	topics := make([]database.MessageTopic, 0, len(scores))
	for _, score := range scores {
		topics = append(topics, database.MessageTopic{
			MessageID:  message.ID,
			Topic:      score.Topic,
			Confidence: score.Score,
		})
	}

	if err := p.store.SaveMessageTopics(ctx, topics); err != nil {
		p.logger.ErrorContext(ctx, "Failed to save message topics, continuing",
			"chat_id", message.ChatID, "message_id", message.MessageID, "error", err)
	}
}
