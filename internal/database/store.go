package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations. Methods accept
// context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// UpsertMessage inserts a message by its natural key
	// (message_id, chat_id). If a row with the same key already exists,
	// no new row is created; the existing surrogate id is loaded into
	// message.ID. Returns true when a new row was inserted.
	UpsertMessage(ctx context.Context, message *Message) (bool, error)

	// MarkMessageEdited flags a message as edited when the platform
	// reports an edit.
	MarkMessageEdited(ctx context.Context, messageID, chatID, editedAt int64) error

	// SaveMentions inserts mention records in one transaction.
	SaveMentions(ctx context.Context, mentions []Mention) error

	// SaveTask inserts a new task record.
	SaveTask(ctx context.Context, task *Task) error

	// SaveTaskResponse appends a response record to a task.
	SaveTaskResponse(ctx context.Context, response *TaskResponse) error

	// SaveMessageTopics inserts derived topic records in one transaction.
	SaveMessageTopics(ctx context.Context, topics []MessageTopic) error

	// RecordUserActivity upserts the per-user daily counter row for the
	// message time: created with count 1, or atomically incremented.
	RecordUserActivity(ctx context.Context, userID, chatID, messageTS int64) error

	// FindUserIDByUsername resolves a username to the user id that most
	// recently posted under it in the chat. Returns 0 when unknown.
	FindUserIDByUsername(ctx context.Context, chatID int64, username string) (int64, error)

	// FindPendingTaskForReply locates the pending task created by the
	// message a reply points at. Returns nil, nil when there is none.
	FindPendingTaskForReply(ctx context.Context, chatID, replyToMessageID, responderID int64) (*Task, error)

	// CompleteTask transitions a task from pending to completed. The
	// transition happens at most once; the return value reports whether
	// this call performed it.
	CompleteTask(ctx context.Context, taskID, completedAt int64) (bool, error)

	// GetMessagesForPeriod retrieves messages for a chat within the
	// lookback window, newest first.
	GetMessagesForPeriod(ctx context.Context, chatID int64, days int) ([]*Message, error)

	// GetActivityStats returns the per-user activity leaderboard for the
	// window, ordered by message count descending.
	GetActivityStats(ctx context.Context, chatID int64, days int) ([]ActivityStat, error)

	// GetMentionStats returns mention counts per mentioned identity for
	// messages in the window, ordered descending.
	GetMentionStats(ctx context.Context, chatID int64, days int) ([]MentionStat, error)

	// GetTaskStats returns task counts by status plus the overdue count
	// for the window.
	GetTaskStats(ctx context.Context, chatID int64, days int) (TaskStats, error)

	// GetPendingTasks lists pending tasks for a chat, newest first.
	GetPendingTasks(ctx context.Context, chatID int64) ([]*Task, error)

	// GetTopicDistribution counts messages in the window whose stored
	// topic confidence exceeds threshold, per topic, ordered descending.
	GetTopicDistribution(ctx context.Context, chatID int64, days int, threshold float64) ([]TopicStat, error)

	// GetMonitoredChats lists all chat ids that have at least one stored
	// message, busiest first.
	GetMonitoredChats(ctx context.Context) ([]int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func windowCutoff(days int) int64 {
	return time.Now().UTC().AddDate(0, 0, -days).Unix()
}

// UpsertMessage inserts a message by its natural key (message_id, chat_id).
// Re-ingesting the same platform message is a no-op: the existing row id is
// returned instead of a duplicate row being created.
func (s *sqlxStore) UpsertMessage(ctx context.Context, message *Message) (bool, error) {
	if message == nil {
		return false, fmt.Errorf("cannot save nil message")
	}
	if message.ChatID == 0 {
		return false, fmt.Errorf("message must have a non-zero chat_id")
	}
	if message.MessageID == 0 {
		return false, fmt.Errorf("message must have a non-zero message_id")
	}
	if message.Timestamp == 0 {
		return false, fmt.Errorf("message must have a non-zero timestamp")
	}

	now := time.Now().UTC().Unix()
	message.CreatedAt = now
	message.UpdatedAt = now

	query := `
        INSERT INTO messages (
            message_id, chat_id, user_id, username, first_name, last_name, display_name,
            content, timestamp, reply_to_message_id, forward_from_user_id,
            is_edited, edited_at, created_at, updated_at
        ) VALUES (
            :message_id, :chat_id, :user_id, :username, :first_name, :last_name, :display_name,
            :content, :timestamp, :reply_to_message_id, :forward_from_user_id,
            :is_edited, :edited_at, :created_at, :updated_at
        )
        ON CONFLICT (message_id, chat_id) DO NOTHING;
    `

	result, err := s.db.NamedExecContext(ctx, query, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving message",
			"chat_id", message.ChatID, "message_id", message.MessageID, "error", err)
		return false, fmt.Errorf("failed to save message (chat %d, msg %d): %w", message.ChatID, message.MessageID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows after saving message: %w", err)
	}

	if affected == 0 {
		// Duplicate delivery: load the surrogate id of the existing row.
		var existingID int64
		err := s.db.GetContext(ctx, &existingID,
			`SELECT id FROM messages WHERE message_id = ? AND chat_id = ?`,
			message.MessageID, message.ChatID)
		if err != nil {
			s.logger.ErrorContext(ctx, "Error loading existing message after conflict",
				"chat_id", message.ChatID, "message_id", message.MessageID, "error", err)
			return false, fmt.Errorf("failed to load existing message (chat %d, msg %d): %w",
				message.ChatID, message.MessageID, err)
		}
		message.ID = existingID
		s.logger.DebugContext(ctx, "Message already stored, skipping insert",
			"chat_id", message.ChatID, "message_id", message.MessageID, "id", existingID)
		return false, nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving message",
			"chat_id", message.ChatID, "message_id", message.MessageID, "error", err)
	} else {
		message.ID = id
	}

	s.logger.DebugContext(ctx, "Message saved successfully",
		"chat_id", message.ChatID, "message_id", message.MessageID, "id", message.ID)
	return true, nil
}

// MarkMessageEdited flags a message as edited and records the edit time.
func (s *sqlxStore) MarkMessageEdited(ctx context.Context, messageID, chatID, editedAt int64) error {
	query := `
        UPDATE messages
        SET is_edited = TRUE, edited_at = ?, updated_at = ?
        WHERE message_id = ? AND chat_id = ?;
    `
	_, err := s.db.ExecContext(ctx, query, editedAt, time.Now().UTC().Unix(), messageID, chatID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error marking message as edited",
			"chat_id", chatID, "message_id", messageID, "error", err)
		return fmt.Errorf("failed to mark message %d as edited: %w", messageID, err)
	}
	return nil
}

// SaveMentions inserts mention records within a single transaction.
func (s *sqlxStore) SaveMentions(ctx context.Context, mentions []Mention) error {
	if len(mentions) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for saving mentions", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	query := `
        INSERT INTO mentions (message_id, mentioned_username, mention_type, created_at)
        VALUES (:message_id, :mentioned_username, :mention_type, :created_at);
    `
	now := time.Now().UTC().Unix()
	for i := range mentions {
		if mentions[i].CreatedAt == 0 {
			mentions[i].CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, query, &mentions[i]); err != nil {
			s.logger.ErrorContext(ctx, "Error saving mention",
				"message_id", mentions[i].MessageID, "username", mentions[i].MentionedUsername, "error", err)
			return fmt.Errorf("failed to save mention of %q: %w", mentions[i].MentionedUsername, err)
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit mentions transaction", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Mentions saved successfully", "count", len(mentions))
	return nil
}

// SaveTask inserts a new task record.
func (s *sqlxStore) SaveTask(ctx context.Context, task *Task) error {
	if task == nil {
		return fmt.Errorf("cannot save nil task")
	}
	if task.TaskText == "" {
		return fmt.Errorf("task must have non-empty text")
	}
	if task.Status == "" {
		task.Status = TaskStatusPending
	}
	if task.Priority == "" {
		task.Priority = TaskPriorityLow
	}
	if task.CreatedAt == 0 {
		task.CreatedAt = time.Now().UTC().Unix()
	}

	query := `
        INSERT INTO tasks (
            message_id, chat_id, assigned_by_user_id, assigned_to_user_id, assigned_to_username,
            task_text, status, priority, deadline, created_at, completed_at
        ) VALUES (
            :message_id, :chat_id, :assigned_by_user_id, :assigned_to_user_id, :assigned_to_username,
            :task_text, :status, :priority, :deadline, :created_at, :completed_at
        );
    `
	result, err := s.db.NamedExecContext(ctx, query, task)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving task",
			"chat_id", task.ChatID, "message_id", task.MessageID, "error", err)
		return fmt.Errorf("failed to save task (chat %d): %w", task.ChatID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		task.ID = id
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving task",
			"chat_id", task.ChatID, "error", err)
	}

	s.logger.DebugContext(ctx, "Task saved successfully",
		"chat_id", task.ChatID, "task_id", task.ID, "priority", task.Priority)
	return nil
}

// SaveTaskResponse appends a response record to a task.
func (s *sqlxStore) SaveTaskResponse(ctx context.Context, response *TaskResponse) error {
	if response == nil {
		return fmt.Errorf("cannot save nil task response")
	}
	if response.TaskID == 0 {
		return fmt.Errorf("task response must reference a task")
	}
	if response.ResponseType == "" {
		response.ResponseType = "reply"
	}
	if response.CreatedAt == 0 {
		response.CreatedAt = time.Now().UTC().Unix()
	}

	query := `
        INSERT INTO task_responses (task_id, response_message_id, response_user_id, response_text, response_type, created_at)
        VALUES (:task_id, :response_message_id, :response_user_id, :response_text, :response_type, :created_at);
    `
	result, err := s.db.NamedExecContext(ctx, query, response)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving task response",
			"task_id", response.TaskID, "error", err)
		return fmt.Errorf("failed to save response for task %d: %w", response.TaskID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		response.ID = id
	}

	s.logger.DebugContext(ctx, "Task response saved", "task_id", response.TaskID, "id", response.ID)
	return nil
}

// SaveMessageTopics inserts derived topic records within one transaction.
func (s *sqlxStore) SaveMessageTopics(ctx context.Context, topics []MessageTopic) error {
	if len(topics) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for saving topics", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	query := `
        INSERT INTO message_topics (message_id, topic, confidence, created_at)
        VALUES (:message_id, :topic, :confidence, :created_at);
    `
	now := time.Now().UTC().Unix()
	for i := range topics {
		if topics[i].CreatedAt == 0 {
			topics[i].CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, query, &topics[i]); err != nil {
			s.logger.ErrorContext(ctx, "Error saving message topic",
				"message_id", topics[i].MessageID, "topic", topics[i].Topic, "error", err)
			return fmt.Errorf("failed to save topic %q: %w", topics[i].Topic, err)
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit topics transaction", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Message topics saved successfully", "count", len(topics))
	return nil
}

// RecordUserActivity upserts the daily counter row for (user, chat, day).
// The increment is a single atomic statement at the storage layer, so
// concurrent ingestions for the same key never lose an update.
func (s *sqlxStore) RecordUserActivity(ctx context.Context, userID, chatID, messageTS int64) error {
	if userID == 0 {
		return fmt.Errorf("user_id cannot be zero")
	}
	if chatID == 0 {
		return fmt.Errorf("chat_id cannot be zero")
	}

	day := time.Unix(messageTS, 0).UTC().Format("2006-01-02")

	query := `
        INSERT INTO user_activity (
            user_id, chat_id, date, messages_count,
            first_message_ts, last_message_ts, total_time_minutes, created_at
        ) VALUES (?, ?, ?, 1, ?, ?, 0, ?)
        ON CONFLICT (user_id, chat_id, date) DO UPDATE SET
            messages_count = messages_count + 1,
            first_message_ts = MIN(first_message_ts, excluded.first_message_ts),
            last_message_ts = MAX(last_message_ts, excluded.last_message_ts),
            total_time_minutes = (MAX(last_message_ts, excluded.last_message_ts) - MIN(first_message_ts, excluded.first_message_ts)) / 60;
    `
	_, err := s.db.ExecContext(ctx, query,
		userID, chatID, day, messageTS, messageTS, time.Now().UTC().Unix())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error recording user activity",
			"user_id", userID, "chat_id", chatID, "date", day, "error", err)
		return fmt.Errorf("failed to record activity for user %d on %s: %w", userID, day, err)
	}

	return nil
}

// FindUserIDByUsername resolves a username to the user id that most
// recently posted under it in the chat.
func (s *sqlxStore) FindUserIDByUsername(ctx context.Context, chatID int64, username string) (int64, error) {
	if username == "" {
		return 0, nil
	}

	var userID int64
	query := `
        SELECT user_id FROM messages
        WHERE chat_id = ? AND username = ?
        ORDER BY timestamp DESC
        LIMIT 1;
    `
	err := s.db.GetContext(ctx, &userID, query, chatID, username)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error resolving username",
			"chat_id", chatID, "username", username, "error", err)
		return 0, fmt.Errorf("failed to resolve username %q in chat %d: %w", username, chatID, err)
	}
	return userID, nil
}

// FindPendingTaskForReply locates the pending task created by the message a
// reply points at, restricted to tasks assigned to the responder or to
// nobody in particular.
func (s *sqlxStore) FindPendingTaskForReply(ctx context.Context, chatID, replyToMessageID, responderID int64) (*Task, error) {
	var task Task
	query := `
        SELECT t.id, t.message_id, t.chat_id, t.assigned_by_user_id, t.assigned_to_user_id,
               t.assigned_to_username, t.task_text, t.status, t.priority, t.deadline,
               t.created_at, t.completed_at
        FROM tasks t
        JOIN messages m ON t.message_id = m.id
        WHERE m.chat_id = ? AND m.message_id = ? AND t.status = ?
          AND (t.assigned_to_user_id IS NULL OR t.assigned_to_user_id = ?)
        ORDER BY t.id
        LIMIT 1;
    `
	err := s.db.GetContext(ctx, &task, query, chatID, replyToMessageID, TaskStatusPending, responderID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error looking up task for reply",
			"chat_id", chatID, "reply_to", replyToMessageID, "error", err)
		return nil, fmt.Errorf("failed to look up task for reply to message %d: %w", replyToMessageID, err)
	}
	return &task, nil
}

// CompleteTask transitions a task from pending to completed. The WHERE
// clause guards the transition so it happens at most once.
func (s *sqlxStore) CompleteTask(ctx context.Context, taskID, completedAt int64) (bool, error) {
	if taskID == 0 {
		return false, fmt.Errorf("task_id cannot be zero")
	}

	query := `
        UPDATE tasks
        SET status = ?, completed_at = ?
        WHERE id = ? AND status = ?;
    `
	result, err := s.db.ExecContext(ctx, query, TaskStatusCompleted, completedAt, taskID, TaskStatusPending)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error completing task", "task_id", taskID, "error", err)
		return false, fmt.Errorf("failed to complete task %d: %w", taskID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not get affected row count when completing task",
			"task_id", taskID, "error", err)
		return false, nil
	}

	if affected == 1 {
		s.logger.InfoContext(ctx, "Task completed", "task_id", taskID)
	} else {
		s.logger.DebugContext(ctx, "Task completion was a no-op", "task_id", taskID)
	}
	return affected == 1, nil
}

// GetMessagesForPeriod retrieves messages for a chat within the lookback
// window, newest first.
func (s *sqlxStore) GetMessagesForPeriod(ctx context.Context, chatID int64, days int) ([]*Message, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}
	if days <= 0 {
		days = 1
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	messages := []*Message{}
	query := `
        SELECT id, message_id, chat_id, user_id, username, first_name, last_name, display_name,
               content, timestamp, reply_to_message_id, forward_from_user_id,
               is_edited, edited_at, created_at, updated_at
        FROM messages
        WHERE chat_id = ? AND timestamp >= ?
        ORDER BY timestamp DESC;
    `
	err := s.db.SelectContext(ctx, &messages, query, chatID, windowCutoff(days))

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching messages",
			"chat_id", chatID, "error", err)
		return nil, err
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting messages for period",
			"chat_id", chatID, "days", days, "error", err)
		return nil, fmt.Errorf("failed to get messages for chat %d: %w", chatID, err)
	}

	s.logger.DebugContext(ctx, "Fetched messages for period",
		"chat_id", chatID, "days", days, "count", len(messages))
	return messages, nil
}

// GetActivityStats returns per-user activity for the window, joined with
// the most recent display name each user posted under.
func (s *sqlxStore) GetActivityStats(ctx context.Context, chatID int64, days int) ([]ActivityStat, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	cutoffDay := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")

	stats := []ActivityStat{}
	query := `
        SELECT
            ua.user_id,
            SUM(ua.messages_count) AS messages_count,
            SUM(ua.total_time_minutes) AS total_time_minutes,
            MIN(ua.first_message_ts) AS first_message_ts,
            MAX(ua.last_message_ts) AS last_message_ts,
            (
                SELECT m.display_name FROM messages m
                WHERE m.chat_id = ua.chat_id AND m.user_id = ua.user_id
                ORDER BY m.timestamp DESC LIMIT 1
            ) AS display_name
        FROM user_activity ua
        WHERE ua.chat_id = ? AND ua.date >= ?
        GROUP BY ua.user_id
        ORDER BY messages_count DESC;
    `
	err := s.db.SelectContext(ctx, &stats, query, chatID, cutoffDay)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting activity stats",
			"chat_id", chatID, "days", days, "error", err)
		return nil, fmt.Errorf("failed to get activity stats for chat %d: %w", chatID, err)
	}

	s.logger.DebugContext(ctx, "Fetched activity stats", "chat_id", chatID, "users", len(stats))
	return stats, nil
}

// GetMentionStats returns mention counts per mentioned identity for
// messages in the window.
func (s *sqlxStore) GetMentionStats(ctx context.Context, chatID int64, days int) ([]MentionStat, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	stats := []MentionStat{}
	query := `
        SELECT mn.mentioned_username, COUNT(*) AS mention_count
        FROM mentions mn
        JOIN messages m ON mn.message_id = m.id
        WHERE m.chat_id = ? AND m.timestamp >= ?
        GROUP BY mn.mentioned_username
        ORDER BY mention_count DESC;
    `
	err := s.db.SelectContext(ctx, &stats, query, chatID, windowCutoff(days))
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting mention stats",
			"chat_id", chatID, "days", days, "error", err)
		return nil, fmt.Errorf("failed to get mention stats for chat %d: %w", chatID, err)
	}

	return stats, nil
}

// GetTaskStats returns task counts by status plus the overdue count. A task
// is overdue when still pending and its deadline lies strictly before now.
func (s *sqlxStore) GetTaskStats(ctx context.Context, chatID int64, days int) (TaskStats, error) {
	var stats TaskStats
	if chatID == 0 {
		return stats, fmt.Errorf("chat_id cannot be zero")
	}
	if ctx.Err() != nil {
		return stats, ctx.Err()
	}

	rows := []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}{}
	query := `
        SELECT status, COUNT(*) AS count
        FROM tasks
        WHERE chat_id = ? AND created_at >= ?
        GROUP BY status;
    `
	if err := s.db.SelectContext(ctx, &rows, query, chatID, windowCutoff(days)); err != nil {
		s.logger.ErrorContext(ctx, "Error getting task status counts",
			"chat_id", chatID, "days", days, "error", err)
		return stats, fmt.Errorf("failed to get task stats for chat %d: %w", chatID, err)
	}

	for _, row := range rows {
		stats.TotalTasks += row.Count
		switch row.Status {
		case TaskStatusPending:
			stats.PendingCount = row.Count
		case TaskStatusCompleted:
			stats.CompletedCount = row.Count
		}
	}

	overdueQuery := `
        SELECT COUNT(*) FROM tasks
        WHERE chat_id = ? AND status = ?
          AND deadline IS NOT NULL AND deadline < ?;
    `
	err := s.db.GetContext(ctx, &stats.OverdueCount, overdueQuery,
		chatID, TaskStatusPending, time.Now().UTC().Unix())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error counting overdue tasks", "chat_id", chatID, "error", err)
		return stats, fmt.Errorf("failed to count overdue tasks for chat %d: %w", chatID, err)
	}

	return stats, nil
}

// GetPendingTasks lists pending tasks for a chat, newest first.
func (s *sqlxStore) GetPendingTasks(ctx context.Context, chatID int64) ([]*Task, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	tasks := []*Task{}
	query := `
        SELECT id, message_id, chat_id, assigned_by_user_id, assigned_to_user_id,
               assigned_to_username, task_text, status, priority, deadline,
               created_at, completed_at
        FROM tasks
        WHERE chat_id = ? AND status = ?
        ORDER BY created_at DESC, id DESC;
    `
	err := s.db.SelectContext(ctx, &tasks, query, chatID, TaskStatusPending)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting pending tasks", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to get pending tasks for chat %d: %w", chatID, err)
	}

	return tasks, nil
}

// GetTopicDistribution counts messages whose stored topic confidence
// exceeds threshold, per topic. The reporting threshold (0.3) is stricter
// than the extraction threshold (0.1): extraction keeps weak signals,
// reporting only counts strong ones.
func (s *sqlxStore) GetTopicDistribution(ctx context.Context, chatID int64, days int, threshold float64) ([]TopicStat, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	stats := []TopicStat{}
	query := `
        SELECT mt.topic, COUNT(*) AS message_count
        FROM message_topics mt
        JOIN messages m ON mt.message_id = m.id
        WHERE m.chat_id = ? AND m.timestamp >= ? AND mt.confidence > ?
        GROUP BY mt.topic
        ORDER BY message_count DESC;
    `
	err := s.db.SelectContext(ctx, &stats, query, chatID, windowCutoff(days), threshold)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting topic distribution",
			"chat_id", chatID, "days", days, "error", err)
		return nil, fmt.Errorf("failed to get topic distribution for chat %d: %w", chatID, err)
	}

	return stats, nil
}

// GetMonitoredChats lists all chat ids with at least one stored message.
func (s *sqlxStore) GetMonitoredChats(ctx context.Context) ([]int64, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	chatIDs := []int64{}
	query := `
        SELECT chat_id
        FROM messages
        GROUP BY chat_id
        ORDER BY COUNT(*) DESC;
    `
	if err := s.db.SelectContext(ctx, &chatIDs, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing monitored chats", "error", err)
		return nil, fmt.Errorf("failed to list monitored chats: %w", err)
	}

	return chatIDs, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}
