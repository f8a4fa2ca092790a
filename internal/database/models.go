package database

import (
	"database/sql"
	"time"
)

// Task status values. A task moves from pending to completed exactly once,
// through an explicit completion action.
const (
	TaskStatusPending   = "pending"
	TaskStatusCompleted = "completed"
)

// Task priority values, inferred from urgency keywords at extraction time.
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

// Mention kinds. A mention is either an explicit @handle token or a
// capitalized full-name match.
const (
	MentionTypeUsername = "username"
	MentionTypeFullName = "full_name"
)

// Timestamps are stored as unix seconds (UTC). SQLite date functions never
// see them; all calendar math happens in Go or as integer arithmetic.

// Message represents one chat message delivered by the messaging platform.
// Its natural key is (MessageID, ChatID); re-ingesting the same platform
// message must not create a second row. A message is never mutated after
// insert except for the edit flag and timestamp when the platform reports
// an edit.
type Message struct {
	ID        int64 `db:"id"`
	CreatedAt int64 `db:"created_at"`
	UpdatedAt int64 `db:"updated_at"`

	MessageID   int64          `db:"message_id"`
	ChatID      int64          `db:"chat_id"`
	UserID      int64          `db:"user_id"`
	Username    sql.NullString `db:"username"`
	FirstName   sql.NullString `db:"first_name"`
	LastName    sql.NullString `db:"last_name"`
	DisplayName string         `db:"display_name"`
	Content     string         `db:"content"`
	Timestamp   int64          `db:"timestamp"`

	ReplyToMessageID  sql.NullInt64 `db:"reply_to_message_id"`
	ForwardFromUserID sql.NullInt64 `db:"forward_from_user_id"`
	IsEdited          bool          `db:"is_edited"`
	EditedAt          sql.NullInt64 `db:"edited_at"`
}

// Time returns the message timestamp as a UTC time.Time.
func (m *Message) Time() time.Time {
	return time.Unix(m.Timestamp, 0).UTC()
}

// Mention records a reference to another user inside a message. Created at
// ingestion time, immutable, never deleted.
type Mention struct {
	ID                int64  `db:"id"`
	MessageID         int64  `db:"message_id"`
	MentionedUsername string `db:"mentioned_username"`
	MentionType       string `db:"mention_type"`
	CreatedAt         int64  `db:"created_at"`
}

// Task is an assignment extracted from a message. The assignee may be
// resolved to a user ID or left pending as a bare username token.
type Task struct {
	ID        int64 `db:"id"`
	MessageID int64 `db:"message_id"`
	ChatID    int64 `db:"chat_id"`

	AssignedByUserID   int64          `db:"assigned_by_user_id"`
	AssignedToUserID   sql.NullInt64  `db:"assigned_to_user_id"`
	AssignedToUsername sql.NullString `db:"assigned_to_username"`

	TaskText string `db:"task_text"`
	Status   string `db:"status"`
	Priority string `db:"priority"`

	Deadline    sql.NullInt64 `db:"deadline"`
	CreatedAt   int64         `db:"created_at"`
	CompletedAt sql.NullInt64 `db:"completed_at"`
}

// TaskResponse records a message replying to the message that created a
// task. Append-only.
type TaskResponse struct {
	ID                int64  `db:"id"`
	TaskID            int64  `db:"task_id"`
	ResponseMessageID int64  `db:"response_message_id"`
	ResponseUserID    int64  `db:"response_user_id"`
	ResponseText      string `db:"response_text"`
	ResponseType      string `db:"response_type"`
	CreatedAt         int64  `db:"created_at"`
}

// UserActivity accumulates per-user, per-chat, per-calendar-day counters.
// Date holds the UTC day as YYYY-MM-DD. Increments happen as an atomic
// upsert in SQL, never as read-modify-write in Go.
type UserActivity struct {
	ID     int64  `db:"id"`
	UserID int64  `db:"user_id"`
	ChatID int64  `db:"chat_id"`
	Date   string `db:"date"`

	MessagesCount    int           `db:"messages_count"`
	FirstMessageTS   sql.NullInt64 `db:"first_message_ts"`
	LastMessageTS    sql.NullInt64 `db:"last_message_ts"`
	TotalTimeMinutes int           `db:"total_time_minutes"`

	CreatedAt int64 `db:"created_at"`
}

// MessageTopic is a derived, recomputable topic label for a message.
type MessageTopic struct {
	ID         int64   `db:"id"`
	MessageID  int64   `db:"message_id"`
	Topic      string  `db:"topic"`
	Confidence float64 `db:"confidence"`
	CreatedAt  int64   `db:"created_at"`
}

// ActivityStat is one row of the activity leaderboard: per-user message
// count and presence span within the lookback window.
type ActivityStat struct {
	UserID           int64          `db:"user_id"`
	DisplayName      sql.NullString `db:"display_name"`
	MessagesCount    int            `db:"messages_count"`
	TotalTimeMinutes int            `db:"total_time_minutes"`
	FirstMessageTS   sql.NullInt64  `db:"first_message_ts"`
	LastMessageTS    sql.NullInt64  `db:"last_message_ts"`
}

// MentionStat is one row of the mention leaderboard.
type MentionStat struct {
	MentionedUsername string `db:"mentioned_username"`
	MentionCount      int    `db:"mention_count"`
}

// TaskStats summarizes tasks in a window: counts by status plus pending
// tasks whose deadline has already passed.
type TaskStats struct {
	TotalTasks     int
	PendingCount   int
	CompletedCount int
	OverdueCount   int
}

// TopicStat is one row of the topic distribution: how many messages in the
// window carried this topic above the dominant-topic threshold.
type TopicStat struct {
	Topic        string `db:"topic"`
	MessageCount int    `db:"message_count"`
}
