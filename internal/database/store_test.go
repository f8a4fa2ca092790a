package database_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/chatpulse/chatpulse/internal/database"
)

func newTestStore(t *testing.T) (database.Store, *testDB) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB(%q) failed: %v", dbPath, err)
	}
	t.Cleanup(func() { database.CloseDB(db) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return database.NewStore(db, logger), &testDB{t: t, db: db}
}

// testDB wraps the raw connection for direct row inspection in assertions.
type testDB struct {
	t  *testing.T
	db interface {
		Get(dest interface{}, query string, args ...interface{}) error
	}
}

func (h *testDB) count(query string, args ...interface{}) int {
	h.t.Helper()
	var n int
	if err := h.db.Get(&n, query, args...); err != nil {
		h.t.Fatalf("count query %q failed: %v", query, err)
	}
	return n
}

func testMessage(messageID, chatID, userID int64, content string, ts int64) *database.Message {
	return &database.Message{
		MessageID:   messageID,
		ChatID:      chatID,
		UserID:      userID,
		Username:    sql.NullString{String: "testuser", Valid: true},
		DisplayName: "Test User",
		Content:     content,
		Timestamp:   ts,
	}
}

func TestUpsertMessageIdempotent(t *testing.T) {
	t.Parallel()

	store, raw := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Unix()

	first := testMessage(100, -500, 1, "hello there", now)
	created, err := store.UpsertMessage(ctx, first)
	if err != nil {
		t.Fatalf("first UpsertMessage failed: %v", err)
	}
	if !created {
		t.Error("first UpsertMessage reported created=false, want true")
	}
	if first.ID == 0 {
		t.Error("first UpsertMessage did not populate ID")
	}

	duplicate := testMessage(100, -500, 1, "hello there", now)
	created, err = store.UpsertMessage(ctx, duplicate)
	if err != nil {
		t.Fatalf("duplicate UpsertMessage failed: %v", err)
	}
	if created {
		t.Error("duplicate UpsertMessage reported created=true, want false")
	}
	if duplicate.ID != first.ID {
		t.Errorf("duplicate got ID %d, want existing ID %d", duplicate.ID, first.ID)
	}

	if n := raw.count("SELECT COUNT(*) FROM messages"); n != 1 {
		t.Errorf("messages table has %d rows, want 1", n)
	}

	// Same message_id in a different chat is a distinct message.
	otherChat := testMessage(100, -501, 1, "hello there", now)
	created, err = store.UpsertMessage(ctx, otherChat)
	if err != nil {
		t.Fatalf("UpsertMessage in second chat failed: %v", err)
	}
	if !created {
		t.Error("same message_id in a different chat should create a new row")
	}
}

func TestUpsertMessageValidation(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		message *database.Message
	}{
		{name: "nil message", message: nil},
		{name: "zero chat_id", message: testMessage(1, 0, 1, "x", 1000)},
		{name: "zero message_id", message: testMessage(0, -1, 1, "x", 1000)},
		{name: "zero timestamp", message: testMessage(1, -1, 1, "x", 0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := store.UpsertMessage(ctx, tc.message); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestMarkMessageEdited(t *testing.T) {
	t.Parallel()

	store, raw := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Unix()

	msg := testMessage(200, -500, 1, "original", now)
	if _, err := store.UpsertMessage(ctx, msg); err != nil {
		t.Fatalf("UpsertMessage failed: %v", err)
	}

	if err := store.MarkMessageEdited(ctx, 200, -500, now+60); err != nil {
		t.Fatalf("MarkMessageEdited failed: %v", err)
	}

	if n := raw.count("SELECT COUNT(*) FROM messages WHERE is_edited = TRUE AND edited_at = ?", now+60); n != 1 {
		t.Errorf("edited rows = %d, want 1", n)
	}
}

func TestRecordUserActivityConcurrent(t *testing.T) {
	t.Parallel()

	store, raw := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC).Unix()

	const workers = 20

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Spread timestamps across ten minutes of the same day.
			errs <- store.RecordUserActivity(ctx, 42, -500, base+int64(i)*30)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("RecordUserActivity failed: %v", err)
		}
	}

	if n := raw.count("SELECT COUNT(*) FROM user_activity WHERE user_id = 42"); n != 1 {
		t.Fatalf("user_activity rows = %d, want 1", n)
	}
	if n := raw.count("SELECT messages_count FROM user_activity WHERE user_id = 42"); n != workers {
		t.Errorf("messages_count = %d, want %d (no lost updates)", n, workers)
	}

	// Span is (last - first) / 60 in whole minutes.
	wantMinutes := int((workers - 1) * 30 / 60)
	if n := raw.count("SELECT total_time_minutes FROM user_activity WHERE user_id = 42"); n != wantMinutes {
		t.Errorf("total_time_minutes = %d, want %d", n, wantMinutes)
	}
}

func TestRecordUserActivityOutOfOrder(t *testing.T) {
	t.Parallel()

	store, raw := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC).Unix()

	// The later timestamp lands first; the day span must still run
	// from the earliest message to the latest.
	for _, ts := range []int64{base + 60, base} {
		if err := store.RecordUserActivity(ctx, 9, -500, ts); err != nil {
			t.Fatalf("RecordUserActivity failed: %v", err)
		}
	}

	if got := raw.count("SELECT first_message_ts FROM user_activity WHERE user_id = 9"); int64(got) != base {
		t.Errorf("first_message_ts = %d, want %d", got, base)
	}
	if got := raw.count("SELECT last_message_ts FROM user_activity WHERE user_id = 9"); int64(got) != base+60 {
		t.Errorf("last_message_ts = %d, want %d", got, base+60)
	}
	if got := raw.count("SELECT total_time_minutes FROM user_activity WHERE user_id = 9"); got != 1 {
		t.Errorf("total_time_minutes = %d, want 1", got)
	}
}

func TestRecordUserActivitySeparateDays(t *testing.T) {
	t.Parallel()

	store, raw := newTestStore(t)
	ctx := context.Background()

	day1 := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC).Unix()
	day2 := time.Date(2026, 3, 11, 0, 1, 0, 0, time.UTC).Unix()

	for _, ts := range []int64{day1, day2} {
		if err := store.RecordUserActivity(ctx, 7, -500, ts); err != nil {
			t.Fatalf("RecordUserActivity failed: %v", err)
		}
	}

	if n := raw.count("SELECT COUNT(*) FROM user_activity WHERE user_id = 7"); n != 2 {
		t.Errorf("messages across midnight should land in 2 day rows, got %d", n)
	}
}

func TestCompleteTaskHappensOnce(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Unix()

	msg := testMessage(300, -500, 1, "@bob please fix the build", now)
	if _, err := store.UpsertMessage(ctx, msg); err != nil {
		t.Fatalf("UpsertMessage failed: %v", err)
	}

	task := &database.Task{
		MessageID:        msg.ID,
		ChatID:           -500,
		AssignedByUserID: 1,
		TaskText:         "@bob please fix the build",
	}
	if err := store.SaveTask(ctx, task); err != nil {
		t.Fatalf("SaveTask failed: %v", err)
	}

	done, err := store.CompleteTask(ctx, task.ID, now+100)
	if err != nil {
		t.Fatalf("first CompleteTask failed: %v", err)
	}
	if !done {
		t.Error("first CompleteTask reported done=false, want true")
	}

	done, err = store.CompleteTask(ctx, task.ID, now+200)
	if err != nil {
		t.Fatalf("second CompleteTask failed: %v", err)
	}
	if done {
		t.Error("second CompleteTask reported done=true, completion must happen at most once")
	}

	tasks, err := store.GetPendingTasks(ctx, -500)
	if err != nil {
		t.Fatalf("GetPendingTasks failed: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("pending tasks = %d after completion, want 0", len(tasks))
	}
}

func TestFindPendingTaskForReply(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Unix()

	msg := testMessage(400, -500, 1, "@bob please deploy urgently", now)
	if _, err := store.UpsertMessage(ctx, msg); err != nil {
		t.Fatalf("UpsertMessage failed: %v", err)
	}

	task := &database.Task{
		MessageID:        msg.ID,
		ChatID:           -500,
		AssignedByUserID: 1,
		AssignedToUserID: sql.NullInt64{Int64: 2, Valid: true},
		TaskText:         "@bob please deploy urgently",
		Priority:         database.TaskPriorityHigh,
	}
	if err := store.SaveTask(ctx, task); err != nil {
		t.Fatalf("SaveTask failed: %v", err)
	}

	// The assignee replying finds the task.
	found, err := store.FindPendingTaskForReply(ctx, -500, 400, 2)
	if err != nil {
		t.Fatalf("FindPendingTaskForReply failed: %v", err)
	}
	if found == nil || found.ID != task.ID {
		t.Fatalf("assignee reply did not find task %d, got %+v", task.ID, found)
	}

	// Someone else replying does not.
	found, err = store.FindPendingTaskForReply(ctx, -500, 400, 99)
	if err != nil {
		t.Fatalf("FindPendingTaskForReply failed: %v", err)
	}
	if found != nil {
		t.Errorf("non-assignee reply found task %+v, want nil", found)
	}

	// A reply to an unrelated message finds nothing.
	found, err = store.FindPendingTaskForReply(ctx, -500, 9999, 2)
	if err != nil {
		t.Fatalf("FindPendingTaskForReply failed: %v", err)
	}
	if found != nil {
		t.Errorf("reply to non-task message found task %+v, want nil", found)
	}
}

func TestFindUserIDByUsername(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Unix()

	older := testMessage(500, -500, 10, "first", now-100)
	older.Username = sql.NullString{String: "alice", Valid: true}
	if _, err := store.UpsertMessage(ctx, older); err != nil {
		t.Fatalf("UpsertMessage failed: %v", err)
	}

	// Same handle later used by a different account: newest post wins.
	newer := testMessage(501, -500, 11, "second", now)
	newer.Username = sql.NullString{String: "alice", Valid: true}
	if _, err := store.UpsertMessage(ctx, newer); err != nil {
		t.Fatalf("UpsertMessage failed: %v", err)
	}

	userID, err := store.FindUserIDByUsername(ctx, -500, "alice")
	if err != nil {
		t.Fatalf("FindUserIDByUsername failed: %v", err)
	}
	if userID != 11 {
		t.Errorf("resolved user id = %d, want 11 (most recent poster)", userID)
	}

	userID, err = store.FindUserIDByUsername(ctx, -500, "nobody")
	if err != nil {
		t.Fatalf("FindUserIDByUsername for unknown handle failed: %v", err)
	}
	if userID != 0 {
		t.Errorf("unknown handle resolved to %d, want 0", userID)
	}
}

func TestGetTaskStatsOverdue(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Unix()

	msg := testMessage(600, -500, 1, "tasks", now)
	if _, err := store.UpsertMessage(ctx, msg); err != nil {
		t.Fatalf("UpsertMessage failed: %v", err)
	}

	tasks := []database.Task{
		{MessageID: msg.ID, ChatID: -500, AssignedByUserID: 1, TaskText: "overdue",
			Deadline: sql.NullInt64{Int64: now - 3600, Valid: true}},
		{MessageID: msg.ID, ChatID: -500, AssignedByUserID: 1, TaskText: "due later",
			Deadline: sql.NullInt64{Int64: now + 3600, Valid: true}},
		{MessageID: msg.ID, ChatID: -500, AssignedByUserID: 1, TaskText: "no deadline"},
		{MessageID: msg.ID, ChatID: -500, AssignedByUserID: 1, TaskText: "done",
			Status: database.TaskStatusCompleted},
	}
	for i := range tasks {
		if err := store.SaveTask(ctx, &tasks[i]); err != nil {
			t.Fatalf("SaveTask failed: %v", err)
		}
	}

	stats, err := store.GetTaskStats(ctx, -500, 30)
	if err != nil {
		t.Fatalf("GetTaskStats failed: %v", err)
	}

	if stats.TotalTasks != 4 {
		t.Errorf("TotalTasks = %d, want 4", stats.TotalTasks)
	}
	if stats.PendingCount != 3 {
		t.Errorf("PendingCount = %d, want 3", stats.PendingCount)
	}
	if stats.CompletedCount != 1 {
		t.Errorf("CompletedCount = %d, want 1", stats.CompletedCount)
	}
	if stats.OverdueCount != 1 {
		t.Errorf("OverdueCount = %d, want 1 (pending with past deadline only)", stats.OverdueCount)
	}
}

func TestGetTopicDistributionThreshold(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Unix()

	msg := testMessage(700, -500, 1, "deploy the release to production", now)
	if _, err := store.UpsertMessage(ctx, msg); err != nil {
		t.Fatalf("UpsertMessage failed: %v", err)
	}

	topics := []database.MessageTopic{
		{MessageID: msg.ID, Topic: "deployment", Confidence: 0.6},
		{MessageID: msg.ID, Topic: "planning", Confidence: 0.15},
	}
	if err := store.SaveMessageTopics(ctx, topics); err != nil {
		t.Fatalf("SaveMessageTopics failed: %v", err)
	}

	dist, err := store.GetTopicDistribution(ctx, -500, 30, 0.3)
	if err != nil {
		t.Fatalf("GetTopicDistribution failed: %v", err)
	}

	if len(dist) != 1 {
		t.Fatalf("topic distribution has %d entries, want 1 (weak topic filtered out)", len(dist))
	}
	if dist[0].Topic != "deployment" || dist[0].MessageCount != 1 {
		t.Errorf("got %+v, want deployment with count 1", dist[0])
	}
}

func TestGetMentionStats(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Unix()

	for i, mentioned := range [][]string{{"alice", "bob"}, {"alice"}, {"alice"}} {
		msg := testMessage(int64(800+i), -500, 1, "ping", now)
		if _, err := store.UpsertMessage(ctx, msg); err != nil {
			t.Fatalf("UpsertMessage failed: %v", err)
		}
		mentions := make([]database.Mention, 0, len(mentioned))
		for _, username := range mentioned {
			mentions = append(mentions, database.Mention{
				MessageID:         msg.ID,
				MentionedUsername: username,
				MentionType:       database.MentionTypeUsername,
			})
		}
		if err := store.SaveMentions(ctx, mentions); err != nil {
			t.Fatalf("SaveMentions failed: %v", err)
		}
	}

	stats, err := store.GetMentionStats(ctx, -500, 30)
	if err != nil {
		t.Fatalf("GetMentionStats failed: %v", err)
	}

	if len(stats) != 2 {
		t.Fatalf("mention stats has %d entries, want 2", len(stats))
	}
	if stats[0].MentionedUsername != "alice" || stats[0].MentionCount != 3 {
		t.Errorf("top mention = %+v, want alice with 3", stats[0])
	}
	if stats[1].MentionedUsername != "bob" || stats[1].MentionCount != 1 {
		t.Errorf("second mention = %+v, want bob with 1", stats[1])
	}
}

func TestGetActivityStats(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Unix()

	// User 1 posts three times, user 2 once.
	for i := range 3 {
		msg := testMessage(int64(900+i), -500, 1, "busy", now+int64(i))
		msg.DisplayName = "Busy User"
		if _, err := store.UpsertMessage(ctx, msg); err != nil {
			t.Fatalf("UpsertMessage failed: %v", err)
		}
		if err := store.RecordUserActivity(ctx, 1, -500, now+int64(i)); err != nil {
			t.Fatalf("RecordUserActivity failed: %v", err)
		}
	}
	quiet := testMessage(950, -500, 2, "hi", now)
	quiet.DisplayName = "Quiet User"
	if _, err := store.UpsertMessage(ctx, quiet); err != nil {
		t.Fatalf("UpsertMessage failed: %v", err)
	}
	if err := store.RecordUserActivity(ctx, 2, -500, now); err != nil {
		t.Fatalf("RecordUserActivity failed: %v", err)
	}

	stats, err := store.GetActivityStats(ctx, -500, 7)
	if err != nil {
		t.Fatalf("GetActivityStats failed: %v", err)
	}

	if len(stats) != 2 {
		t.Fatalf("activity stats has %d entries, want 2", len(stats))
	}
	if stats[0].UserID != 1 || stats[0].MessagesCount != 3 {
		t.Errorf("top user = %+v, want user 1 with 3 messages", stats[0])
	}
	if !stats[0].DisplayName.Valid || stats[0].DisplayName.String != "Busy User" {
		t.Errorf("top user display name = %+v, want Busy User", stats[0].DisplayName)
	}
}

func TestGetMessagesForPeriod(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Unix()

	inside := testMessage(1000, -500, 1, "recent", now-3600)
	outside := testMessage(1001, -500, 1, "ancient", now-90*24*3600)
	for _, msg := range []*database.Message{inside, outside} {
		if _, err := store.UpsertMessage(ctx, msg); err != nil {
			t.Fatalf("UpsertMessage failed: %v", err)
		}
	}

	messages, err := store.GetMessagesForPeriod(ctx, -500, 45)
	if err != nil {
		t.Fatalf("GetMessagesForPeriod failed: %v", err)
	}

	if len(messages) != 1 {
		t.Fatalf("got %d messages, want 1 inside the 45 day window", len(messages))
	}
	if messages[0].Content != "recent" {
		t.Errorf("got message %q, want the recent one", messages[0].Content)
	}
}

func TestGetMonitoredChats(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Unix()

	// Chat -600 has two messages, chat -500 has one.
	for i, chatID := range []int64{-600, -600, -500} {
		if _, err := store.UpsertMessage(ctx, testMessage(int64(1100+i), chatID, 1, "x", now)); err != nil {
			t.Fatalf("UpsertMessage failed: %v", err)
		}
	}

	chats, err := store.GetMonitoredChats(ctx)
	if err != nil {
		t.Fatalf("GetMonitoredChats failed: %v", err)
	}

	if len(chats) != 2 {
		t.Fatalf("got %d chats, want 2", len(chats))
	}
	if chats[0] != -600 {
		t.Errorf("busiest chat = %d, want -600 first", chats[0])
	}
}
