// Package report produces time-windowed summaries over stored chat data:
// activity leaderboards, mention and task counts, topic distribution,
// hourly load, and conversation temperature. All queries are read-only.
package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/chatpulse/chatpulse/internal/analyzer"
	"github.com/chatpulse/chatpulse/internal/database"
)

// dominantTopicThreshold is the reporting cutoff for counting a topic.
// Stricter than extraction's keep threshold: extraction stores weak
// signals, reporting only counts strong ones.
const dominantTopicThreshold = 0.3

// Engine answers reporting queries for one configured timezone and
// default lookback window.
type Engine struct {
	store      database.Store
	logger     *slog.Logger
	location   *time.Location
	windowDays int
}

// NewEngine creates a reporting engine. location controls hour-of-day
// bucketing; windowDays is the default lookback for full reports.
func NewEngine(store database.Store, location *time.Location, windowDays int, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if location == nil {
		location = time.UTC
	}
	if windowDays <= 0 {
		windowDays = 7
	}
	return &Engine{
		store:      store,
		logger:     logger.With("component", "report"),
		location:   location,
		windowDays: windowDays,
	}
}

// WindowDays returns the engine's default lookback window.
func (e *Engine) WindowDays() int { return e.windowDays }

// HourlyActivity buckets every message in the window by local
// hour-of-day. Stored timestamps are UTC; the conversion to the engine's
// timezone is what makes the histogram line up with the team's working
// hours.
func (e *Engine) HourlyActivity(ctx context.Context, chatID int64, days int) ([24]int, error) {
	var histogram [24]int

	messages, err := e.store.GetMessagesForPeriod(ctx, chatID, days)
	if err != nil {
		return histogram, fmt.Errorf("failed to load messages for hourly activity: %w", err)
	}

	for _, message := range messages {
		hour := message.Time().In(e.location).Hour()
		histogram[hour]++
	}
	return histogram, nil
}

// Temperature scores the conversation temperature over the window.
func (e *Engine) Temperature(ctx context.Context, chatID int64, days int) (analyzer.TemperatureResult, error) {
	messages, err := e.store.GetMessagesForPeriod(ctx, chatID, days)
	if err != nil {
		return analyzer.TemperatureResult{}, fmt.Errorf("failed to load messages for temperature: %w", err)
	}

	texts := make([]string, 0, len(messages))
	for _, message := range messages {
		texts = append(texts, message.Content)
	}
	return analyzer.AnalyzeTemperature(texts), nil
}

// MessagesInWindow proxies the store's windowed message listing.
func (e *Engine) MessagesInWindow(ctx context.Context, chatID int64, days int) ([]*database.Message, error) {
	return e.store.GetMessagesForPeriod(ctx, chatID, days)
}

// ActivityStats proxies the store's leaderboard query.
func (e *Engine) ActivityStats(ctx context.Context, chatID int64, days int) ([]database.ActivityStat, error) {
	return e.store.GetActivityStats(ctx, chatID, days)
}

// MentionStats proxies the store's mention leaderboard query.
func (e *Engine) MentionStats(ctx context.Context, chatID int64, days int) ([]database.MentionStat, error) {
	return e.store.GetMentionStats(ctx, chatID, days)
}

// TaskStats proxies the store's task summary query.
func (e *Engine) TaskStats(ctx context.Context, chatID int64, days int) (database.TaskStats, error) {
	return e.store.GetTaskStats(ctx, chatID, days)
}

// PendingTasks proxies the store's pending task listing.
func (e *Engine) PendingTasks(ctx context.Context, chatID int64) ([]*database.Task, error) {
	return e.store.GetPendingTasks(ctx, chatID)
}

// TopicDistribution counts strongly-tagged messages per topic.
func (e *Engine) TopicDistribution(ctx context.Context, chatID int64, days int) ([]database.TopicStat, error) {
	return e.store.GetTopicDistribution(ctx, chatID, days, dominantTopicThreshold)
}

// DailyReport renders the full chat summary over the engine's default
// window as plain text suitable for a chat message. An empty window still
// produces a report, with zeroed sections.
func (e *Engine) DailyReport(ctx context.Context, chatID int64) (string, error) {
	days := e.windowDays

	activity, err := e.ActivityStats(ctx, chatID, days)
	if err != nil {
		return "", err
	}
	mentions, err := e.MentionStats(ctx, chatID, days)
	if err != nil {
		return "", err
	}
	tasks, err := e.TaskStats(ctx, chatID, days)
	if err != nil {
		return "", err
	}
	topics, err := e.TopicDistribution(ctx, chatID, days)
	if err != nil {
		return "", err
	}
	histogram, err := e.HourlyActivity(ctx, chatID, days)
	if err != nil {
		return "", err
	}
	temperature, err := e.Temperature(ctx, chatID, days)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Chat report, last %d days\n\n", days)

	b.WriteString(FormatActivity(activity))
	b.WriteString("\n")
	b.WriteString(FormatMentions(mentions))
	b.WriteString("\n")
	b.WriteString(FormatTaskStats(tasks))
	b.WriteString("\n")
	b.WriteString(FormatTopics(topics))
	b.WriteString("\n")
	b.WriteString(formatPeakHours(histogram))
	b.WriteString("\n")
	b.WriteString(FormatTemperature(temperature))

	return b.String(), nil
}

// FormatActivity renders the activity leaderboard, top five users.
func FormatActivity(stats []database.ActivityStat) string {
	var b strings.Builder
	b.WriteString("👥 Most active:\n")
	if len(stats) == 0 {
		b.WriteString("  no messages in this window\n")
		return b.String()
	}

	shown := min(len(stats), 5)
	for i := 0; i < shown; i++ {
		name := fmt.Sprintf("user #%d", stats[i].UserID)
		if stats[i].DisplayName.Valid && stats[i].DisplayName.String != "" {
			name = stats[i].DisplayName.String
		}
		fmt.Fprintf(&b, "  %d. %s: %d messages, %d min active\n",
			i+1, name, stats[i].MessagesCount, stats[i].TotalTimeMinutes)
	}
	return b.String()
}

// FormatMentions renders the mention leaderboard, top five identities.
func FormatMentions(stats []database.MentionStat) string {
	var b strings.Builder
	b.WriteString("📣 Most mentioned:\n")
	if len(stats) == 0 {
		b.WriteString("  no mentions in this window\n")
		return b.String()
	}

	shown := min(len(stats), 5)
	for i := 0; i < shown; i++ {
		fmt.Fprintf(&b, "  %d. %s: %d\n", i+1, stats[i].MentionedUsername, stats[i].MentionCount)
	}
	return b.String()
}

// FormatTaskStats renders the task summary.
func FormatTaskStats(stats database.TaskStats) string {
	var b strings.Builder
	b.WriteString("📝 Tasks:\n")
	fmt.Fprintf(&b, "  total: %d, pending: %d, completed: %d\n",
		stats.TotalTasks, stats.PendingCount, stats.CompletedCount)
	if stats.OverdueCount > 0 {
		fmt.Fprintf(&b, "  ⚠️ overdue: %d\n", stats.OverdueCount)
	}
	return b.String()
}

// FormatPendingTasks renders the pending task list, newest first.
func FormatPendingTasks(tasks []*database.Task, location *time.Location) string {
	if location == nil {
		location = time.UTC
	}

	var b strings.Builder
	b.WriteString("📝 Pending tasks:\n")
	if len(tasks) == 0 {
		b.WriteString("  nothing pending\n")
		return b.String()
	}

	for i, task := range tasks {
		fmt.Fprintf(&b, "  %d. %s", i+1, task.TaskText)
		if task.AssignedToUsername.Valid {
			fmt.Fprintf(&b, " (@%s)", task.AssignedToUsername.String)
		}
		if task.Deadline.Valid {
			deadline := time.Unix(task.Deadline.Int64, 0).In(location)
			fmt.Fprintf(&b, ", due %s", deadline.Format("Jan 2 15:04"))
		}
		if task.Priority == database.TaskPriorityHigh {
			b.WriteString(" 🔥")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatTopics renders the topic distribution.
func FormatTopics(stats []database.TopicStat) string {
	var b strings.Builder
	b.WriteString("🧭 Topics:\n")
	if len(stats) == 0 {
		b.WriteString("  no dominant topics in this window\n")
		return b.String()
	}

	for _, stat := range stats {
		fmt.Fprintf(&b, "  %s: %d messages\n", stat.Topic, stat.MessageCount)
	}
	return b.String()
}

// FormatTemperature renders the temperature summary.
func FormatTemperature(result analyzer.TemperatureResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Temperature: %.1f/10 (confidence %.0f%%)\n",
		result.Emoji, result.Temperature, result.Confidence*100)
	fmt.Fprintf(&b, "  %s\n", result.Description)
	return b.String()
}

// formatPeakHours names the three busiest local hours in the histogram.
func formatPeakHours(histogram [24]int) string {
	type hourCount struct {
		hour  int
		count int
	}

	peaks := []hourCount{}
	for hour, count := range histogram {
		if count > 0 {
			peaks = append(peaks, hourCount{hour: hour, count: count})
		}
	}

	var b strings.Builder
	b.WriteString("⏰ Peak hours:\n")
	if len(peaks) == 0 {
		b.WriteString("  no messages in this window\n")
		return b.String()
	}

	for i := 0; i < len(peaks)-1; i++ {
		for j := i + 1; j < len(peaks); j++ {
			if peaks[j].count > peaks[i].count {
				peaks[i], peaks[j] = peaks[j], peaks[i]
			}
		}
	}

	shown := min(len(peaks), 3)
	for i := 0; i < shown; i++ {
		fmt.Fprintf(&b, "  %02d:00: %d messages\n", peaks[i].hour, peaks[i].count)
	}
	return b.String()
}
