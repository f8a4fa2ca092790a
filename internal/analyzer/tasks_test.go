package analyzer_test

import (
	"testing"
	"time"

	"github.com/chatpulse/chatpulse/internal/analyzer"
)

func TestExtractTasks(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("handle pattern captures assignee and text", func(t *testing.T) {
		t.Parallel()

		tasks := analyzer.ExtractTasks("@ivan prepare the report by tomorrow", now)
		if len(tasks) == 0 {
			t.Fatal("expected at least one task candidate")
		}
		if tasks[0].Assignee != "ivan" {
			t.Errorf("assignee = %q, want ivan", tasks[0].Assignee)
		}
		if tasks[0].Deadline == nil {
			t.Fatal("deadline is nil, want tomorrow")
		}
		wantDay := now.AddDate(0, 0, 1)
		if tasks[0].Deadline.Day() != wantDay.Day() {
			t.Errorf("deadline day = %d, want %d", tasks[0].Deadline.Day(), wantDay.Day())
		}
	})

	t.Run("all patterns contribute candidates", func(t *testing.T) {
		t.Parallel()

		// Both the @handle pattern and the by-weekday pattern match, so
		// one message yields two candidates. That behavior is relied on.
		tasks := analyzer.ExtractTasks("@ivan prepare the report by friday", now)
		if len(tasks) != 2 {
			t.Fatalf("got %d candidates %v, want 2", len(tasks), tasks)
		}
	})

	t.Run("labeled task without assignee", func(t *testing.T) {
		t.Parallel()

		tasks := analyzer.ExtractTasks("task: update the onboarding checklist", now)
		if len(tasks) != 1 {
			t.Fatalf("got %d candidates %v, want 1", len(tasks), tasks)
		}
		if tasks[0].Assignee != "" {
			t.Errorf("assignee = %q, want empty", tasks[0].Assignee)
		}
		if tasks[0].Text != "update the onboarding checklist" {
			t.Errorf("task text = %q", tasks[0].Text)
		}
	})

	t.Run("short task text discarded as noise", func(t *testing.T) {
		t.Parallel()

		tasks := analyzer.ExtractTasks("@bob ok.", now)
		if len(tasks) != 0 {
			t.Errorf("got %v, want no candidates for 2-char task text", tasks)
		}
	})

	t.Run("short non-ascii task text discarded as noise", func(t *testing.T) {
		t.Parallel()

		// Two letters even when each is multi-byte in UTF-8.
		tasks := analyzer.ExtractTasks("@bob да.", now)
		if len(tasks) != 0 {
			t.Errorf("got %v, want no candidates for 2-rune task text", tasks)
		}
	})

	t.Run("emoji stripped from task text", func(t *testing.T) {
		t.Parallel()

		tasks := analyzer.ExtractTasks("@bob deploy the release 🚀🚀", now)
		if len(tasks) != 1 {
			t.Fatalf("got %d candidates, want 1", len(tasks))
		}
		if tasks[0].Text != "deploy the release" {
			t.Errorf("task text = %q, want emoji stripped", tasks[0].Text)
		}
	})

	t.Run("empty text", func(t *testing.T) {
		t.Parallel()

		if tasks := analyzer.ExtractTasks("   ", now); tasks != nil {
			t.Errorf("got %v for blank text, want nil", tasks)
		}
	})
}

func TestExtractDeadline(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		text string
		want *time.Time
	}{
		{
			name: "tomorrow",
			text: "prepare the report by tomorrow",
			want: timePtr(time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)),
		},
		{
			name: "bare today means 18:00",
			text: "finish the review today",
			want: timePtr(time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)),
		},
		{
			name: "explicit time later today",
			text: "send it by 18:30",
			want: timePtr(time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC)),
		},
		{
			name: "explicit time already passed rolls to next day",
			text: "send it by 9:00",
			want: timePtr(time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)),
		},
		{
			name: "explicit time beats bare today",
			text: "finish it today, by 18:30 at the latest",
			want: timePtr(time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC)),
		},
		{
			name: "tomorrow beats explicit time",
			text: "by 15:00 tomorrow",
			want: timePtr(time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)),
		},
		{
			name: "dotted time form",
			text: "wrap up before 17.45",
			want: timePtr(time.Date(2026, 3, 10, 17, 45, 0, 0, time.UTC)),
		},
		{
			name: "no deadline",
			text: "just a regular message",
			want: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := analyzer.ExtractDeadline(tc.text, now)
			switch {
			case got == nil && tc.want == nil:
			case got == nil || tc.want == nil:
				t.Errorf("deadline = %v, want %v", got, tc.want)
			case !got.Equal(*tc.want):
				t.Errorf("deadline = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDeterminePriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "urgently is high", text: "urgently fix the build", want: analyzer.PriorityHigh},
		{name: "immediately is high", text: "deploy immediately please", want: analyzer.PriorityHigh},
		{name: "important is medium", text: "this is important", want: analyzer.PriorityMedium},
		{name: "critical is medium", text: "critical bug in checkout", want: analyzer.PriorityMedium},
		{name: "high wins over medium", text: "important, do it now", want: analyzer.PriorityHigh},
		{name: "default is low", text: "whenever you get a chance", want: analyzer.PriorityLow},
		{name: "substring does not trigger", text: "unimportant detail", want: analyzer.PriorityLow},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := analyzer.DeterminePriority(tc.text); got != tc.want {
				t.Errorf("DeterminePriority(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

func timePtr(t time.Time) *time.Time { return &t }
