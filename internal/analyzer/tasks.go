package analyzer

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Task priority labels, inferred from urgency keywords.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// TaskCandidate is a tentative assignment extracted from message text. The
// assignee is a bare username token pending resolution, or empty when the
// pattern carried no assignee.
type TaskCandidate struct {
	Assignee string
	Text     string
	Priority string
	Deadline *time.Time
}

// candidateKind tags how a task pattern's capture groups map onto a
// candidate.
type candidateKind int

const (
	// assigneeAndText captures (assignee-token, task-text).
	assigneeAndText candidateKind = iota
	// textOnly captures (task-text) alone.
	textOnly
	// textBeforeMarker captures (task-text, ignored-marker); only the
	// first group contributes, the trailing group anchors the match.
	textBeforeMarker
)

type taskPattern struct {
	re   *regexp.Regexp
	kind candidateKind
}

// taskPatterns is tried in order and every pattern contributes matches.
// One message can therefore yield several overlapping candidates; callers
// rely on that, so matches are never collapsed.
var taskPatterns = []taskPattern{
	{regexp.MustCompile(`(?i)@(\w+)\s+(.+?)(?:[.!]|$)`), assigneeAndText},
	{regexp.MustCompile(`(?i)(\w+)\s+(?:needs to|must|should)\s+(.+?)(?:[.!]|$)`), assigneeAndText},
	{regexp.MustCompile(`(?i)(?:task|todo|assignment):\s*(.+?)(?:[.!]|$)`), textOnly},
	{regexp.MustCompile(`(?i)(?:ask|tell)\s+(\w+)\s+to\s+(.+?)(?:[.!]|$)`), assigneeAndText},
	{regexp.MustCompile(`(?i)(.+?)\s+by\s+(tomorrow|monday|tuesday|wednesday|thursday|friday|saturday|sunday)`), textBeforeMarker},
	{regexp.MustCompile(`(?i)(.+?)\s+(?:by|before)\s+(\d{1,2}[.:]\d{2})`), textBeforeMarker},
	{regexp.MustCompile(`(?i)(?:urgently|immediately|asap)\s+(.+?)(?:[.!]|$)`), textOnly},
}

// Task text shorter than this after cleanup is discarded as noise.
const minTaskTextLength = 4

// taskTextCleanup keeps letters, digits, whitespace and basic punctuation.
var taskTextCleanup = regexp.MustCompile(`[^\p{L}\p{N}\s.,!?]`)

var (
	tomorrowPattern     = regexp.MustCompile(`(?i)\btomorrow\b`)
	todayPattern        = regexp.MustCompile(`(?i)\btoday\b`)
	explicitTimePattern = regexp.MustCompile(`(?i)(?:by|before|at)\s+(\d{1,2})[.:](\d{2})`)

	highPriorityPattern   = regexp.MustCompile(`(?i)\b(?:urgently|now|immediately)\b`)
	mediumPriorityPattern = regexp.MustCompile(`(?i)\b(?:important|critical)\b`)
)

// ExtractTasks runs every task pattern over the message text and returns
// all candidates. The deadline and priority of each candidate come from
// the whole original message, not just the captured task text, so two
// candidates from one message always agree on them. now anchors relative
// deadline phrases.
func ExtractTasks(text string, now time.Time) []TaskCandidate {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	deadline := ExtractDeadline(text, now)
	priority := DeterminePriority(text)

	var candidates []TaskCandidate
	for _, pattern := range taskPatterns {
		for _, match := range pattern.re.FindAllStringSubmatch(text, -1) {
			var assignee, taskText string
			switch pattern.kind {
			case assigneeAndText:
				assignee, taskText = match[1], match[2]
			case textOnly:
				taskText = match[1]
			case textBeforeMarker:
				taskText = match[1]
			}

			taskText = cleanTaskText(taskText)
			if utf8.RuneCountInString(taskText) < minTaskTextLength {
				continue
			}

			candidates = append(candidates, TaskCandidate{
				Assignee: assignee,
				Text:     taskText,
				Priority: priority,
				Deadline: deadline,
			})
		}
	}
	return candidates
}

func cleanTaskText(text string) string {
	text = taskTextCleanup.ReplaceAllString(text, "")
	return strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
}

// ExtractDeadline resolves a deadline phrase in the message to an absolute
// time, or nil when the message carries none. Precedence is fixed:
// "tomorrow" wins over an explicit clock time, which wins over a bare
// "today" (today alone means 18:00 local).
func ExtractDeadline(text string, now time.Time) *time.Time {
	if tomorrowPattern.MatchString(text) {
		deadline := now.AddDate(0, 0, 1)
		return &deadline
	}

	if match := explicitTimePattern.FindStringSubmatch(text); match != nil {
		hour, _ := strconv.Atoi(match[1])
		minute, _ := strconv.Atoi(match[2])
		if hour < 24 && minute < 60 {
			deadline := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
			if deadline.Before(now) {
				deadline = deadline.AddDate(0, 0, 1)
			}
			return &deadline
		}
	}

	if todayPattern.MatchString(text) {
		deadline := time.Date(now.Year(), now.Month(), now.Day(), 18, 0, 0, 0, now.Location())
		return &deadline
	}

	return nil
}

// DeterminePriority infers task priority from urgency keywords in the
// message.
func DeterminePriority(text string) string {
	switch {
	case highPriorityPattern.MatchString(text):
		return PriorityHigh
	case mediumPriorityPattern.MatchString(text):
		return PriorityMedium
	default:
		return PriorityLow
	}
}
