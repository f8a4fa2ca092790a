// Package analyzer extracts structured signals from free-text chat
// messages: user mentions, task candidates with deadlines and priority,
// topic tags, and a heuristic conversation temperature. Every function in
// the package is pure; callers own all I/O.
package analyzer

import (
	"regexp"
	"sort"
	"strings"
)

// Mention kinds.
const (
	MentionKindUsername = "username"
	MentionKindFullName = "full_name"
)

// Mention is a reference to another user found in message text.
type Mention struct {
	Username string
	Kind     string
}

// TopicScore is one detected topic with its normalized keyword score.
type TopicScore struct {
	Topic string
	Score float64
}

var (
	urlPattern      = regexp.MustCompile(`https?://[^\s]+`)
	nonWordPattern  = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	spacePattern    = regexp.MustCompile(`\s+`)
	wordPattern     = regexp.MustCompile(`[a-zA-Z]+`)
	usernamePattern = regexp.MustCompile(`@(\w+)`)
	fullNamePattern = regexp.MustCompile(`([A-Z][a-z]+ [A-Z][a-z]+)`)
)

// minWordLength filters out short function words before topic matching.
const minWordLength = 3

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "you": {}, "are": {}, "with": {},
	"this": {}, "that": {}, "was": {}, "have": {}, "has": {}, "but": {},
	"not": {}, "can": {}, "will": {}, "all": {}, "our": {}, "your": {},
	"his": {}, "her": {}, "its": {}, "they": {}, "them": {}, "who": {},
	"what": {}, "when": {}, "where": {}, "why": {}, "how": {}, "out": {},
	"about": {}, "into": {}, "from": {}, "should": {}, "would": {},
	"could": {}, "there": {}, "here": {}, "been": {}, "were": {},
}

// topicKeywords maps topic labels to their keyword sets. A topic's score
// for a message is keywords-found divided by set size.
var topicKeywords = map[string][]string{
	"work":       {"task", "project", "deadline", "meeting", "report", "plan", "complete"},
	"tech":       {"computer", "software", "system", "hardware", "technology", "internet"},
	"meetings":   {"meeting", "call", "conference", "presentation", "standup"},
	"documents":  {"document", "file", "report", "letter", "contract", "agreement"},
	"clients":    {"client", "customer", "buyer", "partner", "cooperation"},
	"finance":    {"budget", "cost", "payment", "expenses", "revenue", "finance"},
	"people":     {"employee", "colleague", "team", "hiring", "firing", "training"},
	"learning":   {"training", "course", "knowledge", "skills", "development", "workshop"},
	"problems":   {"problem", "error", "failure", "outage", "fix", "resolve"},
	"discussion": {"discuss", "talk", "contact", "inform", "notify"},
}

// CleanText strips URLs, punctuation and repeated whitespace, and
// lowercases the remainder. Empty input yields an empty string.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = urlPattern.ReplaceAllString(text, "")
	text = nonWordPattern.ReplaceAllString(text, " ")
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.ToLower(strings.TrimSpace(text))
}

// ExtractWords tokenizes text into lowercase words, dropping short tokens
// and stop words.
func ExtractWords(text string) []string {
	cleaned := CleanText(text)
	if cleaned == "" {
		return nil
	}

	var words []string
	for _, word := range wordPattern.FindAllString(cleaned, -1) {
		if len(word) < minWordLength {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		words = append(words, word)
	}
	return words
}

// ExtractMentions finds user references in message text. Explicit @handle
// tokens and capitalized Firstname Lastname pairs both count; the result
// is the union of the two forms in order of appearance.
func ExtractMentions(text string) []Mention {
	if text == "" {
		return nil
	}

	var mentions []Mention
	for _, match := range usernamePattern.FindAllStringSubmatch(text, -1) {
		mentions = append(mentions, Mention{Username: match[1], Kind: MentionKindUsername})
	}
	for _, match := range fullNamePattern.FindAllStringSubmatch(text, -1) {
		mentions = append(mentions, Mention{Username: match[1], Kind: MentionKindFullName})
	}
	return mentions
}

// topicKeepThreshold drops topics whose keyword score is too weak to be a
// meaningful signal. Reporting applies its own stricter threshold on top.
const topicKeepThreshold = 0.1

// DetectTopics scores each known topic against the message words and
// returns topics scoring above the keep threshold, strongest first.
func DetectTopics(text string) []TopicScore {
	words := ExtractWords(text)
	if len(words) == 0 {
		return nil
	}

	wordSet := make(map[string]struct{}, len(words))
	for _, word := range words {
		wordSet[word] = struct{}{}
	}

	var scores []TopicScore
	for topic, keywords := range topicKeywords {
		found := 0
		for _, keyword := range keywords {
			if _, ok := wordSet[keyword]; ok {
				found++
			}
		}
		if found == 0 {
			continue
		}
		score := float64(found) / float64(len(keywords))
		if score > topicKeepThreshold {
			scores = append(scores, TopicScore{Topic: topic, Score: score})
		}
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Topic < scores[j].Topic
	})
	return scores
}
