package analyzer

import (
	"math"
	"strings"
)

// Emotional marker sets for temperature scoring. Emoji count as
// independent hits, same as words.
var (
	positiveMarkers = []string{
		"thanks", "thank you", "great", "good", "awesome", "cool", "nice",
		"agree", "support", "right", "correct", "exactly", "yes", "sure",
		"will do", "solved", "ready", "sounds good", "perfect", "glad",
		"👍", "✅", "🎉", "😊", "😄", "🙂", "👏", "🔥", "💪", "🚀",
	}

	negativeMarkers = []string{
		"problem", "error", "wrong", "bad", "terrible", "awful",
		"impossible", "incorrect", "disagree", "against", "no way",
		"forbidden", "stop", "enough", "tired", "annoying", "broken",
		"😡", "😠", "😤", "😞", "😔", "😢", "😭", "💔", "👎", "❌", "🚫",
	}

	urgentMarkers = []string{
		"urgent", "urgently", "immediately", "right now", "asap",
		"critical", "important", "priority", "deadline", "hurry",
		"🔥", "⚡", "🚨", "⚠️", "❗", "‼️",
	}

	questionMarkers = []string{
		"?", "question", "how", "what", "where", "when", "why",
		"who", "which", "how many", "how much",
	}

	resolutionMarkers = []string{
		"resolved", "agreed", "approved", "accepted", "decided",
		"done", "finished", "completed", "closed", "settled",
		"summary", "result", "conclusion",
		"✅", "🎯", "🏁", "🎉", "💯",
	}
)

// EmotionCounts breaks messages down by dominant emotion.
type EmotionCounts struct {
	Positive int
	Negative int
	Neutral  int
}

// TemperatureDetails carries the per-window counters behind a temperature
// score.
type TemperatureDetails struct {
	TotalMessages   int
	EmotionCounts   EmotionCounts
	UrgentCount     int
	QuestionCount   int
	ResolutionCount int
	PositiveRatio   float64
	NegativeRatio   float64
}

// TemperatureResult is the scorer's output: a 0 to 10 temperature, a
// confidence in [0,1], a human description of the band, and the counters
// it was derived from.
type TemperatureResult struct {
	Temperature float64
	Confidence  float64
	Description string
	Emoji       string
	Details     TemperatureDetails
}

// AnalyzeTemperature scores a window of message texts on a 0 to 10 scale.
// It is state free; nothing is persisted and repeat calls over the same
// batch return the same result.
func AnalyzeTemperature(texts []string) TemperatureResult {
	if len(texts) == 0 {
		return TemperatureResult{
			Temperature: 5.0,
			Confidence:  0.0,
			Description: "No messages to analyze",
			Emoji:       "😐",
		}
	}

	var (
		scores   []float64
		emotions EmotionCounts
		details  TemperatureDetails
	)

	for _, text := range texts {
		lowered := strings.ToLower(text)
		if lowered == "" {
			continue
		}

		positive := countMarkers(lowered, positiveMarkers)
		negative := countMarkers(lowered, negativeMarkers)

		var score float64
		switch {
		case positive > negative:
			emotions.Positive++
			score = math.Min(10, float64(5+positive-negative))
		case negative > positive:
			emotions.Negative++
			score = math.Max(0, float64(5-(negative-positive)))
		default:
			emotions.Neutral++
			score = 5.0
		}
		scores = append(scores, score)

		if countMarkers(lowered, urgentMarkers) > 0 {
			details.UrgentCount++
		}
		if countMarkers(lowered, questionMarkers) > 0 {
			details.QuestionCount++
		}
		if countMarkers(lowered, resolutionMarkers) > 0 {
			details.ResolutionCount++
		}
	}

	average := 5.0
	if len(scores) > 0 {
		var sum float64
		for _, score := range scores {
			sum += score
		}
		average = sum / float64(len(scores))
	}

	total := len(texts)
	details.TotalMessages = total
	details.EmotionCounts = emotions
	details.PositiveRatio = float64(emotions.Positive) / float64(total)
	details.NegativeRatio = float64(emotions.Negative) / float64(total)

	temperature := adjustTemperature(average, details)

	return TemperatureResult{
		Temperature: math.Round(temperature*10) / 10,
		Confidence:  temperatureConfidence(total),
		Description: temperatureDescription(temperature),
		Emoji:       TemperatureEmoji(temperature),
		Details:     details,
	}
}

func countMarkers(text string, markers []string) int {
	count := 0
	for _, marker := range markers {
		count += strings.Count(text, marker)
	}
	return count
}

// adjustTemperature applies the window-level corrections: urgency heats
// the conversation up, resolutions cool it down, and a strong emotional
// skew in either direction shifts it half a degree.
func adjustTemperature(base float64, details TemperatureDetails) float64 {
	temperature := base
	total := float64(details.TotalMessages)

	if details.UrgentCount > 0 {
		factor := math.Min(2.0, float64(details.UrgentCount)/total*10)
		temperature += factor * 0.3
	}
	if details.ResolutionCount > 0 {
		factor := math.Min(2.0, float64(details.ResolutionCount)/total*10)
		temperature -= factor * 0.2
	}

	if details.PositiveRatio > 0.3 {
		temperature += 0.5
	}
	if details.NegativeRatio > 0.3 {
		temperature -= 0.5
	}

	return math.Max(0.0, math.Min(10.0, temperature))
}

func temperatureConfidence(totalMessages int) float64 {
	switch {
	case totalMessages < 5:
		return 0.3
	case totalMessages < 10:
		return 0.6
	case totalMessages < 20:
		return 0.8
	default:
		return 0.9
	}
}

func temperatureDescription(temperature float64) string {
	switch {
	case temperature >= 8.0:
		return "Very high temperature: heated discussion with strong emotions"
	case temperature >= 6.5:
		return "Elevated temperature: active emotional discussion"
	case temperature >= 4.5:
		return "Normal temperature: calm constructive communication"
	case temperature >= 3.0:
		return "Low temperature: sluggish or tense communication"
	default:
		return "Very low temperature: cold or conflicted communication"
	}
}

// TemperatureEmoji maps a temperature to its band emoji.
func TemperatureEmoji(temperature float64) string {
	switch {
	case temperature >= 8.0:
		return "🔥"
	case temperature >= 6.5:
		return "⚡"
	case temperature >= 4.5:
		return "😐"
	case temperature >= 3.0:
		return "😔"
	default:
		return "❄️"
	}
}
