package analyzer_test

import (
	"testing"

	"github.com/chatpulse/chatpulse/internal/analyzer"
)

func TestAnalyzeTemperatureEmptyWindow(t *testing.T) {
	t.Parallel()

	result := analyzer.AnalyzeTemperature(nil)
	if result.Temperature != 5.0 {
		t.Errorf("temperature = %v, want neutral 5.0", result.Temperature)
	}
	if result.Confidence != 0.0 {
		t.Errorf("confidence = %v, want 0.0", result.Confidence)
	}
}

func TestAnalyzeTemperatureNeutral(t *testing.T) {
	t.Parallel()

	result := analyzer.AnalyzeTemperature([]string{
		"meeting moved to room 4",
		"see you there",
		"bringing the slides",
	})

	if result.Temperature < 4.5 || result.Temperature >= 6.5 {
		t.Errorf("neutral batch temperature = %v, want within the normal band", result.Temperature)
	}
	if result.Details.EmotionCounts.Neutral != 3 {
		t.Errorf("neutral count = %d, want 3", result.Details.EmotionCounts.Neutral)
	}
}

func TestAnalyzeTemperatureMonotonicInPositives(t *testing.T) {
	t.Parallel()

	// Fixed message count, growing share of positive messages. The
	// computed temperature must never decrease.
	const total = 10
	previous := -1.0
	for positives := 0; positives <= total; positives++ {
		texts := make([]string, 0, total)
		for i := 0; i < positives; i++ {
			texts = append(texts, "thanks, looks perfect")
		}
		for i := positives; i < total; i++ {
			texts = append(texts, "meeting moved to room 4")
		}

		result := analyzer.AnalyzeTemperature(texts)
		if result.Temperature < previous {
			t.Fatalf("temperature dropped from %v to %v at %d positives",
				previous, result.Temperature, positives)
		}
		previous = result.Temperature
	}
}

func TestAnalyzeTemperatureNegativeBatchRunsCold(t *testing.T) {
	t.Parallel()

	positive := analyzer.AnalyzeTemperature([]string{
		"thanks, great work", "awesome, agree completely", "perfect, thanks",
	})
	negative := analyzer.AnalyzeTemperature([]string{
		"this is a problem", "terrible, the build is broken", "error again, awful",
	})

	if negative.Temperature >= positive.Temperature {
		t.Errorf("negative batch (%v) not colder than positive batch (%v)",
			negative.Temperature, positive.Temperature)
	}
	if negative.Temperature >= 5.0 {
		t.Errorf("all-negative batch temperature = %v, want below neutral", negative.Temperature)
	}
}

func TestAnalyzeTemperatureUrgencyHeatsUp(t *testing.T) {
	t.Parallel()

	calm := []string{"meeting moved to room 4", "see you there", "bringing the slides"}
	urgent := []string{"meeting moved to room 4", "see you there", "hurry, this is urgent"}

	calmResult := analyzer.AnalyzeTemperature(calm)
	urgentResult := analyzer.AnalyzeTemperature(urgent)

	if urgentResult.Temperature <= calmResult.Temperature {
		t.Errorf("urgent batch (%v) not hotter than calm batch (%v)",
			urgentResult.Temperature, calmResult.Temperature)
	}
	if urgentResult.Details.UrgentCount != 1 {
		t.Errorf("urgent count = %d, want 1", urgentResult.Details.UrgentCount)
	}
}

func TestAnalyzeTemperatureResolutionsCoolDown(t *testing.T) {
	t.Parallel()

	open := []string{"meeting moved to room 4", "see you there", "bringing the slides"}
	settled := []string{"meeting moved to room 4", "see you there", "all items closed and settled"}

	openResult := analyzer.AnalyzeTemperature(open)
	settledResult := analyzer.AnalyzeTemperature(settled)

	if settledResult.Temperature >= openResult.Temperature {
		t.Errorf("settled batch (%v) not cooler than open batch (%v)",
			settledResult.Temperature, openResult.Temperature)
	}
}

func TestTemperatureConfidenceSteps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		messages int
		want     float64
	}{
		{messages: 1, want: 0.3},
		{messages: 4, want: 0.3},
		{messages: 5, want: 0.6},
		{messages: 9, want: 0.6},
		{messages: 10, want: 0.8},
		{messages: 19, want: 0.8},
		{messages: 20, want: 0.9},
		{messages: 50, want: 0.9},
	}

	for _, tc := range tests {
		texts := make([]string, tc.messages)
		for i := range texts {
			texts[i] = "meeting moved to room 4"
		}
		result := analyzer.AnalyzeTemperature(texts)
		if result.Confidence != tc.want {
			t.Errorf("confidence for %d messages = %v, want %v",
				tc.messages, result.Confidence, tc.want)
		}
	}
}

func TestTemperatureEmojiBands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		temperature float64
		want        string
	}{
		{temperature: 9.5, want: "🔥"},
		{temperature: 8.0, want: "🔥"},
		{temperature: 7.0, want: "⚡"},
		{temperature: 6.5, want: "⚡"},
		{temperature: 5.0, want: "😐"},
		{temperature: 4.5, want: "😐"},
		{temperature: 3.5, want: "😔"},
		{temperature: 3.0, want: "😔"},
		{temperature: 1.0, want: "❄️"},
	}

	for _, tc := range tests {
		if got := analyzer.TemperatureEmoji(tc.temperature); got != tc.want {
			t.Errorf("TemperatureEmoji(%v) = %q, want %q", tc.temperature, got, tc.want)
		}
	}
}
