package cli

import (
	"testing"
	"time"

	"github.com/Veraticus/foodlens/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestRenderResult(t *testing.T) {
	grams := 200.0
	pred := model.NewPrediction("Grilled Chicken Breast", 0.95, model.SourceMerged)
	pred.Portion = &model.PortionEstimate{Description: "1 breast", Grams: &grams}
	pred.Nutrition = &model.NutritionRecord{Name: "Grilled Chicken Breast", ServingGrams: 100, Calories: 165}

	result := model.RecognitionResult{
		Path:        model.PathRemoteMerged,
		Fingerprint: "rl-0123456789abcdef",
		Predictions: model.Predictions{pred},
	}

	out := RenderResult("lunch.jpg", result, 1500*time.Millisecond)

	assert.Contains(t, out, "lunch.jpg")
	assert.Contains(t, out, "Grilled Chicken Breast")
	assert.Contains(t, out, "95%")
	assert.Contains(t, out, "1 breast (200g)")
	assert.Contains(t, out, "330", "calories scaled to the portion")
	assert.Contains(t, out, "remote_merged")
	assert.NotContains(t, out, "Please confirm")
}

func TestRenderResult_NeedsConfirmation(t *testing.T) {
	result := model.RecognitionResult{
		Path:        model.PathLocalFallback,
		Predictions: model.Predictions{model.NewPrediction("soup", 0.4, model.SourceLocal)},
	}

	out := RenderResult("dinner.png", result, time.Second)
	assert.Contains(t, out, "Please confirm")
}

func TestRenderResult_Empty(t *testing.T) {
	out := RenderResult("blank.png", model.RecognitionResult{Path: model.PathLocalFallback}, 0)
	assert.Contains(t, out, "No food recognized.")
}

func TestRenderNutrition(t *testing.T) {
	assert.Contains(t, RenderNutrition(nil), "No foods found.")

	out := RenderNutrition([]model.NutritionRecord{
		{Name: "Apple", ServingGrams: 182, Calories: 95, CarbsGrams: 25, Source: "sqlite"},
	})
	assert.Contains(t, out, "Apple")
	assert.Contains(t, out, "182g")
	assert.Contains(t, out, "25.0g")
}

func TestRenderBatchSummary(t *testing.T) {
	out := RenderBatchSummary(BatchSummary{
		Total:     3,
		Paths:     map[model.Path]int{model.PathLocalAccepted: 2},
		Failed:    []string{"blurry.jpg"},
		CacheHits: 1,
		Elapsed:   time.Second,
	})

	assert.Contains(t, out, "local_accepted")
	assert.Contains(t, out, "blurry.jpg")
	assert.Contains(t, out, "1 failed")
}

func TestShortFingerprint(t *testing.T) {
	assert.Equal(t, "rl-0123456789a", shortFingerprint("rl-0123456789abcdef"))
	assert.Equal(t, "short", shortFingerprint("short"))
}

func TestConfidenceStyle(t *testing.T) {
	tests := []struct {
		want       any
		name       string
		confidence float64
	}{
		{name: "confident", confidence: 0.9, want: colorTeal},
		{name: "at threshold", confidence: model.ConfirmationThreshold, want: colorTeal},
		{name: "plausible", confidence: 0.6, want: colorMustard},
		{name: "doubtful", confidence: 0.2, want: colorTomato},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfidenceStyle(tt.confidence).GetForeground())
		})
	}
}
