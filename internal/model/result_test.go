package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecognitionResult_NeedsUserConfirmation(t *testing.T) {
	tests := []struct {
		name   string
		result RecognitionResult
		want   bool
	}{
		{
			name:   "no predictions",
			result: RecognitionResult{},
			want:   true,
		},
		{
			name: "top below threshold",
			result: RecognitionResult{Predictions: Predictions{
				{Label: "Curry", Confidence: 0.84},
			}},
			want: true,
		},
		{
			name: "top at threshold",
			result: RecognitionResult{Predictions: Predictions{
				{Label: "Curry", Confidence: 0.85},
			}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.NeedsUserConfirmation())
		})
	}
}

func TestRecognitionResult_TopPrediction(t *testing.T) {
	result := RecognitionResult{Predictions: Predictions{
		{Label: "Sushi", Confidence: 0.9},
		{Label: "Sashimi", Confidence: 0.6},
	}}

	top := result.TopPrediction()
	require.NotNil(t, top)
	assert.Equal(t, "Sushi", top.Label)

	top.Label = "mutated"
	assert.Equal(t, "Sushi", result.Predictions[0].Label)

	assert.Nil(t, RecognitionResult{}.TopPrediction())
}

func TestRecognitionResult_Clone(t *testing.T) {
	result := RecognitionResult{
		Timestamp:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		SourceImageRef: "ref-1",
		Predictions:    Predictions{{Label: "Bagel", Confidence: 0.7}},
	}

	clone := result.Clone()
	assert.Equal(t, result, clone)

	clone.Predictions[0].Confidence = 0.1
	clone.Predictions = append(clone.Predictions, Prediction{Label: "Lox"})
	assert.Equal(t, 0.7, result.Predictions[0].Confidence)
	assert.Len(t, result.Predictions, 1)
}

func TestRecognitionResult_MarshalJSON(t *testing.T) {
	result := RecognitionResult{
		SourceImageRef: "ref-2",
		Path:           PathLocalAccepted,
		Predictions:    Predictions{{Label: "Pizza", Confidence: 0.92, Source: SourceLocal}},
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "ref-2", decoded["source_image_ref"])
	assert.Equal(t, "local_accepted", decoded["path"])
	assert.Equal(t, false, decoded["needs_user_confirmation"])
	top, ok := decoded["top_prediction"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Pizza", top["label"])

	var roundTrip RecognitionResult
	require.NoError(t, json.Unmarshal(data, &roundTrip))
	assert.Equal(t, result.Predictions, roundTrip.Predictions)
}

func TestNutritionRecord_CaloriesFor(t *testing.T) {
	record := NutritionRecord{Name: "Rice", ServingGrams: 100, Calories: 130}
	assert.InDelta(t, 195.0, record.CaloriesFor(150), 1e-9)

	unsized := NutritionRecord{Name: "Mystery", Calories: 80}
	assert.InDelta(t, 80.0, unsized.CaloriesFor(500), 1e-9)

	bad := NutritionRecord{Name: "Bad", Calories: -1}
	assert.Error(t, bad.Validate())
	assert.NoError(t, record.Validate())
}
