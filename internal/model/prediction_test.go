package model

import (
	"math"
	"testing"
)

func TestPrediction_Validate(t *testing.T) {
	tests := []struct {
		name       string
		errMsg     string
		prediction Prediction
		wantErr    bool
	}{
		{
			name:       "valid prediction",
			prediction: Prediction{Label: "Pad Thai", Confidence: 0.8, Source: SourceLocal},
		},
		{
			name:       "blank label",
			prediction: Prediction{Label: "   ", Confidence: 0.5},
			wantErr:    true,
			errMsg:     "prediction label is required",
		},
		{
			name:       "confidence too high",
			prediction: Prediction{Label: "Ramen", Confidence: 1.2},
			wantErr:    true,
			errMsg:     "confidence must be between 0.0 and 1.0, got 1.20",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.prediction.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tt.errMsg)
				}
				if err.Error() != tt.errMsg {
					t.Errorf("error = %q, want %q", err.Error(), tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestClampConfidence(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: -0.5, want: 0},
		{in: 0, want: 0},
		{in: 0.42, want: 0.42},
		{in: 1, want: 1},
		{in: 1.7, want: 1},
		{in: math.NaN(), want: 0},
	}

	for _, tt := range tests {
		if got := ClampConfidence(tt.in); got != tt.want {
			t.Errorf("ClampConfidence(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if p := NewPrediction("Soup", 3, SourceRemote); p.Confidence != 1 {
		t.Errorf("NewPrediction did not clamp, got %v", p.Confidence)
	}
}

func TestPredictions_SortByConfidence(t *testing.T) {
	preds := Predictions{
		{Label: "first", Confidence: 0.5},
		{Label: "second", Confidence: 0.9},
		{Label: "third", Confidence: 0.5},
		{Label: "fourth", Confidence: 0.7},
	}

	preds.SortByConfidence()

	want := []string{"second", "fourth", "first", "third"}
	for i, label := range preds.Labels() {
		if label != want[i] {
			t.Fatalf("order = %v, want %v", preds.Labels(), want)
		}
	}
	if !preds.IsSortedByConfidence() {
		t.Error("expected sorted predictions")
	}
}

func TestPredictions_Top(t *testing.T) {
	var empty Predictions
	if empty.Top() != nil {
		t.Error("expected nil top for empty predictions")
	}

	preds := Predictions{
		{Label: "Salad", Confidence: 0.4},
		{Label: "Burrito", Confidence: 0.8},
		{Label: "Burrito Bowl", Confidence: 0.8},
	}
	top := preds.Top()
	if top == nil || top.Label != "Burrito" {
		t.Fatalf("Top() = %+v, want Burrito", top)
	}
	if preds[0].Label != "Salad" {
		t.Error("Top() must not reorder the receiver")
	}
}

func TestPredictions_CloneIsDeep(t *testing.T) {
	grams := 120.0
	original := Predictions{{
		Label:      "Oatmeal",
		Confidence: 0.9,
		Portion:    &PortionEstimate{Description: "1 bowl", Grams: &grams},
		Nutrition:  &NutritionRecord{Name: "Oatmeal", Calories: 150},
	}}

	clone := original.Clone()
	*clone[0].Portion.Grams = 10
	clone[0].Portion.Description = "changed"
	clone[0].Nutrition.Calories = 1
	clone[0].Label = "changed"

	if *original[0].Portion.Grams != 120 || original[0].Portion.Description != "1 bowl" {
		t.Error("portion shared between clone and original")
	}
	if original[0].Nutrition.Calories != 150 {
		t.Error("nutrition shared between clone and original")
	}
	if original[0].Label != "Oatmeal" {
		t.Error("label changed on original")
	}
}

func TestPredictions_WithSource(t *testing.T) {
	preds := Predictions{{Label: "Taco", Source: SourceRemote}}
	tagged := preds.WithSource(SourceMerged)

	if tagged[0].Source != SourceMerged {
		t.Errorf("source = %s, want merged", tagged[0].Source)
	}
	if preds[0].Source != SourceRemote {
		t.Error("WithSource modified the receiver")
	}
}
