package model

import (
	"fmt"
	"sort"
	"strings"
)

// Source identifies which recognizer produced a prediction.
type Source string

// Prediction sources.
const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
	SourceMerged Source = "merged"
)

// PortionEstimate is a recognizer's guess at how much food is in the photo.
type PortionEstimate struct {
	Grams       *float64 `json:"grams,omitempty"`
	Description string   `json:"description"`
}

// Prediction is one candidate food identification.
type Prediction struct {
	Portion    *PortionEstimate `json:"portion,omitempty"`
	Nutrition  *NutritionRecord `json:"nutrition,omitempty"`
	Label      string           `json:"label"`
	Source     Source           `json:"source"`
	Confidence float64          `json:"confidence"`
}

// NewPrediction creates a prediction with its confidence clamped to [0,1].
func NewPrediction(label string, confidence float64, source Source) Prediction {
	return Prediction{
		Label:      label,
		Confidence: ClampConfidence(confidence),
		Source:     source,
	}
}

// Validate ensures the prediction has a label and an in-range confidence.
func (p *Prediction) Validate() error {
	if strings.TrimSpace(p.Label) == "" {
		return fmt.Errorf("prediction label is required")
	}

	if p.Confidence < 0.0 || p.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0, got %.2f", p.Confidence)
	}

	return nil
}

// Clone returns a deep copy of the prediction.
func (p Prediction) Clone() Prediction {
	if p.Portion != nil {
		portion := *p.Portion
		if portion.Grams != nil {
			grams := *portion.Grams
			portion.Grams = &grams
		}
		p.Portion = &portion
	}
	if p.Nutrition != nil {
		nutrition := *p.Nutrition
		p.Nutrition = &nutrition
	}
	return p
}

// ClampConfidence bounds a confidence value to [0,1].
func ClampConfidence(c float64) float64 {
	switch {
	case c != c: // NaN
		return 0
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}

// Predictions is an ordered list of predictions.
type Predictions []Prediction

// SortByConfidence sorts descending by confidence. Equal confidences keep
// their original relative order, so the first-produced prediction wins ties.
func (p Predictions) SortByConfidence() {
	sort.SliceStable(p, func(i, j int) bool {
		return p[i].Confidence > p[j].Confidence
	})
}

// IsSortedByConfidence reports whether confidences are non-increasing.
func (p Predictions) IsSortedByConfidence() bool {
	for i := 1; i < len(p); i++ {
		if p[i].Confidence > p[i-1].Confidence {
			return false
		}
	}
	return true
}

// Top returns the highest-confidence prediction, or nil if empty.
// The receiver is not reordered.
func (p Predictions) Top() *Prediction {
	if len(p) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(p); i++ {
		if p[i].Confidence > p[best].Confidence {
			best = i
		}
	}
	top := p[best].Clone()
	return &top
}

// TopN returns a copy of the first n predictions.
func (p Predictions) TopN(n int) Predictions {
	if n <= 0 {
		return Predictions{}
	}
	if n > len(p) {
		n = len(p)
	}
	return p[:n].Clone()
}

// Clone returns a deep copy of the list.
func (p Predictions) Clone() Predictions {
	if p == nil {
		return nil
	}
	out := make(Predictions, len(p))
	for i, pred := range p {
		out[i] = pred.Clone()
	}
	return out
}

// Labels returns the labels in order.
func (p Predictions) Labels() []string {
	labels := make([]string, len(p))
	for i, pred := range p {
		labels[i] = pred.Label
	}
	return labels
}

// WithSource returns a copy of the list with every prediction retagged.
func (p Predictions) WithSource(source Source) Predictions {
	out := p.Clone()
	for i := range out {
		out[i].Source = source
	}
	return out
}
