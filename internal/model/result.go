package model

import (
	"encoding/json"
	"time"
)

// ConfirmationThreshold is the top-prediction confidence below which the
// user is asked to confirm the recognized food.
const ConfirmationThreshold = 0.85

// Path records which route through the recognizer produced a result.
type Path string

// Recognition paths.
const (
	PathLocalAccepted Path = "local_accepted"
	PathRemoteMerged  Path = "remote_merged"
	PathRemoteOnly    Path = "remote_only"
	PathLocalFallback Path = "local_fallback"
)

// RecognitionResult is the outcome of one recognition request. It is built
// once and never mutated afterwards; use Clone before changing anything.
type RecognitionResult struct {
	Timestamp      time.Time   `json:"timestamp"`
	SourceImageRef string      `json:"source_image_ref"`
	Fingerprint    string      `json:"fingerprint"`
	Path           Path        `json:"path"`
	Predictions    Predictions `json:"predictions"`
}

// TopPrediction returns the first prediction, or nil when there are none.
func (r RecognitionResult) TopPrediction() *Prediction {
	if len(r.Predictions) == 0 {
		return nil
	}
	top := r.Predictions[0].Clone()
	return &top
}

// NeedsUserConfirmation is true when there is no top prediction or it falls
// below ConfirmationThreshold.
func (r RecognitionResult) NeedsUserConfirmation() bool {
	top := r.TopPrediction()
	return top == nil || top.Confidence < ConfirmationThreshold
}

// Clone returns a deep copy that shares no memory with r.
func (r RecognitionResult) Clone() RecognitionResult {
	r.Predictions = r.Predictions.Clone()
	return r
}

// MarshalJSON includes the derived fields alongside the stored ones.
func (r RecognitionResult) MarshalJSON() ([]byte, error) {
	type plain RecognitionResult
	return json.Marshal(struct {
		TopPrediction         *Prediction `json:"top_prediction"`
		plain
		NeedsUserConfirmation bool `json:"needs_user_confirmation"`
	}{
		plain:                 plain(r),
		TopPrediction:         r.TopPrediction(),
		NeedsUserConfirmation: r.NeedsUserConfirmation(),
	})
}
