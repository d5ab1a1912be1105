// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/foodlens/internal/model"
)

// LocalClassifier runs the on-device model. Implementations return
// predictions sorted by descending confidence, capped to a small top-K.
type LocalClassifier interface {
	Classify(ctx context.Context, image []byte) (model.Predictions, error)
}

// RemoteAnalyzer calls the remote vision inference service. Predictions may
// carry portion estimates.
type RemoteAnalyzer interface {
	Analyze(ctx context.Context, image []byte) (model.Predictions, error)
}

// NutritionLookup searches a nutrition database by food name.
type NutritionLookup interface {
	Search(ctx context.Context, query string, limit int) ([]model.NutritionRecord, error)
}

// Reachability reports whether the remote service can be reached right now.
type Reachability interface {
	IsConnected(ctx context.Context) bool
}

// Fingerprinter derives a cache key from image bytes.
type Fingerprinter interface {
	Fingerprint(image []byte) string
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
