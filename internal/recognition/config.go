package recognition

import (
	"fmt"
	"time"

	"github.com/Veraticus/foodlens/internal/common"
)

// Config holds the tunables of the recognition pipeline.
type Config struct {
	LocalConfidenceThreshold float64
	AgreementBoost           float64
	AgreementCap             float64
	EnrichmentMissPenalty    float64
	SanityMinLabelLength     int
	LocalTimeout             time.Duration
	RemoteTimeout            time.Duration
	EnrichmentConcurrency    int
	SingleFlight             bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		LocalConfidenceThreshold: 0.85,
		AgreementBoost:           0.10,
		AgreementCap:             0.95,
		EnrichmentMissPenalty:    0.9,
		SanityMinLabelLength:     2,
		LocalTimeout:             10 * time.Second,
		RemoteTimeout:            30 * time.Second,
		EnrichmentConcurrency:    4,
		SingleFlight:             true,
	}
}

// Validate checks that every value is usable.
func (c Config) Validate() error {
	if c.LocalConfidenceThreshold < 0 || c.LocalConfidenceThreshold > 1 {
		return fmt.Errorf("%w: local confidence threshold must be between 0.0 and 1.0, got %.2f",
			common.ErrInvalidConfig, c.LocalConfidenceThreshold)
	}
	if c.AgreementBoost < 0 {
		return fmt.Errorf("%w: agreement boost must not be negative", common.ErrInvalidConfig)
	}
	if c.AgreementCap < 0 || c.AgreementCap > 1 {
		return fmt.Errorf("%w: agreement cap must be between 0.0 and 1.0, got %.2f",
			common.ErrInvalidConfig, c.AgreementCap)
	}
	if c.EnrichmentMissPenalty < 0 || c.EnrichmentMissPenalty > 1 {
		return fmt.Errorf("%w: enrichment miss penalty must be between 0.0 and 1.0, got %.2f",
			common.ErrInvalidConfig, c.EnrichmentMissPenalty)
	}
	if c.SanityMinLabelLength < 0 {
		return fmt.Errorf("%w: minimum label length must not be negative", common.ErrInvalidConfig)
	}
	if c.LocalTimeout <= 0 || c.RemoteTimeout <= 0 {
		return fmt.Errorf("%w: adapter timeouts must be positive", common.ErrInvalidConfig)
	}
	return nil
}
