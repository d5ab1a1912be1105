package inference

import "strings"

// Confidence tiers reported by remote services.
const (
	TierHigh   = "high"
	TierMedium = "medium"
	TierLow    = "low"
)

// Confidence assigned to each tier.
const (
	HighConfidence        = 0.9
	MediumConfidence      = 0.7
	LowConfidence         = 0.5
	UnspecifiedConfidence = 0.6
)

// TierConfidence maps a coarse tier to a confidence. Unknown or empty tiers
// get UnspecifiedConfidence.
func TierConfidence(tier string) float64 {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case TierHigh:
		return HighConfidence
	case TierMedium:
		return MediumConfidence
	case TierLow:
		return LowConfidence
	default:
		return UnspecifiedConfidence
	}
}

// tierFromPercent buckets a 0-100 score into a tier.
func tierFromPercent(percent float64) string {
	switch {
	case percent >= 90:
		return TierHigh
	case percent >= 75:
		return TierMedium
	default:
		return TierLow
	}
}
