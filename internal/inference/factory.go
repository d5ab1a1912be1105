package inference

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Veraticus/foodlens/internal/service"
)

// Provider names.
const (
	ProviderNone        = "none"
	ProviderOllama      = "ollama"
	ProviderOpenAI      = "openai"
	ProviderRekognition = "rekognition"
)

// Config selects and configures one recognizer.
type Config struct {
	// HTTPClient overrides the client used by HTTP-based providers.
	HTTPClient *http.Client
	Provider   string
	APIKey     string
	Model      string
	BaseURL    string
	Region     string
	RateLimit  int
	TopK       int
}

// NewLocalClassifier builds the configured local classifier. Provider
// "none" returns nil, which the orchestrator treats as an unavailable model.
func NewLocalClassifier(cfg Config, logger *slog.Logger) (service.LocalClassifier, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderOllama, "":
		return NewOllamaClassifier(cfg, logger)
	case ProviderNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported local provider: %s", cfg.Provider)
	}
}

// NewRemoteAnalyzer builds the configured remote analyzer. Provider "none"
// returns nil, which keeps every request on the local path.
func NewRemoteAnalyzer(ctx context.Context, cfg Config, logger *slog.Logger) (service.RemoteAnalyzer, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI, "":
		return NewOpenAIAnalyzer(cfg, logger)
	case ProviderRekognition:
		return NewRekognitionAnalyzer(ctx, cfg, logger)
	case ProviderNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported remote provider: %s", cfg.Provider)
	}
}
