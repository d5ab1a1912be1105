package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/foodlens/internal/common"
	"github.com/Veraticus/foodlens/internal/model"
)

// Defaults for the local classifier.
const (
	DefaultOllamaEndpoint = "http://localhost:11434"
	DefaultOllamaModel    = "llava"
	DefaultTopK           = 5
)

const localPromptTemplate = `Identify the food in this photo. Respond with ONLY a JSON object of the form
{"predictions":[{"label":"<food name>","confidence":<0.0-1.0>}]}
with at most %d predictions, most likely first. Use short, common food names.`

// OllamaClassifier runs a vision model on a local Ollama daemon, so photos
// never leave the machine.
type OllamaClassifier struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string
	model      string
	topK       int
}

// NewOllamaClassifier creates a classifier for the configured daemon.
func NewOllamaClassifier(cfg Config, logger *slog.Logger) (*OllamaClassifier, error) {
	if logger == nil {
		logger = slog.Default()
	}

	endpoint := strings.TrimRight(cfg.BaseURL, "/")
	if endpoint == "" {
		endpoint = DefaultOllamaEndpoint
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, fmt.Errorf("%w: ollama endpoint must be an http(s) URL, got %q", common.ErrInvalidConfig, cfg.BaseURL)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultOllamaModel
	}

	topK := cfg.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	return &OllamaClassifier{
		httpClient: httpClient,
		logger:     logger,
		endpoint:   endpoint,
		model:      modelName,
		topK:       topK,
	}, nil
}

type ollamaGenerateRequest struct {
	Options map[string]any `json:"options,omitempty"`
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Format  string         `json:"format"`
	Images  []string       `json:"images"`
	Stream  bool           `json:"stream"`
}

type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Error    string `json:"error"`
	Done     bool   `json:"done"`
}

// Classify implements service.LocalClassifier.
func (c *OllamaClassifier) Classify(ctx context.Context, image []byte) (model.Predictions, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", common.ErrClassificationFailed)
	}

	body, err := json.Marshal(ollamaGenerateRequest{
		Model:   c.model,
		Prompt:  fmt.Sprintf(localPromptTemplate, c.topK),
		Images:  []string{base64.StdEncoding.EncodeToString(image)},
		Format:  "json",
		Stream:  false,
		Options: map[string]any{"temperature": 0},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrClassificationFailed, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %w", common.ErrModelUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", common.ErrClassificationFailed, err)
	}

	var generated ollamaGenerateResponse
	parseErr := json.Unmarshal(respBody, &generated)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: model %s not available: %s", common.ErrModelUnavailable, c.model, generated.Error)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: ollama error (status %d): %s", common.ErrClassificationFailed, resp.StatusCode, string(respBody))
	case parseErr != nil:
		return nil, fmt.Errorf("%w: failed to parse response: %w", common.ErrClassificationFailed, parseErr)
	}

	preds, err := parseLocalPredictions(generated.Response, c.topK)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Local classification finished",
		"model", c.model,
		"predictions", len(preds),
		"duration", time.Since(start))
	return preds, nil
}
