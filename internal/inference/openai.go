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

// Defaults for the OpenAI-compatible analyzer.
const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-4o-mini"
)

const remoteSystemPrompt = "You are a food recognition assistant. You MUST respond with ONLY a valid JSON object. " +
	"Do not include any explanatory text, markdown formatting, or commentary before or after the JSON."

const remoteUserPrompt = `List every distinct food visible in this photo. Respond with JSON of the form
{"foods":[{"name":"<specific food name>","confidence":"high|medium|low","portion":"<e.g. 1 cup>","grams":<estimated grams>}]}
Order foods by how sure you are, most certain first. Use an empty list if there is no food.`

// OpenAIAnalyzer sends photos to an OpenAI-compatible chat completions API.
type OpenAIAnalyzer struct {
	httpClient  *http.Client
	logger      *slog.Logger
	rateLimiter *rateLimiter
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
}

// NewOpenAIAnalyzer creates an analyzer. An API key is required.
func NewOpenAIAnalyzer(cfg Config, logger *slog.Logger) (*OpenAIAnalyzer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required", common.ErrMissingConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultOpenAIModel
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	return &OpenAIAnalyzer{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		model:       modelName,
		maxTokens:   600,
		httpClient:  httpClient,
		logger:      logger,
		rateLimiter: newRateLimiter(cfg.RateLimit),
	}, nil
}

type chatContentPart struct {
	ImageURL *chatImageURL `json:"image_url,omitempty"`
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
}

type chatImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatMessage struct {
	Content any    `json:"content"`
	Role    string `json:"role"`
}

// openAIResponse represents the chat completions response structure.
type openAIResponse struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
		Index        int    `json:"index"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Analyze implements service.RemoteAnalyzer.
func (a *OpenAIAnalyzer) Analyze(ctx context.Context, image []byte) (model.Predictions, error) {
	_, mime, err := inspectImage(image)
	if err != nil {
		return nil, err
	}

	if err := a.rateLimiter.wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrNetwork, err)
	}

	requestBody := map[string]any{
		"model": a.model,
		"messages": []chatMessage{
			{Role: "system", Content: remoteSystemPrompt},
			{Role: "user", Content: []chatContentPart{
				{Type: "text", Text: remoteUserPrompt},
				{Type: "image_url", ImageURL: &chatImageURL{
					URL:    "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image),
					Detail: "low",
				}},
			}},
		},
		"temperature":     0.2,
		"max_tokens":      a.maxTokens,
		"response_format": map[string]string{"type": "json_object"},
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", common.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", common.ErrNetwork, err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: rejected by vision API: %s", common.ErrInvalidImage, string(body))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: OpenAI API error (status %d): %s", common.ErrNetwork, resp.StatusCode, string(body))
	}

	var response openAIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %w", common.ErrParse, err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("%w: no completion choices returned", common.ErrParse)
	}

	preds, err := parseFoodList(response.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("Remote analysis finished",
		"provider", ProviderOpenAI,
		"model", a.model,
		"predictions", len(preds),
		"total_tokens", response.Usage.TotalTokens,
		"duration", time.Since(start))
	return preds, nil
}
