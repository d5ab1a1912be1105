package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Veraticus/foodlens/internal/common"
	"github.com/Veraticus/foodlens/internal/model"
	"github.com/Veraticus/foodlens/internal/service"
)

// SourceEdamam tags records read from the Edamam food database.
const SourceEdamam = "edamam"

// DefaultEdamamBaseURL is the Edamam food database API root.
const DefaultEdamamBaseURL = "https://api.edamam.com/api/food-database/v2"

// EdamamConfig holds Edamam credentials and client settings.
type EdamamConfig struct {
	HTTPClient *http.Client
	AppID      string
	AppKey     string
	BaseURL    string
	Retry      service.RetryOptions
}

// EdamamClient searches the Edamam food database parser API. Nutrient
// values from Edamam are per 100 grams.
type EdamamClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	appID      string
	appKey     string
	baseURL    string
	retry      service.RetryOptions
}

// NewEdamamClient creates a client. Both app ID and key are required.
func NewEdamamClient(cfg EdamamConfig, logger *slog.Logger) (*EdamamClient, error) {
	if cfg.AppID == "" || cfg.AppKey == "" {
		return nil, fmt.Errorf("%w: Edamam app ID and key are required", common.ErrMissingConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultEdamamBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	retry := cfg.Retry
	if retry.MaxAttempts == 0 {
		retry = service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 250 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Multiplier:   2,
		}
	}

	return &EdamamClient{
		httpClient: httpClient,
		logger:     logger,
		appID:      cfg.AppID,
		appKey:     cfg.AppKey,
		baseURL:    baseURL,
		retry:      retry,
	}, nil
}

type edamamFood struct {
	Nutrients map[string]float64 `json:"nutrients"`
	FoodID    string             `json:"foodId"`
	Label     string             `json:"label"`
	Category  string             `json:"category"`
}

type edamamParserResponse struct {
	Text   string `json:"text"`
	Parsed []struct {
		Food edamamFood `json:"food"`
	} `json:"parsed"`
	Hints []struct {
		Food edamamFood `json:"food"`
	} `json:"hints"`
}

// Search implements service.NutritionLookup. Foods Edamam parsed directly
// from the query come first, then its hints; duplicates are dropped.
func (c *EdamamClient) Search(ctx context.Context, query string, limit int) ([]model.NutritionRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil, nil
	}

	var response edamamParserResponse
	err := common.WithRetry(ctx, func() error {
		var fetchErr error
		response, fetchErr = c.fetch(ctx, query)
		return fetchErr
	}, c.retry)
	if err != nil {
		return nil, err
	}

	foods := make([]edamamFood, 0, len(response.Parsed)+len(response.Hints))
	for _, p := range response.Parsed {
		foods = append(foods, p.Food)
	}
	for _, h := range response.Hints {
		foods = append(foods, h.Food)
	}

	seen := make(map[string]bool, len(foods))
	records := make([]model.NutritionRecord, 0, limit)
	for _, food := range foods {
		if len(records) == limit {
			break
		}
		if food.Label == "" || seen[food.FoodID] {
			continue
		}
		seen[food.FoodID] = true
		records = append(records, model.NutritionRecord{
			ID:           food.FoodID,
			Name:         food.Label,
			Source:       SourceEdamam,
			ServingGrams: 100,
			Calories:     food.Nutrients["ENERC_KCAL"],
			ProteinGrams: food.Nutrients["PROCNT"],
			CarbsGrams:   food.Nutrients["CHOCDF"],
			FatGrams:     food.Nutrients["FAT"],
		})
	}

	c.logger.Debug("Edamam search finished",
		"query", query,
		"results", len(records))
	return records, nil
}

func (c *EdamamClient) fetch(ctx context.Context, query string) (edamamParserResponse, error) {
	var response edamamParserResponse

	params := url.Values{}
	params.Set("ingr", query)
	params.Set("app_id", c.appID)
	params.Set("app_key", c.appKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/parser?"+params.Encode(), nil)
	if err != nil {
		return response, &common.RetryableError{Err: fmt.Errorf("failed to create request: %w", err), Retryable: false}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return response, &common.RetryableError{Err: fmt.Errorf("edamam request canceled: %w", ctx.Err()), Retryable: false}
		}
		return response, &common.RetryableError{Err: fmt.Errorf("%w: edamam request failed: %w", common.ErrNetwork, err), Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return response, &common.RetryableError{Err: fmt.Errorf("%w: failed to read edamam response: %w", common.ErrNetwork, err), Retryable: true}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return response, &common.RetryableError{Err: fmt.Errorf("edamam API error %d: %w", resp.StatusCode, common.ErrRateLimit), Retryable: true}
	case resp.StatusCode >= 500:
		return response, &common.RetryableError{Err: fmt.Errorf("%w: edamam API error %d: %s", common.ErrNetwork, resp.StatusCode, string(body)), Retryable: true}
	case resp.StatusCode != http.StatusOK:
		return response, &common.RetryableError{Err: fmt.Errorf("%w: edamam API error %d: %s", common.ErrNetwork, resp.StatusCode, string(body)), Retryable: false}
	}

	if err := json.Unmarshal(body, &response); err != nil {
		return response, &common.RetryableError{Err: fmt.Errorf("%w: failed to parse edamam response: %w", common.ErrParse, err), Retryable: false}
	}
	return response, nil
}
