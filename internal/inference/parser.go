package inference

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/foodlens/internal/common"
	"github.com/Veraticus/foodlens/internal/model"
)

// cleanMarkdownWrapper strips a ```json fence and any chatter around the
// outermost JSON object.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```JSON")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx >= 0 {
			content = content[:idx]
		}
		content = strings.TrimSpace(content)
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}

// localResponse is the JSON the local model is asked to produce.
type localResponse struct {
	Predictions []struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	} `json:"predictions"`
}

// parseLocalPredictions turns model output into at most topK local
// predictions, most confident first.
func parseLocalPredictions(content string, topK int) (model.Predictions, error) {
	var resp localResponse
	if err := json.Unmarshal([]byte(cleanMarkdownWrapper(content)), &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %w", common.ErrClassificationFailed, err)
	}

	preds := make(model.Predictions, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		label := strings.TrimSpace(p.Label)
		if label == "" {
			continue
		}
		preds = append(preds, model.NewPrediction(label, p.Confidence, model.SourceLocal))
	}
	preds.SortByConfidence()

	if topK > 0 && len(preds) > topK {
		preds = preds[:topK]
	}
	return preds, nil
}

// foodListResponse is the JSON remote vision models are asked to produce.
type foodListResponse struct {
	Foods []struct {
		Grams      *float64        `json:"grams"`
		Name       string          `json:"name"`
		Portion    string          `json:"portion"`
		Confidence json.RawMessage `json:"confidence"`
	} `json:"foods"`
}

// parseFoodList converts a remote food list into predictions. Confidence is
// always derived from a tier; numeric scores are bucketed first.
func parseFoodList(content string) (model.Predictions, error) {
	var resp foodListResponse
	if err := json.Unmarshal([]byte(cleanMarkdownWrapper(content)), &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrParse, err)
	}

	preds := make(model.Predictions, 0, len(resp.Foods))
	for _, f := range resp.Foods {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			continue
		}

		p := model.NewPrediction(name, TierConfidence(rawTier(f.Confidence)), model.SourceRemote)
		if f.Portion != "" || f.Grams != nil {
			portion := &model.PortionEstimate{Description: strings.TrimSpace(f.Portion)}
			if f.Grams != nil && *f.Grams > 0 {
				grams := *f.Grams
				portion.Grams = &grams
			}
			p.Portion = portion
		}
		preds = append(preds, p)
	}
	return preds, nil
}

// rawTier reads a confidence field that may be a tier name or a number.
func rawTier(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var tier string
	if err := json.Unmarshal(raw, &tier); err == nil {
		return tier
	}

	var score float64
	if err := json.Unmarshal(raw, &score); err == nil {
		if score <= 1 {
			score *= 100
		}
		return tierFromPercent(score)
	}
	return ""
}
