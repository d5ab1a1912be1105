package recognition

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/foodlens/internal/model"
	"github.com/Veraticus/foodlens/internal/service"
	"golang.org/x/sync/errgroup"
)

// Merge builds the combined list from a local and a remote run. Remote
// predictions are the base. A remote label that a local label corroborates
// (case-insensitive substring either way) gains boost, up to ceiling. Local
// predictions without a remote counterpart are dropped.
func Merge(local, remote model.Predictions, boost, ceiling float64) model.Predictions {
	localLabels := make([]string, 0, len(local))
	for _, p := range local {
		if label := normalizeLabel(p.Label); label != "" {
			localLabels = append(localLabels, label)
		}
	}

	merged := make(model.Predictions, 0, len(remote))
	for _, r := range remote {
		p := r.Clone()
		p.Source = model.SourceMerged
		if agrees(normalizeLabel(r.Label), localLabels) {
			boosted := p.Confidence + boost
			if boosted > ceiling {
				boosted = ceiling
			}
			if boosted > p.Confidence {
				p.Confidence = model.ClampConfidence(boosted)
			}
		}
		merged = append(merged, p)
	}
	return merged
}

func agrees(remote string, local []string) bool {
	if remote == "" {
		return false
	}
	for _, l := range local {
		if strings.Contains(remote, l) || strings.Contains(l, remote) {
			return true
		}
	}
	return false
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// SanityFilter drops predictions whose labels are too short to be food.
type SanityFilter struct {
	MinLabelLength int
}

// Apply returns the surviving predictions with trimmed labels, in order.
func (f SanityFilter) Apply(preds model.Predictions) model.Predictions {
	out := make(model.Predictions, 0, len(preds))
	for _, p := range preds {
		label := strings.TrimSpace(p.Label)
		if utf8.RuneCountInString(label) < f.MinLabelLength {
			continue
		}
		kept := p.Clone()
		kept.Label = label
		out = append(out, kept)
	}
	return out
}

// Enricher checks each prediction against the nutrition database. A match
// is attached to the prediction; a miss discounts its confidence.
type Enricher struct {
	Lookup      service.NutritionLookup
	Logger      *slog.Logger
	MissPenalty float64
	Concurrency int
}

// Enrich never fails. Lookup errors count as misses.
func (e *Enricher) Enrich(ctx context.Context, preds model.Predictions) model.Predictions {
	out := preds.Clone()
	if len(out) == 0 {
		return out
	}

	matches := make([]*model.NutritionRecord, len(out))
	if e.Lookup != nil {
		g, gctx := errgroup.WithContext(ctx)
		limit := e.Concurrency
		if limit <= 0 {
			limit = 1
		}
		g.SetLimit(limit)

		for i := range out {
			i := i
			label := out[i].Label
			g.Go(func() error {
				matches[i] = e.lookup(gctx, label)
				return nil
			})
		}
		_ = g.Wait()
	}

	for i := range out {
		if matches[i] != nil {
			out[i].Nutrition = matches[i]
			continue
		}
		out[i].Confidence = model.ClampConfidence(out[i].Confidence * e.MissPenalty)
	}
	return out
}

func (e *Enricher) lookup(ctx context.Context, label string) *model.NutritionRecord {
	records, err := e.Lookup.Search(ctx, label, 1)
	if err != nil {
		if e.Logger != nil {
			e.Logger.Debug("Nutrition lookup failed, treating as miss",
				"label", label,
				"error", err)
		}
		return nil
	}
	if len(records) == 0 {
		return nil
	}
	record := records[0]
	return &record
}
