package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/foodlens/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// FormatConfidence renders a confidence as a percentage colored by
// ConfidenceStyle.
func FormatConfidence(c float64) string {
	return ConfidenceStyle(c).Render(fmt.Sprintf("%3.0f%%", c*100))
}

// RenderResult renders one recognition result as a boxed table.
func RenderResult(name string, result model.RecognitionResult, elapsed time.Duration) string {
	var b strings.Builder

	if len(result.Predictions) == 0 {
		b.WriteString(SubtleStyle.Render("No food recognized."))
	} else {
		b.WriteString(RenderPredictions(result.Predictions))
	}

	b.WriteString("\n\n")
	b.WriteString(SubtleStyle.Render(fmt.Sprintf("path %s · %s · %s",
		result.Path, shortFingerprint(result.Fingerprint), elapsed.Round(time.Millisecond))))

	if result.NeedsUserConfirmation() {
		b.WriteString("\n")
		b.WriteString(FormatWarning("Please confirm the food before logging it."))
	}

	return RenderBox(CameraIcon+" "+name, b.String())
}

// RenderPredictions renders predictions as a table in their stored order.
func RenderPredictions(preds model.Predictions) string {
	rows := make([]string, 0, len(preds)+1)
	rows = append(rows, TableHeaderStyle.Render(row(predictionWidths, "#", "Food", "Conf", "Source", "Portion", "kcal")))

	for i, p := range preds {
		rows = append(rows, row(predictionWidths,
			fmt.Sprintf("%d", i+1),
			BoldStyle.Render(p.Label),
			FormatConfidence(p.Confidence),
			string(p.Source),
			portionText(p.Portion),
			caloriesText(p),
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// RenderNutrition renders nutrition records as a table.
func RenderNutrition(records []model.NutritionRecord) string {
	if len(records) == 0 {
		return SubtleStyle.Render("No foods found.")
	}

	rows := make([]string, 0, len(records)+1)
	rows = append(rows, TableHeaderStyle.Render(row(nutritionWidths, "Food", "Serving", "kcal", "Protein", "Carbs", "Fat", "Source")))
	for _, r := range records {
		rows = append(rows, row(nutritionWidths,
			BoldStyle.Render(r.Name),
			fmt.Sprintf("%gg", r.ServingGrams),
			fmt.Sprintf("%.0f", r.Calories),
			fmt.Sprintf("%.1fg", r.ProteinGrams),
			fmt.Sprintf("%.1fg", r.CarbsGrams),
			fmt.Sprintf("%.1fg", r.FatGrams),
			r.Source,
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// BatchSummary tallies the outcome of recognizing many photos.
type BatchSummary struct {
	Paths     map[model.Path]int
	Failed    []string
	Total     int
	CacheHits int64
	Elapsed   time.Duration
}

// RenderBatchSummary renders the totals of a batch run.
func RenderBatchSummary(s BatchSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s photos in %s\n", BoldStyle.Render(fmt.Sprintf("%d", s.Total)), s.Elapsed.Round(time.Millisecond))

	paths := make([]string, 0, len(s.Paths))
	for p := range s.Paths {
		paths = append(paths, string(p))
	}
	sort.Strings(paths)
	for _, p := range paths {
		fmt.Fprintf(&b, "  %-16s %d\n", p, s.Paths[model.Path(p)])
	}

	fmt.Fprintf(&b, "  %-16s %d\n", "cache hits", s.CacheHits)

	if len(s.Failed) > 0 {
		b.WriteString(FormatError(fmt.Sprintf("%d failed:", len(s.Failed))))
		for _, name := range s.Failed {
			b.WriteString("\n  " + name)
		}
	} else {
		b.WriteString(FormatSuccess("All photos recognized"))
	}

	return RenderBox(ChartIcon+" Batch summary", b.String())
}

// Column content widths.
var (
	predictionWidths = []int{3, 30, 5, 7, 24, 6}
	nutritionWidths  = []int{30, 8, 6, 8, 8, 8, 8}
)

func row(widths []int, cells ...string) string {
	styled := make([]string, len(cells))
	for i, c := range cells {
		styled[i] = TableCellStyle.Width(widths[i] + 2).Render(c)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, styled...)
}

func portionText(p *model.PortionEstimate) string {
	if p == nil {
		return "-"
	}
	if p.Grams != nil {
		if p.Description != "" {
			return fmt.Sprintf("%s (%.0fg)", p.Description, *p.Grams)
		}
		return fmt.Sprintf("%.0fg", *p.Grams)
	}
	return p.Description
}

// caloriesText scales calories to the estimated portion when both are known.
func caloriesText(p model.Prediction) string {
	if p.Nutrition == nil {
		return "-"
	}
	if p.Portion != nil && p.Portion.Grams != nil {
		return fmt.Sprintf("%.0f", p.Nutrition.CaloriesFor(*p.Portion.Grams))
	}
	return fmt.Sprintf("%.0f", p.Nutrition.Calories)
}

func shortFingerprint(fp string) string {
	if len(fp) > 14 {
		return fp[:14]
	}
	return fp
}
