// Package cli renders recognition results and prompts in the terminal.
package cli

import (
	"github.com/Veraticus/foodlens/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// Palette.
const (
	colorSaffron = lipgloss.Color("#F4A261")
	colorTeal    = lipgloss.Color("#2A9D8F")
	colorMustard = lipgloss.Color("#E9C46A")
	colorTomato  = lipgloss.Color("#E76F51")
	colorSky     = lipgloss.Color("#8ECAE6")
	colorAsh     = lipgloss.Color("#666666")
	colorRule    = lipgloss.Color("#333333")
)

// lowConfidence is where a prediction stops being a plausible guess.
const lowConfidence = 0.5

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorSaffron).MarginBottom(1)
	PromptStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorSaffron)
	SuccessStyle = lipgloss.NewStyle().Foreground(colorTeal)
	WarningStyle = lipgloss.NewStyle().Foreground(colorMustard)
	ErrorStyle   = lipgloss.NewStyle().Foreground(colorTomato)
	InfoStyle    = lipgloss.NewStyle().Foreground(colorSky)
	SubtleStyle  = lipgloss.NewStyle().Foreground(colorAsh)
	BoldStyle    = lipgloss.NewStyle().Bold(true)

	// BoxStyle frames a single result or summary.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorRule).
			Padding(1, 2)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(colorRule)
	TableCellStyle = lipgloss.NewStyle().PaddingRight(2)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	PlateIcon   = "🍽️"
	CameraIcon  = "📷"
	ChartIcon   = "📊"
)

// ConfidenceStyle colors a confidence by band: confident enough to skip
// confirmation, plausible, or doubtful.
func ConfidenceStyle(c float64) lipgloss.Style {
	switch {
	case c >= model.ConfirmationThreshold:
		return SuccessStyle
	case c >= lowConfidence:
		return WarningStyle
	default:
		return ErrorStyle
	}
}

func withIcon(style lipgloss.Style, icon, message string) string {
	return style.Render(icon + " " + message)
}

func FormatSuccess(message string) string { return withIcon(SuccessStyle, SuccessIcon, message) }
func FormatError(message string) string   { return withIcon(ErrorStyle, ErrorIcon, message) }
func FormatWarning(message string) string { return withIcon(WarningStyle, WarningIcon, message) }
func FormatInfo(message string) string    { return withIcon(InfoStyle, InfoIcon, message) }
func FormatTitle(title string) string     { return withIcon(TitleStyle, PlateIcon, title) }

// FormatPrompt renders a question waiting for input.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt + " → ")
}

// RenderBox frames content under a title.
func RenderBox(title, content string) string {
	heading := TitleStyle.UnsetMargins().Render(title)
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, heading, content))
}
