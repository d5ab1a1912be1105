package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Veraticus/foodlens/internal/model"
)

// Confirmation is the user's answer to a recognition result.
type Confirmation struct {
	// Prediction is the chosen prediction, nil for manual entry or skip.
	Prediction *model.Prediction
	Label      string
	Manual     bool
	Skipped    bool
}

// Prompter asks the user to confirm low-confidence recognitions.
type Prompter struct {
	writer io.Writer
	reader *NonBlockingReader
}

// NewPrompter creates a prompter. Nil reader and writer default to stdin and stdout.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		reader: NewNonBlockingReader(reader),
		writer: writer,
	}
}

// Confirm returns the top prediction untouched when the result does not
// need confirmation. Otherwise it lists the predictions and lets the user
// pick one, type the food, or skip.
func (p *Prompter) Confirm(ctx context.Context, result model.RecognitionResult) (Confirmation, error) {
	if !result.NeedsUserConfirmation() {
		top := result.TopPrediction()
		return Confirmation{Prediction: top, Label: top.Label}, nil
	}

	if err := p.printChoices(result.Predictions); err != nil {
		return Confirmation{}, err
	}

	for {
		choice, err := p.ask(ctx, choicePrompt(len(result.Predictions)))
		if err != nil {
			return Confirmation{}, err
		}

		switch choice = strings.ToLower(choice); choice {
		case "s":
			return Confirmation{Skipped: true}, nil
		case "m":
			label, err := p.askManual(ctx)
			if err != nil {
				return Confirmation{}, err
			}
			return Confirmation{Label: label, Manual: true}, nil
		}

		n, convErr := strconv.Atoi(choice)
		if convErr == nil && n >= 1 && n <= len(result.Predictions) {
			chosen := result.Predictions[n-1].Clone()
			return Confirmation{Prediction: &chosen, Label: chosen.Label}, nil
		}

		p.println(FormatError("Invalid choice. Please try again."))
	}
}

func (p *Prompter) printChoices(preds model.Predictions) error {
	if _, err := fmt.Fprintln(p.writer, FormatWarning("Not sure about this one. Which food is it?")); err != nil {
		return fmt.Errorf("failed to write prompt: %w", err)
	}
	for i, pred := range preds {
		if _, err := fmt.Fprintf(p.writer, "  [%d] %s %s\n", i+1, pred.Label, FormatConfidence(pred.Confidence)); err != nil {
			return fmt.Errorf("failed to write choice: %w", err)
		}
	}
	return nil
}

func (p *Prompter) askManual(ctx context.Context) (string, error) {
	for {
		label, err := p.ask(ctx, "Enter the food")
		if err != nil {
			return "", err
		}
		if label != "" {
			return label, nil
		}
		p.println(FormatError("Food name cannot be empty. Please try again."))
	}
}

func (p *Prompter) ask(ctx context.Context, prompt string) (string, error) {
	if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	line, err := p.reader.ReadLine(ctx)
	if errors.Is(err, io.EOF) {
		return "", fmt.Errorf("input terminated")
	}
	return line, err
}

func (p *Prompter) println(msg string) {
	_, _ = fmt.Fprintln(p.writer, msg)
}

func choicePrompt(n int) string {
	if n == 0 {
		return "[m]anual entry or [s]kip"
	}
	return fmt.Sprintf("Choose [1-%d], [m]anual entry or [s]kip", n)
}
