package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/foodlens/internal/cli"
	"github.com/Veraticus/foodlens/internal/model"
	"github.com/spf13/cobra"
)

func recognizeCmd() *cobra.Command {
	var (
		asJSON  bool
		confirm bool
	)

	cmd := &cobra.Command{
		Use:   "recognize PHOTO...",
		Short: "Recognize the food in one or more photos",
		Long: `Recognize the food in each photo and print the ranked predictions with
nutrition. With --confirm, uncertain results ask which food it really is.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			settings, err := loadSettings()
			if err != nil {
				return err
			}
			a, err := newApp(ctx, settings, slog.Default())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			out := cmd.OutOrStdout()
			prompter := cli.NewPrompter(cmd.InOrStdin(), out)
			results := make(map[string]model.RecognitionResult, len(args))

			for _, path := range args {
				image, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read photo: %w", err)
				}

				start := time.Now()
				result, err := a.orch.Recognize(ctx, image)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}

				if asJSON {
					results[path] = result
					continue
				}

				if _, err := fmt.Fprintln(out, cli.RenderResult(filepath.Base(path), result, time.Since(start))); err != nil {
					return err
				}
				if !confirm {
					continue
				}

				choice, err := prompter.Confirm(ctx, result)
				if err != nil {
					return err
				}
				switch {
				case choice.Skipped:
					_, _ = fmt.Fprintln(out, cli.FormatInfo("Skipped"))
				default:
					_, _ = fmt.Fprintln(out, cli.FormatSuccess("Logged "+choice.Label))
				}
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if len(args) == 1 {
					return enc.Encode(results[args[0]])
				}
				return enc.Encode(results)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "ask for confirmation when the result is uncertain")
	return cmd
}
