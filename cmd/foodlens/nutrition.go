package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Veraticus/foodlens/internal/cli"
	"github.com/Veraticus/foodlens/internal/config"
	"github.com/Veraticus/foodlens/internal/model"
	"github.com/Veraticus/foodlens/internal/nutrition"
	"github.com/spf13/cobra"
)

func nutritionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nutrition",
		Short: "Manage the food database",
	}
	cmd.AddCommand(nutritionImportCmd())
	cmd.AddCommand(nutritionSearchCmd())
	cmd.AddCommand(nutritionAliasCmd())
	return cmd
}

func nutritionImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE.csv",
		Short: "Import foods from CSV",
		Long: `Import foods into the local database. The first row names the columns:
name (required), serving_grams, calories, protein, carbs, fat.
Foods that already exist are updated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open CSV: %w", err)
			}
			defer func() { _ = f.Close() }()

			store, err := openStore(cmd.Context(), settings.Nutrition.DatabasePath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			n, err := store.ImportCSV(cmd.Context(), f)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}

			slog.Info("Imported foods", "count", n, "database", settings.Nutrition.DatabasePath)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Imported %d foods", n)))
			return err
		},
	}
}

func nutritionSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search the configured nutrition source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}

			var records []model.NutritionRecord
			switch settings.Nutrition.Provider {
			case config.NutritionEdamam:
				client, err := nutrition.NewEdamamClient(settings.Nutrition.Edamam, slog.Default())
				if err != nil {
					return err
				}
				records, err = client.Search(cmd.Context(), args[0], limit)
				if err != nil {
					return err
				}
			default:
				store, err := openStore(cmd.Context(), settings.Nutrition.DatabasePath)
				if err != nil {
					return err
				}
				defer func() { _ = store.Close() }()

				records, err = store.Search(cmd.Context(), args[0], limit)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Foods matching %q", args[0]))); err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, cli.RenderNutrition(records))
			return err
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum results")
	return cmd
}

func nutritionAliasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alias FOOD ALIAS",
		Short: "Make a food findable under another name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), settings.Nutrition.DatabasePath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.AddAlias(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s is now also found as %s", args[0], args[1])))
			return err
		},
	}
}
