package main

import (
	"log/slog"

	"github.com/Veraticus/foodlens/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the recognition API over HTTP",
		Long: `Serve the recognition API:

  POST   /v1/recognize     photo as the body or the "image" form field
  DELETE /v1/cache         clear cached results
  GET    /v1/cache/stats   cache and recognition counters
  GET    /healthz          liveness`,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			return server.New(settings.Server, a.orch, slog.Default()).Run(ctx)
		},
	}

	cmd.Flags().String("addr", server.DefaultAddr, "listen address")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}
