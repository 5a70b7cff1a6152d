package main

import (
	"fmt"

	"github.com/spf13/cobra"

	httpadapter "github.com/custodia-labs/truthscope/internal/adapters/driving/http"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the comparison runner",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			logger := ctx.logger()
			logger.Info("truthscope starting", "version", version)

			app, err := buildApplication(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.worker.Start(cmd.Context()); err != nil {
				return fmt.Errorf("failed to start worker: %w", err)
			}
			defer app.worker.Stop()

			deps := httpadapter.Dependencies{
				Comparison:   app.compare,
				Assets:       app.compare,
				JobStore:     app.jobs,
				Capabilities: app.services,
				Worker:       app.worker,
				Tokens:       app.tokens,
			}
			if app.tokens == nil {
				logger.Warn("JWT secret not set, API is unauthenticated")
			}
			if app.metrics != nil {
				deps.Metrics = app.metrics.Handler()
			}

			server := httpadapter.NewServer(httpadapter.Config{
				Host:           cfg.Server.Host,
				Port:           cfg.Server.Port,
				Version:        version,
				AllowedOrigins: cfg.Server.AllowedOrigins,
				Logger:         logger,
			}, deps)

			// blocks until SIGINT/SIGTERM cancels the command context
			if err := server.Start(cmd.Context()); err != nil {
				return err
			}
			logger.Info("truthscope stopped")
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides server.port)")
	return cmd
}
