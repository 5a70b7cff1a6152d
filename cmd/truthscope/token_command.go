package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/truthscope/internal/adapters/driven/auth"
	"github.com/custodia-labs/truthscope/internal/core/domain"
)

func newTokenCommand(ctx *commandContext) *cobra.Command {
	var (
		subject string
		scope   string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API bearer token signed with server.jwt_secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Server.JWTSecret == "" {
				return errors.New("server.jwt_secret (or JWT_SECRET) must be set to mint tokens")
			}
			if ttl <= 0 {
				return errors.New("--ttl must be positive")
			}

			token, err := auth.NewAdapter(cfg.Server.JWTSecret).
				GenerateToken(domain.NewTokenClaims(subject, scope, ttl))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Token subject, e.g. a client name")
	cmd.Flags().StringVar(&scope, "scope", "", "Optional scope claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}
