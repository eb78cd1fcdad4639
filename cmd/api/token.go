package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ammerola/consum-be/internal/pkg/auth"
	"github.com/ammerola/consum-be/internal/pkg/config"
	"github.com/ammerola/consum-be/internal/pkg/logger"
)

func newTokenCommand() *cobra.Command {
	var subject string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the protected endpoints",
		Example: `  consum token --sub ops
  consum token --sub importer --ttl 24h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(logger.SetupLogger("error", "text").Logger)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			signer, err := auth.NewSigner(cfg.Security.JWTSecret, cfg.Security.JWTExpiration)
			if err != nil {
				return err
			}

			token, err := signer.Issue(subject, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "sub", "", "Token subject (required)")
	cmd.Flags().DurationVar(&ttl, "ttl", 21*24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("sub")

	return cmd
}
