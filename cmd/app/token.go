package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"consultpay/internal/auth"
	"consultpay/internal/config"
)

func tokenCmd() *cobra.Command {
	var (
		subjectID int64
		email     string
		role      string
		ttl       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			tok, err := auth.GenerateToken(subjectID, email, role, cfg.JWTSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}

	cmd.Flags().Int64Var(&subjectID, "subject", 0, "consultant id for consultant tokens")
	cmd.Flags().StringVar(&email, "email", "", "email claim; identifies clients")
	cmd.Flags().StringVar(&role, "role", auth.RoleConsultant, "consultant, client or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.AccessTokenTTL, "token lifetime")
	return cmd
}
