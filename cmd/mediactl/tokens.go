package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/and161185/audio-dementia/internal/repository/postgres"
	"github.com/and161185/audio-dementia/internal/service"
)

func newTokensCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Refresh token maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete expired refresh tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := postgres.New(ctx, a.cfg.Database.DSN)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer db.Close()

			// the signing key is not needed to delete rows
			auth := service.NewAuthService(postgres.NewUserRepo(db), postgres.NewTokenRepo(db), nil, 0, 0, nil)
			n, err := auth.PurgeExpiredRefreshTokens(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired refresh tokens\n", n)
			return nil
		},
	})
	return cmd
}
