package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"langquiz-service/internal/app"
	"langquiz-service/internal/auth"
	"langquiz-service/internal/config"
)

// NewTokenCmd mints an access token for an existing account.
func NewTokenCmd(configPath *string) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer log.Sync()
			issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
			if err != nil {
				return err
			}
			b, err := openBackend(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer b.Close()

			user, err := app.NewAccountService(b.store).FindByEmail(cmd.Context(), email)
			if err != nil {
				return fmt.Errorf("find %s: %w", email, err)
			}
			token, err := issuer.Issue(user.ID, user.Role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
