package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"langquiz-service/internal/app"
	"langquiz-service/internal/domain"
)

// NewUserCmd groups account administration commands.
func NewUserCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newUserCreateCmd(configPath))
	return cmd
}

func newUserCreateCmd(configPath *string) *cobra.Command {
	var email, role string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a learner or creator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer log.Sync()
			b, err := openBackend(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer b.Close()

			user, err := app.NewAccountService(b.store).CreateUser(cmd.Context(), email, domain.Role(role))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s with id %d\n", user.Role, user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleLearner), "learner or creator")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
