package cli

import (
	"github.com/spf13/cobra"

	"aqve/internal/entities"
	"aqve/internal/service"
)

func (a *App) profileCommand() *cobra.Command {
	cmd := requireAuth(&cobra.Command{
		Use:   "profile",
		Short: "Show or change your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := fetch(cmd.Context(), a.svc.Users.Profile(), service.NoKey{})
			if err != nil {
				return err
			}
			return a.printUser(u)
		},
	})

	var req entities.UpdateProfileRequest
	update := &cobra.Command{
		Use:   "update",
		Short: "Change name, phone or username",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := a.svc.Users.UpdateProfile().Mutate(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.printUser(u)
		},
	}
	f := update.Flags()
	f.StringVar(&req.FirstName, "first-name", "", "first name")
	f.StringVar(&req.LastName, "last-name", "", "last name")
	f.StringVar(&req.Phone, "phone", "", "phone number")
	f.StringVar(&req.Username, "username", "", "username")
	update.MarkFlagsOneRequired("first-name", "last-name", "phone", "username")

	var change service.PasswordChange
	password := &cobra.Command{
		Use:   "password",
		Short: "Change your password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if change.Current, err = a.valueOr(cmd, change.Current, "Current password: ", true); err != nil {
				return err
			}
			if change.Next, err = a.valueOr(cmd, change.Next, "New password: ", true); err != nil {
				return err
			}
			_, err = a.svc.Users.ChangePassword().Mutate(cmd.Context(), change)
			return err
		},
	}
	password.Flags().StringVar(&change.Current, "current", "", "current password (prompted when omitted)")
	password.Flags().StringVar(&change.Next, "new", "", "new password (prompted when omitted)")

	var yes bool
	deleteAccount := &cobra.Command{
		Use:   "delete",
		Short: "Delete your account and sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				answer, err := a.prompt(cmd, "Delete your account for good? Type yes: ")
				if err != nil {
					return err
				}
				if answer != "yes" {
					return a.out.Message("Aborted")
				}
			}
			if err := a.api.Users.DeleteAccount(cmd.Context()); err != nil {
				return err
			}
			if err := a.session.Logout(cmd.Context()); err != nil {
				a.log.Debugf("logout after account deletion: %v", err)
			}
			return a.out.Message("Account deleted")
		},
	}
	deleteAccount.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	cmd.AddCommand(update, password, deleteAccount)
	return cmd
}
