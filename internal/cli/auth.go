package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"aqve/internal/entities"
)

// prompt reads one line from the command's input after printing label.
func (a *App) prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	if a.in == nil {
		a.in = bufio.NewReader(cmd.InOrStdin())
	}
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.TrimSpace(label), ":"), err)
	}
	return strings.TrimSpace(line), nil
}

// secret reads a password without echo when the input is a terminal.
func (a *App) secret(cmd *cobra.Command, label string) (string, error) {
	f, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return a.prompt(cmd, label)
	}
	fmt.Fprint(cmd.ErrOrStderr(), label)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

// valueOr returns v, or prompts for it when empty.
func (a *App) valueOr(cmd *cobra.Command, v, label string, hidden bool) (string, error) {
	if v != "" {
		return v, nil
	}
	if hidden {
		return a.secret(cmd, label)
	}
	return a.prompt(cmd, label)
}

func (a *App) printUser(u entities.User) error {
	return a.out.Fields(u,
		"ID", u.ID,
		"Name", u.FullName(),
		"Email", u.Email,
		"Phone", orDash(u.Phone),
		"Email verified", yesNo(u.IsEmailVerified),
		"Phone verified", yesNo(u.IsPhoneVerified),
	)
}

func (a *App) loginCommand() *cobra.Command {
	var req entities.LoginRequest
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if req.Email, err = a.valueOr(cmd, req.Email, "Email: ", false); err != nil {
				return err
			}
			if req.Password, err = a.valueOr(cmd, req.Password, "Password: ", true); err != nil {
				return err
			}
			user, err := a.session.Login(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.out.Message("Signed in as %s", user.Email)
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func (a *App) registerCommand() *cobra.Command {
	var req entities.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if req.FirstName, err = a.valueOr(cmd, req.FirstName, "First name: ", false); err != nil {
				return err
			}
			if req.LastName, err = a.valueOr(cmd, req.LastName, "Last name: ", false); err != nil {
				return err
			}
			if req.Email, err = a.valueOr(cmd, req.Email, "Email: ", false); err != nil {
				return err
			}
			if req.Password, err = a.valueOr(cmd, req.Password, "Password: ", true); err != nil {
				return err
			}
			user, err := a.session.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.out.Message("Welcome, %s", user.FullName())
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.FirstName, "first-name", "", "first name")
	f.StringVar(&req.LastName, "last-name", "", "last name")
	f.StringVar(&req.Email, "email", "", "account email")
	f.StringVar(&req.Password, "password", "", "account password (prompted when omitted)")
	f.StringVar(&req.Phone, "phone", "", "phone number")
	return cmd
}

func (a *App) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.session.IsAuthenticated() {
				return a.out.Message("Not signed in")
			}
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			return a.out.Message("Signed out")
		},
	}
}

func (a *App) whoamiCommand() *cobra.Command {
	return requireAuth(&cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.printUser(*a.session.User())
		},
	})
}

// accountCommand groups the recovery and verification flows that work
// without a session.
func (a *App) accountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Recover passwords and verify contact details",
	}

	forgot := &cobra.Command{
		Use:   "forgot-password EMAIL",
		Short: "Request a password reset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.api.Auth.ForgotPassword(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.out.Message("%s", res.Message)
		},
	}

	var newPassword string
	reset := &cobra.Command{
		Use:   "reset-password TOKEN",
		Short: "Set a new password with a reset token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := a.valueOr(cmd, newPassword, "New password: ", true)
			if err != nil {
				return err
			}
			res, err := a.api.Auth.ResetPassword(cmd.Context(), args[0], pw)
			if err != nil {
				return err
			}
			return a.out.Message("%s", res.Message)
		},
	}
	reset.Flags().StringVar(&newPassword, "new-password", "", "new password (prompted when omitted)")

	sendOTP := &cobra.Command{
		Use:   "send-otp USER_ID",
		Short: "Send a phone verification code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.api.Auth.SendPhoneOTP(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.out.Message("%s", res.Message)
		},
	}

	verify := &cobra.Command{
		Use:   "verify-phone USER_ID CODE",
		Short: "Confirm a phone verification code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.api.Auth.VerifyPhoneOTP(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return a.out.Message("%s", res.Message)
		},
	}

	var otpType string
	resend := &cobra.Command{
		Use:   "resend-otp USER_ID",
		Short: "Send a new one-time code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ := entities.OTPType(otpType)
			if !typ.Valid() {
				return fmt.Errorf("unknown code type %q", otpType)
			}
			res, err := a.api.Auth.ResendOTP(cmd.Context(), args[0], typ)
			if err != nil {
				return err
			}
			return a.out.Message("%s", res.Message)
		},
	}
	resend.Flags().StringVar(&otpType, "type", string(entities.OTPRegistration), "registration, login or password_reset")

	verifyEmail := &cobra.Command{
		Use:   "resend-email EMAIL",
		Short: "Send the verification email again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.api.Auth.ResendVerificationEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.out.Message("%s", res.Message)
		},
	}

	cmd.AddCommand(forgot, reset, sendOTP, verify, resend, verifyEmail)
	return cmd
}
