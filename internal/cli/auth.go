package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/library-seat-reservation/internal/identity"
)

func newLoginCmd() *cobra.Command {
	var email, pass string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return passwordAuth(cmd, "/v1/auth/login", email, pass)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newRegisterCmd() *cobra.Command {
	var email, pass string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return passwordAuth(cmd, "/v1/auth/register", email, pass)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func passwordAuth(cmd *cobra.Command, path, email, pass string) error {
	if email == "" || pass == "" {
		return fmt.Errorf("--email and --pass are required")
	}

	req := map[string]string{"email": email, "password": pass}
	var result AuthResult
	if err := client.Post(cmd.Context(), path, req, &result); err != nil {
		return err
	}
	return signIn(cmd, result)
}

// signIn saves the token and prints the account.
func signIn(cmd *cobra.Command, result AuthResult) error {
	if err := session.SignIn(cmd.Context(), result.Access.Token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
	return nil
}

func newOTPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "otp",
		Short: "Sign in with an emailed one-time code",
	}

	cmd.AddCommand(newOTPSendCmd())
	cmd.AddCommand(newOTPVerifyCmd())

	return cmd
}

func newOTPSendCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Email a one-time code",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result OTPSendResult
			if err := client.Post(cmd.Context(), "/v1/auth/otp/send", map[string]string{"email": email}, &result); err != nil {
				return err
			}
			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email (required)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newOTPVerifyCmd() *cobra.Command {
	var email, code string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a one-time code and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"email": email, "code": code}
			if err := client.Post(cmd.Context(), "/v1/auth/otp/verify", req, nil); err != nil {
				return err
			}

			var result AuthResult
			if err := client.Post(cmd.Context(), "/v1/auth/otp/token", map[string]string{"email": email}, &result); err != nil {
				return err
			}
			return signIn(cmd, result)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email (required)")
	cmd.Flags().StringVar(&code, "code", "", "Code from the email (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("code")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := session.SignOut(); err != nil {
				return err
			}
			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage("Signed out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show who you are signed in as and your seat",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := session.Check(cmd.Context())
			if err != nil {
				return err
			}

			result := WhoamiResult{State: string(snap.State)}
			if snap.State == identity.StateAuthenticated {
				result.Me = session.Me()
			}
			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
