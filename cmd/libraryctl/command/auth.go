package command

import (
	"fmt"
	"time"

	"libraryhub/cmd/libraryctl/authentication"
	"libraryhub/cmd/libraryctl/command/client"
	"libraryhub/internal/microservices/http-api/dto"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Register, log in and log out. The session is kept in the OS keyring.`,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new reader account",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.RegisterRequest
		req.Email, _ = cmd.Flags().GetString("email")
		req.Password, _ = cmd.Flags().GetString("password")
		req.FirstName, _ = cmd.Flags().GetString("first-name")
		req.LastName, _ = cmd.Flags().GetString("last-name")

		ctx, cancel := commandContext(cmd)
		defer cancel()

		resp, err := client.NewHTTPClient(apiURL).Register(ctx, &req)
		if err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}
		success("Registration successful! Follow the activation link sent to %s, then login.", resp.Email)
		fmt.Printf("UserID: %s\n", resp.UserID)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.LoginRequest
		req.Email, _ = cmd.Flags().GetString("email")
		req.Password, _ = cmd.Flags().GetString("password")

		ctx, cancel := commandContext(cmd)
		defer cancel()

		resp, err := client.NewHTTPClient(apiURL).Login(ctx, &req)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		creds := &authentication.StoredCredentials{
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
			Email:        resp.Email,
			Role:         resp.Role,
			ExpiresAt:    time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second).Unix(),
		}
		if err := authentication.StoreTokens(creds); err != nil {
			return fmt.Errorf("could not save session: %w", err)
		}
		success("Logged in as %s (%s)", resp.Email, resp.Role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the refresh token and forget the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := authentication.GetTokens()
		if err != nil {
			success("Already logged out.")
			return nil
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		// the server answers 200 for unknown tokens, so only transport errors surface here
		if err := client.NewHTTPClient(apiURL).Revoke(ctx, creds.RefreshToken); err != nil {
			fmt.Printf("warning: could not revoke refresh token: %v\n", err)
		}
		if err := authentication.DeleteTokens(); err != nil {
			return fmt.Errorf("could not clear session: %w", err)
		}
		success("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := authentication.GetTokens()
		if err != nil {
			return fmt.Errorf("not logged in")
		}
		fmt.Printf("Email: %s\nRole:  %s\n", creds.Email, creds.Role)
		if creds.Expired(time.Now()) {
			fmt.Println("Access token expired.")
		} else {
			fmt.Printf("Expires: %s\n", time.Unix(creds.ExpiresAt, 0).Format(time.RFC3339))
		}
		return nil
	},
}

var activateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Activate an account, or ask for a new activation link",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")
		resend, _ := cmd.Flags().GetString("resend")
		if (token == "") == (resend == "") {
			return fmt.Errorf("pass exactly one of --token or --resend")
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		c := client.NewHTTPClient(apiURL)
		if resend != "" {
			if err := c.ResendActivation(ctx, resend); err != nil {
				return err
			}
			success("If %s is waiting for activation, a new link is on its way.", resend)
			return nil
		}
		if err := c.Activate(ctx, token); err != nil {
			return fmt.Errorf("activation failed: %w", err)
		}
		success("Account activated. You can login now.")
		return nil
	},
}

var forgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password",
	Short: "Send a password reset link",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")

		ctx, cancel := commandContext(cmd)
		defer cancel()

		if err := client.NewHTTPClient(apiURL).RequestReset(ctx, email); err != nil {
			return err
		}
		success("If an account exists for %s, a reset link is on its way.", email)
		return nil
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a new password with a reset token",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")
		password, _ := cmd.Flags().GetString("password")

		ctx, cancel := commandContext(cmd)
		defer cancel()

		if err := client.NewHTTPClient(apiURL).ResetPassword(ctx, token, password); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
		// every session was revoked server side
		_ = authentication.DeleteTokens()
		success("Password updated. Please login again.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoamiCmd, activateCmd, forgotPasswordCmd, resetPasswordCmd)

	activateCmd.Flags().String("token", "", "Token from the activation link")
	activateCmd.Flags().String("resend", "", "Email to send a new activation link to")

	forgotPasswordCmd.Flags().StringP("email", "e", "", "Account email")
	forgotPasswordCmd.MarkFlagRequired("email")

	resetPasswordCmd.Flags().String("token", "", "Token from the reset link")
	resetPasswordCmd.Flags().StringP("password", "p", "", "New password (at least 8 characters)")
	resetPasswordCmd.MarkFlagRequired("token")
	resetPasswordCmd.MarkFlagRequired("password")

	registerCmd.Flags().StringP("email", "e", "", "Email address for the new account")
	registerCmd.Flags().StringP("password", "p", "", "Password (at least 8 characters)")
	registerCmd.Flags().String("first-name", "", "First name")
	registerCmd.Flags().String("last-name", "", "Last name")
	registerCmd.MarkFlagRequired("email")
	registerCmd.MarkFlagRequired("password")

	loginCmd.Flags().StringP("email", "e", "", "Account email")
	loginCmd.Flags().StringP("password", "p", "", "Account password")
	loginCmd.MarkFlagRequired("email")
	loginCmd.MarkFlagRequired("password")
}
