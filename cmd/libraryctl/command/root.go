package command

// root.go defines the root command and the flags every subcommand shares.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"libraryhub/cmd/libraryctl/authentication"
	"libraryhub/cmd/libraryctl/command/client"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	apiURL  string        // Global flag for API server URL
	timeout time.Duration // per-command request budget
)

var rootCmd = &cobra.Command{
	Use:   "libraryctl",
	Short: "libraryctl - libraryhub command line client",
	Long: `libraryctl talks to the libraryhub API. Readers can browse books, fill a cart,
check out and renew loans. Desk staff can scan pickup codes, confirm and return
loans, settle invoices and run the overdue sweep.

Use "libraryctl command -h" to see all available commands.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Reason != "" {
			color.Red("✗ %s", apiErr.Message)
			fmt.Fprintf(os.Stderr, "  reason: %s (HTTP %d)\n", apiErr.Reason, apiErr.Status)
		} else {
			color.Red("✗ %v", err)
		}
		os.Exit(1)
	}
}

func init() {
	defaultAPI := os.Getenv("LIBRARYHUB_API")
	if defaultAPI == "" {
		defaultAPI = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", defaultAPI, "API server URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

// authedClient returns a client carrying the stored access token.
func authedClient() (*client.HTTPClient, *authentication.StoredCredentials, error) {
	creds, err := authentication.GetTokens()
	if err != nil {
		return nil, nil, fmt.Errorf("not logged in, please run 'libraryctl auth login'")
	}
	if creds.Expired(time.Now()) {
		return nil, nil, fmt.Errorf("session expired, please run 'libraryctl auth login' again")
	}
	c := client.NewHTTPClient(apiURL)
	c.SetToken(creds.AccessToken)
	return c, creds, nil
}

func newPublicClient() *client.HTTPClient {
	return client.NewHTTPClient(apiURL)
}

func success(format string, args ...any) {
	color.Green("✓ "+format, args...)
}
