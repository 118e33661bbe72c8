package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iliyamo/library-seat-reservation/internal/identity"
)

var (
	cfg     *Config
	client  *Client
	session *Session
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "seatctl",
		Short: "CLI tool for the library seat reservation API",
		Long: `seatctl talks to the library seat reservation JSON API.

Sign in with a password or an emailed one-time code, look at the seat map
and book or release your seat.  Every account holds at most one seat.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load token from file if not provided via flag/env
			if err := cfg.LoadToken(); err != nil {
				return err
			}

			client = NewClient(cfg.ServerURL, cfg.Token)
			session = NewSession(cfg, client)
			if cfg.Verbose {
				session.Tracker().Subscribe(func(s identity.Snapshot) {
					fmt.Fprintf(cmd.ErrOrStderr(), "auth: %s %s\n", s.State, s.Identity)
				})
			}
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: SEATCTL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Access token (env: SEATCTL_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "Token file path (env: SEATCTL_TOKEN_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newRegisterCmd())
	rootCmd.AddCommand(newOTPCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newSeatsCmd())
	rootCmd.AddCommand(newSeatCmd())
	rootCmd.AddCommand(newToggleCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
