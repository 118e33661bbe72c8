package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/iliyamo/library-seat-reservation/internal/identity"
)

func newSeatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seats",
		Short: "Show the seat map",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result SeatList

			if err := client.Get(cmd.Context(), "/v1/seats", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newSeatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seat <id>",
		Short: "Show one seat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result SeatResult

			if err := client.Get(cmd.Context(), "/v1/seats/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result.Seat)
			return nil
		},
	}
}

func newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Book a seat, or release it if it is yours",
		Long: `toggle books the seat when you hold none and releases it when it is
yours.  Release your current seat before booking another one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := session.Check(cmd.Context())
			if err != nil {
				return err
			}
			if snap.State != identity.StateAuthenticated {
				return fmt.Errorf("sign in first: seatctl login or seatctl otp send")
			}

			var result SeatResult
			if err := client.Post(cmd.Context(), "/v1/seats/"+url.PathEscape(args[0])+"/toggle", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result.Seat)
			return nil
		},
	}
}
