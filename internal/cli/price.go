package cli

import (
	"errors"
	"fmt"

	"github.com/irfndi/ratepulse/internal/pricefeed"
	"github.com/spf13/cobra"
)

func newPriceCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "price <asset>",
		Short: "Show the live price of an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, err := s.printer()
			if err != nil {
				return err
			}

			dashboard, closeFn, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			price, found, err := dashboard.CurrentPrice(cmd.Context(), args[0])
			switch {
			case errors.Is(err, pricefeed.ErrNotConfigured):
				return fmt.Errorf("%w: set PRICE_API_KEY", err)
			case err != nil:
				return fmt.Errorf("fetching current price: %w", err)
			case !found:
				return fmt.Errorf("current price for %s not found", args[0])
			}

			printer.Print("Current Price: %s %s", printer.Bold(price.Price.StringFixed(2)), price.Currency)
			return nil
		},
	}
}
