// Package cli contains the ratectl command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/irfndi/ratepulse/internal/models"
	"github.com/irfndi/ratepulse/internal/output"
	"github.com/irfndi/ratepulse/internal/services"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Dashboard is the part of the dashboard service the commands use.
type Dashboard interface {
	DefaultTopK() int
	Load(ctx context.Context, assetID string, k int) (*services.DashboardView, error)
	CurrentPrice(ctx context.Context, assetID string) (*models.CurrentPrice, bool, error)
}

// OpenFunc connects the backing stores and returns a dashboard together with
// a function releasing them.
type OpenFunc func(ctx context.Context) (Dashboard, func(), error)

// App holds what the commands need from main.
type App struct {
	Out     io.Writer
	Err     io.Writer
	Assets  []models.Asset
	Open    OpenFunc
	Logger  *logrus.Logger
	Version string
}

type session struct {
	app      *App
	color    string
	logLevel string
}

func (s *session) applyLogLevel() error {
	if s.logLevel == "" || s.app.Logger == nil {
		return nil
	}
	level, err := logrus.ParseLevel(s.logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	s.app.Logger.SetLevel(level)
	return nil
}

func (s *session) printer() (*output.Printer, error) {
	mode, err := output.ParseColorMode(s.color)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(s.app.Out, s.app.Err, output.ResolveColors(mode)), nil
}

func (s *session) open(ctx context.Context) (Dashboard, func(), error) {
	dashboard, closeFn, err := s.app.Open(ctx)
	if err != nil {
		return nil, nil, err
	}
	if closeFn == nil {
		closeFn = func() {}
	}
	return dashboard, closeFn, nil
}

// NewRootCommand builds the ratectl command tree.
func NewRootCommand(app *App) *cobra.Command {
	if app.Out == nil {
		app.Out = os.Stdout
	}
	if app.Err == nil {
		app.Err = os.Stderr
	}
	s := &session{app: app}

	root := &cobra.Command{
		Use:   "ratectl",
		Short: "Inspect scraped exchange rates from the terminal",
		Long: `ratectl ranks the largest percentage moves in the stored price history
of an asset and looks up its live price.

Example usage:
  ratectl assets               # List configured assets
  ratectl analyze BTC          # Top increases and decreases for Bitcoin
  ratectl analyze ETH -k 10    # Top 10 moves for Ethereum
  ratectl price DOGE           # Current price of Dogecoin`,
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.applyLogLevel()
		},
	}
	root.SetOut(app.Out)
	root.SetErr(app.Err)
	root.PersistentFlags().StringVar(&s.color, "color", "auto", "colorize output: auto, always or never")
	root.PersistentFlags().StringVar(&s.logLevel, "log-level", "", "override logging.cli_level (debug, info, warn, error)")

	root.AddCommand(
		newAnalyzeCommand(s),
		newPriceCommand(s),
		newAssetsCommand(s),
	)
	return root
}
