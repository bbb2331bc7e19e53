package cli

import (
	"encoding/json"
	"fmt"

	"github.com/irfndi/ratepulse/internal/chart"
	"github.com/irfndi/ratepulse/internal/models"
	"github.com/irfndi/ratepulse/internal/output"
	"github.com/irfndi/ratepulse/internal/services"
	"github.com/spf13/cobra"
)

const timestampLayout = "2006-01-02 15:04:05"

func newAnalyzeCommand(s *session) *cobra.Command {
	var (
		top        int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <asset>",
		Short: "Rank the largest percentage moves of an asset",
		Long: `Fetch the stored price history of an asset and print the top k
percentage increases and decreases between consecutive observations,
together with the highest and lowest recorded price.

Examples:
  ratectl analyze BTC          # Default ranking size
  ratectl analyze BTC --top 3  # Top 3 moves
  ratectl analyze BTC --json   # Full report as JSON`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if top < 0 {
				return fmt.Errorf("invalid --top %d: must not be negative (0 uses the default)", top)
			}
			printer, err := s.printer()
			if err != nil {
				return err
			}

			dashboard, closeFn, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			view, err := dashboard.Load(cmd.Context(), args[0], top)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(printer.Out())
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}
			printView(printer, view)
			return nil
		},
	}

	cmd.Flags().IntVarP(&top, "top", "k", 0, "number of ranked changes per direction (default from config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func printView(printer *output.Printer, view *services.DashboardView) {
	printer.Header(fmt.Sprintf("%s (%s)", chart.DisplayName(view.Asset), view.Asset.ID))

	if view.Success != "" {
		printer.Success("%s", view.Success)
	}
	for _, w := range view.Warnings {
		printer.Warning("%s", w)
	}
	if view.CurrentPrice != nil {
		printer.Print("Current Price: %s %s", view.CurrentPrice.Price.StringFixed(2), view.CurrentPrice.Currency)
	}
	if !view.HasData() {
		return
	}

	report := view.Report
	if len(report.TopIncreases) > 0 {
		printer.Header(fmt.Sprintf("Top %d Percentage Increases", view.TopK))
		printChanges(printer, report.TopIncreases, printer.Green)
	}
	printer.Print("Highest Price: %s", printer.Bold(fmt.Sprintf("%g", report.MaxPrice)))

	if len(report.TopDecreases) > 0 {
		printer.Header(fmt.Sprintf("Top %d Largest Percentage Decreases", view.TopK))
		printChanges(printer, report.TopDecreases, printer.Red)
	}
	printer.Print("Lowest Price: %s", printer.Bold(fmt.Sprintf("%g", report.MinPrice)))
}

func printChanges(printer *output.Printer, rows []models.ChangeRow, paint func(string) string) {
	table := output.NewTable(printer.Out(), []string{"Timestamp", "Price", "Percentage Change", "Change Type"})
	for _, row := range rows {
		table.AddRow([]string{
			row.Timestamp.UTC().Format(timestampLayout),
			fmt.Sprintf("%g", row.Price),
			paint(fmt.Sprintf("%.2f%%", row.Percentage)),
			string(row.Direction),
		})
	}
	if err := table.Render(); err != nil {
		printer.Error("rendering table: %v", err)
	}
	printer.Print("")
}
