package cli

import (
	"encoding/json"

	"github.com/irfndi/ratepulse/internal/chart"
	"github.com/irfndi/ratepulse/internal/output"
	"github.com/spf13/cobra"
)

func newAssetsCommand(s *session) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "assets",
		Aliases: []string{"ls"},
		Short:   "List configured assets",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, err := s.printer()
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(printer.Out())
				enc.SetIndent("", "  ")
				return enc.Encode(s.app.Assets)
			}

			table := output.NewTable(printer.Out(), []string{"ID", "Name", "Label"})
			for _, a := range s.app.Assets {
				if a.ID == "" {
					continue
				}
				table.AddRow([]string{printer.Bold(a.ID), chart.DisplayName(a), a.Label()})
			}
			if table.Len() == 0 {
				printer.Warning("no assets configured")
				return nil
			}

			printer.Header("Assets")
			return table.Render()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}
