package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/lourivaldantas/whatsapp-shell/internal/domain/useragent"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/logging"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/monitoring"
)

func newUserAgentCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "useragent",
		Short: "Resolve and print the user agent the window would use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := setup(flags)
			if err != nil {
				return err
			}

			result := useragent.NewResolver(cfg.UserAgent, logging.NewNop(), monitoring.NewMetrics()).Resolve(cmd.Context())

			pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
				{"Source", "User agent"},
				{string(result.Source), result.UserAgent},
			}).Render()
			return nil
		},
	}
}
