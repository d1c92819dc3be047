package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/lourivaldantas/whatsapp-shell/internal/domain/windowstate"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/logging"
)

func newStateCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print the saved window state of the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, _, err := setup(flags)
			if err != nil {
				return err
			}

			store := windowstate.NewStore(profile.StatePath(), logging.NewNop())
			state, ok := store.Load()
			if !ok {
				pterm.Warning.Printfln("No usable window state in %s, defaults apply", store.Path())
				state = windowstate.Default()
			}

			pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
				{"Width", "Height", "X", "Y", "Maximized"},
				{
					fmt.Sprint(state.Width),
					fmt.Sprint(state.Height),
					fmt.Sprint(state.X),
					fmt.Sprint(state.Y),
					fmt.Sprint(state.IsMaximized),
				},
			}).Render()
			return nil
		},
	}
}
