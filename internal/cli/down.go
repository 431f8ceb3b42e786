package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rickgorman/testbed/internal/container"
	"github.com/rickgorman/testbed/internal/ui"
	"github.com/rickgorman/testbed/pkg/logger"
)

func newDownCommand(root *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Stop and remove every container of the scenario",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, s, err := root.load()
			if err != nil {
				return err
			}

			if !yes && !ui.AskYesNo(fmt.Sprintf("Remove all containers of %s?", ui.Bold(f.Name)), false) {
				ui.DimMsg("nothing removed")
				return nil
			}

			rt, err := container.NewClient(logger.Default())
			if err != nil {
				return fmt.Errorf("failed to connect to Docker: %w", err)
			}
			defer rt.Close()

			if err := s.Down(cmd.Context(), rt); err != nil {
				ui.Fail("%v", err)
				return err
			}
			ui.Success("removed scenario %s", f.Name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
