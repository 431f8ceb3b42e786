package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rickgorman/testbed/internal/config"
	"github.com/rickgorman/testbed/internal/container"
	"github.com/rickgorman/testbed/internal/scenario"
	"github.com/rickgorman/testbed/pkg/logger"
)

func newPsCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ps",
		Short: "List the scenario's containers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := config.Load(root.file)
			if err != nil {
				return err
			}

			rt, err := container.NewClient(logger.Default())
			if err != nil {
				return fmt.Errorf("failed to connect to Docker: %w", err)
			}
			defer rt.Close()

			infos, err := rt.ListByLabel(cmd.Context(), scenario.LabelScenario, f.Name)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CONTAINER\tNAME\tIMAGE\tSTATE\tUPTIME\tCHANGED")
			for _, info := range infos {
				uptime := "-"
				if info.State == "running" {
					if u, err := rt.Uptime(cmd.Context(), info.ID); err == nil {
						uptime = u
					}
				}
				changed := ""
				if fp := info.Labels[scenario.LabelFingerprint]; fp != "" && fp != f.Fingerprint {
					changed = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					info.Labels[scenario.LabelContainer], info.Name, info.Image, info.State, uptime, changed)
			}
			return w.Flush()
		},
	}
}
