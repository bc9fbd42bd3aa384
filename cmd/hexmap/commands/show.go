package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <map>",
		Short: "Print the visible tiles of a map",
		Long:  "Open a map, restore its saved expansion and print every visible tile.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.openMapOf(cmd.Context(), args[0]); err != nil {
				return err
			}
			a := c.components.App
			root, _ := a.Root()

			coords := a.VisibleTree(root)
			views := make([]tileView, 0, len(coords))
			for _, coord := range coords {
				views = append(views, viewOf(a.EffectiveState(coord)))
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), views)
			}
			return writeTree(cmd.OutOrStdout(), views)
		},
	}
}
