package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.trai.ch/hexmap/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <map>",
		Short: "Fill a map with generated terrain tiles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, err := domain.Decode(args[0])
			if err != nil {
				return err
			}
			depth, _ := cmd.Flags().GetInt("depth")
			owner, _ := cmd.Flags().GetString("owner")
			if owner == "" {
				owner = strconv.Itoa(coord.UserID)
			}
			if _, err := strconv.Atoi(owner); err != nil {
				return zerr.With(zerr.Wrap(domain.ErrConfigInvalid, "owner must be a user id"), "owner", owner)
			}

			n, err := c.components.Repository.Seed(cmd.Context(), coord, depth, owner)
			if err != nil {
				return err
			}
			c.components.Logger.Info("map seeded", "root", domain.Encode(coord), "tiles", n)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d tiles under %s\n", n, domain.Encode(coord))
			return nil
		},
	}
	cmd.Flags().IntP("depth", "d", 2, "Number of levels to generate below the root")
	cmd.Flags().StringP("owner", "o", "", "Owner user id of the generated tiles (defaults to the map's user)")
	return cmd
}
