package commands

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.trai.ch/hexmap/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newExpandCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expand <tile>...",
		Short: "Toggle the expansion of tiles and save it",
		Long: "Toggle whether each tile shows its children. Collapsed ancestors are " +
			"expanded first. The result is saved and restored by the next show.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			first, err := c.openMapOf(ctx, args[0])
			if err != nil {
				return err
			}
			root := first.Root()
			a := c.components.App

			for _, key := range args {
				coord, err := domain.Decode(key)
				if err != nil {
					return err
				}
				if !coord.Within(root) {
					return zerr.With(zerr.Wrap(domain.ErrNoMapOpen, "all tiles must be on one map"), "coord", key)
				}
				if err := c.reveal(ctx, coord); err != nil {
					return err
				}
				if _, err := a.Fetch(ctx, coord); err != nil {
					return err
				}

				expanded, notice := a.OnToggleExpand(ctx, coord)
				if notice != nil {
					return noticeErr(notice)
				}
				state := "collapsed"
				switch rec := a.EffectiveState(coord).Record; {
				case expanded:
					state = "expanded"
				case rec == nil || !rec.HasChildren:
					state = "has no children"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", domain.Encode(coord), state)
			}

			return a.Close(ctx)
		},
	}
}

// reveal expands every collapsed ancestor of coord, outermost first.
func (c *CLI) reveal(ctx context.Context, coord domain.Coord) error {
	a := c.components.App
	ancestors := coord.Ancestors()
	slices.Reverse(ancestors)

	for _, anc := range ancestors {
		if _, err := a.Fetch(ctx, anc); err != nil {
			return err
		}
		if a.EffectiveState(anc).Flags.IsExpanded {
			continue
		}
		if _, notice := a.OnToggleExpand(ctx, anc); notice != nil {
			return noticeErr(notice)
		}
	}
	return nil
}
