package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/hexmap/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <source> <target>",
		Short: "Move a tile and its subtree to an empty slot",
		Long: "Drag the source tile onto the target slot as the signed-in user. " +
			"The move is checked locally before it is sent and rolled back if the store rejects it.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			source, err := c.openMapOf(ctx, args[0])
			if err != nil {
				return err
			}
			target, err := domain.Decode(args[1])
			if err != nil {
				return err
			}
			if target.Root() != source.Root() {
				return zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidMove, "tiles can only move within one map"),
					"source", args[0]), "target", args[1])
			}

			a := c.components.App
			if _, err := a.Fetch(ctx, source); err != nil {
				return err
			}
			if parent, ok := target.Parent(); ok {
				// The drop target's parent decides who may edit the slot.
				_, _ = a.Fetch(ctx, parent)
			}

			if notice := a.OnDragStart(ctx, source); notice != nil {
				return noticeErr(notice)
			}
			if _, notice := a.OnDragOver(target); notice != nil {
				a.OnDragCancel()
				return noticeErr(notice)
			}
			if notice := a.OnDragDrop(ctx, target); notice != nil {
				return noticeErr(notice)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "moved %s to %s\n", domain.Encode(source), domain.Encode(target))
			return nil
		},
	}
}
