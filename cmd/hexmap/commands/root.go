// Package commands implements the CLI commands for the hexmap tool.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/hexmap/internal/app"
	"go.trai.ch/hexmap/internal/build"
	"go.trai.ch/hexmap/internal/core/domain"
	"go.trai.ch/zerr"
)

// CLI represents the command line interface for hexmap.
type CLI struct {
	components *app.Components
	rootCmd    *cobra.Command
}

// New creates a new CLI instance over the given components.
func New(c *app.Components) *CLI {
	rootCmd := &cobra.Command{
		Use:           "hexmap",
		Short:         "Browse and rearrange hierarchical hex tile maps",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().Bool("json", false, "Print machine-readable JSON output")

	cli := &CLI{
		components: c,
		rootCmd:    rootCmd,
	}

	rootCmd.AddCommand(cli.newVersionCmd())
	rootCmd.AddCommand(cli.newSeedCmd())
	rootCmd.AddCommand(cli.newShowCmd())
	rootCmd.AddCommand(cli.newExpandCmd())
	rootCmd.AddCommand(cli.newMoveCmd())

	return cli
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput redirects command output. Used for testing.
func (c *CLI) SetOutput(out io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(out)
}

// openMapOf opens the map containing the tile with the given key.
func (c *CLI) openMapOf(ctx context.Context, key string) (domain.Coord, error) {
	coord, err := domain.Decode(key)
	if err != nil {
		return domain.Coord{}, err
	}
	if err := c.components.App.Open(ctx, coord.Root()); err != nil {
		return domain.Coord{}, err
	}
	return coord, nil
}

// noticeErr turns a gesture notice back into the error it was built from.
func noticeErr(n *domain.Notice) error {
	if n == nil {
		return nil
	}
	if n.Cause != nil {
		return n.Cause
	}
	return zerr.With(zerr.New(n.Message), "kind", string(n.Kind))
}
