// Package main is the entry point for the hexmap tool.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/hexmap/cmd/hexmap/commands"
	"go.trai.ch/hexmap/internal/app"
	_ "go.trai.ch/hexmap/internal/wiring"
)

func main() {
	os.Exit(run())
}

func run(opts ...graft.Option) int {
	// 0. Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Initialize application components
	components, _, err := graft.ExecuteFor[*app.Components](ctx, opts...)
	if err != nil {
		// Logger is not available yet if initialization failed
		// Write directly to stderr
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 1
	}

	// 2. Interface - CLI
	cli := commands.New(components)

	// 3. Execution
	code := 0
	if err := cli.Execute(ctx); err != nil {
		components.Logger.Error(err)
		code = 1
	}

	// 4. Persist view state and release resources
	if err := components.Close(context.WithoutCancel(ctx)); err != nil {
		components.Logger.Error(err)
		code = 1
	}
	return code
}
