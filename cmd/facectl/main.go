package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, a := newRootCmd()
	if err := run(ctx, root, a); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), err)
		stop()
		os.Exit(1)
	}
}

// run executes root and then releases what the command opened, even when it
// failed; cobra skips post-run hooks after an error.
func run(ctx context.Context, root *cobra.Command, a *app) error {
	defer a.close()
	return root.ExecuteContext(ctx)
}
