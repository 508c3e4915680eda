package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/mark3labs/apigen/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", cli.Describe(err))
	}
	os.Exit(cli.ExitCode(err))
}
