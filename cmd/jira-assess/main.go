package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"jira-assess/cmd/jira-assess/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
