package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/monokickstart/mk/cmd/mk/cmd"
	"github.com/monokickstart/mk/internal/core"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return int(core.ExitOK)
	}

	var ce *core.Error
	switch {
	case errors.As(err, &ce):
		fmt.Fprintf(os.Stderr, "Error: %s\n", ce.Format())
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(os.Stderr, "Interrupted")
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return int(core.CodeFor(err))
}
