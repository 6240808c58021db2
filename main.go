package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fieldstone-cms/sitecheck/cmd"
	"github.com/fieldstone-cms/sitecheck/internal/cmdutil"
)

func main() {
	var err error
	ctx := context.Background()

	defer func() {
		if err != nil {
			// a handled error has already been presented to the user
			var handled cmdutil.HandledCliError
			if errors.As(err, &handled) {
				os.Exit(1)
			}
			log.Fatalln(err)
		}
	}()

	// Set up OpenTelemetry.
	otelShutdown, err := setupOTelSDK(ctx)
	if err != nil {
		return
	}

	// Handle shutdown properly so nothing leaks.
	defer func() {
		err = errors.Join(err, otelShutdown(context.Background()))
	}()

	// set up a context that is canceled when a command is interrupted
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// set up a signal handler to cancel the context
	go func() {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, syscall.SIGTERM, syscall.SIGINT)

		select {
		case <-interrupt:
			fmt.Println()
			cancel()
		case <-ctx.Done():
		}

		// Allow any further SIGTERM or SIGINT to kill process
		signal.Stop(interrupt)
	}()

	err = cmd.ExecuteContext(ctx)
}
