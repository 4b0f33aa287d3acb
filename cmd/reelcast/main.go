package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"reelcast/internal/services"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		var failed *runFailedError
		if !canceled(err) || errors.As(err, &failed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode maps a command error to the process exit status. Interrupted runs
// exit 130 like a shell-level SIGINT.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case canceled(err):
		return 130
	default:
		return 1
	}
}

func canceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, services.ErrCanceled)
}
