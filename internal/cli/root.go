// Package cli wires the devmesh commands together: flag parsing, config
// layering, signal handling, and process exit codes.
package cli

import (
	"context"
	"os/signal"
	"syscall"
)

// Run is the main CLI entry point. It parses args and dispatches to the
// appropriate subcommand, returning a process exit code.
func Run(args []string) int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if len(args) == 0 {
		return runAgent(ctx, nil)
	}

	switch args[0] {
	case "run":
		return runAgent(ctx, args[1:])
	case "status":
		return runStatus(ctx, args[1:])
	case "register":
		return runRegister(ctx, args[1:])
	case "deregister":
		return runDeregister(ctx, args[1:])
	case "version", "--version", "-v":
		printVersion()
		return 0
	case "-h", "--help", "help":
		printUsage()
		return 0
	default:
		return runAgent(ctx, args)
	}
}
