package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// main hands the process environment to run, which keeps every dependency
// explicit so commands can be exercised in tests without a real terminal.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], env{
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
	})
	stop()
	os.Exit(code)
}
