package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/edgeadmin/edgeadmin/cmd"
	"github.com/edgeadmin/edgeadmin/prompt"
)

const (
	exitOk = iota
	exitFailure
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, prompt.NewTerminal())
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer, p prompt.Prompter) int {
	app := cmd.NewApp(stdout, stderr, p, version)
	if err := cmd.Execute(ctx, app, args); err != nil {
		_, _ = fmt.Fprintf(stderr, "error: %s\n", err)
		return exitFailure
	}
	return exitOk
}
