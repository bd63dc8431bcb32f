// authctl is a development client for the tgauth service. It can run the
// remote handshake from a terminal, stand in for the bot, and build signed
// initData for a local bot token.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/pflag"
)

const defaultServer = "http://localhost:8080"

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

// env carries the process streams so commands can be tested.
type env struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
}

var commands = []command{
	{"login", "begin a handshake, print the bot link and wait for completion", cmdLogin},
	{"complete", "complete a handshake as the bot would", cmdComplete},
	{"signin", "exchange initData for credentials", cmdSignIn},
	{"me", "show the profile for saved credentials", cmdMe},
	{"sign-initdata", "build signed initData for a bot token", cmdSignInitData},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := &env{stdout: os.Stdout, stderr: os.Stderr, getenv: os.Getenv}
	if err := run(ctx, e, os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		printUsage(e.stderr)
		return errors.New("missing command")
	}

	name := args[0]
	if name == "help" || name == "-h" || name == "--help" {
		printUsage(e.stdout)
		return nil
	}
	for _, c := range commands {
		if c.name == name {
			return c.run(ctx, e, args[1:])
		}
	}

	printUsage(e.stderr)
	return fmt.Errorf("unknown command %q", name)
}

func printUsage(w io.Writer) {
	cyan := color.New(color.FgCyan)
	fmt.Fprintln(w, "Usage: authctl <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		cyan.Fprintf(w, "  %-14s", c.name)
		fmt.Fprintln(w, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'authctl <command> --help' for the flags of a command.")
}

// newFlagSet returns a flag set with the --server flag every command takes.
func newFlagSet(e *env, name string) (*pflag.FlagSet, *string) {
	fs := pflag.NewFlagSet("authctl "+name, pflag.ContinueOnError)
	fs.SetOutput(e.stderr)

	server := e.getenv("TGAUTH_URL")
	if server == "" {
		server = defaultServer
	}
	return fs, fs.String("server", server, "tgauth base URL (env TGAUTH_URL)")
}
