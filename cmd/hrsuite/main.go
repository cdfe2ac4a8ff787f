// Package main provides hrsuite, the session cache maintenance tool for the
// OrangeHRM browser suite. It lists, warms, invalidates and clears the
// sessions persisted between test runs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const version = "0.1.0" // Version of hrsuite

// Options holds the parsed command line.
type Options struct {
	ConfigPath string
	Command    string
	User       string
	Force      bool
}

// errUsage marks errors that should print usage.
var errUsage = errors.New("usage")

func main() {
	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "hrsuite: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		cancel()
	}()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "hrsuite: %v\n", err)
		os.Exit(1)
	}
}

// parseArgs parses global flags, the command and the command's flags.
func parseArgs(args []string, stderr io.Writer) (*Options, error) {
	opts := &Options{}

	global := flag.NewFlagSet("hrsuite", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.StringVar(&opts.ConfigPath, "config", os.Getenv("HRSUITE_CONFIG"), "Path to the YAML configuration file (or set HRSUITE_CONFIG)")
	global.Usage = func() { usage(global) }

	if err := global.Parse(args); err != nil {
		return nil, err
	}

	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return nil, fmt.Errorf("%w: no command given", errUsage)
	}
	opts.Command = rest[0]

	cmd := flag.NewFlagSet(opts.Command, flag.ContinueOnError)
	cmd.SetOutput(stderr)

	switch opts.Command {
	case "list", "clear", "version":
	case "login":
		cmd.StringVar(&opts.User, "user", "", "Account from the credentials fixture (default: the orangehrm account)")
		cmd.BoolVar(&opts.Force, "force", false, "Drop any cached session before logging in")
	case "invalidate":
		cmd.StringVar(&opts.User, "user", "", "Account from the credentials fixture (default: the orangehrm account)")
	default:
		global.Usage()
		return nil, fmt.Errorf("%w: unknown command %q", errUsage, opts.Command)
	}

	if err := cmd.Parse(rest[1:]); err != nil {
		return nil, err
	}
	if cmd.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments %v", errUsage, cmd.Args())
	}
	return opts, nil
}

func usage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintf(out, "hrsuite - session cache for the OrangeHRM browser suite\n\n")
	fmt.Fprintf(out, "Usage: hrsuite [options] <command> [command options]\n\n")
	fmt.Fprintf(out, "Commands:\n")
	fmt.Fprintf(out, "  list                      Show cached sessions\n")
	fmt.Fprintf(out, "  login [-user u] [-force]  Log in through the browser and cache the session\n")
	fmt.Fprintf(out, "  invalidate [-user u]      Drop the cached session for an account\n")
	fmt.Fprintf(out, "  clear                     Drop every cached session\n")
	fmt.Fprintf(out, "  version                   Print the version\n")
	fmt.Fprintf(out, "\nOptions:\n")
	fs.PrintDefaults()
	fmt.Fprintf(out, "\nEnvironment Variables:\n")
	fmt.Fprintf(out, "  CI                        Use the CI timeout profile\n")
	fmt.Fprintf(out, "  HRSUITE_BASE_URL          Application base URL\n")
	fmt.Fprintf(out, "  HRSUITE_CACHE_DIR         Session cache directory\n")
	fmt.Fprintf(out, "  HRSUITE_SHARE_SESSIONS    Reuse sessions across runs (true/false)\n")
	fmt.Fprintf(out, "  HRSUITE_HEADLESS          Run the browser headless (true/false)\n")
	fmt.Fprintf(out, "  HRSUITE_CREDENTIALS       Credentials fixture path\n")
	fmt.Fprintf(out, "  HRSUITE_LOG_DIR           Log directory\n")
}
