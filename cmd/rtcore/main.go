// Package main is the entry point for the rtcore script runner.
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
	"time"

	"github.com/dshills/rtcore/internal/config"
	"github.com/dshills/rtcore/internal/engine"
	"github.com/dshills/rtcore/internal/logging"
	"github.com/dshills/rtcore/internal/luabridge"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// options holds parsed command line flags.
type options struct {
	ConfigPath string
	LogLevel   string
	Eval       string
	Timeout    time.Duration
	Watch      bool
	Stats      bool
	Files      []string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if opts == nil {
		fmt.Fprintf(stdout, "rtcore %s\nCommit: %s\nBuilt: %s\n", version, commit, date)
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.New(config.WithFile(opts.ConfigPath))
	if err := cfg.Load(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: loading configuration: %v\n", err)
		return 1
	}
	if opts.LogLevel != "" {
		if err := cfg.Set("logging.level", opts.LogLevel); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	e, err := engine.New(engine.WithConfig(cfg), engine.WithWatch(opts.Watch))
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	// Ensure cleanup on all exit paths
	defer e.Close()

	if err := e.Start(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: failed to start: %v\n", err)
		return 1
	}

	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Logging().Level),
		Output: stderr,
		Prefix: "lua",
	})
	state := luabridge.NewState(e,
		luabridge.WithExecutionTimeout(opts.Timeout),
		luabridge.WithLogger(logger),
	)
	defer state.Close()

	if opts.Eval != "" {
		if err := state.DoString(ctx, opts.Eval); err != nil {
			fmt.Fprintf(stderr, "Error: -e: %v\n", err)
			return 1
		}
	}
	for _, path := range opts.Files {
		if err := state.DoFile(ctx, path); err != nil {
			fmt.Fprintf(stderr, "Error: %s: %v\n", path, err)
			return 1
		}
	}

	if opts.Stats {
		if err := writeStats(stdout, e.Stats()); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}
	return 0
}

func writeStats(w io.Writer, s engine.Stats) error {
	builds, err := s.Builds.JSON()
	if err != nil {
		return fmt.Errorf("encoding stats: %w", err)
	}
	fmt.Fprintf(w, "builders: %d\n", s.Builders)
	fmt.Fprintf(w, "builds: %s\n", builds)
	fmt.Fprintf(w, "native: allocated=%d freed=%d live=%d bytes=%d\n", s.Native.Allocated, s.Native.Freed, s.Native.Live(), s.Native.LiveBytes)
	fmt.Fprintf(w, "finalizer: %+v\n", s.Finalizer)
	return nil
}

// parseFlags returns nil options when only the version was requested.
func parseFlags(args []string, stderr io.Writer) (*options, error) {
	var opts options
	var showVersion bool

	fs := flag.NewFlagSet("rtcore", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file (TOML or JSON)")
	fs.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&opts.Eval, "e", "", "Lua chunk to run before any files")
	fs.DurationVar(&opts.Timeout, "timeout", luabridge.DefaultExecutionTimeout, "Per-chunk execution timeout")
	fs.BoolVar(&opts.Watch, "watch", false, "Reload the configuration file when it changes")
	fs.BoolVar(&opts.Stats, "stats", false, "Print engine statistics on exit")
	fs.BoolVar(&showVersion, "version", false, "Show version information")
	fs.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "rtcore - array builder and native string runtime\n\n")
		fmt.Fprintf(stderr, "Usage: rtcore [options] [scripts...]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  rtcore -e 'print(array.strategy(array.build({1, 2, 3})))'\n")
		fmt.Fprintf(stderr, "  rtcore -c rtcore.toml -stats bench.lua\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if showVersion {
		return nil, nil
	}

	if opts.LogLevel != "" && !logging.ValidLevel(opts.LogLevel) {
		return nil, fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", opts.LogLevel)
	}
	if opts.Timeout < 0 {
		return nil, fmt.Errorf("invalid timeout %s", opts.Timeout)
	}
	opts.Files = fs.Args()
	return &opts, nil
}
