// bfcloud CLI - runs Brainfuck programs locally, serves persisted VM
// instances, and talks to a running server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tliron/commonlog"

	"github.com/chazu/bfcloud/config"
	"github.com/chazu/bfcloud/server"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	memorySize := flag.Int("m", 0, "Tape size in cells (default from config, else 128)")
	input := flag.String("in", "", "Text placed in the input buffer before running")
	dump := flag.Bool("dump", false, "Print the final VM state after running")
	trace := flag.Bool("trace", false, "Log tape and code around the pointers at each # breakpoint")
	maxSteps := flag.Uint64("max-steps", 0, "Stop after this many steps (0 for no limit)")
	checkMode := flag.Bool("check", false, "Report unmatched brackets instead of running")
	serveMode := flag.Bool("serve", false, "Start the instance server (Connect HTTP/JSON)")
	servePort := flag.Int("port", 0, "Server port, overriding [server].addr (used with --serve)")
	configDir := flag.String("config", "", "Directory containing bfcloud.toml (default: search upward from cwd)")
	lspMode := flag.Bool("lsp", false, "Start the language server on stdio")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: bfcloud [options] [files...]\n")
		fmt.Fprintf(os.Stderr, "       bfcloud remote <command> ...\n\n")
		fmt.Fprintf(os.Stderr, "Runs each Brainfuck file on a fresh VM and writes its output to stdout.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  bfcloud hello.bf                  # Run hello.bf\n")
		fmt.Fprintf(os.Stderr, "  bfcloud -in 3985 -dump sort.bf    # Run with input, print final state\n")
		fmt.Fprintf(os.Stderr, "  bfcloud -check *.bf               # Report unmatched brackets\n")
		fmt.Fprintf(os.Stderr, "\nServer:\n")
		fmt.Fprintf(os.Stderr, "  bfcloud --serve                   # Serve on [server].addr (default :4570)\n")
		fmt.Fprintf(os.Stderr, "  bfcloud --serve --port 8080       # Serve on :8080\n")
		fmt.Fprintf(os.Stderr, "  bfcloud remote new                # Allocate an instance on a server\n")
		fmt.Fprintf(os.Stderr, "  bfcloud --lsp                     # Language server for editors\n")
	}
	flag.Parse()

	cfg, err := loadConfig(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	configureLogging(cfg, *verbose)

	args := flag.Args()
	if len(args) > 0 && args[0] == "remote" {
		os.Exit(handleRemoteCommand(args[1:], cfg))
	}

	if *lspMode {
		if err := server.NewLSP().Run(); err != nil {
			fmt.Fprintf(os.Stderr, "LSP error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if *serveMode {
		if *servePort != 0 {
			cfg.Server.Addr = fmt.Sprintf(":%d", *servePort)
		}
		if err := serve(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if *checkMode {
		os.Exit(checkFiles(args, os.Stdout))
	}

	opts := runOptions{
		memorySize: cfg.VM.MemorySize,
		input:      *input,
		dump:       *dump,
		trace:      *trace,
		maxSteps:   *maxSteps,
	}
	if *memorySize != 0 {
		opts.memorySize = *memorySize
	}
	for _, path := range args {
		if err := runFile(path, opts, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
			os.Exit(1)
		}
	}
}

// loadConfig reads bfcloud.toml from dir, or searches upward from the
// working directory when dir is empty. No file means defaults.
func loadConfig(dir string) (*config.Config, error) {
	if dir != "" {
		return config.Load(dir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return config.Default(), nil
	}
	cfg, err := config.FindAndLoad(cwd)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return cfg, nil
}

func configureLogging(cfg *config.Config, verbose bool) {
	verbosity := cfg.Log.Verbosity
	if verbose && verbosity < 2 {
		verbosity = 2
	}
	var path *string
	if cfg.Log.File != "" {
		path = &cfg.Log.File
	}
	commonlog.Configure(verbosity, path)
}

// serve runs the instance server until SIGINT or SIGTERM.
func serve(cfg *config.Config) error {
	srv, err := server.New(cfg)
	if err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		return errors.Join(err, srv.Shutdown(context.Background()))
	case <-sig:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
