package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/chazu/bfcloud/config"
	"github.com/chazu/bfcloud/server"
)

const remoteUsage = `Usage: bfcloud remote [-addr URL] <command> ...
  new [memory-size]      Allocate an instance
  list                   List instances
  get <id>               Show an instance and its VM
  delete <id>            Discard an instance's VM
  upload <id> <file>     Upload a program file
  input <id> <text>      Append text to the input buffer
  run <id>               Run the program and print its new output
`

// handleRemoteCommand processes the `bfcloud remote` subcommand and
// returns the exit status.
func handleRemoteCommand(args []string, cfg *config.Config) int {
	fs := flag.NewFlagSet("remote", flag.ContinueOnError)
	addr := fs.String("addr", defaultRemoteURL(cfg), "Server base URL")
	fs.Usage = func() { fmt.Fprint(os.Stderr, remoteUsage) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	c := server.NewClient(nil, *addr)
	if err := remote(context.Background(), c, fs.Args(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// defaultRemoteURL derives a local URL from the configured listen address.
func defaultRemoteURL(cfg *config.Config) string {
	addr := cfg.Server.Addr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func remote(ctx context.Context, c *server.Client, args []string, w io.Writer) error {
	cmd, rest := args[0], args[1:]

	if cmd == "list" {
		list, err := c.List(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTATE\tUPDATED")
		for _, inst := range list {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", inst.ID, inst.State, inst.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return tw.Flush()
	}

	if cmd == "new" {
		size := 0
		if len(rest) > 0 {
			n, err := strconv.Atoi(rest[0])
			if err != nil {
				return fmt.Errorf("memory size: %w", err)
			}
			size = n
		}
		inst, err := c.New(ctx, size)
		if err != nil {
			return err
		}
		printInstance(w, inst)
		return nil
	}

	if len(rest) == 0 {
		return fmt.Errorf("%s: missing instance id", cmd)
	}
	id, err := strconv.ParseInt(rest[0], 10, 64)
	if err != nil {
		return fmt.Errorf("instance id: %w", err)
	}

	switch cmd {
	case "get":
		inst, err := c.Get(ctx, id)
		if err != nil {
			return err
		}
		printInstance(w, inst)
	case "delete":
		return c.Delete(ctx, id)
	case "upload":
		if len(rest) < 2 {
			return fmt.Errorf("upload: missing file")
		}
		src, err := os.ReadFile(rest[1])
		if err != nil {
			return err
		}
		inst, err := c.Upload(ctx, id, string(src))
		if err != nil {
			return err
		}
		printInstance(w, inst)
	case "input":
		if len(rest) < 2 {
			return fmt.Errorf("input: missing text")
		}
		inst, err := c.Input(ctx, id, strings.Join(rest[1:], " "))
		if err != nil {
			return err
		}
		printInstance(w, inst)
	case "run":
		res, err := c.Run(ctx, id)
		if err != nil {
			return err
		}
		io.WriteString(w, res.Output)
		if !res.Halted {
			fmt.Fprintf(os.Stderr, "stopped after %d steps; run again to continue\n", res.Steps)
		}
	default:
		return fmt.Errorf("unknown remote command %q", cmd)
	}
	return nil
}

func printInstance(w io.Writer, inst *server.Instance) {
	fmt.Fprintf(w, "id:       %d\n", inst.ID)
	fmt.Fprintf(w, "state:    %s\n", inst.State)
	if inst.BVM == nil {
		return
	}
	b := inst.BVM
	fmt.Fprintf(w, "memory:   %d cells, ptr %d\n", b.MemorySize, b.MemoryPtr)
	fmt.Fprintf(w, "code:     %d ops, ptr %d\n", len(b.Code), b.CodePtr)
	fmt.Fprintf(w, "executed: %d\n", b.Executed)
	fmt.Fprintf(w, "stdin:    %q\n", b.Stdin)
	fmt.Fprintf(w, "stdout:   %q\n", b.Stdout)
}
