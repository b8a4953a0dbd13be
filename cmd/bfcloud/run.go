package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"

	"github.com/chazu/bfcloud/server"
	"github.com/chazu/bfcloud/vm"
)

var log = commonlog.GetLogger("bfcloud")

// traceRadius is how many cells and instructions a trace shows on either
// side of the pointers.
const traceRadius = 5

type runOptions struct {
	memorySize int
	input      string
	dump       bool
	trace      bool
	maxSteps   uint64
}

// runFile executes the program in path on a fresh VM and writes its
// output to w.
func runFile(path string, opts runOptions, w io.Writer) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return runSource(string(src), opts, w)
}

func runSource(src string, opts runOptions, w io.Writer) error {
	m, err := vm.New(opts.memorySize)
	if err != nil {
		return err
	}
	if opts.trace {
		m.OnBreakpoint = traceBreakpoint
	}
	m.Input(opts.input)
	m.Upload(src)

	res, runErr := server.RunBudget(context.Background(), m, opts.maxSteps)
	if _, err := io.WriteString(w, m.OutputText()); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if !res.Halted {
		log.Warningf("stopped after %d steps without halting", res.Steps)
	}
	if opts.dump {
		dumpState(w, m)
	}
	return nil
}

// traceBreakpoint logs the neighbourhood of both pointers.
func traceBreakpoint(m *vm.VM) {
	cells, lo := m.TapeWindow(traceRadius)
	log.Infof("# at ip=%d mp=%d executed=%d", m.InstructionPointer(), m.MemoryPointer(), m.Executed())
	log.Infof("  tape[%d:] %v", lo, cells)
	log.Infof("  code %q", m.CodeWindow(traceRadius))
}

// dumpState prints the final VM state.
func dumpState(w io.Writer, m *vm.VM) {
	s := m.Snapshot()
	fmt.Fprintf(w, "\n--- state ---\n")
	fmt.Fprintf(w, "memory size: %d\n", s.MemorySize)
	fmt.Fprintf(w, "memory ptr:  %d\n", s.MemoryPtr)
	fmt.Fprintf(w, "code ptr:    %d/%d\n", s.CodePtr, len(s.Code))
	fmt.Fprintf(w, "executed:    %d\n", s.Executed)
	fmt.Fprintf(w, "stdin:       %q\n", vm.Text(s.Stdin))
	fmt.Fprintf(w, "stdout:      %q\n", vm.Text(s.Stdout))
	cells, lo := m.TapeWindow(traceRadius)
	fmt.Fprintf(w, "tape[%d:]:   %v\n", lo, cells)
}

// checkFiles reports unmatched brackets in each file and returns the exit
// status.
func checkFiles(paths []string, w io.Writer) int {
	status := 0
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			status = 1
			continue
		}
		for _, issue := range vm.CheckBrackets(string(src)) {
			fmt.Fprintf(w, "%s:%d:%d: %s\n", path, issue.Line+1, issue.Column+1, issue.Message)
			status = 1
		}
	}
	return status
}
