package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/bfcloud/config"
	"github.com/chazu/bfcloud/vm"
)

func writeProgram(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunFile(t *testing.T) {
	path := writeProgram(t, "echo.bf", ",[.,]")
	var out bytes.Buffer
	err := runFile(path, runOptions{memorySize: 8, input: "hi"}, &out)
	if err != nil {
		t.Fatalf("runFile: %v", err)
	}
	if out.String() != "hi" {
		t.Errorf("output = %q, want %q", out.String(), "hi")
	}
}

func TestRunSourceDump(t *testing.T) {
	var out bytes.Buffer
	if err := runSource("+++.", runOptions{memorySize: 4, dump: true}, &out); err != nil {
		t.Fatalf("runSource: %v", err)
	}
	if !strings.Contains(out.String(), "executed:    4") {
		t.Errorf("dump missing executed count:\n%s", out.String())
	}
}

func TestRunSourceErrors(t *testing.T) {
	var out bytes.Buffer
	if err := runSource("+", runOptions{memorySize: 0}, &out); !errors.Is(err, vm.ErrInvalidConfiguration) {
		t.Errorf("zero memory: %v, want ErrInvalidConfiguration", err)
	}
	if err := runSource("+.]", runOptions{memorySize: 4}, &out); !errors.Is(err, vm.ErrUnbalancedLoop) {
		t.Errorf("unbalanced: %v, want ErrUnbalancedLoop", err)
	}
	if out.String() != "\x01" {
		t.Errorf("output before failure = %q, want %q", out.String(), "\x01")
	}
}

func TestRunSourceStepLimit(t *testing.T) {
	var out bytes.Buffer
	if err := runSource("+[]", runOptions{memorySize: 1, maxSteps: 100}, &out); err != nil {
		t.Errorf("step-limited run: %v", err)
	}
}

func TestCheckFiles(t *testing.T) {
	good := writeProgram(t, "good.bf", "+[-]")
	bad := writeProgram(t, "bad.bf", "+[\n]]")

	var out bytes.Buffer
	if status := checkFiles([]string{good}, &out); status != 0 || out.Len() != 0 {
		t.Errorf("good file: status %d, output %q", status, out.String())
	}
	if status := checkFiles([]string{bad}, &out); status != 1 {
		t.Errorf("bad file: status %d, want 1", status)
	}
	if want := bad + ":2:2: ] has no matching ["; !strings.Contains(out.String(), want) {
		t.Errorf("output %q missing %q", out.String(), want)
	}
}

func TestDefaultRemoteURL(t *testing.T) {
	cfg := config.Default()
	if got := defaultRemoteURL(cfg); got != "http://localhost:4570" {
		t.Errorf("defaultRemoteURL = %q", got)
	}
	cfg.Server.Addr = "10.0.0.1:80"
	if got := defaultRemoteURL(cfg); got != "http://10.0.0.1:80" {
		t.Errorf("defaultRemoteURL = %q", got)
	}
}

func TestServeReportsListenFailure(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Server.Addr = "127.0.0.1:-1"
	cfg.Storage.Root = filepath.Join(dir, "vm")
	cfg.Storage.Database = filepath.Join(dir, "bfcloud.db")

	if err := serve(cfg); err == nil {
		t.Fatal("serve on an invalid address should fail")
	}
}

func TestRunSourceHighCells(t *testing.T) {
	var out bytes.Buffer
	src := strings.Repeat("+", 200) + "."
	if err := runSource(src, runOptions{memorySize: 1}, &out); err != nil {
		t.Fatalf("runSource: %v", err)
	}
	if out.String() != "È" {
		t.Errorf("output = %q, want %q", out.String(), "È")
	}
}
