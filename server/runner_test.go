package server

import (
	"context"
	"errors"
	"testing"

	"github.com/chazu/bfcloud/vm"
)

func TestRunBudget_Halts(t *testing.T) {
	m := vm.Default()
	m.Upload("++[-]")
	res, err := RunBudget(bg(), m, 0)
	if err != nil {
		t.Fatalf("RunBudget: %v", err)
	}
	if !res.Halted {
		t.Error("expected program to halt")
	}
	if m.Executed() != 4 {
		t.Errorf("Executed = %d, want 4", m.Executed())
	}
}

func TestRunBudget_StepLimitResumes(t *testing.T) {
	m := vm.Default()
	m.Upload("+++[>++<-]>.")

	res, err := RunBudget(bg(), m, 5)
	if err != nil {
		t.Fatalf("RunBudget: %v", err)
	}
	if res.Halted || res.Steps != 5 {
		t.Fatalf("first run = %+v, want 5 steps and not halted", res)
	}

	res, err = RunBudget(bg(), m, 0)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !res.Halted {
		t.Error("resumed run should halt")
	}
	if got := m.Output(); len(got) != 1 || got[0] != 6 {
		t.Errorf("Output = %v, want [6]", got)
	}
}

func TestRunBudget_Infinite(t *testing.T) {
	m := vm.Default()
	m.Upload("+[]")

	ctx, cancel := context.WithCancel(bg())
	cancel()
	res, err := RunBudget(ctx, m, 0)
	if err != nil {
		t.Fatalf("RunBudget: %v", err)
	}
	if res.Halted {
		t.Error("cancelled run should not report halted")
	}

	res, err = RunBudget(bg(), m, 10_000)
	if err != nil {
		t.Fatalf("RunBudget: %v", err)
	}
	if res.Halted || res.Steps != 10_000 {
		t.Errorf("budgeted run = %+v, want 10000 steps and not halted", res)
	}
}

func TestRunBudget_Errors(t *testing.T) {
	if _, err := RunBudget(bg(), vm.Default(), 0); !errors.Is(err, vm.ErrNoProgramLoaded) {
		t.Errorf("empty program: %v, want ErrNoProgramLoaded", err)
	}

	m := vm.Default()
	m.Upload("+]")
	if _, err := RunBudget(bg(), m, 0); !errors.Is(err, vm.ErrUnbalancedLoop) {
		t.Errorf("unbalanced: %v, want ErrUnbalancedLoop", err)
	}
}
