package server

import (
	"context"

	"github.com/chazu/bfcloud/vm"
)

// ctxCheckInterval is how many steps run between context checks.
const ctxCheckInterval = 1024

// RunResult summarizes one bounded run.
type RunResult struct {
	Halted bool
	Steps  uint64
}

// RunBudget steps m until it halts, fails, has taken maxSteps steps, or
// ctx is done. A maxSteps of 0 means no step limit. Running out of budget
// is not an error: the VM is left mid-program and a later call resumes it.
func RunBudget(ctx context.Context, m *vm.VM, maxSteps uint64) (RunResult, error) {
	var res RunResult
	if m.Code() == "" {
		return res, vm.ErrNoProgramLoaded
	}
	for !m.Halted() {
		if maxSteps > 0 && res.Steps >= maxSteps {
			return res, nil
		}
		if res.Steps%ctxCheckInterval == 0 && ctx.Err() != nil {
			return res, nil
		}
		if _, err := m.Step(); err != nil {
			return res, err
		}
		res.Steps++
	}
	res.Halted = true
	return res, nil
}
