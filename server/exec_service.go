package server

import (
	"context"
	"errors"
	"time"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"

	"github.com/chazu/bfcloud/store"
	"github.com/chazu/bfcloud/vm"
)

// ExecService implements program upload, input and run procedures.
type ExecService struct {
	alloc    *Allocator
	pool     *WorkerPool
	maxSteps uint64
	timeout  time.Duration
	log      commonlog.Logger
}

// NewExecService creates an ExecService. Each Run is bounded by maxSteps
// (0 for unlimited) and timeout (0 for none).
func NewExecService(alloc *Allocator, pool *WorkerPool, maxSteps uint64, timeout time.Duration) *ExecService {
	return &ExecService{
		alloc:    alloc,
		pool:     pool,
		maxSteps: maxSteps,
		timeout:  timeout,
		log:      commonlog.GetLogger("bfcloud.server.exec"),
	}
}

// Upload replaces an instance's program.
func (s *ExecService) Upload(
	ctx context.Context,
	req *connect.Request[UploadRequest],
) (*connect.Response[Instance], error) {
	msg, err := mutate(ctx, s.pool, s.alloc, req.Msg.ID, func(m *vm.VM) {
		m.Upload(req.Msg.Source)
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(msg), nil
}

// Input appends text to an instance's input buffer.
func (s *ExecService) Input(
	ctx context.Context,
	req *connect.Request[InputRequest],
) (*connect.Response[Instance], error) {
	msg, err := mutate(ctx, s.pool, s.alloc, req.Msg.ID, func(m *vm.VM) {
		m.Input(req.Msg.Text)
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(msg), nil
}

// Run executes an instance's program within the run budget. The VM state
// is saved whether the run halts, runs out of budget, or fails.
func (s *ExecService) Run(
	ctx context.Context,
	req *connect.Request[RunRequest],
) (*connect.Response[RunResponse], error) {
	id := req.Msg.ID
	result, err := s.pool.Do(ctx, id, func() (any, error) {
		return s.run(ctx, id)
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(result.(*RunResponse)), nil
}

func (s *ExecService) run(ctx context.Context, id int64) (*RunResponse, error) {
	inst, m, err := s.alloc.LoadLive(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Code() == "" {
		return nil, vm.ErrNoProgramLoaded
	}
	if err := s.alloc.SetState(ctx, inst, store.StateComputing); err != nil {
		return nil, err
	}

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	before := len(m.Output())
	started := time.Now()
	res, runErr := RunBudget(runCtx, m, s.maxSteps)

	// Persist even when the request has been cancelled.
	persistCtx := context.WithoutCancel(ctx)
	saveErr := s.alloc.Save(inst, m)
	stateErr := s.alloc.SetState(persistCtx, inst, store.StateAvailable)

	if runErr != nil {
		s.log.Warningf("instance %d: run failed after %d steps: %v", id, res.Steps, runErr)
		return nil, errors.Join(runErr, saveErr, stateErr)
	}
	if err := errors.Join(saveErr, stateErr); err != nil {
		return nil, err
	}

	s.log.Infof("instance %d: %d steps in %s (halted=%t)", id, res.Steps, time.Since(started), res.Halted)
	return &RunResponse{
		Instance: instanceMessage(inst, m),
		Halted:   res.Halted,
		Output:   vm.Text(m.Output()[before:]),
		Steps:    res.Steps,
	}, nil
}
