package server

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/chazu/bfcloud/store"
	"github.com/chazu/bfcloud/vm"
)

// connectError maps domain errors onto Connect status codes.
func connectError(err error) error {
	if err == nil {
		return nil
	}
	var ce *connect.Error
	if errors.As(err, &ce) {
		return err
	}
	return connect.NewError(codeOf(err), err)
}

func codeOf(err error) connect.Code {
	switch {
	case errors.Is(err, vm.ErrInvalidConfiguration),
		errors.Is(err, vm.ErrUnbalancedLoop):
		return connect.CodeInvalidArgument
	case errors.Is(err, store.ErrInstanceNotFound):
		return connect.CodeNotFound
	case errors.Is(err, ErrInstanceDeleted),
		errors.Is(err, vm.ErrNoProgramLoaded):
		return connect.CodeFailedPrecondition
	case errors.Is(err, vm.ErrLoopStackOverflow):
		return connect.CodeResourceExhausted
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	case errors.Is(err, ErrWorkerStopped):
		return connect.CodeUnavailable
	}
	return connect.CodeInternal
}
