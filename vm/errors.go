package vm

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrNoProgramLoaded      = errors.New("no program loaded")
	ErrUnbalancedLoop       = errors.New("unbalanced loop")
	ErrLoopStackOverflow    = errors.New("loop stack overflow")
	ErrInvalidState         = errors.New("invalid state")
)

// ExecError reports a failure raised while evaluating one instruction.
type ExecError struct {
	Op  Op
	Pos int // instruction pointer at the failing symbol
	Err error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s at instruction %d (%c)", e.Err, e.Pos, e.Op.Symbol())
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
