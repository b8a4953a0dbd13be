package vm

import "fmt"

// State is the full resumable state of a VM. A VM restored from a State
// continues exactly where the snapshotted VM would have.
//
// LoopStack is part of the tuple so that a VM paused inside a loop still
// finds its open [ positions on the next ].
type State struct {
	MemorySize int    `cbor:"memory_size" json:"memory_size"`
	Memory     []byte `cbor:"memory" json:"memory"`
	MemoryPtr  int    `cbor:"memory_ptr" json:"memory_ptr"`
	Code       string `cbor:"code" json:"code"`
	CodePtr    int    `cbor:"code_ptr" json:"code_ptr"`
	Executed   uint64 `cbor:"executed" json:"executed"`
	Stdin      []byte `cbor:"stdin" json:"stdin"`
	Stdout     []byte `cbor:"stdout" json:"stdout"`
	LoopStack  []int  `cbor:"loop_stack" json:"loop_stack"`
}

// Snapshot captures the VM state. The returned State shares no memory with
// the VM.
func (m *VM) Snapshot() *State {
	return &State{
		MemorySize: m.tape.Len(),
		Memory:     m.tape.Cells(),
		MemoryPtr:  m.tape.Pointer(),
		Code:       m.prog.Code(),
		CodePtr:    m.prog.Pointer(),
		Executed:   m.executed,
		Stdin:      m.stdin.pending(),
		Stdout:     m.stdout.pending(),
		LoopStack:  m.loops.entries(),
	}
}

// Restore rebuilds a VM from a State after checking it is internally
// consistent.
func Restore(s *State) (*VM, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	m, err := New(s.MemorySize)
	if err != nil {
		return nil, err
	}
	copy(m.tape.cells, s.Memory)
	m.tape.ptr = s.MemoryPtr
	m.prog.code = s.Code
	m.prog.ip = s.CodePtr
	m.executed = s.Executed
	m.stdin.push(s.Stdin...)
	m.stdout.push(s.Stdout...)
	for _, pos := range s.LoopStack {
		m.loops.push(pos)
	}
	return m, nil
}

// Validate checks the invariants a VM relies on.
func (s *State) Validate() error {
	if s.MemorySize <= 0 {
		return fmt.Errorf("%w: memory size %d must be positive", ErrInvalidState, s.MemorySize)
	}
	if len(s.Memory) != s.MemorySize {
		return fmt.Errorf("%w: tape has %d cells, memory size is %d", ErrInvalidState, len(s.Memory), s.MemorySize)
	}
	if s.MemoryPtr < 0 || s.MemoryPtr >= s.MemorySize {
		return fmt.Errorf("%w: memory pointer %d out of range", ErrInvalidState, s.MemoryPtr)
	}
	if Filter(s.Code) != s.Code {
		return fmt.Errorf("%w: code contains unrecognized symbols", ErrInvalidState)
	}
	if s.CodePtr < 0 || s.CodePtr > len(s.Code) {
		return fmt.Errorf("%w: instruction pointer %d out of range", ErrInvalidState, s.CodePtr)
	}
	if len(s.LoopStack) > LoopStackCapacity {
		return fmt.Errorf("%w: loop stack depth %d exceeds %d", ErrInvalidState, len(s.LoopStack), LoopStackCapacity)
	}
	prev := -1
	for _, pos := range s.LoopStack {
		if pos < 0 || pos >= len(s.Code) || s.Code[pos] != '[' {
			return fmt.Errorf("%w: loop stack entry %d is not a [", ErrInvalidState, pos)
		}
		if pos <= prev {
			return fmt.Errorf("%w: loop stack entry %d does not follow %d", ErrInvalidState, pos, prev)
		}
		if pos >= s.CodePtr {
			return fmt.Errorf("%w: loop stack entry %d is not before instruction pointer %d", ErrInvalidState, pos, s.CodePtr)
		}
		prev = pos
	}
	return nil
}
