package vm

import "fmt"

// ---------------------------------------------------------------------------
// VM: the Brainfuck virtual machine
// ---------------------------------------------------------------------------

// DefaultMemorySize is the tape capacity used by Default.
const DefaultMemorySize = 128

// VM owns a tape, an instruction stream, a loop-control stack and a pair of
// I/O buffers. A VM is not safe for concurrent use.
type VM struct {
	tape     *Tape
	prog     Program
	loops    loopStack
	stdin    fifo
	stdout   fifo
	executed uint64

	// OnBreakpoint, when set, is called each time a # is executed.
	OnBreakpoint func(*VM)
}

// New creates a VM with memorySize zeroed cells.
func New(memorySize int) (*VM, error) {
	if memorySize <= 0 {
		return nil, fmt.Errorf("%w: memory size %d must be positive", ErrInvalidConfiguration, memorySize)
	}
	return &VM{tape: newTape(memorySize)}, nil
}

// Default creates a VM with DefaultMemorySize cells.
func Default() *VM {
	m, _ := New(DefaultMemorySize)
	return m
}

// Upload filters src and replaces the instruction stream with it. The
// instruction pointer and loop stack are reset; tape, buffers and counters
// are kept.
func (m *VM) Upload(src string) {
	m.prog.Load(src)
	m.loops = loopStack{}
}

// Input appends s to the input buffer, one cell per code point.
func (m *VM) Input(s string) {
	m.stdin.push(TextCells(s)...)
}

// Run executes until the instruction pointer leaves the program.
// Programs that never halt make Run block forever.
func (m *VM) Run() error {
	if m.prog.Len() == 0 {
		return ErrNoProgramLoaded
	}
	for m.prog.running() {
		if _, err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step executes a single instruction and reports whether the VM is still
// running afterwards. Stepping a halted VM is a no-op.
func (m *VM) Step() (bool, error) {
	if m.prog.Len() == 0 {
		return false, ErrNoProgramLoaded
	}
	sym, ok := m.prog.Current()
	if !ok {
		return false, nil
	}
	op := opTable[sym]
	if err := m.eval(op); err != nil {
		return false, &ExecError{Op: op, Pos: m.prog.ip, Err: err}
	}
	m.prog.ip++
	if op.Countable() {
		m.executed++
	}
	return m.prog.running(), nil
}

// Halted reports whether the instruction pointer has run past the program.
func (m *VM) Halted() bool {
	return m.prog.Len() > 0 && !m.prog.running()
}

func (m *VM) readInput() byte {
	b, ok := m.stdin.pop()
	if !ok {
		return 0
	}
	return b
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// OutputText returns everything written by . so far, one character per
// output cell.
func (m *VM) OutputText() string {
	return m.stdout.String()
}

// Output returns a copy of the output buffer.
func (m *VM) Output() []byte {
	return m.stdout.pending()
}

// PendingInput returns a copy of the unread input.
func (m *VM) PendingInput() []byte {
	return m.stdin.pending()
}

// Tape returns a copy of the tape cells.
func (m *VM) Tape() []byte {
	return m.tape.Cells()
}

// TapeWindow returns the cells within radius of the memory pointer and the
// tape index of the first one.
func (m *VM) TapeWindow(radius int) ([]byte, int) {
	return m.tape.Window(radius)
}

// CodeWindow returns the symbols within radius of the instruction pointer.
func (m *VM) CodeWindow(radius int) string {
	return m.prog.Window(radius)
}

func (m *VM) MemorySize() int         { return m.tape.Len() }
func (m *VM) MemoryPointer() int      { return m.tape.Pointer() }
func (m *VM) InstructionPointer() int { return m.prog.Pointer() }
func (m *VM) Code() string            { return m.prog.Code() }
func (m *VM) Executed() uint64        { return m.executed }
func (m *VM) LoopDepth() int          { return m.loops.depth() }
