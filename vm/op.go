package vm

// ---------------------------------------------------------------------------
// Operation set
// ---------------------------------------------------------------------------

// Op is the tagged operation variant for one instruction symbol.
type Op uint8

const (
	OpInvalid Op = iota
	OpIncrement
	OpDecrement
	OpMoveLeft
	OpMoveRight
	OpOutput
	OpInput
	OpLoopOpen
	OpLoopClose
	OpBreakpoint
)

type opInfo struct {
	symbol      byte
	name        string
	countable   bool
	description string
}

var opInfos = [...]opInfo{
	OpInvalid:    {0, "Invalid", false, ""},
	OpIncrement:  {'+', "Increment", true, "Increment the current cell, wrapping 255 to 0."},
	OpDecrement:  {'-', "Decrement", true, "Decrement the current cell, wrapping 0 to 255."},
	OpMoveLeft:   {'<', "MoveLeft", true, "Move the memory pointer left, wrapping to the last cell."},
	OpMoveRight:  {'>', "MoveRight", true, "Move the memory pointer right, wrapping to the first cell."},
	OpOutput:     {'.', "Output", true, "Append the current cell to the output buffer."},
	OpInput:      {',', "Input", true, "Read one byte of input into the current cell (0 when input is empty)."},
	OpLoopOpen:   {'[', "LoopOpen", false, "Skip past the matching ] when the current cell is zero, otherwise enter the loop."},
	OpLoopClose:  {']', "LoopClose", false, "Jump back to the matching [ when the current cell is non-zero."},
	OpBreakpoint: {'#', "Breakpoint", false, "Breakpoint. No effect on state; invokes the inspection hook if one is set."},
}

// opTable maps every byte to its operation. Unrecognized bytes map to
// OpInvalid.
var opTable [256]Op

func init() {
	for op := OpIncrement; op <= OpBreakpoint; op++ {
		opTable[opInfos[op].symbol] = op
	}
}

// Lookup returns the operation for an instruction symbol.
func Lookup(symbol byte) Op {
	return opTable[symbol]
}

// Ops returns all valid operations in table order.
func Ops() []Op {
	ops := make([]Op, 0, len(opInfos)-1)
	for op := OpIncrement; op <= OpBreakpoint; op++ {
		ops = append(ops, op)
	}
	return ops
}

// Countable reports whether the operation counts toward Executed.
func (o Op) Countable() bool {
	return opInfos[o].countable
}

// Symbol returns the source character for the operation.
func (o Op) Symbol() byte {
	return opInfos[o].symbol
}

// Description is a one-line summary used by editor tooling.
func (o Op) Description() string {
	return opInfos[o].description
}

func (o Op) String() string {
	if int(o) >= len(opInfos) {
		return "Invalid"
	}
	return opInfos[o].name
}

// eval applies op to the machine state. The driver advances the
// instruction pointer afterwards.
func (m *VM) eval(op Op) error {
	switch op {
	case OpIncrement:
		m.tape.Increment()
	case OpDecrement:
		m.tape.Decrement()
	case OpMoveLeft:
		m.tape.MoveLeft()
	case OpMoveRight:
		m.tape.MoveRight()
	case OpOutput:
		m.stdout.push(m.tape.Read())
	case OpInput:
		m.tape.Write(m.readInput())
	case OpLoopOpen:
		if m.tape.Read() == 0 {
			return m.skipLoop()
		}
		if !m.loops.push(m.prog.ip) {
			return ErrLoopStackOverflow
		}
	case OpLoopClose:
		start, ok := m.loops.pop()
		if !ok {
			return ErrUnbalancedLoop
		}
		if m.tape.Read() != 0 {
			m.prog.ip = start - 1
		}
	case OpBreakpoint:
		if m.OnBreakpoint != nil {
			m.OnBreakpoint(m)
		}
	default:
		return ErrInvalidState
	}
	return nil
}

// skipLoop moves the instruction pointer from a [ onto its matching ].
// The pointer is left untouched when no match exists.
func (m *VM) skipLoop() error {
	code := m.prog.code
	depth := 1
	ip := m.prog.ip
	for depth > 0 {
		ip++
		if ip >= len(code) {
			return ErrUnbalancedLoop
		}
		switch code[ip] {
		case '[':
			depth++
		case ']':
			depth--
		}
	}
	m.prog.ip = ip
	return nil
}
