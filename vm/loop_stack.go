package vm

// LoopStackCapacity is the maximum loop nesting depth.
const LoopStackCapacity = 1000

// loopStack is a bounded LIFO of instruction positions of open [ markers.
type loopStack struct {
	items [LoopStackCapacity]int
	n     int
}

// push reports false when the stack is full.
func (s *loopStack) push(pos int) bool {
	if s.n == len(s.items) {
		return false
	}
	s.items[s.n] = pos
	s.n++
	return true
}

func (s *loopStack) pop() (int, bool) {
	if s.n == 0 {
		return 0, false
	}
	s.n--
	return s.items[s.n], true
}

func (s *loopStack) depth() int {
	return s.n
}

// entries returns the stack bottom first.
func (s *loopStack) entries() []int {
	out := make([]int, s.n)
	copy(out, s.items[:s.n])
	return out
}
