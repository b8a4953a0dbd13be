package vm

import "strings"

// ---------------------------------------------------------------------------
// Program: the filtered instruction stream
// ---------------------------------------------------------------------------

// Program holds the instruction stream and the instruction pointer.
// The stream only ever contains recognized operation symbols.
type Program struct {
	code string
	ip   int
}

// Filter drops every character of raw that is not an operation symbol.
// Filter is idempotent.
func Filter(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if opTable[raw[i]] != OpInvalid {
			b.WriteByte(raw[i])
		}
	}
	return b.String()
}

// Load replaces the stream with the filtered form of raw and rewinds the
// instruction pointer.
func (p *Program) Load(raw string) {
	p.code = Filter(raw)
	p.ip = 0
}

// Current returns the symbol under the instruction pointer. The second
// result is false when nothing is loaded or the pointer is out of range.
func (p *Program) Current() (byte, bool) {
	if p.ip < 0 || p.ip >= len(p.code) {
		return 0, false
	}
	return p.code[p.ip], true
}

// Len returns the number of symbols in the stream.
func (p *Program) Len() int {
	return len(p.code)
}

// Code returns the filtered stream.
func (p *Program) Code() string {
	return p.code
}

// Pointer returns the instruction pointer.
func (p *Program) Pointer() int {
	return p.ip
}

// Window returns the symbols within radius of the instruction pointer.
func (p *Program) Window(radius int) string {
	lo := max(p.ip-radius, 0)
	hi := min(p.ip+radius+1, len(p.code))
	if lo >= hi {
		return ""
	}
	return p.code[lo:hi]
}

func (p *Program) running() bool {
	return p.ip >= 0 && p.ip < len(p.code)
}
