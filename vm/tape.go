package vm

// ---------------------------------------------------------------------------
// Tape: fixed-size memory with a circular cursor
// ---------------------------------------------------------------------------

// Tape is a fixed-capacity sequence of byte cells. The cursor always lies in
// [0, Len()) and wraps in both directions.
type Tape struct {
	cells []byte
	ptr   int
}

func newTape(size int) *Tape {
	return &Tape{cells: make([]byte, size)}
}

// Len returns the tape capacity.
func (t *Tape) Len() int {
	return len(t.cells)
}

// Pointer returns the cursor position.
func (t *Tape) Pointer() int {
	return t.ptr
}

// Read returns the cell under the cursor.
func (t *Tape) Read() byte {
	return t.cells[t.ptr]
}

// Write stores v in the cell under the cursor.
func (t *Tape) Write(v byte) {
	t.cells[t.ptr] = v
}

// Increment adds one to the current cell, wrapping 255 to 0.
func (t *Tape) Increment() {
	t.cells[t.ptr]++
}

// Decrement subtracts one from the current cell, wrapping 0 to 255.
func (t *Tape) Decrement() {
	t.cells[t.ptr]--
}

// MoveLeft moves the cursor one cell left, wrapping to the last cell.
func (t *Tape) MoveLeft() {
	if t.ptr == 0 {
		t.ptr = len(t.cells) - 1
		return
	}
	t.ptr--
}

// MoveRight moves the cursor one cell right, wrapping to the first cell.
func (t *Tape) MoveRight() {
	if t.ptr == len(t.cells)-1 {
		t.ptr = 0
		return
	}
	t.ptr++
}

// Cells returns a copy of the tape contents.
func (t *Tape) Cells() []byte {
	out := make([]byte, len(t.cells))
	copy(out, t.cells)
	return out
}

// Window returns a copy of the cells within radius of the cursor, clamped
// to the tape bounds, along with the index of the first returned cell.
func (t *Tape) Window(radius int) ([]byte, int) {
	lo := max(t.ptr-radius, 0)
	hi := min(t.ptr+radius+1, len(t.cells))
	out := make([]byte, hi-lo)
	copy(out, t.cells[lo:hi])
	return out, lo
}
