package vm

// fifo is an unbounded first-in first-out byte queue. Consumed bytes are
// reclaimed once they make up more than half of the backing slice.
type fifo struct {
	buf  []byte
	head int
}

func (q *fifo) push(b ...byte) {
	q.buf = append(q.buf, b...)
}

func (q *fifo) pop() (byte, bool) {
	if q.head >= len(q.buf) {
		return 0, false
	}
	b := q.buf[q.head]
	q.head++
	if q.head > len(q.buf)/2 {
		q.buf = append(q.buf[:0], q.buf[q.head:]...)
		q.head = 0
	}
	return b, true
}

func (q *fifo) len() int {
	return len(q.buf) - q.head
}

// pending returns a copy of the unread bytes in order.
func (q *fifo) pending() []byte {
	out := make([]byte, q.len())
	copy(out, q.buf[q.head:])
	return out
}

func (q *fifo) String() string {
	return Text(q.buf[q.head:])
}

// Text renders cells as characters, one code point per cell value, so
// bytes 128-255 come out as U+0080-U+00FF rather than invalid UTF-8.
func Text(cells []byte) string {
	runes := make([]rune, len(cells))
	for i, c := range cells {
		runes[i] = rune(c)
	}
	return string(runes)
}

// TextCells converts text to cell values, one cell per code point. Code points
// above 255 keep only their low byte.
func TextCells(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		out = append(out, byte(r))
	}
	return out
}
