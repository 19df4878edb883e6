package menu

// TypeAhead holds keystrokes that arrive while the session is busy, such
// as during a screen transition, so experienced callers can chain hotkeys.
// When full, the oldest keystroke is evicted.
type TypeAhead struct {
	buf []byte
	max int
}

// DefaultTypeAheadCapacity is the stock keystroke buffer size.
const DefaultTypeAheadCapacity = 16

// NewTypeAhead creates a buffer holding at most max keystrokes.
func NewTypeAhead(max int) *TypeAhead {
	if max < 1 {
		max = DefaultTypeAheadCapacity
	}
	return &TypeAhead{max: max}
}

// Push appends a keystroke, evicting the oldest when full.
func (t *TypeAhead) Push(key byte) {
	if len(t.buf) >= t.max {
		t.buf = t.buf[1:]
	}
	t.buf = append(t.buf, key)
}

// Pop removes and returns the oldest keystroke.
func (t *TypeAhead) Pop() (byte, bool) {
	if len(t.buf) == 0 {
		return 0, false
	}
	key := t.buf[0]
	t.buf = t.buf[1:]
	return key, true
}

// Len returns the number of buffered keystrokes.
func (t *TypeAhead) Len() int {
	return len(t.buf)
}

// Empty reports whether no keystrokes are buffered.
func (t *TypeAhead) Empty() bool {
	return len(t.buf) == 0
}

// Clear discards all buffered keystrokes.
func (t *TypeAhead) Clear() {
	t.buf = t.buf[:0]
}
