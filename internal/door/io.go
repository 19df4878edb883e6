package door

import (
	"context"
	"io"
)

// IO is a door's view of the caller's terminal: framed input chunks in, ANSI
// output out. Input arrives as transport messages that may carry several
// keystrokes; IO buffers the surplus.
type IO struct {
	in      <-chan string
	out     chan<- string
	pending []byte
}

// NewIO wraps the session's input and output channels.
func NewIO(in <-chan string, out chan<- string) *IO {
	return &IO{in: in, out: out}
}

// Write sends output to the caller, giving up when the context ends.
func (t *IO) Write(ctx context.Context, s string) error {
	select {
	case t.out <- s:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReadKey returns the next input byte. It returns io.EOF when the input
// channel closes (transport gone).
func (t *IO) ReadKey(ctx context.Context) (byte, error) {
	for len(t.pending) == 0 {
		select {
		case chunk, ok := <-t.in:
			if !ok {
				return 0, io.EOF
			}
			t.pending = append(t.pending, chunk...)
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	key := t.pending[0]
	t.pending = t.pending[1:]
	return key, nil
}

// TryKey returns a buffered or immediately available key without blocking.
func (t *IO) TryKey() (byte, bool) {
	if len(t.pending) == 0 {
		select {
		case chunk, ok := <-t.in:
			if !ok {
				return 0, false
			}
			t.pending = append(t.pending, chunk...)
		default:
			return 0, false
		}
	}
	if len(t.pending) == 0 {
		return 0, false
	}
	key := t.pending[0]
	t.pending = t.pending[1:]
	return key, true
}

// In exposes the raw input channel for doors that multiplex input against
// other event sources.
func (t *IO) In() <-chan string {
	return t.in
}

// Push returns input bytes for later reads, oldest first.
func (t *IO) Push(data string) {
	t.pending = append(t.pending, data...)
}

// LineOptions controls ReadLine behavior.
type LineOptions struct {
	// Echo prints typed characters back to the caller.
	Echo bool
	// Mask echoes '*' instead of the typed character. Implies Echo.
	Mask bool
	// MaxLen caps the accepted line length. Zero means 120.
	MaxLen int
}

// ReadLine collects input until Enter, handling backspace and echoing per
// the options. Control bytes and escape sequences are ignored.
func (t *IO) ReadLine(ctx context.Context, opts LineOptions) (string, error) {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 120
	}

	var line []byte
	inEscape := false
	for {
		key, err := t.ReadKey(ctx)
		if err != nil {
			return "", err
		}

		// swallow arrow keys and other sequences
		if inEscape {
			if isFinalByte(key) {
				inEscape = false
			}
			continue
		}

		switch {
		case key == 0x1b:
			inEscape = true
		case key == '\r' || key == '\n':
			if err := t.Write(ctx, "\r\n"); err != nil {
				return "", err
			}
			return string(line), nil
		case key == 0x08 || key == 0x7f:
			if len(line) == 0 {
				continue
			}
			line = line[:len(line)-1]
			if opts.Echo || opts.Mask {
				if err := t.Write(ctx, "\x08 \x08"); err != nil {
					return "", err
				}
			}
		case key >= 0x20 && key < 0x7f:
			if len(line) >= maxLen {
				continue
			}
			line = append(line, key)
			switch {
			case opts.Mask:
				if err := t.Write(ctx, "*"); err != nil {
					return "", err
				}
			case opts.Echo:
				if err := t.Write(ctx, string(key)); err != nil {
					return "", err
				}
			}
		}
	}
}

func isFinalByte(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '~'
}
