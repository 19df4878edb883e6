package terminal

import "unicode/utf8"

const esc = 0x1b

// Framer splits an outbound byte stream into chunks that are each either
// plain text or one complete ANSI escape sequence. Partial sequences stay
// buffered across Push calls so a transport frame never carries a torn
// escape, which would render as artifacts on the client terminal.
type Framer struct {
	buf      []byte
	inEscape bool
}

// NewFramer creates an empty Framer.
func NewFramer() *Framer {
	return &Framer{}
}

// Push processes incoming bytes and returns the complete chunks produced so
// far. Bytes belonging to an unfinished escape sequence are retained. Text
// spans that are not valid UTF-8 are dropped rather than forwarded; the
// connection must never be poisoned by a bad span.
func (f *Framer) Push(data []byte) []string {
	var (
		chunks []string
		text   []byte
	)

	flushText := func() {
		if len(text) == 0 {
			return
		}
		if utf8.Valid(text) {
			chunks = append(chunks, string(text))
		}
		text = text[:0]
	}

	for _, b := range data {
		switch {
		case f.inEscape:
			f.buf = append(f.buf, b)
			if f.terminatesSequence(b) {
				chunks = append(chunks, string(f.buf))
				f.buf = f.buf[:0]
				f.inEscape = false
			}
		case b == esc:
			flushText()
			f.buf = append(f.buf, b)
			f.inEscape = true
		default:
			text = append(text, b)
		}
	}

	flushText()
	return chunks
}

// terminatesSequence reports whether b ends the buffered escape sequence.
// CSI (ESC [) ends on an ASCII letter; OSC (ESC ]) ends on BEL or ESC-backslash;
// charset selection and bare ESC sequences end on an ASCII letter.
func (f *Framer) terminatesSequence(b byte) bool {
	if len(f.buf) < 2 {
		return false
	}

	switch f.buf[1] {
	case '[':
		return isASCIILetter(b)
	case ']':
		if b == 0x07 {
			return true
		}
		return b == '\\' && len(f.buf) > 2 && f.buf[len(f.buf)-2] == esc
	default:
		return isASCIILetter(b)
	}
}

// Flush force-emits whatever is buffered and resets state. Only used at
// disconnect so a truncated trailing sequence is not silently lost.
func (f *Framer) Flush() (string, bool) {
	if len(f.buf) == 0 {
		return "", false
	}

	out := string(f.buf)
	f.buf = f.buf[:0]
	f.inEscape = false
	return out, true
}

func isASCIILetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
