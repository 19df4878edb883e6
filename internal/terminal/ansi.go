package terminal

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Color is the CGA 16-color palette used by classic ANSI art.
type Color int

const (
	Black Color = iota
	Red
	Green
	Brown
	Blue
	Magenta
	Cyan
	LightGray
	DarkGray
	LightRed
	LightGreen
	Yellow
	LightBlue
	LightMagenta
	LightCyan
	White
)

var fgCodes = [...]int{30, 31, 32, 33, 34, 35, 36, 37, 90, 91, 92, 93, 94, 95, 96, 97}

// FgCode returns the ANSI foreground color code.
func (c Color) FgCode() int {
	if c < 0 || int(c) >= len(fgCodes) {
		return 37
	}
	return fgCodes[c]
}

// BgCode returns the ANSI background color code.
func (c Color) BgCode() int {
	return c.FgCode() + 10
}

// Writer composes ANSI-formatted terminal output in memory. It never writes
// to a transport itself; callers flush the accumulated string into the
// session output channel.
type Writer struct {
	buf strings.Builder
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// ClearScreen clears the screen and homes the cursor.
func (w *Writer) ClearScreen() {
	w.buf.WriteString("\x1b[2J\x1b[H")
}

// MoveCursor moves the cursor to the 1-based row and column.
func (w *Writer) MoveCursor(row, col int) {
	fmt.Fprintf(&w.buf, "\x1b[%d;%dH", row, col)
}

// SetColor sets foreground and background colors together.
func (w *Writer) SetColor(fg, bg Color) {
	fmt.Fprintf(&w.buf, "\x1b[%d;%dm", fg.FgCode(), bg.BgCode())
}

// SetFg sets the foreground color.
func (w *Writer) SetFg(fg Color) {
	fmt.Fprintf(&w.buf, "\x1b[%dm", fg.FgCode())
}

// SetBg sets the background color.
func (w *Writer) SetBg(bg Color) {
	fmt.Fprintf(&w.buf, "\x1b[%dm", bg.BgCode())
}

// Reset restores default colors and attributes.
func (w *Writer) Reset() {
	w.buf.WriteString("\x1b[0m")
}

// Bold enables bold text.
func (w *Writer) Bold() {
	w.buf.WriteString("\x1b[1m")
}

// BeginSync starts a synchronized-output bracket (DECSET 2026).
func (w *Writer) BeginSync() {
	w.buf.WriteString("\x1b[?2026h")
}

// EndSync ends a synchronized-output bracket.
func (w *Writer) EndSync() {
	w.buf.WriteString("\x1b[?2026l")
}

// HideCursor hides the cursor.
func (w *Writer) HideCursor() {
	w.buf.WriteString("\x1b[?25l")
}

// ShowCursor shows the cursor.
func (w *Writer) ShowCursor() {
	w.buf.WriteString("\x1b[?25h")
}

// WriteString appends raw text.
func (w *Writer) WriteString(text string) {
	w.buf.WriteString(text)
}

// WriteLine appends text followed by CRLF.
func (w *Writer) WriteLine(text string) {
	w.buf.WriteString(text)
	w.buf.WriteString("\r\n")
}

// WriteCP437 decodes classic code page 437 art bytes to UTF-8 and appends them.
func (w *Writer) WriteCP437(art []byte) {
	w.buf.WriteString(DecodeCP437(art))
}

// Len returns the number of buffered bytes.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Empty reports whether the buffer holds no output.
func (w *Writer) Empty() bool {
	return w.buf.Len() == 0
}

// Flush returns the buffered output and resets the buffer.
func (w *Writer) Flush() string {
	out := w.buf.String()
	w.buf.Reset()
	return out
}

// DecodeCP437 converts code page 437 bytes (box drawing, shading blocks) to UTF-8.
func DecodeCP437(data []byte) string {
	decoded, err := charmap.CodePage437.NewDecoder().Bytes(data)
	if err != nil {
		// CodePage437 maps every byte; decoding cannot fail in practice.
		return string(data)
	}
	return string(decoded)
}
