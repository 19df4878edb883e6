package terminal

import "strings"

// Page is one screenful of paginated output.
type Page struct {
	Lines  []string
	IsLast bool
}

// ANSI joins the page's lines with CRLF.
func (p Page) ANSI() string {
	return strings.Join(p.Lines, "\r\n")
}

// Pager splits long text into terminal-height pages shown behind [More]
// prompts, classic BBS style.
type Pager struct {
	rows     int
	reserved int
}

// NewPager creates a Pager for a terminal with the given number of rows.
// Two rows are reserved for the prompt line and spacing.
func NewPager(rows int) *Pager {
	return &Pager{rows: rows, reserved: 2}
}

// PageSize returns how many content lines fit on one page.
func (p *Pager) PageSize() int {
	size := p.rows - p.reserved
	if size < 0 {
		return 0
	}
	return size
}

// Paginate splits text into pages. Empty input yields a single empty last page.
func (p *Pager) Paginate(text string) []Page {
	size := p.PageSize()
	if size == 0 || text == "" {
		return []Page{{IsLast: true}}
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	pages := make([]Page, 0, (len(lines)+size-1)/size)
	for start := 0; start < len(lines); start += size {
		end := start + size
		if end > len(lines) {
			end = len(lines)
		}
		pages = append(pages, Page{Lines: lines[start:end]})
	}
	if len(pages) == 0 {
		return []Page{{IsLast: true}}
	}
	pages[len(pages)-1].IsLast = true
	return pages
}

// MorePrompt renders the styled [More] prompt.
func MorePrompt() string {
	w := NewWriter()
	w.SetColor(Yellow, Blue)
	w.Bold()
	w.WriteString(" [More] ")
	w.Reset()
	return w.Flush()
}

// ClearMorePrompt returns the sequence that blanks a [More] prompt line.
func ClearMorePrompt(cols int) string {
	w := NewWriter()
	w.WriteString("\r")
	w.WriteString(strings.Repeat(" ", cols))
	w.WriteString("\r")
	return w.Flush()
}
