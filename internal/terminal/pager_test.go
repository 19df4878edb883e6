package terminal

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPagerPageSizeReservesPromptRows(t *testing.T) {
	require.Equal(t, 22, NewPager(24).PageSize())
	require.Equal(t, 0, NewPager(1).PageSize())
	require.Equal(t, 0, NewPager(0).PageSize())
}

func TestPaginateShortTextSinglePage(t *testing.T) {
	p := NewPager(24)
	pages := p.Paginate("one\ntwo\nthree")

	require.Len(t, pages, 1)
	require.True(t, pages[0].IsLast)
	require.Equal(t, []string{"one", "two", "three"}, pages[0].Lines)
}

func TestPaginateSplitsLongText(t *testing.T) {
	p := NewPager(12) // 10 lines per page

	var lines []string
	for i := 1; i <= 25; i++ {
		lines = append(lines, fmt.Sprintf("line %d", i))
	}
	pages := p.Paginate(strings.Join(lines, "\n"))

	require.Len(t, pages, 3)
	require.Len(t, pages[0].Lines, 10)
	require.Len(t, pages[1].Lines, 10)
	require.Len(t, pages[2].Lines, 5)
	require.False(t, pages[0].IsLast)
	require.False(t, pages[1].IsLast)
	require.True(t, pages[2].IsLast)
	require.Equal(t, "line 1", pages[0].Lines[0])
	require.Equal(t, "line 25", pages[2].Lines[4])
}

func TestPaginateNormalizesCRLF(t *testing.T) {
	p := NewPager(24)
	pages := p.Paginate("a\r\nb\r\nc")

	require.Len(t, pages, 1)
	require.Equal(t, []string{"a", "b", "c"}, pages[0].Lines)
}

func TestPaginateEmptyInput(t *testing.T) {
	p := NewPager(24)
	pages := p.Paginate("")

	require.Len(t, pages, 1)
	require.True(t, pages[0].IsLast)
	require.Empty(t, pages[0].Lines)
}

func TestPageANSIJoinsWithCRLF(t *testing.T) {
	page := Page{Lines: []string{"a", "b"}}
	require.Equal(t, "a\r\nb", page.ANSI())
}

func TestClearMorePromptBlanksLine(t *testing.T) {
	out := ClearMorePrompt(8)
	require.Equal(t, "\r        \r", out)
}
