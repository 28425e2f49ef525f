package scanx

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
)

// Location is a human readable position in the source. Line and Column are
// 1-based; columns count grapheme clusters, so "e" followed by a combining
// accent is a single column.
type Location struct {
	Offset int
	Line   int
	Column int
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Location returns the location of the cursor.
func (s *Scanner) Location() Location {
	return s.LocationAt(s.pos)
}

// LocationAt returns the location of a byte offset. Offsets outside of the
// source are clamped.
func (s *Scanner) LocationAt(offset int) Location {
	if offset < 0 {
		offset = 0
	}
	if offset > len(s.src) {
		offset = len(s.src)
	}

	head := s.src[:offset]
	lineStart := strings.LastIndexByte(head, '\n') + 1

	return Location{
		Offset: offset,
		Line:   strings.Count(head, "\n") + 1,
		Column: uniseg.GraphemeClusterCount(head[lineStart:]) + 1,
	}
}

// Line returns the source line containing offset, without its line break.
func (s *Scanner) Line(offset int) string {
	if offset < 0 {
		offset = 0
	}
	if offset > len(s.src) {
		offset = len(s.src)
	}

	start := strings.LastIndexByte(s.src[:offset], '\n') + 1
	end := strings.IndexByte(s.src[offset:], '\n')
	if end < 0 {
		return strings.TrimSuffix(s.src[start:], "\r")
	}

	return strings.TrimSuffix(s.src[start:offset+end], "\r")
}
