// Package scanx implements a cursor based text scanner for hand-written
// lexers.
//
// A Scanner holds an immutable source string and a read position. Every
// operation runs inside a session: it moves a working copy of the cursor and
// the scanner adopts the new position only when the operation succeeds and is
// a scan. Peek operations report where a scan would stop without moving. A
// failed operation never changes the scanner, so callers can try one
// alternative after another.
//
// Positions are byte offsets into the source. Consumed counts Unicode scalars
// from the start of the source; both are always updated together.
package scanx

import (
	"unicode/utf8"
)

func New(src string) *Scanner {
	return &Scanner{src: src}
}

type Scanner struct {
	src      string
	pos      int
	consumed int
}

// cursor is the working state of a session. delta counts scalars stepped
// over since the session started, base is the scanner's consumed count at
// that moment.
type cursor struct {
	pos   int
	delta int
	base  int
}

type moveFunc func(c *cursor) error

// Mark is a saved scanner state, see Scanner.Mark.
type Mark struct {
	pos      int
	consumed int
}

func (m Mark) Position() int {
	return m.pos
}

func (m Mark) Consumed() int {
	return m.consumed
}

// Source returns the whole text the scanner was created with.
func (s *Scanner) Source() string {
	return s.src
}

// Len returns the length of the source in bytes.
func (s *Scanner) Len() int {
	return len(s.src)
}

// Position returns the byte offset of the cursor.
func (s *Scanner) Position() int {
	return s.pos
}

// Consumed returns the number of scalars between the start of the source and
// the cursor.
func (s *Scanner) Consumed() int {
	return s.consumed
}

func (s *Scanner) IsAtEnd() bool {
	return s.pos == len(s.src)
}

// Remainder returns the text from the cursor to the end of the source.
func (s *Scanner) Remainder() string {
	return s.src[s.pos:]
}

// Mark saves the current scanner state.
func (s *Scanner) Mark() Mark {
	return Mark{pos: s.pos, consumed: s.consumed}
}

// Since returns the text between m and the cursor. It returns an empty string
// if the cursor is before m.
func (s *Scanner) Since(m Mark) string {
	if m.pos > s.pos || m.pos < 0 {
		return ""
	}

	return s.src[m.pos:s.pos]
}

// Rewind restores a state saved with Mark. The mark is checked against the
// text between it and the cursor, so rewinding a short distance is cheap.
func (s *Scanner) Rewind(m Mark) error {
	if m.pos < 0 || m.pos > len(s.src) || !s.consistent(m) {
		return s.fail(ErrInvalidArgument, "")
	}

	s.pos = m.pos
	s.consumed = m.consumed
	return nil
}

// consistent reports whether m's consumed count matches its offset.
func (s *Scanner) consistent(m Mark) bool {
	if m.pos <= s.pos {
		return utf8.RuneCountInString(s.src[m.pos:s.pos]) == s.consumed-m.consumed
	}

	return utf8.RuneCountInString(s.src[s.pos:m.pos]) == m.consumed-s.consumed
}

// Reset moves the cursor back to the start of the source.
func (s *Scanner) Reset() {
	s.pos = 0
	s.consumed = 0
}

// Skip advances the cursor by n scalars. If the source ends before n scalars
// were skipped the cursor does not move.
func (s *Scanner) Skip(n int) error {
	if n < 0 {
		return s.fail(ErrInvalidArgument, "")
	}

	_, _, err := s.session(true, false, func(c *cursor) error {
		for ; n > 0; n-- {
			if !s.step(c) {
				return newError(ErrEndOfInput, "", *c)
			}
		}
		return nil
	})
	return err
}

// Back moves the cursor n scalars towards the start of the source. It fails
// when n exceeds the number of consumed scalars.
func (s *Scanner) Back(n int) error {
	if n < 0 || n > s.consumed {
		return s.fail(ErrInvalidArgument, "")
	}

	for ; n > 0; n-- {
		_, w := utf8.DecodeLastRuneInString(s.src[:s.pos])
		s.pos -= w
		s.consumed--
	}

	return nil
}

// session runs move against a copy of the cursor. The scanner adopts the
// copy only if move succeeds and commit is set. With accumulate the text
// stepped over is returned.
func (s *Scanner) session(commit, accumulate bool, move moveFunc) (int, string, error) {
	c := cursor{pos: s.pos, base: s.consumed}

	err := move(&c)
	if err != nil {
		return s.pos, "", err
	}

	var text string
	if accumulate && c.pos > s.pos {
		text = s.src[s.pos:c.pos]
	}

	if commit {
		s.pos = c.pos
		s.consumed += c.delta
	}

	return c.pos, text, nil
}

// at returns the scalar under c. ok is false at the end of the source.
func (s *Scanner) at(c *cursor) (r rune, ok bool) {
	if c.pos >= len(s.src) {
		return 0, false
	}

	r, _ = utf8.DecodeRuneInString(s.src[c.pos:])
	return r, true
}

// step moves c over one scalar.
func (s *Scanner) step(c *cursor) bool {
	if c.pos >= len(s.src) {
		return false
	}

	_, w := utf8.DecodeRuneInString(s.src[c.pos:])
	c.pos += w
	c.delta++
	return true
}

func (s *Scanner) fail(kind error, target string) *Error {
	return &Error{
		Kind:     kind,
		Target:   target,
		Consumed: s.consumed,
		Offset:   s.pos,
	}
}
