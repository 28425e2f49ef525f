package scanx

import (
	"unicode/utf8"
)

// ScanChar returns the scalar at the cursor and moves past it.
func (s *Scanner) ScanChar() (rune, error) {
	var r rune

	_, _, err := s.session(true, false, func(c *cursor) error {
		var ok bool
		r, ok = s.at(c)
		if !ok {
			return newError(ErrEndOfInput, "", *c)
		}

		s.step(c)
		return nil
	})

	return r, err
}

// PeekChar returns the scalar at the cursor without moving.
func (s *Scanner) PeekChar() (rune, error) {
	c := cursor{pos: s.pos, base: s.consumed}

	r, ok := s.at(&c)
	if !ok {
		return 0, newError(ErrEndOfInput, "", c)
	}

	return r, nil
}

// PeekUpTo returns the offset of the next occurrence of r at or after the
// cursor.
func (s *Scanner) PeekUpTo(r rune) (int, error) {
	pos, _, err := s.session(false, false, s.upToRune(r))
	return pos, err
}

// ScanUpTo moves the cursor to the next occurrence of r and returns the text
// before it. r itself is not consumed.
func (s *Scanner) ScanUpTo(r rune) (string, error) {
	_, text, err := s.session(true, true, s.upToRune(r))
	return text, err
}

// PeekUpToSet returns the offset of the next scalar that belongs to set.
func (s *Scanner) PeekUpToSet(set *CharSet) (int, error) {
	pos, _, err := s.session(false, false, s.upToSet(set))
	return pos, err
}

// ScanUpToSet moves the cursor to the next scalar that belongs to set and
// returns the text before it.
func (s *Scanner) ScanUpToSet(set *CharSet) (string, error) {
	_, text, err := s.session(true, true, s.upToSet(set))
	return text, err
}

// PeekUpToString returns the offset where the next occurrence of target
// starts.
func (s *Scanner) PeekUpToString(target string) (int, error) {
	pos, _, err := s.session(false, false, s.upToString(target))
	return pos, err
}

// ScanUpToString moves the cursor to the start of the next occurrence of
// target and returns the text before it. target itself is not consumed.
func (s *Scanner) ScanUpToString(target string) (string, error) {
	_, text, err := s.session(true, true, s.upToString(target))
	return text, err
}

// Match consumes r if it is the scalar at the cursor.
func (s *Scanner) Match(r rune) error {
	_, _, err := s.session(true, false, func(c *cursor) error {
		cr, ok := s.at(c)
		if !ok {
			return newError(ErrEndOfInput, string(r), *c)
		}
		if cr != r {
			return newError(ErrNoMatch, string(r), *c)
		}

		s.step(c)
		return nil
	})

	return err
}

// MatchString consumes literal if the text at the cursor starts with it.
func (s *Scanner) MatchString(literal string) error {
	if literal == "" {
		return s.fail(ErrInvalidArgument, literal)
	}

	_, _, err := s.session(true, false, func(c *cursor) error {
		for _, want := range literal {
			r, ok := s.at(c)
			if !ok {
				return newError(ErrEndOfInput, literal, *c)
			}
			if r != want {
				return newError(ErrNoMatch, literal, *c)
			}

			s.step(c)
		}
		return nil
	})

	return err
}

// ScanWhile consumes scalars as long as test reports true and returns them.
// It stops at the end of the source and never fails.
func (s *Scanner) ScanWhile(test func(rune) bool) string {
	_, text, _ := s.session(true, true, s.while(test))
	return text
}

// PeekWhile returns the offset of the first scalar at or after the cursor for
// which test reports false, or the length of the source.
func (s *Scanner) PeekWhile(test func(rune) bool) int {
	pos, _, _ := s.session(false, false, s.while(test))
	return pos
}

func (s *Scanner) upToRune(target rune) moveFunc {
	return s.upTo(string(target), func(r rune) bool {
		return r == target
	})
}

func (s *Scanner) upToSet(set *CharSet) moveFunc {
	return s.upTo("", set.Contains)
}

// upTo stops before the first scalar accepted by found.
func (s *Scanner) upTo(target string, found func(rune) bool) moveFunc {
	return func(c *cursor) error {
		for {
			r, ok := s.at(c)
			if !ok {
				return newError(ErrEndOfInput, target, *c)
			}
			if found(r) {
				return nil
			}

			s.step(c)
		}
	}
}

func (s *Scanner) while(test func(rune) bool) moveFunc {
	return func(c *cursor) error {
		for {
			r, ok := s.at(c)
			if !ok || !test(r) {
				return nil
			}

			s.step(c)
		}
	}
}

func (s *Scanner) upToString(target string) moveFunc {
	if target == "" {
		return func(c *cursor) error {
			return newError(ErrInvalidArgument, target, *c)
		}
	}

	first, w := utf8.DecodeRuneInString(target)
	rest := target[w:]
	if rest == "" {
		return s.upToRune(first)
	}

	return func(c *cursor) error {
		for {
			// find the next candidate
			r, ok := s.at(c)
			if !ok {
				return newError(ErrEndOfInput, target, *c)
			}
			if r != first {
				s.step(c)
				continue
			}

			candidate := *c
			s.step(c)

			matched := true
			for _, want := range rest {
				r, ok := s.at(c)
				if !ok {
					return newError(ErrEndOfInput, target, *c)
				}
				if r != want {
					matched = false
					break
				}

				s.step(c)
			}

			// target is excluded from the result
			*c = candidate
			if matched {
				return nil
			}

			// resume right after the candidate start
			s.step(c)
		}
	}
}
