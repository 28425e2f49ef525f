package scanx

import (
	"math"
)

// ScanInt consumes a run of ASCII decimal digits and returns its value. Signs
// are not recognised. A run that does not fit into an int fails with
// ErrOverflow and the cursor does not move.
func (s *Scanner) ScanInt() (int, error) {
	var v int

	_, _, err := s.session(true, false, func(c *cursor) error {
		var n int
		var err error

		v, n, err = s.digits(c)
		if err != nil {
			return err
		}
		if n == 0 {
			return newError(ErrExpectedDigit, "", *c)
		}
		return nil
	})

	return v, err
}

// ScanHex consumes a hexadecimal number of at most bits/4 digits. The number
// may start with one of the prefixes "0x", "0X" or "#". bits must be 16, 32
// or 64.
func (s *Scanner) ScanHex(bits int) (uint64, error) {
	if bits != 16 && bits != 32 && bits != 64 {
		return 0, s.fail(ErrInvalidArgument, "")
	}

	var v uint64

	_, _, err := s.session(true, false, func(c *cursor) error {
		s.hexPrefix(c)

		n := 0
		for ; n < bits/4; n++ {
			r, ok := s.at(c)
			if !ok {
				break
			}

			d, ok := hexDigit(r)
			if !ok {
				break
			}

			v = v<<4 | uint64(d)
			s.step(c)
		}

		if n == 0 {
			return newError(ErrExpectedDigit, "", *c)
		}
		return nil
	})

	return v, err
}

func (s *Scanner) ScanHex16() (uint16, error) {
	v, err := s.ScanHex(16)
	return uint16(v), err
}

func (s *Scanner) ScanHex32() (uint32, error) {
	v, err := s.ScanHex(32)
	return uint32(v), err
}

func (s *Scanner) ScanHex64() (uint64, error) {
	return s.ScanHex(64)
}

// maxFracDigits is the number of fractional digits a float64 can tell apart.
const maxFracDigits = 17

// ScanFloat consumes an integer part optionally followed by a '.' and a
// fractional part. The '.' is left alone unless a digit follows it.
func (s *Scanner) ScanFloat() (float64, error) {
	var v float64

	_, _, err := s.session(true, false, func(c *cursor) error {
		ip, n, err := s.digits(c)
		if err != nil {
			return err
		}
		if n == 0 {
			return newError(ErrExpectedDigit, "", *c)
		}

		v = float64(ip)

		r, ok := s.at(c)
		if !ok || r != '.' {
			return nil
		}

		dot := *c
		s.step(c)

		// digits past maxFracDigits are consumed but do not change the value
		var frac float64
		var fn int
		n = 0
		for ; ; n++ {
			r, ok := s.at(c)
			if !ok || !isDigit(r) {
				break
			}

			if fn < maxFracDigits {
				frac = frac*10 + float64(r-'0')
				fn++
			}
			s.step(c)
		}

		if n == 0 {
			*c = dot
			return nil
		}

		v += frac / math.Pow10(fn)
		return nil
	})

	return v, err
}

// digits consumes a run of decimal digits and returns its value and length.
func (s *Scanner) digits(c *cursor) (int, int, error) {
	var v, n int

	for {
		r, ok := s.at(c)
		if !ok || !isDigit(r) {
			return v, n, nil
		}

		d := int(r - '0')
		if v > (math.MaxInt-d)/10 {
			return 0, n, newError(ErrOverflow, "", *c)
		}

		v = v*10 + d
		n++
		s.step(c)
	}
}

func (s *Scanner) hexPrefix(c *cursor) {
	r, ok := s.at(c)
	if !ok {
		return
	}

	if r == '#' {
		s.step(c)
		return
	}

	if r != '0' {
		return
	}

	next := *c
	s.step(&next)

	x, ok := s.at(&next)
	if !ok || (x != 'x' && x != 'X') {
		return
	}

	s.step(&next)
	*c = next
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func hexDigit(r rune) (byte, bool) {
	switch {
	case r >= '0' && r <= '9':
		return byte(r - '0'), true
	case r >= 'a' && r <= 'f':
		return byte(r-'a') + 10, true
	case r >= 'A' && r <= 'F':
		return byte(r-'A') + 10, true
	}

	return 0, false
}
