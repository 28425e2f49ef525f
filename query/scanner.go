package query

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/hummerd/scanx"
)

type Token uint

const (
	TKey Token = iota + 1
	TNumber
	TString
	TOp
	TParentheses
	TRegex
	TBracket
	TComma
)

func (t Token) String() string {
	switch t {
	case TKey:
		return "key"
	case TNumber:
		return "number"
	case TString:
		return "string"
	case TOp:
		return "operator"
	case TParentheses:
		return "parentheses"
	case TRegex:
		return "regex"
	case TBracket:
		return "bracket"
	case TComma:
		return "comma"
	}

	return "unknown"
}

// Regex is the value of a TRegex token.
type Regex struct {
	Pattern string
	Options string
}

var (
	keyStart    = scanx.Letters.Union(scanx.NewCharSet("_$"))
	keyChars    = scanx.Alphanumerics.Union(scanx.NewCharSet("_$.-"))
	opChars     = scanx.NewCharSet("<>=!")
	regexStop   = scanx.NewCharSet(`/\`)
	stringStops = map[rune]*scanx.CharSet{
		'"':  scanx.NewCharSet(`"\`),
		'\'': scanx.NewCharSet(`'\`),
	}
)

func NewScanner(src string) *Scanner {
	return &Scanner{
		src: scanx.New(src),
	}
}

// Scanner splits a query into tokens.
type Scanner struct {
	src   *scanx.Scanner
	start scanx.Mark
	tok   Token
	lit   string
	val   interface{}
}

// Token returns the current token and its literal text.
func (s *Scanner) Token() (Token, string) {
	return s.tok, s.lit
}

// Value returns the decoded value of the current token: int64 or float64 for
// numbers, the unquoted text for strings and a Regex for regular expressions.
func (s *Scanner) Value() interface{} {
	return s.val
}

// Position returns line and column of the current token.
func (s *Scanner) Position() (int, int) {
	loc := s.src.LocationAt(s.start.Position())
	return loc.Line, loc.Column
}

// Offset returns the byte offset of the current token.
func (s *Scanner) Offset() int {
	return s.start.Position()
}

// Next reads the next token. It returns io.EOF when the query is exhausted.
func (s *Scanner) Next() error {
	s.tok, s.lit, s.val = 0, "", nil

	s.src.ScanWhile(scanx.Whitespace.Contains)
	s.start = s.src.Mark()

	c, err := s.src.PeekChar()
	if err != nil {
		return io.EOF
	}

	switch {
	case keyStart.Contains(c):
		s.src.ScanWhile(keyChars.Contains)
		s.tok = TKey
	case c >= '0' && c <= '9' || c == '-':
		err = s.readNumber()
	case c == '"' || c == '\'':
		err = s.readString(c)
	case c == '/':
		err = s.readRegex()
	case opChars.Contains(c):
		s.src.ScanWhile(opChars.Contains)
		s.tok = TOp
	case c == '(' || c == ')':
		_, err = s.src.ScanChar()
		s.tok = TParentheses
	case c == '[' || c == ']':
		_, err = s.src.ScanChar()
		s.tok = TBracket
	case c == ',':
		_, err = s.src.ScanChar()
		s.tok = TComma
	default:
		err = s.errorf("unexpected character %q", c)
	}

	if err != nil {
		s.tok, s.val = 0, nil
		// leave the cursor at the token start, the caller may report it
		_ = s.src.Rewind(s.start)
		return err
	}

	s.lit = s.src.Since(s.start)
	return nil
}

func (s *Scanner) readNumber() error {
	neg := s.src.Match('-') == nil
	digits := s.src.Mark()

	i, err := s.src.ScanInt()
	if err != nil {
		return s.errorf("malformed number: %w", err)
	}

	s.tok = TNumber

	if c, err := s.src.PeekChar(); err == nil && c == '.' {
		_ = s.src.Rewind(digits)

		f, err := s.src.ScanFloat()
		if err != nil {
			return s.errorf("malformed number: %w", err)
		}

		if strings.ContainsRune(s.src.Since(digits), '.') {
			if neg {
				f = -f
			}
			s.val = f
			return nil
		}
	}

	v := int64(i)
	if neg {
		v = -v
	}
	s.val = v
	return nil
}

func (s *Scanner) readString(quote rune) error {
	_ = s.src.Skip(1)

	var b strings.Builder
	for {
		part, err := s.src.ScanUpToSet(stringStops[quote])
		if err != nil {
			return s.errorf("unterminated string")
		}
		b.WriteString(part)

		c, err := s.src.ScanChar()
		if err != nil {
			return s.errorf("unterminated string")
		}
		if c == quote {
			break
		}

		e, err := s.src.ScanChar()
		if err != nil {
			return s.errorf("unterminated string")
		}
		b.WriteRune(unescape(e))
	}

	s.tok = TString
	s.val = b.String()
	return nil
}

func (s *Scanner) readRegex() error {
	_ = s.src.Skip(1)

	var b strings.Builder
	for {
		part, err := s.src.ScanUpToSet(regexStop)
		if err != nil {
			return s.errorf("unterminated regular expression")
		}
		b.WriteString(part)

		c, err := s.src.ScanChar()
		if err != nil {
			return s.errorf("unterminated regular expression")
		}
		if c == '/' {
			break
		}

		// escapes are kept, they mean something to the regex engine
		e, err := s.src.ScanChar()
		if err != nil {
			return s.errorf("unterminated regular expression")
		}
		b.WriteRune(c)
		b.WriteRune(e)
	}

	s.tok = TRegex
	s.val = Regex{
		Pattern: b.String(),
		Options: s.src.ScanWhile(unicode.IsLetter),
	}
	return nil
}

func (s *Scanner) errorf(format string, args ...interface{}) error {
	return newSyntaxError(s.src, s.start.Position(), fmt.Errorf(format, args...))
}

func unescape(c rune) rune {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	}

	return c
}

// SyntaxError reports a malformed query.
type SyntaxError struct {
	Offset int
	Line   int
	Column int
	Err    error
}

func newSyntaxError(src *scanx.Scanner, offset int, err error) *SyntaxError {
	loc := src.LocationAt(offset)

	return &SyntaxError{
		Offset: offset,
		Line:   loc.Line,
		Column: loc.Column,
		Err:    err,
	}
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v at: line:%d; column: %d", e.Err, e.Line, e.Column)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Pos returns the byte offset of the error in the query.
func (e *SyntaxError) Pos() int {
	return e.Offset
}
