package query

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	keyFuncDate     = "ISODate"
	keyFuncObjectID = "ObjectId"
)

var ErrUnexpectedEnd = errors.New("unexpected end of query")

var (
	operators = map[string]string{
		"=":  "=",
		"==": "=",
		"!=": "!=",
		"<>": "!=",
		">":  ">",
		"<":  "<",
		">=": ">=",
		"<=": "<=",
	}
	mirrored = map[string]string{
		"=":  "=",
		"!=": "!=",
		">":  "<",
		"<":  ">",
		">=": "<=",
		"<=": ">=",
	}
)

func NewParser(s *Scanner) *Parser {
	return &Parser{
		s: s,
	}
}

// Parser builds a Node tree from the tokens of a Scanner. "and" binds
// tighter than "or", parentheses group.
type Parser struct {
	s   *Scanner
	tok Token
	lit string
	val interface{}
	off int
	eof bool
}

// Parse reads the whole query. An empty query yields an empty and-group.
func (p *Parser) Parse() (*Node, error) {
	if err := p.next(); err != nil {
		return nil, err
	}

	if p.eof {
		return &Node{Op: OpAnd}, nil
	}

	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if !p.eof {
		return nil, p.errorf("unexpected %s %q", p.tok, p.lit)
	}

	if n.Expr != nil {
		n = &Node{Op: OpAnd, Children: []*Node{n}}
	}

	Link(n)
	return n, nil
}

func (p *Parser) next() error {
	err := p.s.Next()
	if errors.Is(err, io.EOF) {
		p.tok, p.lit, p.val = 0, "", nil
		p.off = p.s.Offset()
		p.eof = true
		return nil
	}
	if err != nil {
		return err
	}

	p.tok, p.lit = p.s.Token()
	p.val = p.s.Value()
	p.off = p.s.Offset()
	return nil
}

func (p *Parser) keyword(k string) bool {
	return p.tok == TKey && strings.EqualFold(p.lit, k)
}

func (p *Parser) is(t Token, lit string) bool {
	return p.tok == t && p.lit == lit
}

func (p *Parser) expect(t Token, lit string) error {
	if p.eof {
		return p.errorf("expected %q: %w", lit, ErrUnexpectedEnd)
	}

	if !p.is(t, lit) {
		return p.errorf("expected %q, got %q", lit, p.lit)
	}

	return p.next()
}

func (p *Parser) parseOr() (*Node, error) {
	return p.parseGroup(OpOr, p.parseAnd)
}

func (p *Parser) parseAnd() (*Node, error) {
	return p.parseGroup(OpAnd, p.parseTerm)
}

func (p *Parser) parseGroup(op string, operand func() (*Node, error)) (*Node, error) {
	n, err := operand()
	if err != nil {
		return nil, err
	}

	if !p.keyword(op) {
		return n, nil
	}

	g := &Node{Op: op}
	g.add(n)

	for p.keyword(op) {
		if err := p.next(); err != nil {
			return nil, err
		}

		n, err := operand()
		if err != nil {
			return nil, err
		}

		g.add(n)
	}

	return g, nil
}

func (p *Parser) parseTerm() (*Node, error) {
	if p.eof {
		return nil, p.errorf("%w", ErrUnexpectedEnd)
	}

	if p.is(TParentheses, "(") {
		if err := p.next(); err != nil {
			return nil, err
		}

		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}

		return n, p.expect(TParentheses, ")")
	}

	if p.keyword(OpAnd) || p.keyword(OpOr) || p.tok == TParentheses {
		return nil, p.errorf("unexpected %q", p.lit)
	}

	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return &Node{Expr: e}, nil
}

func (p *Parser) parseExpression() (*Expression, error) {
	start := p.off

	l, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	if p.eof {
		return nil, p.errorf("expected operator: %w", ErrUnexpectedEnd)
	}

	var op string
	switch {
	case p.tok == TOp:
		var ok bool
		op, ok = operators[p.lit]
		if !ok {
			return nil, p.errorf("unknown operator %q", p.lit)
		}
	case p.tok == TKey && strings.HasPrefix(p.lit, "$") && len(p.lit) > 1:
		op = p.lit
	default:
		return nil, p.errorf("expected operator, got %q", p.lit)
	}

	if err := p.next(); err != nil {
		return nil, err
	}

	r, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	e := &Expression{Op: op, L: l, R: r, Offset: start}

	if l.Type != VTKey && r.Type == VTKey {
		mop, ok := mirrored[op]
		if !ok {
			return nil, newSyntaxError(p.s.src, start, fmt.Errorf("operator %s needs the key on the left", op))
		}

		e.Op, e.L, e.R = mop, r, l
	}

	if e.L.Type != VTKey {
		return nil, newSyntaxError(p.s.src, start, errors.New("expression has no key"))
	}

	return e, nil
}

func (p *Parser) parseOperand() (Operand, error) {
	if p.eof {
		return Operand{}, p.errorf("expected value: %w", ErrUnexpectedEnd)
	}

	o := Operand{Raw: p.lit, Value: p.val, Offset: p.off}

	switch p.tok {
	case TNumber:
		o.Type = VTInteger
		if _, ok := p.val.(float64); ok {
			o.Type = VTFloat
		}
	case TString:
		o.Type = VTString
	case TRegex:
		o.Type = VTRegex
	case TBracket:
		if p.lit != "[" {
			return Operand{}, p.errorf("unexpected %q", p.lit)
		}
		return p.parseArray()
	case TKey:
		switch {
		case p.lit == "true" || p.lit == "false":
			o.Type = VTBool
			o.Value = p.lit == "true"
		case p.lit == "null":
			o.Type = VTNull
		case strings.HasPrefix(p.lit, "$") && len(p.lit) > 1:
			o.Type = VTParam
		case p.lit == keyFuncDate || p.lit == keyFuncObjectID:
			return p.parseCall()
		default:
			o.Type = VTKey
		}
	default:
		return Operand{}, p.errorf("unexpected %s %q", p.tok, p.lit)
	}

	return o, p.next()
}

func (p *Parser) parseArray() (Operand, error) {
	o := Operand{Type: VTArray, Offset: p.off}
	var items []Operand

	if err := p.next(); err != nil {
		return Operand{}, err
	}

	for !p.is(TBracket, "]") {
		if len(items) > 0 {
			if err := p.expect(TComma, ","); err != nil {
				return Operand{}, err
			}
		}

		item, err := p.parseOperand()
		if err != nil {
			return Operand{}, err
		}

		if item.Type == VTKey {
			return Operand{}, newSyntaxError(p.s.src, item.Offset, fmt.Errorf("unexpected key %q in array", item.Raw))
		}

		items = append(items, item)

		if p.eof {
			return Operand{}, p.errorf("expected \"]\": %w", ErrUnexpectedEnd)
		}
	}

	o.Value = items
	o.Raw = p.s.src.Source()[o.Offset : p.off+1]
	return o, p.next()
}

// parseCall reads ISODate("...") and ObjectId("...").
func (p *Parser) parseCall() (Operand, error) {
	name, start := p.lit, p.off

	if err := p.next(); err != nil {
		return Operand{}, err
	}

	if err := p.expect(TParentheses, "("); err != nil {
		return Operand{}, err
	}

	if p.tok != TString {
		return Operand{}, p.errorf("%s expects a string argument", name)
	}

	arg, argOff := p.val.(string), p.off
	if err := p.next(); err != nil {
		return Operand{}, err
	}

	end := p.off + 1
	if err := p.expect(TParentheses, ")"); err != nil {
		return Operand{}, err
	}

	o := Operand{Raw: p.s.src.Source()[start:end], Offset: start}

	switch name {
	case keyFuncDate:
		t, err := time.Parse(time.RFC3339, arg)
		if err != nil {
			return Operand{}, newSyntaxError(p.s.src, argOff, fmt.Errorf("invalid date %q: %w", arg, err))
		}

		o.Type, o.Value = VTDate, t
	case keyFuncObjectID:
		id, err := primitive.ObjectIDFromHex(arg)
		if err != nil {
			return Operand{}, newSyntaxError(p.s.src, argOff, fmt.Errorf("invalid object id %q: %w", arg, err))
		}

		o.Type, o.Value = VTObjectID, id
	}

	return o, nil
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return newSyntaxError(p.s.src, p.off, fmt.Errorf(format, args...))
}
