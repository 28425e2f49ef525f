package scanx

import (
	"unicode"

	"golang.org/x/text/unicode/rangetable"
)

// Predefined sets.
var (
	Whitespace    = CharSetOf(unicode.White_Space)
	Newlines      = NewCharSet("\n\v\f\r\u0085\u2028\u2029")
	DecimalDigits = CharSetOf(unicode.Nd)
	Letters       = CharSetOf(unicode.L, unicode.M)
	Alphanumerics = Letters.Union(CharSetOf(unicode.N))
	Punctuation   = CharSetOf(unicode.P)
)

// CharSet is an immutable set of scalars.
type CharSet struct {
	table *unicode.RangeTable
}

// NewCharSet returns the set of scalars in chars.
func NewCharSet(chars string) *CharSet {
	return &CharSet{table: rangetable.New([]rune(chars)...)}
}

// CharSetOf returns the union of the given Unicode tables.
func CharSetOf(tables ...*unicode.RangeTable) *CharSet {
	return &CharSet{table: rangetable.Merge(tables...)}
}

func (cs *CharSet) Union(others ...*CharSet) *CharSet {
	tables := make([]*unicode.RangeTable, 0, len(others)+1)
	tables = append(tables, cs.table)
	for _, o := range others {
		tables = append(tables, o.table)
	}

	return CharSetOf(tables...)
}

func (cs *CharSet) Contains(r rune) bool {
	return unicode.Is(cs.table, r)
}

// Table exposes the set as a range table for use with the unicode package.
func (cs *CharSet) Table() *unicode.RangeTable {
	return cs.table
}
