package query

import (
	"fmt"
	"strings"
)

type ValueType uint

const (
	VTKey ValueType = iota + 1
	VTInteger
	VTFloat
	VTString
	VTRegex
	VTDate
	VTObjectID
	VTBool
	VTNull
	VTParam
	VTArray
)

const (
	OpAnd = "and"
	OpOr  = "or"
)

// Operand is one side of an expression.
type Operand struct {
	Type ValueType
	// Raw is the operand text as written in the query.
	Raw string
	// Value holds the decoded value: int64, float64, string, bool, Regex,
	// time.Time, primitive.ObjectID or []Operand. It is nil for keys, null
	// and parameters.
	Value  interface{}
	Offset int
}

// Expression compares a key with a value. After parsing L is always the key.
type Expression struct {
	Op     string
	L, R   Operand
	Offset int
	// Links holds later expressions of the same and-group that refer to the
	// same key. They are encoded into one document with this expression.
	Links []*Expression
}

func (e *Expression) Key() string {
	return e.L.Raw
}

func (e *Expression) String() string {
	s := fmt.Sprintf("%s %s %s", e.L.Raw, e.Op, e.R.Raw)
	for _, l := range e.Links {
		s += ", " + l.String()
	}

	return s
}

// Node is either a single expression or an and/or group of nodes.
type Node struct {
	Op       string
	Expr     *Expression
	Children []*Node
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}

	if n.Expr != nil {
		return n.Expr.String()
	}

	parts := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		parts = append(parts, c.String())
	}

	return "(" + strings.Join(parts, " "+n.Op+" ") + ")"
}

// add appends c to n's children, splicing in c's children when both nodes
// share the same operator.
func (n *Node) add(c *Node) {
	if c.Expr == nil && c.Op == n.Op {
		n.Children = append(n.Children, c.Children...)
		return
	}

	n.Children = append(n.Children, c)
}

// Link gathers expressions of one and-group that refer to the same key into
// the first of them and removes the rest from the tree. Every branch of an or
// starts a new group.
func Link(n *Node) {
	newLinkMap().linkNode(n)
}

func newLinkMap() linkMap {
	return make(map[string]*Expression)
}

type linkMap map[string]*Expression

func (lm linkMap) linkNode(n *Node) {
	if n.Expr != nil {
		return
	}

	kept := n.Children[:0]
	for _, c := range n.Children {
		switch {
		case c.Expr != nil && n.Op == OpAnd:
			if lm.linkExpression(c.Expr) {
				continue
			}
		case c.Expr == nil && n.Op == OpOr:
			newLinkMap().linkNode(c)
		case c.Expr == nil:
			lm.linkNode(c)
		}

		kept = append(kept, c)
	}

	n.Children = kept
}

func (lm linkMap) linkExpression(e *Expression) bool {
	k := e.Key()

	ee, ok := lm[k]
	if ok {
		ee.Links = append(ee.Links, e)
		return true
	}

	lm[k] = e
	return false
}
