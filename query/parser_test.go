package query_test

import (
	"testing"
	"time"

	"github.com/hummerd/scanx/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func parse(src string) (*query.Node, error) {
	return query.NewParser(query.NewScanner(src)).Parse()
}

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		want       string
	}{
		{
			name:       "simple number",
			expression: "a > 90",
			want:       "(a > 90)",
		},
		{
			name:       "simple and",
			expression: `a > "90" and "don" = d`,
			want:       `(a > "90" and d = "don")`,
		},
		{
			name:       "simple and or",
			expression: `a > "90" and "don" = d or c = e`,
			want:       `((a > "90" and d = "don") or c = e)`,
		},
		{
			name:       "brackets",
			expression: `a > "90" and ("don" = d or c = e)`,
			want:       `(a > "90" and (d = "don" or c = e))`,
		},
		{
			name:       "nested and is flattened",
			expression: "a = 1 and (b = 2 and c = 3)",
			want:       "(a = 1 and b = 2 and c = 3)",
		},
		{
			name:       "nested or is flattened",
			expression: "(a = 1 or b = 2) or c = 3",
			want:       "(a = 1 or b = 2 or c = 3)",
		},
		{
			name:       "redundant brackets",
			expression: "((a = 1))",
			want:       "(a = 1)",
		},
		{
			name:       "keywords ignore case",
			expression: "A > 1 AND b < 2 Or c = 3",
			want:       "((A > 1 and b < 2) or c = 3)",
		},
		{
			name:       "same key is linked",
			expression: "n > 1 and m = 2 and n <= 5",
			want:       "(n > 1, n <= 5 and m = 2)",
		},
		{
			name:       "or branches are not linked",
			expression: "n > 1 or n < 0",
			want:       "(n > 1 or n < 0)",
		},
		{
			name:       "value on the left",
			expression: "90 < a and 5 >= b",
			want:       "(a > 90 and b <= 5)",
		},
		{
			name:       "operator aliases",
			expression: "a == 1 and b <> 2",
			want:       "(a = 1 and b != 2)",
		},
		{
			name:       "functions",
			expression: `id = ObjectId("5f1d7f1c9d1e8a3b4c5d6e7f") and d > ISODate("2022-01-01T04:05:11Z")`,
			want:       `(id = ObjectId("5f1d7f1c9d1e8a3b4c5d6e7f") and d > ISODate("2022-01-01T04:05:11Z"))`,
		},
		{
			name:       "array",
			expression: `num $in [1, $x, "a"]`,
			want:       `(num $in [1, $x, "a"])`,
		},
		{
			name:       "empty",
			expression: "  ",
			want:       "()",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := parse(tt.expression)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.String())
		})
	}
}

func TestParser_Operands(t *testing.T) {
	n, err := parse(`id = ObjectId("5f1d7f1c9d1e8a3b4c5d6e7f") and d > ISODate("2022-01-01T04:05:11Z") and ok = true and x = null and f < -1.5 and l $in [1, 2]`)
	require.NoError(t, err)
	require.Len(t, n.Children, 6)

	id, _ := primitive.ObjectIDFromHex("5f1d7f1c9d1e8a3b4c5d6e7f")

	want := []struct {
		typ   query.ValueType
		value interface{}
	}{
		{query.VTObjectID, id},
		{query.VTDate, time.Date(2022, 1, 1, 4, 5, 11, 0, time.UTC)},
		{query.VTBool, true},
		{query.VTNull, nil},
		{query.VTFloat, -1.5},
	}

	for i, w := range want {
		r := n.Children[i].Expr.R
		assert.Equal(t, w.typ, r.Type, n.Children[i].Expr.String())
		assert.Equal(t, w.value, r.Value, n.Children[i].Expr.String())
	}

	arr := n.Children[5].Expr.R
	require.Equal(t, query.VTArray, arr.Type)
	items := arr.Value.([]query.Operand)
	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[1].Value)
}

func TestLink(t *testing.T) {
	n, err := parse("n > 1 and m = 2 and n <= 5 and (n = 3 or n = 4)")
	require.NoError(t, err)
	require.Len(t, n.Children, 3)

	first := n.Children[0].Expr
	require.Len(t, first.Links, 1)
	assert.Equal(t, "<=", first.Links[0].Op)

	or := n.Children[2]
	require.Equal(t, query.OpOr, or.Op)
	for _, c := range or.Children {
		assert.Empty(t, c.Expr.Links)
	}
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		wantEnd    bool
		line       int
		col        int
	}{
		{name: "missing value", expression: "a >", wantEnd: true, line: 1, col: 4},
		{name: "missing operator", expression: "a 90", line: 1, col: 3},
		{name: "unclosed bracket", expression: "(a = 1", wantEnd: true, line: 1, col: 7},
		{name: "extra bracket", expression: "a = 1)", line: 1, col: 6},
		{name: "no key", expression: `"x" = 1`, line: 1, col: 1},
		{name: "unknown operator", expression: "a =< 1", line: 1, col: 3},
		{name: "bad object id", expression: `a = ObjectId("zz")`, line: 1, col: 14},
		{name: "bad date", expression: `d = ISODate("yesterday")`, line: 1, col: 13},
		{name: "missing and", expression: "a = 1 b = 2", line: 1, col: 7},
		{name: "leading and", expression: "and a = 1", line: 1, col: 1},
		{name: "trailing or", expression: "a = 1 or", wantEnd: true, line: 1, col: 9},
		{name: "operator cannot be mirrored", expression: "1 $in a", line: 1, col: 1},
		{name: "key in array", expression: "a $in [1, b]", line: 1, col: 11},
		{name: "unclosed array", expression: "a $in [1, 2", wantEnd: true, line: 1, col: 12},
		{name: "scanner error", expression: "a = 1 and\n  b ~ 2", line: 2, col: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(tt.expression)
			require.Error(t, err)

			if tt.wantEnd {
				require.ErrorIs(t, err, query.ErrUnexpectedEnd)
			}

			var se *query.SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.line, se.Line, err.Error())
			assert.Equal(t, tt.col, se.Column, err.Error())
		})
	}
}
