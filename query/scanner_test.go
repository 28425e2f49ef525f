package query_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/hummerd/scanx"
	"github.com/hummerd/scanx/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanner(t *testing.T) {
	src := `a > 75 AND (d OR c)   AND b < 4 AND
		"abc" = 90 AND g $regex /abc/ig and a = 'some'`

	exp := []string{
		"a", ">", "75", "AND", "(", "d", "OR", "c", ")",
		"AND", "b", "<", "4", "AND", "\"abc\"", "=", "90",
		"AND", "g", "$regex", "/abc/ig", "and", "a", "=", `'some'`,
	}

	s := query.NewScanner(src)

	var (
		i         int
		line, col int
	)

	for {
		err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)

		tok, l := s.Token()
		require.NotZero(t, tok)
		require.Less(t, i, len(exp), "extra token %q", l)
		require.Equal(t, exp[i], l)

		line, col = s.Position()
		i++
	}

	require.Equal(t, len(exp), i, "not all tokens read")
	assert.Equal(t, 2, line)
	assert.Equal(t, 43, col)

	line, col = s.Position()
	assert.Equal(t, 2, line)
	assert.Equal(t, 49, col)
	assert.Equal(t, len(src), s.Offset())
}

func TestScanner_Values(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantTok query.Token
		want    interface{}
	}{
		{name: "integer", src: "75", wantTok: query.TNumber, want: int64(75)},
		{name: "negative", src: "-12", wantTok: query.TNumber, want: int64(-12)},
		{name: "float", src: "-1.5", wantTok: query.TNumber, want: -1.5},
		{name: "double quoted", src: `"a \"b\"\n"`, wantTok: query.TString, want: "a \"b\"\n"},
		{name: "single quoted", src: `'it\'s'`, wantTok: query.TString, want: "it's"},
		{name: "unicode", src: `"été"`, wantTok: query.TString, want: "été"},
		{name: "regex", src: `/a\/b/im`, wantTok: query.TRegex, want: query.Regex{Pattern: `a\/b`, Options: "im"}},
		{name: "key", src: "a.b_c-d", wantTok: query.TKey},
		{name: "param", src: "$name", wantTok: query.TKey},
		{name: "operator", src: ">=", wantTok: query.TOp},
		{name: "bracket", src: "[", wantTok: query.TBracket},
		{name: "comma", src: ",", wantTok: query.TComma},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := query.NewScanner(tt.src)
			require.NoError(t, s.Next())

			tok, lit := s.Token()
			assert.Equal(t, tt.wantTok, tok)
			assert.Equal(t, tt.src, lit)
			assert.Equal(t, tt.want, s.Value())

			assert.ErrorIs(t, s.Next(), io.EOF)
		})
	}
}

func TestScanner_Floats(t *testing.T) {
	const n = 5000
	s := query.NewScanner(strings.Repeat("1.25 12 ", n))

	for i := 0; i < 2*n; i++ {
		require.NoError(t, s.Next())

		tok, _ := s.Token()
		require.Equal(t, query.TNumber, tok)
		if i%2 == 0 {
			require.Equal(t, 1.25, s.Value())
		} else {
			require.Equal(t, int64(12), s.Value())
		}
	}

	require.ErrorIs(t, s.Next(), io.EOF)
}

func TestScanner_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr error
		line    int
		col     int
	}{
		{name: "unexpected character", src: "a ~ 1", line: 1, col: 3},
		{name: "unterminated string", src: "a = \n  'abc", line: 2, col: 3},
		{name: "unterminated regex", src: "a = /ab", line: 1, col: 5},
		{name: "string ends in escape", src: `a = "ab\`, line: 1, col: 5},
		{name: "regex ends in escape", src: `a = /ab\`, line: 1, col: 5},
		{name: "lonely minus", src: "a = -x", wantErr: scanx.ErrExpectedDigit, line: 1, col: 5},
		{name: "overflow", src: "a = 99999999999999999999", wantErr: scanx.ErrOverflow, line: 1, col: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := query.NewScanner(tt.src)

			var err error
			for err == nil {
				err = s.Next()
			}

			require.NotErrorIs(t, err, io.EOF)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}

			var se *query.SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.line, se.Line)
			assert.Equal(t, tt.col, se.Column)
			assert.Equal(t, se.Offset, se.Pos())
		})
	}
}
