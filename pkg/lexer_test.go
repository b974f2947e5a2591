package vl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go.vl.dev/internal/test"
)

// stripPositions drops line/column so cases only state type and literal.
func stripPositions(toks []Token) []Token {
	out := make([]Token, len(toks))
	for i, tok := range toks {
		out[i] = Token{Type: tok.Type, Literal: tok.Literal}
	}
	return out
}

func TestLexer(t *testing.T) {
	cases := []struct {
		data   string
		fail   bool
		expect []Token
	}{
		{
			"fn:add|i:int,int|o:int|ret:i0+i1",
			false,
			[]Token{
				{Type: TokenFn, Literal: "fn"},
				{Type: TokenColon, Literal: ":"},
				{Type: TokenIdentifier, Literal: "add"},
				{Type: TokenPipe, Literal: "|"},
				{Type: TokenInput, Literal: "i"},
				{Type: TokenColon, Literal: ":"},
				{Type: TokenTypeInt, Literal: "int"},
				{Type: TokenComma, Literal: ","},
				{Type: TokenTypeInt, Literal: "int"},
				{Type: TokenPipe, Literal: "|"},
				{Type: TokenOutput, Literal: "o"},
				{Type: TokenColon, Literal: ":"},
				{Type: TokenTypeInt, Literal: "int"},
				{Type: TokenPipe, Literal: "|"},
				{Type: TokenRet, Literal: "ret"},
				{Type: TokenColon, Literal: ":"},
				{Type: TokenIdentifier, Literal: "i0"},
				{Type: TokenPlus, Literal: "+"},
				{Type: TokenIdentifier, Literal: "i1"},
				{Type: TokenEOF, Literal: ""},
			},
		},
		{
			"0..10",
			false,
			[]Token{
				{Type: TokenNumber, Literal: "0"},
				{Type: TokenDotDot, Literal: ".."},
				{Type: TokenNumber, Literal: "10"},
				{Type: TokenEOF, Literal: ""},
			},
		},
		{
			"3.14 .5",
			false,
			[]Token{
				{Type: TokenNumber, Literal: "3.14"},
				{Type: TokenNumber, Literal: ".5"},
				{Type: TokenEOF, Literal: ""},
			},
		},
		{
			"x ** 2 == 4 && y != 0",
			false,
			[]Token{
				{Type: TokenIdentifier, Literal: "x"},
				{Type: TokenPower, Literal: "**"},
				{Type: TokenNumber, Literal: "2"},
				{Type: TokenEqual, Literal: "=="},
				{Type: TokenNumber, Literal: "4"},
				{Type: TokenAnd, Literal: "&&"},
				{Type: TokenIdentifier, Literal: "y"},
				{Type: TokenNotEqual, Literal: "!="},
				{Type: TokenNumber, Literal: "0"},
				{Type: TokenEOF, Literal: ""},
			},
		},
		{
			"# comment\nx=1",
			false,
			[]Token{
				{Type: TokenNewline, Literal: "\\n"},
				{Type: TokenIdentifier, Literal: "x"},
				{Type: TokenEquals, Literal: "="},
				{Type: TokenNumber, Literal: "1"},
				{Type: TokenEOF, Literal: ""},
			},
		},
		{
			"'hello ${name}!'",
			false,
			[]Token{
				{Type: TokenString, Literal: "hello ${name}!"},
				{Type: TokenEOF, Literal: ""},
			},
		},
		{
			"'escapes: \\n\\t\\''",
			false,
			[]Token{
				{Type: TokenString, Literal: "escapes: \n\t'"},
				{Type: TokenEOF, Literal: ""},
			},
		},
		{
			"''",
			false,
			[]Token{
				{Type: TokenString, Literal: ""},
				{Type: TokenEOF, Literal: ""},
			},
		},
		{
			"data:users|groupBy:city",
			false,
			[]Token{
				{Type: TokenData, Literal: "data"},
				{Type: TokenColon, Literal: ":"},
				{Type: TokenIdentifier, Literal: "users"},
				{Type: TokenPipe, Literal: "|"},
				{Type: TokenGroupBy, Literal: "groupBy"},
				{Type: TokenColon, Literal: ":"},
				{Type: TokenIdentifier, Literal: "city"},
				{Type: TokenEOF, Literal: ""},
			},
		},
		{
			"x='unterminated",
			true,
			nil,
		},
		{
			"a ~ b",
			true,
			nil,
		},
	}

	for _, c := range cases {
		toks, err := Tokenize(c.data)
		if c.fail {
			assert.Error(t, err)
			assert.IsType(t, &LexerError{}, err)
			assert.Nil(t, toks)
			continue
		}

		assert.NoError(t, err)
		assert.Equal(t, c.expect, stripPositions(toks))
	}
}

func TestLexerPositions(t *testing.T) {
	toks, err := Tokenize("x=1\ny=2")
	assert.NoError(t, err)

	// x = 1 \n y = 2 EOF
	assert.Len(t, toks, 8)
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, 1, toks[0].Column)
	assert.Equal(t, 2, toks[4].Line)
	assert.Equal(t, 1, toks[4].Column)
}

func TestLexerSingleEOF(t *testing.T) {
	for _, src := range []string{"", "x=1", "x=1\n\n"} {
		toks, err := Tokenize(src)
		assert.NoError(t, err)

		count := 0
		for _, tok := range toks {
			if tok.Type == TokenEOF {
				count++
			}
		}
		assert.Equal(t, 1, count)
		assert.Equal(t, TokenEOF, toks[len(toks)-1].Type)
	}
}

// Use a package-level variable to avoid compiler optimisation
var benchResult []Token

func benchmarkLexer(size int, b *testing.B) {
	for n := 0; n < b.N; n++ {
		b.StopTimer()
		data := test.GetRandomTokens(size)
		l := NewLexer(data)

		var err error
		b.StartTimer()

		benchResult, err = l.Tokenize()
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLexer100(b *testing.B) {
	benchmarkLexer(100, b)
}

func BenchmarkLexer1000(b *testing.B) {
	benchmarkLexer(1000, b)
}

func BenchmarkLexer10000(b *testing.B) {
	benchmarkLexer(10000, b)
}

func BenchmarkLexer100000(b *testing.B) {
	benchmarkLexer(100000, b)
}
