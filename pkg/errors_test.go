package vl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosticRendering(t *testing.T) {
	err := &ParseError{Diagnostic{
		Message:    "Expected PIPE, got COLON",
		Location:   &SourceLocation{Line: 1, Column: 7, Length: 1},
		SourceLine: "fn:add:int",
		Hints:      []string{"VL uses | to separate statements and clauses"},
	}}

	rendered := err.Error()
	assert.Contains(t, rendered, "ParseError at line 1, column 7:")
	assert.Contains(t, rendered, "Expected PIPE, got COLON")
	assert.Contains(t, rendered, "1 | fn:add:int")
	assert.Contains(t, rendered, "Hint: VL uses |")

	// The caret lines up under the offending column.
	var caretLine string
	for _, line := range strings.Split(rendered, "\n") {
		if strings.Contains(line, "^") {
			caretLine = line
		}
	}
	require.NotEmpty(t, caretLine)
	// "  1 | " is 6 characters wide, so column 7 puts the caret at index 12.
	assert.Equal(t, 12, strings.Index(caretLine, "^"))
}

func TestDiagnosticWithoutLocation(t *testing.T) {
	err := &TypeError{Diagnostic{Message: "something went wrong"}}

	rendered := err.Error()
	assert.Contains(t, rendered, "TypeError:")
	assert.Contains(t, rendered, "something went wrong")
	assert.NotContains(t, rendered, "^")
}

func TestLexerErrorCarriesSourceLine(t *testing.T) {
	_, err := Tokenize("x=1\ny=~2")
	require.Error(t, err)

	lexErr, ok := err.(*LexerError)
	require.True(t, ok)
	assert.Equal(t, 2, lexErr.Location.Line)
	assert.Equal(t, "y=~2", lexErr.SourceLine)
}

func TestSourceLocationString(t *testing.T) {
	loc := SourceLocation{Line: 3, Column: 14}
	assert.Equal(t, "3:14", loc.String())
}

func TestSourceLine(t *testing.T) {
	src := "first\nsecond\nthird"
	assert.Equal(t, "first", sourceLine(src, 1))
	assert.Equal(t, "third", sourceLine(src, 3))
	assert.Equal(t, "", sourceLine(src, 4))
	assert.Equal(t, "", sourceLine("", 1))
}
