package vl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func check(t *testing.T, src string) []*TypeError {
	t.Helper()
	program, err := Parse(src)
	require.NoError(t, err)
	return NewChecker(src).Check(program)
}

func TestCheckerVariableAnnotations(t *testing.T) {
	cases := []struct {
		src    string
		errors int
	}{
		{"v:x:int=5", 0},
		{"v:x:str='hello'", 0},
		{"v:x:int='hello'", 1},
		{"v:x:str=42", 1},
		{"v:x:float=42", 0},   // int widens into float
		{"v:x:int=4.2", 1},    // float does not narrow into int
		{"v:x:arr=[1,2,3]", 0},
		{"v:x:obj={a:1}", 0},
		{"v:x:bool=true", 0},
		{"v:x=5", 0}, // no annotation, nothing to check
	}

	for _, c := range cases {
		errors := check(t, c.src)
		assert.Len(t, errors, c.errors, c.src)
	}
}

func TestCheckerMismatchMessage(t *testing.T) {
	errors := check(t, "v:x:int='hello'")
	require.Len(t, errors, 1)

	assert.Contains(t, errors[0].Message, "int")
	assert.Contains(t, errors[0].Message, "str")
	assert.Contains(t, errors[0].Message, "x")
	assert.NotEmpty(t, errors[0].Hints)
	assert.NotNil(t, errors[0].Location)
}

func TestCheckerReturnType(t *testing.T) {
	cases := []struct {
		src    string
		errors int
	}{
		{"fn:add|i:int,int|o:int|ret:i0+i1", 0},
		{"fn:add|i:int,int|o:str|ret:i0+i1", 1},
		{"fn:half|i:int|o:float|ret:i0/2", 0}, // division always yields float
		{"fn:half|i:int|o:int|ret:i0/2", 1},
		{"fn:greet|i:str|o:str|ret:'hi '+i0", 0},
		{"fn:test|i:int|o:bool|ret:i0>0", 0},
		{"fn:anything|i:|o:int|ret:unknown", 0}, // unknown identifiers are any
	}

	for _, c := range cases {
		errors := check(t, c.src)
		assert.Len(t, errors, c.errors, c.src)
	}
}

func TestCheckerPositionalParameters(t *testing.T) {
	// i0 and i1 are bound to the declared input types in order.
	errors := check(t, "fn:concat|i:str,int|o:str|ret:i1+i1")
	require.Len(t, errors, 1)
	assert.Contains(t, errors[0].Message, "concat")
	assert.Contains(t, errors[0].Message, "int")
}

func TestCheckerForwardReference(t *testing.T) {
	// Signatures are registered before bodies are checked.
	src := "fn:caller|i:|o:int|ret:@callee(1)\nfn:callee|i:int|o:int|ret:i0"
	errors := check(t, src)
	assert.Empty(t, errors)
}

func TestCheckerCallMismatch(t *testing.T) {
	src := "fn:name|i:|o:str|ret:'x'\nfn:use|i:|o:int|ret:@name()"
	errors := check(t, src)
	require.Len(t, errors, 1)
	assert.Contains(t, errors[0].Message, "use")
}

func TestCheckerCompoundAssignment(t *testing.T) {
	cases := []struct {
		src    string
		errors int
	}{
		{"v:n:int=0\nn+=5", 0},
		{"v:s:str='a'\ns+='b'", 0}, // += on str is concatenation
		{"v:s:str='a'\ns-=1", 1},
		{"v:b:bool=true\nb*=2", 1},
		{"unknown+=1", 0}, // unknown symbols are skipped
	}

	for _, c := range cases {
		errors := check(t, c.src)
		assert.Len(t, errors, c.errors, c.src)
	}
}

func TestCheckerDeclaredTypeWins(t *testing.T) {
	// The declared type is recorded even when the value mismatches, so
	// later uses are checked against the annotation.
	errors := check(t, "v:n:int='oops'\nn+=1")
	assert.Len(t, errors, 1)
}

func TestCheckerScopeRestored(t *testing.T) {
	// A function body's bindings do not leak into module scope.
	src := "fn:f|i:str|o:str|ret:i0\nv:x:int=5\nx+=1"
	errors := check(t, src)
	assert.Empty(t, errors)
}

func TestCheckerIdempotent(t *testing.T) {
	program, err := Parse("v:x:int='hello'\nfn:f|i:int|o:str|ret:i0")
	require.NoError(t, err)

	c := NewChecker("")
	first := c.Check(program)
	second := c.Check(program)

	require.Len(t, first, 2)
	assert.Equal(t, first, second)
}

func TestCheckerNeverFailsHard(t *testing.T) {
	// Every error is collected; checking continues past the first.
	src := "v:a:int='x'\nv:b:str=1\nv:c:bool=2"
	errors := check(t, src)
	assert.Len(t, errors, 3)
}

func TestCheckerBuiltinReturns(t *testing.T) {
	cases := []struct {
		src    string
		errors int
	}{
		{"fn:f|i:arr|o:int|ret:@len(i0)", 0},
		{"fn:f|i:int|o:str|ret:@str(i0)", 0},
		{"fn:f|i:arr|o:str|ret:@len(i0)", 1},
	}

	for _, c := range cases {
		errors := check(t, c.src)
		assert.Len(t, errors, c.errors, c.src)
	}
}
