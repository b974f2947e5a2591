package vl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDump(t *testing.T) {
	program, err := Parse("fn:add|i:int,int|o:int|ret:i0+i1")
	require.NoError(t, err)

	out := Dump(program)
	assert.Contains(t, out, "Program:")
	assert.Contains(t, out, "FunctionDef(name=add, inputs=[int, int], output=int):")
	assert.Contains(t, out, "Return:")
	assert.Contains(t, out, "Operation(+):")
	assert.Contains(t, out, "Identifier(i0)")
}

func TestDumpPipeline(t *testing.T) {
	program, err := Parse("data:[1,2]|filter:x>1|map:x*2")
	require.NoError(t, err)

	out := Dump(program)
	assert.Contains(t, out, "DataPipeline:")
	assert.Contains(t, out, "Filter:")
	assert.Contains(t, out, "Map:")
	assert.Contains(t, out, "Number(1)")
}

func TestNodePositions(t *testing.T) {
	program, err := Parse("x=1\ny=2")
	require.NoError(t, err)
	require.Len(t, program.Statements, 2)

	assert.Equal(t, 1, program.Statements[0].Pos().Line)
	assert.Equal(t, 2, program.Statements[1].Pos().Line)
	assert.Equal(t, 1, program.Statements[1].Pos().Column)
}
