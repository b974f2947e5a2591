package vl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilerCollectMode(t *testing.T) {
	c := NewCompiler(DefaultConfig())

	result, err := c.Compile("v:x:int='hello'")
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0].Message, "Type mismatch")
	assert.NotEmpty(t, result.Code)
	assert.NotNil(t, result.Program)
}

func TestCompilerStrictMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Strict = true
	c := NewCompiler(cfg)

	result, err := c.Compile("v:x:int='hello'")
	require.Error(t, err)
	assert.IsType(t, &TypeError{}, err)
	assert.Nil(t, result)
}

func TestCompilerWithWarningsIgnoresStrict(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Strict = true
	c := NewCompiler(cfg)

	result, err := c.CompileWithWarnings("v:x:int='hello'")
	require.NoError(t, err)
	assert.Len(t, result.Warnings, 1)
}

func TestCompilerTypeCheckDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TypeCheck = false
	c := NewCompiler(cfg)

	result, err := c.Compile("v:x:int='hello'")
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
}

func TestCompilerParseErrorsAreFatal(t *testing.T) {
	c := NewCompiler(DefaultConfig())

	_, err := c.Compile("fn:broken|i:int")
	require.Error(t, err)
	assert.IsType(t, &ParseError{}, err)

	_, err = c.Compile("x='unterminated")
	require.Error(t, err)
	assert.IsType(t, &LexerError{}, err)
}

func TestCompilerMetadataTargetWins(t *testing.T) {
	// Config says python, the program says javascript.
	c := NewCompiler(DefaultConfig())

	result, err := c.Compile("meta:app,script,javascript\nfn:add|i:int,int|o:int|ret:i0+i1")
	require.NoError(t, err)
	assert.Contains(t, result.Code, "function add(i0, i1) {")
}

func TestCompilerUnknownTarget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Target = "cobol"
	c := NewCompiler(cfg)

	_, err := c.Compile("x=1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no generator registered")
}

func TestCompileFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "add.vl")
	require.NoError(t, os.WriteFile(input, []byte("fn:add|i:int,int|o:int|ret:i0+i1"), 0o644))

	c := NewCompiler(DefaultConfig())
	outPath, result, err := c.CompileFile(input, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "add.py"), outPath)
	assert.NotEmpty(t, result.Code)

	written, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, result.Code, string(written))
}

func TestCompileFileExplicitOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "prog.vl")
	output := filepath.Join(dir, "custom.py")
	require.NoError(t, os.WriteFile(input, []byte("x=1"), 0o644))

	c := NewCompiler(DefaultConfig())
	outPath, _, err := c.CompileFile(input, output)
	require.NoError(t, err)
	assert.Equal(t, output, outPath)
}

func TestCompileFileMissing(t *testing.T) {
	c := NewCompiler(DefaultConfig())
	_, _, err := c.CompileFile(filepath.Join(t.TempDir(), "absent.vl"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read source")
}
