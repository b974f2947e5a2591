// Package vl implements the compiler front end for VL, a compact
// pipe-delimited scripting notation. Source text is lexed, parsed into an
// AST, type checked, and handed to per-target code generators.
package vl

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Result is the outcome of a compilation: the generated source, the AST it
// came from, and any type errors surfaced as warnings in collect mode.
type Result struct {
	Code     string
	Program  *Program
	Warnings []*TypeError
}

// Compiler drives the front-end pipeline. Safe for concurrent use: each
// Compile call owns its own lexer, parser, and checker state.
type Compiler struct {
	cfg Config
	log *slog.Logger
}

// NewCompiler creates a compiler with the given configuration. Settings are
// copied; later mutation of cfg by the caller has no effect.
func NewCompiler(cfg Config) *Compiler {
	return &Compiler{
		cfg: cfg,
		log: slog.Default().With("component", "compiler"),
	}
}

// Compile runs the pipeline in the configured policy: lexer and parser
// errors are always fatal, and in strict mode the first type error is too.
func (c *Compiler) Compile(source string) (*Result, error) {
	return c.compile(source, c.cfg.Strict)
}

// CompileWithWarnings runs the pipeline collecting all type errors as
// warnings; compilation proceeds regardless.
func (c *Compiler) CompileWithWarnings(source string) (*Result, error) {
	return c.compile(source, false)
}

func (c *Compiler) compile(source string, strict bool) (*Result, error) {
	start := time.Now()

	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	c.log.Debug("lexed", "tokens", len(tokens))

	program, err := NewParser(tokens, source).Parse()
	if err != nil {
		return nil, err
	}
	c.log.Debug("parsed", "statements", len(program.Statements))

	var warnings []*TypeError
	if c.cfg.TypeCheck {
		warnings = NewChecker(source).Check(program)
		c.log.Debug("checked", "errors", len(warnings))
		if strict && len(warnings) > 0 {
			return nil, warnings[0]
		}
	}

	target := c.target(program)
	gen := generatorFor(target, c.cfg)
	if gen == nil {
		return nil, fmt.Errorf("no generator registered for target %q", target)
	}
	code := gen.Generate(program)

	c.log.Info("compiled",
		"target", target,
		"statements", len(program.Statements),
		"warnings", len(warnings),
		"elapsed", time.Since(start),
	)

	return &Result{Code: code, Program: program, Warnings: warnings}, nil
}

// target resolves the generation target: program metadata wins, the
// configured default otherwise.
func (c *Compiler) target(program *Program) TargetLanguage {
	if program.Metadata != nil && program.Metadata.TargetLanguage != "" {
		return TargetLanguage(strings.ToLower(program.Metadata.TargetLanguage))
	}
	return TargetLanguage(strings.ToLower(c.cfg.Target))
}

// CompileFile compiles path and writes the output next to it with the
// target-derived extension, or to outPath when given. Returns the written
// path.
func (c *Compiler) CompileFile(path, outPath string) (string, *Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read source: %w", err)
	}

	result, err := c.Compile(string(data))
	if err != nil {
		return "", nil, err
	}

	if outPath == "" {
		ext := TargetExtension(c.target(result.Program))
		outPath = strings.TrimSuffix(path, filepath.Ext(path)) + ext
	}
	if err := os.WriteFile(outPath, []byte(result.Code), 0o644); err != nil {
		return "", nil, fmt.Errorf("failed to write output: %w", err)
	}

	c.log.Info("wrote output", "path", outPath)
	return outPath, result, nil
}
