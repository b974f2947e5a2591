// Package repl provides the interactive VL shell: type a snippet, see the
// generated code for the current target.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	vl "go.vl.dev/pkg"
)

const prompt = "vl> "

// VL keywords and type names for tab completion.
var completionWords = []string{
	"meta", "deps", "export", "fn", "ret", "if", "else", "for", "while",
	"api", "async", "filter", "map", "parse", "ui", "state", "props", "on",
	"render", "data", "groupBy", "agg", "sort", "file", "ffi", "class",
	"self", "py", "in", "op",
	"int", "float", "str", "bool", "arr", "obj", "set", "any", "void",
	"promise", "func",
	"true", "false",
}

// Start runs the read-compile-print loop until EOF or exit.
func Start(out io.Writer, cfg vl.Config) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(input string) []string {
		return completions(input)
	})

	historyFile := filepath.Join(os.TempDir(), ".vl_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintln(out, "VL interactive shell")
	fmt.Fprintln(out, "Type 'exit' or Ctrl+D to quit; :help for commands")
	fmt.Fprintln(out, "")

	compiler := vl.NewCompiler(cfg)

	for {
		input, err := line.Prompt(prompt)
		if err != nil {
			// io.EOF on Ctrl+D, liner.ErrPromptAborted on Ctrl+C.
			fmt.Fprintln(out, "")
			return
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			return
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, ":") {
			if done := command(out, input, &cfg); done {
				return
			}
			compiler = vl.NewCompiler(cfg)
			continue
		}

		result, err := compiler.CompileWithWarnings(input)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		for _, warning := range result.Warnings {
			fmt.Fprintln(out, warning)
		}
		fmt.Fprint(out, result.Code)
	}
}

// command handles :-prefixed REPL commands; returns true to exit.
func command(out io.Writer, input string, cfg *vl.Config) bool {
	fields := strings.Fields(input)

	switch fields[0] {
	case ":help":
		fmt.Fprintln(out, ":target <lang>  switch the generation target")
		fmt.Fprintln(out, ":tokens <src>   show the token stream")
		fmt.Fprintln(out, ":ast <src>      show the parsed tree")
		fmt.Fprintln(out, ":quit           exit")

	case ":quit", ":exit":
		return true

	case ":target":
		if len(fields) < 2 {
			fmt.Fprintf(out, "target is %s\n", cfg.Target)
			return false
		}
		cfg.Target = fields[1]
		fmt.Fprintf(out, "target set to %s\n", cfg.Target)

	case ":tokens":
		src := strings.TrimSpace(strings.TrimPrefix(input, ":tokens"))
		tokens, err := vl.Tokenize(src)
		if err != nil {
			fmt.Fprintln(out, err)
			return false
		}
		for _, tok := range tokens {
			fmt.Fprintln(out, tok)
		}

	case ":ast":
		src := strings.TrimSpace(strings.TrimPrefix(input, ":ast"))
		program, err := vl.Parse(src)
		if err != nil {
			fmt.Fprintln(out, err)
			return false
		}
		fmt.Fprint(out, vl.Dump(program))

	default:
		fmt.Fprintf(out, "unknown command %s; try :help\n", fields[0])
	}

	return false
}

func completions(input string) []string {
	// Complete only the final word, keeping the prefix intact.
	cut := strings.LastIndexAny(input, " |:,()[]{}")
	prefix, word := "", input
	if cut >= 0 {
		prefix, word = input[:cut+1], input[cut+1:]
	}
	if word == "" {
		return nil
	}

	var matches []string
	for _, candidate := range completionWords {
		if strings.HasPrefix(candidate, word) {
			matches = append(matches, prefix+candidate)
		}
	}
	return matches
}
