package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	vl "go.vl.dev/pkg"
	"go.vl.dev/pkg/repl"
)

func main() {
	var (
		target     = flag.String("target", "", "generation target (python, javascript)")
		output     = flag.String("o", "", "output path (default: input with target extension)")
		configPath = flag.String("config", "", "path to a YAML config file")
		emit       = flag.String("emit", "code", "what to emit: code, tokens, ast, llvm")
		warn       = flag.Bool("warn", false, "report type errors as warnings instead of failing")
		watch      = flag.Bool("watch", false, "recompile when the input file changes")
		startRepl  = flag.Bool("repl", false, "start an interactive shell")
	)
	flag.Parse()

	cfg := vl.DefaultConfig()
	if *configPath != "" {
		loaded, err := vl.LoadConfig(*configPath)
		if err != nil {
			fatal(err)
		}
		cfg = loaded
	}
	if *target != "" {
		cfg.Target = *target
	}
	if *warn {
		cfg.Strict = false
	}
	setupLogging(cfg.LogLevel)

	if *startRepl {
		repl.Start(os.Stdout, cfg)
		return
	}

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: vl [flags] <file.vl>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	input := flag.Arg(0)

	if *emit != "code" {
		if err := emitDebug(*emit, input); err != nil {
			fatal(err)
		}
		return
	}

	compiler := vl.NewCompiler(cfg)
	if err := compileOnce(compiler, input, *output, *warn); err != nil {
		fatal(err)
	}

	if *watch {
		if err := watchLoop(compiler, input, *output, *warn); err != nil {
			fatal(err)
		}
	}
}

func compileOnce(compiler *vl.Compiler, input, output string, warn bool) error {
	outPath, result, err := compiler.CompileFile(input, output)
	if err != nil {
		return err
	}
	if warn {
		for _, warning := range result.Warnings {
			fmt.Fprintln(os.Stderr, warning)
		}
	}
	fmt.Println(outPath)
	return nil
}

// emitDebug prints a front-end stage instead of generated code.
func emitDebug(mode, input string) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}
	source := string(data)

	switch mode {
	case "tokens":
		tokens, err := vl.Tokenize(source)
		if err != nil {
			return err
		}
		for _, tok := range tokens {
			fmt.Println(tok)
		}
	case "ast":
		program, err := vl.Parse(source)
		if err != nil {
			return err
		}
		fmt.Print(vl.Dump(program))
	case "llvm":
		program, err := vl.Parse(source)
		if err != nil {
			return err
		}
		out, err := vl.GenerateIR(program)
		if err != nil {
			return err
		}
		fmt.Print(out)
	default:
		return fmt.Errorf("unknown emit mode %q", mode)
	}
	return nil
}

// watchLoop recompiles input on every write event. Editors often fire
// several events per save; changes within the debounce window collapse
// into one compile.
func watchLoop(compiler *vl.Compiler, input, output string, warn bool) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory rather than the file: editors that save via
	// rename would otherwise drop the watch.
	if err := watcher.Add(filepath.Dir(input)); err != nil {
		return err
	}
	slog.Info("watching", "path", input)

	const debounce = 100 * time.Millisecond
	var lastCompile time.Time

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(input) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if time.Since(lastCompile) < debounce {
				continue
			}
			lastCompile = time.Now()

			if err := compileOnce(compiler, input, output, warn); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watch error", "error", err)
		}
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
