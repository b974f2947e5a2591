package vl

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries compiler settings. It is passed by value into NewCompiler;
// there is no process-wide mutable configuration, so concurrent
// compilations with different settings cannot interfere.
type Config struct {
	// Target is the code generation target used when a program's metadata
	// does not name one.
	Target string `yaml:"target"`

	// TypeCheck toggles the checking pass entirely.
	TypeCheck bool `yaml:"type_check"`

	// Strict escalates the first type error to a compile failure. When
	// false, type errors surface as warnings and compilation proceeds.
	Strict bool `yaml:"strict"`

	// Indent is the indentation unit for generated code.
	Indent string `yaml:"indent"`

	// OptimizeBooleanChains rewrites chains of &&/|| at least
	// BooleanChainMinLength long into all()/any() calls, on targets that
	// support it.
	OptimizeBooleanChains bool `yaml:"optimize_boolean_chains"`
	BooleanChainMinLength int  `yaml:"boolean_chain_min_length"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Target:                "python",
		TypeCheck:             true,
		Strict:                false,
		Indent:                "    ",
		OptimizeBooleanChains: true,
		BooleanChainMinLength: 3,
		LogLevel:              "info",
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// targetExtensions maps generation targets to output file extensions.
var targetExtensions = map[TargetLanguage]string{
	TargetPython:     ".py",
	TargetJavaScript: ".js",
	TargetTypeScript: ".ts",
	TargetC:          ".c",
	TargetRust:       ".rs",
}

// TargetExtension returns the output extension for target, defaulting to
// .txt for unknown targets.
func TargetExtension(target TargetLanguage) string {
	if ext, ok := targetExtensions[target]; ok {
		return ext
	}
	return ".txt"
}
