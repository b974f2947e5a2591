package test

import (
	"math/rand"
	"strings"
)

const validTokens = "fn;ret;if;else;for;while;data;filter;map;int;float;str;bool;arr;counter;total;i0;i1;(;);[;];{;};'hello';'a longer string with spaces in it';'';123;3.14;0.5;42;+;-;*;/;%;==;!=;<=;>=;&&;||;=;+=;?;$;@;,;..;#comment\n;\n"

// GetRandomTokens builds a space-separated soup of valid VL tokens for
// lexer benchmarks.
func GetRandomTokens(size int) string {
	return GetRandomTokensWithSep(size, " ")
}

func GetRandomTokensWithSep(size int, sep string) string {
	valid := strings.Split(validTokens, ";")

	var toks []string
	for len(toks) < size {
		toks = append(toks, valid[rand.Intn(len(valid))])
	}

	return strings.Join(toks, sep)
}
