package vl

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// builtinReturns maps builtin call names to their return types for the
// checker. Anything absent infers as any.
var builtinReturns = map[string]TypeInfo{
	"len":   builtinTypes["int"],
	"str":   builtinTypes["str"],
	"int":   builtinTypes["int"],
	"float": builtinTypes["float"],
	"bool":  builtinTypes["bool"],
	"list":  builtinTypes["arr"],
	"dict":  builtinTypes["obj"],
	"range": builtinTypes["arr"],
	"print": builtinTypes["void"],
	"input": builtinTypes["str"],
	"abs":   builtinTypes["float"],
	"min":   builtinTypes["any"],
	"max":   builtinTypes["any"],
	"sum":   builtinTypes["float"],
}

func defineBuiltins(b *IRBuilder) {
	defineBuiltinFunc(b, "print", builtinPrint)
}

type funcDefinition = func(mod *ir.Module) *ir.Func

func defineBuiltinFunc(b *IRBuilder, name string, definition funcDefinition) {
	f := definition(b.mod)
	f.SetName(name)
	b.values.Set(name, f)
}

// builtinPrint lowers print to a printf("%d\n", v) call.
func builtinPrint(mod *ir.Module) *ir.Func {
	f := mod.NewFunc("", types.Void, ir.NewParam("v", types.I32))
	b := f.NewBlock("")

	printf := mod.NewFunc("printf", types.I32, ir.NewParam("format", types.I8Ptr))
	printf.Sig.Variadic = true

	zero := constant.NewInt(types.I32, 0)

	format := constant.NewCharArrayFromString("%d\n")
	formatGlob := mod.NewGlobalDef("._printf_fmt", format)

	fmtAddr := constant.NewGetElementPtr(types.NewArray(3, types.I8), formatGlob, zero, zero)

	b.NewCall(printf, fmtAddr, f.Params[0])
	b.NewRet(nil)

	return f
}
