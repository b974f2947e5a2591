package vl

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// ValueLookup maps VL names to LLVM values within the current emission
// scope.
type ValueLookup struct {
	vals map[string]value.Value
}

func NewValueLookup() *ValueLookup {
	return &ValueLookup{vals: make(map[string]value.Value)}
}

func (l *ValueLookup) Inherit(other *ValueLookup) {
	for k, v := range other.vals {
		l.Set(k, v)
	}
}

func (l *ValueLookup) Get(id string) (value.Value, error) {
	if val, ok := l.vals[id]; ok {
		return val, nil
	}
	return nil, fmt.Errorf("undefined identifier: %s", id)
}

func (l *ValueLookup) Set(id string, val value.Value) {
	l.vals[id] = val
}

// IRBuilder lowers the scalar subset of VL to LLVM IR: top-level functions
// with int parameters, integer arithmetic, variables, calls, and returns.
// This backend is experimental; constructs outside the subset return an
// error instead of producing partial IR.
type IRBuilder struct {
	mod    *ir.Module
	block  *ir.Block
	values *ValueLookup
}

func NewIRBuilder() *IRBuilder {
	builder := &IRBuilder{
		mod:    ir.NewModule(),
		values: NewValueLookup(),
	}
	defineBuiltins(builder)
	return builder
}

// GenerateIR lowers program and renders the module as LLVM assembly.
func GenerateIR(program *Program) (string, error) {
	builder := NewIRBuilder()
	for _, stmt := range program.Statements {
		fn, ok := stmt.(*FunctionDef)
		if !ok {
			return "", fmt.Errorf("llvm backend: only top-level functions are supported, got %T", stmt)
		}
		if err := builder.function(fn); err != nil {
			return "", err
		}
	}
	return builder.mod.String(), nil
}

func (b *IRBuilder) function(fn *FunctionDef) error {
	params := make([]*ir.Param, len(fn.InputTypes))
	for idx, t := range fn.InputTypes {
		if t.Name != "int" {
			return fmt.Errorf("llvm backend: function %s: unsupported parameter type %s", fn.Name, t.Name)
		}
		params[idx] = ir.NewParam(fmt.Sprintf("i%d", idx), types.I32)
	}

	var returnType types.Type = types.Void
	switch fn.OutputType.Name {
	case "int":
		returnType = types.I32
	case "void":
	default:
		return fmt.Errorf("llvm backend: function %s: unsupported return type %s", fn.Name, fn.OutputType.Name)
	}

	f := b.mod.NewFunc(fn.Name, returnType, params...)
	b.values.Set(fn.Name, f)

	prevBlock := b.block
	b.block = f.NewBlock("")

	prevVals := b.values
	b.values = NewValueLookup()
	b.values.Inherit(prevVals)
	for idx, param := range params {
		b.values.Set(fmt.Sprintf("i%d", idx), param)
	}

	defer func() {
		b.block = prevBlock
		b.values = prevVals
	}()

	terminated := false
	for _, stmt := range fn.Body {
		done, err := b.statement(stmt)
		if err != nil {
			return fmt.Errorf("llvm backend: function %s: %w", fn.Name, err)
		}
		if done {
			terminated = true
			break
		}
	}

	if !terminated {
		if returnType == types.Void {
			b.block.NewRet(nil)
		} else {
			b.block.NewRet(constant.NewInt(types.I32, 0))
		}
	}

	return nil
}

// statement lowers one body statement; the bool result reports whether it
// terminated the block.
func (b *IRBuilder) statement(stmt Statement) (bool, error) {
	switch s := stmt.(type) {
	case *ReturnStmt:
		v, ins, err := b.load(s.Value)
		if err != nil {
			return false, err
		}
		b.append(ins)
		b.block.NewRet(v)
		return true, nil
	case *VariableDef:
		v, ins, err := b.load(s.Value)
		if err != nil {
			return false, err
		}
		b.append(ins)
		b.values.Set(s.Name, v)
		return false, nil
	case *DirectCall:
		_, ins, err := b.load(s.Function)
		if err != nil {
			return false, err
		}
		b.append(ins)
		return false, nil
	default:
		return false, fmt.Errorf("unsupported statement %T", stmt)
	}
}

func (b *IRBuilder) append(ins []ir.Instruction) {
	b.block.Insts = append(b.block.Insts, ins...)
}

// load recursively lowers an expression, returning the resulting value and
// the instructions that compute it.
func (b *IRBuilder) load(expr Expression) (value.Value, []ir.Instruction, error) {
	switch e := expr.(type) {
	case *NumberLiteral:
		if e.IsFloat {
			return nil, nil, fmt.Errorf("unsupported float literal %s", e.Raw)
		}
		return constant.NewInt(types.I32, int64(e.Value)), nil, nil
	case *Identifier:
		v, err := b.values.Get(e.Name)
		if err != nil {
			return nil, nil, err
		}
		return v, nil, nil
	case *Operation:
		return b.operation(e)
	case *FunctionCall:
		return b.call(e)
	default:
		return nil, nil, fmt.Errorf("unsupported expression %T", expr)
	}
}

func (b *IRBuilder) operation(op *Operation) (value.Value, []ir.Instruction, error) {
	if len(op.Operands) == 1 {
		if op.Operator != "-" {
			return nil, nil, fmt.Errorf("unsupported unary operator %s", op.Operator)
		}
		v, ins, err := b.load(op.Operands[0])
		if err != nil {
			return nil, nil, err
		}
		neg := ir.NewMul(v, constant.NewInt(types.I32, -1))
		return neg, append(ins, neg), nil
	}
	if len(op.Operands) != 2 {
		return nil, nil, fmt.Errorf("unsupported operand count %d", len(op.Operands))
	}

	v1, i1, err := b.load(op.Operands[0])
	if err != nil {
		return nil, nil, err
	}
	v2, i2, err := b.load(op.Operands[1])
	if err != nil {
		return nil, nil, err
	}
	ins := append(i1, i2...)

	switch op.Operator {
	case "+":
		add := ir.NewAdd(v1, v2)
		return add, append(ins, add), nil
	case "-":
		sub := ir.NewSub(v1, v2)
		return sub, append(ins, sub), nil
	case "*":
		mul := ir.NewMul(v1, v2)
		return mul, append(ins, mul), nil
	case "/":
		div := ir.NewSDiv(v1, v2)
		return div, append(ins, div), nil
	case "%":
		rem := ir.NewSRem(v1, v2)
		return rem, append(ins, rem), nil
	default:
		return nil, nil, fmt.Errorf("unsupported binary operator %s", op.Operator)
	}
}

func (b *IRBuilder) call(call *FunctionCall) (value.Value, []ir.Instruction, error) {
	ident, ok := call.Callee.(*Identifier)
	if !ok {
		return nil, nil, fmt.Errorf("unsupported callee %T", call.Callee)
	}

	callee, err := b.values.Get(ident.Name)
	if err != nil {
		return nil, nil, err
	}

	var ins []ir.Instruction
	var args []value.Value
	for _, arg := range call.Arguments {
		argVal, argIns, err := b.load(arg)
		if err != nil {
			return nil, nil, err
		}
		ins = append(ins, argIns...)
		args = append(args, argVal)
	}

	c := ir.NewCall(callee, args...)
	return c, append(ins, c), nil
}
