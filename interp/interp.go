// Package interp is the tree-walking AST evaluator: the most direct of the
// three engines, and the one that detects dependency cycles itself rather
// than relying on a prior lowering pass.
package interp

import (
	"math"

	"github.com/pkg/errors"

	"github.com/skx/cellang/ast"
	"github.com/skx/cellang/builtins"
	"github.com/skx/cellang/cellerr"
)

// NameValue is one entry of an evaluation's result: a declared name paired
// with its evaluated value. Evaluate returns them in the order of the names
// it was asked for.
type NameValue struct {
	Name  string
	Value float64
}

// state of a single declared name during evaluation.
type state int

const (
	pending state = iota
	done
)

type cell struct {
	state state
	expr  ast.Expr
	value float64
}

// interpreter holds the mutable evaluation state for one Evaluate call.
type interpreter struct {
	cells    map[string]*cell
	params   map[string]float64
	declared map[string]bool // declared parameter names, bound or not
	calling  map[string]bool // names currently on the call stack
}

// Evaluate walks prog, evaluating every name in names (parameters and
// cells, in the order the caller wants reported) against the supplied
// parameter bindings. It fails fast: the first error encountered, anywhere
// in the dependency closure of names, aborts the whole evaluation.
func Evaluate(prog *ast.Program, names []string, params map[string]float64) ([]NameValue, error) {
	it := &interpreter{
		cells:    make(map[string]*cell, len(prog.Decls)),
		params:   params,
		declared: make(map[string]bool),
		calling:  make(map[string]bool),
	}

	for _, d := range prog.Decls {
		switch decl := d.(type) {
		case *ast.CellDecl:
			it.cells[decl.Name] = &cell{state: pending, expr: decl.Expr}
		case *ast.ParamDecl:
			it.declared[decl.Name] = true
		}
	}

	out := make([]NameValue, 0, len(names))
	for _, name := range names {
		v, err := it.resolve(name)
		if err != nil {
			return nil, err
		}
		out = append(out, NameValue{Name: name, Value: v})
	}
	return out, nil
}

// resolve returns the value of name, which may be a parameter or a cell.
func (it *interpreter) resolve(name string) (float64, error) {
	if v, ok := it.params[name]; ok {
		return v, nil
	}

	if it.declared[name] {
		return 0, errors.WithStack(&cellerr.MissingParam{Name: name})
	}

	c, ok := it.cells[name]
	if !ok {
		return 0, errors.WithStack(&cellerr.ResolveError{Name: name})
	}
	if c.state == done {
		return c.value, nil
	}

	if it.calling[name] {
		return 0, errors.WithStack(&cellerr.CycleError{Names: []string{name}})
	}

	it.calling[name] = true
	v, err := it.eval(c.expr)
	delete(it.calling, name)
	if err != nil {
		return 0, err
	}

	c.value = v
	c.state = done
	return v, nil
}

func (it *interpreter) eval(e ast.Expr) (float64, error) {
	switch n := e.(type) {
	case *ast.NumberLit:
		return n.Value, nil

	case *ast.Ident:
		return it.resolve(n.Name)

	case *ast.Call:
		b, err := builtins.Check(n.Name, len(n.Args))
		if err != nil {
			return 0, err
		}
		args := make([]float64, len(n.Args))
		for i, a := range n.Args {
			v, err := it.eval(a)
			if err != nil {
				return 0, err
			}
			args[i] = v
		}
		return b.Fn(args), nil

	case *ast.BinaryExpr:
		l, err := it.eval(n.Left)
		if err != nil {
			return 0, err
		}
		r, err := it.eval(n.Right)
		if err != nil {
			return 0, err
		}
		return applyBinary(n.Op, l, r), nil

	case *ast.CondExpr:
		l, err := it.eval(n.Left)
		if err != nil {
			return 0, err
		}
		r, err := it.eval(n.Right)
		if err != nil {
			return 0, err
		}
		if applyCompare(n.Op, l, r) {
			return it.eval(n.True)
		}
		return it.eval(n.False)

	default:
		return 0, errors.Errorf("interp: unhandled expression node %T", e)
	}
}

func applyBinary(op ast.BinaryOp, l, r float64) float64 {
	switch op {
	case ast.OpAdd:
		return l + r
	case ast.OpSub:
		return l - r
	case ast.OpMul:
		return l * r
	case ast.OpDiv:
		return l / r
	case ast.OpMod:
		// IEEE remainder with the dividend's sign.
		return math.Mod(l, r)
	default:
		panic("interp: unknown binary operator")
	}
}

func applyCompare(op ast.CompareOp, l, r float64) bool {
	switch op {
	case ast.CmpEq:
		return l == r
	case ast.CmpGt:
		return l > r
	case ast.CmpGe:
		return l >= r
	case ast.CmpLt:
		return l < r
	case ast.CmpLe:
		return l <= r
	default:
		panic("interp: unknown comparison operator")
	}
}
