package ir

import (
	"github.com/pkg/errors"

	"github.com/skx/cellang/ast"
	"github.com/skx/cellang/builtins"
	"github.com/skx/cellang/cellerr"
	"github.com/skx/cellang/depgraph"
)

// Lower walks prog in dependency order, emitting a linear IR program with
// back-patched conditional branches.
func Lower(prog *ast.Program) (*Program, error) {
	order, err := depgraph.TopoOrder(prog)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]ast.Decl, len(prog.Decls))
	for _, d := range prog.Decls {
		byName[d.DeclName()] = d
	}

	l := &lowerer{prog: New()}

	for _, name := range order {
		switch decl := byName[name].(type) {
		case *ast.ParamDecl:
			l.emit(Instruction{Op: LoadParam, Name: name})
			l.prog.addSlot(name)
		case *ast.CellDecl:
			if err := l.lowerExpr(decl.Expr); err != nil {
				return nil, err
			}
			l.prog.addSlot(name)
		}
	}

	return l.prog, nil
}

// lowerer accumulates instructions directly into a Program, so that branch
// targets recorded during lowering are already absolute instruction
// indices - no later offset-fixup pass is needed.
type lowerer struct {
	prog *Program
}

func (l *lowerer) emit(instr Instruction) int {
	idx := len(l.prog.Instructions)
	l.prog.Instructions = append(l.prog.Instructions, instr)
	return idx
}

func (l *lowerer) lowerExpr(e ast.Expr) error {
	switch n := e.(type) {
	case *ast.NumberLit:
		l.emit(Instruction{Op: LoadConst, Const: n.Value})
		return nil

	case *ast.Ident:
		slot, ok := l.prog.SlotOf[n.Name]
		if !ok {
			return errors.WithStack(&cellerr.ResolveError{Name: n.Name})
		}
		l.emit(Instruction{Op: Read, Offset: slot})
		return nil

	case *ast.Call:
		if _, err := builtins.Check(n.Name, len(n.Args)); err != nil {
			return err
		}
		for _, arg := range n.Args {
			if err := l.lowerExpr(arg); err != nil {
				return err
			}
		}
		l.emit(Instruction{Op: Call, Name: n.Name})
		return nil

	case *ast.BinaryExpr:
		// rhs, then lhs, then the operator - required for correctness
		// of non-commutative operators under the VM's pop order.
		if err := l.lowerExpr(n.Right); err != nil {
			return err
		}
		if err := l.lowerExpr(n.Left); err != nil {
			return err
		}
		l.emit(Instruction{Op: binaryOp(n.Op)})
		return nil

	case *ast.CondExpr:
		return l.lowerCond(n)

	default:
		return errors.Errorf("lowering: unhandled expression node %T", e)
	}
}

func (l *lowerer) lowerCond(n *ast.CondExpr) error {
	if err := l.lowerExpr(n.Right); err != nil {
		return err
	}
	if err := l.lowerExpr(n.Left); err != nil {
		return err
	}
	l.emit(Instruction{Op: compareOp(n.Op)})

	jifIdx := l.emit(Instruction{Op: JMPIfFalse, Addr: -1})

	if err := l.lowerExpr(n.True); err != nil {
		return err
	}

	jmpIdx := l.emit(Instruction{Op: JMP, Addr: -1})

	// JMPIfFalse lands just past the true-branch's closing JMP, i.e. at
	// the start of the false branch.
	l.prog.Instructions[jifIdx].Addr = len(l.prog.Instructions)

	if err := l.lowerExpr(n.False); err != nil {
		return err
	}

	nopIdx := l.emit(Instruction{Op: Nop})
	l.prog.Instructions[jmpIdx].Addr = nopIdx

	return nil
}

func binaryOp(op ast.BinaryOp) OpCode {
	switch op {
	case ast.OpAdd:
		return Add
	case ast.OpSub:
		return Sub
	case ast.OpMul:
		return Mul
	case ast.OpDiv:
		return Div
	case ast.OpMod:
		return Mod
	default:
		panic("ir: unknown binary operator " + string(op))
	}
}

func compareOp(op ast.CompareOp) OpCode {
	switch op {
	case ast.CmpEq:
		return Equal
	case ast.CmpGt:
		return Greater
	case ast.CmpGe:
		return GreaterEqual
	case ast.CmpLt:
		return Less
	case ast.CmpLe:
		return LessEqual
	default:
		panic("ir: unknown comparison operator " + string(op))
	}
}
