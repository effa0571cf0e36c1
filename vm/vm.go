// Package vm is the bounded-stack interpreter for the lowered IR, and the
// default evaluation engine.
package vm

import (
	"math"

	"github.com/pkg/errors"

	"github.com/skx/cellang/builtins"
	"github.com/skx/cellang/cellerr"
	"github.com/skx/cellang/ir"
)

// StackSize is the fixed operand-stack capacity; exceeding it is a VMError.
const StackSize = 256

// NameValue is one entry of an evaluation's result, in metadata order.
type NameValue struct {
	Name  string
	Value float64
}

// machine holds the mutable execution state of a single run.
type machine struct {
	prog   *ir.Program
	params map[string]float64
	stack  [StackSize]float64
	sp     int // next free slot
}

// Run executes prog against params, returning the value of every slot
// (parameter and cell) in metadata order.
func Run(prog *ir.Program, params map[string]float64) ([]NameValue, error) {
	m := &machine{prog: prog, params: params}

	if err := m.exec(); err != nil {
		return nil, err
	}

	out := make([]NameValue, len(prog.Slots))
	for i, name := range prog.Slots {
		if i >= m.sp {
			return nil, errors.WithStack(&cellerr.VMError{Message: "program did not populate every slot"})
		}
		out[i] = NameValue{Name: name, Value: m.stack[i]}
	}
	return out, nil
}

func (m *machine) push(v float64) error {
	if m.sp >= StackSize {
		return errors.WithStack(&cellerr.VMError{Message: "operand stack overflow"})
	}
	m.stack[m.sp] = v
	m.sp++
	return nil
}

func (m *machine) pop() (float64, error) {
	if m.sp <= 0 {
		return 0, errors.WithStack(&cellerr.VMError{Message: "operand stack underflow"})
	}
	m.sp--
	return m.stack[m.sp], nil
}

func (m *machine) exec() error {
	ipMax := len(m.prog.Instructions)
	for ip := 0; ip < ipMax; ip++ {
		instr := m.prog.Instructions[ip]

		switch instr.Op {
		case ir.LoadConst:
			if err := m.push(instr.Const); err != nil {
				return err
			}

		case ir.LoadParam:
			v, ok := m.params[instr.Name]
			if !ok {
				return errors.WithStack(&cellerr.MissingParam{Name: instr.Name})
			}
			if err := m.push(v); err != nil {
				return err
			}

		case ir.Read:
			if instr.Offset < 0 || instr.Offset >= m.sp {
				return errors.WithStack(&cellerr.VMError{Message: "read from an unpopulated slot"})
			}
			if err := m.push(m.stack[instr.Offset]); err != nil {
				return err
			}

		case ir.Add, ir.Sub, ir.Mul, ir.Div, ir.Mod:
			// Lowering pushes rhs then lhs, so lhs is on top: pop it
			// first.
			lhs, err := m.pop()
			if err != nil {
				return err
			}
			rhs, err := m.pop()
			if err != nil {
				return err
			}
			if err := m.push(arith(instr.Op, lhs, rhs)); err != nil {
				return err
			}

		case ir.Equal, ir.Greater, ir.GreaterEqual, ir.Less, ir.LessEqual:
			lhs, err := m.pop()
			if err != nil {
				return err
			}
			rhs, err := m.pop()
			if err != nil {
				return err
			}
			if err := m.push(boolFloat(compare(instr.Op, lhs, rhs))); err != nil {
				return err
			}

		case ir.JMPIfFalse:
			v, err := m.pop()
			if err != nil {
				return err
			}
			if v == 0.0 {
				if err := m.checkTarget(instr.Addr); err != nil {
					return err
				}
				ip = instr.Addr - 1 // loop's ip++ lands us exactly at Addr
			}

		case ir.JMP:
			if err := m.checkTarget(instr.Addr); err != nil {
				return err
			}
			ip = instr.Addr - 1

		case ir.Call:
			b, err := builtins.Check(instr.Name, arityOf(instr.Name))
			if err != nil {
				return err
			}
			args := make([]float64, b.Arity)
			for i := b.Arity - 1; i >= 0; i-- {
				v, err := m.pop()
				if err != nil {
					return err
				}
				args[i] = v
			}
			if err := m.push(b.Fn(args)); err != nil {
				return err
			}

		case ir.Nop:
			// no effect

		default:
			return errors.WithStack(&cellerr.VMError{Message: "unrecognized opcode"})
		}
	}
	return nil
}

// checkTarget validates a jump target is a legal instruction index (the
// final Nop landing pad is always in range since it is itself emitted).
func (m *machine) checkTarget(addr int) error {
	if addr < 0 || addr >= len(m.prog.Instructions) {
		return errors.WithStack(&cellerr.VMError{Message: "jump target out of range"})
	}
	return nil
}

// arityOf reports the built-in's declared arity, which Call passes to
// builtins.Check and then pops that many operands; a genuinely unknown
// name still surfaces as UnknownBuiltin from builtins.Check.
func arityOf(name string) int {
	if b, ok := builtins.Lookup(name); ok {
		return b.Arity
	}
	return 0
}

func arith(op ir.OpCode, a, b float64) float64 {
	switch op {
	case ir.Add:
		return a + b
	case ir.Sub:
		return a - b
	case ir.Mul:
		return a * b
	case ir.Div:
		return a / b
	case ir.Mod:
		return math.Mod(a, b)
	default:
		panic("vm: unreachable arithmetic opcode")
	}
}

func compare(op ir.OpCode, a, b float64) bool {
	switch op {
	case ir.Equal:
		return a == b
	case ir.Greater:
		return a > b
	case ir.GreaterEqual:
		return a >= b
	case ir.Less:
		return a < b
	case ir.LessEqual:
		return a <= b
	default:
		panic("vm: unreachable comparison opcode")
	}
}

func boolFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
