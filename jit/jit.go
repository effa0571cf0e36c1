// Package jit lowers the IR to a directly-callable function the way a
// block-structured SSA codegen backend would: block discovery, a pool of
// single-assignment typed temporaries, and per-instruction lowering into
// compiled Go closures. There is no assembler or machine-code buffer here -
// the produced function is a closure tree, a different output
// representation for the same translation discipline an
// emit-assembly-text backend would use.
package jit

import (
	"math"

	"github.com/pkg/errors"

	"github.com/skx/cellang/cellerr"
	"github.com/skx/cellang/ir"
)

// NameValue is one entry of a run's result, in metadata order.
type NameValue struct {
	Name  string
	Value float64
}

// block is one basic block of the discovered control-flow graph: a
// contiguous run of instructions with a single entry point, compiled to a
// step closure plus a terminator describing which block runs next.
type block struct {
	steps []step
	term  terminator
}

// step executes one non-terminator instruction against the runtime.
type step func(rt *runtime)

// terminator decides the next block (or program exit) after a block's
// steps have run.
type terminator func(rt *runtime) int

// runtime is the mutable state of one compiled-function invocation. regs is
// the pool of single-assignment temporaries - once written, a slot is never
// overwritten, mirroring genuine SSA values. handles is the IR's abstract
// operand stack: it holds indices into regs, not values directly.
type runtime struct {
	regs    []float64
	handles []int
	params  map[string]float64
	err     error
}

func (rt *runtime) alloc(v float64) int {
	rt.regs = append(rt.regs, v)
	return len(rt.regs) - 1
}

func (rt *runtime) push(h int) {
	rt.handles = append(rt.handles, h)
}

func (rt *runtime) pop() int {
	n := len(rt.handles) - 1
	h := rt.handles[n]
	rt.handles = rt.handles[:n]
	return h
}

func (rt *runtime) pushVal(v float64) {
	rt.push(rt.alloc(v))
}

// Compiled is a lowered, ready-to-run program: a compiled function taking
// parameter bindings and producing every slot value in metadata order.
type Compiled struct {
	blocks  []block
	blockAt map[int]int // instruction index -> owning block index
	slots   []string
}

// Compile translates prog into a Compiled function, or fails with a
// JitError if prog contains a construct the backend does not support
// (currently: any Call).
func Compile(prog *ir.Program) (*Compiled, error) {
	for _, instr := range prog.Instructions {
		if instr.Op == ir.Call {
			return nil, errors.WithStack(&cellerr.JitError{
				Message: "built-in calls are not yet supported by the codegen backend: " + instr.Name,
			})
		}
	}

	starts := discoverBlockStarts(prog.Instructions)

	c := &Compiled{
		blockAt: make(map[int]int, len(starts)),
		slots:   prog.Slots,
	}
	for i, start := range starts {
		c.blockAt[start] = i
	}

	for i, start := range starts {
		end := len(prog.Instructions)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		fallthroughBlock := -1
		if i+1 < len(starts) {
			fallthroughBlock = i + 1
		}
		b, err := c.compileBlock(prog.Instructions[start:end], fallthroughBlock)
		if err != nil {
			return nil, err
		}
		c.blocks = append(c.blocks, b)
	}

	return c, nil
}

// discoverBlockStarts marks the basic-block boundaries: instruction 0 is
// always a block start; every JMP/JMPIfFalse target is a block start; and
// the instruction immediately following a JMPIfFalse is a block start too.
func discoverBlockStarts(instrs []ir.Instruction) []int {
	marked := map[int]bool{0: true}
	for i, instr := range instrs {
		switch instr.Op {
		case ir.JMP:
			marked[instr.Addr] = true
		case ir.JMPIfFalse:
			marked[instr.Addr] = true
			if i+1 < len(instrs) {
				marked[i+1] = true
			}
		}
	}
	starts := make([]int, 0, len(marked))
	for idx := range marked {
		starts = append(starts, idx)
	}
	// simple insertion sort - the set is always small for these programs
	for i := 1; i < len(starts); i++ {
		for j := i; j > 0 && starts[j-1] > starts[j]; j-- {
			starts[j-1], starts[j] = starts[j], starts[j-1]
		}
	}
	return starts
}

// compileBlock lowers one basic block's instructions into steps plus a
// terminator. fallthroughIdx is the block index reached when this block
// has no explicit branch instruction (or is the true-branch continuation
// after a JMPIfFalse).
func (c *Compiled) compileBlock(instrs []ir.Instruction, fallthroughIdx int) (block, error) {
	var b block

	for i, instr := range instrs {
		instr := instr
		last := i == len(instrs)-1

		switch instr.Op {
		case ir.LoadConst:
			v := instr.Const
			b.steps = append(b.steps, func(rt *runtime) { rt.pushVal(v) })

		case ir.LoadParam:
			name := instr.Name
			b.steps = append(b.steps, func(rt *runtime) {
				rt.pushVal(rt.paramValue(name))
			})

		case ir.Read:
			off := instr.Offset
			b.steps = append(b.steps, func(rt *runtime) {
				rt.push(rt.handles[off])
			})

		case ir.Add, ir.Sub, ir.Mul, ir.Div, ir.Mod:
			op := instr.Op
			b.steps = append(b.steps, func(rt *runtime) {
				// Lowering pushes rhs then lhs, so lhs is on top.
				lhsH := rt.pop()
				rhsH := rt.pop()
				rt.pushVal(arith(op, rt.regs[lhsH], rt.regs[rhsH]))
			})

		case ir.Equal, ir.Greater, ir.GreaterEqual, ir.Less, ir.LessEqual:
			op := instr.Op
			b.steps = append(b.steps, func(rt *runtime) {
				lhsH := rt.pop()
				rhsH := rt.pop()
				rt.pushVal(boolFloat(compare(op, rt.regs[lhsH], rt.regs[rhsH])))
			})

		case ir.Nop:
			// branch landing pad only - nothing to emit

		case ir.JMPIfFalse:
			if !last {
				return block{}, errors.WithStack(&cellerr.JitError{Message: "JMPIfFalse must end its block"})
			}
			trueBlk := fallthroughIdx
			falseBlk := c.blockAt[instr.Addr]
			b.term = func(rt *runtime) int {
				h := rt.pop()
				if rt.regs[h] == 0.0 {
					return falseBlk
				}
				return trueBlk
			}

		case ir.JMP:
			if !last {
				return block{}, errors.WithStack(&cellerr.JitError{Message: "JMP must end its block"})
			}
			target := c.blockAt[instr.Addr]
			b.term = func(rt *runtime) int { return target }

		default:
			return block{}, errors.WithStack(&cellerr.JitError{Message: "unsupported instruction in codegen backend"})
		}
	}

	if b.term == nil {
		next := fallthroughIdx
		b.term = func(rt *runtime) int { return next }
	}

	return b, nil
}

// paramValue reads rt.params, which is set per Run call; declared as a
// method so compiled steps (built once, at Compile time) can be reused
// across many Runs.
func (rt *runtime) paramValue(name string) float64 {
	v, ok := rt.params[name]
	if !ok {
		rt.err = errors.WithStack(&cellerr.MissingParam{Name: name})
		return 0
	}
	return v
}

// Run executes the compiled function against params, returning the value
// of every metadata slot (parameters and cells alike) in metadata order -
// kept uniform with the AST interpreter and VM so the three engines can be
// compared directly.
func (c *Compiled) Run(params map[string]float64) ([]NameValue, error) {
	rt := &runtime{params: params}

	blk := 0
	for blk != -1 {
		b := c.blocks[blk]
		for _, s := range b.steps {
			s(rt)
			if rt.err != nil {
				return nil, rt.err
			}
		}
		blk = b.term(rt)
	}

	if len(rt.handles) < len(c.slots) {
		return nil, errors.WithStack(&cellerr.JitError{Message: "compiled function did not populate every slot"})
	}

	out := make([]NameValue, len(c.slots))
	for i, name := range c.slots {
		out[i] = NameValue{Name: name, Value: rt.regs[rt.handles[i]]}
	}
	return out, nil
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
		// The closure backend has a direct float64 remainder operation,
		// so no a - b*floor(a/b) expansion is needed.
		return math.Mod(a, b)
	default:
		panic("jit: unreachable arithmetic opcode")
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
		panic("jit: unreachable comparison opcode")
	}
}

func boolFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
