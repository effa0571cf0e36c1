// Package ir defines the linear, stack-oriented intermediate
// representation that sits between the AST and the three evaluators, and
// the lowering pass that builds it (see lower.go).
package ir

import "fmt"

// OpCode identifies the kind of an Instruction.
type OpCode int

// The complete instruction set.
const (
	LoadConst OpCode = iota
	LoadParam
	Read

	Add
	Sub
	Mul
	Div
	Mod

	Equal
	Greater
	GreaterEqual
	Less
	LessEqual

	JMP
	JMPIfFalse

	Call

	Nop
)

var opNames = map[OpCode]string{
	LoadConst: "LoadConst", LoadParam: "LoadParam", Read: "Read",
	Add: "Add", Sub: "Sub", Mul: "Mul", Div: "Div", Mod: "Mod",
	Equal: "Equal", Greater: "Greater", GreaterEqual: "GreaterEqual",
	Less: "Less", LessEqual: "LessEqual",
	JMP: "JMP", JMPIfFalse: "JMPIfFalse",
	Call: "Call", Nop: "Nop",
}

func (o OpCode) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return fmt.Sprintf("OpCode(%d)", int(o))
}

// Instruction is a single IR operation. Only the fields relevant to Op are
// meaningful; the rest are zero.
type Instruction struct {
	Op     OpCode
	Const  float64 // LoadConst
	Name   string  // LoadParam, Call
	Offset int     // Read: persistent stack offset
	Addr   int     // JMP, JMPIfFalse: target instruction index
}

// Program is a lowered IR program: a flat instruction list plus the
// metadata that maps each declared name to its persistent stack slot. The
// order of Slots also fixes the order evaluators report results in.
type Program struct {
	Instructions []Instruction
	Slots        []string
	SlotOf       map[string]int
}

// New returns an empty Program ready for lowering to append to.
func New() *Program {
	return &Program{SlotOf: make(map[string]int)}
}

// addSlot records name as occupying the next persistent stack slot.
func (p *Program) addSlot(name string) int {
	idx := len(p.Slots)
	p.Slots = append(p.Slots, name)
	p.SlotOf[name] = idx
	return idx
}

// String renders the program in the documented golden-test form: one
// instruction per line, with Read(offset) printed as the name occupying
// that slot rather than the bare integer.
func (p *Program) String() string {
	out := ""
	for i, instr := range p.Instructions {
		out += fmt.Sprintf("%04d: %s\n", i, p.formatInstr(instr))
	}
	return out
}

func (p *Program) formatInstr(instr Instruction) string {
	switch instr.Op {
	case LoadConst:
		return fmt.Sprintf("LoadConst %s", formatFloat(instr.Const))
	case LoadParam:
		return fmt.Sprintf("LoadParam %s", instr.Name)
	case Read:
		name := "?"
		if instr.Offset >= 0 && instr.Offset < len(p.Slots) {
			name = p.Slots[instr.Offset]
		}
		return fmt.Sprintf("Read %s", name)
	case JMP:
		return fmt.Sprintf("JMP %d", instr.Addr)
	case JMPIfFalse:
		return fmt.Sprintf("JMPIfFalse %d", instr.Addr)
	case Call:
		return fmt.Sprintf("Call %s", instr.Name)
	default:
		return instr.Op.String()
	}
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}
