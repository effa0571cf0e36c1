// Package eval is the small coordinating layer that ties the front end
// (parser), the dependency/lowering pass, and the three evaluators
// together behind one API, so callers - principally cmd/cellc - don't
// need to know the internals of any one engine.
package eval

import (
	"github.com/skx/cellang/ast"
	"github.com/skx/cellang/builtins"
	"github.com/skx/cellang/interp"
	"github.com/skx/cellang/ir"
	"github.com/skx/cellang/jit"
	"github.com/skx/cellang/parser"
	"github.com/skx/cellang/vm"
)

// Engine selects which evaluator runs a program.
type Engine string

// The three interchangeable evaluators.
const (
	AST Engine = "ast"
	VM  Engine = "vm"
	JIT Engine = "jit"
)

// NameValue is one entry of an evaluation's result. Results follow the
// order of the requested names (metadata order when none are requested).
type NameValue struct {
	Name  string
	Value float64
}

// Program is a parsed, ready-to-evaluate source: the AST plus its lowered
// IR and the metadata (dependency) name order both share.
type Program struct {
	ast   *ast.Program
	names []string // declared names, metadata (dependency) order
	ir    *ir.Program
}

// Parse scans, parses and lowers src. Lowering up front means resolve and
// cycle errors surface here, once, for every engine - and its metadata
// fixes the name order callers see before any evaluation runs.
func Parse(src string) (*Program, error) {
	a, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}

	lowered, err := ir.Lower(a)
	if err != nil {
		return nil, err
	}

	return &Program{ast: a, names: lowered.Slots, ir: lowered}, nil
}

// Names returns every declared parameter and cell name, in metadata
// (dependency) order.
func (p *Program) Names() []string {
	return append([]string(nil), p.names...)
}

// BuiltinNames returns the sorted names of the built-in functions in the
// shared registry.
func BuiltinNames() []string {
	return builtins.Names()
}

// Run evaluates p against params using engine, reporting every name in
// names. A nil or empty names reports every declared name in metadata
// order.
func (p *Program) Run(engine Engine, names []string, params map[string]float64) ([]NameValue, error) {
	if len(names) == 0 {
		names = p.names
	}

	switch engine {
	case AST:
		rows, err := interp.Evaluate(p.ast, names, params)
		if err != nil {
			return nil, err
		}
		return fromInterp(rows), nil

	case VM:
		rows, err := vm.Run(p.ir, params)
		if err != nil {
			return nil, err
		}
		return filterVM(rows, names)

	case JIT:
		compiled, err := jit.Compile(p.ir)
		if err != nil {
			return nil, err
		}
		rows, err := compiled.Run(params)
		if err != nil {
			return nil, err
		}
		return filterJIT(rows, names)

	default:
		return nil, &unknownEngineError{Engine: engine}
	}
}

func fromInterp(rows []interp.NameValue) []NameValue {
	out := make([]NameValue, len(rows))
	for i, r := range rows {
		out[i] = NameValue{Name: r.Name, Value: r.Value}
	}
	return out
}

// filterVM/filterJIT project the engine's full per-slot output down to the
// caller's requested names, preserving the caller's requested order - the
// VM and JIT always compute every slot, since the IR has no notion of
// "only evaluate what's asked for".
func filterVM(rows []vm.NameValue, names []string) ([]NameValue, error) {
	byName := make(map[string]float64, len(rows))
	for _, r := range rows {
		byName[r.Name] = r.Value
	}
	return project(byName, names)
}

func filterJIT(rows []jit.NameValue, names []string) ([]NameValue, error) {
	byName := make(map[string]float64, len(rows))
	for _, r := range rows {
		byName[r.Name] = r.Value
	}
	return project(byName, names)
}

func project(byName map[string]float64, names []string) ([]NameValue, error) {
	out := make([]NameValue, 0, len(names))
	for _, n := range names {
		v, ok := byName[n]
		if !ok {
			return nil, &unknownNameError{Name: n}
		}
		out = append(out, NameValue{Name: n, Value: v})
	}
	return out, nil
}

type unknownEngineError struct{ Engine Engine }

func (e *unknownEngineError) Error() string { return "unknown evaluation engine: " + string(e.Engine) }

type unknownNameError struct{ Name string }

func (e *unknownNameError) Error() string { return "requested name is not declared: " + e.Name }
