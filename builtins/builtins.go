// Package builtins is the shared built-in registry consulted by IR
// lowering, the AST interpreter and the stack VM. The JIT compiler does not
// consult it: it rejects every Call instruction. Dispatch is a
// name -> (arity, implementation) table, so the arity checks live in one
// place rather than a switch per evaluator.
package builtins

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/skx/cellang/cellerr"
)

// Func implements a built-in over already-evaluated float64 arguments.
type Func func(args []float64) float64

// Builtin is one entry of the registry: its required argument count and
// its implementation.
type Builtin struct {
	Name  string
	Arity int
	Fn    Func
}

// rng is the shared random source behind rand(), protected by a mutex: a
// manually-constructed rand.Rand has no locking of its own, and evaluations
// may run concurrently across worker goroutines.
var (
	rngLock sync.Mutex
	rng     = rand.New(rand.NewSource(time.Now().UnixNano()))
)

func randFloat() float64 {
	rngLock.Lock()
	defer rngLock.Unlock()

	return rng.Float64()
}

var registry = map[string]Builtin{
	"rand": {
		Name:  "rand",
		Arity: 0,
		Fn:    func(args []float64) float64 { return randFloat() },
	},
	"int": {
		Name:  "int",
		Arity: 1,
		// Round-half-to-even, uniformly across every engine.
		Fn: func(args []float64) float64 { return math.RoundToEven(args[0]) },
	},
}

// Lookup returns the Builtin registered under name, if any.
func Lookup(name string) (Builtin, bool) {
	b, ok := registry[name]
	return b, ok
}

// Check validates that name is a known built-in called with the right
// number of arguments, returning UnknownBuiltin or ArityError otherwise.
func Check(name string, argc int) (Builtin, error) {
	b, ok := Lookup(name)
	if !ok {
		return Builtin{}, errors.WithStack(&cellerr.UnknownBuiltin{Name: name})
	}
	if b.Arity != argc {
		return Builtin{}, errors.WithStack(&cellerr.ArityError{Name: name, Want: b.Arity, Got: argc})
	}
	return b, nil
}

// Names returns the sorted list of known built-in names; eval.BuiltinNames
// exposes it.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
