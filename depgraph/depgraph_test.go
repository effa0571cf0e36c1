package depgraph

import (
	"reflect"
	"testing"

	"github.com/skx/cellang/cellerr"
	"github.com/skx/cellang/parser"
)

func order(t *testing.T, src string) []string {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	ord, err := TopoOrder(prog)
	if err != nil {
		t.Fatalf("unexpected topo-order error: %s", err)
	}
	return ord
}

// The lexicographic tie-break makes the dependency order exactly
// [p1, c, a, p2, test].
func TestTopoOrderScenario(t *testing.T) {
	src := `param p1; param p2; cell c: p1 + 1; cell a: 5 + c; cell test: p1 + p2 * p2 + a * p1 / (p2 + 1);`
	got := order(t, src)
	want := []string{"p1", "c", "a", "p2", "test"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected order %v, got %v", want, got)
	}
}

func TestTopoOrderSoundness(t *testing.T) {
	src := `cell a: 3 * 2; cell b: a + 2; cell c: b + b;`
	got := order(t, src)

	pos := map[string]int{}
	for i, n := range got {
		pos[n] = i
	}
	if pos["a"] >= pos["b"] || pos["b"] >= pos["c"] {
		t.Fatalf("dependency order violated: %v", got)
	}
}

// A cell cycle must surface as a CycleError.
func TestCycleDetected(t *testing.T) {
	src := `cell a: b; cell b: a;`
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}

	_, err = TopoOrder(prog)
	if err == nil {
		t.Fatalf("expected a cycle error")
	}
	var cycleErr *cellerr.CycleError
	if !asCycleError(err, &cycleErr) {
		t.Fatalf("expected a *cellerr.CycleError, got %T: %s", err, err)
	}
}

// A dangling reference to an undeclared name is not this package's job to
// report - it must not derail the topological order of the rest.
func TestDanglingReferenceIsIgnoredHere(t *testing.T) {
	src := `cell a: missing + 1;`
	got := order(t, src)
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("expected order [a], got %v", got)
	}
}

func asCycleError(err error, target **cellerr.CycleError) bool {
	type causer interface{ Cause() error }
	for err != nil {
		if ce, ok := err.(*cellerr.CycleError); ok {
			*target = ce
			return true
		}
		c, ok := err.(causer)
		if !ok {
			return false
		}
		err = c.Cause()
	}
	return false
}
