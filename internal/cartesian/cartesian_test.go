package cartesian

import (
	"errors"
	"reflect"
	"testing"

	"github.com/skx/cellang/eval"
)

func TestExpandSingleBinding(t *testing.T) {
	got := Expand([]Binding{{Name: "p1", Values: []float64{1, 2, 3}}})
	if len(got) != 3 {
		t.Fatalf("expected 3 permutations, got %d", len(got))
	}
	for i, want := range []float64{1, 2, 3} {
		if got[i]["p1"] != want {
			t.Errorf("perm[%d][p1] = %v, want %v", i, got[i]["p1"], want)
		}
	}
}

func TestExpandProduct(t *testing.T) {
	got := Expand([]Binding{
		{Name: "p1", Values: []float64{1, 2}},
		{Name: "p2", Values: []float64{10, 20}},
	})
	if len(got) != 4 {
		t.Fatalf("expected 4 permutations, got %d", len(got))
	}
	seen := make(map[[2]float64]bool)
	for _, perm := range got {
		seen[[2]float64{perm["p1"], perm["p2"]}] = true
	}
	want := [][2]float64{{1, 10}, {1, 20}, {2, 10}, {2, 20}}
	for _, w := range want {
		if !seen[w] {
			t.Errorf("missing permutation %v", w)
		}
	}
}

func TestExpandNoBindings(t *testing.T) {
	got := Expand(nil)
	if len(got) != 1 || len(got[0]) != 0 {
		t.Fatalf("expected a single empty permutation, got %v", got)
	}
}

func TestExpandRightmostVariesFastest(t *testing.T) {
	got := Expand([]Binding{
		{Name: "p1", Values: []float64{1, 2}},
		{Name: "p2", Values: []float64{10, 20}},
	})
	var p2s []float64
	for _, perm := range got {
		if perm["p1"] == 1 {
			p2s = append(p2s, perm["p2"])
		}
	}
	if !reflect.DeepEqual(p2s, []float64{10, 20}) {
		t.Fatalf("unexpected p2 sequence for p1=1: %v", p2s)
	}
}

// Permutations evaluate concurrently across the worker pool, so a program
// calling rand() hits the shared random source from several goroutines at
// once; run under -race this catches an unsynchronized source.
func TestRunConcurrentRand(t *testing.T) {
	prog, err := eval.Parse(`param p1; cell a: p1 + rand();`)
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}

	perms := Expand([]Binding{{Name: "p1", Values: []float64{1, 2, 3, 4, 5, 6, 7, 8}}})
	results := Run(perms, func(p map[string]float64) (interface{}, error) {
		return prog.Run(eval.VM, []string{"a"}, p)
	})

	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("permutation %d failed: %s", i, r.Err)
		}
		rows := r.Values.([]eval.NameValue)
		lo, hi := r.Params["p1"], r.Params["p1"]+1
		if rows[0].Value < lo || rows[0].Value >= hi {
			t.Errorf("permutation %d: a = %v, want in [%v, %v)", i, rows[0].Value, lo, hi)
		}
	}
}

func TestRunPreservesOrderAndIsolatesFailures(t *testing.T) {
	perms := Expand([]Binding{{Name: "p1", Values: []float64{1, 2, 3, 4}}})
	results := Run(perms, func(p map[string]float64) (interface{}, error) {
		if p["p1"] == 3 {
			return nil, errors.New("boom")
		}
		return p["p1"] * 2, nil
	})

	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("result[%d].Index = %d", i, r.Index)
		}
	}
	if results[2].Err == nil {
		t.Fatalf("expected an error for the third permutation")
	}
	if results[0].Values != float64(2) || results[1].Values != float64(4) || results[3].Values != float64(8) {
		t.Fatalf("unexpected surviving results: %#v", results)
	}
}
