// Package cartesian expands the CLI's --param bindings into the Cartesian
// product of parameter assignments, and fans each assignment out to a
// bounded pool of worker goroutines - the CLI's job, since the core
// evaluators are single-threaded and synchronous.
package cartesian

import "runtime"

// Binding is one parsed --param binding: a name and the list of values it
// ranges over.
type Binding struct {
	Name   string
	Values []float64
}

// Expand returns every parameter assignment in the Cartesian product of
// bindings, in deterministic order: the rightmost binding varies fastest,
// matching the natural reading of nested loops over the bindings in the
// order they were given.
func Expand(bindings []Binding) []map[string]float64 {
	if len(bindings) == 0 {
		return []map[string]float64{{}}
	}

	total := 1
	for _, b := range bindings {
		if len(b.Values) == 0 {
			return nil
		}
		total *= len(b.Values)
	}

	out := make([]map[string]float64, total)
	for i := range out {
		row := make(map[string]float64, len(bindings))
		idx := i
		for j := len(bindings) - 1; j >= 0; j-- {
			b := bindings[j]
			row[b.Name] = b.Values[idx%len(b.Values)]
			idx /= len(b.Values)
		}
		out[i] = row
	}
	return out
}

// Result pairs one permutation's input with its evaluation outcome; Err is
// set instead of Values when that single permutation failed, without
// aborting the others.
type Result struct {
	Index  int
	Params map[string]float64
	Values interface{}
	Err    error
}

// Run evaluates every permutation by calling eval once per entry,
// concurrently across a bounded pool of runtime.NumCPU() workers, and
// returns results in the same order as perms regardless of completion
// order.
func Run(perms []map[string]float64, eval func(map[string]float64) (interface{}, error)) []Result {
	results := make([]Result, len(perms))

	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	if workers > len(perms) {
		workers = len(perms)
	}
	if workers == 0 {
		return results
	}

	jobs := make(chan int)
	done := make(chan struct{})

	for w := 0; w < workers; w++ {
		go func() {
			for i := range jobs {
				v, err := eval(perms[i])
				results[i] = Result{Index: i, Params: perms[i], Values: v, Err: err}
			}
			done <- struct{}{}
		}()
	}

	go func() {
		for i := range perms {
			jobs <- i
		}
		close(jobs)
	}()

	for w := 0; w < workers; w++ {
		<-done
	}

	return results
}
