// Package depgraph computes a deterministic topological order over a
// program's parameter and cell names, so that lowering can assign each
// name its persistent IR slot before anything that reads it runs.
package depgraph

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/skx/cellang/ast"
	"github.com/skx/cellang/cellerr"
)

// TopoOrder returns the declared names of prog (parameters and cells) in
// an order such that every name appears after all the free names its own
// expression uses.
//
// Algorithm: for each name in lexicographic order, depth-first through its
// dependencies (themselves visited in lexicographic order), appending a
// name once its dependencies are satisfied. This tie-break makes the
// order fully deterministic. A dependency cycle surfaces as a CycleError;
// references to undeclared names are left for lowering to catch.
func TopoOrder(prog *ast.Program) ([]string, error) {
	deps := make(map[string][]string, len(prog.Decls))
	names := make([]string, 0, len(prog.Decls))

	for _, d := range prog.Decls {
		name := d.DeclName()
		names = append(names, name)

		switch decl := d.(type) {
		case *ast.ParamDecl:
			deps[name] = nil
		case *ast.CellDecl:
			deps[name] = declaredOnly(freeNames(decl.Expr), prog)
		}
	}
	sort.Strings(names)

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(names))
	order := make([]string, 0, len(names))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return errors.WithStack(&cellerr.CycleError{Names: []string{name}})
		}

		state[name] = visiting

		children := append([]string(nil), deps[name]...)
		sort.Strings(children)
		for _, dep := range children {
			if err := visit(dep); err != nil {
				if ce, ok := errors.Cause(err).(*cellerr.CycleError); ok {
					return errors.WithStack(&cellerr.CycleError{Names: append(ce.Names, name)})
				}
				return err
			}
		}

		state[name] = done
		order = append(order, name)
		return nil
	}

	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	return order, nil
}

// declaredOnly filters names down to those actually declared in prog;
// dangling references are left for lowering to report as ResolveError.
func declaredOnly(names []string, prog *ast.Program) []string {
	declared := make(map[string]bool, len(prog.Decls))
	for _, d := range prog.Decls {
		declared[d.DeclName()] = true
	}

	var out []string
	for _, n := range names {
		if declared[n] {
			out = append(out, n)
		}
	}
	return out
}

// freeNames collects every identifier referenced by an expression.
func freeNames(e ast.Expr) []string {
	var names []string
	var walk func(e ast.Expr)
	walk = func(e ast.Expr) {
		switch n := e.(type) {
		case *ast.NumberLit:
		case *ast.Ident:
			names = append(names, n.Name)
		case *ast.Call:
			for _, a := range n.Args {
				walk(a)
			}
		case *ast.BinaryExpr:
			walk(n.Left)
			walk(n.Right)
		case *ast.CondExpr:
			walk(n.Left)
			walk(n.Right)
			walk(n.True)
			walk(n.False)
		}
	}
	walk(e)
	return names
}
