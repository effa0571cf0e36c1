package parser

import (
	"testing"

	"github.com/skx/cellang/ast"
)

func TestParseSimpleCell(t *testing.T) {
	prog, err := Parse(`cell a: 1 + 2;`)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(prog.Decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(prog.Decls))
	}
	cell, ok := prog.Decls[0].(*ast.CellDecl)
	if !ok {
		t.Fatalf("expected *ast.CellDecl, got %T", prog.Decls[0])
	}
	if cell.Name != "a" {
		t.Fatalf("expected cell name 'a', got %q", cell.Name)
	}

	want := &ast.BinaryExpr{Op: ast.OpAdd, Left: &ast.NumberLit{Value: 1}, Right: &ast.NumberLit{Value: 2}}
	if !cell.Expr.Equal(want) {
		t.Fatalf("expected %#v, got %#v", want, cell.Expr)
	}
}

// Uniform right-associative precedence: the parser does not distinguish
// "*"/"/" from "+"/"-", so "1 - 2 - 3" parses as "1 - (2 - 3)", not
// "(1 - 2) - 3".
func TestRightAssociativePrecedence(t *testing.T) {
	prog, err := Parse(`cell a: 1 - 2 - 3;`)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	cell := prog.Decls[0].(*ast.CellDecl)

	want := &ast.BinaryExpr{
		Op:   ast.OpSub,
		Left: &ast.NumberLit{Value: 1},
		Right: &ast.BinaryExpr{
			Op:    ast.OpSub,
			Left:  &ast.NumberLit{Value: 2},
			Right: &ast.NumberLit{Value: 3},
		},
	}
	if !cell.Expr.Equal(want) {
		t.Fatalf("expected right-associative parse, got %#v", cell.Expr)
	}
}

// Explicit parentheses on the left of a binop must round-trip: "(1 + 2) * 3"
// is a genuinely different tree from "1 + 2 * 3".
func TestParenthesizedLeftOperand(t *testing.T) {
	prog, err := Parse(`cell a: (1 + 2) * 3;`)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	cell := prog.Decls[0].(*ast.CellDecl)

	want := &ast.BinaryExpr{
		Op: ast.OpMul,
		Left: &ast.BinaryExpr{
			Op: ast.OpAdd, Left: &ast.NumberLit{Value: 1}, Right: &ast.NumberLit{Value: 2},
		},
		Right: &ast.NumberLit{Value: 3},
	}
	if !cell.Expr.Equal(want) {
		t.Fatalf("expected %#v, got %#v", want, cell.Expr)
	}
}

func TestParseConditional(t *testing.T) {
	prog, err := Parse(`cell a: if 1 + 2 > 4 ? 10 : 20;`)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	cell := prog.Decls[0].(*ast.CellDecl)

	want := &ast.CondExpr{
		Left:  &ast.BinaryExpr{Op: ast.OpAdd, Left: &ast.NumberLit{Value: 1}, Right: &ast.NumberLit{Value: 2}},
		Right: &ast.NumberLit{Value: 4},
		Op:    ast.CmpGt,
		True:  &ast.NumberLit{Value: 10},
		False: &ast.NumberLit{Value: 20},
	}
	if !cell.Expr.Equal(want) {
		t.Fatalf("expected %#v, got %#v", want, cell.Expr)
	}
}

func TestParseCallEmptyArgs(t *testing.T) {
	prog, err := Parse(`cell a: rand();`)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	cell := prog.Decls[0].(*ast.CellDecl)
	want := &ast.Call{Name: "rand"}
	if !cell.Expr.Equal(want) {
		t.Fatalf("expected %#v, got %#v", want, cell.Expr)
	}
}

func TestParseCallWithArgs(t *testing.T) {
	prog, err := Parse(`cell a: int(1 + 2);`)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	cell := prog.Decls[0].(*ast.CellDecl)
	want := &ast.Call{Name: "int", Args: []ast.Expr{
		&ast.BinaryExpr{Op: ast.OpAdd, Left: &ast.NumberLit{Value: 1}, Right: &ast.NumberLit{Value: 2}},
	}}
	if !cell.Expr.Equal(want) {
		t.Fatalf("expected %#v, got %#v", want, cell.Expr)
	}
}

func TestTrailingCommaIsAnError(t *testing.T) {
	_, err := Parse(`cell a: int(1,);`)
	if err == nil {
		t.Fatalf("expected a trailing comma to be an error")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		``, // handled fine (empty program), so not included below
	}
	_ = tests

	bogus := []string{
		`cell;`,
		`cell a 1 + 2;`,
		`cell a: 1 +;`,
		`param;`,
		`param a`,
		`cell a: (1 + 2;`,
		`cell a: if 1 2 ? 3 : 4;`,
		`notakeyword a: 1;`,
		`cell a: "strings are not values";`,
	}
	for _, src := range bogus {
		if _, err := Parse(src); err == nil {
			t.Errorf("expected parse error for %q, got none", src)
		}
	}
}

func TestEmptyProgram(t *testing.T) {
	prog, err := Parse(``)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(prog.Decls) != 0 {
		t.Fatalf("expected empty program, got %d decls", len(prog.Decls))
	}
}

// Round-trip: parse(scan(pretty_print(ast))) must be structurally equal
// to the original ast, for every program the parser can produce.
func TestRoundTrip(t *testing.T) {
	programs := []string{
		`cell a: 1 + 2;`,
		`cell a: 3 * 2; cell b: a + 2; cell c: b + b;`,
		`param test; cell a: test + 2;`,
		`cell a: if 1 + 2 > 4 ? 10 : 20;`,
		`cell a: b; cell b: a;`,
		`param p1; param p2; cell c: p1 + 1; cell a: 5 + c; cell test: p1 + p2 * p2 + a * p1 / (p2 + 1);`,
		`cell a: (1 + 2) * 3;`,
		`cell a: -3 + -4.5;`,
		`cell a: int(rand());`,
		`cell a: int();`,
	}

	for _, src := range programs {
		orig, err := Parse(src)
		if err != nil {
			t.Fatalf("unexpected error parsing %q: %s", src, err)
		}

		printed := ast.Print(orig)
		roundTripped, err := Parse(printed)
		if err != nil {
			t.Fatalf("unexpected error re-parsing printed form %q (from %q): %s", printed, src, err)
		}

		if !orig.Equal(roundTripped) {
			t.Fatalf("round-trip mismatch for %q:\n printed = %q\n orig    = %#v\n parsed  = %#v", src, printed, orig, roundTripped)
		}
	}
}
