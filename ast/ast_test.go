package ast

import "testing"

func TestEqual(t *testing.T) {
	a := &Program{Decls: []Decl{
		&ParamDecl{Name: "x"},
		&CellDecl{Name: "y", Expr: &BinaryExpr{
			Op:    OpAdd,
			Left:  &Ident{Name: "x"},
			Right: &NumberLit{Value: 2},
		}},
	}}
	b := &Program{Decls: []Decl{
		&ParamDecl{Name: "x"},
		&CellDecl{Name: "y", Expr: &BinaryExpr{
			Op:    OpAdd,
			Left:  &Ident{Name: "x"},
			Right: &NumberLit{Value: 2},
		}},
	}}

	if !a.Equal(b) {
		t.Fatalf("expected equal programs to compare equal")
	}

	c := &Program{Decls: []Decl{
		&ParamDecl{Name: "x"},
		&CellDecl{Name: "y", Expr: &NumberLit{Value: 3}},
	}}
	if a.Equal(c) {
		t.Fatalf("expected different programs to compare unequal")
	}
}

func TestCallAndCondEqual(t *testing.T) {
	c1 := &Call{Name: "int", Args: []Expr{&NumberLit{Value: 1.5}}}
	c2 := &Call{Name: "int", Args: []Expr{&NumberLit{Value: 1.5}}}
	if !c1.Equal(c2) {
		t.Fatalf("expected equal calls to compare equal")
	}

	cond1 := &CondExpr{Left: &NumberLit{Value: 1}, Right: &NumberLit{Value: 2}, Op: CmpLt, True: &NumberLit{Value: 3}, False: &NumberLit{Value: 4}}
	cond2 := &CondExpr{Left: &NumberLit{Value: 1}, Right: &NumberLit{Value: 2}, Op: CmpLt, True: &NumberLit{Value: 3}, False: &NumberLit{Value: 4}}
	if !cond1.Equal(cond2) {
		t.Fatalf("expected equal conditionals to compare equal")
	}
}
