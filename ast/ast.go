// Package ast defines the abstract syntax tree produced by the parser: a
// program is an ordered list of top-level declarations (parameters and
// cells), and each cell carries an expression tree built from arithmetic,
// comparison, call and conditional nodes.
package ast

import "github.com/skx/cellang/token"

// Node is implemented by every AST node.
type Node interface {
	// Equal reports structural equality, ignoring source position -
	// used by the parser's own round-trip tests.
	Equal(other Node) bool
}

// Decl is a top-level declaration: either a ParamDecl or a CellDecl.
type Decl interface {
	Node
	declNode()
	DeclName() string
}

// Expr is any expression that evaluates to a single float64.
type Expr interface {
	Node
	exprNode()
}

// Program is the root node: an ordered sequence of declarations, in
// source order.
type Program struct {
	Decls []Decl
}

// Equal implements Node.
func (p *Program) Equal(other Node) bool {
	o, ok := other.(*Program)
	if !ok || len(p.Decls) != len(o.Decls) {
		return false
	}
	for i := range p.Decls {
		if !p.Decls[i].Equal(o.Decls[i]) {
			return false
		}
	}
	return true
}

// ParamDecl declares an input parameter: `param NAME ;`.
type ParamDecl struct {
	Name string
	Pos  token.Position
}

func (*ParamDecl) declNode()          {}
func (d *ParamDecl) DeclName() string { return d.Name }

// Equal implements Node.
func (d *ParamDecl) Equal(other Node) bool {
	o, ok := other.(*ParamDecl)
	return ok && d.Name == o.Name
}

// CellDecl declares a derived cell: `cell NAME : EXPR ;`.
type CellDecl struct {
	Name string
	Expr Expr
	Pos  token.Position
}

func (*CellDecl) declNode()          {}
func (d *CellDecl) DeclName() string { return d.Name }

// Equal implements Node.
func (d *CellDecl) Equal(other Node) bool {
	o, ok := other.(*CellDecl)
	return ok && d.Name == o.Name && d.Expr.Equal(o.Expr)
}

// NumberLit is a numeric literal atom.
type NumberLit struct {
	Value float64
}

func (*NumberLit) exprNode() {}

// Equal implements Node.
func (n *NumberLit) Equal(other Node) bool {
	o, ok := other.(*NumberLit)
	return ok && n.Value == o.Value
}

// Ident is an identifier atom, referring to a cell or parameter by name.
type Ident struct {
	Name string
}

func (*Ident) exprNode() {}

// Equal implements Node.
func (n *Ident) Equal(other Node) bool {
	o, ok := other.(*Ident)
	return ok && n.Name == o.Name
}

// Call is a built-in function call atom: `NAME(ARG, ARG, ...)`.
type Call struct {
	Name string
	Args []Expr
}

func (*Call) exprNode() {}

// Equal implements Node.
func (n *Call) Equal(other Node) bool {
	o, ok := other.(*Call)
	if !ok || n.Name != o.Name || len(n.Args) != len(o.Args) {
		return false
	}
	for i := range n.Args {
		if !n.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// BinaryOp is the operator of a BinaryExpr.
type BinaryOp token.Type

// The arithmetic operators a BinaryExpr may carry.
const (
	OpAdd = BinaryOp(token.PLUS)
	OpSub = BinaryOp(token.MINUS)
	OpMul = BinaryOp(token.ASTERISK)
	OpDiv = BinaryOp(token.SLASH)
	OpMod = BinaryOp(token.PERCENT)
)

// BinaryExpr is a binary arithmetic expression `LHS OP RHS`.
//
// Precedence is uniform and right-associative across all five operators;
// authors group with explicit parentheses.
type BinaryExpr struct {
	Op          BinaryOp
	Left, Right Expr
}

func (*BinaryExpr) exprNode() {}

// Equal implements Node.
func (n *BinaryExpr) Equal(other Node) bool {
	o, ok := other.(*BinaryExpr)
	return ok && n.Op == o.Op && n.Left.Equal(o.Left) && n.Right.Equal(o.Right)
}

// CompareOp is the comparison operator of a CondExpr.
type CompareOp token.Type

// The comparison operators a CondExpr's condition may use.
const (
	CmpEq = CompareOp(token.EQ)
	CmpGt = CompareOp(token.GT)
	CmpGe = CompareOp(token.GE)
	CmpLt = CompareOp(token.LT)
	CmpLe = CompareOp(token.LE)
)

// CondExpr is a ternary conditional: `if LHS OP RHS ? TRUE : FALSE`.
type CondExpr struct {
	Left, Right Expr
	Op          CompareOp
	True, False Expr
}

func (*CondExpr) exprNode() {}

// Equal implements Node.
func (n *CondExpr) Equal(other Node) bool {
	o, ok := other.(*CondExpr)
	return ok && n.Op == o.Op &&
		n.Left.Equal(o.Left) && n.Right.Equal(o.Right) &&
		n.True.Equal(o.True) && n.False.Equal(o.False)
}
