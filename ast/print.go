package ast

import (
	"strconv"
	"strings"
)

// Print renders a Program back into cellang source text such that
// re-scanning and re-parsing it yields a structurally equal AST.
func Print(p *Program) string {
	var sb strings.Builder
	for _, d := range p.Decls {
		switch decl := d.(type) {
		case *ParamDecl:
			sb.WriteString("param ")
			sb.WriteString(decl.Name)
			sb.WriteString(";\n")
		case *CellDecl:
			sb.WriteString("cell ")
			sb.WriteString(decl.Name)
			sb.WriteString(": ")
			sb.WriteString(printExpr(decl.Expr))
			sb.WriteString(";\n")
		}
	}
	return sb.String()
}

// printExpr renders e in any "expr" grammar position (the right-hand side
// of a binop, a comparison operand, a call argument, a branch of a cond).
// These positions already accept a full right-recursive expression, so no
// extra parenthesization is ever required here.
func printExpr(e Expr) string {
	switch n := e.(type) {
	case *NumberLit:
		return formatNumber(n.Value)
	case *Ident:
		return n.Name
	case *Call:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = printExpr(a)
		}
		return n.Name + "(" + strings.Join(args, ", ") + ")"
	case *BinaryExpr:
		return printPrimary(n.Left) + " " + string(n.Op) + " " + printExpr(n.Right)
	case *CondExpr:
		return "if " + printExpr(n.Left) + " " + string(n.Op) + " " + printExpr(n.Right) +
			" ? " + printExpr(n.True) + " : " + printExpr(n.False)
	default:
		return ""
	}
}

// printPrimary renders e in a "primary" grammar position - the left-hand
// side of a binop. The grammar's only route from a primary to a raw
// BinaryExpr is through explicit parentheses, so a BinaryExpr appearing
// here must be wrapped to reproduce the original grouping on re-parse. A
// CondExpr is wrapped too: unparenthesized, its false branch would swallow
// the operator and right-hand side that follow it.
func printPrimary(e Expr) string {
	switch e.(type) {
	case *BinaryExpr, *CondExpr:
		return "(" + printExpr(e) + ")"
	}
	return printExpr(e)
}

// formatNumber renders a float64 using plain decimal notation (no
// exponent), since the grammar's NUMBER token has no exponent syntax.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
