// Package parser implements a recursive-descent parser that turns the
// cellang token stream into an ast.Program.
package parser

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/skx/cellang/ast"
	"github.com/skx/cellang/cellerr"
	"github.com/skx/cellang/lexer"
	"github.com/skx/cellang/token"
)

// Parser holds our object-state: a peekable view onto the token stream
// produced by the lexer.
type Parser struct {
	l *lexer.Lexer

	cur  token.Token
	peek token.Token
}

// New creates a Parser over the tokens produced by l, priming the
// cur/peek lookahead.
func New(l *lexer.Lexer) (*Parser, error) {
	p := &Parser{l: l}

	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

// Parse consumes the whole token stream and returns the resulting AST.
func Parse(source string) (*ast.Program, error) {
	p, err := New(lexer.New(source))
	if err != nil {
		return nil, err
	}
	return p.Parse()
}

// advance shifts the lookahead window one token forward.
func (p *Parser) advance() error {
	p.cur = p.peek

	tok, err := p.l.NextToken()
	if err != nil {
		return err
	}
	p.peek = tok
	return nil
}

// Parse parses a whole program: a sequence of param/cell declarations.
func (p *Parser) Parse() (*ast.Program, error) {
	prog := &ast.Program{}

	for p.cur.Type != token.EOF {
		decl, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		prog.Decls = append(prog.Decls, decl)
	}
	return prog, nil
}

func (p *Parser) parseDecl() (ast.Decl, error) {
	switch p.cur.Type {
	case token.PARAM:
		return p.parseParamDecl()
	case token.CELL:
		return p.parseCellDecl()
	default:
		return nil, p.errorf("expected 'param' or 'cell', got %q", p.cur.Literal)
	}
}

func (p *Parser) parseParamDecl() (ast.Decl, error) {
	pos := p.cur.Pos

	if err := p.advance(); err != nil { // consume 'param'
		return nil, err
	}
	if p.cur.Type != token.IDENT {
		return nil, p.errorf("expected identifier after 'param', got %q", p.cur.Literal)
	}
	name := p.cur.Literal

	if err := p.advance(); err != nil { // consume the identifier
		return nil, err
	}
	if p.cur.Type != token.SEMI {
		return nil, p.errorf("expected ';' after 'param %s', got %q", name, p.cur.Literal)
	}
	if err := p.advance(); err != nil { // consume ';'
		return nil, err
	}

	return &ast.ParamDecl{Name: name, Pos: pos}, nil
}

func (p *Parser) parseCellDecl() (ast.Decl, error) {
	pos := p.cur.Pos

	if err := p.advance(); err != nil { // consume 'cell'
		return nil, err
	}
	if p.cur.Type != token.IDENT {
		return nil, p.errorf("expected identifier after 'cell', got %q", p.cur.Literal)
	}
	name := p.cur.Literal

	if err := p.advance(); err != nil { // consume the identifier
		return nil, err
	}
	if p.cur.Type != token.COLON {
		return nil, p.errorf("expected ':' after 'cell %s', got %q", name, p.cur.Literal)
	}
	if err := p.advance(); err != nil { // consume ':'
		return nil, err
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if p.cur.Type != token.SEMI {
		return nil, p.errorf("expected ';' after 'cell %s' body, got %q", name, p.cur.Literal)
	}
	if err := p.advance(); err != nil { // consume ';'
		return nil, err
	}

	return &ast.CellDecl{Name: name, Expr: expr, Pos: pos}, nil
}

// parseExpr parses `primary [ binop expr ]`. Precedence is uniform and
// right-associative across all five arithmetic operators; authors group
// with explicit parentheses.
func (p *Parser) parseExpr() (ast.Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	if !isBinOp(p.cur.Type) {
		return left, nil
	}

	op := p.cur.Type
	if err := p.advance(); err != nil { // consume the operator
		return nil, err
	}

	right, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &ast.BinaryExpr{Op: ast.BinaryOp(op), Left: left, Right: right}, nil
}

// parsePrimary parses `"(" expr ")" | cond | call | ident | number`.
func (p *Parser) parsePrimary() (ast.Expr, error) {
	switch p.cur.Type {
	case token.LPAREN:
		if err := p.advance(); err != nil { // consume '('
			return nil, err
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.cur.Type != token.RPAREN {
			return nil, p.errorf("expected ')', got %q", p.cur.Literal)
		}
		if err := p.advance(); err != nil { // consume ')'
			return nil, err
		}
		return inner, nil

	case token.IF:
		return p.parseCond()

	case token.IDENT:
		name := p.cur.Literal
		if p.peek.Type == token.LPAREN {
			return p.parseCall(name)
		}
		if err := p.advance(); err != nil { // consume the identifier
			return nil, err
		}
		return &ast.Ident{Name: name}, nil

	case token.NUMBER:
		v, err := strconv.ParseFloat(p.cur.Literal, 64)
		if err != nil {
			return nil, p.errorf("malformed number literal %q", p.cur.Literal)
		}
		if err := p.advance(); err != nil { // consume the number
			return nil, err
		}
		return &ast.NumberLit{Value: v}, nil

	case token.STRING:
		return nil, p.errorf("string literals cannot appear in expressions")

	default:
		return nil, p.errorf("unexpected token %q in expression", p.cur.Literal)
	}
}

// parseCall parses `IDENT "(" [ expr ( "," expr )* ] ")"`. Arity is not
// validated here but later, by ir.Lower and by the AST interpreter and VM,
// so the parser stays agnostic of the built-in registry.
func (p *Parser) parseCall(name string) (ast.Expr, error) {
	if err := p.advance(); err != nil { // consume the identifier, cur='('
		return nil, err
	}
	if err := p.advance(); err != nil { // consume '(', cur=first arg or ')'
		return nil, err
	}

	var args []ast.Expr
	if p.cur.Type != token.RPAREN {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)

			if p.cur.Type != token.COMMA {
				break
			}
			if err := p.advance(); err != nil { // consume ','
				return nil, err
			}
			// a trailing comma is not legal: another argument must follow
			if p.cur.Type == token.RPAREN {
				return nil, p.errorf("trailing comma in call to %q", name)
			}
		}
	}

	if p.cur.Type != token.RPAREN {
		return nil, p.errorf("expected ')' to close call to %q, got %q", name, p.cur.Literal)
	}
	if err := p.advance(); err != nil { // consume ')'
		return nil, err
	}

	return &ast.Call{Name: name, Args: args}, nil
}

// parseCond parses `"if" expr cmpop expr "?" expr ":" expr`.
func (p *Parser) parseCond() (ast.Expr, error) {
	if err := p.advance(); err != nil { // consume 'if'
		return nil, err
	}

	left, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if !isCmpOp(p.cur.Type) {
		return nil, p.errorf("expected a comparison operator in conditional, got %q", p.cur.Literal)
	}
	op := p.cur.Type
	if err := p.advance(); err != nil { // consume the comparison operator
		return nil, err
	}

	right, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if p.cur.Type != token.QUESTION {
		return nil, p.errorf("expected '?' in conditional, got %q", p.cur.Literal)
	}
	if err := p.advance(); err != nil { // consume '?'
		return nil, err
	}

	trueBranch, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if p.cur.Type != token.COLON {
		return nil, p.errorf("expected ':' in conditional, got %q", p.cur.Literal)
	}
	if err := p.advance(); err != nil { // consume ':'
		return nil, err
	}

	falseBranch, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &ast.CondExpr{
		Left: left, Right: right, Op: ast.CompareOp(op),
		True: trueBranch, False: falseBranch,
	}, nil
}

func isBinOp(t token.Type) bool {
	switch t {
	case token.PLUS, token.MINUS, token.ASTERISK, token.SLASH, token.PERCENT:
		return true
	}
	return false
}

func isCmpOp(t token.Type) bool {
	switch t {
	case token.EQ, token.GT, token.GE, token.LT, token.LE:
		return true
	}
	return false
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return errors.WithStack(&cellerr.ParseError{
		Pos: cellerr.Position{
			Line:   p.cur.Pos.Line,
			Col:    p.cur.Pos.Col,
			Offset: p.cur.Pos.Offset,
		},
		Message: fmt.Sprintf(format, args...),
	})
}
