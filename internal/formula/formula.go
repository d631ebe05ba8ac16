// Package formula evaluates KPI formulas such as "engagement / reach * 100".
//
// The grammar is deliberately small: numbers, the variables in Variables,
// binary + - * /, unary minus and parentheses. Anything else is rejected
// at parse time.
package formula

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"unicode"
)

// Variables lists the identifiers a formula may reference.
var Variables = []string{"views", "reach", "engagement", "saves", "outbound_clicks", "impressions"}

var (
	ErrSyntax         = errors.New("formula syntax error")
	ErrUnknownName    = errors.New("unknown identifier in formula")
	ErrDivisionByZero = errors.New("division by zero in formula")
)

// Expr is a parsed formula.
type Expr interface {
	Eval(vars map[string]float64) (float64, error)
}

// Evaluate parses src and evaluates it against vars. Variables missing
// from vars read as 0.
func Evaluate(src string, vars map[string]float64) (float64, error) {
	expr, err := Parse(src)
	if err != nil {
		return 0, err
	}
	v, err := expr.Eval(vars)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: result is not finite", ErrSyntax)
	}
	return v, nil
}

// Parse compiles src into an Expr.
func Parse(src string) (Expr, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	expr, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrSyntax, p.peek().text, p.peek().pos)
	}
	return expr, nil
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

func tokenize(src string) ([]token, error) {
	var toks []token
	runes := []rune(src)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '+' || r == '-' || r == '*' || r == '/':
			toks = append(toks, token{kind: tokOp, text: string(r), pos: i})
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case unicode.IsDigit(r) || r == '.':
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			text := string(runes[start:i])
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid number %q at offset %d", ErrSyntax, text, start)
			}
			toks = append(toks, token{kind: tokNumber, text: text, num: v, pos: start})
		case r == '_' || unicode.IsLetter(r):
			start := i
			for i < len(runes) && (runes[i] == '_' || unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i])) {
				i++
			}
			name := string(runes[start:i])
			if !isVariable(name) {
				return nil, fmt.Errorf("%w: %q", ErrUnknownName, name)
			}
			toks = append(toks, token{kind: tokIdent, text: name, pos: start})
		default:
			return nil, fmt.Errorf("%w: unexpected character %q at offset %d", ErrSyntax, r, i)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(runes)}), nil
}

func isVariable(name string) bool {
	for _, v := range Variables {
		if v == name {
			return true
		}
	}
	return false
}

// parser is a recursive descent parser:
//
//	expr   = term { ("+" | "-") term }
//	term   = unary { ("*" | "/") unary }
//	unary  = "-" unary | "+" unary | factor
//	factor = number | ident | "(" expr ")"
type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expr() (Expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for t := p.peek(); t.kind == tokOp && (t.text == "+" || t.text == "-"); t = p.peek() {
		p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = binary{op: t.text, left: left, right: right}
	}
	return left, nil
}

func (p *parser) term() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for t := p.peek(); t.kind == tokOp && (t.text == "*" || t.text == "/"); t = p.peek() {
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = binary{op: t.text, left: left, right: right}
	}
	return left, nil
}

func (p *parser) unary() (Expr, error) {
	if t := p.peek(); t.kind == tokOp && (t.text == "-" || t.text == "+") {
		p.next()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		if t.text == "-" {
			return negate{operand: operand}, nil
		}
		return operand, nil
	}
	return p.factor()
}

func (p *parser) factor() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return number(t.num), nil
	case tokIdent:
		return variable(t.text), nil
	case tokLParen:
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, fmt.Errorf("%w: missing ) at offset %d", ErrSyntax, closing.pos)
		}
		return inner, nil
	case tokEOF:
		return nil, fmt.Errorf("%w: unexpected end of formula", ErrSyntax)
	default:
		return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrSyntax, t.text, t.pos)
	}
}

type number float64

func (n number) Eval(map[string]float64) (float64, error) { return float64(n), nil }

type variable string

func (v variable) Eval(vars map[string]float64) (float64, error) { return vars[string(v)], nil }

type negate struct{ operand Expr }

func (n negate) Eval(vars map[string]float64) (float64, error) {
	v, err := n.operand.Eval(vars)
	return -v, err
}

type binary struct {
	op          string
	left, right Expr
}

func (b binary) Eval(vars map[string]float64) (float64, error) {
	l, err := b.left.Eval(vars)
	if err != nil {
		return 0, err
	}
	r, err := b.right.Eval(vars)
	if err != nil {
		return 0, err
	}
	switch b.op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return 0, ErrDivisionByZero
		}
		return l / r, nil
	}
	return 0, fmt.Errorf("%w: operator %q", ErrSyntax, b.op)
}
