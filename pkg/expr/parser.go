package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lemonberrylabs/flare/pkg/types"
)

// Parse reads one expression from the front of tokens and returns it with
// the tokens it did not consume. Each production consumes exactly the
// tokens of its grammar rule; callers thread the remainder forward.
//
// Dispatch is on the first token:
//
//	"..."            string literal
//	let NAME = EXPR  declaration
//	= NAME EXPR      assignment to an existing name
//	if C T E         conditional
//	+ - * / L R      binary arithmetic
//	display EXPR     print
//	( EXPR... )      call form
//	anything else    number, or symbol when it does not parse as one
//
// Keywords are not reserved anywhere else, so a variable named "let" can
// never be referenced.
func Parse(tokens []Token) (types.Expr, []Token, error) {
	if len(tokens) == 0 {
		return nil, nil, types.NewSyntaxError("could not get token")
	}
	tok, rest := tokens[0], tokens[1:]

	if tok.Quoted {
		return types.NewString(tok.Text), rest, nil
	}
	if isStringLiteral(tok.Text) {
		return types.NewString(tok.Text[1 : len(tok.Text)-1]), rest, nil
	}

	switch {
	case tok.Text == kwLet:
		return parseLet(rest)
	case tok.Text == kwAssign:
		return parseAssign(rest)
	case tok.Text == kwIf:
		return parseIf(rest)
	case isOperator(tok.Text):
		return parseOp(tok.Text, rest)
	case tok.Text == kwDisplay:
		return parsePrint(rest)
	case tok.Text == lparen:
		return ReadSeq(rest)
	case tok.Text == rparen:
		return nil, nil, types.NewSyntaxError("unexpected `)`")
	default:
		return parseAtom(tok.Text), rest, nil
	}
}

// ParseAll parses top-level expressions until tokens are exhausted.
//
// Arithmetic forms take exactly two operands, so in "- 10 3 2" the 2 is not
// part of the subtraction. A number, string or symbol directly after an
// expression that ends in an arithmetic form is rejected as a SyntaxError
// instead of being evaluated on its own; ( - 10 3 2 ) is the variadic call.
func ParseAll(tokens []Token) ([]types.Expr, error) {
	var exprs []types.Expr
	for len(tokens) > 0 {
		e, rest, err := Parse(tokens)
		if err != nil {
			return nil, err
		}
		if op, ok := trailingOp(e); ok && len(rest) > 0 {
			next, _, err := Parse(rest)
			if err == nil && isAtom(next) {
				return nil, types.NewSyntaxError(fmt.Sprintf(
					"extra operand `%s` after `%s`; `%s` takes two operands, use ( %s ... ) for more",
					next, op, op.Operator, op.Operator))
			}
		}
		exprs = append(exprs, e)
		tokens = rest
	}
	return exprs, nil
}

// trailingOp returns the arithmetic form that e ends with, if any.
func trailingOp(e types.Expr) (types.Op, bool) {
	switch n := e.(type) {
	case types.Op:
		return n, true
	case types.Let:
		return trailingOp(n.Value)
	case types.Assign:
		return trailingOp(n.Value)
	case types.Print:
		return trailingOp(n.Inner)
	case types.If:
		return trailingOp(n.Else)
	default:
		return types.Op{}, false
	}
}

func isAtom(e types.Expr) bool {
	switch e.(type) {
	case types.Number, types.String, types.Symbol:
		return true
	default:
		return false
	}
}

// ParseString tokenizes and parses every expression in input.
func ParseString(input string) ([]types.Expr, error) {
	return ParseAll(Tokenize(input))
}

// ReadSeq reads the items of a call form up to and including the closing
// parenthesis; the opening one has already been consumed. A bare operator in
// head position names the built-in of the same name rather than starting an
// arithmetic form, so ( + 1 2 3 ) is a call.
func ReadSeq(tokens []Token) (types.Expr, []Token, error) {
	var items []types.Expr
	xs := tokens

	for {
		if len(xs) == 0 {
			return nil, nil, types.NewSyntaxError("could not find closing `)`")
		}
		if next := xs[0]; !next.Quoted && next.Text == rparen {
			return types.List{Items: items}, xs[1:], nil
		}

		if len(items) == 0 && !xs[0].Quoted && isOperator(xs[0].Text) {
			items = append(items, types.NewSymbol(xs[0].Text))
			xs = xs[1:]
			continue
		}

		e, rest, err := Parse(xs)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, e)
		xs = rest
	}
}

func parseLet(tokens []Token) (types.Expr, []Token, error) {
	if len(tokens) == 0 {
		return nil, nil, types.NewSyntaxError("expected variable name after let")
	}
	name, rest := tokens[0], tokens[1:]

	if len(rest) == 0 {
		return nil, nil, types.NewSyntaxError("expected '=' after variable name")
	}
	if eq := rest[0]; eq.Quoted || eq.Text != kwAssign {
		return nil, nil, types.NewSyntaxError(fmt.Sprintf("expected '=', got %q", eq.Text))
	}

	value, rest, err := Parse(rest[1:])
	if err != nil {
		return nil, nil, err
	}
	return types.Let{Name: name.Text, Value: value}, rest, nil
}

func parseAssign(tokens []Token) (types.Expr, []Token, error) {
	if len(tokens) == 0 {
		return nil, nil, types.NewSyntaxError("expected variable name for assignment")
	}
	name := tokens[0]

	value, rest, err := Parse(tokens[1:])
	if err != nil {
		return nil, nil, err
	}
	return types.Assign{Name: name.Text, Value: value}, rest, nil
}

func parseIf(tokens []Token) (types.Expr, []Token, error) {
	cond, rest, err := Parse(tokens)
	if err != nil {
		return nil, nil, err
	}
	then, rest, err := Parse(rest)
	if err != nil {
		return nil, nil, err
	}
	els, rest, err := Parse(rest)
	if err != nil {
		return nil, nil, err
	}
	return types.If{Cond: cond, Then: then, Else: els}, rest, nil
}

func parseOp(op string, tokens []Token) (types.Expr, []Token, error) {
	if len(tokens) == 0 {
		return nil, nil, types.NewSyntaxError(fmt.Sprintf("`%s` expects two operands", op))
	}
	left, rest, err := Parse(tokens)
	if err != nil {
		return nil, nil, err
	}
	if len(rest) == 0 {
		return nil, nil, types.NewSyntaxError(fmt.Sprintf(
			"`%s` expects two operands, got only `%s`; use ( %s %s ) for a single argument", op, left, op, left))
	}
	right, rest, err := Parse(rest)
	if err != nil {
		return nil, nil, err
	}
	return types.Op{Operator: op, Left: left, Right: right}, rest, nil
}

func parsePrint(tokens []Token) (types.Expr, []Token, error) {
	inner, rest, err := Parse(tokens)
	if err != nil {
		return nil, nil, err
	}
	return types.Print{Inner: inner}, rest, nil
}

// parseAtom tries a numeric literal first and falls back to a symbol.
// Out-of-range literals saturate to an infinity or zero.
func parseAtom(text string) types.Expr {
	f, err := strconv.ParseFloat(text, 64)
	if err == nil || errors.Is(err, strconv.ErrRange) {
		return types.NewNumber(f)
	}
	return types.NewSymbol(text)
}

func isStringLiteral(text string) bool {
	return len(text) >= 2 && strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`)
}
