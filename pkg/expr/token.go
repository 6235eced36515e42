// Package expr implements the Flare tokenizer, parser and evaluator.
//
// A line of source is split into tokens by Tokenize, turned into expressions
// by Parse, and reduced to values by an Evaluator against a Scope.
package expr

// Token is one whitespace-separated word of source. Tokens are classified
// only by their spelling; Quoted marks text that came from a "..." literal
// so that it parses as a string even when it spells a keyword or a number.
type Token struct {
	Text   string
	Quoted bool
}

// Bare returns an unquoted token.
func Bare(text string) Token { return Token{Text: text} }

// Quote returns a token produced by a string literal.
func Quote(text string) Token { return Token{Text: text, Quoted: true} }

// String returns the token spelling, re-quoted for string literals.
func (t Token) String() string {
	if t.Quoted {
		return `"` + t.Text + `"`
	}
	return t.Text
}

// Texts returns the spellings of tokens.
func Texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Text
	}
	return out
}

// Keywords and punctuation recognised by the parser.
const (
	kwLet     = "let"
	kwAssign  = "="
	kwIf      = "if"
	kwDisplay = "display"
	lparen    = "("
	rparen    = ")"
)

// isOperator reports whether text is one of the binary arithmetic operators.
func isOperator(text string) bool {
	switch text {
	case "+", "-", "*", "/":
		return true
	default:
		return false
	}
}
