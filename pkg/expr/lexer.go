package expr

import "strings"

// Tokenize splits a line into tokens. Whitespace separates tokens outside a
// string literal and is kept verbatim inside one. The closing quote emits the
// literal as a single token, even when it is empty. Tokenize never fails: an
// unterminated literal is flushed as a quoted token at end of input.
func Tokenize(input string) []Token {
	var (
		tokens   []Token
		acc      strings.Builder
		inString bool
	)

	for _, ch := range input {
		switch {
		case ch == '"':
			if inString {
				tokens = append(tokens, Quote(acc.String()))
				acc.Reset()
			}
			inString = !inString
		case isSpace(ch):
			if inString {
				acc.WriteRune(ch)
				continue
			}
			if acc.Len() > 0 {
				tokens = append(tokens, Bare(acc.String()))
				acc.Reset()
			}
		default:
			acc.WriteRune(ch)
		}
	}

	if acc.Len() > 0 {
		tokens = append(tokens, Token{Text: acc.String(), Quoted: inString})
	}
	return tokens
}

func isSpace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}
