// Package expression implements the side-effect-free expression language used by
// condition nodes: literals, variable references, and boolean, comparison and
// arithmetic operators. There are no function calls and no access to the host.
//
// "!" binds tighter than comparisons, so "!a == 1" reads as "(!a) == 1". The "not"
// keyword binds looser, so "not a == 1" reads as "!(a == 1)".
package expression

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokOperator
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// operators ordered longest first so the lexer is greedy.
var operators = []string{"===", "!==", "==", "!=", "<=", ">=", "&&", "||", "<", ">", "!", "+", "-", "*", "/", "%"}

func tokenize(src string) ([]token, error) {
	var tokens []token

	runes := []rune(src)
	i := 0

	for i < len(runes) {
		r := runes[i]

		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: i})
			i++
		case unicode.IsDigit(r) || (r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}

			if i < len(runes) && (runes[i] == 'e' || runes[i] == 'E') {
				i++
				if i < len(runes) && (runes[i] == '+' || runes[i] == '-') {
					i++
				}

				for i < len(runes) && unicode.IsDigit(runes[i]) {
					i++
				}
			}

			tokens = append(tokens, token{kind: tokNumber, text: string(runes[start:i]), pos: start})
		case r == '"' || r == '\'':
			start := i
			quote := r
			i++

			var sb strings.Builder

			closed := false

			for i < len(runes) {
				c := runes[i]
				if c == '\\' && i+1 < len(runes) {
					sb.WriteRune(unescape(runes[i+1]))
					i += 2

					continue
				}

				if c == quote {
					closed = true
					i++

					break
				}

				sb.WriteRune(c)
				i++
			}

			if !closed {
				return nil, &SyntaxError{Pos: start, Msg: "unterminated string literal"}
			}

			tokens = append(tokens, token{kind: tokString, text: sb.String(), pos: start})
		case isIdentStart(r):
			start := i
			for i < len(runes) && (isIdentPart(runes[i]) || (runes[i] == '.' && i+1 < len(runes) && isIdentPart(runes[i+1]))) {
				i++
			}

			tokens = append(tokens, token{kind: tokIdent, text: string(runes[start:i]), pos: start})
		default:
			op := matchOperator(runes[i:])
			if op == "" {
				return nil, &SyntaxError{Pos: i, Msg: "unexpected character " + string(r)}
			}

			tokens = append(tokens, token{kind: tokOperator, text: op, pos: i})
			i += len([]rune(op))
		}
	}

	tokens = append(tokens, token{kind: tokEOF, pos: len(runes)})

	return tokens, nil
}

func matchOperator(rest []rune) string {
	for _, op := range operators {
		if len(rest) >= len(op) && string(rest[:len(op)]) == op {
			return op
		}
	}

	return ""
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

func unescape(r rune) rune {
	switch r {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	default:
		return r
	}
}
