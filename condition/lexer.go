package condition

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tkEOF tokenKind = iota
	tkLParen
	tkRParen
	tkString
	tkWord
	tkSymbol
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("condition: %s at offset %d", e.Msg, e.Offset)
}

// longest spellings first
var symbols = []string{"&&", "||", "!=", "==", ":=", ">=", "<=", "~~", "~/", "=|", "=", ">", "<", "~", "!"}

func symbolAt(s string, i int) string {
	for _, sym := range symbols {
		if strings.HasPrefix(s[i:], sym) {
			return sym
		}
	}
	return ""
}

func tokenize(s string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(s) {
		c, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case unicode.IsSpace(c):
			i += size
		case c == '(':
			tokens = append(tokens, token{kind: tkLParen, text: "(", pos: i})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tkRParen, text: ")", pos: i})
			i++
		case c == '"' || c == '\'':
			end := strings.IndexByte(s[i+1:], s[i])
			if end < 0 {
				return nil, &SyntaxError{Offset: i, Msg: "unterminated string"}
			}
			tokens = append(tokens, token{kind: tkString, text: s[i+1 : i+1+end], pos: i})
			i += end + 2
		default:
			if sym := symbolAt(s, i); sym != "" {
				tokens = append(tokens, token{kind: tkSymbol, text: sym, pos: i})
				i += len(sym)
				continue
			}
			start := i
			for i < len(s) {
				r, size := utf8.DecodeRuneInString(s[i:])
				if unicode.IsSpace(r) || r == '(' || r == ')' || r == '"' || r == '\'' || symbolAt(s, i) != "" {
					break
				}
				i += size
			}
			tokens = append(tokens, token{kind: tkWord, text: s[start:i], pos: start})
		}
	}
	tokens = append(tokens, token{kind: tkEOF, pos: len(s)})
	return tokens, nil
}
