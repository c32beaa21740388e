package search

import (
	"iter"
	"strings"
	"unicode"
)

// TokenKind identifies the lexical class of a Token.
type TokenKind int

const (
	TokenText       TokenKind = iota // free-text segment (may still hold a directive)
	TokenDirective                   // KEY:value recognized by the extractor
	TokenGroupStart                  // "("
	TokenGroupEnd                    // ")"
)

func (k TokenKind) String() string {
	switch k {
	case TokenText:
		return "Text"
	case TokenDirective:
		return "Directive"
	case TokenGroupStart:
		return "GroupStart"
	case TokenGroupEnd:
		return "GroupEnd"
	default:
		return "Unknown"
	}
}

// Token is one lexical piece of a query string.
//
// Text holds the raw segment exactly as typed (quotes included, escapes
// resolved). Key and Value are only set for TokenDirective. Depth is the
// parenthesis nesting level the token was produced at; 0 means the token is
// not inside any group. Unterminated marks a segment whose quote was never
// closed; OpenQuote is then the byte offset of that quote in Text.
type Token struct {
	Kind         TokenKind
	Text         string
	Key          string
	Value        string
	Depth        int
	Unterminated bool
	OpenQuote    int
}

// InGroup reports whether the token sits inside a parenthesized group.
func (t Token) InGroup() bool {
	return t.Depth > 0
}

type lexState int

const (
	stateNormal lexState = iota
	stateInQuotes
)

// Tokenize splits a query into tokens.
//
// Segments are delimited by unquoted whitespace. A double quote opens a
// quoted span that runs to the next unescaped double quote (or the end of
// input when unterminated); inside it, whitespace and parentheses are
// literal and a backslash escapes the following rune. Outside quotes, "("
// and ")" delimit segments and emit group markers. Nesting is tracked with a
// counter; a ")" with no open group is emitted as a GroupEnd and leaves the
// depth at zero.
//
// The returned sequence is lazy and may be ranged over any number of times.
func Tokenize(s string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		var (
			cur     strings.Builder
			state   = stateNormal
			depth   = 0
			escaped = false
			quoteAt = 0
		)

		flush := func() bool {
			if cur.Len() == 0 {
				return true
			}
			tok := Token{Kind: TokenText, Text: cur.String(), Depth: depth}
			cur.Reset()
			return yield(tok)
		}

		for _, r := range s {
			switch state {
			case stateInQuotes:
				switch {
				case escaped:
					cur.WriteRune(r)
					escaped = false
				case r == '\\':
					escaped = true
				case r == '"':
					cur.WriteRune(r)
					state = stateNormal
				default:
					cur.WriteRune(r)
				}

			case stateNormal:
				switch {
				case unicode.IsSpace(r):
					if !flush() {
						return
					}
				case r == '"':
					quoteAt = cur.Len()
					cur.WriteRune(r)
					state = stateInQuotes
				case r == '(':
					if !flush() {
						return
					}
					depth++
					if !yield(Token{Kind: TokenGroupStart, Text: "(", Depth: depth}) {
						return
					}
				case r == ')':
					if !flush() {
						return
					}
					if !yield(Token{Kind: TokenGroupEnd, Text: ")", Depth: depth}) {
						return
					}
					if depth > 0 {
						depth--
					}
				default:
					cur.WriteRune(r)
				}
			}
		}

		if state == stateInQuotes && cur.Len() > 0 {
			yield(Token{Kind: TokenText, Text: cur.String(), Depth: depth, Unterminated: true, OpenQuote: quoteAt})
			return
		}
		flush()
	}
}

// Tokens collects Tokenize(s) into a slice.
func Tokens(s string) []Token {
	var out []Token
	for tok := range Tokenize(s) {
		out = append(out, tok)
	}
	return out
}
