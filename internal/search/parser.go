// Package search interprets message search input.
//
// Free-form queries are tokenized (Tokenize), keyed directives are picked out
// of the tokens (Classify, Parse), and the result is lowered into the same
// structured Params a UI sends directly. Normalize turns Params into Filters
// that the query package composes into parameterized SQL.
package search

import (
	"iter"
	"strings"
	"time"
)

// Directive keys understood in free-form queries.
const (
	KeyAfter        = "AFTER"
	KeyBefore       = "BEFORE"
	KeyFrom         = "FROM"
	KeyConversation = "CONVERSATION"
)

// Query is the result of parsing a free-form query string.
// Values are kept as typed; Params lowers them for normalization.
type Query struct {
	TextTerms      []string // free-text terms outside any group, in order
	Senders        []string // FROM: values, in order
	After          string   // last valid AFTER: date
	Before         string   // last valid BEFORE: date
	ConversationID *string  // last CONVERSATION: value, unvalidated

	Diagnostics Diagnostics
}

// Text returns the free-text terms joined by single spaces.
func (q *Query) Text() string {
	return strings.Join(q.TextTerms, " ")
}

// IsEmpty returns true if the query has no search criteria.
func (q *Query) IsEmpty() bool {
	return len(q.TextTerms) == 0 &&
		len(q.Senders) == 0 &&
		q.After == "" &&
		q.Before == "" &&
		q.ConversationID == nil
}

// Params lowers the parsed query into the structured request form. Each FROM:
// value becomes its own contact so classification happens in one place.
func (q *Query) Params() Params {
	p := Params{
		Query:     q.Text(),
		StartDate: q.After,
		EndDate:   q.Before,
	}
	if q.ConversationID != nil {
		id := *q.ConversationID
		p.ConversationID = &id
	}
	for _, s := range q.Senders {
		p.Contacts = append(p.Contacts, ContactParam{ID: s})
	}
	return p
}

// directiveFn applies a directive value to the query.
type directiveFn func(q *Query, tok Token)

// directives maps upper-case directive keys to their handlers.
var directives = map[string]directiveFn{
	KeyFrom: func(q *Query, tok Token) {
		q.Senders = append(q.Senders, tok.Value)
	},
	KeyAfter: func(q *Query, tok Token) {
		if validDate(tok.Value) {
			q.After = tok.Value
			return
		}
		q.Diagnostics.add(DiagMalformedDate, tok.Text, "expected %s; directive ignored", DateLayout)
	},
	KeyBefore: func(q *Query, tok Token) {
		if validDate(tok.Value) {
			q.Before = tok.Value
			return
		}
		q.Diagnostics.add(DiagMalformedDate, tok.Text, "expected %s; directive ignored", DateLayout)
	},
	KeyConversation: func(q *Query, tok Token) {
		v := tok.Value
		q.ConversationID = &v
	},
}

// Classify converts text tokens of the form KEY:value into directive tokens.
// Keys are matched case-insensitively and reported upper-case. A value
// wrapped in double quotes has them removed. Fully quoted segments are never
// directives.
func Classify(tokens iter.Seq[Token]) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for tok := range tokens {
			if tok.Kind == TokenText {
				tok = classifyToken(tok)
			}
			if !yield(tok) {
				return
			}
		}
	}
}

func classifyToken(tok Token) Token {
	if isQuotedPhrase(tok.Text) {
		return tok
	}
	idx := strings.IndexByte(tok.Text, ':')
	if idx <= 0 {
		return tok
	}
	key := strings.ToUpper(tok.Text[:idx])
	if _, ok := directives[key]; !ok {
		return tok
	}
	tok.Kind = TokenDirective
	tok.Key = key
	tok.Value = unquote(tok.Text[idx+1:])
	return tok
}

// Parse parses a free-form query string.
//
// Supported directives:
//   - FROM:<sender> - phone, email or handle; repeatable, any may match
//   - AFTER:<YYYY-MM-DD>, BEFORE:<YYYY-MM-DD> - date range, last one wins
//   - CONVERSATION:<id> - restrict to one chat, last one wins
//
// Bare words and "quoted phrases" form the free-text query. Terms inside
// parentheses are excluded from the free text and a literal OR there is
// ignored; directives inside parentheses still apply, so
// (FROM:alice@example.com OR FROM:bob@example.com) selects either sender.
func Parse(queryStr string) *Query {
	q := &Query{}

	for tok := range Classify(Tokenize(queryStr)) {
		switch tok.Kind {
		case TokenGroupStart, TokenGroupEnd:
			continue

		case TokenDirective:
			// An empty conversation still scopes the search, so it reaches
			// its handler and later fails closed.
			if tok.Value == "" && tok.Key != KeyConversation {
				q.Diagnostics.add(DiagEmptyDirective, tok.Text, "%s: has no value; directive ignored", tok.Key)
				continue
			}
			directives[tok.Key](q, tok)

		case TokenText:
			if tok.InGroup() {
				if tok.Text != "OR" {
					q.Diagnostics.add(DiagGroupedTerm, tok.Text, "grouped terms are not part of the text search")
				}
				continue
			}
			if term := unquoteText(tok); term != "" {
				q.TextTerms = append(q.TextTerms, term)
			}
		}
	}

	return q
}

// ParseParams parses a legacy free-form query straight into Params.
// The parse diagnostics are returned alongside.
func ParseParams(queryStr string) (Params, Diagnostics) {
	q := Parse(queryStr)
	return q.Params(), q.Diagnostics
}

func validDate(v string) bool {
	_, err := time.Parse(DateLayout, v)
	return err == nil
}

// unquote removes surrounding double quotes from a string if present.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// unquoteText unquotes a free-text term. A quote left open at the end of
// the input covers the rest of it, so that lone opening quote is dropped.
func unquoteText(tok Token) string {
	if tok.Unterminated {
		return tok.Text[:tok.OpenQuote] + tok.Text[tok.OpenQuote+1:]
	}
	return unquote(tok.Text)
}

// isQuotedPhrase returns true if the token is a double-quoted phrase.
func isQuotedPhrase(token string) bool {
	return len(token) >= 2 && token[0] == '"' && token[len(token)-1] == '"'
}
