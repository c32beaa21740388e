package search

import "fmt"

// DiagnosticKind classifies a skipped or ignored piece of input.
type DiagnosticKind string

const (
	DiagEmptyDirective      DiagnosticKind = "empty_directive"
	DiagMalformedDate       DiagnosticKind = "malformed_date"
	DiagInvertedRange       DiagnosticKind = "inverted_range"
	DiagInvalidConversation DiagnosticKind = "invalid_conversation"
	DiagEmptySender         DiagnosticKind = "empty_sender"
	DiagGroupedTerm         DiagnosticKind = "grouped_term_dropped"
	DiagRowSkipped          DiagnosticKind = "row_skipped"
)

// Diagnostic records input that was dropped or adjusted instead of failing
// the whole search. Searches are permissive: a bad date in one directive does
// not stop the rest of the query from running, but callers can still see
// what was ignored.
type Diagnostic struct {
	Kind   DiagnosticKind `json:"kind"`
	Input  string         `json:"input,omitempty"`
	Detail string         `json:"detail,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Input == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Detail)
	}
	return fmt.Sprintf("%s %q: %s", d.Kind, d.Input, d.Detail)
}

// Diagnostics is an append-only list of diagnostics.
type Diagnostics []Diagnostic

func (ds *Diagnostics) add(kind DiagnosticKind, input, format string, args ...any) {
	*ds = append(*ds, Diagnostic{Kind: kind, Input: input, Detail: fmt.Sprintf(format, args...)})
}

// Has reports whether any diagnostic of the given kind was recorded.
func (ds Diagnostics) Has(kind DiagnosticKind) bool {
	for _, d := range ds {
		if d.Kind == kind {
			return true
		}
	}
	return false
}
