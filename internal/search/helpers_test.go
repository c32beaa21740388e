package search

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// assertQueryEqual compares two Query structs, treating nil slices and empty
// slices as equivalent. Diagnostics are compared separately by callers.
func assertQueryEqual(t *testing.T, got, want Query) {
	t.Helper()
	opts := cmp.Options{cmpopts.EquateEmpty(), cmpopts.IgnoreFields(Query{}, "Diagnostics")}
	if diff := cmp.Diff(want, got, opts); diff != "" {
		t.Errorf("Query mismatch (-want +got):\n%s", diff)
	}
}

// diagKinds returns the kinds of ds in order.
func diagKinds(ds Diagnostics) []DiagnosticKind {
	kinds := make([]DiagnosticKind, len(ds))
	for i, d := range ds {
		kinds[i] = d.Kind
	}
	return kinds
}

func strPtr(s string) *string { return &s }
func i64Ptr(v int64) *int64   { return &v }
