package query

import (
	"context"
	"testing"

	"github.com/wesm/textvault/internal/search"
	"github.com/wesm/textvault/internal/testutil/dbtest"
)

// testEnv encapsulates the DB, Engine, and Context setup for tests.
type testEnv struct {
	*dbtest.TestDB
	Engine *SQLiteEngine
	Ctx    context.Context
}

// newTestEnv creates a test environment with an in-memory chat.db and the
// standard data set.
func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	tdb := dbtest.NewTestDB(t)
	tdb.SeedStandardDataSet()
	return &testEnv{
		TestDB: tdb,
		Engine: NewSQLiteEngine(tdb.DB, opts...),
		Ctx:    context.Background(),
	}
}

// MustSearch calls Search and fails the test on error.
func (e *testEnv) MustSearch(p search.Params) *SearchResult {
	e.T.Helper()
	res, err := e.Engine.Search(e.Ctx, p)
	if err != nil {
		e.T.Fatalf("Search: %v", err)
	}
	return res
}

// MustSearchText calls SearchText and fails the test on error.
func (e *testEnv) MustSearchText(raw string) *SearchResult {
	e.T.Helper()
	res, err := e.Engine.SearchText(e.Ctx, raw)
	if err != nil {
		e.T.Fatalf("SearchText(%q): %v", raw, err)
	}
	return res
}

// messageIDs returns the IDs of msgs in order.
func messageIDs(msgs []Message) []int64 {
	ids := make([]int64, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}
	return ids
}

// mapResolver is a SenderResolver backed by a map.
type mapResolver map[string]string

func (r mapResolver) ResolveSender(handle string) (string, bool) {
	name, ok := r[handle]
	return name, ok
}
