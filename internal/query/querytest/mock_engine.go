// Package querytest provides shared test doubles for the query.Engine interface.
package querytest

import (
	"context"

	"github.com/wesm/textvault/internal/query"
	"github.com/wesm/textvault/internal/search"
)

// MockEngine implements query.Engine for testing. Each method delegates to an
// optional function field; when the field is nil, the canned data is returned.
type MockEngine struct {
	SearchResult  *query.SearchResult
	Conversations []query.Conversation
	Messages      map[int64][]query.Message
	StatsResult   *query.Stats

	// Optional overrides, set per test.
	SearchFunc               func(context.Context, search.Params) (*query.SearchResult, error)
	SearchTextFunc           func(context.Context, string) (*query.SearchResult, error)
	ListConversationsFunc    func(context.Context, int) ([]query.Conversation, error)
	ConversationMessagesFunc func(context.Context, int64, int) ([]query.Message, error)
	StatsFunc                func(context.Context) (*query.Stats, error)

	// LastParams and LastText record the most recent search inputs.
	LastParams search.Params
	LastText   string
}

// Compile-time check.
var _ query.Engine = (*MockEngine)(nil)

func (m *MockEngine) Search(ctx context.Context, p search.Params) (*query.SearchResult, error) {
	m.LastParams = p
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, p)
	}
	return m.result(), nil
}

func (m *MockEngine) SearchText(ctx context.Context, raw string) (*query.SearchResult, error) {
	m.LastText = raw
	if m.SearchTextFunc != nil {
		return m.SearchTextFunc(ctx, raw)
	}
	return m.result(), nil
}

func (m *MockEngine) result() *query.SearchResult {
	if m.SearchResult != nil {
		return m.SearchResult
	}
	return &query.SearchResult{Messages: []query.Message{}}
}

func (m *MockEngine) ListConversations(ctx context.Context, limit int) ([]query.Conversation, error) {
	if m.ListConversationsFunc != nil {
		return m.ListConversationsFunc(ctx, limit)
	}
	convs := m.Conversations
	if limit > 0 && len(convs) > limit {
		convs = convs[:limit]
	}
	return convs, nil
}

func (m *MockEngine) ConversationMessages(ctx context.Context, chatID int64, limit int) ([]query.Message, error) {
	if m.ConversationMessagesFunc != nil {
		return m.ConversationMessagesFunc(ctx, chatID, limit)
	}
	msgs := m.Messages[chatID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

func (m *MockEngine) Stats(ctx context.Context) (*query.Stats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	if m.StatsResult != nil {
		return m.StatsResult, nil
	}
	return &query.Stats{}, nil
}

func (m *MockEngine) Close() error { return nil }
