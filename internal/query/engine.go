package query

import (
	"context"

	"github.com/wesm/textvault/internal/search"
)

// Engine provides read-only query operations over a message archive.
// SQLiteEngine is the implementation backed by chat.db; querytest.MockEngine
// is a test double.
type Engine interface {
	// Search runs a structured search request.
	Search(ctx context.Context, p search.Params) (*SearchResult, error)

	// SearchText runs a free-form query with FROM:, AFTER:, BEFORE: and
	// CONVERSATION: directives. Parse diagnostics are included in the result.
	SearchText(ctx context.Context, raw string) (*SearchResult, error)

	// ListConversations returns chats ordered by most recent message.
	ListConversations(ctx context.Context, limit int) ([]Conversation, error)

	// ConversationMessages returns a chat's messages oldest first.
	ConversationMessages(ctx context.Context, chatID int64, limit int) ([]Message, error)

	// Stats returns overall archive counts.
	Stats(ctx context.Context) (*Stats, error)

	// Close releases any resources held by the engine.
	Close() error
}
