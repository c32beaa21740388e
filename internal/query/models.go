// Package query provides the message query layer for textvault.
// It composes normalized search filters into parameterized SQL over the
// Messages chat.db schema and maps result rows into Message values.
// The Engine interface keeps callers (CLI, HTTP API, MCP) independent of
// the SQLite backend.
package query

import "github.com/wesm/textvault/internal/search"

// EmptyTextPlaceholder is shown for messages with no text body, which in
// chat.db are usually attachment-only messages or reactions.
const EmptyTextPlaceholder = "[Attachment or empty message]"

// Message is one message as returned by searches and conversation views.
type Message struct {
	ID             int64   `json:"id"`
	Text           string  `json:"text"`
	Date           int64   `json:"date"` // Unix seconds, 0 when unknown
	IsFromMe       bool    `json:"is_from_me"`
	ConversationID *int64  `json:"conversation_id,omitempty"`
	Sender         *string `json:"sender,omitempty"`        // display name when resolved, else the handle
	SenderHandle   *string `json:"sender_handle,omitempty"` // raw handle identifier
	Attachment     *string `json:"attachment,omitempty"`    // first attachment filename
}

// SearchResult holds the messages matched by a search plus any input that
// was dropped or adjusted while interpreting the request.
type SearchResult struct {
	Messages    []Message          `json:"messages"`
	Diagnostics search.Diagnostics `json:"diagnostics,omitempty"`
}

// Count returns the number of messages in the result.
func (r *SearchResult) Count() int {
	return len(r.Messages)
}

// Conversation kinds reported by ListConversations.
const (
	KindDirect  = "direct"
	KindGroup   = "group"
	KindUnknown = "unknown"
)

// Conversation summarizes one chat for list views.
type Conversation struct {
	ID              int64   `json:"id"`
	Name            *string `json:"name,omitempty"`
	LastMessage     *string `json:"last_message,omitempty"`
	LastMessageDate int64   `json:"last_message_date"` // Unix seconds, 0 when empty
	Kind            string  `json:"kind"`
}

// Stats provides overall database statistics.
type Stats struct {
	Messages      int64 `json:"messages"`
	FromMe        int64 `json:"from_me"`
	Conversations int64 `json:"conversations"`
	Handles       int64 `json:"handles"`
	Attachments   int64 `json:"attachments"`
	FirstMessage  int64 `json:"first_message"` // Unix seconds
	LastMessage   int64 `json:"last_message"`  // Unix seconds
}
