// Package mcp exposes the message search engine as Model Context Protocol
// tools over stdio.
package mcp

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wesm/textvault/internal/contacts"
	"github.com/wesm/textvault/internal/query"
)

// Tool name constants.
const (
	ToolSearchMessages          = "search_messages"
	ToolListConversations       = "list_conversations"
	ToolGetConversationMessages = "get_conversation_messages"
	ToolGetStats                = "get_stats"
	ToolFindContact             = "find_contact"
)

func withLimit(defaultDesc string) mcp.ToolOption {
	return mcp.WithNumber("limit",
		mcp.Description("Maximum results to return (default "+defaultDesc+")"),
	)
}

// Serve creates an MCP server with message archive tools and serves over
// stdio. book may be nil, in which case find_contact is not offered.
// It blocks until stdin is closed or the context is cancelled.
func Serve(ctx context.Context, engine query.Engine, book *contacts.Book) error {
	s := newServer(engine, book)
	stdio := server.NewStdioServer(s)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

func newServer(engine query.Engine, book *contacts.Book) *server.MCPServer {
	s := server.NewMCPServer(
		"textvault",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	h := &handlers{engine: engine, book: book}

	s.AddTool(searchMessagesTool(), h.searchMessages)
	s.AddTool(listConversationsTool(), h.listConversations)
	s.AddTool(getConversationMessagesTool(), h.getConversationMessages)
	s.AddTool(getStatsTool(), h.getStats)
	if book != nil {
		s.AddTool(findContactTool(), h.findContact)
	}
	return s
}

func searchMessagesTool() mcp.Tool {
	return mcp.NewTool(ToolSearchMessages,
		mcp.WithDescription("Search text messages. The query is free text matched case-insensitively against message bodies and may contain directives: FROM:<phone|email|handle>, AFTER:YYYY-MM-DD, BEFORE:YYYY-MM-DD, CONVERSATION:<id>. Quote values with spaces, e.g. FROM:\"(415) 555-0100\". Structured arguments are combined with the query."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("query",
			mcp.Description("Search text with optional directives (e.g. 'FROM:alice@example.com AFTER:2024-01-01 dinner')"),
		),
		mcp.WithString("from",
			mcp.Description("Sender phone number, email address or handle"),
		),
		mcp.WithString("after",
			mcp.Description("Only messages on or after this date (YYYY-MM-DD)"),
		),
		mcp.WithString("before",
			mcp.Description("Only messages on or before this date (YYYY-MM-DD)"),
		),
		mcp.WithNumber("conversation_id",
			mcp.Description("Only messages in this conversation (from list_conversations)"),
		),
		mcp.WithBoolean("only_from_me",
			mcp.Description("Only messages I sent"),
		),
		mcp.WithBoolean("only_with_attachments",
			mcp.Description("Only messages with attachments"),
		),
		mcp.WithString("conversation_kind",
			mcp.Description("Restrict to direct or group conversations"),
			mcp.Enum("all", "direct", "group"),
		),
		mcp.WithString("sort",
			mcp.Description("Date order (default desc, newest first)"),
			mcp.Enum("asc", "desc"),
		),
		withLimit("100"),
	)
}

func listConversationsTool() mcp.Tool {
	return mcp.NewTool(ToolListConversations,
		mcp.WithDescription("List conversations, most recent first, with their last message and whether they are direct or group chats."),
		mcp.WithReadOnlyHintAnnotation(true),
		withLimit("100"),
	)
}

func getConversationMessagesTool() mcp.Tool {
	return mcp.NewTool(ToolGetConversationMessages,
		mcp.WithDescription("Get the messages of one conversation, oldest first."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber("conversation_id",
			mcp.Required(),
			mcp.Description("Conversation ID (from list_conversations)"),
		),
		withLimit("1000"),
	)
}

func getStatsTool() mcp.Tool {
	return mcp.NewTool(ToolGetStats,
		mcp.WithDescription("Get archive overview: message, conversation, handle and attachment counts and the date range."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func findContactTool() mcp.Tool {
	return mcp.NewTool(ToolFindContact,
		mcp.WithDescription("Look up a contact by name and return its phone numbers and email addresses, for use as search_messages senders."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Contact name, matched case-insensitively"),
		),
	)
}
