package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wesm/textvault/internal/contacts"
	"github.com/wesm/textvault/internal/query"
	"github.com/wesm/textvault/internal/search"
)

const maxLimit = search.MaxLimit

type handlers struct {
	engine query.Engine
	book   *contacts.Book
}

// getIDArg extracts a required non-negative integer ID from the arguments map.
func getIDArg(args map[string]any, key string) (int64, error) {
	v, ok := args[key].(float64)
	if !ok {
		return 0, fmt.Errorf("%s parameter is required", key)
	}
	if v != math.Trunc(v) || v < 0 || v > math.MaxInt64 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return int64(v), nil
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// searchParams combines the free-text query (with its directives) and the
// structured arguments into one request. Structured dates and conversation
// replace the query's; a structured sender is added to the query's senders.
// Any sender, from either source, that names a known contact expands to all
// of that contact's handles.
func (h *handlers) searchParams(args map[string]any) (search.Params, search.Diagnostics, error) {
	p, diags := search.ParseParams(stringArg(args, "query"))

	if v := stringArg(args, "after"); v != "" {
		p.StartDate = v
	}
	if v := stringArg(args, "before"); v != "" {
		p.EndDate = v
	}
	if v := stringArg(args, "from"); v != "" {
		p.Contacts = append(p.Contacts, search.ContactParam{ID: v})
	}
	if _, ok := args["conversation_id"]; ok {
		id, err := getIDArg(args, "conversation_id")
		if err != nil {
			return search.Params{}, nil, err
		}
		conv := strconv.FormatInt(id, 10)
		p.ConversationID = &conv
	}
	if v, ok := args["only_from_me"].(bool); ok {
		p.OnlyFromMe = v
	}
	if v, ok := args["only_with_attachments"].(bool); ok {
		p.OnlyWithAttachments = v
	}
	p.ConversationKind = stringArg(args, "conversation_kind")
	p.Sort = stringArg(args, "sort")
	p.Limit = intArg(args, "limit", 0)

	if h.book != nil {
		for i, c := range p.Contacts {
			if c.ID == "" {
				continue
			}
			if named, ok := h.book.Find(c.ID); ok {
				p.Contacts[i] = named
			}
		}
	}
	return p, diags, nil
}

func (h *handlers) searchMessages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, parseDiags, err := h.searchParams(req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := h.engine.Search(ctx, p)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	resp := struct {
		Count       int                `json:"count"`
		Messages    []query.Message    `json:"messages"`
		Diagnostics search.Diagnostics `json:"diagnostics,omitempty"`
	}{
		Count:       res.Count(),
		Messages:    res.Messages,
		Diagnostics: append(parseDiags, res.Diagnostics...),
	}
	return jsonResult(resp)
}

func (h *handlers) listConversations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := intArg(req.GetArguments(), "limit", query.DefaultConversationLimit)

	convs, err := h.engine.ListConversations(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list conversations failed: %v", err)), nil
	}
	if convs == nil {
		convs = []query.Conversation{}
	}
	return jsonResult(convs)
}

func (h *handlers) getConversationMessages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	id, err := getIDArg(args, "conversation_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	msgs, err := h.engine.ConversationMessages(ctx, id, intArg(args, "limit", maxLimit))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get messages failed: %v", err)), nil
	}
	if msgs == nil {
		msgs = []query.Message{}
	}
	return jsonResult(msgs)
}

func (h *handlers) getStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.engine.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
	}
	return jsonResult(stats)
}

func (h *handlers) findContact(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := stringArg(req.GetArguments(), "name")
	if name == "" {
		return mcp.NewToolResultError("name parameter is required"), nil
	}
	c, ok := h.book.Find(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no contact named %q with a phone number or email", name)), nil
	}
	return jsonResult(c)
}

// intArg extracts a non-negative integer from a map, with a default.
// JSON numbers arrive as float64. Clamps to maxLimit to prevent excessive
// result sets.
func intArg(args map[string]any, key string, def int) int {
	v, ok := args[key].(float64)
	if !ok {
		return def
	}
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if math.IsInf(v, 1) || v > float64(maxLimit) {
		return maxLimit
	}
	return int(v)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
