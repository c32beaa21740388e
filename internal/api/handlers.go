package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wesm/textvault/internal/query"
	"github.com/wesm/textvault/internal/search"
)

// maxBodyBytes bounds POST /search request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SearchResponse is returned by both search endpoints.
type SearchResponse struct {
	Query       string             `json:"query,omitempty"`
	Count       int                `json:"count"`
	Messages    []query.Message    `json:"messages"`
	Diagnostics search.Diagnostics `json:"diagnostics,omitempty"`
}

// ConversationsResponse lists chats.
type ConversationsResponse struct {
	Conversations []query.Conversation `json:"conversations"`
}

// MessagesResponse holds one conversation's messages, oldest first.
type MessagesResponse struct {
	ConversationID int64           `json:"conversation_id"`
	Messages       []query.Message `json:"messages"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, err string, message string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: message})
}

// writeQueryError logs err and maps it to a response. Store failures are
// never turned into empty results.
func (s *Server) writeQueryError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		writeError(w, http.StatusServiceUnavailable, "timeout", "Request canceled or timed out")
		return
	}
	s.logger.Error(op+" failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal_error", "Failed to "+op)
}

// limitParam parses ?limit=. Missing means 0 (the engine default); values
// that are not positive integers are rejected.
func limitParam(r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// handleStats returns archive statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats(r.Context())
	if err != nil {
		s.writeQueryError(w, r, "retrieve statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleSearchText runs a free-form query from ?q=.
func (s *Server) handleSearchText(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeError(w, http.StatusBadRequest, "missing_query", "Query parameter 'q' is required")
		return
	}

	res, err := s.engine.SearchText(r.Context(), q)
	if err != nil {
		s.writeQueryError(w, r, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{
		Query:       q,
		Count:       res.Count(),
		Messages:    res.Messages,
		Diagnostics: res.Diagnostics,
	})
}

// handleSearch runs a structured search from a JSON body.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var p search.Params
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid search request: "+err.Error())
		return
	}

	res, err := s.engine.Search(r.Context(), p)
	if err != nil {
		s.writeQueryError(w, r, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{
		Query:       p.Query,
		Count:       res.Count(),
		Messages:    res.Messages,
		Diagnostics: res.Diagnostics,
	})
}

// handleListConversations returns chats, most recent first.
func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
		return
	}

	convs, err := s.engine.ListConversations(r.Context(), limit)
	if err != nil {
		s.writeQueryError(w, r, "list conversations", err)
		return
	}
	if convs == nil {
		convs = []query.Conversation{}
	}
	writeJSON(w, http.StatusOK, ConversationsResponse{Conversations: convs})
}

// handleConversationMessages returns one chat's messages.
func (s *Server) handleConversationMessages(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "Conversation ID must be a number")
		return
	}
	limit, ok := limitParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
		return
	}

	msgs, err := s.engine.ConversationMessages(r.Context(), id, limit)
	if err != nil {
		s.writeQueryError(w, r, "retrieve messages", err)
		return
	}
	if msgs == nil {
		msgs = []query.Message{}
	}
	writeJSON(w, http.StatusOK, MessagesResponse{ConversationID: id, Messages: msgs})
}

// handleContacts returns the loaded address book.
func (s *Server) handleContacts(w http.ResponseWriter, r *http.Request) {
	if s.book == nil {
		writeError(w, http.StatusServiceUnavailable, "contacts_unavailable", "Address book not loaded")
		return
	}
	writeJSON(w, http.StatusOK, s.book)
}
