package query

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/wesm/textvault/internal/search"
	"github.com/wesm/textvault/internal/textutil"
)

// DefaultConversationLimit bounds ListConversations when no limit is given.
const DefaultConversationLimit = 100

// SQLiteEngine implements Engine using direct queries against chat.db.
// It holds no per-search state, so one engine can serve concurrent requests
// over a shared *sql.DB pool.
type SQLiteEngine struct {
	db         *sql.DB
	logger     *slog.Logger
	resolver   SenderResolver
	normalizer *search.Normalizer
	limit      int // applied when a request has no limit; 0 means search.DefaultLimit
}

// Option configures a SQLiteEngine.
type Option func(*SQLiteEngine)

// WithLogger sets the logger used for debug output of composed statements.
func WithLogger(l *slog.Logger) Option {
	return func(e *SQLiteEngine) { e.logger = l }
}

// WithSenderResolver sets the resolver used to turn handles into names.
func WithSenderResolver(r SenderResolver) Option {
	return func(e *SQLiteEngine) { e.resolver = r }
}

// WithLocation sets the zone calendar dates in search requests are
// interpreted in. The default is UTC.
func WithLocation(loc *time.Location) Option {
	return func(e *SQLiteEngine) { e.normalizer = &search.Normalizer{Location: loc} }
}

// WithDefaultLimit sets the result limit for requests that do not give one.
func WithDefaultLimit(n int) Option {
	return func(e *SQLiteEngine) { e.limit = n }
}

// NewSQLiteEngine creates a new SQLite-backed query engine.
func NewSQLiteEngine(db *sql.DB, opts ...Option) *SQLiteEngine {
	e := &SQLiteEngine{
		db:         db,
		logger:     slog.Default(),
		normalizer: search.NewNormalizer(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Close is a no-op for SQLiteEngine since it doesn't own the connection.
func (e *SQLiteEngine) Close() error {
	return nil
}

// Search normalizes p and runs it.
func (e *SQLiteEngine) Search(ctx context.Context, p search.Params) (*SearchResult, error) {
	if p.Limit <= 0 {
		p.Limit = e.limit
	}
	f, diags := e.normalizer.Normalize(p)
	return e.run(ctx, f, diags)
}

// SearchText parses raw as a free-form query and runs it.
func (e *SQLiteEngine) SearchText(ctx context.Context, raw string) (*SearchResult, error) {
	p, parseDiags := search.ParseParams(raw)
	p.Limit = e.limit
	f, diags := e.normalizer.Normalize(p)
	return e.run(ctx, f, append(parseDiags, diags...))
}

// ConversationMessages returns the messages of one chat, oldest first. A
// non-positive limit returns up to search.MaxLimit messages.
func (e *SQLiteEngine) ConversationMessages(ctx context.Context, chatID int64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = search.MaxLimit
	}
	f := search.Filters{
		ConversationID: &chatID,
		Sort:           search.SortAscending,
		Limit:          limit,
	}
	res, err := e.run(ctx, f, nil)
	if err != nil {
		return nil, err
	}
	return res.Messages, nil
}

func (e *SQLiteEngine) run(ctx context.Context, f search.Filters, diags search.Diagnostics) (*SearchResult, error) {
	for _, d := range diags {
		e.logger.Debug("search input adjusted", "diagnostic", d.String())
	}

	c := Compose(f)
	if c.Empty {
		e.logger.Debug("search cannot match; skipping query")
		return &SearchResult{Messages: []Message{}, Diagnostics: diags}, nil
	}

	stmt := c.SQL()
	args := c.QueryArgs()
	e.logger.Debug("search query", "where", c.Where(), "args", args)

	rows, err := e.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, storeErr("search messages", err)
	}
	defer rows.Close()

	messages, rowDiags, err := scanMessages(rows, e.resolver)
	if err != nil {
		return nil, storeErr("iterate messages", err)
	}
	for _, d := range rowDiags {
		e.logger.Debug("skipped row", "diagnostic", d.String())
	}

	return &SearchResult{
		Messages:    messages,
		Diagnostics: append(diags, rowDiags...),
	}, nil
}

// ListConversations returns chats with their latest message, most recent
// first. Chats without messages sort last.
func (e *SQLiteEngine) ListConversations(ctx context.Context, limit int) ([]Conversation, error) {
	if limit <= 0 {
		limit = DefaultConversationLimit
	}

	// SQLite returns the bare columns of the row holding MAX(m.date).
	rows, err := e.db.QueryContext(ctx, `
		SELECT
			c.ROWID,
			c.display_name,
			c.style,
			(
				SELECT h.id
				FROM chat_handle_join chj
				JOIN handle h ON h.ROWID = chj.handle_id
				WHERE chj.chat_id = c.ROWID
				ORDER BY h.ROWID
				LIMIT 1
			),
			lm.text,
			lm.date
		FROM chat c
		LEFT JOIN (
			SELECT cmj.chat_id, m.text, MAX(m.date) AS date
			FROM chat_message_join cmj
			JOIN message m ON m.ROWID = cmj.message_id
			GROUP BY cmj.chat_id
		) lm ON lm.chat_id = c.ROWID
		ORDER BY lm.date IS NULL, lm.date DESC, c.ROWID
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, storeErr("list conversations", err)
	}
	defer rows.Close()

	convs := []Conversation{}
	for rows.Next() {
		var (
			id          int64
			displayName sql.NullString
			style       sql.NullInt64
			handle      sql.NullString
			lastText    sql.NullString
			lastDate    sql.NullInt64
		)
		if err := rows.Scan(&id, &displayName, &style, &handle, &lastText, &lastDate); err != nil {
			e.logger.Debug("skipped conversation row", "error", err)
			continue
		}

		conv := Conversation{
			ID:   id,
			Name: e.conversationName(displayName, handle),
			Kind: kindFromStyle(style),
		}
		if lastText.Valid {
			text := textutil.CleanMessageText([]byte(lastText.String))
			conv.LastMessage = &text
		}
		if lastDate.Valid && lastDate.Int64 > 0 {
			conv.LastMessageDate = search.StoreToUnix(lastDate.Int64)
		}
		convs = append(convs, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate conversations", err)
	}
	return convs, nil
}

// conversationName prefers the chat's display name, then a contact name for
// its first handle, then the handle itself. Phone-like names collapse to
// their digits.
func (e *SQLiteEngine) conversationName(displayName, handle sql.NullString) *string {
	if displayName.Valid && strings.TrimSpace(displayName.String) != "" {
		name := collapseDigits(displayName.String)
		return &name
	}
	if !handle.Valid || handle.String == "" {
		return nil
	}
	if e.resolver != nil {
		if name, ok := e.resolver.ResolveSender(handle.String); ok {
			return &name
		}
	}
	name := collapseDigits(handle.String)
	return &name
}

// collapseDigits returns only the digits of s when s contains any, so
// "+1 (415) 555-0100" lists as "14155550100".
func collapseDigits(s string) string {
	if textutil.ContainsDigit(s) {
		return textutil.Digits(s)
	}
	return s
}

func kindFromStyle(style sql.NullInt64) string {
	if !style.Valid {
		return KindUnknown
	}
	switch style.Int64 {
	case styleGroup:
		return KindGroup
	case styleDirect:
		return KindDirect
	default:
		return KindUnknown
	}
}

// Stats returns counts over the whole archive.
func (e *SQLiteEngine) Stats(ctx context.Context) (*Stats, error) {
	var (
		stats       Stats
		first, last sql.NullInt64
	)
	err := e.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM message),
			(SELECT COUNT(*) FROM message WHERE is_from_me = 1),
			(SELECT COUNT(*) FROM chat),
			(SELECT COUNT(*) FROM handle),
			(SELECT COUNT(*) FROM attachment),
			(SELECT MIN(date) FROM message WHERE date > 0),
			(SELECT MAX(date) FROM message)
	`).Scan(
		&stats.Messages,
		&stats.FromMe,
		&stats.Conversations,
		&stats.Handles,
		&stats.Attachments,
		&first,
		&last,
	)
	if err != nil {
		return nil, storeErr("stats", err)
	}
	if first.Valid {
		stats.FirstMessage = search.StoreToUnix(first.Int64)
	}
	if last.Valid {
		stats.LastMessage = search.StoreToUnix(last.Int64)
	}
	return &stats, nil
}
