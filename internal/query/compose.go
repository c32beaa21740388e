package query

import (
	"fmt"
	"strings"

	"github.com/wesm/textvault/internal/search"
	"github.com/wesm/textvault/internal/textutil"
)

// chat.style values.
const (
	styleGroup  = 43
	styleDirect = 45
)

// phonePunctuation is stripped from handle columns before comparing phone
// digits. It mirrors the characters textutil.LooksLikePhone accepts.
var phonePunctuation = []string{"+", "-", "(", ")", ".", " "}

// digitsExpr wraps a column in nested REPLACE calls that remove phone
// punctuation, so "+1 (415) 555-0100" compares as "14155550100".
func digitsExpr(col string) string {
	expr := col
	for _, p := range phonePunctuation {
		expr = fmt.Sprintf("REPLACE(%s, '%s', '')", expr, p)
	}
	return expr
}

// Composed is a search compiled to SQL. Clauses are ANDed in order and
// Args are bound to their placeholders positionally; no filter value is
// ever interpolated into the statement text.
type Composed struct {
	Clauses []string
	Args    []any
	Order   search.SortOrder
	Limit   int

	// Empty is set when the filters can match nothing (an unparseable
	// conversation id). The statement must not be executed.
	Empty bool
}

// Compose builds the WHERE clauses and arguments for f. Clause order is
// fixed: text, date after, date before, senders, conversation, from me,
// attachments, conversation kind.
func Compose(f search.Filters) Composed {
	c := Composed{Order: f.Sort, Limit: search.ClampLimit(f.Limit)}

	if f.InvalidConversation {
		c.Empty = true
		return c
	}

	if f.TextPattern != nil {
		c.add("m.text LIKE ?", *f.TextPattern)
	}
	if f.After != nil {
		c.add("m.date >= ?", *f.After)
	}
	if f.Before != nil {
		c.add("m.date <= ?", *f.Before)
	}

	if len(f.Senders) > 0 {
		var parts []string
		for _, s := range f.Senders {
			clause, arg := senderClause(s)
			parts = append(parts, clause)
			c.Args = append(c.Args, arg, arg)
		}
		if len(parts) == 1 {
			c.Clauses = append(c.Clauses, parts[0])
		} else {
			c.Clauses = append(c.Clauses, "("+strings.Join(parts, " OR ")+")")
		}
	}

	if f.ConversationID != nil {
		c.add("cmj.chat_id = ?", *f.ConversationID)
	}
	if f.OnlyFromMe {
		c.add("m.is_from_me = ?", 1)
	}
	if f.OnlyWithAttachments {
		c.add("m.cache_has_attachments = ?", 1)
	}
	switch f.Kind {
	case search.KindDirect:
		c.add("c.style = ?", styleDirect)
	case search.KindGroup:
		c.add("c.style = ?", styleGroup)
	}

	return c
}

func (c *Composed) add(clause string, arg any) {
	c.Clauses = append(c.Clauses, clause)
	c.Args = append(c.Args, arg)
}

// senderClause returns the condition for one matcher and the argument bound
// to both of its placeholders (handle id and uncanonicalized id).
func senderClause(s search.SenderMatcher) (string, any) {
	switch s.Kind {
	case search.MatchPhoneDigits:
		return fmt.Sprintf("(%s LIKE ? OR %s LIKE ?)", digitsExpr("h.id"), digitsExpr("h.uncanonicalized_id")),
			"%" + textutil.PhoneSuffix(s.Value)
	case search.MatchEmail:
		return "(LOWER(h.id) = ? OR LOWER(h.uncanonicalized_id) = ?)", s.Value
	default:
		return "(h.id LIKE ? OR h.uncanonicalized_id LIKE ?)", "%" + s.Value + "%"
	}
}

// Where returns the clauses joined with AND, or "1=1" when there are none.
func (c Composed) Where() string {
	if len(c.Clauses) == 0 {
		return "1=1"
	}
	return strings.Join(c.Clauses, " AND ")
}

// OrderBy returns the ORDER BY expression. ROWID breaks ties between
// messages with the same date so paging is stable.
func (c Composed) OrderBy() string {
	dir := "DESC"
	if c.Order == search.SortAscending {
		dir = "ASC"
	}
	return fmt.Sprintf("m.date %s, m.ROWID %s", dir, dir)
}

// SQL renders the full SELECT over the chat.db schema.
// Columns are listed in the order scanMessage expects.
func (c Composed) SQL() string {
	return fmt.Sprintf(`
		SELECT
			m.ROWID,
			m.text,
			m.date,
			m.is_from_me,
			cmj.chat_id,
			h.id,
			COALESCE(h.uncanonicalized_id, h.id),
			(
				SELECT a.filename
				FROM message_attachment_join maj
				JOIN attachment a ON a.ROWID = maj.attachment_id
				WHERE maj.message_id = m.ROWID
				ORDER BY a.ROWID
				LIMIT 1
			)
		FROM message m
		JOIN chat_message_join cmj ON cmj.message_id = m.ROWID
		LEFT JOIN chat c ON c.ROWID = cmj.chat_id
		LEFT JOIN handle h ON h.ROWID = m.handle_id
		WHERE %s
		ORDER BY %s
		LIMIT ?
	`, c.Where(), c.OrderBy())
}

// QueryArgs returns Args followed by the LIMIT value, matching SQL().
func (c Composed) QueryArgs() []any {
	args := make([]any, 0, len(c.Args)+1)
	args = append(args, c.Args...)
	return append(args, c.Limit)
}
