package query

import (
	"database/sql"
	"fmt"

	"github.com/wesm/textvault/internal/search"
	"github.com/wesm/textvault/internal/textutil"
)

// SenderResolver maps a raw handle identifier (phone number or email) to a
// display name. contacts.Book provides one built from the AddressBook.
type SenderResolver interface {
	ResolveSender(handle string) (name string, ok bool)
}

// messageRow holds one scanned row of Composed.SQL().
type messageRow struct {
	id         int64
	text       sql.NullString
	date       sql.NullInt64
	isFromMe   sql.NullInt64
	chatID     sql.NullInt64
	handle     sql.NullString
	senderID   sql.NullString
	attachment sql.NullString
}

func (r *messageRow) dest() []any {
	return []any{
		&r.id,
		&r.text,
		&r.date,
		&r.isFromMe,
		&r.chatID,
		&r.handle,
		&r.senderID,
		&r.attachment,
	}
}

// mapRow converts a scanned row into a Message. resolver may be nil.
func mapRow(r messageRow, resolver SenderResolver) Message {
	msg := Message{
		ID:       r.id,
		Text:     EmptyTextPlaceholder,
		IsFromMe: r.isFromMe.Valid && r.isFromMe.Int64 == 1,
	}
	if r.text.Valid {
		msg.Text = textutil.CleanMessageText([]byte(r.text.String))
	}
	if r.date.Valid {
		msg.Date = search.StoreToUnix(r.date.Int64)
	}
	if r.chatID.Valid {
		id := r.chatID.Int64
		msg.ConversationID = &id
	}
	if r.attachment.Valid && r.attachment.String != "" {
		a := r.attachment.String
		msg.Attachment = &a
	}

	if !msg.IsFromMe && r.senderID.Valid && r.senderID.String != "" {
		handle := r.senderID.String
		msg.SenderHandle = &handle
		name := handle
		if resolver != nil {
			if resolved, ok := resolveHandle(resolver, r.handle, r.senderID); ok {
				name = resolved
			}
		}
		msg.Sender = &name
	}
	return msg
}

// resolveHandle tries the canonical handle first, then the uncanonicalized
// form, since AddressBook entries may match either.
func resolveHandle(resolver SenderResolver, handles ...sql.NullString) (string, bool) {
	for _, h := range handles {
		if !h.Valid || h.String == "" {
			continue
		}
		if name, ok := resolver.ResolveSender(h.String); ok {
			return name, true
		}
	}
	return "", false
}

// scanMessages reads every row, skipping rows that fail to decode. Each
// skipped row is reported as a row_skipped diagnostic. Only iteration
// errors from the driver are returned.
func scanMessages(rows *sql.Rows, resolver SenderResolver) ([]Message, search.Diagnostics, error) {
	messages := []Message{}
	var diags search.Diagnostics
	n := 0
	for rows.Next() {
		n++
		var r messageRow
		if err := rows.Scan(r.dest()...); err != nil {
			diags = append(diags, search.Diagnostic{
				Kind:   search.DiagRowSkipped,
				Input:  fmt.Sprintf("row %d", n),
				Detail: err.Error(),
			})
			continue
		}
		messages = append(messages, mapRow(r, resolver))
	}
	if err := rows.Err(); err != nil {
		return nil, diags, err
	}
	return messages, diags, nil
}
