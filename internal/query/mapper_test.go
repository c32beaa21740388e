package query

import (
	"database/sql"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wesm/textvault/internal/search"
	"github.com/wesm/textvault/internal/testutil/ptr"
)

func nullStr(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }
func nullInt(v int64) sql.NullInt64   { return sql.NullInt64{Int64: v, Valid: true} }

func TestMapRow(t *testing.T) {
	apple := search.UnixToStore(1700000000)

	tests := []struct {
		name     string
		row      messageRow
		resolver SenderResolver
		want     Message
	}{
		{
			name: "null text uses placeholder and null date is zero",
			row:  messageRow{id: 1},
			want: Message{ID: 1, Text: EmptyTextPlaceholder},
		},
		{
			name: "empty text is kept",
			row:  messageRow{id: 2, text: nullStr("")},
			want: Message{ID: 2, Text: ""},
		},
		{
			name: "incoming with sender",
			row: messageRow{
				id:       3,
				text:     nullStr("hi"),
				date:     nullInt(apple),
				isFromMe: nullInt(0),
				chatID:   nullInt(9),
				handle:   nullStr("+14155550100"),
				senderID: nullStr("(415) 555-0100"),
			},
			want: Message{
				ID:             3,
				Text:           "hi",
				Date:           1700000000,
				ConversationID: ptr.Int64(9),
				Sender:         ptr.String("(415) 555-0100"),
				SenderHandle:   ptr.String("(415) 555-0100"),
			},
		},
		{
			name: "resolver matches uncanonicalized handle",
			row: messageRow{
				id:       4,
				text:     nullStr("hi"),
				handle:   nullStr("+14155550100"),
				senderID: nullStr("(415) 555-0100"),
			},
			resolver: mapResolver{"(415) 555-0100": "Alice"},
			want: Message{
				ID:           4,
				Text:         "hi",
				Sender:       ptr.String("Alice"),
				SenderHandle: ptr.String("(415) 555-0100"),
			},
		},
		{
			name: "from me drops sender",
			row: messageRow{
				id:         5,
				text:       nullStr("ok"),
				isFromMe:   nullInt(1),
				senderID:   nullStr("me@example.com"),
				attachment: nullStr("a.png"),
			},
			want: Message{ID: 5, Text: "ok", IsFromMe: true, Attachment: ptr.String("a.png")},
		},
		{
			name: "invalid utf-8 repaired",
			row:  messageRow{id: 6, text: nullStr("caf\xe9")},
			want: Message{ID: 6, Text: "café"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapRow(tt.row, tt.resolver)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mapRow mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
