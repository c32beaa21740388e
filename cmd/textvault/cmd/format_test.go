package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/wesm/textvault/internal/query"
	"github.com/wesm/textvault/internal/search"
	"github.com/wesm/textvault/internal/testutil/ptr"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"fits", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"ascii", "hello world", 8, "hello..."},
		{"tiny width has no ellipsis", "hello", 2, "he"},
		{"wide runes", "日本語のテキスト", 7, "日本..."},
		{"empty", "", 5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.width)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
			if w := runewidth.StringWidth(got); w > tt.width {
				t.Errorf("width %d exceeds %d", w, tt.width)
			}
		})
	}
}

func TestSingleLine(t *testing.T) {
	if got := singleLine("a\nb\t c\r\n"); got != "a b c" {
		t.Errorf("singleLine = %q", got)
	}
}

func TestFormatDate(t *testing.T) {
	if got := formatDate(0, time.UTC); got != "-" {
		t.Errorf("zero date = %q, want -", got)
	}
	ts := time.Date(2024, 1, 10, 12, 5, 0, 0, time.UTC).Unix()
	if got := formatDate(ts, time.UTC); got != "2024-01-10 12:05" {
		t.Errorf("formatDate = %q", got)
	}
	tokyo := time.FixedZone("JST", 9*3600)
	if got := formatDate(ts, tokyo); got != "2024-01-10 21:05" {
		t.Errorf("formatDate in +9 = %q", got)
	}
}

func TestSenderLabel(t *testing.T) {
	tests := []struct {
		msg  query.Message
		want string
	}{
		{query.Message{IsFromMe: true, Sender: ptr.String("x")}, "me"},
		{query.Message{Sender: ptr.String("Alice Smith")}, "Alice Smith"},
		{query.Message{}, "?"},
	}
	for _, tt := range tests {
		if got := senderLabel(tt.msg); got != tt.want {
			t.Errorf("senderLabel(%+v) = %q, want %q", tt.msg, got, tt.want)
		}
	}
}

func TestWriteMessageTable(t *testing.T) {
	msgs := []query.Message{
		{ID: 1, Text: "Lunch\ntomorrow?", Date: time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC).Unix(),
			ConversationID: ptr.Int64(3), Sender: ptr.String("Alice Smith")},
		{ID: 2, Text: query.EmptyTextPlaceholder, IsFromMe: true, Attachment: ptr.String("photo.jpg")},
	}

	var buf bytes.Buffer
	writeMessageTable(&buf, msgs, nil, true)
	out := buf.String()

	for _, want := range []string{"CONV", "Lunch tomorrow?", "Alice Smith", "2024-01-10 12:00", "[photo.jpg]", "me"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	writeMessageTable(&buf, msgs, time.UTC, false)
	if strings.Contains(buf.String(), "CONV") {
		t.Errorf("conversation column shown for a single conversation:\n%s", buf.String())
	}
}

func TestPrintDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	printDiagnostics(&buf, search.Diagnostics{
		{Kind: search.DiagMalformedDate, Input: "AFTER:2024-13-01", Detail: "expected YYYY-MM-DD; directive ignored"},
	})
	if got := buf.String(); !strings.Contains(got, "malformed_date") || !strings.HasPrefix(got, "note: ") {
		t.Errorf("printDiagnostics = %q", got)
	}
}
