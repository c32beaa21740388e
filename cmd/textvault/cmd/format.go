package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"

	"github.com/wesm/textvault/internal/query"
	"github.com/wesm/textvault/internal/search"
)

const dateTimeLayout = "2006-01-02 15:04"

// stderrIsTerminal reports whether progress text can be drawn and erased.
func stderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// progress prints msg to stderr on a terminal and returns a func that
// erases it again.
func progress(msg string) func() {
	if !stderrIsTerminal() {
		return func() {}
	}
	fmt.Fprint(os.Stderr, msg)
	return func() {
		fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", runewidth.StringWidth(msg)))
	}
}

// truncate shortens s to at most maxWidth display columns, so wide (CJK,
// emoji) characters do not break table alignment.
func truncate(s string, maxWidth int) string {
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// singleLine collapses message text onto one line for table output.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// formatDate renders Unix seconds in loc, or "-" when unknown.
func formatDate(unix int64, loc *time.Location) string {
	if unix == 0 {
		return "-"
	}
	return time.Unix(unix, 0).In(loc).Format(dateTimeLayout)
}

// senderLabel names who sent m.
func senderLabel(m query.Message) string {
	switch {
	case m.IsFromMe:
		return "me"
	case m.Sender != nil:
		return *m.Sender
	default:
		return "?"
	}
}

func derefOr(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

func printDiagnostics(w io.Writer, diags search.Diagnostics) {
	for _, d := range diags {
		fmt.Fprintf(w, "note: %s\n", d)
	}
}

func writeJSONTo(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
