package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesm/textvault/internal/contacts"
	"github.com/wesm/textvault/internal/query"
	"github.com/wesm/textvault/internal/search"
)

// searchFlags holds the structured filters given on the command line.
type searchFlags struct {
	after        string
	before       string
	from         []string
	conversation string
	mine         bool
	attachments  bool
	sort         string
	kind         string
	limit        int
	json         bool
}

var searchOpts searchFlags

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search messages",
	Long: `Search message text case-insensitively, optionally narrowed by directives
and flags.

Query directives:
  FROM:<sender>        Phone number, email address, handle or contact name
  AFTER:YYYY-MM-DD     On or after this date
  BEFORE:YYYY-MM-DD    On or before this date
  CONVERSATION:<id>    Only this conversation (see 'textvault conversations')

Quote values containing spaces: FROM:"Alice Smith". Terms inside
parentheses are not searched as text, but directives there still apply,
so (FROM:alice@example.com OR FROM:bob@example.com) matches either sender.
Input that cannot be interpreted is skipped and reported on stderr.

Examples:
  textvault search dinner AFTER:2024-01-01
  textvault search 'FROM:"(415) 555-0100" lunch'
  textvault search --from "Alice Smith" --attachments
  textvault search --kind group --sort asc --limit 20 party`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := openArchive(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		p, diags := buildSearchParams(strings.Join(args, " "), searchOpts, a.book)

		done := progress("Searching...")
		res, err := a.engine.Search(ctx, p)
		done()
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		diags = append(diags, res.Diagnostics...)

		if searchOpts.json {
			return writeJSONTo(os.Stdout, struct {
				Count       int                `json:"count"`
				Messages    []query.Message    `json:"messages"`
				Diagnostics search.Diagnostics `json:"diagnostics,omitempty"`
			}{res.Count(), res.Messages, diags})
		}

		printDiagnostics(os.Stderr, diags)
		if res.Count() == 0 {
			fmt.Println("No messages found.")
			return nil
		}
		loc, _ := cfg.Location()
		writeMessageTable(os.Stdout, res.Messages, loc, true)
		fmt.Printf("\nShowing %d results\n", res.Count())
		return nil
	},
}

// buildSearchParams parses the free-text query and overlays the flags.
// Flag dates and conversation replace the query's; flag senders are added.
// A sender that names a contact in book expands to all of the contact's
// phone numbers and email addresses.
func buildSearchParams(raw string, f searchFlags, book *contacts.Book) (search.Params, search.Diagnostics) {
	p, diags := search.ParseParams(raw)

	if f.after != "" {
		p.StartDate = f.after
	}
	if f.before != "" {
		p.EndDate = f.before
	}
	if f.conversation != "" {
		conv := f.conversation
		p.ConversationID = &conv
	}
	for _, s := range f.from {
		p.Contacts = append(p.Contacts, search.ContactParam{ID: s})
	}
	p.OnlyFromMe = f.mine
	p.OnlyWithAttachments = f.attachments
	p.Sort = f.sort
	p.ConversationKind = f.kind
	p.Limit = f.limit

	if book != nil {
		for i, c := range p.Contacts {
			if c.ID == "" {
				continue
			}
			if named, ok := book.Find(c.ID); ok {
				p.Contacts[i] = named
			}
		}
	}
	return p, diags
}

// writeMessageTable prints messages one per row. Conversation IDs are
// shown for search results, where rows come from many chats.
func writeMessageTable(out io.Writer, msgs []query.Message, loc *time.Location, withConversation bool) {
	if loc == nil {
		loc = time.UTC
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if withConversation {
		fmt.Fprintln(w, "ID\tDATE\tCONV\tFROM\tTEXT")
		fmt.Fprintln(w, "──\t────\t────\t────\t────")
	} else {
		fmt.Fprintln(w, "ID\tDATE\tFROM\tTEXT")
		fmt.Fprintln(w, "──\t────\t────\t────")
	}

	for _, m := range msgs {
		text := truncate(singleLine(m.Text), 60)
		if m.Attachment != nil {
			text += " [" + truncate(*m.Attachment, 30) + "]"
		}
		from := truncate(senderLabel(m), 24)
		date := formatDate(m.Date, loc)
		if withConversation {
			conv := "-"
			if m.ConversationID != nil {
				conv = fmt.Sprint(*m.ConversationID)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", m.ID, date, conv, from, text)
		} else {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", m.ID, date, from, text)
		}
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(searchCmd)
	f := searchCmd.Flags()
	f.StringVar(&searchOpts.after, "after", "", "only messages on or after this date (YYYY-MM-DD)")
	f.StringVar(&searchOpts.before, "before", "", "only messages on or before this date (YYYY-MM-DD)")
	f.StringArrayVar(&searchOpts.from, "from", nil, "sender phone, email, handle or contact name (repeatable)")
	f.StringVar(&searchOpts.conversation, "conversation", "", "only messages in this conversation ID")
	f.BoolVar(&searchOpts.mine, "mine", false, "only messages I sent")
	f.BoolVar(&searchOpts.attachments, "attachments", false, "only messages with attachments")
	f.StringVar(&searchOpts.sort, "sort", "", "date order: asc or desc (default desc)")
	f.StringVar(&searchOpts.kind, "kind", "", "conversation kind: all, direct or group")
	f.IntVar(&searchOpts.limit, "limit", 0, "maximum results (default from config, max 1000)")
	f.BoolVar(&searchOpts.json, "json", false, "output JSON")
}
