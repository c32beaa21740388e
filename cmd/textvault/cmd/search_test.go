package cmd

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wesm/textvault/internal/config"
	"github.com/wesm/textvault/internal/contacts"
	"github.com/wesm/textvault/internal/search"
	"github.com/wesm/textvault/internal/testutil/dbtest"
	"github.com/wesm/textvault/internal/testutil/ptr"
)

func TestBuildSearchParams(t *testing.T) {
	book := &contacts.Book{Contacts: []contacts.Contact{
		{ID: 1, Name: "Alice Smith", Phones: []string{"4155550100"}},
		{ID: 2, Name: "No Handles"},
	}}

	tests := []struct {
		name  string
		raw   string
		flags searchFlags
		book  *contacts.Book
		want  search.Params
	}{
		{
			name: "query only",
			raw:  "lunch FROM:bob@example.com AFTER:2024-01-01",
			want: search.Params{
				Query:     "lunch",
				StartDate: "2024-01-01",
				Contacts:  []search.ContactParam{{ID: "bob@example.com"}},
			},
		},
		{
			name:  "flags replace directive dates and add senders",
			raw:   "AFTER:2023-01-01 CONVERSATION:4 hi",
			flags: searchFlags{after: "2024-05-01", before: "2024-06-01", conversation: "9", from: []string{"+14155550100"}},
			want: search.Params{
				Query:          "hi",
				StartDate:      "2024-05-01",
				EndDate:        "2024-06-01",
				ConversationID: ptr.String("9"),
				Contacts:       []search.ContactParam{{ID: "+14155550100"}},
			},
		},
		{
			name:  "boolean and ordering flags",
			flags: searchFlags{mine: true, attachments: true, sort: "asc", kind: "direct", limit: 5},
			want: search.Params{
				OnlyFromMe:          true,
				OnlyWithAttachments: true,
				Sort:                "asc",
				ConversationKind:    "direct",
				Limit:               5,
			},
		},
		{
			name:  "contact names expand from flag and directive",
			raw:   `FROM:"alice smith"`,
			flags: searchFlags{from: []string{"Alice Smith", "No Handles"}},
			book:  book,
			want: search.Params{
				Contacts: []search.ContactParam{
					{Phones: []string{"4155550100"}},
					{Phones: []string{"4155550100"}},
					{ID: "No Handles"},
				},
			},
		},
		{
			name:  "names stay literal without a book",
			flags: searchFlags{from: []string{"Alice Smith"}},
			want:  search.Params{Contacts: []search.ContactParam{{ID: "Alice Smith"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := buildSearchParams(tt.raw, tt.flags, tt.book)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("params mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildSearchParams_KeepsParseDiagnostics(t *testing.T) {
	_, diags := buildSearchParams("AFTER:yesterday hi", searchFlags{}, nil)
	if !diags.Has(search.DiagMalformedDate) {
		t.Errorf("diagnostics %v missing %s", diags, search.DiagMalformedDate)
	}
}

// useTestConfig points the package-level config and logger at a temporary
// archive for the duration of the test.
func useTestConfig(t *testing.T, c *config.Config) {
	t.Helper()
	savedCfg, savedLogger, savedNoContacts := cfg, logger, noContacts
	t.Cleanup(func() { cfg, logger, noContacts = savedCfg, savedLogger, savedNoContacts })
	cfg = c
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	noContacts = false
}

func TestOpenArchive_SearchByContactName(t *testing.T) {
	dir := t.TempDir()
	chat, chatPath := dbtest.NewChatDBFile(t, filepath.Join(dir, "Messages"))
	chat.SeedStandardDataSet()

	abPath := filepath.Join(dir, "AddressBook", contacts.FileName)
	ab := dbtest.NewAddressBookFile(t, abPath)
	ab.AddContact(dbtest.ContactOpts{First: "Alice", Last: "Smith", Phones: []string{"(415) 555-0100"}})

	useTestConfig(t, &config.Config{
		Data:   config.DataConfig{ChatDB: chatPath, AddressBook: abPath, TempDir: dir},
		Search: config.SearchConfig{DefaultLimit: 100},
	})

	ctx := context.Background()
	a, err := openArchive(ctx)
	if err != nil {
		t.Fatalf("openArchive: %v", err)
	}
	defer a.Close()

	if a.book == nil || len(a.book.Contacts) != 1 {
		t.Fatalf("book = %+v, want one contact", a.book)
	}

	p, _ := buildSearchParams("", searchFlags{from: []string{"alice smith"}}, a.book)
	res, err := a.engine.Search(ctx, p)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Count() != 2 {
		t.Fatalf("got %d messages, want 2", res.Count())
	}
	for _, m := range res.Messages {
		if m.Sender == nil || *m.Sender != "Alice Smith" {
			t.Errorf("message %d sender = %v, want Alice Smith", m.ID, m.Sender)
		}
	}
}

func TestOpenArchive_NoContacts(t *testing.T) {
	dir := t.TempDir()
	chat, chatPath := dbtest.NewChatDBFile(t, dir)
	chat.SeedStandardDataSet()

	useTestConfig(t, &config.Config{
		Data:   config.DataConfig{ChatDB: chatPath, AddressBook: filepath.Join(dir, "missing.abcddb")},
		Search: config.SearchConfig{DefaultLimit: 100},
	})
	noContacts = true

	a, err := openArchive(context.Background())
	if err != nil {
		t.Fatalf("openArchive: %v", err)
	}
	defer a.Close()
	if a.book != nil {
		t.Error("book loaded despite --no-contacts")
	}
}

func TestOpenArchive_ConfiguredAddressBookMissing(t *testing.T) {
	dir := t.TempDir()
	chat, chatPath := dbtest.NewChatDBFile(t, dir)
	chat.SeedStandardDataSet()

	useTestConfig(t, &config.Config{
		Data:   config.DataConfig{ChatDB: chatPath, AddressBook: filepath.Join(dir, "missing.abcddb")},
		Search: config.SearchConfig{DefaultLimit: 100},
	})

	if a, err := openArchive(context.Background()); err == nil {
		a.Close()
		t.Fatal("expected error for a configured but missing address book")
	}
}

func TestOpenArchive_MissingChatDB(t *testing.T) {
	dir := t.TempDir()
	useTestConfig(t, &config.Config{
		Data:   config.DataConfig{ChatDB: filepath.Join(dir, "nope.db")},
		Search: config.SearchConfig{DefaultLimit: 100},
	})
	noContacts = true

	if a, err := openArchive(context.Background()); err == nil {
		a.Close()
		t.Fatal("expected error for missing chat.db")
	}
}
