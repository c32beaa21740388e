// Package dbtest provides in-memory fixtures shaped like the Messages chat.db
// and the AddressBook database. It is importable from any test package
// without circular dependency issues (it does not import internal/query).
package dbtest

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/wesm/textvault/internal/search"
)

// ChatSchema is the subset of the chat.db schema that textvault reads.
// Column names and types follow the real database.
const ChatSchema = `
CREATE TABLE handle (
	ROWID INTEGER PRIMARY KEY AUTOINCREMENT UNIQUE,
	id TEXT NOT NULL,
	country TEXT,
	service TEXT NOT NULL DEFAULT 'iMessage',
	uncanonicalized_id TEXT
);
CREATE TABLE chat (
	ROWID INTEGER PRIMARY KEY AUTOINCREMENT,
	guid TEXT UNIQUE NOT NULL,
	style INTEGER,
	chat_identifier TEXT,
	display_name TEXT
);
CREATE TABLE message (
	ROWID INTEGER PRIMARY KEY AUTOINCREMENT,
	guid TEXT UNIQUE NOT NULL,
	text TEXT,
	handle_id INTEGER DEFAULT 0,
	date INTEGER,
	is_from_me INTEGER DEFAULT 0,
	cache_has_attachments INTEGER DEFAULT 0
);
CREATE TABLE attachment (
	ROWID INTEGER PRIMARY KEY AUTOINCREMENT,
	guid TEXT UNIQUE NOT NULL,
	filename TEXT,
	mime_type TEXT
);
CREATE TABLE chat_handle_join (chat_id INTEGER, handle_id INTEGER, UNIQUE(chat_id, handle_id));
CREATE TABLE chat_message_join (chat_id INTEGER, message_id INTEGER, message_date INTEGER DEFAULT 0, PRIMARY KEY (chat_id, message_id));
CREATE TABLE message_attachment_join (message_id INTEGER, attachment_id INTEGER, UNIQUE(message_id, attachment_id));
`

// AddressBookSchema is the subset of the AddressBook-v22.abcddb schema that
// textvault reads.
const AddressBookSchema = `
CREATE TABLE ZABCDRECORD (
	Z_PK INTEGER PRIMARY KEY,
	ZFIRSTNAME VARCHAR,
	ZLASTNAME VARCHAR,
	ZNICKNAME VARCHAR,
	ZORGANIZATION VARCHAR
);
CREATE TABLE ZABCDEMAILADDRESS (
	Z_PK INTEGER PRIMARY KEY,
	ZOWNER INTEGER,
	ZADDRESS VARCHAR
);
CREATE TABLE ZABCDPHONENUMBER (
	Z_PK INTEGER PRIMARY KEY,
	ZOWNER INTEGER,
	ZFULLNUMBER VARCHAR
);
`

// Chat styles as stored in chat.style.
const (
	StyleGroup  = 43
	StyleDirect = 45
)

// IDs assigned by SeedStandardDataSet.
const (
	HandleAlice int64 = 1 // +14155550100
	HandleBob   int64 = 2 // bob@example.com
	HandleCarol int64 = 3 // +442071234567

	ChatAlice int64 = 1 // direct
	ChatBob   int64 = 2 // direct
	ChatGroup int64 = 3 // "Weekend Plans"
)

// TestDB wraps a *sql.DB with auto-increment counters and builder helpers
// for seeding test data.
type TestDB struct {
	DB *sql.DB
	T  testing.TB

	nextGUID int64
}

// NewTestDB creates an in-memory database with ChatSchema loaded.
func NewTestDB(t testing.TB) *TestDB {
	t.Helper()
	return newDB(t, ":memory:", ChatSchema)
}

// NewAddressBookDB creates an in-memory database with AddressBookSchema loaded.
func NewAddressBookDB(t testing.TB) *TestDB {
	t.Helper()
	return newDB(t, ":memory:", AddressBookSchema)
}

// NewChatDBFile creates chat.db inside dir with ChatSchema loaded and returns
// the fixture and the file path. The fixture connection stays open until the
// test ends.
func NewChatDBFile(t testing.TB, dir string) (*TestDB, string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create dir: %v", err)
	}
	path := filepath.Join(dir, "chat.db")
	return newDB(t, path, ChatSchema), path
}

// NewAddressBookFile creates an AddressBook database at path with
// AddressBookSchema loaded, creating parent directories as needed.
func NewAddressBookFile(t testing.TB, path string) *TestDB {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create dir: %v", err)
	}
	return newDB(t, path, AddressBookSchema)
}

func newDB(t testing.TB, dsn, schema string) *TestDB {
	t.Helper()

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	return &TestDB{DB: db, T: t}
}

// StoreTime converts a UTC wall-clock time to chat.db store time.
func StoreTime(year int, month time.Month, day, hour, min int) int64 {
	return search.TimeToStore(time.Date(year, month, day, hour, min, 0, 0, time.UTC))
}

// SeedStandardDataSet inserts three handles (Alice by phone, Bob by email,
// Carol by international phone), two direct chats, one group chat and seven
// messages, two of them with attachments.
func (tdb *TestDB) SeedStandardDataSet() {
	tdb.T.Helper()

	tdb.AddHandle("+14155550100", "(415) 555-0100")
	tdb.AddHandle("bob@example.com", "")
	tdb.AddHandle("+442071234567", "+44 20 7123 4567")

	tdb.AddChat(ChatOpts{Style: StyleDirect, Identifier: "+14155550100", Handles: []int64{HandleAlice}})
	tdb.AddChat(ChatOpts{Style: StyleDirect, Identifier: "bob@example.com", Handles: []int64{HandleBob}})
	tdb.AddChat(ChatOpts{Style: StyleGroup, Identifier: "chat100", DisplayName: "Weekend Plans",
		Handles: []int64{HandleAlice, HandleBob, HandleCarol}})

	tdb.AddMessage(MessageOpts{ChatID: ChatAlice, HandleID: HandleAlice, Text: StrPtr("Lunch tomorrow?"),
		Date: StoreTime(2024, 1, 10, 12, 0)})
	tdb.AddMessage(MessageOpts{ChatID: ChatAlice, IsFromMe: true, Text: StrPtr("Sure, noon works"),
		Date: StoreTime(2024, 1, 10, 12, 5)})
	tdb.AddMessage(MessageOpts{ChatID: ChatBob, HandleID: HandleBob, Text: StrPtr("Sending the report"),
		Date: StoreTime(2024, 2, 1, 9, 0), Attachments: []string{"~/Library/Messages/Attachments/ab/report.pdf"}})
	tdb.AddMessage(MessageOpts{ChatID: ChatBob, HandleID: HandleBob,
		Date: StoreTime(2024, 2, 1, 9, 1), Attachments: []string{"~/Library/Messages/Attachments/cd/photo.jpg"}})
	tdb.AddMessage(MessageOpts{ChatID: ChatGroup, HandleID: HandleCarol, Text: StrPtr("Hiking on Saturday?"),
		Date: StoreTime(2024, 3, 15, 18, 0)})
	tdb.AddMessage(MessageOpts{ChatID: ChatGroup, IsFromMe: true, Text: StrPtr("count me in for lunch"),
		Date: StoreTime(2024, 3, 15, 18, 10)})
	tdb.AddMessage(MessageOpts{ChatID: ChatGroup, HandleID: HandleAlice, Text: StrPtr("Lunch after the hike"),
		Date: StoreTime(2024, 3, 16, 8, 0)})
}

// StrPtr returns a pointer to a string (useful for optional fields in test opts).
func StrPtr(s string) *string { return &s }

func (tdb *TestDB) guid(prefix string) string {
	tdb.nextGUID++
	return fmt.Sprintf("%s-%d", prefix, tdb.nextGUID)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// AddHandle inserts a handle and returns its ROWID. An empty uncanonicalized
// id is stored as NULL.
func (tdb *TestDB) AddHandle(id, uncanonicalized string) int64 {
	tdb.T.Helper()
	res, err := tdb.DB.Exec(
		`INSERT INTO handle (id, uncanonicalized_id) VALUES (?, ?)`,
		id, nullable(uncanonicalized),
	)
	if err != nil {
		tdb.T.Fatalf("AddHandle: %v", err)
	}
	rowID, _ := res.LastInsertId()
	return rowID
}

// ChatOpts configures a chat to insert.
type ChatOpts struct {
	Style       int    // defaults to StyleDirect
	Identifier  string // chat_identifier
	DisplayName string // empty is stored as ""
	Handles     []int64
}

// AddChat inserts a chat and its handle memberships and returns its ROWID.
func (tdb *TestDB) AddChat(opts ChatOpts) int64 {
	tdb.T.Helper()
	if opts.Style == 0 {
		opts.Style = StyleDirect
	}
	res, err := tdb.DB.Exec(
		`INSERT INTO chat (guid, style, chat_identifier, display_name) VALUES (?, ?, ?, ?)`,
		tdb.guid("chat"), opts.Style, opts.Identifier, opts.DisplayName,
	)
	if err != nil {
		tdb.T.Fatalf("AddChat: %v", err)
	}
	chatID, _ := res.LastInsertId()
	for _, h := range opts.Handles {
		if _, err := tdb.DB.Exec(`INSERT INTO chat_handle_join (chat_id, handle_id) VALUES (?, ?)`, chatID, h); err != nil {
			tdb.T.Fatalf("AddChat: join handle %d: %v", h, err)
		}
	}
	return chatID
}

// MessageOpts configures a message to insert.
type MessageOpts struct {
	ChatID      int64   // 0 = not joined to any chat
	HandleID    int64   // 0 for messages from me
	Text        *string // nil = NULL
	Date        int64   // store time
	IsFromMe    bool
	Attachments []string // attachment filenames, in order
}

// AddMessage inserts a message, joins it to its chat and attachments, and
// returns its ROWID.
func (tdb *TestDB) AddMessage(opts MessageOpts) int64 {
	tdb.T.Helper()

	var text any
	if opts.Text != nil {
		text = *opts.Text
	}
	res, err := tdb.DB.Exec(
		`INSERT INTO message (guid, text, handle_id, date, is_from_me, cache_has_attachments) VALUES (?, ?, ?, ?, ?, ?)`,
		tdb.guid("msg"), text, opts.HandleID, opts.Date, boolInt(opts.IsFromMe), boolInt(len(opts.Attachments) > 0),
	)
	if err != nil {
		tdb.T.Fatalf("AddMessage: %v", err)
	}
	msgID, _ := res.LastInsertId()

	if opts.ChatID != 0 {
		if _, err := tdb.DB.Exec(
			`INSERT INTO chat_message_join (chat_id, message_id, message_date) VALUES (?, ?, ?)`,
			opts.ChatID, msgID, opts.Date,
		); err != nil {
			tdb.T.Fatalf("AddMessage: join chat: %v", err)
		}
	}

	for _, name := range opts.Attachments {
		res, err := tdb.DB.Exec(`INSERT INTO attachment (guid, filename) VALUES (?, ?)`, tdb.guid("att"), name)
		if err != nil {
			tdb.T.Fatalf("AddMessage: attachment: %v", err)
		}
		attID, _ := res.LastInsertId()
		if _, err := tdb.DB.Exec(
			`INSERT INTO message_attachment_join (message_id, attachment_id) VALUES (?, ?)`,
			msgID, attID,
		); err != nil {
			tdb.T.Fatalf("AddMessage: join attachment: %v", err)
		}
	}
	return msgID
}

// ContactOpts configures an AddressBook record to insert.
type ContactOpts struct {
	First, Last, Nickname, Organization string
	Emails                              []string
	Phones                              []string
}

// AddContact inserts an AddressBook record with its emails and phone numbers
// and returns its Z_PK. Empty name fields are stored as NULL.
func (tdb *TestDB) AddContact(opts ContactOpts) int64 {
	tdb.T.Helper()
	res, err := tdb.DB.Exec(
		`INSERT INTO ZABCDRECORD (ZFIRSTNAME, ZLASTNAME, ZNICKNAME, ZORGANIZATION) VALUES (?, ?, ?, ?)`,
		nullable(opts.First), nullable(opts.Last), nullable(opts.Nickname), nullable(opts.Organization),
	)
	if err != nil {
		tdb.T.Fatalf("AddContact: %v", err)
	}
	pk, _ := res.LastInsertId()
	for _, e := range opts.Emails {
		if _, err := tdb.DB.Exec(`INSERT INTO ZABCDEMAILADDRESS (ZOWNER, ZADDRESS) VALUES (?, ?)`, pk, e); err != nil {
			tdb.T.Fatalf("AddContact: email: %v", err)
		}
	}
	for _, p := range opts.Phones {
		if _, err := tdb.DB.Exec(`INSERT INTO ZABCDPHONENUMBER (ZOWNER, ZFULLNUMBER) VALUES (?, ?)`, pk, p); err != nil {
			tdb.T.Fatalf("AddContact: phone: %v", err)
		}
	}
	return pk
}

// Exec runs a statement against the fixture, failing the test on error.
func (tdb *TestDB) Exec(query string, args ...any) {
	tdb.T.Helper()
	if _, err := tdb.DB.Exec(query, args...); err != nil {
		tdb.T.Fatalf("Exec(%q): %v", query, err)
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
