// Package contacts reads the macOS AddressBook database and resolves message
// handles (phone numbers and email addresses) to contact names.
package contacts

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/wesm/textvault/internal/search"
	"github.com/wesm/textvault/internal/textutil"
)

// ErrNotFound is returned when no AddressBook database can be found.
var ErrNotFound = errors.New("address book not found")

// FileName is the AddressBook database file name.
const FileName = "AddressBook-v22.abcddb"

// DefaultRelDir is the AddressBook directory relative to the user's home.
const DefaultRelDir = "Library/Application Support/AddressBook"

// Contact is one AddressBook record with a display name.
type Contact struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Emails []string `json:"emails,omitempty"`
	Phones []string `json:"phones,omitempty"` // digits only
}

// Counts summarizes a Book.
type Counts struct {
	Contacts int `json:"contacts"`
	Emails   int `json:"emails"`
	Phones   int `json:"phones"`
}

// Book is a loaded address book, sorted by name.
type Book struct {
	Contacts []Contact `json:"contacts"`
	Counts   Counts    `json:"counts"`
}

// Locate resolves the AddressBook path. A non-empty path is used as given
// (with "~/" expanded). Otherwise the top-level database is tried first, then
// each account under Sources/ in name order.
func Locate(path string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	if path != "" {
		if strings.HasPrefix(path, "~/") {
			path = filepath.Join(home, path[2:])
		}
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return path, nil
	}

	dir := filepath.Join(home, DefaultRelDir)
	candidates := []string{filepath.Join(dir, FileName)}
	sources, _ := filepath.Glob(filepath.Join(dir, "Sources", "*", FileName))
	slices.Sort(sources)
	candidates = append(candidates, sources...)

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w under %s", ErrNotFound, dir)
}

const recordsQuery = `
SELECT Z_PK, ZFIRSTNAME, ZLASTNAME, ZNICKNAME, ZORGANIZATION
FROM ZABCDRECORD
WHERE ZFIRSTNAME IS NOT NULL OR ZLASTNAME IS NOT NULL
   OR ZNICKNAME IS NOT NULL OR ZORGANIZATION IS NOT NULL`

const emailsQuery = `
SELECT ZOWNER, ZADDRESS FROM ZABCDEMAILADDRESS
WHERE ZADDRESS IS NOT NULL
ORDER BY Z_PK`

const phonesQuery = `
SELECT ZOWNER, ZFULLNUMBER FROM ZABCDPHONENUMBER
WHERE ZFULLNUMBER IS NOT NULL
ORDER BY Z_PK`

// Load reads every named record with its email addresses and phone numbers.
// Records without any name are skipped, as are addresses they own.
func Load(ctx context.Context, db *sql.DB) (*Book, error) {
	byID := make(map[int64]*Contact)
	var order []int64

	rows, err := db.QueryContext(ctx, recordsQuery)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	for rows.Next() {
		var id int64
		var first, last, nick, org sql.NullString
		if err := rows.Scan(&id, &first, &last, &nick, &org); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		name := displayName(first.String, last.String, nick.String, org.String)
		if name == "" {
			continue
		}
		byID[id] = &Contact{ID: id, Name: name}
		order = append(order, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}

	err = loadAddresses(ctx, db, emailsQuery, func(c *Contact, v string) {
		if v = strings.TrimSpace(v); v != "" {
			c.Emails = append(c.Emails, v)
		}
	}, byID)
	if err != nil {
		return nil, fmt.Errorf("load emails: %w", err)
	}
	err = loadAddresses(ctx, db, phonesQuery, func(c *Contact, v string) {
		if d := textutil.Digits(v); d != "" {
			c.Phones = append(c.Phones, d)
		}
	}, byID)
	if err != nil {
		return nil, fmt.Errorf("load phones: %w", err)
	}

	book := &Book{Contacts: make([]Contact, 0, len(order))}
	for _, id := range order {
		book.Contacts = append(book.Contacts, *byID[id])
	}
	slices.SortStableFunc(book.Contacts, func(a, b Contact) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	book.Counts = countAll(book.Contacts)
	return book, nil
}

func loadAddresses(ctx context.Context, db *sql.DB, query string, add func(*Contact, string), byID map[int64]*Contact) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var owner sql.NullInt64
		var value string
		if err := rows.Scan(&owner, &value); err != nil {
			return err
		}
		if c, ok := byID[owner.Int64]; ok && owner.Valid {
			add(c, value)
		}
	}
	return rows.Err()
}

// displayName prefers "First Last", then the nickname, then the organization.
func displayName(first, last, nick, org string) string {
	name := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if name != "" {
		return name
	}
	if nick = strings.TrimSpace(nick); nick != "" {
		return nick
	}
	return strings.TrimSpace(org)
}

func countAll(cs []Contact) Counts {
	var n Counts
	for _, c := range cs {
		n.Contacts++
		n.Emails += len(c.Emails)
		n.Phones += len(c.Phones)
	}
	return n
}

// Summary returns a one-line description of the book's size.
func (b *Book) Summary() string {
	return fmt.Sprintf("%d contacts, %d emails, %d phone numbers",
		b.Counts.Contacts, b.Counts.Emails, b.Counts.Phones)
}

// Find returns the contact whose name matches name case-insensitively as a
// search sender, so a FROM filter can match every handle the contact owns.
// Contacts without any handle are never returned: an empty sender would
// remove the filter instead of narrowing it.
func (b *Book) Find(name string) (search.ContactParam, bool) {
	want := strings.TrimSpace(name)
	for _, c := range b.Contacts {
		if strings.EqualFold(c.Name, want) && len(c.Phones)+len(c.Emails) > 0 {
			return search.ContactParam{Phones: c.Phones, Emails: c.Emails}, true
		}
	}
	return search.ContactParam{}, false
}

// Resolver maps message handles to contact names.
type Resolver struct {
	phones map[string]string // phone suffix -> name
	emails map[string]string // lower-case address -> name
}

// Resolver builds a handle resolver. When two contacts share a handle, the
// one sorting first wins.
func (b *Book) Resolver() *Resolver {
	r := &Resolver{
		phones: make(map[string]string, b.Counts.Phones),
		emails: make(map[string]string, b.Counts.Emails),
	}
	for _, c := range b.Contacts {
		for _, p := range c.Phones {
			key := textutil.PhoneSuffix(p)
			if _, ok := r.phones[key]; !ok {
				r.phones[key] = c.Name
			}
		}
		for _, e := range c.Emails {
			key := strings.ToLower(e)
			if _, ok := r.emails[key]; !ok {
				r.emails[key] = c.Name
			}
		}
	}
	return r
}

// ResolveSender returns the contact name for a phone number or email handle.
func (r *Resolver) ResolveSender(handle string) (string, bool) {
	handle = strings.TrimSpace(handle)
	if strings.Contains(handle, "@") {
		name, ok := r.emails[strings.ToLower(handle)]
		return name, ok
	}
	if !textutil.LooksLikePhone(handle) {
		return "", false
	}
	digits := textutil.Digits(handle)
	name, ok := r.phones[textutil.PhoneSuffix(digits)]
	return name, ok
}

// Len reports how many distinct handles the resolver knows.
func (r *Resolver) Len() int {
	return len(r.phones) + len(r.emails)
}
