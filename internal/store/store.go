// Package store locates and opens the Messages chat.db for reading.
//
// textvault never writes to chat.db. The database is opened in read-only
// query mode; when that fails (typically because Messages holds the WAL
// files or the process lacks Full Disk Access to the original), the
// database and its -wal/-shm side files are copied into an owner-only
// temporary directory and the copy is opened instead.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/wesm/textvault/internal/fileutil"
)

// ErrNotFound is returned when the message database does not exist.
var ErrNotFound = errors.New("message database not found")

// DefaultRelPath is the chat.db location relative to the user's home.
const DefaultRelPath = "Library/Messages/chat.db"

// sideFiles are copied alongside the database so uncheckpointed WAL pages
// are visible in the copy.
var sideFiles = []string{"-wal", "-shm"}

const readOnlyParams = "mode=ro&_query_only=true&_busy_timeout=5000"

// Options configures Open.
type Options struct {
	// TempDir is the parent directory for the fallback copy. Empty means
	// os.TempDir().
	TempDir string
	// NoCopy disables the temporary-copy fallback.
	NoCopy bool
	Logger *slog.Logger
}

// Store is an open, read-only message database.
type Store struct {
	db      *sql.DB
	source  string // the database the user pointed at
	path    string // the file actually opened
	copyDir string // non-empty when path is a temporary copy
}

// DefaultPath returns ~/Library/Messages/chat.db for the current user.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, DefaultRelPath), nil
}

// Locate resolves the database path. An empty path means DefaultPath.
// A leading "~/" is expanded. It returns an error wrapping ErrNotFound when
// the file does not exist.
func Locate(path string) (string, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return "", err
		}
		path = p
	} else if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home dir: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		// Stat can fail on a protected directory even though the file
		// exists; let Open try and report the real error.
		return path, nil
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory, not a database", path)
	}
	return path, nil
}

// Open locates and opens the message database read-only, falling back to a
// temporary copy when the original cannot be opened.
func Open(ctx context.Context, path string, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	src, err := Locate(path)
	if err != nil {
		return nil, err
	}

	db, err := openReadOnly(ctx, src)
	if err == nil {
		logger.Debug("opened message database", "path", src)
		return &Store{db: db, source: src, path: src}, nil
	}
	if opts.NoCopy {
		return nil, openError(src, err)
	}

	logger.Debug("direct open failed, using a temporary copy", "path", src, "error", err, "access", isAccessError(err))

	dir, copyPath, cerr := copyDatabase(src, opts.TempDir)
	if cerr != nil {
		return nil, fmt.Errorf("%w (copy fallback: %v)", openError(src, err), cerr)
	}
	db, err = openReadOnly(ctx, copyPath)
	if err != nil {
		os.RemoveAll(dir)
		return nil, openError(copyPath, err)
	}
	logger.Debug("opened temporary copy", "path", copyPath)
	return &Store{db: db, source: src, path: copyPath, copyDir: dir}, nil
}

func openError(path string, err error) error {
	if isAccessError(err) {
		return fmt.Errorf("open %s: %w (grant Full Disk Access to your terminal?)", path, err)
	}
	return fmt.Errorf("open %s: %w", path, err)
}

// openReadOnly opens path and checks that it is a readable SQLite database.
func openReadOnly(ctx context.Context, path string) (*sql.DB, error) {
	// Use file: URI to safely handle paths containing '?' or other special characters.
	dsn := (&url.URL{
		Scheme:   "file",
		OmitHost: true,
		Path:     path,
		RawQuery: readOnlyParams,
	}).String()
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master").Scan(&n); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// copyDatabase copies src and any side files into a new owner-only
// temporary directory and returns the directory and the copy's path.
func copyDatabase(src, tempDir string) (dir, path string, err error) {
	dir, err = fileutil.SecureMkdirTemp(tempDir, "textvault-")
	if err != nil {
		return "", "", fmt.Errorf("create temp dir: %w", err)
	}
	path = filepath.Join(dir, filepath.Base(src))
	if err := fileutil.SecureCopyFile(path, src, 0o600); err != nil {
		os.RemoveAll(dir)
		return "", "", err
	}
	for _, suffix := range sideFiles {
		err := fileutil.SecureCopyFile(path+suffix, src+suffix, 0o600)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			os.RemoveAll(dir)
			return "", "", err
		}
	}
	return dir, path, nil
}

// isAccessError reports whether err is a SQLite failure to open or read the
// file, as opposed to a malformed database.
// Handles both value (sqlite3.Error) and pointer (*sqlite3.Error) forms.
func isAccessError(err error) bool {
	var code sqlite3.ErrNo
	var sqliteErr sqlite3.Error
	var sqliteErrPtr *sqlite3.Error
	switch {
	case errors.As(err, &sqliteErr):
		code = sqliteErr.Code
	case errors.As(err, &sqliteErrPtr) && sqliteErrPtr != nil:
		code = sqliteErrPtr.Code
	default:
		return errors.Is(err, fs.ErrPermission)
	}
	switch code {
	case sqlite3.ErrCantOpen, sqlite3.ErrPerm, sqlite3.ErrAuth, sqlite3.ErrReadonly:
		return true
	}
	return false
}

// DB returns the underlying database connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the file actually opened.
func (s *Store) Path() string {
	return s.path
}

// Source returns the database path that was requested.
func (s *Store) Source() string {
	return s.source
}

// IsCopy reports whether the store reads a temporary copy.
func (s *Store) IsCopy() bool {
	return s.copyDir != ""
}

// Close closes the database and removes any temporary copy.
func (s *Store) Close() error {
	err := s.db.Close()
	if s.copyDir != "" {
		if rerr := os.RemoveAll(s.copyDir); rerr != nil && err == nil {
			err = fmt.Errorf("remove temp copy: %w", rerr)
		}
	}
	return err
}
