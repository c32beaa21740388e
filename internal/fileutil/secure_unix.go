//go:build !windows

// Package fileutil provides cross-platform helpers for files that hold
// private message data, such as the temporary copy of chat.db.
// On Unix, Secure* helpers are best-effort wrappers around os.* and do not
// protect against symlink traversal or TOCTOU races.
// On Windows, owner-only modes (perm & 0077 == 0) additionally set
// a DACL restricting access to the current user.
package fileutil

import "os"

// SecureMkdirAll creates a directory path and all parents that do not yet exist.
// On Unix, this does not add symlink or race protections beyond os.MkdirAll.
func SecureMkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// SecureMkdirTemp creates a new owner-only (0700) temporary directory.
// dir and pattern follow os.MkdirTemp.
func SecureMkdirTemp(dir, pattern string) (string, error) {
	return os.MkdirTemp(dir, pattern)
}

// SecureOpenFile opens the named file with specified flag and permissions.
// On Unix, this does not add symlink or race protections beyond os.OpenFile.
func SecureOpenFile(path string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, flag, perm)
}
