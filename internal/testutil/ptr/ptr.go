// Package ptr provides pointer helpers for building expected values in tests.
package ptr

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }
