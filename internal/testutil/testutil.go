// Package testutil provides test helpers shared across textvault packages.
//
//   - assert.go: small assertion helpers (MustNoErr, AssertStrings, ...)
//   - fs_helpers.go: filesystem helpers (WriteFile, MustExist, AssertMode)
//
// Database fixtures live in the dbtest subpackage.
package testutil
