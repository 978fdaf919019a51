// Package database provides SQLite-based storage for PhishGuard.
//
// ScanDB stores:
//   - scan records, one per analyzed URL, owned by a user
//   - user rows with scan counters, profile fields and the protection flag
//
// SQLite is used through modernc.org/sqlite, a CGO-free driver, and the
// database is a single file under the XDG data directory.
package database
