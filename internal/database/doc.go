// Package database provides SQLite-based storage for finished analyses.
//
// Every analysis is stored as one JSON document together with a few indexed
// columns for listing. Each fetched page is also recorded with a SHA3-256
// hash of its content, which lets the history command show when a URL was
// fetched and whether its content changed between analyses.
//
// The driver is modernc.org/sqlite, a CGO-free SQLite implementation, and
// the database runs in WAL mode.
package database
