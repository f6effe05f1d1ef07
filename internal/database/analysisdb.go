package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/intelscan/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "intelscan.db"

// ErrAnalysisNotFound is returned when no analysis has the requested ID.
var ErrAnalysisNotFound = errors.New("analysis not found")

// AnalysisDB stores analyses and their page fetch history.
// It is safe for concurrent use.
type AnalysisDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures AnalysisDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates an AnalysisDB in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*AnalysisDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc creates it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	adb := &AnalysisDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := adb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return adb, nil
}

// Path returns the database file path.
func (adb *AnalysisDB) Path() string {
	return adb.dbPath
}

// Close closes the database connection.
func (adb *AnalysisDB) Close() error {
	return adb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (adb *AnalysisDB) createTables() error {
	schema := `
	-- Analyses store complete runs as JSON
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		title TEXT NOT NULL,
		fetch_mode TEXT,
		succeeded INTEGER NOT NULL,
		page_count INTEGER NOT NULL,
		failed_count INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		analysis_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at);

	-- Pages record every fetch with a hash of its content
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		analysis_id TEXT NOT NULL,
		url TEXT NOT NULL,
		title TEXT,
		content_hash TEXT,
		error TEXT,
		fetched_at TEXT NOT NULL,
		UNIQUE(analysis_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
	CREATE INDEX IF NOT EXISTS idx_pages_fetched ON pages(fetched_at);
	`

	_, err := adb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveAnalysis inserts or replaces an analysis and its page records.
func (adb *AnalysisDB) SaveAnalysis(ctx context.Context, a *model.Analysis) error {
	analysisJSON, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to serialize analysis: %w", err)
	}

	ok, failed := a.FetchSummary()
	fetchedAt := a.CompletedAt
	if fetchedAt.IsZero() {
		fetchedAt = a.CreatedAt
	}

	tx, err := adb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO analyses (id, kind, title, fetch_mode, succeeded, page_count, failed_count, created_at, analysis_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		kind = excluded.kind,
		title = excluded.title,
		fetch_mode = excluded.fetch_mode,
		succeeded = excluded.succeeded,
		page_count = excluded.page_count,
		failed_count = excluded.failed_count,
		analysis_json = excluded.analysis_json
	`,
		a.ID,
		string(a.Kind),
		a.Title(),
		string(a.FetchMode),
		a.Succeeded(),
		ok+failed,
		failed,
		formatTimestamp(a.CreatedAt),
		string(analysisJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM pages WHERE analysis_id = ?", a.ID); err != nil {
		return fmt.Errorf("failed to replace pages: %w", err)
	}
	for _, p := range a.Pages {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO pages (analysis_id, url, title, content_hash, error, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(analysis_id, url) DO NOTHING
		`,
			a.ID,
			p.URL,
			p.Title,
			ContentHash(p.RawMarkdown),
			p.Error,
			formatTimestamp(fetchedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to save page %s: %w", p.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit analysis: %w", err)
	}
	return nil
}

// GetAnalysis retrieves an analysis by ID.
// It returns ErrAnalysisNotFound when no analysis has that ID.
func (adb *AnalysisDB) GetAnalysis(ctx context.Context, id string) (*model.Analysis, error) {
	var analysisJSON string
	err := adb.db.QueryRowContext(ctx,
		"SELECT analysis_json FROM analyses WHERE id = ?", id,
	).Scan(&analysisJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAnalysisNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	var a model.Analysis
	if err := json.Unmarshal([]byte(analysisJSON), &a); err != nil {
		return nil, fmt.Errorf("failed to parse analysis: %w", err)
	}
	return &a, nil
}

// AnalysisSummary contains summary information about a stored analysis.
// It is used for listing history without loading the full analysis.
type AnalysisSummary struct {
	// ID is the analysis identifier.
	ID string `json:"id"`

	// Kind is auto or manual.
	Kind model.AnalysisKind `json:"kind"`

	// Title is the goal or the first URL.
	Title string `json:"title"`

	// FetchMode is the mode used to fetch pages.
	FetchMode model.FetchMode `json:"fetch_mode"`

	// Succeeded reports whether the run finished without error.
	Succeeded bool `json:"succeeded"`

	// PageCount is the number of page records.
	PageCount int `json:"page_count"`

	// FailedCount is the number of page records that failed.
	FailedCount int `json:"failed_count"`

	// CreatedAt is when the analysis started.
	CreatedAt time.Time `json:"created_at"`
}

// ListAnalyses returns the newest analyses first.
// A non-positive limit returns every analysis.
func (adb *AnalysisDB) ListAnalyses(ctx context.Context, limit int) ([]AnalysisSummary, error) {
	query := `
	SELECT id, kind, title, fetch_mode, succeeded, page_count, failed_count, created_at
	FROM analyses
	ORDER BY created_at DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := adb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	results := make([]AnalysisSummary, 0)
	for rows.Next() {
		var s AnalysisSummary
		var kind, mode, createdAt string
		if err := rows.Scan(&s.ID, &kind, &s.Title, &mode, &s.Succeeded, &s.PageCount, &s.FailedCount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		s.Kind = model.AnalysisKind(kind)
		s.FetchMode = model.FetchMode(mode)
		s.CreatedAt = parseTimestamp(createdAt)
		results = append(results, s)
	}
	return results, rows.Err()
}

// DeleteAnalysis removes an analysis and its page records.
// It returns ErrAnalysisNotFound when no analysis has that ID.
func (adb *AnalysisDB) DeleteAnalysis(ctx context.Context, id string) error {
	tx, err := adb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, "DELETE FROM analyses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	if n == 0 {
		return ErrAnalysisNotFound
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM pages WHERE analysis_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete pages: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

// PageSnapshot is one recorded fetch of a URL.
type PageSnapshot struct {
	// AnalysisID is the analysis that fetched the page.
	AnalysisID string `json:"analysis_id"`

	// URL is the fetched URL.
	URL string `json:"url"`

	// Title is the page title at fetch time.
	Title string `json:"title"`

	// ContentHash is the SHA3-256 of the page Markdown. Empty for failed fetches.
	ContentHash string `json:"content_hash,omitempty"`

	// Error is the fetch error, if any.
	Error string `json:"error,omitempty"`

	// FetchedAt is when the analysis finished.
	FetchedAt time.Time `json:"fetched_at"`

	// Changed reports whether the content differs from the previous
	// successful snapshot. It is false for the oldest snapshot.
	Changed bool `json:"changed"`
}

// PageHistory returns every recorded fetch of url, newest first.
func (adb *AnalysisDB) PageHistory(ctx context.Context, url string) ([]PageSnapshot, error) {
	rows, err := adb.db.QueryContext(ctx, `
	SELECT analysis_id, url, title, content_hash, error, fetched_at
	FROM pages
	WHERE url = ?
	ORDER BY fetched_at ASC, id ASC
	`, url)
	if err != nil {
		return nil, fmt.Errorf("failed to query page history: %w", err)
	}
	defer rows.Close()

	var history []PageSnapshot
	previous := ""
	for rows.Next() {
		var s PageSnapshot
		var title, hash, fetchErr sql.NullString
		var fetchedAt string
		if err := rows.Scan(&s.AnalysisID, &s.URL, &title, &hash, &fetchErr, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		s.Title = title.String
		s.ContentHash = hash.String
		s.Error = fetchErr.String
		s.FetchedAt = parseTimestamp(fetchedAt)
		if s.ContentHash != "" {
			s.Changed = previous != "" && previous != s.ContentHash
			previous = s.ContentHash
		}
		history = append(history, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// newest first
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history, nil
}

// ContentHash returns the hex SHA3-256 of content, or "" for empty content.
func ContentHash(content string) string {
	if content == "" {
		return ""
	}
	sum := sha3.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// storedLayout is the timestamp layout written by this package. Fixed width
// UTC keeps lexical and chronological order identical.
const storedLayout = "2006-01-02T15:04:05.000000000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(storedLayout)
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	storedLayout,
	"2006-01-02 15:04:05", // SQLite default datetime format
	"2006-01-02T15:04:05Z",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
