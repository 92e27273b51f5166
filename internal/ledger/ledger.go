// Package ledger keeps the local history of searches and fetches in a
// SQLite database under the data directory.
package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DBFilename is the database file name under the data directory.
const DBFilename = "helio.db"

// Ledger is the history database handle.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the database under dir.
func Open(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, DBFilename))
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	l := &Ledger{db: db}
	if err := l.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) initialize() error {
	schema := `
		-- WAL keeps concurrent search and fetch commands from blocking
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;

		CREATE TABLE IF NOT EXISTS searches (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			branch_count INTEGER NOT NULL,
			record_count INTEGER NOT NULL,
			searched_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS search_branches (
			search_id TEXT NOT NULL REFERENCES searches(id),
			position INTEGER NOT NULL,
			branch TEXT NOT NULL,
			client TEXT NOT NULL,
			record_count INTEGER NOT NULL,
			error TEXT,
			PRIMARY KEY (search_id, position)
		);

		CREATE TABLE IF NOT EXISTS fetches (
			url TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			size INTEGER NOT NULL,
			fetched_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_searches_at ON searches(searched_at);
		CREATE INDEX IF NOT EXISTS idx_branches_client ON search_branches(client);
	`
	if _, err := l.db.Exec(schema); err != nil {
		return fmt.Errorf("initialize history schema: %w", err)
	}
	return nil
}

// BranchOutcome is one branch result of a search, flattened for storage.
type BranchOutcome struct {
	Branch  string
	Client  string
	Records int
	Err     string
}

// RecordSearch writes one search with its branch outcomes and returns
// the assigned id.
func (l *Ledger) RecordSearch(query string, branches []BranchOutcome) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC().Unix()
	total := 0
	for _, b := range branches {
		total += b.Records
	}

	tx, err := l.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO searches (id, query, branch_count, record_count, searched_at) VALUES (?, ?, ?, ?, ?)`,
		id, query, len(branches), total, now,
	); err != nil {
		return "", fmt.Errorf("record search: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO search_branches (search_id, position, branch, client, record_count, error) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for i, b := range branches {
		var errText *string
		if b.Err != "" {
			errText = &b.Err
		}
		if _, err := stmt.Exec(id, i, b.Branch, b.Client, b.Records, errText); err != nil {
			return "", fmt.Errorf("record branch %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// SearchEntry is one history row.
type SearchEntry struct {
	ID       string
	Query    string
	Branches int
	Records  int
	At       time.Time
}

// HistoryFilter narrows History output. Zero values mean no filter.
type HistoryFilter struct {
	// Client keeps searches that touched the named client.
	Client string
	// Since keeps searches at or after the instant.
	Since time.Time
	// Limit caps the number of entries returned.
	Limit int
}

// History returns recorded searches, newest first.
func (l *Ledger) History(f HistoryFilter) ([]SearchEntry, error) {
	q := sq.Select("id", "query", "branch_count", "record_count", "searched_at").
		From("searches").
		OrderBy("searched_at DESC", "rowid DESC")
	if f.Client != "" {
		q = q.Where(`id IN (SELECT search_id FROM search_branches WHERE client = ? COLLATE NOCASE)`, f.Client)
	}
	if !f.Since.IsZero() {
		q = q.Where(sq.GtOrEq{"searched_at": f.Since.UTC().Unix()})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history query: %w", err)
	}
	rows, err := l.db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []SearchEntry
	for rows.Next() {
		var e SearchEntry
		var at int64
		if err := rows.Scan(&e.ID, &e.Query, &e.Branches, &e.Records, &at); err != nil {
			return nil, err
		}
		e.At = time.Unix(at, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Branches returns the branch outcomes of one recorded search in query
// order.
func (l *Ledger) Branches(searchID string) ([]BranchOutcome, error) {
	rows, err := l.db.Query(
		`SELECT branch, client, record_count, error FROM search_branches WHERE search_id = ? ORDER BY position`,
		searchID,
	)
	if err != nil {
		return nil, fmt.Errorf("query branches: %w", err)
	}
	defer rows.Close()

	var out []BranchOutcome
	for rows.Next() {
		var b BranchOutcome
		var errText sql.NullString
		if err := rows.Scan(&b.Branch, &b.Client, &b.Records, &errText); err != nil {
			return nil, err
		}
		b.Err = errText.String
		out = append(out, b)
	}
	return out, rows.Err()
}

// RecordFetch remembers a completed download.
func (l *Ledger) RecordFetch(url, path string, size int64) error {
	_, err := l.db.Exec(
		`INSERT OR REPLACE INTO fetches (url, path, size, fetched_at) VALUES (?, ?, ?, ?)`,
		url, path, size, time.Now().UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record fetch: %w", err)
	}
	return nil
}

// Fetched reports whether url was downloaded before and where it went.
func (l *Ledger) Fetched(url string) (string, bool, error) {
	var path string
	err := l.db.QueryRow(`SELECT path FROM fetches WHERE url = ?`, url).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return path, true, nil
}
