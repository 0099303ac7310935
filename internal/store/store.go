// Package store provides the SQLite document index.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/abelbrown/docwatch/internal/browse"
	"github.com/abelbrown/docwatch/internal/card"
	"github.com/abelbrown/docwatch/internal/catalog"
)

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Record is one indexed document. (View, Link) is unique.
type Record struct {
	View        string
	Link        string
	Vendor      string
	Type        string
	Title       string
	Date        string
	Excerpt     string
	Author      string
	HasAnalysis bool
	Indexed     time.Time
}

// FromDocument converts a scanned document into a record.
func FromDocument(view string, d catalog.Document) Record {
	return Record{
		View:        view,
		Link:        d.Link(),
		Vendor:      d.Vendor,
		Type:        d.Type,
		Title:       d.Meta.Title,
		Date:        d.Meta.Date,
		Excerpt:     d.Meta.Excerpt,
		Author:      d.Meta.Author,
		HasAnalysis: d.HasAnalysis,
	}
}

// Card returns the browse card for the record.
func (r Record) Card() card.Card {
	return card.Card{
		Title:       r.Title,
		Date:        r.Date,
		Link:        r.Link,
		Markup:      r.Excerpt,
		Group:       r.Vendor,
		Type:        r.Type,
		HasAnalysis: r.HasAnalysis,
	}
}

// Scan describes the last indexing run of a view.
type Scan struct {
	View  string
	At    time.Time
	Count int
	Err   string
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database.
		connStr = "file::memory:?cache=shared"
	} else if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		view TEXT NOT NULL,
		link TEXT NOT NULL,
		vendor TEXT NOT NULL,
		doc_type TEXT NOT NULL,
		title TEXT NOT NULL,
		date TEXT,
		excerpt TEXT,
		author TEXT,
		has_analysis INTEGER DEFAULT 0,
		indexed_at DATETIME NOT NULL,
		PRIMARY KEY (view, link)
	);

	CREATE INDEX IF NOT EXISTS idx_documents_vendor ON documents(view, vendor, doc_type);

	CREATE TABLE IF NOT EXISTS scans (
		view TEXT PRIMARY KEY,
		scanned_at DATETIME NOT NULL,
		doc_count INTEGER NOT NULL,
		last_error TEXT
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

const upsertDocument = `
	INSERT INTO documents (
		view, link, vendor, doc_type, title, date, excerpt, author,
		has_analysis, indexed_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(view, link) DO UPDATE SET
		vendor = excluded.vendor,
		doc_type = excluded.doc_type,
		title = excluded.title,
		date = excluded.date,
		excerpt = excluded.excerpt,
		author = excluded.author,
		has_analysis = excluded.has_analysis,
		indexed_at = excluded.indexed_at
`

// SaveDocuments upserts records and returns how many were new.
// Thread-safe: acquires write lock.
func (s *Store) SaveDocuments(records []Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(records) == 0 {
		return 0, nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	n, err := saveTx(tx, records)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	return n, tx.Commit()
}

// ReplaceView atomically swaps every record of view for records and logs
// the scan.
// Thread-safe: acquires write lock.
func (s *Store) ReplaceView(view string, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM documents WHERE view = ?", view); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear view %s: %w", view, err)
	}
	if _, err := saveTx(tx, records); err != nil {
		tx.Rollback()
		return err
	}
	if err := recordScanTx(tx, view, len(records), ""); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func saveTx(tx *sql.Tx, records []Record) (int, error) {
	var existing int
	stmt, err := tx.Prepare(upsertDocument)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	exists, err := tx.Prepare("SELECT COUNT(*) FROM documents WHERE view = ? AND link = ?")
	if err != nil {
		return 0, err
	}
	defer exists.Close()

	now := time.Now().UTC()
	newCount := 0
	for _, r := range records {
		if err := exists.QueryRow(r.View, r.Link).Scan(&existing); err != nil {
			return newCount, err
		}
		indexed := r.Indexed
		if indexed.IsZero() {
			indexed = now
		}
		_, err := stmt.Exec(
			r.View, r.Link, r.Vendor, r.Type, r.Title, r.Date, r.Excerpt, r.Author,
			boolToInt(r.HasAnalysis), indexed,
		)
		if err != nil {
			return newCount, fmt.Errorf("save %s: %w", r.Link, err)
		}
		if existing == 0 {
			newCount++
		}
	}
	return newCount, nil
}

// RecordScan notes a scan of view that failed with errMsg, or succeeded when
// errMsg is empty.
// Thread-safe: acquires write lock.
func (s *Store) RecordScan(view string, count int, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if err := recordScanTx(tx, view, count, errMsg); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func recordScanTx(tx *sql.Tx, view string, count int, errMsg string) error {
	_, err := tx.Exec(`
		INSERT INTO scans (view, scanned_at, doc_count, last_error)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(view) DO UPDATE SET
			scanned_at = excluded.scanned_at,
			doc_count = excluded.doc_count,
			last_error = excluded.last_error
	`, view, time.Now().UTC(), count, errMsg)
	return err
}

// LastScan returns the most recent scan of view. ok is false when the view
// was never indexed.
// Thread-safe: acquires read lock.
func (s *Store) LastScan(view string) (sc Scan, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var lastErr sql.NullString
	sc.View = view
	err = s.db.QueryRow(
		"SELECT scanned_at, doc_count, last_error FROM scans WHERE view = ?", view,
	).Scan(&sc.At, &sc.Count, &lastErr)
	if errors.Is(err, sql.ErrNoRows) {
		return Scan{}, false, nil
	}
	if err != nil {
		return Scan{}, false, err
	}
	sc.Err = lastErr.String
	return sc, true, nil
}

// Documents returns every record of view, optionally restricted to vendor,
// in vendor, type, link order.
// Thread-safe: acquires read lock.
func (s *Store) Documents(view, vendor string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT view, link, vendor, doc_type, title, date, excerpt, author,
			has_analysis, indexed_at
		FROM documents
		WHERE view = ?`
	args := []any{view}
	if vendor != "" {
		query += " AND vendor = ?"
		args = append(args, vendor)
	}
	query += " ORDER BY vendor, doc_type, link"
	return s.queryRecords(query, args...)
}

// Vendors returns the vendors of view with their document counts, largest
// first.
// Thread-safe: acquires read lock.
func (s *Store) Vendors(view string) (map[string]int, []string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT vendor, COUNT(*) FROM documents WHERE view = ? GROUP BY vendor", view)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	var names []string
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, nil, err
		}
		counts[name] = n
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	sort.SliceStable(names, func(i, j int) bool { return counts[names[i]] > counts[names[j]] })
	return counts, names, nil
}

// Count returns the number of records in view.
// Thread-safe: acquires read lock.
func (s *Store) Count(view string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM documents WHERE view = ?", view).Scan(&n)
	return n, err
}

// Sources loads view from the index grouped the same way as
// catalog.Catalog.Sources: per vendor when vendor is empty, else per type.
func (s *Store) Sources(view, vendor string) ([]browse.Source, error) {
	records, err := s.Documents(view, vendor)
	if err != nil {
		return nil, err
	}
	if vendor != "" && len(records) == 0 {
		return nil, fmt.Errorf("%w: %q in index", catalog.ErrNoVendor, vendor)
	}

	groupOf := func(r Record) string { return r.Vendor }
	label := func(id string) string { return id }
	if vendor != "" {
		groupOf = func(r Record) string { return r.Type }
		label = strings.ToUpper
	}

	var out []browse.Source
	index := make(map[string]int)
	for _, r := range records {
		id := groupOf(r)
		i, ok := index[id]
		if !ok {
			i = len(out)
			index[id] = i
			out = append(out, browse.Source{ID: id, Label: label(id)})
		}
		out[i].Cards = append(out[i].Cards, r.Card())
	}
	if vendor == "" {
		sort.SliceStable(out, func(i, j int) bool { return len(out[i].Cards) > len(out[j].Cards) })
	}
	return out, nil
}

// queryRecords executes a query and scans results into Records.
// Caller must hold s.mu (read lock is sufficient).
func (s *Store) queryRecords(query string, args ...any) ([]Record, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var date, excerpt, author sql.NullString
		var hasAnalysis int
		err := rows.Scan(
			&r.View, &r.Link, &r.Vendor, &r.Type, &r.Title,
			&date, &excerpt, &author, &hasAnalysis, &r.Indexed,
		)
		if err != nil {
			return nil, err
		}
		r.Date = date.String
		r.Excerpt = excerpt.String
		r.Author = author.String
		r.HasAnalysis = hasAnalysis != 0
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// boolToInt converts a bool to an int for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
