// Package ledgerstore persists scenario run ledgers in SQLite so runs can be
// inspected after the process exits.
package ledgerstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/brianly1003/evbus/internal/scenario"
)

// ErrRunNotFound is returned when a run ID is not in the store.
var ErrRunNotFound = errors.New("run not found")

// schemaVersion is incremented when the schema changes. Older databases
// are rebuilt.
const schemaVersion = 1

// timeLayout has a fixed-width fraction so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// Run is a stored scenario run.
type Run struct {
	ID         string    `json:"id"`
	Scenario   string    `json:"scenario"`
	Mode       string    `json:"mode"`
	Passed     bool      `json:"passed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Entries    int       `json:"entries"`
	Failures   []string  `json:"failures,omitempty"`
}

// Entry is a stored ledger entry. The event is kept as JSON.
type Entry struct {
	RunID      string          `json:"run_id"`
	Seq        uint64          `json:"seq"`
	DispatchID string          `json:"dispatch_id"`
	EventType  string          `json:"event_type"`
	Subscriber string          `json:"subscriber"`
	Handler    string          `json:"handler"`
	PostedAt   time.Time       `json:"posted_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Store is a SQLite-backed ledger store.
type Store struct {
	db   *sql.DB
	path string

	mu     sync.Mutex
	closed bool
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, path: path}, nil
}

// createSchema creates the database schema, handling version migrations.
func createSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS metadata (key TEXT PRIMARY KEY, value TEXT)`)
	if err != nil {
		return err
	}

	var currentVersion int
	row := db.QueryRow("SELECT value FROM metadata WHERE key = 'schema_version'")
	if err := row.Scan(&currentVersion); err != nil {
		// No version found, this is a new database
		currentVersion = 0
	}

	if currentVersion < schemaVersion {
		log.Info().
			Int("old_version", currentVersion).
			Int("new_version", schemaVersion).
			Msg("schema version changed, rebuilding ledger store")

		_, _ = db.Exec("DROP TABLE IF EXISTS entries")
		_, _ = db.Exec("DROP TABLE IF EXISTS runs")
	}

	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			scenario TEXT,
			mode TEXT,
			passed INTEGER,
			started_at TEXT,
			finished_at TEXT,
			entry_count INTEGER,
			failures TEXT
		);
		CREATE TABLE IF NOT EXISTS entries (
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			dispatch_id TEXT,
			event_type TEXT,
			subscriber TEXT,
			handler TEXT,
			posted_at TEXT,
			payload TEXT,
			PRIMARY KEY (run_id, seq)
		);
		CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
	`
	if _, err := db.Exec(schema); err != nil {
		return err
	}

	_, err = db.Exec("INSERT OR REPLACE INTO metadata (key, value) VALUES ('schema_version', ?)", schemaVersion)
	return err
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Save stores a run and its entries in one transaction. Saving an existing
// run ID replaces it.
func (s *Store) Save(run Run, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	failures, err := json.Marshal(run.Failures)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM entries WHERE run_id = ?", run.ID); err != nil {
		return err
	}
	_, err = tx.Exec(`
		INSERT OR REPLACE INTO runs
		(run_id, scenario, mode, passed, started_at, finished_at, entry_count, failures)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Scenario,
		run.Mode,
		run.Passed,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		len(entries),
		string(failures),
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO entries
		(run_id, seq, dispatch_id, event_type, subscriber, handler, posted_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		_, err := stmt.Exec(
			run.ID,
			int64(e.Seq),
			e.DispatchID,
			e.EventType,
			e.Subscriber,
			e.Handler,
			formatTime(e.PostedAt),
			string(e.Payload),
		)
		if err != nil {
			return fmt.Errorf("failed to store entry %d: %w", e.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Debug().Str("run_id", run.ID).Int("entries", len(entries)).Msg("saved run ledger")
	return nil
}

// SaveReport stores a scenario report.
func (s *Store) SaveReport(report *scenario.Report) error {
	run, entries, err := FromReport(report)
	if err != nil {
		return err
	}
	return s.Save(run, entries)
}

// FromReport converts a scenario report into a run and its entries.
func FromReport(report *scenario.Report) (Run, []Entry, error) {
	run := Run{
		ID:         report.RunID,
		Scenario:   report.Scenario,
		Mode:       report.Mode,
		Passed:     report.Passed(),
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Entries:    len(report.Entries),
		Failures:   report.Failures,
	}

	entries := make([]Entry, 0, len(report.Entries))
	for _, e := range report.Entries {
		payload, err := json.Marshal(e.Event)
		if err != nil {
			return Run{}, nil, fmt.Errorf("failed to encode event %d: %w", e.Seq, err)
		}
		entries = append(entries, Entry{
			RunID:      report.RunID,
			Seq:        e.Seq,
			DispatchID: e.DispatchID,
			EventType:  string(e.EventType),
			Subscriber: e.Subscriber,
			Handler:    e.Handler,
			PostedAt:   e.PostedAt,
			Payload:    payload,
		})
	}
	return run, entries, nil
}

// Runs returns stored runs, newest first. A limit of zero returns all.
func (s *Store) Runs(limit int) ([]Run, error) {
	start := time.Now()

	query := `
		SELECT run_id, scenario, mode, passed, started_at, finished_at, entry_count, failures
		FROM runs
		ORDER BY started_at DESC
	`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.Debug().
		Int("count", len(runs)).
		Dur("elapsed_ms", time.Since(start)).
		Msg("listed runs from ledger store")

	return runs, nil
}

// Run returns a single run.
func (s *Store) Run(id string) (Run, error) {
	row := s.db.QueryRow(`
		SELECT run_id, scenario, mode, passed, started_at, finished_at, entry_count, failures
		FROM runs WHERE run_id = ?
	`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, err
}

// Entries returns the ledger of a run in delivery order.
func (s *Store) Entries(runID string) ([]Entry, error) {
	if _, err := s.Run(runID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT run_id, seq, dispatch_id, event_type, subscriber, handler, posted_at, payload
		FROM entries WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var seq int64
		var postedAt, payload string
		if err := rows.Scan(&e.RunID, &seq, &e.DispatchID, &e.EventType, &e.Subscriber, &e.Handler, &postedAt, &payload); err != nil {
			return nil, err
		}
		e.Seq = uint64(seq)
		e.PostedAt, _ = time.Parse(time.RFC3339Nano, postedAt)
		e.Payload = json.RawMessage(payload)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteRun removes a run and its entries in one transaction.
func (s *Store) DeleteRun(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.Exec("DELETE FROM runs WHERE run_id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if _, err := tx.Exec("DELETE FROM entries WHERE run_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete entries of run %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	log.Info().Str("run_id", id).Msg("deleted run")
	return nil
}

// Close closes the database. Closing twice is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	var startedAt, finishedAt, failures string
	if err := row.Scan(&r.ID, &r.Scenario, &r.Mode, &r.Passed, &startedAt, &finishedAt, &r.Entries, &failures); err != nil {
		return Run{}, err
	}
	r.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
	r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt)
	if failures != "" && failures != "null" {
		_ = json.Unmarshal([]byte(failures), &r.Failures)
	}
	return r, nil
}
