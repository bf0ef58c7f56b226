// Package history keeps finished generation runs in a local SQLite database so
// they can be listed and exported again later.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sant0-9/chembfn/internal/pipeline"
)

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

// Entry is one stored run.
type Entry struct {
	ID        string
	CreatedAt time.Time
	Model     string
	Vocab     string
	Method    string
	BatchSize int
	Prompt    string
	Scaffold  string
	Transform string
	Device    string
	Elapsed   time.Duration
	Molecules []string
	Chemfig   []string
}

// FromResult converts a pipeline result into a history entry.
func FromResult(res *pipeline.Result) *Entry {
	return &Entry{
		ID:        res.ID,
		CreatedAt: res.CreatedAt,
		Model:     res.Job.Model,
		Vocab:     res.Job.Vocab,
		Method:    res.Job.Method,
		BatchSize: res.Job.BatchSize,
		Prompt:    res.Job.Prompt,
		Scaffold:  res.Job.Scaffold,
		Transform: res.Transform,
		Device:    res.Device,
		Elapsed:   res.Elapsed,
		Molecules: res.Molecules,
		Chemfig:   res.Chemfig,
	}
}

// Store manages the run history database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// NewStore creates or opens the history database at path.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{
		db:     db,
		dbPath: path,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		model TEXT NOT NULL,
		vocab TEXT,
		method TEXT NOT NULL,
		batch_size INTEGER NOT NULL,
		prompt TEXT,
		scaffold TEXT,
		transform TEXT,
		device TEXT,
		elapsed_ms INTEGER NOT NULL,
		molecules_json TEXT NOT NULL,
		chemfig_json TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Save inserts or replaces a run.
func (s *Store) Save(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		return fmt.Errorf("history entry has no id")
	}

	molecules, err := json.Marshal(nonNil(e.Molecules))
	if err != nil {
		return err
	}
	chemfig, err := json.Marshal(nonNil(e.Chemfig))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
			(id, created_at, model, vocab, method, batch_size, prompt, scaffold, transform, device, elapsed_ms, molecules_json, chemfig_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt.UnixMilli(), e.Model, e.Vocab, e.Method, e.BatchSize,
		e.Prompt, e.Scaffold, e.Transform, e.Device, e.Elapsed.Milliseconds(),
		string(molecules), string(chemfig),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", e.ID, err)
	}
	return nil
}

const selectRuns = `
	SELECT id, created_at, model, vocab, method, batch_size, prompt, scaffold, transform, device, elapsed_ms, molecules_json, chemfig_json
	FROM runs`

// List returns the most recent runs first. A limit of zero or less returns all.
func (s *Store) List(ctx context.Context, limit int) ([]*Entry, error) {
	query := selectRuns + " ORDER BY created_at DESC, id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	entries := []*Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get returns one run by id.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+" WHERE id = ?", id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, err
}

// Delete removes a run. Deleting an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		e                   Entry
		created, elapsed    int64
		vocab, prompt       sql.NullString
		scaffold, transform sql.NullString
		device, chemfig     sql.NullString
		molecules           string
	)
	err := row.Scan(&e.ID, &created, &e.Model, &vocab, &e.Method, &e.BatchSize,
		&prompt, &scaffold, &transform, &device, &elapsed, &molecules, &chemfig)
	if err != nil {
		return nil, err
	}

	e.CreatedAt = time.UnixMilli(created)
	e.Elapsed = time.Duration(elapsed) * time.Millisecond
	e.Vocab = vocab.String
	e.Prompt = prompt.String
	e.Scaffold = scaffold.String
	e.Transform = transform.String
	e.Device = device.String

	if err := json.Unmarshal([]byte(molecules), &e.Molecules); err != nil {
		return nil, fmt.Errorf("corrupt molecules for run %s: %w", e.ID, err)
	}
	if chemfig.Valid && chemfig.String != "" {
		if err := json.Unmarshal([]byte(chemfig.String), &e.Chemfig); err != nil {
			return nil, fmt.Errorf("corrupt chemfig for run %s: %w", e.ID, err)
		}
	}
	return &e, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
