package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	cderror "github.com/msto63/cobdoc/foundation/core/error"
)

// RunStatus is the outcome of an analysis run
type RunStatus string

const (
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Edge is a persisted dataflow edge
type Edge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Variable string `json:"variable"`
}

// TraceStep is a persisted execution trace entry
type TraceStep struct {
	Depth     int    `json:"depth"`
	Paragraph string `json:"paragraph"`
}

// Run is one recorded analysis
type Run struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Program     string        `json:"program"`
	Status      RunStatus     `json:"status"`
	Error       string        `json:"error,omitempty"`
	EntryPoint  string        `json:"entry_point,omitempty"`
	Variables   int           `json:"variables"`
	Paragraphs  int           `json:"paragraphs"`
	Statements  int           `json:"statements"`
	Diagnostics int           `json:"diagnostics"`
	Duration    time.Duration `json:"duration"`
	CreatedAt   time.Time     `json:"created_at"`

	// Exported AST document as JSON; empty for failed runs
	AST []byte `json:"-"`

	// Loaded by Get only
	Edges []Edge      `json:"edges,omitempty"`
	Trace []TraceStep `json:"trace,omitempty"`
}

// RunFilter defines criteria for listing runs
type RunFilter struct {
	Program string
	Status  RunStatus
	Limit   int
	Offset  int
}

// RunStore defines the interface for run persistence
type RunStore interface {
	Save(ctx context.Context, run *Run) error
	Get(ctx context.Context, id string) (*Run, error)
	List(ctx context.Context, filter RunFilter) ([]*Run, error)
	Delete(ctx context.Context, id string) error
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
	PingContext(ctx context.Context) error
	Close() error
}

// SQLiteRunStore implements RunStore using SQLite
type SQLiteRunStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// SQLiteConfig holds configuration for the SQLite store
type SQLiteConfig struct {
	Path string
}

// DefaultConfig returns default configuration
func DefaultConfig() SQLiteConfig {
	return SQLiteConfig{
		Path: "./data/cobdoc.db",
	}
}

// NewSQLiteRunStore opens (and creates) the run database
func NewSQLiteRunStore(cfg SQLiteConfig) (*SQLiteRunStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, storageError(err, "failed to create directory").WithDetail("path", dir)
	}

	// Open database with WAL mode
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on")
	if err != nil {
		return nil, storageError(err, "failed to open database").WithDetail("path", cfg.Path)
	}

	store := &SQLiteRunStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, storageError(err, "failed to initialize schema")
	}

	return store, nil
}

// initSchema creates the necessary tables
func (s *SQLiteRunStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		program TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		error TEXT,
		entry_point TEXT,
		variables INTEGER NOT NULL DEFAULT 0,
		paragraphs INTEGER NOT NULL DEFAULT 0,
		statements INTEGER NOT NULL DEFAULT 0,
		diagnostics INTEGER NOT NULL DEFAULT 0,
		duration_ns INTEGER NOT NULL DEFAULT 0,
		ast TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS dataflow_edges (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		from_paragraph TEXT NOT NULL,
		to_paragraph TEXT NOT NULL,
		variable TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	CREATE TABLE IF NOT EXISTS trace_steps (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		depth INTEGER NOT NULL,
		paragraph TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_program ON runs(program);
	CREATE INDEX IF NOT EXISTS idx_edges_variable ON dataflow_edges(variable);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Save records a run with its edges and trace in one transaction
func (s *SQLiteRunStore) Save(ctx context.Context, run *Run) error {
	if run.ID == "" {
		return cderror.New("run ID is required").
			WithCode(cderror.CodeInvalidInput).
			WithOperation("store.Save")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	// stored as text; a single zone keeps ordering and pruning lexical
	run.CreatedAt = run.CreatedAt.UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var ast sql.NullString
	if len(run.AST) > 0 {
		ast = sql.NullString{String: string(run.AST), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, name, program, status, error, entry_point, variables,
			paragraphs, statements, diagnostics, duration_ns, ast, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Name, run.Program, string(run.Status), run.Error, run.EntryPoint,
		run.Variables, run.Paragraphs, run.Statements, run.Diagnostics,
		int64(run.Duration), ast, run.CreatedAt)
	if err != nil {
		return storageError(err, "failed to insert run").WithDetail("run_id", run.ID)
	}

	if len(run.Edges) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO dataflow_edges (run_id, seq, from_paragraph, to_paragraph, variable)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return storageError(err, "failed to prepare statement")
		}
		defer stmt.Close()

		for i, edge := range run.Edges {
			if _, err := stmt.ExecContext(ctx, run.ID, i, edge.From, edge.To, edge.Variable); err != nil {
				return storageError(err, "failed to insert dataflow edge").WithDetail("run_id", run.ID)
			}
		}
	}

	if len(run.Trace) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO trace_steps (run_id, seq, depth, paragraph)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return storageError(err, "failed to prepare statement")
		}
		defer stmt.Close()

		for i, step := range run.Trace {
			if _, err := stmt.ExecContext(ctx, run.ID, i, step.Depth, step.Paragraph); err != nil {
				return storageError(err, "failed to insert trace step").WithDetail("run_id", run.ID)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return storageError(err, "failed to commit transaction")
	}

	return nil
}

const runColumns = `id, name, program, status, error, entry_point, variables,
	paragraphs, statements, diagnostics, duration_ns, ast, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var status string
	var errMsg, entryPoint, ast sql.NullString
	var durationNS int64

	if err := row.Scan(&run.ID, &run.Name, &run.Program, &status, &errMsg, &entryPoint,
		&run.Variables, &run.Paragraphs, &run.Statements, &run.Diagnostics,
		&durationNS, &ast, &run.CreatedAt); err != nil {
		return nil, err
	}

	run.Status = RunStatus(status)
	run.Error = errMsg.String
	run.EntryPoint = entryPoint.String
	run.Duration = time.Duration(durationNS)
	if ast.Valid {
		run.AST = []byte(ast.String)
	}
	return &run, nil
}

// Get loads a run with its edges and trace
func (s *SQLiteRunStore) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, storageError(err, "failed to load run").WithDetail("run_id", id)
	}

	edgeRows, err := s.db.QueryContext(ctx, `
		SELECT from_paragraph, to_paragraph, variable FROM dataflow_edges
		WHERE run_id = ? ORDER BY seq
	`, id)
	if err != nil {
		return nil, storageError(err, "failed to query dataflow edges")
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		var edge Edge
		if err := edgeRows.Scan(&edge.From, &edge.To, &edge.Variable); err != nil {
			return nil, storageError(err, "failed to scan dataflow edge")
		}
		run.Edges = append(run.Edges, edge)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, storageError(err, "failed to read dataflow edges")
	}

	traceRows, err := s.db.QueryContext(ctx, `
		SELECT depth, paragraph FROM trace_steps WHERE run_id = ? ORDER BY seq
	`, id)
	if err != nil {
		return nil, storageError(err, "failed to query trace")
	}
	defer traceRows.Close()

	for traceRows.Next() {
		var step TraceStep
		if err := traceRows.Scan(&step.Depth, &step.Paragraph); err != nil {
			return nil, storageError(err, "failed to scan trace step")
		}
		run.Trace = append(run.Trace, step)
	}
	if err := traceRows.Err(); err != nil {
		return nil, storageError(err, "failed to read trace")
	}

	return run, nil
}

// List returns runs newest first, without edges and trace
func (s *SQLiteRunStore) List(ctx context.Context, filter RunFilter) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	var args []interface{}

	if filter.Program != "" {
		query += " AND program = ?"
		args = append(args, filter.Program)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}

	query += " ORDER BY created_at DESC, rowid DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError(err, "failed to query runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, storageError(err, "failed to scan run")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(err, "failed to read runs")
	}

	return runs, nil
}

// Delete removes a run and its edges and trace
func (s *SQLiteRunStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return storageError(err, "failed to delete run").WithDetail("run_id", id)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound(id)
	}
	return nil
}

// Prune removes runs older than the given age
func (s *SQLiteRunStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-olderThan)
	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, storageError(err, "failed to prune runs")
	}
	return result.RowsAffected()
}

// PingContext verifies the database is reachable
func (s *SQLiteRunStore) PingContext(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLiteRunStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// MemoryRunStore is an in-memory RunStore
type MemoryRunStore struct {
	mu   sync.RWMutex
	runs map[string]*Run
	seq  map[string]int
	next int
}

// NewMemoryRunStore creates an empty in-memory store
func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{
		runs: make(map[string]*Run),
		seq:  make(map[string]int),
	}
}

// Save records a copy of run
func (s *MemoryRunStore) Save(ctx context.Context, run *Run) error {
	if run.ID == "" {
		return cderror.New("run ID is required").
			WithCode(cderror.CodeInvalidInput).
			WithOperation("store.Save")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; exists {
		return cderror.Newf("run already exists: %s", run.ID).
			WithCode(cderror.CodeStorageError).
			WithOperation("store.Save")
	}

	stored := *run
	stored.Edges = append([]Edge(nil), run.Edges...)
	stored.Trace = append([]TraceStep(nil), run.Trace...)
	s.runs[run.ID] = &stored
	s.seq[run.ID] = s.next
	s.next++
	return nil
}

// Get returns a copy of the run
func (s *MemoryRunStore) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, notFound(id)
	}
	out := *run
	return &out, nil
}

// List returns runs newest first, without edges and trace
func (s *MemoryRunStore) List(ctx context.Context, filter RunFilter) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var runs []*Run
	for _, run := range s.runs {
		if filter.Program != "" && run.Program != filter.Program {
			continue
		}
		if filter.Status != "" && run.Status != filter.Status {
			continue
		}
		out := *run
		out.Edges = nil
		out.Trace = nil
		runs = append(runs, &out)
	}

	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return s.seq[runs[i].ID] > s.seq[runs[j].ID]
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(runs) {
			return nil, nil
		}
		runs = runs[filter.Offset:]
	}
	if filter.Limit > 0 && len(runs) > filter.Limit {
		runs = runs[:filter.Limit]
	}
	return runs, nil
}

// Delete removes a run
func (s *MemoryRunStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return notFound(id)
	}
	delete(s.runs, id)
	delete(s.seq, id)
	return nil
}

// Prune removes runs older than the given age
func (s *MemoryRunStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-olderThan)
	var pruned int64
	for id, run := range s.runs {
		if run.CreatedAt.Before(cutoff) {
			delete(s.runs, id)
			delete(s.seq, id)
			pruned++
		}
	}
	return pruned, nil
}

// PingContext always succeeds
func (s *MemoryRunStore) PingContext(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (s *MemoryRunStore) Close() error {
	return nil
}

func storageError(err error, message string) *cderror.Error {
	return cderror.Wrap(err, message).
		WithCode(cderror.CodeStorageError).
		WithOperation("store")
}

func notFound(id string) *cderror.Error {
	return cderror.Newf("run not found: %s", id).
		WithCode(cderror.CodeNotFound).
		WithDetail("run_id", id).
		WithOperation("store")
}
