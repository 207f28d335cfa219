package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/msto63/cobdoc/foundation/cobol"
	"github.com/msto63/cobdoc/foundation/cobol/analyzer"
	cdast "github.com/msto63/cobdoc/foundation/cobol/ast"
	"github.com/msto63/cobdoc/foundation/cobol/parser"
	cderror "github.com/msto63/cobdoc/foundation/core/error"
	"github.com/msto63/cobdoc/internal/analysis/store"
	"github.com/msto63/cobdoc/pkg/core/cache"
	"github.com/msto63/cobdoc/pkg/core/config"
	"github.com/msto63/cobdoc/pkg/core/logging"
)

// DefaultHistoryLimit caps History when no limit is given
const DefaultHistoryLimit = 20

// Config holds configuration for the analysis service
type Config struct {
	Engine       cobol.Options
	Timeout      time.Duration
	StoreEnabled bool
	StorePath    string
	CacheSize    int // 0 disables the result cache
	CacheTTL     time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		StoreEnabled: true,
		StorePath:    store.DefaultConfig().Path,
		CacheSize:    128,
		CacheTTL:     10 * time.Minute,
	}
}

// ConfigFrom maps the application config onto a service Config
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Engine: cobol.Options{
			MaxInputLength: cfg.Parser.MaxInputLength,
			NestedCalls:    cfg.Analysis.NestedCalls,
			MaxTraceDepth:  cfg.Analysis.MaxTraceDepth,
		},
		Timeout:      cfg.Analysis.Timeout.Duration,
		StoreEnabled: cfg.Store.Enabled,
		StorePath:    cfg.Store.Path,
		CacheSize:    cfg.Analysis.CacheSize,
		CacheTTL:     cfg.Analysis.CacheTTL.Duration,
	}
}

// Report is the outcome of one Analyze call
type Report struct {
	RunID       string
	Name        string
	Result      *cobol.Result
	Analysis    *analyzer.Report
	Diagnostics []parser.Diagnostic
	CreatedAt   time.Time
	Persisted   bool
	Cached      bool // Result was reused from an earlier run of the same source
}

// RunError is returned by Analyze when the pipeline fails. It carries the
// ID under which the failed run was recorded.
type RunError struct {
	RunID string
	Err   error
}

func (e *RunError) Error() string { return e.Err.Error() }

func (e *RunError) Unwrap() error { return e.Err }

// Service runs analyses and keeps their history
type Service struct {
	engine  *cobol.Engine
	store   store.RunStore
	results *cache.Cache[*cobol.Result]
	logger  *logging.Logger
	timeout time.Duration
}

// NewService creates the service, opening the SQLite store when enabled
func NewService(cfg Config) (*Service, error) {
	var runStore store.RunStore
	if cfg.StoreEnabled {
		sqliteStore, err := store.NewSQLiteRunStore(store.SQLiteConfig{Path: cfg.StorePath})
		if err != nil {
			return nil, cderror.Wrap(err, "failed to open run store").
				WithOperation("service.New")
		}
		runStore = sqliteStore
	}
	return NewWithStore(cfg, runStore)
}

// NewWithStore creates the service on top of an existing store; a nil
// store disables history
func NewWithStore(cfg Config, runStore store.RunStore) (*Service, error) {
	logger := logging.New("analysis-service")

	engineOpts := cfg.Engine
	if engineOpts.Logger == nil {
		engineOpts.Logger = logger.Logger
	}

	engine, err := cobol.NewEngine(engineOpts)
	if err != nil {
		return nil, cderror.Wrap(err, "failed to create analysis engine").
			WithOperation("service.New")
	}

	svc := &Service{
		engine:  engine,
		store:   runStore,
		logger:  logger,
		timeout: cfg.Timeout,
	}
	if cfg.CacheSize > 0 {
		svc.results = cache.New[*cobol.Result](cache.Config{
			MaxItems: cfg.CacheSize,
			TTL:      cfg.CacheTTL,
		})
	}
	return svc, nil
}

// Analyze runs the pipeline on source and records the run. name labels the
// run, typically the source file name. A syntax error is recorded as a
// failed run and returned.
func (s *Service) Analyze(ctx context.Context, name, source string) (*Report, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	runID := uuid.New().String()
	createdAt := time.Now().UTC()

	result, cached, err := s.analyze(ctx, source)
	if err != nil {
		s.logger.Warn("Analysis failed", "run_id", runID, "name", name, "error", err.Error())
		s.persist(ctx, &store.Run{
			ID:        runID,
			Name:      name,
			Status:    store.StatusFailed,
			Error:     err.Error(),
			CreatedAt: createdAt,
		})
		return nil, &RunError{RunID: runID, Err: err}
	}

	report := &Report{
		RunID:       runID,
		Name:        name,
		Result:      result,
		Analysis:    result.Analysis.Report(),
		Diagnostics: result.Diagnostics,
		CreatedAt:   createdAt,
		Cached:      cached,
	}

	run, err := newRun(report)
	if err != nil {
		s.logger.Warn("Failed to export AST", "run_id", runID, "error", err.Error())
	} else {
		report.Persisted = s.persist(ctx, run)
	}

	s.logger.Info("Analysis completed",
		"run_id", runID,
		"name", name,
		"program", result.Program.Name,
		"edges", len(result.Analysis.DataFlow()),
		"persisted", report.Persisted,
		"cached", cached,
	)

	return report, nil
}

// analyze runs the engine, reusing a cached result for identical source.
// A Result is never modified after the engine returns it.
func (s *Service) analyze(ctx context.Context, source string) (*cobol.Result, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if s.results == nil {
		result, err := s.engine.Analyze(ctx, source)
		return result, false, err
	}

	sum := sha256.Sum256([]byte(source))
	return s.results.GetOrSet(hex.EncodeToString(sum[:]), func() (*cobol.Result, error) {
		return s.engine.Analyze(ctx, source)
	})
}

// persist saves run when a store is configured. Storage failures are logged
// and do not fail the analysis.
func (s *Service) persist(ctx context.Context, run *store.Run) bool {
	if s.store == nil {
		return false
	}
	// a run that timed out is still worth recording
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}
	if err := s.store.Save(ctx, run); err != nil {
		s.logger.Error("Failed to persist run", "run_id", run.ID, "error", err.Error())
		return false
	}
	return true
}

func newRun(report *Report) (*store.Run, error) {
	result := report.Result
	summary := report.Analysis.Summary

	ast, err := cdast.Export(result.Program).JSON()
	if err != nil {
		return nil, err
	}

	run := &store.Run{
		ID:          report.RunID,
		Name:        report.Name,
		Program:     summary.Program,
		Status:      store.StatusCompleted,
		EntryPoint:  summary.EntryPoint,
		Variables:   summary.TotalVariables,
		Paragraphs:  summary.TotalProcedures,
		Statements:  summary.TotalStatements,
		Diagnostics: len(report.Diagnostics),
		Duration:    result.Duration,
		CreatedAt:   report.CreatedAt,
		AST:         ast,
	}

	for _, edge := range result.Analysis.DataFlow() {
		run.Edges = append(run.Edges, store.Edge{From: edge.From, To: edge.To, Variable: edge.Variable})
	}
	for _, step := range result.Analysis.Trace() {
		run.Trace = append(run.Trace, store.TraceStep{Depth: step.Depth, Paragraph: step.Paragraph})
	}
	return run, nil
}

// History lists recorded runs, newest first
func (s *Service) History(ctx context.Context, filter store.RunFilter) ([]*store.Run, error) {
	if err := s.requireStore("service.History"); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultHistoryLimit
	}
	return s.store.List(ctx, filter)
}

// Run loads one recorded run with its edges and trace
func (s *Service) Run(ctx context.Context, id string) (*store.Run, error) {
	if err := s.requireStore("service.Run"); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

// Prune deletes runs older than olderThan and returns how many were removed
func (s *Service) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if err := s.requireStore("service.Prune"); err != nil {
		return 0, err
	}
	pruned, err := s.store.Prune(ctx, olderThan)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Pruned run history", "pruned", pruned, "older_than", olderThan.String())
	return pruned, nil
}

// Engine returns the underlying analysis engine
func (s *Service) Engine() *cobol.Engine {
	return s.engine
}

// Store returns the run store, nil when history is disabled
func (s *Service) Store() store.RunStore {
	return s.store
}

// Close releases the store and stops the result cache
func (s *Service) Close() error {
	if s.results != nil {
		s.results.Close()
	}
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

func (s *Service) requireStore(operation string) error {
	if s.store == nil {
		return cderror.New("run history is disabled").
			WithCode(cderror.CodeConfigError).
			WithOperation(operation)
	}
	return nil
}
