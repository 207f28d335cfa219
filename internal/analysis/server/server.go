package server

import (
	"context"
	"net"
	"sync"
	"time"

	cderror "github.com/msto63/cobdoc/foundation/core/error"
	"github.com/msto63/cobdoc/internal/analysis/service"
	"github.com/msto63/cobdoc/internal/analysis/store"
	"github.com/msto63/cobdoc/pkg/core/config"
	coregrpc "github.com/msto63/cobdoc/pkg/core/grpc"
	"github.com/msto63/cobdoc/pkg/core/health"
	"github.com/msto63/cobdoc/pkg/core/logging"
	"github.com/msto63/cobdoc/pkg/core/version"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// probeProgram is parsed by the engine health check
const probeProgram = "IDENTIFICATION DIVISION.\nPROGRAM-ID. PROBE.\nDATA DIVISION.\nPROCEDURE DIVISION.\nMAIN-PARA.\n    STOP RUN.\n"

// Server is the analysis gRPC server
type Server struct {
	service      *service.Service
	grpc         *coregrpc.Server
	health       *health.Registry
	healthServer *grpchealth.Server
	logger       *logging.Logger
	config       Config
	startTime    time.Time

	mu          sync.Mutex
	stopWatcher context.CancelFunc
}

// Config holds server configuration
type Config struct {
	GRPC            coregrpc.ServerConfig
	Service         service.Config
	HealthInterval  time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		GRPC:            coregrpc.DefaultServerConfig(),
		Service:         service.DefaultConfig(),
		HealthInterval:  15 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// ConfigFrom maps the application config onto a server Config
func ConfigFrom(cfg *config.Config) Config {
	out := DefaultConfig()
	out.GRPC = coregrpc.ServerConfigFrom(cfg.Server)
	out.Service = service.ConfigFrom(cfg)
	if cfg.Server.ShutdownTimeout.Duration > 0 {
		out.ShutdownTimeout = cfg.Server.ShutdownTimeout.Duration
	}
	return out
}

// New creates the server and opens the analysis service
func New(cfg Config) (*Server, error) {
	svc, err := service.NewService(cfg.Service)
	if err != nil {
		return nil, cderror.Wrap(err, "failed to create service").
			WithOperation("server.New")
	}
	return NewWithService(cfg, svc), nil
}

// NewWithService creates the server on top of an existing service
func NewWithService(cfg Config, svc *service.Service) *Server {
	grpcServer := coregrpc.NewServer(cfg.GRPC)
	healthServer := grpchealth.NewServer()

	registry := health.NewRegistry(ServiceName, version.Service)
	registry.RegisterFunc("engine", func(ctx context.Context) health.CheckResult {
		if _, _, err := svc.Engine().Parse(probeProgram); err != nil {
			return health.CheckResult{Name: "engine", Status: health.StatusUnhealthy, Message: err.Error()}
		}
		return health.CheckResult{Name: "engine", Status: health.StatusHealthy, Message: "parser operational"}
	})
	if runStore := svc.Store(); runStore != nil {
		registry.Register(health.PingCheck("store", runStore))
	} else {
		registry.Register(health.Disabled("store"))
	}

	server := &Server{
		service:      svc,
		grpc:         grpcServer,
		health:       registry,
		healthServer: healthServer,
		logger:       logging.New("analysis-server"),
		config:       cfg,
		startTime:    time.Now(),
	}

	RegisterAnalysisServiceServer(grpcServer.GRPCServer(), server)
	healthpb.RegisterHealthServer(grpcServer.GRPCServer(), healthServer)

	return server
}

// Analyze implements AnalysisServiceServer.Analyze
func (s *Server) Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name := stringField(req, "name")
	source := stringField(req, "source")
	if source == "" {
		return nil, status.Error(codes.InvalidArgument, "source is required")
	}
	if name == "" {
		name = "<remote>"
	}

	report, err := s.service.Analyze(ctx, name, source)
	if err != nil {
		return nil, coregrpc.ToStatus(err)
	}

	analysis, err := report.Analysis.Struct()
	if err != nil {
		s.logger.Error("Failed to encode report", "run_id", report.RunID, "error", err.Error())
		return nil, status.Error(codes.Internal, "failed to encode report")
	}

	diagnostics := make([]interface{}, 0, len(report.Diagnostics))
	for _, d := range report.Diagnostics {
		diagnostics = append(diagnostics, map[string]interface{}{
			"char":    d.Char,
			"line":    d.Line,
			"column":  d.Column,
			"message": d.Message(),
		})
	}

	resp, err := structpb.NewStruct(map[string]interface{}{
		"run_id":      report.RunID,
		"name":        report.Name,
		"persisted":   report.Persisted,
		"cached":      report.Cached,
		"created_at":  report.CreatedAt.Format(time.RFC3339Nano),
		"diagnostics": diagnostics,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	resp.Fields["report"] = structpb.NewStructValue(analysis)
	return resp, nil
}

// ListRuns implements AnalysisServiceServer.ListRuns
func (s *Server) ListRuns(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	filter := store.RunFilter{
		Program: stringField(req, "program"),
		Status:  store.RunStatus(stringField(req, "status")),
		Limit:   intField(req, "limit"),
		Offset:  intField(req, "offset"),
	}

	runs, err := s.service.History(ctx, filter)
	if err != nil {
		return nil, coregrpc.ToStatus(err)
	}

	items := make([]interface{}, 0, len(runs))
	for _, run := range runs {
		items = append(items, runFields(run))
	}

	resp, err := structpb.NewStruct(map[string]interface{}{"runs": items})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

// GetRun implements AnalysisServiceServer.GetRun
func (s *Server) GetRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(req, "run_id")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "run_id is required")
	}

	run, err := s.service.Run(ctx, id)
	if err != nil {
		return nil, coregrpc.ToStatus(err)
	}

	fields := runFields(run)
	edges := make([]interface{}, 0, len(run.Edges))
	for _, e := range run.Edges {
		edges = append(edges, map[string]interface{}{"from": e.From, "to": e.To, "variable": e.Variable})
	}
	trace := make([]interface{}, 0, len(run.Trace))
	for _, step := range run.Trace {
		trace = append(trace, map[string]interface{}{"depth": step.Depth, "paragraph": step.Paragraph})
	}
	fields["edges"] = edges
	fields["trace"] = trace

	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

// Start serves on the configured address until stopped
func (s *Server) Start() error {
	s.logger.Info("Starting analysis server", "host", s.config.GRPC.Host, "port", s.config.GRPC.Port)
	s.watchHealth()
	return s.grpc.Start()
}

// StartAsync starts serving in the background
func (s *Server) StartAsync() error {
	s.logger.Info("Starting analysis server (async)", "host", s.config.GRPC.Host, "port", s.config.GRPC.Port)
	s.watchHealth()
	return s.grpc.StartAsync()
}

// Serve serves on an existing listener until stopped
func (s *Server) Serve(listener net.Listener) error {
	s.watchHealth()
	return s.grpc.Serve(listener)
}

// Stop drains in-flight calls, forcing shutdown after the configured
// timeout, and closes the service
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping analysis server", "uptime", time.Since(s.startTime).String())

	s.mu.Lock()
	if s.stopWatcher != nil {
		s.stopWatcher()
		s.stopWatcher = nil
	}
	s.mu.Unlock()
	s.healthServer.Shutdown()

	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}
	s.grpc.StopWithTimeout(ctx)
	return s.service.Close()
}

// watchHealth publishes the health registry until Stop
func (s *Server) watchHealth() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopWatcher != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stopWatcher = cancel
	// publish once synchronously so the first health probe sees a status
	s.health.Publish(ctx, s.healthServer)

	interval := s.config.HealthInterval
	if interval <= 0 {
		interval = DefaultConfig().HealthInterval
	}
	go s.health.Watch(ctx, interval, s.healthServer)
}

// Address returns the listening address
func (s *Server) Address() string {
	return s.grpc.Address()
}

// GRPCServer returns the underlying gRPC server
func (s *Server) GRPCServer() *grpc.Server {
	return s.grpc.GRPCServer()
}

// HealthRegistry returns the health check registry
func (s *Server) HealthRegistry() *health.Registry {
	return s.health
}

// Helper functions for Struct conversion

func runFields(run *store.Run) map[string]interface{} {
	return map[string]interface{}{
		"run_id":      run.ID,
		"name":        run.Name,
		"program":     run.Program,
		"status":      string(run.Status),
		"error":       run.Error,
		"entry_point": run.EntryPoint,
		"variables":   run.Variables,
		"paragraphs":  run.Paragraphs,
		"statements":  run.Statements,
		"diagnostics": run.Diagnostics,
		"duration_ms": float64(run.Duration.Microseconds()) / 1000,
		"created_at":  run.CreatedAt.Format(time.RFC3339Nano),
	}
}

func stringField(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	return s.GetFields()[key].GetStringValue()
}

func intField(s *structpb.Struct, key string) int {
	if s == nil {
		return 0
	}
	return int(s.GetFields()[key].GetNumberValue())
}
