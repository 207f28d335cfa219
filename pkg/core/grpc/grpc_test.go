package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	cderror "github.com/msto63/cobdoc/foundation/core/error"
	"github.com/msto63/cobdoc/pkg/core/config"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

var testInfo = &grpc.UnaryServerInfo{FullMethod: "/cobdoc.v1.AnalysisService/Analyze"}

func TestServerConfigFrom(t *testing.T) {
	cfg := config.Default().Server
	cfg.Host = "127.0.0.1"
	cfg.Port = 9555
	cfg.EnableReflection = false
	cfg.KeepaliveInterval.Duration = time.Minute

	got := ServerConfigFrom(cfg)

	if got.Host != "127.0.0.1" || got.Port != 9555 {
		t.Errorf("address = %s:%d, want 127.0.0.1:9555", got.Host, got.Port)
	}
	if got.EnableReflection {
		t.Error("EnableReflection = true, want false")
	}
	if got.KeepaliveInterval != time.Minute {
		t.Errorf("KeepaliveInterval = %v, want 1m", got.KeepaliveInterval)
	}
	if got.MaxRecvMsgSize != DefaultServerConfig().MaxRecvMsgSize {
		t.Errorf("MaxRecvMsgSize = %v, want default", got.MaxRecvMsgSize)
	}
}

func TestRecoveryInterceptor(t *testing.T) {
	interceptor := RecoveryInterceptor()

	_, err := interceptor(context.Background(), nil, testInfo, func(ctx context.Context, req interface{}) (interface{}, error) {
		panic("boom")
	})

	if status.Code(err) != codes.Internal {
		t.Errorf("status code = %v, want %v", status.Code(err), codes.Internal)
	}
}

func TestRequestIDInterceptor(t *testing.T) {
	interceptor := RequestIDInterceptor()

	t.Run("generated", func(t *testing.T) {
		var seen string
		_, err := interceptor(context.Background(), nil, testInfo, func(ctx context.Context, req interface{}) (interface{}, error) {
			seen = GetRequestID(ctx)
			return nil, nil
		})
		if err != nil {
			t.Fatalf("interceptor error = %v", err)
		}
		if len(seen) != 36 {
			t.Errorf("GetRequestID() = %q, want a UUID", seen)
		}
	})

	t.Run("propagated", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDHeader, "req-42"))

		var seen string
		_, _ = interceptor(ctx, nil, testInfo, func(ctx context.Context, req interface{}) (interface{}, error) {
			seen = GetRequestID(ctx)
			return nil, nil
		})
		if seen != "req-42" {
			t.Errorf("GetRequestID() = %q, want req-42", seen)
		}
	})
}

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc")
	if got := GetRequestID(ctx); got != "abc" {
		t.Errorf("GetRequestID() = %q, want abc", got)
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID() = %q, want empty", got)
	}
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"syntax", cderror.New("syntax error at 'X' (line 3)").WithCode(cderror.CodeSyntax), codes.InvalidArgument},
		{"eof", cderror.New("syntax error at end of input").WithCode(cderror.CodeUnexpectedEOF), codes.InvalidArgument},
		{"too large", cderror.New("too large").WithCode(cderror.CodeInputTooLarge), codes.InvalidArgument},
		{"wrapped invalid", cderror.Wrap(cderror.New("empty").WithCode(cderror.CodeInvalidInput), "analyze"), codes.InvalidArgument},
		{"not found", cderror.New("run not found").WithCode(cderror.CodeNotFound), codes.NotFound},
		{"history disabled", cderror.New("run history is disabled").WithCode(cderror.CodeConfigError), codes.FailedPrecondition},
		{"storage", cderror.New("disk full").WithCode(cderror.CodeStorageError), codes.Internal},
		{"foreign", errors.New("plain"), codes.Internal},
		{"canceled", context.Canceled, codes.Canceled},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"already status", status.Error(codes.Unavailable, "down"), codes.Unavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := status.Code(ToStatus(tt.err)); got != tt.want {
				t.Errorf("ToStatus() code = %v, want %v", got, tt.want)
			}
		})
	}

	if ToStatus(nil) != nil {
		t.Error("ToStatus(nil) should be nil")
	}
}

func TestServer_Bufconn(t *testing.T) {
	cfg := DefaultServerConfig()
	server := NewServer(cfg)
	healthpb.RegisterHealthServer(server.GRPCServer(), health.NewServer())

	listener := bufconn.Listen(1024 * 1024)
	go server.Serve(listener)
	defer server.Stop()

	conn, err := Dial(DefaultClientConfig("passthrough:///bufnet"),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var header metadata.MD
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{}, grpc.Header(&header))
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("Check() status = %v, want SERVING", resp.GetStatus())
	}
	if ids := header.Get(RequestIDHeader); len(ids) != 1 || ids[0] == "" {
		t.Errorf("response header %s = %v, want one request ID", RequestIDHeader, ids)
	}
}
