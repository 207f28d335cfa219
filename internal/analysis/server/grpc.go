package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "cobdoc.v1.AnalysisService"

const (
	methodAnalyze  = "/" + ServiceName + "/Analyze"
	methodListRuns = "/" + ServiceName + "/ListRuns"
	methodGetRun   = "/" + ServiceName + "/GetRun"
)

// AnalysisServiceServer is the server API of the analysis service. Requests
// and responses are google.protobuf.Struct documents.
//
//	Analyze  {name, source}                       -> {run_id, name, persisted, cached, report, diagnostics}
//	ListRuns {program?, status?, limit?, offset?} -> {runs: [...]}
//	GetRun   {run_id}                             -> run with edges and trace
type AnalysisServiceServer interface {
	Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListRuns(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterAnalysisServiceServer registers srv on s
func RegisterAnalysisServiceServer(s grpc.ServiceRegistrar, srv AnalysisServiceServer) {
	s.RegisterService(&analysisServiceDesc, srv)
}

var analysisServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AnalysisServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Analyze", Handler: analyzeHandler},
		{MethodName: "ListRuns", Handler: listRunsHandler},
		{MethodName: "GetRun", Handler: getRunHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cobdoc/v1/analysis.proto",
}

type unaryMethod func(AnalysisServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// unaryHandler adapts a method to grpc.MethodDesc, running it through the
// server's interceptor chain
func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AnalysisServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(AnalysisServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var (
	analyzeHandler = unaryHandler(methodAnalyze, func(s AnalysisServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
		return s.Analyze(ctx, in)
	})
	listRunsHandler = unaryHandler(methodListRuns, func(s AnalysisServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
		return s.ListRuns(ctx, in)
	})
	getRunHandler = unaryHandler(methodGetRun, func(s AnalysisServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
		return s.GetRun(ctx, in)
	})
)

// Client calls a remote analysis service
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a client on an established connection
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Analyze submits source for analysis
func (c *Client) Analyze(ctx context.Context, name, source string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(map[string]interface{}{
		"name":   name,
		"source": source,
	})
	if err != nil {
		return nil, err
	}
	return c.invoke(ctx, methodAnalyze, req, opts...)
}

// ListRuns lists recorded runs; req may carry program, status, limit and offset
func (c *Client) ListRuns(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if req == nil {
		req = &structpb.Struct{}
	}
	return c.invoke(ctx, methodListRuns, req, opts...)
}

// GetRun loads one recorded run
func (c *Client) GetRun(ctx context.Context, runID string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(map[string]interface{}{"run_id": runID})
	if err != nil {
		return nil, err
	}
	return c.invoke(ctx, methodGetRun, req, opts...)
}

func (c *Client) invoke(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
