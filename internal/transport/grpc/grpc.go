// Package grpc implements the gRPC transport for beckon.
//
// The service is beckon.v1.Commander with a single unary Execute method.
// Requests and responses are google.protobuf.Struct values, so clients such
// as grpcurl need no generated stubs:
//
//	grpcurl -plaintext -d '{"command":"open spotify"}' localhost:50051 beckon.v1.Commander/Execute
package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nadzzz/beckon/internal/message"
	"github.com/nadzzz/beckon/internal/metrics"
	"github.com/nadzzz/beckon/internal/transport"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "beckon.v1.Commander"

const executeMethod = "/" + ServiceName + "/Execute"

// commanderServer is the service implementation type checked by grpc.
type commanderServer interface {
	execute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*commanderServer)(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: "Execute",
		Handler:    executeHandler,
	}},
	Metadata: "beckon/v1/commander.proto",
}

func executeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(commanderServer).execute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: executeMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(commanderServer).execute(ctx, req.(*structpb.Struct))
	})
}

type service struct {
	handler transport.Handler
}

func (s *service) execute(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	metrics.TransportRequestsTotal.WithLabelValues("grpc").Inc()

	fields := in.GetFields()
	req := &message.CommandRequest{
		ID:      fields["id"].GetStringValue(),
		Command: fields["command"].GetStringValue(),
		Source:  fields["source"].GetStringValue(),
	}
	if req.Source == "" {
		req.Source = "grpc"
	}

	resp, err := s.handler(ctx, req)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "execute: %v", err)
	}
	return toStruct(resp)
}

func toStruct(resp *message.CommandResponse) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(map[string]any{
		"id":       resp.ID,
		"success":  resp.Success,
		"response": resp.Response,
		"kind":     string(resp.Kind),
		"url":      resp.URL,
		"shutdown": resp.Shutdown,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	return out, nil
}

func fromStruct(s *structpb.Struct) *message.CommandResponse {
	f := s.GetFields()
	return &message.CommandResponse{
		ID:       f["id"].GetStringValue(),
		Success:  f["success"].GetBoolValue(),
		Response: f["response"].GetStringValue(),
		Kind:     message.OutcomeKind(f["kind"].GetStringValue()),
		URL:      f["url"].GetStringValue(),
		Shutdown: f["shutdown"].GetBoolValue(),
	}
}

// Execute calls the Commander service over cc.
func Execute(ctx context.Context, cc grpc.ClientConnInterface, req *message.CommandRequest) (*message.CommandResponse, error) {
	in, err := structpb.NewStruct(map[string]any{
		"id":      req.ID,
		"command": req.Command,
		"source":  req.Source,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	out := new(structpb.Struct)
	if err := cc.Invoke(ctx, executeMethod, in, out); err != nil {
		return nil, fmt.Errorf("grpc execute: %w", err)
	}
	return fromStruct(out), nil
}

// Transport implements transport.Transport over gRPC.
type Transport struct {
	port   int
	server *grpc.Server
	health *health.Server
}

// New creates a new gRPC transport on the given port.
func New(port int) *Transport {
	return &Transport{port: port}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// Listen starts the gRPC server and routes incoming requests to the handler.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	slog.Info("grpc transport listening", "port", t.port)
	return t.Serve(ctx, lis, handler)
}

// Serve runs the server on lis until ctx is cancelled.
func (t *Transport) Serve(ctx context.Context, lis net.Listener, handler transport.Handler) error {
	t.server = grpc.NewServer()
	t.server.RegisterService(&serviceDesc, &service{handler: handler})

	t.health = health.NewServer()
	healthpb.RegisterHealthServer(t.server, t.health)
	t.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	// Enable reflection for debugging (e.g. grpcurl)
	reflection.Register(t.server)

	go func() {
		<-ctx.Done()
		slog.Info("grpc transport shutting down")
		_ = t.Close()
	}()

	if err := t.server.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Close gracefully stops the gRPC server.
func (t *Transport) Close() error {
	if t.health != nil {
		t.health.Shutdown()
	}
	if t.server != nil {
		t.server.GracefulStop()
	}
	return nil
}
