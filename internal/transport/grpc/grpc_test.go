package grpc

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/nadzzz/beckon/internal/message"
)

func handler(_ context.Context, req *message.CommandRequest) (*message.CommandResponse, error) {
	switch req.Command {
	case "explode":
		return nil, errors.New("boom")
	case "shutdown":
		return &message.CommandResponse{ID: req.ID, Success: true, Response: "Goodbye!", Kind: message.OutcomeShutdown, Shutdown: true}, nil
	}
	return &message.CommandResponse{
		ID:       req.ID,
		Success:  true,
		Response: req.Source + ":" + req.Command,
		Kind:     message.OutcomeSearch,
		URL:      "https://www.youtube.com/results?search_query=cats",
	}, nil
}

func dial(t *testing.T) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	tr := New(0)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- tr.Serve(ctx, lis, handler) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		cancel()
		require.NoError(t, <-errc)
	})
	return conn
}

func TestExecute(t *testing.T) {
	conn := dial(t)

	resp, err := Execute(context.Background(), conn, &message.CommandRequest{ID: "r1", Command: "play cats"})
	require.NoError(t, err)
	assert.Equal(t, &message.CommandResponse{
		ID:       "r1",
		Success:  true,
		Response: "grpc:play cats",
		Kind:     message.OutcomeSearch,
		URL:      "https://www.youtube.com/results?search_query=cats",
	}, resp)

	resp, err = Execute(context.Background(), conn, &message.CommandRequest{Command: "shutdown", Source: "robot"})
	require.NoError(t, err)
	assert.True(t, resp.Shutdown)
}

func TestExecute_HandlerError(t *testing.T) {
	conn := dial(t)

	_, err := Execute(context.Background(), conn, &message.CommandRequest{Command: "explode"})
	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(errors.Unwrap(err)))
}

func TestHealth(t *testing.T) {
	conn := dial(t)

	res, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, res.GetStatus())
}
