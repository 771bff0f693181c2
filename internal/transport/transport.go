// Package transport defines the interface for pluggable command transports.
//
// Each transport (gRPC, HTTP/WebSocket, MQTT) accepts typed command text from
// remote clients and hands it to a Handler. Transports don't care how
// commands are interpreted; they only work with the Handler contract.
package transport

import (
	"context"

	"github.com/nadzzz/beckon/internal/message"
)

// Handler processes one command request and returns the response.
// The dispatcher provides this handler to each transport.
type Handler func(ctx context.Context, req *message.CommandRequest) (*message.CommandResponse, error)

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "grpc", "http", "mqtt").
	Name() string

	// Listen starts accepting commands and routes them to the handler.
	// It blocks until the context is cancelled.
	Listen(ctx context.Context, handler Handler) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}
