// Package ipc carries push-to-talk triggers over a unix socket.
//
// Each connection carries one JSON ControlMessage. The daemon runs a Server;
// `beckon trigger` calls SendCommand.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"
)

// CmdTrigger asks the session to capture the next utterance.
const CmdTrigger = "trigger"

// ControlMessage is the wire format of one request.
type ControlMessage struct {
	Cmd string `json:"cmd"`
}

// Server accepts control messages and turns triggers into a channel signal.
type Server struct {
	path     string
	triggers chan struct{}

	mu sync.Mutex
	ln net.Listener
}

// NewServer creates a Server bound to the socket path once Listen runs.
func NewServer(path string) *Server {
	return &Server{path: path, triggers: make(chan struct{}, 1)}
}

// Name returns the trigger name.
func (s *Server) Name() string { return "ipc" }

// Listen serves the socket until ctx is cancelled.
func (s *Server) Listen(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket: %w", err)
	}
	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.path, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	slog.Info("ipc trigger listening", "socket", s.path)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			slog.Warn("ipc accept failed", "error", err)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConn(conn)
		}()
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		slog.Debug("ipc bad message", "error", err)
		return
	}
	switch msg.Cmd {
	case CmdTrigger:
		select {
		case s.triggers <- struct{}{}:
		default: // a trigger is already pending
		}
	default:
		slog.Warn("ipc unknown command", "cmd", msg.Cmd)
	}
}

// Wait blocks until a trigger arrives or ctx is done.
func (s *Server) Wait(ctx context.Context) error {
	select {
	case <-s.triggers:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendCommand delivers one command to the server at path.
func SendCommand(path, cmd string) error {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", path, err)
	}
	defer conn.Close()

	return json.NewEncoder(conn).Encode(ControlMessage{Cmd: cmd})
}
