// Package http implements the HTTP/WebSocket transport for beckon.
//
// This transport exposes a REST API for typed commands, a small web page
// for sending them from a browser, and a WebSocket endpoint carrying the
// same JSON envelope. It is best suited for web clients and phones.
package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/nadzzz/beckon/internal/message"
	"github.com/nadzzz/beckon/internal/metrics"
	"github.com/nadzzz/beckon/internal/transport"
)

//go:embed index.html
var indexHTML string

var page = template.Must(template.New("index").Parse(indexHTML))

// StatusResponse is returned by GET /api/test.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Transport implements transport.Transport over HTTP and WebSocket.
type Transport struct {
	port      int
	assistant string
	upgrader  websocket.Upgrader

	server *http.Server

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// New creates a new HTTP transport on the given port. The assistant name is
// shown on the web page.
func New(port int, assistant string) *Transport {
	return &Transport{
		port:      port,
		assistant: assistant,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Handler builds the transport's routes.
func (t *Transport) Handler(handler transport.Handler) http.Handler {
	mux := http.NewServeMux()

	// POST /api/command runs one typed command.
	mux.HandleFunc("POST /api/command", func(w http.ResponseWriter, r *http.Request) {
		t.handleCommand(w, r, handler)
	})

	mux.HandleFunc("GET /api/test", t.handleTest)

	// GET /ws: one JSON CommandRequest in, one CommandResponse out, repeated.
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		t.handleWebSocket(w, r, handler)
	})

	// Swagger UI serves the generated OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := page.Execute(w, struct{ Name string }{t.assistant}); err != nil {
			slog.Error("rendering index", "error", err)
		}
	})

	return mux
}

// Listen starts the HTTP server and routes incoming requests to the handler.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	t.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           t.Handler(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("http transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		_ = t.Close()
	}()

	if err := t.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// handleCommand processes a POST /api/command request.
//
// @Summary     Run a typed command
// @Description Routes the command text through the same interpreter as the voice path.
// @Description A JSON body carries {"command": "..."}; a text/plain body is the command itself.
// @Tags        command
// @Accept      json
// @Accept      plain
// @Produce     json
// @Param       request  body      message.CommandRequest   true  "Command request"
// @Success     200      {object}  message.CommandResponse  "Outcome of the command"
// @Failure     400      {object}  message.CommandResponse  "Invalid request body"
// @Failure     500      {object}  message.CommandResponse  "Internal processing error"
// @Router      /api/command [post]
func (t *Transport) handleCommand(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	metrics.TransportRequestsTotal.WithLabelValues("http").Inc()

	var req message.CommandRequest
	body := io.LimitReader(r.Body, 64<<10)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "text/plain") {
		text, err := io.ReadAll(body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, &message.CommandResponse{Response: "reading body: " + err.Error()})
			return
		}
		req.Command = string(text)
	} else if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, &message.CommandResponse{Response: "invalid json: " + err.Error()})
		return
	}
	if req.Source == "" {
		req.Source = "http"
	}

	resp, err := handler(r.Context(), &req)
	if err != nil {
		slog.Error("command failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, &message.CommandResponse{ID: req.ID, Response: "Server error: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTest reports that the server is up.
//
// @Summary     Connectivity check
// @Tags        command
// @Produce     json
// @Success     200  {object}  StatusResponse
// @Router      /api/test [get]
func (t *Transport) handleTest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Success: true,
		Message: fmt.Sprintf("%s web server is running!", t.assistant),
	})
}

func (t *Transport) handleWebSocket(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	t.track(conn, true)
	defer func() {
		t.track(conn, false)
		conn.Close()
	}()

	for {
		var req message.CommandRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read failed", "error", err)
			}
			return
		}
		metrics.TransportRequestsTotal.WithLabelValues("ws").Inc()
		if req.Source == "" {
			req.Source = "ws"
		}

		resp, err := handler(r.Context(), &req)
		if err != nil {
			resp = &message.CommandResponse{ID: req.ID, Response: "Server error: " + err.Error()}
		}
		if err := conn.WriteJSON(resp); err != nil {
			slog.Warn("websocket write failed", "error", err)
			return
		}
	}
}

func (t *Transport) track(conn *websocket.Conn, open bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if open {
		t.conns[conn] = struct{}{}
	} else {
		delete(t.conns, conn)
	}
}

// Close gracefully shuts down the HTTP server and drops open WebSockets.
func (t *Transport) Close() error {
	t.mu.Lock()
	for conn := range t.conns {
		conn.Close()
	}
	t.mu.Unlock()

	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
