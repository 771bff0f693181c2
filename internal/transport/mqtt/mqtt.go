// Package mqtt implements the MQTT transport for beckon.
//
// MQTT is well-suited for IoT devices and home-automation hubs. This
// transport subscribes to the command topic and publishes one
// CommandResponse JSON document on the response topic per command.
// Payloads may be a CommandRequest JSON object or plain command text.
package mqtt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/nadzzz/beckon/internal/config"
	"github.com/nadzzz/beckon/internal/message"
	"github.com/nadzzz/beckon/internal/metrics"
	"github.com/nadzzz/beckon/internal/transport"
)

const qos = 1

// Transport implements transport.Transport over MQTT.
type Transport struct {
	cfg    config.MQTTConfig
	client paho.Client
}

// New creates a new MQTT transport.
func New(cfg config.MQTTConfig) *Transport {
	return &Transport{cfg: cfg}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "mqtt" }

// Listen connects to the MQTT broker and subscribes to the command topic.
// It blocks until the context is cancelled.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	onMessage := func(c paho.Client, m paho.Message) {
		out, err := process(ctx, handler, m.Payload())
		if err != nil {
			slog.Warn("mqtt command rejected", "topic", m.Topic(), "error", err)
			return
		}
		tok := c.Publish(t.cfg.ResponseTopic, qos, false, out)
		if tok.WaitTimeout(5*time.Second) && tok.Error() != nil {
			slog.Warn("mqtt publish failed", "topic", t.cfg.ResponseTopic, "error", tok.Error())
		}
	}

	opts := paho.NewClientOptions().
		AddBroker(t.cfg.Broker).
		SetClientID(t.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second).
		SetOnConnectHandler(func(c paho.Client) {
			// Resubscribe on every (re)connect.
			tok := c.Subscribe(t.cfg.CommandTopic, qos, onMessage)
			if tok.Wait() && tok.Error() != nil {
				slog.Error("mqtt subscribe failed", "topic", t.cfg.CommandTopic, "error", tok.Error())
				return
			}
			slog.Info("mqtt subscribed", "topic", t.cfg.CommandTopic)
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			slog.Warn("mqtt connection lost", "error", err)
		})

	t.client = paho.NewClient(opts)
	tok := t.client.Connect()
	if tok.Wait() && tok.Error() != nil {
		return fmt.Errorf("mqtt connect %s: %w", t.cfg.Broker, tok.Error())
	}
	slog.Info("mqtt transport listening", "broker", t.cfg.Broker, "topic", t.cfg.CommandTopic)

	<-ctx.Done()
	slog.Info("mqtt transport shutting down")
	return t.Close()
}

// process runs one payload through the handler and returns the response
// document.
func process(ctx context.Context, handler transport.Handler, payload []byte) ([]byte, error) {
	metrics.TransportRequestsTotal.WithLabelValues("mqtt").Inc()

	req, err := decodeRequest(payload)
	if err != nil {
		return nil, err
	}
	resp, err := handler(ctx, req)
	if err != nil {
		resp = &message.CommandResponse{ID: req.ID, Response: "Server error: " + err.Error()}
	}
	return json.Marshal(resp)
}

// decodeRequest accepts a CommandRequest JSON object or plain text.
func decodeRequest(payload []byte) (*message.CommandRequest, error) {
	payload = bytes.TrimSpace(payload)
	req := &message.CommandRequest{Source: "mqtt"}
	if len(payload) > 0 && payload[0] == '{' {
		if err := json.Unmarshal(payload, req); err != nil {
			return nil, fmt.Errorf("decoding command: %w", err)
		}
		if req.Source == "" {
			req.Source = "mqtt"
		}
		return req, nil
	}
	req.Command = string(payload)
	return req, nil
}

// Close disconnects from the MQTT broker.
func (t *Transport) Close() error {
	if t.client != nil && t.client.IsConnected() {
		t.client.Unsubscribe(t.cfg.CommandTopic).WaitTimeout(time.Second)
		t.client.Disconnect(250)
	}
	return nil
}
