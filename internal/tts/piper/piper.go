// Package piper implements the TTS Synthesizer using a Piper Wyoming protocol server.
//
// Piper is a fast, local neural text-to-speech system. The linuxserver/piper
// container exposes the Wyoming protocol on TCP port 10200.
//
// Wyoming protocol format (per event):
//
//	<json_length> <payload_length>\n
//	<json_bytes>\n
//	<payload_bytes>   (if payload_length > 0)
package piper

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/nadzzz/beckon/internal/config"
	"github.com/nadzzz/beckon/internal/tts"
	"github.com/nadzzz/beckon/internal/wavio"
)

const defaultVoice = "en_US-lessac-medium"

// Synthesizer implements tts.Synthesizer using the Wyoming protocol.
type Synthesizer struct {
	endpoint string // host:port of the Piper Wyoming server
	voice    string
}

// New creates a new Piper synthesizer from config.
func New(cfg config.PiperConfig) *Synthesizer {
	endpoint := strings.TrimPrefix(cfg.Endpoint, "tcp://")
	voice := cfg.Voice
	if voice == "" {
		voice = defaultVoice
	}
	return &Synthesizer{endpoint: endpoint, voice: voice}
}

// Synthesize sends text to the Piper server and returns synthesized audio as WAV.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text for synthesis")
	}
	if s.endpoint == "" {
		return nil, fmt.Errorf("no piper endpoint configured")
	}
	voice := opts.Voice
	if voice == "" {
		voice = s.voice
	}

	slog.Debug("piper synthesize", "text_length", len(text), "voice", voice, "endpoint", s.endpoint)

	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("connecting to piper: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(30 * time.Second))
	}

	synth := event{
		Type: "synthesize",
		Data: map[string]any{
			"text":  text,
			"voice": map[string]any{"name": voice},
		},
	}
	if err := writeEvent(conn, synth, nil); err != nil {
		return nil, fmt.Errorf("sending synthesize event: %w", err)
	}

	return readAudio(bufio.NewReader(conn))
}

// readAudio collects audio-start → audio-chunk* → audio-stop into a WAV file.
func readAudio(r *bufio.Reader) (*tts.SynthesizeResult, error) {
	var (
		pcm        bytes.Buffer
		sampleRate = 22050
		channels   = 1
	)
	for {
		evt, payload, err := readEvent(r)
		if err != nil {
			return nil, fmt.Errorf("reading piper event: %w", err)
		}

		switch evt.Type {
		case "audio-start":
			if rate, ok := evt.Data["rate"].(float64); ok {
				sampleRate = int(rate)
			}
			if ch, ok := evt.Data["channels"].(float64); ok {
				channels = int(ch)
			}
			if w, ok := evt.Data["width"].(float64); ok && int(w) != 2 {
				return nil, fmt.Errorf("piper: unsupported sample width %d", int(w))
			}

		case "audio-chunk":
			pcm.Write(payload)

		case "audio-stop":
			wav, err := wavio.Encode(wavio.FromInt16LE(pcm.Bytes()), sampleRate, channels)
			if err != nil {
				return nil, err
			}
			slog.Debug("piper audio-stop", "pcm_bytes", pcm.Len(), "rate", sampleRate)
			return &tts.SynthesizeResult{
				Audio:       wav,
				ContentType: "audio/wav",
				SampleRate:  sampleRate,
				Channels:    channels,
			}, nil

		case "error":
			msg := "unknown error"
			if text, ok := evt.Data["text"].(string); ok {
				msg = text
			}
			return nil, fmt.Errorf("piper error: %s", msg)

		default:
			slog.Debug("piper unknown event", "type", evt.Type)
		}
	}
}

// Close is a no-op; connections are per-request.
func (s *Synthesizer) Close() error { return nil }

type event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// writeEvent sends a Wyoming event.
func writeEvent(w io.Writer, evt event, payload []byte) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d %d\n", len(body), len(payload))
	buf.Write(body)
	buf.WriteByte('\n')
	buf.Write(payload)
	_, err = w.Write(buf.Bytes())
	return err
}

// readEvent reads one Wyoming event.
func readEvent(r *bufio.Reader) (*event, []byte, error) {
	header, err := r.ReadString('\n')
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}

	jsonField, payloadField, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return nil, nil, fmt.Errorf("invalid wyoming header: %q", header)
	}
	jsonLen, err := strconv.Atoi(jsonField)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing json_length: %w", err)
	}
	payloadLen, err := strconv.Atoi(payloadField)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing payload_length: %w", err)
	}

	body := make([]byte, jsonLen+1) // trailing \n
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, nil, fmt.Errorf("reading json: %w", err)
	}

	var evt event
	if err := json.Unmarshal(body[:jsonLen], &evt); err != nil {
		return nil, nil, fmt.Errorf("unmarshalling event: %w", err)
	}

	var payload []byte
	if payloadLen > 0 {
		payload = make([]byte, payloadLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, nil, fmt.Errorf("reading payload: %w", err)
		}
	}
	return &evt, payload, nil
}
