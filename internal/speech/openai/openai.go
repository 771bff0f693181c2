// Package openai implements online transcription with the OpenAI audio API.
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/net/proxy"

	"github.com/nadzzz/beckon/internal/config"
	"github.com/nadzzz/beckon/internal/speech"
)

// Transcriber sends captured audio to the OpenAI transcription endpoint.
type Transcriber struct {
	client   openai.Client
	model    string
	language string
}

// New creates an OpenAI transcriber. When cfg.Proxy is set, requests go
// through that SOCKS5 proxy.
func New(cfg config.OpenAIConfig, language string, opts ...option.RequestOption) (*Transcriber, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: api_key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "whisper-1"
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(1)}
	if cfg.Proxy != "" {
		hc, err := socksClient(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("openai: proxy %s: %w", cfg.Proxy, err)
		}
		reqOpts = append(reqOpts, option.WithHTTPClient(hc))
	}
	reqOpts = append(reqOpts, opts...)

	return &Transcriber{
		client:   openai.NewClient(reqOpts...),
		model:    model,
		language: language,
	}, nil
}

// Name returns the engine identifier.
func (t *Transcriber) Name() string { return "openai" }

// Transcribe uploads the clip as WAV and returns the recognized text.
// Network and server failures are reported as speech.ErrUnavailable.
func (t *Transcriber) Transcribe(ctx context.Context, audio speech.Audio) (string, error) {
	data, err := speech.EncodeWAV(audio)
	if err != nil {
		return "", err
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(data), "speech.wav", "audio/wav"),
		Model: openai.AudioModel(t.model),
	}
	if t.language != "" {
		params.Language = openai.String(t.language)
	}

	start := time.Now()
	res, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
			// Rejected audio (too short, silent) is not an outage.
			return "", fmt.Errorf("openai: %v: %w", err, speech.ErrNoSpeech)
		}
		return "", fmt.Errorf("openai: %v: %w", err, speech.ErrUnavailable)
	}

	slog.DebugContext(ctx, "openai transcription complete",
		"text_length", len(res.Text),
		"duration", time.Since(start),
	)
	return res.Text, nil
}

func socksClient(addr string) (*http.Client, error) {
	dialer, err := proxy.SOCKS5("tcp", addr, nil, proxy.Direct)
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				if cd, ok := dialer.(proxy.ContextDialer); ok {
					return cd.DialContext(ctx, network, addr)
				}
				return dialer.Dial(network, addr)
			},
		},
		Timeout: 120 * time.Second,
	}, nil
}
