// Package whisperserver transcribes through a self-hosted Whisper HTTP
// server.
//
// Two flavors are supported:
//   - "openai": OpenAI-compatible API (whisper.cpp server, faster-whisper)
//   - "asr":    ahmetoner/whisper-asr-webservice (POST /asr with query params)
package whisperserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/nadzzz/beckon/internal/config"
	"github.com/nadzzz/beckon/internal/speech"
)

// Transcriber posts WAV clips to a Whisper server.
type Transcriber struct {
	endpoint string
	flavor   string
	language string
	client   *http.Client
}

// New creates a Whisper server transcriber.
func New(cfg config.WhisperServerConfig, language string) *Transcriber {
	flavor := cfg.Type
	if flavor == "" {
		flavor = "openai"
	}
	return &Transcriber{
		endpoint: cfg.Endpoint,
		flavor:   flavor,
		language: language,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// Name returns the engine identifier.
func (t *Transcriber) Name() string { return "whisper-server" }

// Transcribe sends the clip and returns the recognized text. A server that
// cannot be reached or answers with an error status is reported as
// speech.ErrUnavailable.
func (t *Transcriber) Transcribe(ctx context.Context, audio speech.Audio) (string, error) {
	wav, err := speech.EncodeWAV(audio)
	if err != nil {
		return "", err
	}

	var req *http.Request
	switch t.flavor {
	case "asr":
		req, err = t.asrRequest(ctx, wav)
	default:
		req, err = t.openaiRequest(ctx, wav)
	}
	if err != nil {
		return "", err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("whisper request: %v: %w", err, speech.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("whisper transcription failed (status %d): %s: %w", resp.StatusCode, respBody, speech.ErrUnavailable)
	}

	var result struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding transcription: %w", err)
	}

	slog.DebugContext(ctx, "whisper transcription complete", "text_length", len(result.Text), "language", result.Language)
	return result.Text, nil
}

// asrRequest builds POST /asr?task=transcribe&language=en&output=json
// with the clip in the multipart field "audio_file".
func (t *Transcriber) asrRequest(ctx context.Context, wav []byte) (*http.Request, error) {
	body, contentType, err := multipartBody("audio_file", wav, nil)
	if err != nil {
		return nil, err
	}

	q := make(url.Values)
	q.Set("task", "transcribe")
	q.Set("output", "json")
	q.Set("encode", "true")
	if t.language != "" {
		q.Set("language", t.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint+"?"+q.Encode(), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return req, nil
}

// openaiRequest builds an OpenAI-style multipart upload.
func (t *Transcriber) openaiRequest(ctx context.Context, wav []byte) (*http.Request, error) {
	fields := map[string]string{"response_format": "json"}
	if t.language != "" {
		fields["language"] = t.language
	}
	body, contentType, err := multipartBody("file", wav, fields)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return req, nil
}

func multipartBody(field string, wav []byte, fields map[string]string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile(field, "speech.wav")
	if err != nil {
		return nil, "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return nil, "", fmt.Errorf("writing audio: %w", err)
	}
	for k, v := range fields {
		_ = writer.WriteField(k, v)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}
