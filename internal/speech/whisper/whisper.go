// Package whisper transcribes offline with the whisper.cpp Go bindings.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/nadzzz/beckon/internal/config"
	"github.com/nadzzz/beckon/internal/speech"
)

// Transcriber runs a local whisper.cpp model.
type Transcriber struct {
	mu       sync.Mutex
	model    whisper.Model
	language string
	threads  int
}

// New loads the model at cfg.ModelPath.
func New(cfg config.WhisperConfig, language string) (*Transcriber, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("whisper: model_path is required")
	}
	m, err := whisper.New(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: loading model %s: %w", cfg.ModelPath, err)
	}
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	if language == "" {
		language = "auto"
	}
	return &Transcriber{model: m, language: language, threads: threads}, nil
}

// Name returns the engine identifier.
func (t *Transcriber) Name() string { return "whisper" }

// Transcribe runs the model over a 16 kHz mono clip.
func (t *Transcriber) Transcribe(ctx context.Context, audio speech.Audio) (string, error) {
	if len(audio.Samples) == 0 {
		return "", speech.ErrNoSpeech
	}
	if audio.SampleRate != 0 && audio.SampleRate != speech.SampleRate {
		return "", fmt.Errorf("whisper: need %d Hz audio, got %d", speech.SampleRate, audio.SampleRate)
	}

	// A model context is not safe for concurrent use.
	t.mu.Lock()
	defer t.mu.Unlock()

	wctx, err := t.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper: new context: %v: %w", err, speech.ErrUnavailable)
	}
	if err := wctx.SetLanguage(t.language); err != nil {
		return "", fmt.Errorf("whisper: set language %q: %w", t.language, err)
	}
	wctx.SetThreads(uint(t.threads))

	if err := wctx.Process(audio.Samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper: process: %v: %w", err, speech.ErrUnavailable)
	}

	var parts []string
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		seg, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisper: next segment: %w", err)
		}
		text := strings.TrimSpace(seg.Text)
		if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
			// annotations such as [BLANK_AUDIO]
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " "), nil
}

// Close releases the model.
func (t *Transcriber) Close() error {
	if t.model == nil {
		return nil
	}
	return t.model.Close()
}
