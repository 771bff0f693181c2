// Package speech turns captured audio or typed input into utterances.
//
// A Source yields one Utterance per call. The microphone source pairs a
// Capturer (audio device) with a Transcriber (speech engine); the Fallback
// transcriber chains an online and an offline engine.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nadzzz/beckon/internal/message"
	"github.com/nadzzz/beckon/internal/metrics"
)

// SampleRate is the capture rate every engine accepts.
const SampleRate = 16000

var (
	// ErrNoSpeech means nothing intelligible was heard before the timeout.
	// It is routine and callers simply listen again.
	ErrNoSpeech = errors.New("no speech detected")

	// ErrUnavailable means the recognition service could not be reached or
	// refused the request. It triggers the secondary engine.
	ErrUnavailable = errors.New("recognition service unavailable")

	// ErrClosed means the source has no more input (e.g. stdin reached EOF).
	ErrClosed = errors.New("speech source closed")
)

// CaptureOpts bounds one capture call.
type CaptureOpts struct {
	Phase message.Phase

	// Timeout is how long to wait for speech to start.
	Timeout time.Duration

	// PhraseLimit caps the length of the captured phrase.
	PhraseLimit time.Duration

	// SilenceTimeout ends the phrase after this much trailing silence.
	SilenceTimeout time.Duration
}

// Source produces one utterance per call. It returns ErrNoSpeech on
// timeout and ErrClosed when no further input can arrive.
type Source interface {
	Listen(ctx context.Context, opts CaptureOpts) (message.Utterance, error)
}

// Audio is mono float32 PCM in [-1, 1].
type Audio struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the length of the clip.
func (a Audio) Duration() time.Duration {
	if a.SampleRate == 0 {
		return 0
	}
	return time.Duration(len(a.Samples)) * time.Second / time.Duration(a.SampleRate)
}

// Capturer records one phrase from an audio device.
type Capturer interface {
	Capture(ctx context.Context, opts CaptureOpts) (Audio, error)
}

// Transcriber converts audio to text.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, audio Audio) (string, error)
}

// MicSource listens through a Capturer and transcribes with a Transcriber.
type MicSource struct {
	capturer Capturer
	engine   Transcriber
}

// NewMicSource creates a microphone-backed Source.
func NewMicSource(capturer Capturer, engine Transcriber) *MicSource {
	return &MicSource{capturer: capturer, engine: engine}
}

// Listen captures and transcribes one phrase.
func (m *MicSource) Listen(ctx context.Context, opts CaptureOpts) (message.Utterance, error) {
	audio, err := m.capturer.Capture(ctx, opts)
	if err != nil {
		if errors.Is(err, ErrNoSpeech) {
			return message.Utterance{}, err
		}
		return message.Utterance{}, fmt.Errorf("capturing audio: %w", err)
	}
	slog.DebugContext(ctx, "audio captured", "phase", opts.Phase, "duration", audio.Duration())

	text, err := m.engine.Transcribe(ctx, audio)
	if err != nil {
		metrics.UtterancesTotal.WithLabelValues(m.engine.Name(), "error").Inc()
		return message.Utterance{}, err
	}
	text = normalize(text)
	if text == "" {
		metrics.UtterancesTotal.WithLabelValues(m.engine.Name(), "empty").Inc()
		return message.Utterance{}, ErrNoSpeech
	}
	metrics.UtterancesTotal.WithLabelValues(m.engine.Name(), "ok").Inc()

	return message.Utterance{
		Text:       text,
		Phase:      opts.Phase,
		Source:     m.engine.Name(),
		CapturedAt: time.Now(),
	}, nil
}

// normalize lowercases and trims recognized text.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
