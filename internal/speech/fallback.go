package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/nadzzz/beckon/internal/config"
)

// Fallback tries a primary engine and, when it is unavailable, a secondary
// one. A circuit breaker stops calling a primary that keeps failing until
// its cooldown passes. "No speech" from the primary is final.
type Fallback struct {
	primary   Transcriber
	secondary Transcriber // may be nil
	breaker   *gobreaker.CircuitBreaker
}

// attempt carries the primary's own result through the breaker, so that
// only unavailability counts as a breaker failure.
type attempt struct {
	text string
	err  error
}

// NewFallback creates a Fallback. secondary may be nil.
func NewFallback(primary, secondary Transcriber, cfg config.BreakerConfig) *Fallback {
	failures := cfg.Failures
	if failures == 0 {
		failures = 3
	}
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}

	return &Fallback{
		primary:   primary,
		secondary: secondary,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        primary.Name(),
			MaxRequests: 1,
			Timeout:     cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("speech engine circuit changed",
					"engine", name,
					"from", from.String(),
					"to", to.String(),
				)
			},
		}),
	}
}

// Name identifies the engine chain.
func (f *Fallback) Name() string {
	if f.secondary == nil {
		return f.primary.Name()
	}
	return f.primary.Name() + "|" + f.secondary.Name()
}

// State reports the primary engine's circuit state.
func (f *Fallback) State() gobreaker.State {
	return f.breaker.State()
}

// Transcribe runs the fallback policy. When every engine is unavailable the
// result is ErrNoSpeech.
func (f *Fallback) Transcribe(ctx context.Context, audio Audio) (string, error) {
	res, err := f.breaker.Execute(func() (interface{}, error) {
		text, err := f.primary.Transcribe(ctx, audio)
		if errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		return attempt{text: text, err: err}, nil
	})
	if err == nil {
		a := res.(attempt)
		return a.text, a.err
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	slog.WarnContext(ctx, "primary speech engine failed", "engine", f.primary.Name(), "error", err)
	if f.secondary == nil {
		return "", fmt.Errorf("%s: %v: %w", f.primary.Name(), err, ErrNoSpeech)
	}

	text, err := f.secondary.Transcribe(ctx, audio)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			slog.WarnContext(ctx, "secondary speech engine failed", "engine", f.secondary.Name(), "error", err)
			return "", fmt.Errorf("all speech engines failed: %w", ErrNoSpeech)
		}
		return "", err
	}
	return text, nil
}
