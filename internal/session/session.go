// Package session runs the voice loop: wait for the wake word, capture one
// command, dispatch it, repeat until asked to stop.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/nadzzz/beckon/internal/config"
	"github.com/nadzzz/beckon/internal/message"
	"github.com/nadzzz/beckon/internal/metrics"
	"github.com/nadzzz/beckon/internal/speech"
	"github.com/nadzzz/beckon/internal/tts"
)

// State is a position in the session state machine.
type State int32

const (
	AwaitingWakeWord State = iota
	AwaitingCommand
	Dispatching
	ShuttingDown
)

func (s State) String() string {
	switch s {
	case AwaitingWakeWord:
		return "awaiting_wake_word"
	case AwaitingCommand:
		return "awaiting_command"
	case Dispatching:
		return "dispatching"
	case ShuttingDown:
		return "shutting_down"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Mode selects how captures are gated.
type Mode string

const (
	// ModeContinuous captures back to back; a short pause ends a phrase.
	ModeContinuous Mode = "continuous"

	// ModePushToTalk waits for a trigger before each wake capture and ends a
	// phrase on a longer silence.
	ModePushToTalk Mode = "push-to-talk"
)

// Announcement lines.
const (
	promptCommand = "Yes, what would you like me to do?"
	notHeard      = "I didn't hear a clear command. Please try again."
	interrupted   = "Goodbye!"
	failed        = "Sorry, something went wrong."
)

// maxRetryInterval caps the wait between captures while the device keeps
// failing.
const maxRetryInterval = 30 * time.Second

// Executor turns command text into an outcome.
type Executor interface {
	Execute(ctx context.Context, text string) message.ActionOutcome
}

// Trigger gates captures in push-to-talk mode.
type Trigger interface {
	Wait(ctx context.Context) error
}

// Cue plays a short sound when the wake word is heard.
type Cue interface {
	Ring(ctx context.Context) error
}

// Options configures a Loop.
type Options struct {
	Name     string
	WakeWord string
	Mode     Mode

	// Trigger gates wake captures in push-to-talk mode. Nil means no gate.
	Trigger Trigger

	// Cue is optional.
	Cue Cue

	SpeechTimeout  time.Duration
	PhraseLimit    time.Duration
	SilenceTimeout time.Duration // push-to-talk phrase end
	Pause          time.Duration // continuous phrase end
	MinChars       int
	Cooldown       time.Duration
}

// OptionsFromConfig maps configuration onto Options. Trigger and Cue are
// left for the caller to wire.
func OptionsFromConfig(a config.AssistantConfig, s config.SessionConfig) Options {
	return Options{
		Name:           a.Name,
		WakeWord:       a.WakeWord,
		Mode:           Mode(s.Mode),
		SpeechTimeout:  s.SpeechTimeout,
		PhraseLimit:    s.PhraseLimit,
		SilenceTimeout: s.SilenceTimeout,
		Pause:          s.Pause,
		MinChars:       s.MinChars,
		Cooldown:       s.Cooldown,
	}
}

// Loop is the session state machine. It is driven by a single goroutine.
type Loop struct {
	source    speech.Source
	exec      Executor
	announcer tts.Announcer
	opts      Options

	state    atomic.Int32
	failures int
	retry    *backoff.ExponentialBackOff
}

// New creates a Loop.
func New(source speech.Source, exec Executor, announcer tts.Announcer, opts Options) *Loop {
	opts.WakeWord = strings.ToLower(strings.TrimSpace(opts.WakeWord))
	if opts.Mode == "" {
		opts.Mode = ModePushToTalk
	}
	if opts.MinChars <= 0 {
		opts.MinChars = 2
	}
	return &Loop{source: source, exec: exec, announcer: announcer, opts: opts, retry: newRetry(opts.Cooldown)}
}

// newRetry spaces out captures while the device keeps failing, starting at
// the cooldown and never giving up.
func newRetry(initial time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = maxRetryInterval
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// State returns the current state.
func (l *Loop) State() State { return State(l.state.Load()) }

func (l *Loop) setState(s State) {
	if old := State(l.state.Swap(int32(s))); old != s {
		slog.Debug("session state", "from", old, "to", s)
	}
}

// Run drives the loop until a shutdown command, a closed source, a failed
// trigger, or ctx cancellation. The farewell is always announced.
// It returns nil on an orderly shutdown.
func (l *Loop) Run(ctx context.Context) error {
	l.announce(ctx, fmt.Sprintf("%s is online and listening.", l.opts.Name))
	l.announce(ctx, "Running in "+l.modeText())

	l.setState(AwaitingWakeWord)
	var (
		command  string
		farewell = interrupted
		runErr   error
	)

	for l.State() != ShuttingDown {
		if ctx.Err() != nil {
			l.setState(ShuttingDown)
			break
		}

		switch l.State() {
		case AwaitingWakeWord:
			woke, err := l.awaitWake(ctx)
			if err != nil {
				runErr = l.stopReason(err, &farewell)
				l.setState(ShuttingDown)
				continue
			}
			if woke {
				l.setState(AwaitingCommand)
			}

		case AwaitingCommand:
			text, err := l.awaitCommand(ctx)
			switch {
			case err != nil:
				runErr = l.stopReason(err, &farewell)
				l.setState(ShuttingDown)
			case text == "":
				l.announce(ctx, notHeard)
				l.setState(AwaitingWakeWord)
			default:
				command = text
				l.setState(Dispatching)
			}

		case Dispatching:
			out := l.exec.Execute(ctx, command)
			l.announce(ctx, out.Narration)
			if out.ShouldShutdown {
				farewell = "" // the shutdown narration is the farewell
				l.setState(ShuttingDown)
				continue
			}
			l.sleep(ctx, l.opts.Cooldown)
			l.setState(AwaitingWakeWord)
		}
	}

	if farewell != "" {
		// The run context may already be cancelled.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		l.announce(fctx, farewell)
		cancel()
	}
	slog.Info("session ended")
	return runErr
}

// awaitWake captures one utterance and reports whether it held the wake word.
// A non-nil error ends the session.
func (l *Loop) awaitWake(ctx context.Context) (bool, error) {
	if l.opts.Mode == ModePushToTalk && l.opts.Trigger != nil {
		if err := l.opts.Trigger.Wait(ctx); err != nil {
			return false, err
		}
	}

	u, err := l.listen(ctx, message.PhaseWake)
	if err != nil || len(u.Text) < l.opts.MinChars {
		return false, err
	}
	if !strings.Contains(strings.ToLower(u.Text), l.opts.WakeWord) {
		slog.Debug("no wake word", "text", u.Text)
		return false, nil
	}

	slog.Info("wake word detected", "text", u.Text, "source", u.Source)
	metrics.WakeWordsTotal.Inc()
	if l.opts.Cue != nil {
		if err := l.opts.Cue.Ring(ctx); err != nil {
			slog.Warn("wake cue failed", "error", err)
		}
	}
	l.announce(ctx, promptCommand)
	return true, nil
}

// awaitCommand captures the command utterance. Empty text means nothing
// usable was heard.
func (l *Loop) awaitCommand(ctx context.Context) (string, error) {
	u, err := l.listen(ctx, message.PhaseCommand)
	if err != nil {
		return "", err
	}
	if len(strings.TrimSpace(u.Text)) < l.opts.MinChars {
		return "", nil
	}
	slog.Info("command received", "text", u.Text, "source", u.Source)
	return u.Text, nil
}

// listen captures one utterance. Recoverable failures come back as an empty
// utterance; the error is non-nil only when the session must end.
func (l *Loop) listen(ctx context.Context, phase message.Phase) (message.Utterance, error) {
	u, err := l.source.Listen(ctx, l.captureOpts(phase))
	switch {
	case err == nil:
		l.resetRetry()
		return u, nil
	case errors.Is(err, speech.ErrNoSpeech):
		l.resetRetry()
		return message.Utterance{}, nil
	case ctx.Err() != nil, errors.Is(err, speech.ErrClosed):
		return message.Utterance{}, err
	}

	l.failures++
	wait := l.retry.NextBackOff()
	slog.Warn("capture failed", "phase", phase, "error", err, "consecutive", l.failures, "retry_in", wait)
	l.sleep(ctx, wait)
	return message.Utterance{}, nil
}

// resetRetry clears the failure streak after a capture that worked.
func (l *Loop) resetRetry() {
	l.failures = 0
	l.retry.Reset()
}


func (l *Loop) captureOpts(phase message.Phase) speech.CaptureOpts {
	silence := l.opts.SilenceTimeout
	if l.opts.Mode == ModeContinuous {
		silence = l.opts.Pause
	}
	return speech.CaptureOpts{
		Phase:          phase,
		Timeout:        l.opts.SpeechTimeout,
		PhraseLimit:    l.opts.PhraseLimit,
		SilenceTimeout: silence,
	}
}

// stopReason picks the farewell for an error that ends the session and
// returns the error Run should report.
func (l *Loop) stopReason(err error, farewell *string) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		slog.Info("session interrupted")
		return nil
	case errors.Is(err, speech.ErrClosed):
		slog.Info("speech source closed", "error", err)
		return nil
	default:
		slog.Error("session failed", "error", err)
		*farewell = failed
		return err
	}
}

func (l *Loop) modeText() string {
	if l.opts.Mode == ModeContinuous {
		return "continuous listening"
	}
	return "speech detection mode"
}

func (l *Loop) announce(ctx context.Context, text string) {
	if text == "" {
		return
	}
	l.announcer.Announce(ctx, text)
}

func (l *Loop) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
