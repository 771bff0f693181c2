// Package tts speaks the assistant's narration.
//
// An Announcer is fire-and-forget: failures are logged and never reach the
// caller. The console announcer prints every line; the voice announcer
// synthesizes speech and plays it through a Player.
package tts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Announcer delivers one line of narration.
type Announcer interface {
	Announce(ctx context.Context, text string)
}

// SynthesizeOpts controls synthesis behavior.
type SynthesizeOpts struct {
	// Voice overrides the synthesizer's configured voice.
	Voice string
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	// Synthesize returns the spoken text as a WAV file.
	Synthesize(ctx context.Context, text string, opts SynthesizeOpts) (*SynthesizeResult, error)

	// Close releases any resources held by the synthesizer.
	Close() error
}

// SynthesizeResult holds the output of TTS synthesis.
type SynthesizeResult struct {
	// Audio is the synthesized audio as a WAV file.
	Audio []byte

	// ContentType is the MIME type of the audio (e.g., "audio/wav").
	ContentType string

	// SampleRate is the audio sample rate in Hz (e.g., 22050).
	SampleRate int

	// Channels is the number of audio channels (typically 1).
	Channels int
}

// Player plays a WAV file to completion.
type Player interface {
	Play(ctx context.Context, wav []byte) error
}

// Console prints narration as "<name>: <text>".
type Console struct {
	mu   sync.Mutex
	name string
	w    io.Writer
}

// NewConsole creates a console announcer.
func NewConsole(name string, w io.Writer) *Console {
	return &Console{name: name, w: w}
}

// Announce writes one line.
func (c *Console) Announce(_ context.Context, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintf(c.w, "%s: %s\n", c.name, text); err != nil {
		slog.Warn("console announce failed", "error", err)
	}
}

// Voice speaks narration through a synthesizer and a player.
type Voice struct {
	synth   Synthesizer
	player  Player
	timeout time.Duration
}

// NewVoice creates a voice announcer.
func NewVoice(synth Synthesizer, player Player) *Voice {
	return &Voice{synth: synth, player: player, timeout: 30 * time.Second}
}

// Announce synthesizes and plays text, blocking until playback ends.
func (v *Voice) Announce(ctx context.Context, text string) {
	if text == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	res, err := v.synth.Synthesize(ctx, text, SynthesizeOpts{})
	if err != nil {
		slog.WarnContext(ctx, "speech synthesis failed", "error", err)
		return
	}
	if err := v.player.Play(ctx, res.Audio); err != nil {
		slog.WarnContext(ctx, "speech playback failed", "error", err)
	}
}

// Multi announces through several announcers in order.
type Multi []Announcer

// Announce forwards text to every announcer.
func (m Multi) Announce(ctx context.Context, text string) {
	for _, a := range m {
		a.Announce(ctx, text)
	}
}
