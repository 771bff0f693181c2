package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

const outputRate = beep.SampleRate(44100)

// Speaker plays decoded audio on the default output device. The device is
// opened on first use at a fixed rate; other rates are resampled.
type Speaker struct {
	once    sync.Once
	initErr error
	mu      sync.Mutex // one sound at a time
}

// NewSpeaker creates a Speaker.
func NewSpeaker() *Speaker { return &Speaker{} }

func (s *Speaker) init() error {
	s.once.Do(func() {
		s.initErr = speaker.Init(outputRate, outputRate.N(time.Second/10))
	})
	return s.initErr
}

// Play plays a WAV file to completion.
func (s *Speaker) Play(ctx context.Context, data []byte) error {
	streamer, format, err := wav.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decoding wav: %w", err)
	}
	defer streamer.Close()
	return s.play(ctx, streamer, format)
}

// PlayMP3 plays an mp3 file from disk to completion.
func (s *Speaker) PlayMP3(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("decoding mp3: %w", err)
	}
	defer streamer.Close()
	return s.play(ctx, streamer, format)
}

func (s *Speaker) play(ctx context.Context, streamer beep.Streamer, format beep.Format) error {
	if err := s.init(); err != nil {
		return fmt.Errorf("initializing speaker: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if format.SampleRate != outputRate {
		streamer = beep.Resample(4, format.SampleRate, outputRate, streamer)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}

// Chime plays a short sound when the wake word is heard.
type Chime struct {
	speaker *Speaker
	path    string
}

// NewChime creates a chime for the mp3 at path.
func NewChime(s *Speaker, path string) *Chime {
	return &Chime{speaker: s, path: path}
}

// Ring plays the chime. Failures are returned for the caller to log.
func (c *Chime) Ring(ctx context.Context) error {
	return c.speaker.PlayMP3(ctx, c.path)
}
