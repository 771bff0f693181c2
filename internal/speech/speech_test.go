package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/beckon/internal/config"
	"github.com/nadzzz/beckon/internal/message"
)

type fakeEngine struct {
	name  string
	text  string
	err   error
	calls int
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Transcribe(context.Context, Audio) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeCapturer struct {
	audio Audio
	err   error
}

func (f *fakeCapturer) Capture(context.Context, CaptureOpts) (Audio, error) { return f.audio, f.err }

var clip = Audio{Samples: make([]float32, 1600), SampleRate: SampleRate}

func unavailable(name string) *fakeEngine {
	return &fakeEngine{name: name, err: fmt.Errorf("dial tcp: connection refused: %w", ErrUnavailable)}
}

func TestFallback_PrimaryWins(t *testing.T) {
	primary := &fakeEngine{name: "openai", text: "Siri"}
	secondary := &fakeEngine{name: "whisper", text: "other"}
	f := NewFallback(primary, secondary, config.BreakerConfig{})

	text, err := f.Transcribe(context.Background(), clip)
	require.NoError(t, err)
	assert.Equal(t, "Siri", text)
	assert.Zero(t, secondary.calls)
	assert.Equal(t, "openai|whisper", f.Name())
}

func TestFallback_UnavailableUsesSecondary(t *testing.T) {
	primary := unavailable("openai")
	secondary := &fakeEngine{name: "whisper", text: "open spotify"}
	f := NewFallback(primary, secondary, config.BreakerConfig{})

	text, err := f.Transcribe(context.Background(), clip)
	require.NoError(t, err)
	assert.Equal(t, "open spotify", text)
	assert.Equal(t, 1, secondary.calls)
}

func TestFallback_NoSpeechIsFinal(t *testing.T) {
	primary := &fakeEngine{name: "openai", err: ErrNoSpeech}
	secondary := &fakeEngine{name: "whisper", text: "never"}
	f := NewFallback(primary, secondary, config.BreakerConfig{})

	_, err := f.Transcribe(context.Background(), clip)
	assert.ErrorIs(t, err, ErrNoSpeech)
	assert.Zero(t, secondary.calls)
}

func TestFallback_BothUnavailable(t *testing.T) {
	f := NewFallback(unavailable("openai"), unavailable("whisper"), config.BreakerConfig{})
	_, err := f.Transcribe(context.Background(), clip)
	assert.ErrorIs(t, err, ErrNoSpeech)

	solo := NewFallback(unavailable("openai"), nil, config.BreakerConfig{})
	_, err = solo.Transcribe(context.Background(), clip)
	assert.ErrorIs(t, err, ErrNoSpeech)
	assert.Equal(t, "openai", solo.Name())
}

func TestFallback_BreakerSkipsPrimary(t *testing.T) {
	primary := unavailable("openai")
	secondary := &fakeEngine{name: "whisper", text: "ok"}
	f := NewFallback(primary, secondary, config.BreakerConfig{Failures: 2, Cooldown: time.Hour})

	for range 5 {
		text, err := f.Transcribe(context.Background(), clip)
		require.NoError(t, err)
		assert.Equal(t, "ok", text)
	}
	assert.Equal(t, 2, primary.calls)
	assert.Equal(t, 5, secondary.calls)
	assert.Equal(t, gobreaker.StateOpen, f.State())
}

func TestMicSource_Listen(t *testing.T) {
	engine := &fakeEngine{name: "openai", text: "  Siri Open Chrome "}
	src := NewMicSource(&fakeCapturer{audio: clip}, engine)

	u, err := src.Listen(context.Background(), CaptureOpts{Phase: message.PhaseCommand})
	require.NoError(t, err)
	assert.Equal(t, "siri open chrome", u.Text)
	assert.Equal(t, message.PhaseCommand, u.Phase)
	assert.Equal(t, "openai", u.Source)
	assert.False(t, u.CapturedAt.IsZero())
}

func TestMicSource_Errors(t *testing.T) {
	ctx := context.Background()

	src := NewMicSource(&fakeCapturer{err: ErrNoSpeech}, &fakeEngine{name: "x"})
	_, err := src.Listen(ctx, CaptureOpts{})
	assert.ErrorIs(t, err, ErrNoSpeech)

	device := errors.New("device busy")
	src = NewMicSource(&fakeCapturer{err: device}, &fakeEngine{name: "x"})
	_, err = src.Listen(ctx, CaptureOpts{})
	assert.ErrorIs(t, err, device)

	src = NewMicSource(&fakeCapturer{audio: clip}, &fakeEngine{name: "x", text: "   "})
	_, err = src.Listen(ctx, CaptureOpts{})
	assert.ErrorIs(t, err, ErrNoSpeech)
}

func frame(level float32) []float32 {
	f := make([]float32, 320)
	for i := range f {
		f[i] = level
	}
	return f
}

func TestEndpointer_PhraseEndsOnSilence(t *testing.T) {
	e := NewEndpointer(0.015, 20*time.Millisecond, CaptureOpts{
		Timeout:        time.Second,
		PhraseLimit:    5 * time.Second,
		SilenceTimeout: 100 * time.Millisecond,
	})

	for range 3 {
		done, err := e.Push(frame(0))
		require.NoError(t, err)
		require.False(t, done)
	}
	for range 10 {
		done, err := e.Push(frame(0.5))
		require.NoError(t, err)
		require.False(t, done)
	}
	assert.True(t, e.Speaking())

	var done bool
	pushes := 0
	for !done {
		var err error
		done, err = e.Push(frame(0))
		require.NoError(t, err)
		pushes++
	}
	assert.Equal(t, 5, pushes)
	assert.Len(t, e.Samples(), 15*320)
}

func TestEndpointer_Timeout(t *testing.T) {
	e := NewEndpointer(0.015, 20*time.Millisecond, CaptureOpts{Timeout: 100 * time.Millisecond})
	var (
		done bool
		err  error
	)
	for i := 0; i < 5; i++ {
		done, err = e.Push(frame(0.001))
	}
	assert.True(t, done)
	assert.ErrorIs(t, err, ErrNoSpeech)
	assert.Empty(t, e.Samples())
}

func TestEndpointer_PhraseLimit(t *testing.T) {
	e := NewEndpointer(0.015, 20*time.Millisecond, CaptureOpts{PhraseLimit: 60 * time.Millisecond})
	done, _ := e.Push(frame(0.3))
	assert.False(t, done)
	done, _ = e.Push(frame(0.3))
	assert.False(t, done)
	done, err := e.Push(frame(0.3))
	require.NoError(t, err)
	assert.True(t, done)
}

func TestRMS(t *testing.T) {
	assert.Zero(t, RMS(nil))
	assert.InDelta(t, 0.5, RMS(frame(0.5)), 1e-9)
	assert.InDelta(t, 0.5, RMS(frame(-0.5)), 1e-9)
}

func TestEncodeWAV(t *testing.T) {
	samples := make([]float32, 1600)
	for i := range samples {
		samples[i] = float32(i%100)/100 - 0.5
	}
	samples[0] = 2 // clipped

	data, err := EncodeWAV(Audio{Samples: samples, SampleRate: SampleRate})
	require.NoError(t, err)

	dec := wav.NewDecoder(bytes.NewReader(data))
	require.True(t, dec.IsValidFile())
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)

	assert.Equal(t, uint32(SampleRate), dec.SampleRate)
	assert.Equal(t, uint16(1), dec.NumChans)
	assert.Equal(t, uint16(16), dec.BitDepth)
	require.Len(t, buf.Data, len(samples))
	assert.Equal(t, 32767, buf.Data[0])
	assert.Equal(t, int(samples[10]*32767), buf.Data[10])
}

func TestAudioDuration(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, clip.Duration())
	assert.Zero(t, Audio{}.Duration())
}

func TestCheckEngines_ReportsEachEngine(t *testing.T) {
	online := unavailable("openai")
	server := &fakeEngine{name: "whisper-server", text: "hello siri"}
	local := &fakeEngine{name: "whisper"}

	results := CheckEngines(context.Background(), clip, []Transcriber{online, server, local})
	require.Len(t, results, 3)

	// every engine is tried, even after one works
	assert.Equal(t, 1, online.calls)
	assert.Equal(t, 1, server.calls)
	assert.Equal(t, 1, local.calls)

	assert.False(t, results[0].OK())
	assert.ErrorIs(t, results[0].Err, ErrUnavailable)
	assert.True(t, results[1].OK())
	assert.Equal(t, "hello siri", results[1].Text)
	assert.ErrorIs(t, results[2].Err, ErrNoSpeech)

	var out bytes.Buffer
	assert.Equal(t, 1, WriteReport(&out, results))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "FAIL  openai"))
	assert.True(t, strings.HasPrefix(lines[1], "PASS  whisper-server"))
	assert.Contains(t, lines[1], `"hello siri"`)
	assert.True(t, strings.HasPrefix(lines[2], "FAIL  whisper"))
	assert.Contains(t, lines[2], ErrNoSpeech.Error())
	assert.Equal(t, "1 of 3 engines working", lines[3])
}

func TestCheckEngines_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	second := &fakeEngine{name: "whisper", text: "hi"}

	results := CheckEngines(ctx, clip, []Transcriber{&fakeEngine{name: "openai", text: "hi"}, second})
	assert.Len(t, results, 1)
	assert.Zero(t, second.calls)
}
