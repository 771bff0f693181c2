package tts

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeSynth struct {
	err   error
	texts []string
}

func (f *fakeSynth) Synthesize(_ context.Context, text string, _ SynthesizeOpts) (*SynthesizeResult, error) {
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	return &SynthesizeResult{Audio: []byte("RIFF" + text), ContentType: "audio/wav"}, nil
}

func (f *fakeSynth) Close() error { return nil }

type fakePlayer struct {
	err    error
	played [][]byte
}

func (f *fakePlayer) Play(_ context.Context, wav []byte) error {
	f.played = append(f.played, wav)
	return f.err
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole("Siri", &buf)
	c.Announce(context.Background(), "Siri is online and listening.")
	assert.Equal(t, "Siri: Siri is online and listening.\n", buf.String())
}

func TestVoice(t *testing.T) {
	synth := &fakeSynth{}
	player := &fakePlayer{}
	v := NewVoice(synth, player)

	v.Announce(context.Background(), "hello")
	v.Announce(context.Background(), "")

	assert.Equal(t, []string{"hello"}, synth.texts)
	assert.Equal(t, [][]byte{[]byte("RIFFhello")}, player.played)
}

func TestVoice_FailuresAreSwallowed(t *testing.T) {
	player := &fakePlayer{}
	v := NewVoice(&fakeSynth{err: errors.New("piper down")}, player)
	v.Announce(context.Background(), "hello")
	assert.Empty(t, player.played)

	v = NewVoice(&fakeSynth{}, &fakePlayer{err: errors.New("no device")})
	assert.NotPanics(t, func() { v.Announce(context.Background(), "hello") })
}

func TestMulti(t *testing.T) {
	var a, b bytes.Buffer
	m := Multi{NewConsole("A", &a), NewConsole("B", &b)}
	m.Announce(context.Background(), "hi")
	assert.Equal(t, "A: hi\n", a.String())
	assert.Equal(t, "B: hi\n", b.String())
}
