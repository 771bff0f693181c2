package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/nadzzz/beckon/internal/message"
	"github.com/nadzzz/beckon/internal/speech"
)

func TestListen(t *testing.T) {
	defer goleak.VerifyNone(t)

	var prompt bytes.Buffer
	src := New(strings.NewReader("Siri\n\n  Open Spotify  \n"), &prompt)
	defer src.Close()
	ctx := context.Background()

	u, err := src.Listen(ctx, speech.CaptureOpts{Phase: message.PhaseWake})
	require.NoError(t, err)
	assert.Equal(t, "siri", u.Text)
	assert.Equal(t, message.PhaseWake, u.Phase)
	assert.Equal(t, "console", u.Source)

	_, err = src.Listen(ctx, speech.CaptureOpts{Phase: message.PhaseCommand})
	assert.ErrorIs(t, err, speech.ErrNoSpeech)

	u, err = src.Listen(ctx, speech.CaptureOpts{Phase: message.PhaseCommand})
	require.NoError(t, err)
	assert.Equal(t, "open spotify", u.Text)

	_, err = src.Listen(ctx, speech.CaptureOpts{})
	assert.ErrorIs(t, err, speech.ErrClosed)
	_, err = src.Listen(ctx, speech.CaptureOpts{})
	assert.ErrorIs(t, err, speech.ErrClosed)

	assert.Contains(t, prompt.String(), "[wake] > ")
	assert.Contains(t, prompt.String(), "[command] > ")
}

func TestListen_ContextCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	r, w := io.Pipe()
	src := New(r, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.Listen(ctx, speech.CaptureOpts{})
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, src.Close())
	require.NoError(t, w.Close())
}

func TestClose_UnblocksReader(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := New(strings.NewReader("one\ntwo\nthree\n"), nil)
	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
}
