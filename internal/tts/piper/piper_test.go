package piper

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/nadzzz/beckon/internal/config"
	"github.com/nadzzz/beckon/internal/tts"
)

// serve runs a one-shot Wyoming server answering with the given events.
func serve(t *testing.T, reply func(w net.Conn, req *event)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		req, _, err := readEvent(bufio.NewReader(conn))
		if err != nil {
			return
		}
		reply(conn, req)
	}()
	t.Cleanup(func() {
		ln.Close()
		<-done
	})
	return ln.Addr().String()
}

func TestSynthesize(t *testing.T) {
	defer goleak.VerifyNone(t)

	pcm := []byte{0x01, 0x00, 0xff, 0xff, 0x10, 0x00, 0x00, 0x80}
	var got *event
	addr := serve(t, func(w net.Conn, req *event) {
		got = req
		_ = writeEvent(w, event{Type: "audio-start", Data: map[string]any{"rate": 16000, "width": 2, "channels": 1}}, nil)
		_ = writeEvent(w, event{Type: "audio-chunk"}, pcm[:4])
		_ = writeEvent(w, event{Type: "audio-chunk"}, pcm[4:])
		_ = writeEvent(w, event{Type: "audio-stop"}, nil)
	})

	s := New(config.PiperConfig{Endpoint: "tcp://" + addr})
	res, err := s.Synthesize(context.Background(), "spotify is now open", tts.SynthesizeOpts{})
	require.NoError(t, err)

	assert.Equal(t, "synthesize", got.Type)
	assert.Equal(t, "spotify is now open", got.Data["text"])
	assert.Equal(t, map[string]any{"name": defaultVoice}, got.Data["voice"])

	assert.Equal(t, "audio/wav", res.ContentType)
	assert.Equal(t, 16000, res.SampleRate)

	dec := wav.NewDecoder(bytes.NewReader(res.Audio))
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, []int{1, -1, 16, -32768}, buf.Data)
}

func TestSynthesize_ServerError(t *testing.T) {
	defer goleak.VerifyNone(t)

	addr := serve(t, func(w net.Conn, _ *event) {
		_ = writeEvent(w, event{Type: "error", Data: map[string]any{"text": "voice not found"}}, nil)
	})

	s := New(config.PiperConfig{Endpoint: addr, Voice: "xx_XX-none"})
	_, err := s.Synthesize(context.Background(), "hello", tts.SynthesizeOpts{})
	assert.ErrorContains(t, err, "voice not found")
}

func TestSynthesize_Validation(t *testing.T) {
	s := New(config.PiperConfig{Endpoint: "localhost:10200"})
	_, err := s.Synthesize(context.Background(), "", tts.SynthesizeOpts{})
	assert.Error(t, err)

	_, err = New(config.PiperConfig{}).Synthesize(context.Background(), "hi", tts.SynthesizeOpts{})
	assert.Error(t, err)
}

func TestEventRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeEvent(&buf, event{Type: "audio-chunk", Data: map[string]any{"rate": 22050.0}}, []byte("abc")))

	evt, payload, err := readEvent(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, "audio-chunk", evt.Type)
	assert.Equal(t, 22050.0, evt.Data["rate"])
	assert.Equal(t, []byte("abc"), payload)

	_, _, err = readEvent(bufio.NewReader(bytes.NewBufferString("garbage\n")))
	assert.Error(t, err)
}
