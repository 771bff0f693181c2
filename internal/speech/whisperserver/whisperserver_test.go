package whisperserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/beckon/internal/config"
	"github.com/nadzzz/beckon/internal/speech"
)

var clip = speech.Audio{Samples: make([]float32, 800), SampleRate: speech.SampleRate}

type captured struct {
	query  url.Values
	fields map[string]string
	file   string
	size   int64
}

func newServer(t *testing.T, status int) (*httptest.Server, <-chan captured) {
	t.Helper()
	seen := make(chan captured, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		c := captured{query: r.URL.Query(), fields: map[string]string{}}
		for k, v := range r.MultipartForm.Value {
			c.fields[k] = v[0]
		}
		for k, fh := range r.MultipartForm.File {
			c.file = k
			c.size = fh[0].Size
		}
		seen <- c

		if status != http.StatusOK {
			http.Error(w, "model not loaded", status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"text": " Open Spotify", "language": "en"})
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestTranscribe_OpenAIFlavor(t *testing.T) {
	srv, seen := newServer(t, http.StatusOK)
	tr := New(config.WhisperServerConfig{Endpoint: srv.URL + "/v1/audio/transcriptions"}, "en")

	text, err := tr.Transcribe(context.Background(), clip)
	require.NoError(t, err)
	assert.Equal(t, " Open Spotify", text)

	c := <-seen
	assert.Equal(t, "file", c.file)
	assert.Greater(t, c.size, int64(44))
	assert.Equal(t, "en", c.fields["language"])
	assert.Equal(t, "json", c.fields["response_format"])
}

func TestTranscribe_ASRFlavor(t *testing.T) {
	srv, seen := newServer(t, http.StatusOK)
	tr := New(config.WhisperServerConfig{Endpoint: srv.URL + "/asr", Type: "asr"}, "en")

	_, err := tr.Transcribe(context.Background(), clip)
	require.NoError(t, err)

	c := <-seen
	assert.Equal(t, "audio_file", c.file)
	assert.Equal(t, "transcribe", c.query.Get("task"))
	assert.Equal(t, "en", c.query.Get("language"))
}

func TestTranscribe_Unavailable(t *testing.T) {
	srv, _ := newServer(t, http.StatusInternalServerError)
	tr := New(config.WhisperServerConfig{Endpoint: srv.URL}, "")

	_, err := tr.Transcribe(context.Background(), clip)
	assert.ErrorIs(t, err, speech.ErrUnavailable)

	down := New(config.WhisperServerConfig{Endpoint: "http://127.0.0.1:1/v1/audio/transcriptions"}, "")
	_, err = down.Transcribe(context.Background(), clip)
	assert.ErrorIs(t, err, speech.ErrUnavailable)
}
