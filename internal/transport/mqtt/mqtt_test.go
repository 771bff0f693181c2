package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/beckon/internal/message"
)

func TestDecodeRequest(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    *message.CommandRequest
		wantErr bool
	}{
		{"plain text", "  open spotify\n", &message.CommandRequest{Command: "open spotify", Source: "mqtt"}, false},
		{"json", `{"id":"a1","command":"help","source":"hub"}`, &message.CommandRequest{ID: "a1", Command: "help", Source: "hub"}, false},
		{"json without source", `{"command":"help"}`, &message.CommandRequest{Command: "help", Source: "mqtt"}, false},
		{"empty", "", &message.CommandRequest{Source: "mqtt"}, false},
		{"broken json", `{"command":`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeRequest([]byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProcess(t *testing.T) {
	handler := func(_ context.Context, req *message.CommandRequest) (*message.CommandResponse, error) {
		if req.Command == "explode" {
			return nil, errors.New("boom")
		}
		return &message.CommandResponse{ID: "x", Success: true, Response: "did " + req.Command}, nil
	}

	out, err := process(context.Background(), handler, []byte("open chrome"))
	require.NoError(t, err)
	var resp message.CommandResponse
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "did open chrome", resp.Response)

	out, err = process(context.Background(), handler, []byte(`{"id":"e1","command":"explode"}`))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "e1", resp.ID)
	assert.Equal(t, "Server error: boom", resp.Response)

	_, err = process(context.Background(), handler, []byte(`{bad`))
	assert.Error(t, err)
}
