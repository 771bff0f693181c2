package wavio

import (
	"bytes"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	samples := []int{0, 1000, -1000, 32767, -32768, 42}

	data, err := Encode(samples, 22050, 1)
	require.NoError(t, err)

	dec := wav.NewDecoder(bytes.NewReader(data))
	require.True(t, dec.IsValidFile())
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)

	assert.Equal(t, uint32(22050), dec.SampleRate)
	assert.Equal(t, samples, buf.Data)
}

func TestFromFloat32(t *testing.T) {
	assert.Equal(t, []int{0, 32767, -32767, 32767, -32767}, FromFloat32([]float32{0, 1, -1, 3, -3}))
}

func TestFromInt16LE(t *testing.T) {
	assert.Equal(t, []int{1, -1, 256}, FromInt16LE([]byte{0x01, 0x00, 0xff, 0xff, 0x00, 0x01, 0x07}))
}
