// Package wavio encodes integer PCM as WAV files.
package wavio

import (
	"encoding/binary"
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Encode renders 16-bit PCM samples as a WAV file.
func Encode(samples []int, sampleRate, channels int) ([]byte, error) {
	// The encoder seeks back to patch the header, so it needs a file.
	f, err := os.CreateTemp("", "beckon-*.wav")
	if err != nil {
		return nil, fmt.Errorf("creating temp wav: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("encoding wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalizing wav: %w", err)
	}

	data, err := os.ReadFile(f.Name())
	if err != nil {
		return nil, fmt.Errorf("reading wav: %w", err)
	}
	return data, nil
}

// FromFloat32 converts samples in [-1, 1] to 16-bit values, clipping.
func FromFloat32(samples []float32) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		switch {
		case s > 1:
			s = 1
		case s < -1:
			s = -1
		}
		out[i] = int(s * 32767)
	}
	return out
}

// FromInt16LE decodes little-endian 16-bit PCM bytes.
func FromInt16LE(pcm []byte) []int {
	out := make([]int, len(pcm)/2)
	for i := range out {
		out[i] = int(int16(binary.LittleEndian.Uint16(pcm[2*i:])))
	}
	return out
}
