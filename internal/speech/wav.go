package speech

import "github.com/nadzzz/beckon/internal/wavio"

// EncodeWAV renders audio as a 16-bit mono WAV file.
func EncodeWAV(a Audio) ([]byte, error) {
	rate := a.SampleRate
	if rate == 0 {
		rate = SampleRate
	}
	return wavio.Encode(wavio.FromFloat32(a.Samples), rate, 1)
}
