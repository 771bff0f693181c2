// Package audio drives the local sound devices: PortAudio microphone capture
// and beep speaker playback.
package audio

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/nadzzz/beckon/internal/speech"
)

const (
	frameSize = 320 // 20ms at 16kHz
	frameDur  = 20 * time.Millisecond

	// maxCapture bounds a capture whose options set no limits.
	maxCapture = 30 * time.Second
)

// Init initializes PortAudio. Call Terminate when done.
func Init() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}
	return nil
}

// Terminate releases PortAudio.
func Terminate() {
	if err := portaudio.Terminate(); err != nil {
		slog.Warn("terminating portaudio", "error", err)
	}
}

// InputDevices lists the devices that can record. The default input is
// marked. Init must have been called.
func InputDevices() ([]string, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("listing audio devices: %w", err)
	}
	def, _ := portaudio.DefaultInputDevice()

	var names []string
	for _, d := range devices {
		if d.MaxInputChannels == 0 {
			continue
		}
		name := fmt.Sprintf("%s (%d ch, %s)", d.Name, d.MaxInputChannels, d.HostApi.Name)
		if def != nil && d.Name == def.Name {
			name += " [default]"
		}
		names = append(names, name)
	}
	return names, nil
}

// Recorder captures one phrase per call from the default input device.
type Recorder struct {
	threshold float64
}

// NewRecorder creates a Recorder that treats frames above threshold RMS as speech.
func NewRecorder(threshold float64) *Recorder {
	return &Recorder{threshold: threshold}
}

// Capture records until the phrase ends. It returns speech.ErrNoSpeech when
// nobody speaks within opts.Timeout.
func (r *Recorder) Capture(ctx context.Context, opts speech.CaptureOpts) (speech.Audio, error) {
	buf := make([]float32, frameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, speech.SampleRate, len(buf), buf)
	if err != nil {
		return speech.Audio{}, fmt.Errorf("opening input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return speech.Audio{}, fmt.Errorf("starting input stream: %w", err)
	}
	defer stream.Stop()

	ep := speech.NewEndpointer(r.threshold, frameDur, opts)
	for elapsed := time.Duration(0); elapsed < maxCapture; elapsed += frameDur {
		if err := ctx.Err(); err != nil {
			return speech.Audio{}, err
		}
		if err := stream.Read(); err != nil {
			return speech.Audio{}, fmt.Errorf("reading input stream: %w", err)
		}
		done, err := ep.Push(buf)
		if err != nil {
			return speech.Audio{}, err
		}
		if done {
			break
		}
	}

	if !ep.Speaking() {
		return speech.Audio{}, speech.ErrNoSpeech
	}
	slog.Debug("captured phrase", "phase", opts.Phase, "samples", len(ep.Samples()))
	return speech.Audio{Samples: ep.Samples(), SampleRate: speech.SampleRate}, nil
}
