package speech

import (
	"math"
	"time"
)

// Endpointer decides when a phrase starts and ends from per-frame RMS
// energy. Feed it fixed-size frames until Push reports done.
type Endpointer struct {
	threshold float64
	frame     time.Duration
	opts      CaptureOpts

	waited   time.Duration
	spoken   time.Duration
	silence  time.Duration
	speaking bool
	samples  []float32
}

// NewEndpointer creates an Endpointer for frames of the given duration.
func NewEndpointer(threshold float64, frame time.Duration, opts CaptureOpts) *Endpointer {
	return &Endpointer{threshold: threshold, frame: frame, opts: opts}
}

// Push consumes one frame. It returns done once the phrase has ended, and
// ErrNoSpeech if the wait timeout passed before any speech.
func (e *Endpointer) Push(frame []float32) (bool, error) {
	loud := RMS(frame) > e.threshold

	if !e.speaking {
		if !loud {
			e.waited += e.frame
			if e.opts.Timeout > 0 && e.waited >= e.opts.Timeout {
				return true, ErrNoSpeech
			}
			return false, nil
		}
		e.speaking = true
	}

	e.samples = append(e.samples, frame...)
	e.spoken += e.frame
	if loud {
		e.silence = 0
	} else {
		e.silence += e.frame
		if e.opts.SilenceTimeout > 0 && e.silence >= e.opts.SilenceTimeout {
			return true, nil
		}
	}
	if e.opts.PhraseLimit > 0 && e.spoken >= e.opts.PhraseLimit {
		return true, nil
	}
	return false, nil
}

// Samples returns the audio captured since speech started.
func (e *Endpointer) Samples() []float32 { return e.samples }

// Speaking reports whether speech has started.
func (e *Endpointer) Speaking() bool { return e.speaking }

// RMS returns the root mean square of a frame.
func RMS(frame []float32) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, x := range frame {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum / float64(len(frame)))
}
