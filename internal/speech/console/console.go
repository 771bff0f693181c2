// Package console provides a speech source that reads typed lines, for
// running the assistant without a microphone.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/nadzzz/beckon/internal/message"
	"github.com/nadzzz/beckon/internal/speech"
)

// Source reads one utterance per input line.
type Source struct {
	prompt io.Writer

	lines chan string
	done  chan struct{}
	once  sync.Once
	err   error // set before lines is closed
}

// New starts reading lines from r. Prompts are written to prompt, which may
// be nil.
func New(r io.Reader, prompt io.Writer) *Source {
	s := &Source{
		prompt: prompt,
		lines:  make(chan string),
		done:   make(chan struct{}),
	}
	go s.read(r)
	return s
}

func (s *Source) read(r io.Reader) {
	defer close(s.lines)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		select {
		case s.lines <- sc.Text():
		case <-s.done:
			return
		}
	}
	s.err = sc.Err()
}

// Listen waits for the next non-blank line. The capture timeout does not
// apply to typed input.
func (s *Source) Listen(ctx context.Context, opts speech.CaptureOpts) (message.Utterance, error) {
	if s.prompt != nil {
		fmt.Fprintf(s.prompt, "[%s] > ", opts.Phase)
	}
	select {
	case <-ctx.Done():
		return message.Utterance{}, ctx.Err()
	case line, ok := <-s.lines:
		if !ok {
			if s.err != nil {
				return message.Utterance{}, fmt.Errorf("reading input: %v: %w", s.err, speech.ErrClosed)
			}
			return message.Utterance{}, speech.ErrClosed
		}
		text := strings.ToLower(strings.TrimSpace(line))
		if text == "" {
			return message.Utterance{}, speech.ErrNoSpeech
		}
		return message.Utterance{
			Text:       text,
			Phase:      opts.Phase,
			Source:     "console",
			CapturedAt: time.Now(),
		}, nil
	}
}

// Close stops delivering lines. A read already blocked on the underlying
// reader finishes when that reader does.
func (s *Source) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
