package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/nadzzz/beckon/internal/speech"
)

// LineTrigger fires once per line read, i.e. when the user presses ENTER.
type LineTrigger struct {
	prompt io.Writer
	lines  chan struct{}
	done   chan struct{}
	once   sync.Once
}

// NewLineTrigger starts reading r. The prompt writer may be nil.
func NewLineTrigger(r io.Reader, prompt io.Writer) *LineTrigger {
	t := &LineTrigger{
		prompt: prompt,
		lines:  make(chan struct{}),
		done:   make(chan struct{}),
	}
	go t.read(r)
	return t
}

func (t *LineTrigger) read(r io.Reader) {
	defer close(t.lines)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		select {
		case t.lines <- struct{}{}:
		case <-t.done:
			return
		}
	}
}

// Wait blocks until the next line. It returns speech.ErrClosed once the
// reader is exhausted.
func (t *LineTrigger) Wait(ctx context.Context) error {
	if t.prompt != nil {
		fmt.Fprintln(t.prompt, "Press ENTER to speak...")
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case _, ok := <-t.lines:
		if !ok {
			return speech.ErrClosed
		}
		return nil
	}
}

// Close stops the reader goroutine once its current read returns.
func (t *LineTrigger) Close() error {
	t.once.Do(func() { close(t.done) })
	return nil
}
