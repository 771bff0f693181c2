package speech

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// EngineResult is one engine's answer to a diagnostic clip.
type EngineResult struct {
	Engine string
	Text   string
	Err    error
	Took   time.Duration
}

// OK reports whether the engine understood the clip.
func (r EngineResult) OK() bool { return r.Err == nil }

// CheckEngines runs the same clip through every engine in turn. Engines are
// called directly, so one failing never hides or replaces another.
func CheckEngines(ctx context.Context, clip Audio, engines []Transcriber) []EngineResult {
	results := make([]EngineResult, 0, len(engines))
	for _, e := range engines {
		start := time.Now()
		text, err := e.Transcribe(ctx, clip)
		if err == nil && text == "" {
			err = ErrNoSpeech
		}
		res := EngineResult{Engine: e.Name(), Text: text, Err: err, Took: time.Since(start)}
		slog.Debug("engine checked", "engine", res.Engine, "ok", res.OK(), "took", res.Took, "error", err)
		results = append(results, res)
		if ctx.Err() != nil {
			break
		}
	}
	return results
}

// WriteReport prints one pass/fail line per engine and returns how many
// engines worked.
func WriteReport(w io.Writer, results []EngineResult) int {
	working := 0
	for _, r := range results {
		if r.OK() {
			working++
			fmt.Fprintf(w, "PASS  %-16s %q (%s)\n", r.Engine, r.Text, r.Took.Round(time.Millisecond))
			continue
		}
		fmt.Fprintf(w, "FAIL  %-16s %v\n", r.Engine, r.Err)
	}
	fmt.Fprintf(w, "%d of %d engines working\n", working, len(results))
	return working
}
