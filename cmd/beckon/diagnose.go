package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nadzzz/beckon/internal/audio"
	"github.com/nadzzz/beckon/internal/message"
	"github.com/nadzzz/beckon/internal/speech"
)

var testEngines []string

// testCmd records one phrase and reports which speech engines understand it.
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Check the microphone and every speech engine",
	Long: `List the input devices, record one phrase from the default microphone, then
send the same recording to each speech engine in turn and report which ones
work. Engines are called directly, without the fallback chain.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := audio.Init(); err != nil {
			return err
		}
		defer audio.Terminate()

		out := cmd.OutOrStdout()
		devices, err := audio.InputDevices()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Input devices:")
		for i, d := range devices {
			fmt.Fprintf(out, "  %d: %s\n", i, d)
		}

		engines := make([]speech.Transcriber, 0, len(testEngines))
		for _, name := range testEngines {
			t, err := a.buildTranscriber(name)
			if err != nil {
				t = brokenEngine{name: name, err: err}
			}
			engines = append(engines, t)
		}

		fmt.Fprintf(out, "\nSay %q when you see \"Listening now...\"\n", "hello "+cfg.Assistant.WakeWord)
		return checkEngines(cmd.Context(), out, audio.NewRecorder(cfg.Speech.EnergyThreshold), engines)
	},
}

func init() {
	testCmd.Flags().StringSliceVar(&testEngines, "engines", []string{"openai", "whisper-server", "whisper"}, "speech engines to check, in order")
	rootCmd.AddCommand(testCmd)
}

// checkEngines captures one phrase and runs it through every engine. It
// fails only when no engine understood the phrase.
func checkEngines(ctx context.Context, w io.Writer, mic speech.Capturer, engines []speech.Transcriber) error {
	fmt.Fprintln(w, "Listening now...")
	clip, err := mic.Capture(ctx, speech.CaptureOpts{
		Phase:          message.PhaseCommand,
		Timeout:        5 * time.Second,
		PhraseLimit:    4 * time.Second,
		SilenceTimeout: time.Second,
	})
	if err != nil {
		return fmt.Errorf("capturing test phrase: %w", err)
	}
	fmt.Fprintf(w, "Captured %s of audio (%d samples)\n\n", clip.Duration().Round(time.Millisecond), len(clip.Samples))

	if speech.WriteReport(w, speech.CheckEngines(ctx, clip, engines)) == 0 {
		return errors.New("no speech engine understood the test phrase")
	}
	return nil
}

// brokenEngine stands in for an engine that could not be built, so it still
// gets a report line.
type brokenEngine struct {
	name string
	err  error
}

func (b brokenEngine) Name() string { return b.name }

func (b brokenEngine) Transcribe(context.Context, speech.Audio) (string, error) {
	return "", fmt.Errorf("not configured: %w", b.err)
}
