package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nadzzz/beckon/internal/audio"
	"github.com/nadzzz/beckon/internal/config"
	"github.com/nadzzz/beckon/internal/dispatch"
	"github.com/nadzzz/beckon/internal/ipc"
	"github.com/nadzzz/beckon/internal/launch"
	"github.com/nadzzz/beckon/internal/session"
	"github.com/nadzzz/beckon/internal/speech"
	"github.com/nadzzz/beckon/internal/speech/console"
	openaistt "github.com/nadzzz/beckon/internal/speech/openai"
	"github.com/nadzzz/beckon/internal/speech/whisper"
	"github.com/nadzzz/beckon/internal/speech/whisperserver"
	"github.com/nadzzz/beckon/internal/transport"
	grpctransport "github.com/nadzzz/beckon/internal/transport/grpc"
	httptransport "github.com/nadzzz/beckon/internal/transport/http"
	mqtttransport "github.com/nadzzz/beckon/internal/transport/mqtt"
	"github.com/nadzzz/beckon/internal/tts"
	"github.com/nadzzz/beckon/internal/tts/piper"
	"github.com/nadzzz/beckon/internal/vocab"

	_ "github.com/nadzzz/beckon/docs"
)

// app holds the components every command shares.
type app struct {
	cfg        *config.Config
	tables     *vocab.Tables
	announcer  tts.Announcer
	dispatcher *dispatch.Dispatcher

	speaker *audio.Speaker // created on first use
	closers []func() error
}

func newApp(cfg *config.Config) (*app, error) {
	tables, err := vocab.New(cfg.Vocabulary)
	if err != nil {
		return nil, fmt.Errorf("building vocabulary: %w", err)
	}
	a := &app{cfg: cfg, tables: tables}

	a.announcer, err = a.buildAnnouncer(os.Stdout)
	if err != nil {
		return nil, err
	}
	a.dispatcher = dispatch.New(cfg.Assistant.Name, cfg.Assistant.WakeWord, tables, launch.NewSystem(), a.announcer)
	return a, nil
}

// Close releases everything the app opened, newest first.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func (a *app) onClose(fn func() error) { a.closers = append(a.closers, fn) }

func (a *app) output() *audio.Speaker {
	if a.speaker == nil {
		a.speaker = audio.NewSpeaker()
	}
	return a.speaker
}

// buildAnnouncer always echoes to the console and adds a voice when TTS is on.
func (a *app) buildAnnouncer(w io.Writer) (tts.Announcer, error) {
	echo := tts.NewConsole(a.cfg.Assistant.Name, w)
	if !a.cfg.TTS.Enabled {
		return echo, nil
	}

	var synth tts.Synthesizer
	switch a.cfg.TTS.Backend {
	case "piper":
		synth = piper.New(a.cfg.TTS.Piper)
		slog.Info("using piper voice", "endpoint", a.cfg.TTS.Piper.Endpoint, "voice", a.cfg.TTS.Piper.Voice)
	default:
		return nil, fmt.Errorf("unknown tts backend %q", a.cfg.TTS.Backend)
	}
	a.onClose(synth.Close)
	return tts.Multi{echo, tts.NewVoice(synth, a.output())}, nil
}

// buildSource wires the configured speech input.
func (a *app) buildSource() (speech.Source, error) {
	sc := a.cfg.Speech
	if sc.Input == "console" {
		src := console.New(os.Stdin, os.Stdout)
		a.onClose(src.Close)
		slog.Info("reading commands from the console")
		return src, nil
	}

	primary, err := a.buildTranscriber(sc.Primary)
	if err != nil {
		return nil, fmt.Errorf("primary engine: %w", err)
	}
	var secondary speech.Transcriber
	if sc.Secondary != "" && sc.Secondary != "none" {
		secondary, err = a.buildTranscriber(sc.Secondary)
		if err != nil {
			// The session still works on the primary alone.
			slog.Warn("secondary engine unavailable", "engine", sc.Secondary, "error", err)
		}
	}

	if err := audio.Init(); err != nil {
		return nil, err
	}
	a.onClose(func() error { audio.Terminate(); return nil })

	engine := speech.NewFallback(primary, secondary, sc.Breaker)
	slog.Info("listening on the microphone", "engines", engine.Name(), "threshold", sc.EnergyThreshold)
	return speech.NewMicSource(audio.NewRecorder(sc.EnergyThreshold), engine), nil
}

func (a *app) buildTranscriber(name string) (speech.Transcriber, error) {
	sc := a.cfg.Speech
	switch name {
	case "openai":
		t, err := openaistt.New(sc.OpenAI, sc.Language)
		if err != nil {
			return nil, err
		}
		return t, nil
	case "whisper-server":
		return whisperserver.New(sc.WhisperServer, sc.Language), nil
	case "whisper":
		t, err := whisper.New(sc.Whisper, sc.Language)
		if err != nil {
			return nil, err
		}
		a.onClose(t.Close)
		return t, nil
	default:
		return nil, fmt.Errorf("unknown speech engine %q", name)
	}
}

// buildTrigger returns the push-to-talk gate, plus an ipc server that the
// caller must run when the trigger is a socket.
func (a *app) buildTrigger() (session.Trigger, *ipc.Server) {
	sc := a.cfg.Session
	if session.Mode(sc.Mode) != session.ModePushToTalk {
		return nil, nil
	}
	kind := sc.Trigger
	if kind == "stdin" && a.cfg.Speech.Input == "console" {
		// Typed input already waits on stdin.
		kind = "none"
	}
	switch kind {
	case "stdin":
		t := session.NewLineTrigger(os.Stdin, os.Stdout)
		a.onClose(t.Close)
		return t, nil
	case "ipc":
		srv := ipc.NewServer(sc.SocketPath)
		return srv, srv
	default:
		return nil, nil
	}
}

func (a *app) sessionOptions(trigger session.Trigger) session.Options {
	opts := session.OptionsFromConfig(a.cfg.Assistant, a.cfg.Session)
	opts.Trigger = trigger
	if a.cfg.Session.Chime != "" {
		opts.Cue = audio.NewChime(a.output(), a.cfg.Session.Chime)
	}
	return opts
}

func (a *app) buildTransports() []transport.Transport {
	tc := a.cfg.Transports
	var transports []transport.Transport
	if tc.GRPC.Enabled {
		transports = append(transports, grpctransport.New(tc.GRPC.Port))
	}
	if tc.HTTP.Enabled {
		transports = append(transports, httptransport.New(tc.HTTP.Port, a.cfg.Assistant.Name))
	}
	if tc.MQTT.Enabled {
		transports = append(transports, mqtttransport.New(tc.MQTT))
	}
	return transports
}
