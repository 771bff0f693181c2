package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nadzzz/beckon/internal/health"
	"github.com/nadzzz/beckon/internal/session"
	"github.com/nadzzz/beckon/internal/speech"
)

var errNothingToRun = errors.New("nothing to run: enable the session or at least one transport")

// serveCmd runs the typed-command transports without a voice session.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve typed commands over HTTP, gRPC and MQTT only",
	Long: `Run the command transports without listening on the microphone.
The HTTP transport is always enabled in this mode; its web page at / accepts
typed commands and browser speech recognition.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDaemon(cmd.Context(), false)
	},
}

// runDaemon wires the assistant and blocks until shutdown. The voice session
// runs when withSession is set and the config enables it; ending the session
// stops the daemon.
func runDaemon(parent context.Context, withSession bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !withSession {
		cfg.Transports.HTTP.Enabled = true
	}
	slog.Info("beckon starting", "version", version, "assistant", cfg.Assistant.Name)

	// Create root context with signal handling for graceful shutdown.
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("cleanup failed", "error", err)
		}
	}()

	transports := a.buildTransports()
	runSession := withSession && cfg.Session.Enabled
	if !runSession && len(transports) == 0 {
		return errNothingToRun
	}

	var source speech.Source
	if runSession {
		if source, err = a.buildSource(); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	healthServer := health.New(cfg.Server.HealthPort)
	g.Go(func() error { return healthServer.ListenAndServe(gctx) })

	for _, t := range transports {
		g.Go(func() error {
			slog.Info("starting transport", "name", t.Name())
			return t.Listen(gctx, a.dispatcher.Handle)
		})
	}

	if runSession {
		trigger, ipcServer := a.buildTrigger()
		if ipcServer != nil {
			g.Go(func() error { return ipcServer.Listen(gctx) })
		}

		loop := session.New(source, a.dispatcher, a.announcer, a.sessionOptions(trigger))
		g.Go(func() error {
			defer stop()
			return loop.Run(gctx)
		})
	}

	// Mark as ready once everything is started.
	healthServer.SetReady(true)
	slog.Info("beckon ready",
		"session", runSession,
		"transports", len(transports),
		"health_port", cfg.Server.HealthPort)

	err = g.Wait()
	slog.Info("beckon stopped")
	return err
}
