// Package dispatch turns recognized text into an action and a narration.
//
// The dispatcher classifies the text, runs system commands (help, shutdown)
// directly, and routes open and search requests to the launcher. Every call
// ends in an ActionOutcome; failures are reported in the outcome, never
// returned as errors.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nadzzz/beckon/internal/fuzzy"
	"github.com/nadzzz/beckon/internal/launch"
	"github.com/nadzzz/beckon/internal/message"
	"github.com/nadzzz/beckon/internal/metrics"
	"github.com/nadzzz/beckon/internal/parser"
	"github.com/nadzzz/beckon/internal/vocab"
)

const helpText = "I can open apps like Chrome, Spotify, and Safari. I can also open websites like YouTube and Gmail. " +
	"For advanced features, try saying: open YouTube and search for cooking videos, " +
	"or open Spotify and find your favorite songs. Say shutdown to exit."

// Narrator receives progress lines spoken before an action completes
// ("Opening spotify"). It may be nil.
type Narrator interface {
	Announce(ctx context.Context, text string)
}

// Dispatcher is the command interpretation engine. It holds only read-only
// state and is safe for concurrent use.
type Dispatcher struct {
	name     string
	tables   *vocab.Tables
	parser   *parser.Parser
	resolver *fuzzy.Resolver
	launcher launch.Launcher
	narrator Narrator
}

// New creates a Dispatcher. name is the assistant name used in the farewell;
// wakeWord is stripped from commands before they are parsed.
func New(name, wakeWord string, tables *vocab.Tables, launcher launch.Launcher, narrator Narrator) *Dispatcher {
	return &Dispatcher{
		name:     name,
		tables:   tables,
		parser:   parser.New(wakeWord, tables),
		resolver: fuzzy.New(tables.FuzzyThreshold()),
		launcher: launcher,
		narrator: narrator,
	}
}

// Execute interprets one utterance end to end.
func (d *Dispatcher) Execute(ctx context.Context, text string) message.ActionOutcome {
	start := time.Now()
	intent := d.parser.Classify(text)
	slog.DebugContext(ctx, "command classified", "text", text, "intent", intent)

	var out message.ActionOutcome
	switch intent {
	case parser.IntentEmpty:
		out = message.ActionOutcome{Kind: message.OutcomeEmpty, Narration: "I didn't hear a clear command."}
	case parser.IntentShutdown:
		out = message.ActionOutcome{
			Kind:           message.OutcomeShutdown,
			Succeeded:      true,
			Narration:      d.Farewell(),
			ShouldShutdown: true,
		}
	case parser.IntentHelp:
		out = message.ActionOutcome{Kind: message.OutcomeHelp, Succeeded: true, Narration: helpText}
	case parser.IntentSearch, parser.IntentOpen:
		out = d.Dispatch(ctx, d.parser.Parse(text))
	default:
		out = message.ActionOutcome{
			Kind:      message.OutcomeUnrecognized,
			Narration: "Please tell me what to open, or say help for assistance.",
		}
	}

	metrics.CommandsTotal.WithLabelValues(string(out.Kind), metrics.Status(out.Succeeded)).Inc()
	metrics.CommandDuration.Observe(time.Since(start).Seconds())
	slog.InfoContext(ctx, "command dispatched",
		"kind", out.Kind,
		"succeeded", out.Succeeded,
		"url", out.URL,
		"duration", time.Since(start),
	)
	return out
}

// Farewell is the narration for a shutdown request.
func (d *Dispatcher) Farewell() string {
	return fmt.Sprintf("Goodbye! %s is shutting down now.", d.name)
}

// Dispatch acts on a parsed command. The first applicable branch wins:
// complete search, incomplete search, application, website, direct address.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd message.ParsedCommand) message.ActionOutcome {
	if cmd.IsSearch {
		if cmd.Query == "" {
			return message.ActionOutcome{
				Kind:      message.OutcomeClarify,
				Narration: fmt.Sprintf("What would you like me to search for on %s?", cmd.Platform),
				Err:       ErrIncompleteSearch,
			}
		}
		return d.search(ctx, cmd.Platform, cmd.Query)
	}

	target := strings.TrimSpace(cmd.Residual)
	if target == "" {
		return message.ActionOutcome{
			Kind:      message.OutcomeEmpty,
			Narration: "I didn't catch what you want me to open. Please try again.",
		}
	}

	if m, ok := d.resolver.Resolve(target, d.tables.AppNames()); ok {
		value, _ := d.tables.App(m.Name)
		slog.DebugContext(ctx, "fuzzy match", "query", target, "app", m.Name, "score", m.Score)
		return d.openApp(ctx, message.ResolvedTarget{Kind: message.TargetApp, Name: m.Name, LaunchValue: value})
	}
	if m, ok := d.resolver.Resolve(target, d.tables.SiteNames()); ok {
		value, _ := d.tables.Site(m.Name)
		slog.DebugContext(ctx, "fuzzy match", "query", target, "site", m.Name, "score", m.Score)
		return d.openSite(ctx, message.ResolvedTarget{Kind: message.TargetSite, Name: m.Name, LaunchValue: value})
	}
	if looksLikeAddress(target) {
		return d.openAddress(ctx, target)
	}

	return message.ActionOutcome{
		Kind:      message.OutcomeNoMatch,
		Narration: fmt.Sprintf("Sorry, I don't know how to open %s. Try saying the name more clearly.", target),
		Target:    &message.ResolvedTarget{Kind: message.TargetNone, Name: target},
		Err:       fmt.Errorf("%q: %w", target, ErrAmbiguousTarget),
	}
}

// SearchURL builds the search address for platform and query.
func (d *Dispatcher) SearchURL(platform, query string) (string, bool) {
	tmpl, ok := d.tables.SearchTemplate(platform)
	if !ok {
		return "", false
	}
	return tmpl + url.QueryEscape(query), true
}

// Handle is the entry point for typed commands arriving over a transport.
// A shutdown phrase is reported back but does not stop the daemon.
func (d *Dispatcher) Handle(ctx context.Context, req *message.CommandRequest) (*message.CommandResponse, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.ReceivedAt.IsZero() {
		req.ReceivedAt = time.Now()
	}
	logger := slog.With("request_id", req.ID, "source", req.Source)

	command := strings.TrimSpace(req.Command)
	if command == "" {
		logger.Warn("empty command received")
		return &message.CommandResponse{ID: req.ID, Response: "No command received"}, nil
	}

	logger.Info("command received", "command", command)
	out := d.Execute(ctx, strings.ToLower(command))
	if out.Err != nil {
		logger.Info("command not completed", "kind", out.Kind, "reason", out.Err)
	}

	return &message.CommandResponse{
		ID:       req.ID,
		Success:  out.Succeeded,
		Response: out.Narration,
		Kind:     out.Kind,
		URL:      out.URL,
		Shutdown: out.ShouldShutdown,
	}, nil
}

func (d *Dispatcher) search(ctx context.Context, platform, query string) message.ActionOutcome {
	out := message.ActionOutcome{Kind: message.OutcomeSearch}
	u, ok := d.SearchURL(platform, query)
	if !ok {
		out.Narration = fmt.Sprintf("Sorry, I couldn't search for %s on %s", query, platform)
		out.Err = fmt.Errorf("no search endpoint for %q: %w", platform, ErrLaunchFailed)
		return out
	}
	out.URL = u
	d.narrate(ctx, fmt.Sprintf("Searching for %s on %s", query, platform))

	if !d.launcher.OpenURL(ctx, u) {
		out.Narration = fmt.Sprintf("Sorry, I couldn't search for %s on %s", query, platform)
		out.Err = fmt.Errorf("opening %s: %w", u, ErrLaunchFailed)
		return out
	}
	out.Succeeded = true
	out.Narration = fmt.Sprintf("I've opened %s and searched for %s", platform, query)
	return out
}

func (d *Dispatcher) openApp(ctx context.Context, t message.ResolvedTarget) message.ActionOutcome {
	out := message.ActionOutcome{Kind: message.OutcomeApp, Target: &t}
	d.narrate(ctx, "Opening "+t.Name)

	if !d.launcher.LaunchApplication(ctx, t.LaunchValue) {
		out.Narration = fmt.Sprintf("Sorry, I couldn't open %s. Make sure it's installed.", t.Name)
		out.Err = fmt.Errorf("launching %s: %w", t.LaunchValue, ErrLaunchFailed)
		return out
	}
	out.Succeeded = true
	out.Narration = t.Name + " is now open"
	return out
}

func (d *Dispatcher) openSite(ctx context.Context, t message.ResolvedTarget) message.ActionOutcome {
	out := message.ActionOutcome{Kind: message.OutcomeSite, Target: &t, URL: t.LaunchValue}
	d.narrate(ctx, "Opening "+t.Name)

	if !d.launcher.OpenURL(ctx, t.LaunchValue) {
		out.Narration = fmt.Sprintf("Sorry, I couldn't open %s. Please check your internet connection.", t.Name)
		out.Err = fmt.Errorf("opening %s: %w", t.LaunchValue, ErrLaunchFailed)
		return out
	}
	out.Succeeded = true
	out.Narration = t.Name + " is now open in your browser"
	return out
}

func (d *Dispatcher) openAddress(ctx context.Context, target string) message.ActionOutcome {
	u := target
	if !strings.Contains(u, "://") {
		u = "https://" + u
	}
	t := message.ResolvedTarget{Kind: message.TargetURL, Name: target, LaunchValue: u}
	out := message.ActionOutcome{Kind: message.OutcomeURL, Target: &t, URL: u}
	d.narrate(ctx, "Opening "+u)

	if !d.launcher.OpenURL(ctx, u) {
		out.Narration = fmt.Sprintf("Sorry, I couldn't open %s. Please check your internet connection.", target)
		out.Err = fmt.Errorf("opening %s: %w", u, ErrLaunchFailed)
		return out
	}
	out.Succeeded = true
	out.Narration = "Website is now open in your browser"
	return out
}

func (d *Dispatcher) narrate(ctx context.Context, text string) {
	if d.narrator != nil {
		d.narrator.Announce(ctx, text)
	}
}

// looksLikeAddress reports whether s starts with a URL scheme or contains a dot.
func looksLikeAddress(s string) bool {
	return strings.Contains(s, "://") || strings.Contains(s, ".")
}
