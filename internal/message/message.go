// Package message defines the core data types flowing through the beckon pipeline.
package message

import "time"

// Phase tags an utterance with the session phase that requested it.
type Phase string

const (
	// PhaseWake is an utterance captured while waiting for the wake word.
	PhaseWake Phase = "wake"

	// PhaseCommand is the single utterance captured after the wake word.
	PhaseCommand Phase = "command"
)

// Utterance is one piece of recognized text produced by a speech source.
type Utterance struct {
	// Text is the recognized text, lowercased.
	Text string `json:"text"`

	// Phase is the session phase the utterance was captured for.
	Phase Phase `json:"phase"`

	// Source names the engine that produced the text (e.g., "openai", "console").
	Source string `json:"source"`

	// CapturedAt is when the capture finished.
	CapturedAt time.Time `json:"captured_at"`
}

// ParsedCommand is the parser's view of one utterance.
// Empty Platform or Query mean the value is absent.
type ParsedCommand struct {
	// IsSearch is true when the utterance asks for a content lookup.
	// A search always carries a Platform.
	IsSearch bool `json:"is_search"`

	// Platform is the search engine name (e.g., "youtube").
	Platform string `json:"platform,omitempty"`

	// Query is the extracted search query.
	Query string `json:"query,omitempty"`

	// Residual is the utterance with the wake word and filler words removed.
	Residual string `json:"residual"`
}

// TargetKind classifies what a plain-open command resolved to.
type TargetKind string

const (
	TargetApp  TargetKind = "app"
	TargetSite TargetKind = "site"
	TargetURL  TargetKind = "url"
	TargetNone TargetKind = "none"
)

// ResolvedTarget is the result of matching a plain-open command against the
// vocabularies. A TargetNone target never carries a LaunchValue.
type ResolvedTarget struct {
	Kind        TargetKind `json:"kind"`
	Name        string     `json:"name,omitempty"`
	LaunchValue string     `json:"launch_value,omitempty"`
}

// OutcomeKind names the dispatch branch that produced an ActionOutcome.
type OutcomeKind string

const (
	OutcomeSearch       OutcomeKind = "search"
	OutcomeClarify      OutcomeKind = "clarify"
	OutcomeApp          OutcomeKind = "app"
	OutcomeSite         OutcomeKind = "site"
	OutcomeURL          OutcomeKind = "url"
	OutcomeNoMatch      OutcomeKind = "no_match"
	OutcomeEmpty        OutcomeKind = "empty"
	OutcomeShutdown     OutcomeKind = "shutdown"
	OutcomeHelp         OutcomeKind = "help"
	OutcomeUnrecognized OutcomeKind = "unrecognized"
)

// ActionOutcome is the terminal value of one dispatch cycle.
type ActionOutcome struct {
	Kind           OutcomeKind     `json:"kind"`
	Succeeded      bool            `json:"succeeded"`
	Narration      string          `json:"narration"`
	ShouldShutdown bool            `json:"should_shutdown"`
	Target         *ResolvedTarget `json:"target,omitempty"`

	// URL is the address handed to the browser, if any.
	URL string `json:"url,omitempty"`

	// Err classifies a failed outcome (see the dispatch package sentinels).
	Err error `json:"-"`
}

// CommandRequest is a typed or transcribed command arriving over a transport.
type CommandRequest struct {
	// ID is a unique identifier for this request (UUID).
	ID string `json:"id,omitempty"`

	// Command is the raw command text.
	Command string `json:"command"`

	// Source identifies the sender (e.g., "web", "phone-alice").
	Source string `json:"source,omitempty"`

	// ReceivedAt is when the request arrived.
	ReceivedAt time.Time `json:"received_at,omitempty"`
}

// CommandResponse is returned to the sender of a CommandRequest.
type CommandResponse struct {
	ID       string      `json:"id"`
	Success  bool        `json:"success"`
	Response string      `json:"response"`
	Kind     OutcomeKind `json:"kind,omitempty"`
	URL      string      `json:"url,omitempty"`

	// Shutdown reports that the command asked the assistant to stop. Remote
	// senders cannot stop the daemon; the flag is informational.
	Shutdown bool `json:"shutdown,omitempty"`
}
