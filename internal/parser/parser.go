// Package parser turns one recognized utterance into an intent and, for
// search requests, a platform and query.
//
// All matching is done on whole words: "a" is a stop word, but the "a" in
// "amazon" is left alone.
package parser

import (
	"strings"

	"github.com/nadzzz/beckon/internal/message"
)

// Intent is the coarse classification of an utterance.
type Intent string

const (
	IntentEmpty        Intent = "empty"
	IntentShutdown     Intent = "shutdown"
	IntentHelp         Intent = "help"
	IntentSearch       Intent = "search"
	IntentOpen         Intent = "open"
	IntentUnrecognized Intent = "unrecognized"
)

// Vocabulary is the read-only view of the lookup tables the parser needs.
type Vocabulary interface {
	AppNames() []string
	SiteNames() []string
	Platforms() []string
	VideoPlatform() string
	WebPlatform() string
}

var (
	searchKeywords = phrases("play", "search", "find", "look for", "show me", "watch", "listen", "listen to")
	fillers        = phrases("open", "launch", "start", "please")
	stopWords      = phrases("and", "for", "some", "a", "the")
	videoHints     = phrases("video", "videos", "watch", "movie", "song", "music")
	shutdownWords  = phrases("shutdown", "stop", "quit", "exit", "bye", "goodbye", "sleep")
	helpPhrases    = phrases("help", "what can you do")
	actionWords    = phrases("open", "play", "search", "find", "watch", "listen", "launch", "start")
)

// Rule maps a predicate over the utterance's words to an intent. Rules are
// evaluated in order and the first match wins.
type Rule struct {
	Name   string
	Intent Intent
	Match  func(words []string) bool
}

// Parser classifies and parses utterances against a fixed vocabulary.
type Parser struct {
	wake  phrase
	vocab Vocabulary
	names []phrase
	rules []Rule
}

// New creates a Parser. wakeWord is stripped from every utterance before
// classification.
func New(wakeWord string, vocab Vocabulary) *Parser {
	p := &Parser{
		wake:  phrase(keys(tokenize(wakeWord))),
		vocab: vocab,
	}
	for _, n := range vocab.AppNames() {
		p.names = append(p.names, strings.Fields(n))
	}
	for _, n := range vocab.SiteNames() {
		p.names = append(p.names, strings.Fields(n))
	}
	p.rules = []Rule{
		{Name: "empty", Intent: IntentEmpty, Match: func(w []string) bool { return len(w) == 0 }},
		{Name: "shutdown", Intent: IntentShutdown, Match: func(w []string) bool { return anyIn(shutdownWords, w) }},
		{Name: "help", Intent: IntentHelp, Match: func(w []string) bool { return anyIn(helpPhrases, w) }},
		{Name: "search", Intent: IntentSearch, Match: func(w []string) bool { return anyIn(searchKeywords, w) }},
		{Name: "open", Intent: IntentOpen, Match: func(w []string) bool {
			return anyIn(actionWords, w) || anyIn(p.names, w)
		}},
		{Name: "unrecognized", Intent: IntentUnrecognized, Match: func([]string) bool { return true }},
	}
	return p
}

// Rules returns the classification rules in evaluation order.
func (p *Parser) Rules() []Rule { return p.rules }

// Classify returns the intent of the first rule matching the utterance.
func (p *Parser) Classify(utterance string) Intent {
	words := keys(p.stripWake(tokenize(utterance)))
	for _, r := range p.rules {
		if r.Match(words) {
			return r.Intent
		}
	}
	return IntentUnrecognized
}

// Parse extracts the residual text and, for search requests, the platform
// and query. A search without a query keeps its platform and leaves Query
// empty.
func (p *Parser) Parse(utterance string) message.ParsedCommand {
	toks := tokenize(utterance)
	words := keys(toks)

	residual := remove(p.stripWake(toks), fillers)
	cmd := message.ParsedCommand{Residual: join(residual)}
	if !anyIn(searchKeywords, words) {
		return cmd
	}

	cmd.IsSearch = true
	cmd.Platform = p.detectPlatform(words)

	strip := append(append([]phrase{}, searchKeywords...), strings.Fields(cmd.Platform))
	rest := remove(remove(residual, strip), stopWords)
	cmd.Query = join(rest)
	return cmd
}

// detectPlatform returns the first search platform named in words, falling
// back to the video or web default.
func (p *Parser) detectPlatform(words []string) string {
	for _, name := range p.vocab.Platforms() {
		if phrase(strings.Fields(name)).in(words) {
			return name
		}
	}
	if anyIn(videoHints, words) {
		return p.vocab.VideoPlatform()
	}
	return p.vocab.WebPlatform()
}

func (p *Parser) stripWake(toks []token) []token {
	if len(p.wake) == 0 {
		return toks
	}
	return remove(toks, []phrase{p.wake})
}
