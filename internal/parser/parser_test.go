package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/beckon/internal/config"
	"github.com/nadzzz/beckon/internal/message"
	"github.com/nadzzz/beckon/internal/vocab"
)

func newParser(t *testing.T) *Parser {
	t.Helper()
	tables, err := vocab.NewFor(config.VocabularyConfig{}, "linux")
	require.NoError(t, err)
	return New("siri", tables)
}

func TestParse(t *testing.T) {
	p := newParser(t)

	tests := []struct {
		name      string
		utterance string
		want      message.ParsedCommand
	}{
		{
			name:      "plain open with wake word",
			utterance: "siri open spotify",
			want:      message.ParsedCommand{Residual: "spotify"},
		},
		{
			name:      "punctuation",
			utterance: "Siri, open Spotify!",
			want:      message.ParsedCommand{Residual: "spotify"},
		},
		{
			name:      "explicit platform",
			utterance: "open youtube and find cooking videos",
			want: message.ParsedCommand{
				IsSearch: true, Platform: "youtube", Query: "cooking videos",
				Residual: "youtube and find cooking videos",
			},
		},
		{
			name:      "incomplete search",
			utterance: "search for",
			want:      message.ParsedCommand{IsSearch: true, Platform: "google", Residual: "search for"},
		},
		{
			name:      "video hint",
			utterance: "play some music",
			want:      message.ParsedCommand{IsSearch: true, Platform: "youtube", Query: "music", Residual: "play some music"},
		},
		{
			name:      "stop word a is whole word only",
			utterance: "find a banana bread recipe",
			want: message.ParsedCommand{
				IsSearch: true, Platform: "google", Query: "banana bread recipe",
				Residual: "find a banana bread recipe",
			},
		},
		{
			name:      "longest keyword first",
			utterance: "spotify listen to lofi beats",
			want: message.ParsedCommand{
				IsSearch: true, Platform: "spotify", Query: "lofi beats",
				Residual: "spotify listen to lofi beats",
			},
		},
		{
			name:      "multi word keyword",
			utterance: "siri please show me the amazon usb cables",
			want: message.ParsedCommand{
				IsSearch: true, Platform: "amazon", Query: "usb cables",
				Residual: "show me the amazon usb cables",
			},
		},
		{
			name:      "address kept intact",
			utterance: "open github.com.",
			want:      message.ParsedCommand{Residual: "github.com"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Parse(tt.utterance))
		})
	}
}

func TestParse_PlatformTableOrder(t *testing.T) {
	p := newParser(t)
	cmd := p.Parse("find netflix trailers on youtube")
	require.True(t, cmd.IsSearch)
	assert.Equal(t, "youtube", cmd.Platform)
}

func TestParse_SearchAlwaysHasPlatform(t *testing.T) {
	p := newParser(t)
	for _, u := range []string{"play", "watch", "look for", "find the", "listen to"} {
		cmd := p.Parse(u)
		assert.True(t, cmd.IsSearch, u)
		assert.NotEmpty(t, cmd.Platform, u)
		assert.Empty(t, cmd.Query, u)
	}
}

func TestParse_Deterministic(t *testing.T) {
	p := newParser(t)
	u := "open youtube and find cooking videos"
	assert.Equal(t, p.Parse(u), p.Parse(u))
}

func TestClassify(t *testing.T) {
	p := newParser(t)

	tests := []struct {
		utterance string
		want      Intent
	}{
		{"", IntentEmpty},
		{"siri", IntentEmpty},
		{"goodbye siri", IntentShutdown},
		{"stop the music", IntentShutdown},
		{"please shutdown", IntentShutdown},
		{"what can you do", IntentHelp},
		{"help me find recipes", IntentHelp},
		{"search for cats", IntentSearch},
		{"open zzzznotarealapp", IntentOpen},
		{"chrome", IntentOpen},
		{"github", IntentOpen},
		{"tell me a joke", IntentUnrecognized},
		{"clean my desktop", IntentUnrecognized},
		// keywords match whole words only
		{"stopwatch", IntentUnrecognized},
		{"playing jazz", IntentUnrecognized},
	}
	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Classify(tt.utterance))
		})
	}
}

func TestRules(t *testing.T) {
	p := newParser(t)
	rules := p.Rules()

	var names []string
	for _, r := range rules {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"empty", "shutdown", "help", "search", "open", "unrecognized"}, names)

	byName := map[string]Rule{}
	for _, r := range rules {
		byName[r.Name] = r
	}
	assert.True(t, byName["shutdown"].Match([]string{"ok", "bye"}))
	assert.False(t, byName["shutdown"].Match([]string{"byebye"}))
	assert.True(t, byName["help"].Match([]string{"what", "can", "you", "do"}))
	assert.False(t, byName["help"].Match([]string{"what", "can", "you"}))
	assert.True(t, byName["search"].Match([]string{"look", "for", "it"}))
	assert.True(t, byName["open"].Match([]string{"spotify"}))
	assert.False(t, byName["open"].Match([]string{"weather"}))
	assert.True(t, byName["unrecognized"].Match(nil))
}
