package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/beckon/internal/config"
)

func TestNewFor_Defaults(t *testing.T) {
	tables, err := NewFor(config.VocabularyConfig{}, "linux")
	require.NoError(t, err)

	assert.Equal(t, []string{"chrome", "firefox", "spotify", "code", "terminal"}, tables.AppNames())
	target, ok := tables.App("terminal")
	require.True(t, ok)
	assert.Equal(t, "gnome-terminal", target)

	assert.Equal(t, []string{"youtube", "spotify", "google", "amazon", "netflix"}, tables.Platforms())
	tmpl, ok := tables.SearchTemplate("youtube")
	require.True(t, ok)
	assert.Equal(t, "https://www.youtube.com/results?search_query=", tmpl)

	assert.Equal(t, "youtube", tables.VideoPlatform())
	assert.Equal(t, "google", tables.WebPlatform())
	assert.Equal(t, 60, tables.FuzzyThreshold())
}

func TestNewFor_PerOSApps(t *testing.T) {
	mac, err := NewFor(config.VocabularyConfig{}, "darwin")
	require.NoError(t, err)
	v, _ := mac.App("code")
	assert.Equal(t, "Visual Studio Code", v)

	win, err := NewFor(config.VocabularyConfig{}, "windows")
	require.NoError(t, err)
	_, ok := win.App("notepad")
	assert.True(t, ok)
	_, ok = win.App("terminal")
	assert.False(t, ok)
}

func TestNewFor_CustomTablesKeepOrder(t *testing.T) {
	tables, err := NewFor(config.VocabularyConfig{
		Apps: []config.VocabEntry{
			{Name: "Zed", Value: "zed"},
			{Name: "atom", Value: "atom"},
		},
		SearchEngines: []config.VocabEntry{
			{Name: "ddg", Value: "https://duckduckgo.com/?q="},
			{Name: "tube", Value: "https://tube.example/?q="},
		},
		VideoPlatform: "tube",
		WebPlatform:   "DDG",
	}, "linux")
	require.NoError(t, err)

	assert.Equal(t, []string{"zed", "atom"}, tables.AppNames())
	assert.Equal(t, "ddg", tables.WebPlatform())
	assert.Len(t, tables.SiteNames(), len(DefaultSites()))
}

func TestNewFor_Errors(t *testing.T) {
	_, err := NewFor(config.VocabularyConfig{
		Apps: []config.VocabEntry{{Name: "x", Value: "x"}, {Name: "X", Value: "y"}},
	}, "linux")
	assert.ErrorContains(t, err, "listed twice")

	_, err = NewFor(config.VocabularyConfig{
		Sites: []config.VocabEntry{{Name: "blank"}},
	}, "linux")
	assert.ErrorContains(t, err, "required")

	_, err = NewFor(config.VocabularyConfig{VideoPlatform: "vimeo"}, "linux")
	assert.ErrorContains(t, err, "vimeo")
}

func TestSnapshot(t *testing.T) {
	tables, err := NewFor(config.VocabularyConfig{}, "linux")
	require.NoError(t, err)

	snap := tables.Snapshot()
	assert.Equal(t, DefaultSearchEngines(), snap.SearchEngines)
	assert.Equal(t, "youtube", snap.VideoPlatform)
}
