// Package vocab holds the read-only lookup tables the interpreter resolves
// names against: launchable applications, known websites, and search
// endpoints. Tables keep their configured order, which is also the fuzzy
// resolver's tie-break order.
package vocab

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/nadzzz/beckon/internal/config"
	"github.com/nadzzz/beckon/internal/fuzzy"
)

// Tables is the immutable vocabulary built once at startup.
type Tables struct {
	apps    table
	sites   table
	engines table

	videoPlatform string
	webPlatform   string
	threshold     int
}

type table struct {
	names  []string
	values map[string]string
}

func newTable(entries []config.VocabEntry) (table, error) {
	t := table{values: make(map[string]string, len(entries))}
	for _, e := range entries {
		name := strings.ToLower(strings.TrimSpace(e.Name))
		if name == "" || e.Value == "" {
			return table{}, fmt.Errorf("vocabulary entry %q: name and value are required", e.Name)
		}
		if _, dup := t.values[name]; dup {
			return table{}, fmt.Errorf("vocabulary entry %q is listed twice", name)
		}
		t.names = append(t.names, name)
		t.values[name] = e.Value
	}
	return t, nil
}

func (t table) lookup(name string) (string, bool) {
	v, ok := t.values[name]
	return v, ok
}

func (t table) entries() []config.VocabEntry {
	out := make([]config.VocabEntry, len(t.names))
	for i, n := range t.names {
		out[i] = config.VocabEntry{Name: n, Value: t.values[n]}
	}
	return out
}

// New builds the tables from config, filling empty tables with the
// defaults for the running OS.
func New(cfg config.VocabularyConfig) (*Tables, error) {
	return NewFor(cfg, runtime.GOOS)
}

// NewFor is New with an explicit GOOS for the application defaults.
func NewFor(cfg config.VocabularyConfig, goos string) (*Tables, error) {
	apps := cfg.Apps
	if len(apps) == 0 {
		apps = DefaultApps(goos)
	}
	sites := cfg.Sites
	if len(sites) == 0 {
		sites = DefaultSites()
	}
	engines := cfg.SearchEngines
	if len(engines) == 0 {
		engines = DefaultSearchEngines()
	}

	t := &Tables{
		videoPlatform: strings.ToLower(cfg.VideoPlatform),
		webPlatform:   strings.ToLower(cfg.WebPlatform),
		threshold:     cfg.FuzzyThreshold,
	}
	var err error
	if t.apps, err = newTable(apps); err != nil {
		return nil, fmt.Errorf("apps: %w", err)
	}
	if t.sites, err = newTable(sites); err != nil {
		return nil, fmt.Errorf("sites: %w", err)
	}
	if t.engines, err = newTable(engines); err != nil {
		return nil, fmt.Errorf("search engines: %w", err)
	}

	if t.videoPlatform == "" {
		t.videoPlatform = "youtube"
	}
	if t.webPlatform == "" {
		t.webPlatform = "google"
	}
	if t.threshold <= 0 {
		t.threshold = fuzzy.DefaultThreshold
	}
	for _, p := range []string{t.videoPlatform, t.webPlatform} {
		if _, ok := t.engines.lookup(p); !ok {
			return nil, fmt.Errorf("default platform %q has no search engine entry", p)
		}
	}
	return t, nil
}

// AppNames returns the application names in table order.
func (t *Tables) AppNames() []string { return t.apps.names }

// App returns the launch target for an application name.
func (t *Tables) App(name string) (string, bool) { return t.apps.lookup(name) }

// SiteNames returns the website names in table order.
func (t *Tables) SiteNames() []string { return t.sites.names }

// Site returns the URL for a website name.
func (t *Tables) Site(name string) (string, bool) { return t.sites.lookup(name) }

// Platforms returns the search platform names in table order.
func (t *Tables) Platforms() []string { return t.engines.names }

// SearchTemplate returns the search URL prefix for a platform. The
// percent-encoded query is appended to it.
func (t *Tables) SearchTemplate(platform string) (string, bool) {
	return t.engines.lookup(platform)
}

// VideoPlatform is the platform inferred for video and music searches.
func (t *Tables) VideoPlatform() string { return t.videoPlatform }

// WebPlatform is the platform inferred for every other search.
func (t *Tables) WebPlatform() string { return t.webPlatform }

// FuzzyThreshold is the configured acceptance score for name matching.
func (t *Tables) FuzzyThreshold() int { return t.threshold }

// Snapshot returns the effective tables as config values.
func (t *Tables) Snapshot() config.VocabularyConfig {
	return config.VocabularyConfig{
		FuzzyThreshold: t.threshold,
		VideoPlatform:  t.videoPlatform,
		WebPlatform:    t.webPlatform,
		Apps:           t.apps.entries(),
		Sites:          t.sites.entries(),
		SearchEngines:  t.engines.entries(),
	}
}
