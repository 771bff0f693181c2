package parser

import (
	"slices"
	"strings"
	"unicode"
)

// token is one whitespace-separated word. raw keeps inner punctuation so that
// addresses like "github.com" survive; key is what keyword matching compares.
type token struct {
	raw string
	key string
}

func tokenize(text string) []token {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]token, 0, len(fields))
	for _, f := range fields {
		raw := strings.TrimRight(f, ",.!?;:")
		key := strings.TrimFunc(raw, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if key == "" {
			continue
		}
		out = append(out, token{raw: raw, key: key})
	}
	return out
}

// phrase is a lowercase token sequence such as "look for".
type phrase []string

func phrases(words ...string) []phrase {
	out := make([]phrase, len(words))
	for i, w := range words {
		out[i] = strings.Fields(w)
	}
	return out
}

// at reports whether p matches words starting at i.
func (p phrase) at(words []string, i int) bool {
	if len(p) == 0 || i+len(p) > len(words) {
		return false
	}
	for j, w := range p {
		if words[i+j] != w {
			return false
		}
	}
	return true
}

func (p phrase) in(words []string) bool {
	for i := range words {
		if p.at(words, i) {
			return true
		}
	}
	return false
}

func anyIn(ps []phrase, words []string) bool {
	for _, p := range ps {
		if p.in(words) {
			return true
		}
	}
	return false
}

func keys(toks []token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.key
	}
	return out
}

// remove drops every occurrence of each phrase, trying longer phrases first
// so that "listen to" wins over "listen".
func remove(toks []token, ps []phrase) []token {
	ordered := slices.Clone(ps)
	slices.SortStableFunc(ordered, func(a, b phrase) int { return len(b) - len(a) })

	words := keys(toks)
	out := make([]token, 0, len(toks))
	for i := 0; i < len(toks); {
		skipped := false
		for _, p := range ordered {
			if p.at(words, i) {
				i += len(p)
				skipped = true
				break
			}
		}
		if !skipped {
			out = append(out, toks[i])
			i++
		}
	}
	return out
}

func join(toks []token) string {
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = t.raw
	}
	return strings.Join(parts, " ")
}
