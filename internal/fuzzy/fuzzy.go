// Package fuzzy resolves loosely transcribed names against a candidate list.
package fuzzy

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// DefaultThreshold is the minimum score a candidate needs to be accepted.
const DefaultThreshold = 60

// wordWeight discounts a single-word hit inside a longer name so that a
// full-phrase match always outranks it.
const wordWeight = 0.9

// Match is an accepted candidate and its score.
type Match struct {
	Name  string
	Score int
}

// Resolver picks the best candidate above a fixed threshold.
type Resolver struct {
	threshold int
}

// New creates a Resolver. A threshold outside 0-100 falls back to
// DefaultThreshold.
func New(threshold int) *Resolver {
	if threshold < 0 || threshold > 100 {
		threshold = DefaultThreshold
	}
	return &Resolver{threshold: threshold}
}

// Threshold returns the acceptance threshold.
func (r *Resolver) Threshold() int { return r.threshold }

// Resolve returns the highest scoring candidate if it reaches the threshold.
// Ties go to the candidate that comes first. A blank query never matches.
func (r *Resolver) Resolve(query string, candidates []string) (Match, bool) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return Match{}, false
	}

	best := Match{Score: -1}
	for _, c := range candidates {
		if s := Score(query, c); s > best.Score {
			best = Match{Name: c, Score: s}
		}
	}
	if best.Score < r.threshold {
		return Match{}, false
	}
	return best, true
}

// Score rates how similar query is to candidate on a 0-100 scale.
// Multi-word queries and candidates are also compared word by word, with a
// discount.
func Score(query, candidate string) int {
	query = strings.ToLower(strings.TrimSpace(query))
	candidate = strings.ToLower(strings.TrimSpace(candidate))

	best := ratio(query, candidate)
	for _, pair := range wordPairs(query, candidate) {
		s := int(math.Round(float64(ratio(pair[0], pair[1])) * wordWeight))
		if s > best {
			best = s
		}
	}
	return best
}

// wordPairs lists the single-word comparisons worth making: each query word
// against the whole candidate, and the whole query against each candidate word.
func wordPairs(query, candidate string) [][2]string {
	var pairs [][2]string
	if qw := strings.Fields(query); len(qw) > 1 {
		for _, w := range qw {
			pairs = append(pairs, [2]string{w, candidate})
		}
	}
	if cw := strings.Fields(candidate); len(cw) > 1 {
		for _, w := range cw {
			pairs = append(pairs, [2]string{query, w})
		}
	}
	return pairs
}

func ratio(a, b string) int {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 0
	}
	d := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * (1 - float64(d)/float64(longest))))
}
