package search

import (
	"context"
	"log"
	"strings"

	"github.com/productbazar/searchd/internal/history"
)

// Composition defaults: how many completions each index contributes,
// how many history entries are consulted, and the overall cap.
const (
	completionsPerKind = 5
	historyLookback    = 10
	spellingMaxEdits   = 1
	spellingMaxReturn  = 3
	DefaultMaxSuggest  = 10
)

// Composer merges the three suggestion sources into one ordered,
// deduplicated list: history first (strongest personalization), then
// completions (corpus popularity), then spelling corrections (fallback).
type Composer struct {
	Indexes  map[Kind]EntityIndex
	History  history.Store
	Spelling *SpellingIndex
	Max      int
	Logger   *log.Logger
}

// Compose builds suggestions for a normalized query. Source failures
// degrade silently: a dead history store or spelling index just means
// that source contributes nothing.
func (c *Composer) Compose(ctx context.Context, n Normalized, kind Kind, identity string) []Suggestion {
	max := c.Max
	if max <= 0 {
		max = DefaultMaxSuggest
	}

	merged := make([]Suggestion, 0, max)
	seen := map[string]struct{}{}
	add := func(s Suggestion) {
		key := s.Query + "\x00" + string(s.Kind)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		merged = append(merged, s)
	}

	// History, prefix-filtered to the current input.
	if identity != "" && c.History != nil {
		entries, err := c.History.Recent(ctx, identity, historyLookback)
		if err != nil {
			c.logf("suggestions: history read failed: %v", err)
		}
		for _, e := range entries {
			if !strings.HasPrefix(e.Query, n.PrefixKey) {
				continue
			}
			add(Suggestion{Query: e.Query, Kind: Kind(e.Kind), Source: SourceHistory})
		}
	}

	// Completions from every index in scope.
	for _, k := range kind.Expand() {
		idx, ok := c.Indexes[k]
		if !ok {
			continue
		}
		for _, completion := range idx.Completions(n.PrefixKey, completionsPerKind) {
			add(Suggestion{Query: completion, Kind: k, Source: SourceCompletion})
		}
	}

	// Spelling variants: at most one token substituted per variant.
	if c.Spelling != nil {
		tokens := Tokenize(n.Canonical)
		for ti, token := range tokens {
			for _, corr := range c.Spelling.Corrections(token, kind, spellingMaxEdits, spellingMaxReturn) {
				variant := substituteToken(tokens, ti, corr.Candidate)
				if variant == n.Canonical {
					continue
				}
				add(Suggestion{
					Query:                variant,
					Kind:                 kind,
					Source:               SourceSpelling,
					IsSpellingCorrection: true,
				})
			}
		}
	}

	if len(merged) > max {
		merged = merged[:max]
	}
	return merged
}

func substituteToken(tokens []string, i int, replacement string) string {
	out := make([]string, len(tokens))
	copy(out, tokens)
	out[i] = replacement
	return strings.Join(out, " ")
}

func (c *Composer) logf(format string, args ...interface{}) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
	}
}
