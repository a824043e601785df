package search

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/tchap/go-patricia/v2/patricia"
)

// DefaultLimit is the per-kind result cap when the caller does not set one.
const DefaultLimit = 5

// EntityIndex is the uniform contract every kind index exposes.
type EntityIndex interface {
	// Lookup returns ranked hits for a canonical query, at most limit.
	// An index with nothing to say returns an empty slice, not an error.
	Lookup(ctx context.Context, query string, limit int) ([]Hit, error)
	// Completions returns popular canonical strings starting with prefix.
	Completions(prefix string, limit int) []string
}

// Field is one searchable, weighted facet of a document.
type Field struct {
	Weight float64
	Tokens []string
}

// Doc is a single indexed entity: its pre-shaped wire payload, its
// weighted token fields, and the kind's tie-break signals (compared in
// order, higher first).
type Doc struct {
	ID         string
	Payload    any
	Fields     []Field
	TieBreaks  []float64
	Completion string  // canonical primary string fed to the completion trie
	Popularity float64 // completion ordering weight
}

// Index serves one entity kind from an immutable snapshot. Rebuilds
// swap the snapshot atomically; in-flight lookups keep reading the old one.
type Index struct {
	kind Kind
	snap atomic.Pointer[indexSnapshot]
}

type indexSnapshot struct {
	docs []Doc
	trie *patricia.Trie
}

// NewIndex returns an empty index for the given kind.
func NewIndex(kind Kind) *Index {
	idx := &Index{kind: kind}
	idx.snap.Store(&indexSnapshot{trie: patricia.NewTrie()})
	return idx
}

// Kind returns the entity kind this index serves.
func (i *Index) Kind() Kind { return i.kind }

// Len reports how many documents the live snapshot holds.
func (i *Index) Len() int { return len(i.snap.Load().docs) }

// Swap installs a new document set and rebuilds the completion trie.
func (i *Index) Swap(docs []Doc) {
	trie := patricia.NewTrie()
	for _, d := range docs {
		if d.Completion == "" {
			continue
		}
		key := patricia.Prefix(d.Completion)
		if existing := trie.Get(key); existing != nil {
			if existing.(float64) >= d.Popularity {
				continue
			}
		}
		trie.Set(key, d.Popularity)
	}
	i.snap.Store(&indexSnapshot{docs: docs, trie: trie})
}

// Lookup scores every document against the query tokens. A document
// matches only if each query token matches at least one field (exact
// token = field weight, prefix = half weight). Results are ordered by
// score, then the kind's tie-break signals, then id.
func (i *Index) Lookup(ctx context.Context, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return []Hit{}, nil
	}
	snap := i.snap.Load()

	type scored struct {
		doc   *Doc
		score float64
	}
	matches := make([]scored, 0, limit*2)

	for d := range snap.docs {
		if d%256 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		doc := &snap.docs[d]
		score, ok := scoreDoc(doc, tokens)
		if !ok {
			continue
		}
		matches = append(matches, scored{doc: doc, score: score})
	}

	sort.Slice(matches, func(a, b int) bool {
		if matches[a].score != matches[b].score {
			return matches[a].score > matches[b].score
		}
		ta, tb := matches[a].doc.TieBreaks, matches[b].doc.TieBreaks
		for k := 0; k < len(ta) && k < len(tb); k++ {
			if ta[k] != tb[k] {
				return ta[k] > tb[k]
			}
		}
		return matches[a].doc.ID < matches[b].doc.ID
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	hits := make([]Hit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, Hit{Kind: i.kind, ID: m.doc.ID, Score: m.score, Payload: m.doc.Payload})
	}
	return hits, nil
}

// scoreDoc sums, over query tokens, the best field match for each
// token. Every token must match somewhere (AND over tokens, OR over
// fields) or the document is rejected.
func scoreDoc(doc *Doc, queryTokens []string) (float64, bool) {
	total := 0.0
	for _, qt := range queryTokens {
		best := 0.0
		for _, f := range doc.Fields {
			if f.Weight <= best {
				continue
			}
			for _, ft := range f.Tokens {
				if ft == qt {
					if f.Weight > best {
						best = f.Weight
					}
					break
				}
				if strings.HasPrefix(ft, qt) {
					if w := f.Weight * 0.5; w > best {
						best = w
					}
				}
			}
		}
		if best == 0 {
			return 0, false
		}
		total += best
	}
	return total, true
}

// Completions walks the trie subtree under prefix and returns the most
// popular canonical strings, ordered by popularity then lexicographic.
func (i *Index) Completions(prefix string, limit int) []string {
	if prefix == "" || limit <= 0 {
		return nil
	}
	snap := i.snap.Load()

	type candidate struct {
		text   string
		weight float64
	}
	var found []candidate
	_ = snap.trie.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, item patricia.Item) error {
		weight, _ := item.(float64)
		found = append(found, candidate{text: string(p), weight: weight})
		return nil
	})

	sort.Slice(found, func(a, b int) bool {
		if found[a].weight != found[b].weight {
			return found[a].weight > found[b].weight
		}
		return found[a].text < found[b].text
	})

	if len(found) > limit {
		found = found[:limit]
	}
	out := make([]string, 0, len(found))
	for _, c := range found {
		out = append(out, c.text)
	}
	return out
}
