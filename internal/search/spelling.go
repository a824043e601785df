package search

import (
	"sort"
	"sync/atomic"
	"unicode/utf8"
)

// Correction is one spelling candidate for a misspelled token.
type Correction struct {
	Candidate string
	Distance  int
	Frequency int
}

// SpellingIndex holds per-kind dictionaries of high-frequency ingest
// tokens. The whole snapshot is swapped atomically on rebuild so reads
// never observe a half-built dictionary.
type SpellingIndex struct {
	snap atomic.Pointer[spellingSnapshot]
}

type spellingSnapshot struct {
	byKind map[Kind]map[string]int
}

// NewSpellingIndex returns an empty index. Swap installs content.
func NewSpellingIndex() *SpellingIndex {
	idx := &SpellingIndex{}
	idx.snap.Store(&spellingSnapshot{byKind: map[Kind]map[string]int{}})
	return idx
}

// Swap atomically replaces all dictionaries. The previous snapshot
// remains queryable until the last in-flight read drops it.
func (s *SpellingIndex) Swap(byKind map[Kind]map[string]int) {
	if byKind == nil {
		byKind = map[Kind]map[string]int{}
	}
	s.snap.Store(&spellingSnapshot{byKind: byKind})
}

// Corrections returns up to maxReturn candidates within maxEdits of
// token, ordered by edit distance, then frequency (desc), then shorter
// candidate, then lexicographic. kind=all consults every dictionary.
func (s *SpellingIndex) Corrections(token string, kind Kind, maxEdits, maxReturn int) []Correction {
	if token == "" || maxEdits <= 0 || maxReturn <= 0 {
		return nil
	}
	snap := s.snap.Load()

	merged := map[string]int{}
	for _, k := range kind.Expand() {
		for candidate, freq := range snap.byKind[k] {
			if freq > merged[candidate] {
				merged[candidate] = freq
			}
		}
	}

	tokenRunes := []rune(token)
	out := make([]Correction, 0, maxReturn)
	for candidate, freq := range merged {
		if candidate == token {
			continue
		}
		dist, ok := boundedEditDistance(tokenRunes, []rune(candidate), maxEdits)
		if !ok {
			continue
		}
		out = append(out, Correction{Candidate: candidate, Distance: dist, Frequency: freq})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		if a.Frequency != b.Frequency {
			return a.Frequency > b.Frequency
		}
		la, lb := utf8.RuneCountInString(a.Candidate), utf8.RuneCountInString(b.Candidate)
		if la != lb {
			return la < lb
		}
		return a.Candidate < b.Candidate
	})

	if len(out) > maxReturn {
		out = out[:maxReturn]
	}
	return out
}

// boundedEditDistance computes the optimal-string-alignment distance
// (insert, delete, substitute, adjacent transposition) between a and b,
// abandoning early once the distance must exceed maxEdits.
func boundedEditDistance(a, b []rune, maxEdits int) (int, bool) {
	la, lb := len(a), len(b)
	if la-lb > maxEdits || lb-la > maxEdits {
		return 0, false
	}

	prev2 := make([]int, lb+1)
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			d := min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				if t := prev2[j-2] + 1; t < d {
					d = t
				}
			}
			curr[j] = d
			if d < rowMin {
				rowMin = d
			}
		}
		if rowMin > maxEdits {
			return 0, false
		}
		prev2, prev, curr = prev, curr, prev2
	}

	if prev[lb] > maxEdits {
		return 0, false
	}
	return prev[lb], true
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
