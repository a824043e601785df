package search

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// MaxPrefixKeyLength bounds the prefix key used for completion lookups.
const MaxPrefixKeyLength = 32

// Normalized is the canonical form of a raw user query.
type Normalized struct {
	Canonical string
	PrefixKey string
	Length    int // code points after normalization
}

var foldCaser = cases.Fold()

// Normalize canonicalizes raw user input: Unicode NFC, case fold,
// control and zero-width characters stripped, whitespace runs collapsed,
// leading/trailing whitespace trimmed. The result is idempotent:
// Normalize(n.Canonical).Canonical == n.Canonical.
func Normalize(raw string) Normalized {
	s := norm.NFC.String(raw)
	s = foldCaser.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if stripRune(r) {
			continue
		}
		b.WriteRune(r)
	}

	canonical := strings.Join(strings.Fields(b.String()), " ")
	length := utf8.RuneCountInString(canonical)

	prefix := canonical
	if length > MaxPrefixKeyLength {
		runes := []rune(canonical)
		prefix = string(runes[:MaxPrefixKeyLength])
	}

	return Normalized{Canonical: canonical, PrefixKey: prefix, Length: length}
}

// stripRune reports whether a rune is removed outright during
// normalization: C0/C1 controls and zero-width code points.
func stripRune(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false // whitespace, handled by collapsing
	}
	if unicode.IsControl(r) {
		return true
	}
	switch r {
	case '\u200b', '\u200c', '\u200d', '\ufeff':
		return true
	}
	return false
}

// Tokenize splits a canonical query into match tokens: runs of letters
// and digits, with tokens shorter than two code points discarded. The
// same rule is applied at ingest so query and index tokens line up.
func Tokenize(canonical string) []string {
	fields := strings.FieldsFunc(canonical, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) < 2 {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
