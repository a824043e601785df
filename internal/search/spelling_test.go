package search

import "testing"

func testSpellingIndex() *SpellingIndex {
	idx := NewSpellingIndex()
	idx.Swap(map[Kind]map[string]int{
		KindProducts: {
			"flappy": 40,
			"happy":  90,
			"bird":   35,
		},
		KindProjects: {
			"flappy": 12,
			"flask":  20,
		},
	})
	return idx
}

func TestCorrectionsWithinOneEdit(t *testing.T) {
	idx := testSpellingIndex()

	got := idx.Corrections("flappi", KindProducts, 1, 3)
	if len(got) != 1 {
		t.Fatalf("corrections = %+v", got)
	}
	if got[0].Candidate != "flappy" || got[0].Distance != 1 {
		t.Fatalf("corrections = %+v", got)
	}
}

func TestCorrectionsRejectBeyondMaxEdits(t *testing.T) {
	idx := testSpellingIndex()

	// "happy" is three edits from "flappi"; with maxEdits=1 only
	// "flappy" qualifies even though "happy" is more frequent.
	for _, c := range idx.Corrections("flappi", KindAll, 1, 5) {
		if c.Candidate == "happy" {
			t.Fatalf("happy should be out of edit range: %+v", c)
		}
	}
}

func TestCorrectionsHandleTransposition(t *testing.T) {
	idx := testSpellingIndex()

	got := idx.Corrections("brid", KindProducts, 1, 3)
	if len(got) != 1 || got[0].Candidate != "bird" || got[0].Distance != 1 {
		t.Fatalf("corrections = %+v", got)
	}
}

func TestCorrectionsOrderDistanceThenFrequency(t *testing.T) {
	idx := NewSpellingIndex()
	idx.Swap(map[Kind]map[string]int{
		KindProducts: {
			"note":  10,
			"notes": 80,
			"node":  50,
		},
	})

	got := idx.Corrections("notr", KindProducts, 2, 3)
	if len(got) != 3 {
		t.Fatalf("corrections = %+v", got)
	}
	// distance 1 candidates first; among them higher frequency wins.
	if got[0].Candidate != "note" || got[0].Distance != 1 {
		t.Fatalf("first = %+v", got[0])
	}
}

func TestCorrectionsLengthTieBreakCountsCodePoints(t *testing.T) {
	idx := NewSpellingIndex()
	// Both candidates are one edit from "cafe" with equal frequency and
	// equal byte length; "café" is shorter in code points and must win.
	idx.Swap(map[Kind]map[string]int{
		KindProducts: {
			"café":  5,
			"cafes": 5,
		},
	})

	got := idx.Corrections("cafe", KindProducts, 1, 3)
	if len(got) != 2 {
		t.Fatalf("corrections = %+v", got)
	}
	if got[0].Candidate != "café" || got[1].Candidate != "cafes" {
		t.Fatalf("order = %+v", got)
	}
}

func TestCorrectionsMergeKindsOnAll(t *testing.T) {
	idx := testSpellingIndex()

	got := idx.Corrections("flasc", KindAll, 1, 3)
	if len(got) != 1 || got[0].Candidate != "flask" {
		t.Fatalf("corrections = %+v", got)
	}
}

func TestCorrectionsSkipIdenticalToken(t *testing.T) {
	idx := testSpellingIndex()

	for _, c := range idx.Corrections("flappy", KindProducts, 1, 5) {
		if c.Candidate == "flappy" {
			t.Fatalf("identical token must not be suggested: %+v", c)
		}
	}
}

func TestBoundedEditDistance(t *testing.T) {
	cases := []struct {
		a, b string
		max  int
		dist int
		ok   bool
	}{
		{"flappi", "flappy", 1, 1, true},
		{"brid", "bird", 1, 1, true},
		{"flappi", "happy", 1, 0, false},
		{"flappi", "happy", 3, 3, true},
		{"abc", "abc", 1, 0, true},
		{"ab", "abcd", 1, 0, false},
	}
	for _, tc := range cases {
		dist, ok := boundedEditDistance([]rune(tc.a), []rune(tc.b), tc.max)
		if ok != tc.ok || (ok && dist != tc.dist) {
			t.Fatalf("%q vs %q max=%d: got (%d,%v), want (%d,%v)", tc.a, tc.b, tc.max, dist, ok, tc.dist, tc.ok)
		}
	}
}
