package server

import (
	"time"

	"github.com/productbazar/searchd/internal/history"
	"github.com/productbazar/searchd/internal/search"
)

// Responses always carry a success flag; clients branch on it before
// reading anything else.

type searchResponse struct {
	Success   bool           `json:"success"`
	Results   map[string]any `json:"results"`
	Truncated bool           `json:"truncated,omitempty"`
}

type suggestionsResponse struct {
	Success     bool                `json:"success"`
	Suggestions []search.Suggestion `json:"suggestions"`
}

type historyEntry struct {
	Query       string    `json:"query"`
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	ResultCount int       `json:"resultCount"`
}

type historyResponse struct {
	Success bool           `json:"success"`
	History []historyEntry `json:"history"`
}

type clearedResponse struct {
	Success bool `json:"success"`
}

func toHistoryEntries(entries []history.Entry) []historyEntry {
	out := make([]historyEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyEntry{
			Query:       e.Query,
			Type:        e.Kind,
			Timestamp:   e.RecordedAt,
			ResultCount: e.ResultCount,
		})
	}
	return out
}
