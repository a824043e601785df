package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/productbazar/searchd/internal/history"
	"github.com/productbazar/searchd/internal/search"
)

func testHandler(t *testing.T) (*SearchHandler, *history.MemoryStore) {
	t.Helper()

	hist := history.NewMemoryStore(20, 90*24*time.Hour)

	indexes := map[search.Kind]search.EntityIndex{}
	for _, kind := range search.Kinds {
		idx := search.NewIndex(kind)
		indexes[kind] = idx
	}
	productIdx := search.NewIndex(search.KindProducts)
	productIdx.Swap([]search.Doc{
		{
			ID:      "p1",
			Payload: &search.ProductHit{Slug: "flappy-bird", Name: "Flappy Bird", Upvotes: 42},
			Fields: []search.Field{
				{Weight: 3.0, Tokens: []string{"flappy", "bird"}},
			},
			TieBreaks:  []float64{42},
			Completion: "flappy bird",
			Popularity: 42,
		},
	})
	indexes[search.KindProducts] = productIdx

	coord := search.NewCoordinator(indexes, search.NewSpellingIndex(), search.NewCategoryResolver(), hist, nil)
	return &SearchHandler{
		Coordinator: coord,
		History:     hist,
		RecentLimit: 10,
	}, hist
}

func TestSearchEndpoint(t *testing.T) {
	e := echo.New()
	h, _ := testHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=flappy&type=products", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	if err := h.search(ctx); err != nil {
		t.Fatalf("search: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Success bool                         `json:"success"`
		Results map[string][]json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Fatalf("body = %s", rec.Body.String())
	}
	if len(resp.Results["products"]) != 1 {
		t.Fatalf("results = %s", rec.Body.String())
	}
	if _, ok := resp.Results["jobs"]; ok {
		t.Fatalf("unrequested kind present: %s", rec.Body.String())
	}
}

func TestSearchEndpointShortQuery(t *testing.T) {
	e := echo.New()
	h, _ := testHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=f", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	if err := h.search(ctx); err != nil {
		t.Fatalf("search: %v", err)
	}
	var resp struct {
		Success bool           `json:"success"`
		Results map[string]any `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || len(resp.Results) != 0 {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestSearchEndpointUnknownType(t *testing.T) {
	e := echo.New()
	h, _ := testHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=flappy&type=wishes", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	err := h.search(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("err = %v", err)
	}
}

func TestSearchEndpointBadLimit(t *testing.T) {
	e := echo.New()
	h, _ := testHandler(t)

	for _, raw := range []string{"zero", "-3", "0"} {
		req := httptest.NewRequest(http.MethodGet, "/api/search?q=flappy&limit="+raw, nil)
		rec := httptest.NewRecorder()
		ctx := e.NewContext(req, rec)

		err := h.search(ctx)
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusBadRequest {
			t.Fatalf("limit=%q err = %v", raw, err)
		}
	}
}

func TestSuggestionsEndpoint(t *testing.T) {
	e := echo.New()
	h, _ := testHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/search/suggestions?q=flappy", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	if err := h.suggestions(ctx); err != nil {
		t.Fatalf("suggestions: %v", err)
	}
	var resp struct {
		Success     bool `json:"success"`
		Suggestions []struct {
			Query  string `json:"query"`
			Type   string `json:"type"`
			Source string `json:"source"`
		} `json:"suggestions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || len(resp.Suggestions) == 0 {
		t.Fatalf("body = %s", rec.Body.String())
	}
	if resp.Suggestions[0].Query != "flappy bird" || resp.Suggestions[0].Source != "completion" {
		t.Fatalf("suggestions = %+v", resp.Suggestions)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	e := echo.New()
	h, hist := testHandler(t)

	ctx := context.Background()
	if err := hist.Append(ctx, "user-1", history.Entry{Query: "flappy bird", Kind: "products", ResultCount: 3}); err != nil {
		t.Fatalf("append: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/search/history", nil)
	rec := httptest.NewRecorder()
	ec := e.NewContext(req, rec)
	ec.Set("user_id", "user-1")

	if err := h.recentHistory(ec); err != nil {
		t.Fatalf("recentHistory: %v", err)
	}
	var resp historyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || len(resp.History) != 1 {
		t.Fatalf("body = %s", rec.Body.String())
	}
	if resp.History[0].Query != "flappy bird" || resp.History[0].Type != "products" || resp.History[0].ResultCount != 3 {
		t.Fatalf("history = %+v", resp.History)
	}
}

func TestHistoryEndpointRequiresIdentity(t *testing.T) {
	e := echo.New()
	h, _ := testHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/search/history", nil)
	rec := httptest.NewRecorder()
	ec := e.NewContext(req, rec)

	err := h.recentHistory(ec)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("err = %v", err)
	}
}

func TestClearHistoryEndpoint(t *testing.T) {
	e := echo.New()
	h, hist := testHandler(t)

	ctx := context.Background()
	if err := hist.Append(ctx, "user-1", history.Entry{Query: "flappy bird", Kind: "products"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/search/history", nil)
	rec := httptest.NewRecorder()
	ec := e.NewContext(req, rec)
	ec.Set("user_id", "user-1")

	if err := h.clearHistory(ec); err != nil {
		t.Fatalf("clearHistory: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	entries, err := hist.Recent(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("history not cleared: %+v", entries)
	}
}
