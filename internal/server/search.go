package server

import (
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/productbazar/searchd/internal/history"
	"github.com/productbazar/searchd/internal/runtime"
	"github.com/productbazar/searchd/internal/search"
)

// SearchHandler exposes the search, suggestions and history endpoints.
type SearchHandler struct {
	Coordinator *search.Coordinator
	History     history.Store
	RecentLimit int
	Logger      *log.Logger
}

// Register mounts the routes. Search and suggestions take an optional
// identity; the history endpoints require one.
func (h *SearchHandler) Register(g *echo.Group, secret []byte) {
	optional := runtime.EchoOptionalIdentity(secret)
	required := runtime.EchoAuthMiddleware(secret)

	g.GET("", h.search, optional)
	g.GET("/suggestions", h.suggestions, optional)
	g.GET("/history", h.recentHistory, required)
	g.DELETE("/history", h.clearHistory, required)
}

func (h *SearchHandler) search(c echo.Context) error {
	req, err := parseRequest(c)
	if err != nil {
		return err
	}
	identity, _ := c.Get("user_id").(string)
	resp, err := h.Coordinator.Search(c.Request().Context(), req, identity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, searchResponse{
		Success:   true,
		Results:   resp.Results,
		Truncated: resp.Truncated,
	})
}

func (h *SearchHandler) suggestions(c echo.Context) error {
	req, err := parseRequest(c)
	if err != nil {
		return err
	}
	identity, _ := c.Get("user_id").(string)
	suggestions, err := h.Coordinator.Suggestions(c.Request().Context(), req, identity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, suggestionsResponse{Success: true, Suggestions: suggestions})
}

func (h *SearchHandler) recentHistory(c echo.Context) error {
	identity, _ := c.Get("user_id").(string)
	if identity == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	limit := h.RecentLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}
	entries, err := h.History.Recent(c.Request().Context(), identity, limit)
	if err != nil {
		h.logf("history read failed for %s: %v", identity, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "search history is temporarily unavailable")
	}
	return c.JSON(http.StatusOK, historyResponse{Success: true, History: toHistoryEntries(entries)})
}

func (h *SearchHandler) clearHistory(c echo.Context) error {
	identity, _ := c.Get("user_id").(string)
	if identity == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := h.History.Clear(c.Request().Context(), identity); err != nil {
		h.logf("history clear failed for %s: %v", identity, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "search history is temporarily unavailable")
	}
	return c.JSON(http.StatusOK, clearedResponse{Success: true})
}

// parseRequest validates the shared query parameters. An unknown type
// or malformed limit is a client error; a short query is not, the
// coordinator answers it with empty results.
func parseRequest(c echo.Context) (search.Request, error) {
	kind, err := search.ParseKind(c.QueryParam("type"))
	if err != nil {
		return search.Request{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req := search.Request{
		Query:           c.QueryParam("q"),
		Type:            kind,
		NaturalLanguage: c.QueryParam("natural_language") == "true",
	}
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return search.Request{}, echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		req.Limit = n
	}
	return req, nil
}

func (h *SearchHandler) logf(format string, args ...interface{}) {
	if h.Logger != nil {
		h.Logger.Printf(format, args...)
	}
}
