package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/productbazar/searchd/config"
	"github.com/productbazar/searchd/internal/history"
	"github.com/productbazar/searchd/internal/runtime"
	"github.com/productbazar/searchd/internal/search"
	"github.com/productbazar/searchd/internal/store"
)

// Run wires the full service and blocks serving HTTP.
func Run(cfg *appconfig.Config, addr string) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// Unified HTTP error handler with structured JSON and logging.
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"success": false, "error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Cookie"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	if err := Migrate("file://migrations", cfg.Storage.Postgres.DSN(), "up", 0); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	ctx := context.Background()
	st, err := store.NewWithDSN(ctx, cfg.Storage.Postgres.DSN())
	if err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Storage.Redis.Addr(),
		Password: cfg.Storage.Redis.Password,
		DB:       cfg.Storage.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed (%s): %w", cfg.Storage.Redis.Addr(), err)
	}

	secret, err := runtime.LoadJWTSecret(cfg)
	if err != nil {
		return err
	}

	retention := time.Duration(cfg.History.RetentionDays) * 24 * time.Hour
	hist := history.NewRedisStore(rdb, cfg.History.Cap, retention)

	indexes := make(map[search.Kind]*search.Index, len(search.Kinds))
	lookups := make(map[search.Kind]search.EntityIndex, len(search.Kinds))
	for _, kind := range search.Kinds {
		idx := search.NewIndex(kind)
		indexes[kind] = idx
		lookups[kind] = idx
	}
	spelling := search.NewSpellingIndex()
	categories := search.NewCategoryResolver()

	rebuildLogger := log.New(log.Writer(), "[INDEX] ", log.LstdFlags)
	rebuilder := &search.Rebuilder{
		Store:      st,
		Indexes:    indexes,
		Spelling:   spelling,
		Categories: categories,
		Logger:     rebuildLogger,
	}
	if err := rebuilder.Rebuild(ctx); err != nil {
		return fmt.Errorf("initial snapshot build failed: %w", err)
	}

	searchLogger := log.New(log.Writer(), "[SEARCH] ", log.LstdFlags)
	coord := search.NewCoordinator(lookups, spelling, categories, hist, searchLogger)
	coord.MinQueryLength = cfg.Search.MinQueryLength
	coord.DefaultLimit = cfg.Search.DefaultLimit
	coord.MaxLimit = cfg.Search.MaxLimit
	coord.SearchTimeout = cfg.Search.SearchTimeout
	coord.SuggestTimeout = cfg.Search.SuggestTimeout
	coord.IndexTimeout = cfg.Search.IndexTimeout
	coord.Composer.Max = cfg.Search.MaxSuggestions

	api := e.Group("/api")
	sh := &SearchHandler{
		Coordinator: coord,
		History:     hist,
		RecentLimit: cfg.History.RecentLimit,
		Logger:      searchLogger,
	}
	sh.Register(api.Group("/search"), secret)

	sched := &Scheduler{
		Rebuilder: rebuilder,
		History:   hist,
		Rdb:       rdb,
		Schedule:  cfg.Search.RebuildSchedule,
		Stop:      make(chan struct{}),
		Logger:    log.New(log.Writer(), "[SCHED] ", log.LstdFlags),
	}
	sched.Start()

	if addr == "" {
		addr = listenAddr(cfg.Server.Listen)
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}

// listenAddr resolves the configured listen value: a bare port gets a
// leading colon, host-qualified values pass through untouched.
func listenAddr(configured string) string {
	if configured == "" {
		return ":8080"
	}
	for _, r := range configured {
		if r < '0' || r > '9' {
			return configured
		}
	}
	return ":" + configured
}
