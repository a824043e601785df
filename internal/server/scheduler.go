package server

import (
	"context"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"

	"github.com/productbazar/searchd/internal/history"
	"github.com/productbazar/searchd/internal/search"
)

// Scheduler periodically rebuilds the index snapshots and sweeps
// expired history. A Redis lock keeps concurrent replicas from
// rebuilding at the same time.
type Scheduler struct {
	Rebuilder *search.Rebuilder
	History   *history.RedisStore
	Rdb       *redis.Client
	Schedule  string
	Stop      chan struct{}
	Logger    *log.Logger

	lastRun *time.Time
}

func (s *Scheduler) Start() {
	ticker := time.NewTicker(1 * time.Hour)
	go func() {
		for {
			select {
			case <-s.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

func (s *Scheduler) tick() {
	if !isDue(s.Schedule, s.lastRun) {
		return
	}
	ctx := context.Background()

	// Distributed lock so only one replica rebuilds per cycle.
	if s.Rdb != nil {
		ok, _ := s.Rdb.SetNX(ctx, "searchd:rebuild:lock", "1", 10*time.Minute).Result()
		if !ok {
			return
		}
		defer s.Rdb.Del(ctx, "searchd:rebuild:lock")
	}

	now := time.Now()
	s.lastRun = &now

	if err := s.Rebuilder.Rebuild(ctx); err != nil {
		s.Logger.Printf("scheduled rebuild failed: %v", err)
	}
	if s.History != nil {
		if err := s.History.Sweep(ctx); err != nil {
			s.Logger.Printf("history sweep failed: %v", err)
		}
	}
}

// isDue determines if a job with cronSpec should run now based on its
// last run time. Supports "@daily", "@hourly", and standard 5-field
// cron expressions.
func isDue(cronSpec string, last *time.Time) bool {
	now := time.Now()
	switch cronSpec {
	case "@daily":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= 24*time.Hour
	case "@hourly":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			// Fallback: treat as @daily if invalid
			if last == nil {
				return true
			}
			return now.Sub(*last) >= 24*time.Hour
		}
		if last == nil {
			return true
		}
		next := expr.Next(*last)
		return !next.After(now)
	}
}
