package history

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	redismock "github.com/go-redis/redismock/v9"
)

func mustRaw(t *testing.T, e Entry) []byte {
	t.Helper()
	raw, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal entry: %v", err)
	}
	return raw
}

func TestRedisAppendRewritesList(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db, 20, 90*24*time.Hour)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	key := "search:history:u1"
	dup := Entry{ID: "e1", Query: "flappy bird", Kind: "all", RecordedAt: now.Add(-2 * time.Hour)}
	other := Entry{ID: "e2", Query: "kanban", Kind: "all", RecordedAt: now.Add(-time.Hour)}
	mock.ExpectLRange(key, 0, -1).SetVal([]string{string(mustRaw(t, dup)), string(mustRaw(t, other))})

	// The rewrite lands the new entry first and drops the duplicate.
	fresh := Entry{ID: "e3", Query: "flappy bird", Kind: "products", RecordedAt: now, ResultCount: 3}
	mock.ExpectTxPipeline()
	mock.ExpectDel(key).SetVal(1)
	mock.ExpectRPush(key, mustRaw(t, fresh), mustRaw(t, other)).SetVal(2)
	mock.ExpectExpire(key, 90*24*time.Hour).SetVal(true)
	mock.ExpectTxPipelineExec()

	if err := s.Append(context.Background(), "u1", fresh); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRedisRecentFiltersExpired(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db, 20, 90*24*time.Hour)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	key := "search:history:u1"
	fresh := Entry{ID: "e1", Query: "flappy bird", Kind: "all", RecordedAt: now.Add(-time.Hour)}
	expired := Entry{ID: "e2", Query: "ancient", Kind: "all", RecordedAt: now.Add(-120 * 24 * time.Hour)}
	mock.ExpectLRange(key, 0, -1).SetVal([]string{string(mustRaw(t, fresh)), string(mustRaw(t, expired))})

	entries, err := s.Recent(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 1 || entries[0].Query != "flappy bird" {
		t.Fatalf("entries = %+v", entries)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRedisClear(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db, 20, 0)

	mock.ExpectDel("search:history:u1").SetVal(1)

	if err := s.Clear(context.Background(), "u1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRedisSweepRewritesExpiredLists(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db, 20, 90*24*time.Hour)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	key := "search:history:u1"
	fresh := Entry{ID: "e1", Query: "flappy bird", Kind: "all", RecordedAt: now.Add(-time.Hour)}
	expired := Entry{ID: "e2", Query: "ancient", Kind: "all", RecordedAt: now.Add(-120 * 24 * time.Hour)}

	mock.ExpectScan(0, "search:history:*", 256).SetVal([]string{key}, 0)
	mock.ExpectLRange(key, 0, -1).SetVal([]string{string(mustRaw(t, fresh)), string(mustRaw(t, expired))})
	mock.ExpectTxPipeline()
	mock.ExpectDel(key).SetVal(1)
	mock.ExpectRPush(key, mustRaw(t, fresh)).SetVal(1)
	mock.ExpectExpire(key, 90*24*time.Hour).SetVal(true)
	mock.ExpectTxPipelineExec()

	if err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRedisSweepLeavesFreshListsAlone(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db, 20, 90*24*time.Hour)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	key := "search:history:u1"
	fresh := Entry{ID: "e1", Query: "flappy bird", Kind: "all", RecordedAt: now.Add(-time.Hour)}

	mock.ExpectScan(0, "search:history:*", 256).SetVal([]string{key}, 0)
	mock.ExpectLRange(key, 0, -1).SetVal([]string{string(mustRaw(t, fresh))})

	if err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
