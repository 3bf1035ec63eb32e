package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/akolanti/ragchat/internal/config"
	"github.com/akolanti/ragchat/internal/data/redisStore"
	"github.com/akolanti/ragchat/internal/data/store"
	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/akolanti/ragchat/internal/domain/ragModel"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func newRedisCounter(t *testing.T) (*miniredis.Miniredis, *store.RedisUsageCounter) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, store.NewRedisUsageCounter(redisStore.NewTestStore(client))
}

// exerciseVersioning runs the cache contract shared by every counter.
func exerciseVersioning(t *testing.T, counter ragModel.UsageCounter, month time.Time) {
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	sum := commonModels.UsageTotals{Tokens: 100, Cost: decimal.RequireFromString("0.25"), Requests: 2}

	_, found, version, err := counter.GetMonth(ctx, "user-1", month)
	if err != nil {
		t.Fatalf("GetMonth failed: %v", err)
	}
	if found || version != 0 {
		t.Fatalf("cold month: found=%v version=%d, want false/0", found, version)
	}

	if err := counter.SeedMonth(ctx, "user-1", month, version, sum); err != nil {
		t.Fatalf("SeedMonth failed: %v", err)
	}
	totals, found, _, err := counter.GetMonth(ctx, "user-1", month.Add(time.Hour))
	if err != nil || !found {
		t.Fatalf("after seed: found=%v err=%v", found, err)
	}
	if totals.Tokens != 100 || totals.Requests != 2 || !totals.Cost.Equal(sum.Cost) {
		t.Errorf("unexpected totals %+v", totals)
	}

	if err := counter.InvalidateMonth(ctx, "user-1", month); err != nil {
		t.Fatalf("InvalidateMonth failed: %v", err)
	}
	_, found, version, _ = counter.GetMonth(ctx, "user-1", month)
	if found || version != 1 {
		t.Fatalf("after invalidate: found=%v version=%d, want false/1", found, version)
	}

	// a sum taken before the invalidation must not land
	if err := counter.SeedMonth(ctx, "user-1", month, 0, sum); err != nil {
		t.Fatalf("SeedMonth failed: %v", err)
	}
	if _, found, _, _ := counter.GetMonth(ctx, "user-1", month); found {
		t.Fatal("seed with an outdated version was accepted")
	}

	fresh := commonModels.UsageTotals{Tokens: 160, Cost: decimal.RequireFromString("0.4"), Requests: 3}
	if err := counter.SeedMonth(ctx, "user-1", month, 1, fresh); err != nil {
		t.Fatalf("SeedMonth failed: %v", err)
	}
	totals, found, _, _ = counter.GetMonth(ctx, "user-1", month)
	if !found || totals.Tokens != 160 || totals.Requests != 3 {
		t.Errorf("current-version seed: found=%v totals=%+v", found, totals)
	}

	if _, found, _, _ := counter.GetMonth(ctx, "user-1", month.AddDate(0, 1, 0)); found {
		t.Error("next month should be cold")
	}
}

func TestRedisUsageCounter_Versioning(t *testing.T) {
	mr, counter := newRedisCounter(t)
	now := time.Now().UTC()
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	key := "usage:user-1:" + month.Format("2006-01")

	exerciseVersioning(t, counter, month)

	if ttl := mr.TTL(key); ttl <= 0 {
		t.Errorf("expected a ttl on the counter, got %v", ttl)
	}
	if got := mr.HGet(key, "version"); got != "1" {
		t.Errorf("version field = %q, want 1", got)
	}
}

func TestRedisUsageCounter_StaleCacheIsIgnored(t *testing.T) {
	mr, counter := newRedisCounter(t)
	ctx := context.Background()
	now := time.Now().UTC()
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	key := "usage:user-2:" + month.Format("2006-01")

	if err := counter.SeedMonth(ctx, "user-2", month, 0, commonModels.UsageTotals{Tokens: 9, Cost: decimal.Zero, Requests: 1}); err != nil {
		t.Fatalf("SeedMonth failed: %v", err)
	}
	if _, found, _, _ := counter.GetMonth(ctx, "user-2", month); !found {
		t.Fatal("expected a fresh cache after seeding")
	}

	mr.HSet(key, "fresh_until", "1")
	if _, found, _, _ := counter.GetMonth(ctx, "user-2", month); found {
		t.Error("cache past its freshness window was served")
	}
}

func TestInMemoryUsageCounter_Versioning(t *testing.T) {
	exerciseVersioning(t, store.NewInMemoryUsageCounter(), time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
}
