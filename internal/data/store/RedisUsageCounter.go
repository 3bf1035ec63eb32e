package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/akolanti/ragchat/internal/config"
	"github.com/akolanti/ragchat/internal/data/redisStore"
	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/akolanti/ragchat/pkg/logger_i"
	"github.com/shopspring/decimal"
)

const (
	fieldVersion    = "version"
	fieldCachedAt   = "cached_version"
	fieldFreshUntil = "fresh_until"
	fieldTokens     = "tokens"
	fieldCost       = "cost"
	fieldRequests   = "requests"
)

// RedisUsageCounter keeps one hash per user per calendar month (UTC). The
// version field counts invalidations; the totals are valid only while
// cached_version equals version and fresh_until has not passed.
type RedisUsageCounter struct {
	store  *redisStore.Store
	logger *logger_i.Logger
	now    func() time.Time
}

func NewRedisUsageCounter(store *redisStore.Store) *RedisUsageCounter {
	return &RedisUsageCounter{
		store:  store,
		logger: logger_i.NewLogger("UsageCounter"),
		now:    time.Now,
	}
}

func monthKey(userId string, month time.Time) string {
	return fmt.Sprintf("usage:%s:%s", userId, month.UTC().Format("2006-01"))
}

func monthExpiry(month time.Time) time.Time {
	m := month.UTC()
	next := time.Date(m.Year(), m.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	return next.Add(config.UsageCounterGrace)
}

func (c *RedisUsageCounter) GetMonth(ctx context.Context, userId string, month time.Time) (commonModels.UsageTotals, bool, int64, error) {
	fields, err := c.store.HashGetAll(ctx, monthKey(userId, month))
	if err != nil {
		return commonModels.UsageTotals{}, false, 0, err
	}

	version, err := parseCounterInt(fields, fieldVersion)
	if err != nil {
		return commonModels.UsageTotals{}, false, 0, err
	}
	cached, ok := fields[fieldCachedAt]
	if !ok || cached != strconv.FormatInt(version, 10) {
		return commonModels.UsageTotals{}, false, version, nil
	}
	freshUntil, err := parseCounterInt(fields, fieldFreshUntil)
	if err != nil {
		return commonModels.UsageTotals{}, false, 0, err
	}
	if c.now().UnixMilli() >= freshUntil {
		return commonModels.UsageTotals{}, false, version, nil
	}

	totals := commonModels.UsageTotals{Cost: decimal.Zero}
	if totals.Tokens, err = parseCounterInt(fields, fieldTokens); err != nil {
		return commonModels.UsageTotals{}, false, 0, err
	}
	if totals.Requests, err = parseCounterInt(fields, fieldRequests); err != nil {
		return commonModels.UsageTotals{}, false, 0, err
	}
	if totals.Cost, err = decimal.NewFromString(fields[fieldCost]); err != nil {
		return commonModels.UsageTotals{}, false, 0, fmt.Errorf("bad cost counter: %w", err)
	}
	return totals, true, version, nil
}

// parseCounterInt treats a missing field as zero.
func parseCounterInt(fields map[string]string, field string) (int64, error) {
	raw, ok := fields[field]
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s counter: %w", field, err)
	}
	return n, nil
}

func (c *RedisUsageCounter) SeedMonth(ctx context.Context, userId string, month time.Time, version int64, totals commonModels.UsageTotals) error {
	key := monthKey(userId, month)
	written, err := c.store.HashSetIfVersion(ctx, key, fieldVersion, version, map[string]string{
		fieldCachedAt:   strconv.FormatInt(version, 10),
		fieldFreshUntil: strconv.FormatInt(c.now().Add(config.UsageCacheFreshness).UnixMilli(), 10),
		fieldTokens:     strconv.FormatInt(totals.Tokens, 10),
		fieldCost:       totals.Cost.String(),
		fieldRequests:   strconv.FormatInt(totals.Requests, 10),
	}, monthExpiry(month))
	if err != nil {
		return err
	}
	c.logger.WithTrace(ctx).Debug("usage counter seed", "key", key, "version", version, "written", written)
	return nil
}

func (c *RedisUsageCounter) InvalidateMonth(ctx context.Context, userId string, month time.Time) error {
	_, err := c.store.HashBumpVersion(ctx, monthKey(userId, month), fieldVersion, monthExpiry(month))
	return err
}
