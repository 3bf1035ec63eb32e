package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/akolanti/ragchat/internal/domain/ragModel"
	"github.com/akolanti/ragchat/internal/metrics"
	"github.com/akolanti/ragchat/pkg/logger_i"
	"github.com/shopspring/decimal"
)

type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// Record is one metered provider call, as reported at the end of a turn.
type Record struct {
	UserId           string
	SessionId        string
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Ms               int64
}

type QuotaSnapshot struct {
	TokensLimit       int64
	TokensUsed        int64
	TokensRemaining   int64
	CostLimit         decimal.Decimal
	CostUsed          decimal.Decimal
	CostRemaining     decimal.Decimal
	RequestsLimit     int64
	RequestsUsed      int64
	RequestsRemaining int64
}

type Stats struct {
	Period     Period
	StartDate  time.Time
	EndDate    time.Time
	Totals     commonModels.UsageTotals
	ByProvider map[string]commonModels.UsageTotals
	Quota      *QuotaSnapshot
}

type QuotaStatus struct {
	HasQuota         bool
	TokensExceeded   bool
	CostExceeded     bool
	RequestsExceeded bool
	AnyExceeded      bool
	Usage            commonModels.UsageTotals
	Limits           *commonModels.Quota
}

type Service struct {
	store   ragModel.UsageStore
	counter ragModel.UsageCounter
	logger  *logger_i.Logger
	now     func() time.Time
}

// NewService wires the ledger and an optional monthly counter (nil disables it).
func NewService(store ragModel.UsageStore, counter ragModel.UsageCounter) *Service {
	return &Service{
		store:   store,
		counter: counter,
		logger:  logger_i.NewLogger("Usage"),
		now:     time.Now,
	}
}

// LogUsage prices and persists one call. Failures are logged, never returned.
func (s *Service) LogUsage(ctx context.Context, rec Record) {
	log := s.logger.WithTrace(ctx).With("userId", rec.UserId, "provider", rec.Provider, "model", rec.Model)

	cost := CalculateCost(rec.Provider, rec.Model, rec.PromptTokens, rec.CompletionTokens)
	entry := commonModels.UsageLog{
		UserId:           rec.UserId,
		Provider:         rec.Provider,
		Model:            rec.Model,
		PromptTokens:     rec.PromptTokens,
		CompletionTokens: rec.CompletionTokens,
		TotalTokens:      rec.TotalTokens,
		Ms:               rec.Ms,
		CostUSD:          cost.Round(6),
		SessionId:        rec.SessionId,
		Timestamp:        s.now().UTC(),
	}

	if err := s.store.InsertUsage(ctx, entry); err != nil {
		log.Error("Error logging usage", "error", err)
		return
	}
	costFloat, _ := entry.CostUSD.Float64()
	metrics.CaptureUsage(rec.Provider, rec.PromptTokens, rec.CompletionTokens, costFloat)

	if s.counter != nil {
		if err := s.counter.InvalidateMonth(ctx, rec.UserId, entry.Timestamp); err != nil {
			log.Warn("usage counter invalidate failed", "error", err)
		}
	}
	log.Info("Logged usage", "totalTokens", rec.TotalTokens, "costUsd", entry.CostUSD.StringFixed(6))
}

// PeriodStart maps a period name to its window start. Unknown names mean month.
func PeriodStart(period string, now time.Time) (Period, time.Time) {
	now = now.UTC()
	switch Period(period) {
	case PeriodDay:
		return PeriodDay, time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	case PeriodWeek:
		return PeriodWeek, now.Add(-7 * 24 * time.Hour)
	default:
		return PeriodMonth, startOfMonth(now)
	}
}

func startOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func (s *Service) Stats(ctx context.Context, userId string, period string) (Stats, error) {
	now := s.now().UTC()
	resolved, start := PeriodStart(period, now)

	byProvider, err := s.store.SumUsageByProvider(ctx, userId, start)
	if err != nil {
		return Stats{}, err
	}
	totals := commonModels.UsageTotals{Cost: decimal.Zero}
	for _, t := range byProvider {
		totals = totals.Add(t)
	}

	quota, err := s.store.GetQuota(ctx, userId)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		Period:     resolved,
		StartDate:  start,
		EndDate:    now,
		Totals:     totals,
		ByProvider: byProvider,
	}
	if quota != nil {
		stats.Quota = &QuotaSnapshot{
			TokensLimit:       quota.TokensLimit,
			TokensUsed:        totals.Tokens,
			TokensRemaining:   max(0, quota.TokensLimit-totals.Tokens),
			CostLimit:         quota.CostLimit,
			CostUsed:          totals.Cost,
			CostRemaining:     decimal.Max(decimal.Zero, quota.CostLimit.Sub(totals.Cost)),
			RequestsLimit:     quota.RequestsLimit,
			RequestsUsed:      totals.Requests,
			RequestsRemaining: max(0, quota.RequestsLimit-totals.Requests),
		}
	}
	return stats, nil
}

// CheckQuota compares this calendar month's usage with the user's limits.
// A dimension is exceeded once used >= limit.
func (s *Service) CheckQuota(ctx context.Context, userId string) (QuotaStatus, error) {
	quota, err := s.store.GetQuota(ctx, userId)
	if err != nil {
		return QuotaStatus{}, err
	}
	if quota == nil {
		return QuotaStatus{HasQuota: false}, nil
	}

	used, err := s.monthUsage(ctx, userId)
	if err != nil {
		return QuotaStatus{}, err
	}

	status := QuotaStatus{
		HasQuota:         true,
		TokensExceeded:   used.Tokens >= quota.TokensLimit,
		CostExceeded:     used.Cost.GreaterThanOrEqual(quota.CostLimit),
		RequestsExceeded: used.Requests >= quota.RequestsLimit,
		Usage:            used,
		Limits:           quota,
	}
	status.AnyExceeded = status.TokensExceeded || status.CostExceeded || status.RequestsExceeded
	return status, nil
}

// monthUsage reads the cached monthly sum, or sums the ledger and caches the
// result under the version observed before the sum.
func (s *Service) monthUsage(ctx context.Context, userId string) (commonModels.UsageTotals, error) {
	month := startOfMonth(s.now())
	log := s.logger.WithTrace(ctx).With("userId", userId)

	seed := false
	var version int64
	if s.counter != nil {
		totals, found, v, err := s.counter.GetMonth(ctx, userId, month)
		switch {
		case err != nil:
			log.Warn("usage counter read failed, using ledger", "error", err)
		case found:
			return totals, nil
		default:
			seed, version = true, v
		}
	}

	byProvider, err := s.store.SumUsageByProvider(ctx, userId, month)
	if err != nil {
		return commonModels.UsageTotals{}, err
	}
	totals := commonModels.UsageTotals{Cost: decimal.Zero}
	for _, t := range byProvider {
		totals = totals.Add(t)
	}

	if seed {
		if err := s.counter.SeedMonth(ctx, userId, month, version, totals); err != nil {
			log.Warn("usage counter seed failed", "error", err)
		}
	}
	return totals, nil
}

// History pages through the user's usage logs, newest first.
func (s *Service) History(ctx context.Context, userId string, limit int, offset int) ([]commonModels.UsageLog, bool, error) {
	if limit <= 0 || offset < 0 {
		return nil, false, fmt.Errorf("%w: limit must be positive and offset non-negative", commonModels.ErrValidation)
	}
	logs, err := s.store.ListUsage(ctx, userId, limit+1, offset)
	if err != nil {
		return nil, false, err
	}
	hasMore := len(logs) > limit
	if hasMore {
		logs = logs[:limit]
	}
	return logs, hasMore, nil
}
