package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/google/uuid"
)

// InMemoryUsageStore backs usage logs, quotas and chat messages when Postgres is offline.
type InMemoryUsageStore struct {
	lock      sync.RWMutex
	logs      []commonModels.UsageLog
	quotas    map[string]commonModels.Quota
	messages  []commonModels.Message
	citations map[string][]commonModels.Citation
}

func NewInMemoryUsageStore() *InMemoryUsageStore {
	return &InMemoryUsageStore{
		quotas:    make(map[string]commonModels.Quota),
		citations: make(map[string][]commonModels.Citation),
	}
}

func (s *InMemoryUsageStore) InsertUsage(_ context.Context, entry commonModels.UsageLog) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if entry.Id == "" {
		entry.Id = uuid.New().String()
	}
	s.logs = append(s.logs, entry)
	return nil
}

func (s *InMemoryUsageStore) SumUsageByProvider(_ context.Context, userId string, since time.Time) (map[string]commonModels.UsageTotals, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	result := make(map[string]commonModels.UsageTotals)
	for _, entry := range s.logs {
		if entry.UserId != userId || entry.Timestamp.Before(since) {
			continue
		}
		result[entry.Provider] = result[entry.Provider].Add(commonModels.UsageTotals{
			Tokens:   int64(entry.TotalTokens),
			Cost:     entry.CostUSD,
			Requests: 1,
		})
	}
	return result, nil
}

func (s *InMemoryUsageStore) ListUsage(_ context.Context, userId string, limit int, offset int) ([]commonModels.UsageLog, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	var logs []commonModels.UsageLog
	for _, entry := range s.logs {
		if entry.UserId == userId {
			logs = append(logs, entry)
		}
	}
	slices.SortStableFunc(logs, func(a, b commonModels.UsageLog) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if offset >= len(logs) {
		return []commonModels.UsageLog{}, nil
	}
	logs = logs[offset:]
	if len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func (s *InMemoryUsageStore) GetQuota(_ context.Context, userId string) (*commonModels.Quota, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	quota, ok := s.quotas[userId]
	if !ok {
		return nil, nil
	}
	return &quota, nil
}

// SetQuota exists for tests and local runs, quota rows are otherwise managed outside this service.
func (s *InMemoryUsageStore) SetQuota(quota commonModels.Quota) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.quotas[quota.UserId] = quota
}

func (s *InMemoryUsageStore) SaveMessage(_ context.Context, message commonModels.Message, citations []commonModels.Citation) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if message.Id == "" {
		message.Id = uuid.New().String()
	}
	s.messages = append(s.messages, message)
	s.citations[message.Id] = append(s.citations[message.Id], citations...)
	return nil
}

// Messages returns the saved messages for a session in insertion order.
func (s *InMemoryUsageStore) Messages(sessionId string) []commonModels.Message {
	s.lock.RLock()
	defer s.lock.RUnlock()
	var out []commonModels.Message
	for _, m := range s.messages {
		if m.SessionId == sessionId {
			out = append(out, m)
		}
	}
	return out
}

func (s *InMemoryUsageStore) Citations(messageId string) []commonModels.Citation {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return slices.Clone(s.citations[messageId])
}
