package middleware

import (
	"sync"

	"github.com/akolanti/ragchat/internal/config"
	"golang.org/x/time/rate"
)

type IPRateLimiter struct {
	ips       map[string]*rate.Limiter
	mu        sync.Mutex
	rateLimit rate.Limit
	burstRate int
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{ips: make(map[string]*rate.Limiter), rateLimit: r, burstRate: b}
}

// FromConfig returns nil when rate limiting is switched off.
func FromConfig(cfg config.RateLimitConfig) *IPRateLimiter {
	if cfg.PerSecond <= 0 {
		return nil
	}
	return NewIPRateLimiter(rate.Limit(cfg.PerSecond), max(cfg.Burst, 1))
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()
	limiter, exists := i.ips[ip]
	if !exists {
		limiter = rate.NewLimiter(i.rateLimit, i.burstRate)
		i.ips[ip] = limiter
	}
	return limiter
}

//TODO: move the per-IP limiters to redis once more than one replica serves chat
