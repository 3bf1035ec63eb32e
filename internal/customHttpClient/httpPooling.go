package customHttpClient

import (
	"net/http"
	"sync"

	"github.com/akolanti/ragchat/internal/config"
)

var (
	once   sync.Once
	client *http.Client
)

// Shared returns one pooled client for all provider SDKs so embedding and
// chat calls reuse upstream connections. No client timeout: streams are
// bounded by the request context instead.
func Shared() *http.Client {
	once.Do(func() {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.MaxIdleConns = config.MaxIdleConns
		transport.MaxIdleConnsPerHost = config.MaxIdleConnsPerHost
		transport.IdleConnTimeout = config.IdleConnTimeout
		client = &http.Client{Transport: transport}
	})
	return client
}
