package registry

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures the process-global defense-in-depth limiter
// sitting in front of outbound calls, independent of the per-handler
// minInterval gate enforced by Handler.Reserve.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// DefaultRateLimitConfig allows generous headroom above any single handler's
// minInterval; it exists to bound runaway concurrent handler fan-out, not to
// replace the per-handler gate.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{RequestsPerSecond: 50, Burst: 100}
}

// RateLimitedClient wraps an http.Client with a process-wide token bucket.
type RateLimitedClient struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewRateLimitedClient wraps client (or http.DefaultClient if nil) with a
// token bucket built from cfg.
func NewRateLimitedClient(client *http.Client, cfg RateLimitConfig) *RateLimitedClient {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 50
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RequestsPerSecond * 2)
	}
	return &RateLimitedClient{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

// Do waits for a token, then issues the request.
func (c *RateLimitedClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return c.client.Do(req)
}
