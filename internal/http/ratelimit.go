package httpserver

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const maxTrackedClients = 10000

// RateLimiter hands out one token bucket per client address.
type RateLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*rate.Limiter
	rate       rate.Limit
	burst      int
	trustProxy bool
	logger     *logrus.Entry
}

func NewRateLimiter(requestsPerSecond float64, burst int, trustProxy bool, logger *logrus.Entry) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters:   make(map[string]*rate.Limiter),
		rate:       rate.Limit(requestsPerSecond),
		burst:      burst,
		trustProxy: trustProxy,
		logger:     logger,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.limiters[key]
	if !ok {
		// Forget every bucket once the table is full; idle clients simply
		// start over with a full burst.
		if len(rl.limiters) >= maxTrackedClients {
			rl.limiters = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = limiter
	}
	return limiter
}

func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiter(key).Allow()
}

func (rl *RateLimiter) Middleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request, params Params) {
			key := clientKey(req, rl.trustProxy)
			if !rl.Allow(key) {
				if rl.logger != nil {
					rl.logger.WithFields(logrus.Fields{
						"client": key,
						"method": req.Method,
						"path":   req.URL.Path,
					}).Warn("rate limit exceeded")
				}
				writeError(w, http.StatusTooManyRequests, "RATE_LIMITED")
				return
			}
			next(w, req, params)
		}
	}
}

func clientKey(req *http.Request, trustProxy bool) string {
	if trustProxy {
		if forwarded := req.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
