package middleware

import (
	"encoding/json"
	"log"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"faasrhub/appctx"
)

// RateLimiterConfig holds the per-user rate limit settings.
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // overall API rate (req/sec)
	GeneralBurst    int           // overall API burst size
	UploadRate      rate.Limit    // workflow upload rate (req/sec)
	UploadBurst     int           // workflow upload burst size
	CleanupInterval time.Duration // how often idle limiter entries are dropped
}

// DefaultRateLimiterConfig allows 120 general requests and 10 workflow
// uploads per minute per user.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(120.0 / 60.0),
		GeneralBurst:    120,
		UploadRate:      rate.Limit(10.0 / 60.0),
		UploadBurst:     10,
		CleanupInterval: 5 * time.Minute,
	}
}

// userLimiter pairs a token bucket with its last access time so idle entries
// can be reclaimed.
type userLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter enforces per-user request rates. Requests are keyed by the
// authenticated session's login; unauthenticated requests fall back to the
// client address. Uploads get their own, tighter bucket independent of the
// general one.
type RateLimiter struct {
	config RateLimiterConfig

	generalMu       sync.RWMutex
	generalLimiters map[string]*userLimiter

	uploadMu       sync.RWMutex
	uploadLimiters map[string]*userLimiter

	stopCh chan struct{}
}

// NewRateLimiter creates a rate limiter and starts the background cleanup of
// idle entries.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:          config,
		generalLimiters: make(map[string]*userLimiter),
		uploadLimiters:  make(map[string]*userLimiter),
		stopCh:          make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop terminates the background cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// WithGeneralLimit wraps an HTTP handler with the overall API rate limit
func (rl *RateLimiter) WithGeneralLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		limiter := rl.getOrCreateLimiter(&rl.generalMu, rl.generalLimiters, key, rl.config.GeneralRate, rl.config.GeneralBurst)

		if !limiter.Allow() {
			log.Printf("⚠️ General rate limit exceeded for %s", key)
			writeRateLimitResponse(w, rl.config.GeneralRate)
			return
		}

		next(w, r)
	}
}

// WithUploadLimit wraps an HTTP handler with the workflow upload rate limit.
// It operates independently of the general limit.
func (rl *RateLimiter) WithUploadLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		limiter := rl.getOrCreateLimiter(&rl.uploadMu, rl.uploadLimiters, key, rl.config.UploadRate, rl.config.UploadBurst)

		if !limiter.Allow() {
			log.Printf("⚠️ Upload rate limit exceeded for %s", key)
			writeRateLimitResponse(w, rl.config.UploadRate)
			return
		}

		next(w, r)
	}
}

// GeneralLimiterCount returns the number of tracked general limiter entries.
// For tests and metrics.
func (rl *RateLimiter) GeneralLimiterCount() int {
	rl.generalMu.RLock()
	defer rl.generalMu.RUnlock()
	return len(rl.generalLimiters)
}

// UploadLimiterCount returns the number of tracked upload limiter entries.
// For tests and metrics.
func (rl *RateLimiter) UploadLimiterCount() int {
	rl.uploadMu.RLock()
	defer rl.uploadMu.RUnlock()
	return len(rl.uploadLimiters)
}

// getOrCreateLimiter fetches the caller's limiter, creating it on first use.
func (rl *RateLimiter) getOrCreateLimiter(
	mu *sync.RWMutex,
	limiters map[string]*userLimiter,
	key string,
	limit rate.Limit,
	burst int,
) *rate.Limiter {
	mu.RLock()
	ul, exists := limiters[key]
	mu.RUnlock()

	if exists {
		mu.Lock()
		ul.lastAccess = time.Now()
		mu.Unlock()
		return ul.limiter
	}

	mu.Lock()
	defer mu.Unlock()

	// Double check after acquiring the write lock
	if ul, exists := limiters[key]; exists {
		ul.lastAccess = time.Now()
		return ul.limiter
	}

	limiter := rate.NewLimiter(limit, burst)
	limiters[key] = &userLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// clientKey identifies the caller: the session login when authenticated, the
// client address otherwise.
func clientKey(r *http.Request) string {
	if session, ok := appctx.GetSession(r.Context()); ok {
		return session.UserLogin
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// cleanupLoop periodically drops limiter entries that have gone idle.
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup removes entries idle for more than twice the cleanup interval.
func (rl *RateLimiter) cleanup() {
	ttl := rl.config.CleanupInterval * 2
	now := time.Now()

	rl.generalMu.Lock()
	for key, ul := range rl.generalLimiters {
		if now.Sub(ul.lastAccess) > ttl {
			delete(rl.generalLimiters, key)
		}
	}
	rl.generalMu.Unlock()

	rl.uploadMu.Lock()
	for key, ul := range rl.uploadLimiters {
		if now.Sub(ul.lastAccess) > ttl {
			delete(rl.uploadLimiters, key)
		}
	}
	rl.uploadMu.Unlock()
}

// writeRateLimitResponse writes a 429 with a Retry-After hint estimating when
// the next token becomes available.
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	retryAfterSec := int(math.Ceil(1.0 / float64(r)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	if err := json.NewEncoder(w).Encode(map[string]string{
		"error": "too many requests, please try again later",
	}); err != nil {
		log.Printf("❌ Failed to encode rate limit response: %v", err)
	}
}
