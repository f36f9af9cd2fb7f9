package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// idleBucketTTL is how long an unused client bucket is kept.
const idleBucketTTL = 10 * time.Minute

// RateLimiter is a per-client token bucket. Clients are keyed by remote
// host, so every port of one machine shares a bucket.
type RateLimiter struct {
	buckets sync.Map // map[string]*bucket
	stop    chan struct{}
	once    sync.Once
	now     func() time.Time
}

type bucket struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewRateLimiter creates a rate limiter that evicts idle buckets every
// cleanupInterval. Call Stop on shutdown.
func NewRateLimiter(cleanupInterval time.Duration) *RateLimiter {
	rl := &RateLimiter{stop: make(chan struct{}), now: time.Now}
	go rl.cleanup(cleanupInterval)
	return rl
}

// Stop terminates the background cleanup goroutine. It is safe to call
// more than once.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// Limit returns middleware that allows maxPerMinute requests per client.
// A non-positive limit disables limiting.
func (rl *RateLimiter) Limit(maxPerMinute int) Middleware {
	return func(next http.Handler) http.Handler {
		if maxPerMinute <= 0 {
			return next
		}
		retryAfter := strconv.Itoa(60/maxPerMinute + 1)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.bucketFor(clientKey(r), maxPerMinute).allow(rl.now()) {
				w.Header().Set("Retry-After", retryAfter)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rl *RateLimiter) bucketFor(key string, maxPerMinute int) *bucket {
	if v, ok := rl.buckets.Load(key); ok {
		return v.(*bucket)
	}
	maxTokens := float64(maxPerMinute)
	v, _ := rl.buckets.LoadOrStore(key, &bucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: maxTokens / 60.0,
		lastRefill: rl.now(),
	})
	return v.(*bucket)
}

func (b *bucket) allow(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if elapsed := now.Sub(b.lastRefill).Seconds(); elapsed > 0 {
		b.tokens = min(b.maxTokens, b.tokens+elapsed*b.refillRate)
	}
	b.lastRefill = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (rl *RateLimiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			now := rl.now()
			rl.buckets.Range(func(key, value any) bool {
				b := value.(*bucket)
				b.mu.Lock()
				idle := now.Sub(b.lastRefill)
				b.mu.Unlock()
				if idle > idleBucketTTL {
					rl.buckets.Delete(key)
				}
				return true
			})
		}
	}
}
