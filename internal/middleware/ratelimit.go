package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	cleanupInterval = 5 * time.Minute
	staleAfter      = 10 * time.Minute
)

// healthCheckPaths are endpoints exempt from rate limiting.
var healthCheckPaths = map[string]bool{
	"/api/v1/health": true,
	"/healthz":       true,
}

type client struct {
	limiter  *rate.Limiter
	mu       sync.Mutex
	lastSeen time.Time
}

// Limiter throttles requests per client IP with a token bucket of the
// configured rate and burst.
type Limiter struct {
	clients sync.Map // IP -> *client
	rate    rate.Limit
	burst   int
	done    chan struct{}
	once    sync.Once
}

// NewLimiter starts a limiter and its cleanup loop. Call Stop to end the
// loop.
func NewLimiter(rps float64, burst int) *Limiter {
	l := &Limiter{
		rate:  rate.Limit(rps),
		burst: burst,
		done:  make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Stop ends the cleanup loop.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.done) })
}

func (l *Limiter) client(ip string) *client {
	val, _ := l.clients.LoadOrStore(ip, &client{
		limiter:  rate.NewLimiter(l.rate, l.burst),
		lastSeen: time.Now(),
	})
	return val.(*client)
}

// allow consumes a token for ip. It returns whether the request may
// proceed, the whole tokens left, and the wait until the next token.
func (l *Limiter) allow(ip string) (bool, int, time.Duration) {
	c := l.client(ip)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.lastSeen = now
	if c.limiter.AllowN(now, 1) {
		return true, int(math.Floor(c.limiter.TokensAt(now))), 0
	}

	deficit := 1 - c.limiter.TokensAt(now)
	wait := time.Duration(deficit / float64(l.rate) * float64(time.Second))
	return false, 0, wait
}

func (l *Limiter) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evict(time.Now().Add(-staleAfter))
		case <-l.done:
			return
		}
	}
}

// evict drops clients idle since before threshold.
func (l *Limiter) evict(threshold time.Time) {
	l.clients.Range(func(key, value any) bool {
		c := value.(*client)
		c.mu.Lock()
		stale := c.lastSeen.Before(threshold)
		c.mu.Unlock()
		if stale {
			l.clients.Delete(key)
		}
		return true
	})
}

// Middleware rejects requests over the limit with 429 and a Retry-After
// header.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthCheckPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		allowed, remaining, wait := l.allow(extractIP(r))

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.burst))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// extractIP retrieves the client IP from the request, preferring
// X-Forwarded-For and X-Real-IP headers (for reverse proxy setups),
// and falling back to RemoteAddr.
func extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Leftmost entry is the original client.
		parts := strings.SplitN(xff, ",", 2)
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
