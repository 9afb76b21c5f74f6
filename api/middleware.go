package api

import (
	"context"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// KeyValidator reports whether an API key is active.
type KeyValidator interface {
	ValidateAPIKey(ctx context.Context, key string, now time.Time) bool
}

type RateLimiter struct {
	requests map[string]*ClientRequests
	mu       sync.Mutex
	max      int
	window   time.Duration
	keys     KeyValidator
	now      func() time.Time
}

type ClientRequests struct {
	count    int
	lastSeen time.Time
}

const windowDuration = time.Minute * 5

// NewRateLimiter allows max requests per client address in each window.
// Requests carrying a valid API key bypass the limit.
func NewRateLimiter(max int, keys KeyValidator) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string]*ClientRequests),
		max:      max,
		window:   windowDuration,
		keys:     keys,
		now:      time.Now,
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check for API key in Authorization header
		apiKey := r.Header.Get("Authorization")
		if apiKey != "" && l.keys != nil && l.keys.ValidateAPIKey(r.Context(), apiKey, l.now()) {
			next.ServeHTTP(w, r)
			return
		}

		clientIP := r.RemoteAddr
		if host, _, err := net.SplitHostPort(clientIP); err == nil {
			clientIP = host
		}

		l.mu.Lock()
		now := l.now()
		for ip, req := range l.requests {
			if now.Sub(req.lastSeen) > l.window {
				delete(l.requests, ip)
			}
		}

		client, exists := l.requests[clientIP]
		if !exists {
			client = &ClientRequests{lastSeen: now}
			l.requests[clientIP] = client
		}

		// Check if window has expired
		if now.Sub(client.lastSeen) > l.window {
			client.count = 0
			client.lastSeen = now
		}

		reset := time.Unix(client.lastSeen.Add(l.window).Unix(), 0).Format(time.RFC3339)
		if client.count >= l.max {
			l.mu.Unlock()
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.max))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", reset)
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		client.count++
		client.lastSeen = now
		remaining := l.max - client.count
		l.mu.Unlock()

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.max))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", reset)

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger tags each request with an X-Request-ID and logs its outcome.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		log.Printf("[HTTP] %s %s %d %s id=%s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond), id)
	})
}
