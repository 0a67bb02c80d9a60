package mcp

import (
	"crypto/subtle"
	"encoding/json"
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
	defaultMaxBodyBytes int64 = 1 << 20 // 1MiB
	defaultRatePerMin         = 60
	idleClientTTL             = 10 * time.Minute
)

// HTTPHandlerConfig guards the streamable HTTP transport. RateLimitPerMin is
// per client address.
type HTTPHandlerConfig struct {
	AuthToken       string
	RateLimitPerMin int
	MaxBodyBytes    int64
}

func wrapHTTPHandler(base http.Handler, cfg HTTPHandlerConfig) http.Handler {
	limiter := newClientLimiter(cfg.RateLimitPerMin, time.Now)
	return requireBearer(cfg.AuthToken, limitRate(limiter, limitBody(cfg.MaxBodyBytes, base)))
}

func requireBearer(token string, next http.Handler) http.Handler {
	want := []byte(token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, provided, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			w.Header().Set("WWW-Authenticate", `Bearer realm="perp-trader-mcp"`)
			writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		provided = strings.TrimSpace(provided)
		if len(want) == 0 || subtle.ConstantTimeCompare([]byte(provided), want) != 1 {
			writeJSONError(w, http.StatusForbidden, "invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func limitBody(limit int64, next http.Handler) http.Handler {
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > limit {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}
		next.ServeHTTP(w, r)
	})
}

func limitRate(limiter *clientLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wait, ok := limiter.allow(clientAddr(r)); !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientAddr keys the limiter by remote host. All callers present the same
// token, so it does not distinguish them.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		host = strings.TrimSpace(r.RemoteAddr)
	}
	if host == "" {
		return "unknown"
	}
	return host
}

type clientBucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// clientLimiter keeps one token bucket per client and forgets clients idle
// for longer than idleClientTTL.
type clientLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	now       func() time.Time
	clients   map[string]*clientBucket
	lastSweep time.Time
}

func newClientLimiter(perMin int, now func() time.Time) *clientLimiter {
	if perMin <= 0 {
		perMin = defaultRatePerMin
	}
	return &clientLimiter{
		limit:   rate.Limit(float64(perMin) / 60.0),
		burst:   perMin,
		now:     now,
		clients: make(map[string]*clientBucket),
	}
}

// allow spends one token for key. A refused call reports how long until the
// next token frees up.
func (l *clientLimiter) allow(key string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.clients[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = b
	}
	b.seen = now

	res := b.limiter.ReserveN(now, 1)
	if !res.OK() {
		return time.Minute, false
	}
	if wait := res.DelayFrom(now); wait > 0 {
		res.CancelAt(now)
		return wait, false
	}
	return 0, true
}

func (l *clientLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < idleClientTTL {
		return
	}
	l.lastSweep = now
	for key, b := range l.clients {
		if now.Sub(b.seen) > idleClientTTL {
			delete(l.clients, key)
		}
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
