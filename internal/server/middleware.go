package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Logging logs one line per request with method, path, status and duration.
func Logging(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logFn := logger.Info
			switch {
			case rec.status >= 500:
				logFn = logger.Error
			case rec.status >= 400:
				logFn = logger.Warn
			}
			logFn("request", "method", r.Method, "path", r.URL.Path, "status", rec.status,
				"duration", time.Since(start), "client", clientIP(r, false), "forwarded_for", r.Header.Get("X-Forwarded-For"))
		})
	}
}

// Recover turns a handler panic into a 500 response.
func Recover(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						panic(v)
					}
					logger.Error("handler panic", "method", r.Method, "path", r.URL.Path, "panic", v)
					writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Limits configures per-client rate limiting. A non-positive Rate disables limiting.
//
// Clients are keyed by remote address unless TrustProxy is set, in which case the first
// X-Forwarded-For hop is used. Only set it behind a proxy that overwrites that header.
type Limits struct {
	Rate       float64 // requests per second
	Burst      int
	TrustProxy bool
}

// visitorTTL is how long an idle client's limiter is kept.
const visitorTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter hands out one token bucket per client address.
type clientLimiter struct {
	mu        sync.Mutex
	limits    Limits
	visitors  map[string]*visitor
	lastSweep time.Time
	now       func() time.Time
}

func newClientLimiter(limits Limits) *clientLimiter {
	if limits.Burst <= 0 {
		limits.Burst = 1
	}
	return &clientLimiter{limits: limits, visitors: map[string]*visitor{}, now: time.Now}
}

func (c *clientLimiter) allow(client string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastSweep) > visitorTTL {
		for key, v := range c.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(c.visitors, key)
			}
		}
		c.lastSweep = now
	}

	v, ok := c.visitors[client]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(c.limits.Rate), c.limits.Burst)}
		c.visitors[client] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// RateLimit rejects requests from a client that exceeds limits with 429.
func RateLimit(limits Limits) Middleware {
	if limits.Rate <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	limiter := newClientLimiter(limits)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.allow(clientIP(r, limits.TrustProxy)) {
				w.Header().Set("Retry-After", retryAfter(limits.Rate))
				writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many submissions, slow down"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// retryAfter is the whole number of seconds until one token refills.
func retryAfter(perSecond float64) string {
	return strconv.Itoa(max(int(math.Ceil(1/perSecond)), 1))
}

// clientIP returns the request's client address. The first X-Forwarded-For hop is used
// only when trustProxy is set.
func clientIP(r *http.Request, trustProxy bool) string {
	if fwd := r.Header.Get("X-Forwarded-For"); trustProxy && fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
