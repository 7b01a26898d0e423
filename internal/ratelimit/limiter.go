// Package ratelimit guards the service's own endpoints with a fixed-window
// counter per client identity. State is process local and lost on restart.
package ratelimit

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// DefaultSweepThreshold is the bucket count above which expired buckets are
// swept on the next check.
const DefaultSweepThreshold = 5000

// UnknownClient is the identity used when no forwarding header is present.
const UnknownClient = "unknown"

// IdentityHeaders are consulted in order; the first populated one wins.
var IdentityHeaders = []string{
	"CF-Connecting-IP",
	"X-Real-IP",
	"X-Forwarded-For",
	"X-Client-IP",
}

type Result struct {
	OK        bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type bucket struct {
	count   int
	resetAt time.Time
}

type Limiter struct {
	mu             sync.Mutex
	buckets        map[string]*bucket
	now            func() time.Time
	sweepThreshold int
}

type Option func(*Limiter)

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

func WithSweepThreshold(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.sweepThreshold = n
		}
	}
}

func New(opts ...Option) *Limiter {
	l := &Limiter{
		buckets:        make(map[string]*bucket),
		now:            time.Now,
		sweepThreshold: DefaultSweepThreshold,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check counts one request for identity in scope. The count keeps growing
// past limit within a window; Remaining saturates at zero.
func (l *Limiter) Check(identity string, limit int, window time.Duration, scope string) Result {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	key := scope + ":" + identity
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.buckets) > l.sweepThreshold {
		l.sweep(now)
	}

	b, ok := l.buckets[key]
	if !ok || now.After(b.resetAt) {
		b = &bucket{resetAt: now.Add(window)}
		l.buckets[key] = b
	}
	b.count++

	remaining := limit - b.count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		OK:        b.count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   b.resetAt,
	}
}

// Len reports how many buckets are held.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Reset drops every bucket.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buckets = make(map[string]*bucket)
}

func (l *Limiter) sweep(now time.Time) {
	for k, b := range l.buckets {
		if now.After(b.resetAt) {
			delete(l.buckets, k)
		}
	}
}

// ClientIdentity derives a best-effort client address from forwarding
// headers. It is not authenticated.
func ClientIdentity(h http.Header) string {
	for _, name := range IdentityHeaders {
		v := strings.TrimSpace(h.Get(name))
		if v == "" {
			continue
		}
		if i := strings.IndexByte(v, ','); i >= 0 {
			v = strings.TrimSpace(v[:i])
		}
		if v != "" {
			return v
		}
	}
	return UnknownClient
}
