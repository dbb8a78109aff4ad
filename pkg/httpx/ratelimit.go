package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/bearer/pkg/slogx"
	"golang.org/x/time/rate"
)

// Limit allows Requests per Window for a single key, with up to Burst
// requests admitted at once.
type Limit struct {
	Requests int
	Window   time.Duration
	Burst    int
}

// Default profiles. Login attempts are throttled hard to slow down password
// guessing.
var (
	StrictLimit   = Limit{Requests: 5, Window: time.Minute, Burst: 5}
	ModerateLimit = Limit{Requests: 60, Window: time.Minute, Burst: 20}
	PublicLimit   = Limit{Requests: 1000, Window: time.Minute, Burst: 100}

	// AccountLimit caps login attempts per username across all clients.
	AccountLimit = Limit{Requests: 20, Window: 10 * time.Minute, Burst: 10}
)

// Enabled reports whether the limit should be enforced at all.
func (l Limit) Enabled() bool {
	return l.Requests > 0 && l.Window > 0 && l.Burst > 0
}

func (l Limit) every() rate.Limit {
	return rate.Limit(float64(l.Requests) / l.Window.Seconds())
}

// KeyExtractor groups requests for rate limiting. An empty key exempts the
// request.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor returns the peer address of the connection. Forwarding
// headers are ignored; behind a proxy use TrustedProxies.ClientIP.
func IPKeyExtractor(r *http.Request) string {
	return TrustedProxies(nil).ClientIP(r)
}

func SubjectKeyExtractor(r *http.Request) string {
	return SubjectFromContext(r.Context())
}

func FormFieldKeyExtractor(field string) KeyExtractor {
	return func(r *http.Request) string {
		if err := r.ParseForm(); err != nil {
			return ""
		}
		return r.FormValue(field)
	}
}

// CompositeKeyExtractor joins the non-empty keys of extractors with sep.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(extractors))
		for _, ex := range extractors {
			if k := ex(r); k != "" {
				parts = append(parts, k)
			}
		}
		return strings.Join(parts, sep)
	}
}

// idleAfter is how long a key may go unused before its limiter is dropped.
const idleAfter = 10 * time.Minute

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type keyedLimiter struct {
	limit Limit
	now   func() time.Time

	mu          sync.Mutex
	entries     map[string]*limiterEntry
	lastCleanup time.Time
}

func newKeyedLimiter(limit Limit, now func() time.Time) *keyedLimiter {
	return &keyedLimiter{
		limit:       limit,
		now:         now,
		entries:     make(map[string]*limiterEntry),
		lastCleanup: now(),
	}
}

// reserve admits one request for key. When refused it returns how long the
// caller should wait.
func (kl *keyedLimiter) reserve(key string) (bool, time.Duration) {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	now := kl.now()
	if now.Sub(kl.lastCleanup) > idleAfter {
		for k, e := range kl.entries {
			if now.Sub(e.lastSeen) > idleAfter {
				delete(kl.entries, k)
			}
		}
		kl.lastCleanup = now
	}

	e, ok := kl.entries[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(kl.limit.every(), kl.limit.Burst)}
		kl.entries[key] = e
	}
	e.lastSeen = now

	res := e.lim.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// RateLimit throttles requests per key. Rejected requests get 429 with a
// Retry-After hint in whole seconds.
func RateLimit(limit Limit, key KeyExtractor) Middleware {
	return rateLimitAt(limit, key, time.Now)
}

func rateLimitAt(limit Limit, key KeyExtractor, now func() time.Time) Middleware {
	if !limit.Enabled() {
		return func(next http.Handler) http.Handler { return next }
	}
	kl := newKeyedLimiter(limit, now)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			ok, wait := kl.reserve(k)
			if !ok {
				retryAfter := max(int(wait.Round(time.Second)/time.Second), 1)
				slogx.FromContext(r.Context()).Warn("rate limit exceeded",
					"path", r.URL.Path,
					"retry_after", retryAfter,
				)

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
				w.Header().Set("X-RateLimit-Window", limit.Window.String())
				WriteJSON(w, http.StatusTooManyRequests, map[string]string{
					"detail": "Too many requests",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitLogin throttles password guessing twice: perClient keys on the
// client address plus the submitted username, so one noisy client cannot lock
// out everyone behind the same address, and perAccount keys on the username
// alone, so rotating addresses does not buy more guesses.
func RateLimitLogin(perClient, perAccount Limit, clientIP KeyExtractor) Middleware {
	username := FormFieldKeyExtractor("username")
	byClient := RateLimit(perClient, CompositeKeyExtractor(":", clientIP, username))
	byAccount := RateLimit(perAccount, username)

	return func(next http.Handler) http.Handler {
		return byClient(byAccount(next))
	}
}

// RateLimitBySubject keys on the authenticated subject. It must run after the
// session middleware; requests without a subject pass through.
func RateLimitBySubject(limit Limit) Middleware {
	return RateLimit(limit, SubjectKeyExtractor)
}
