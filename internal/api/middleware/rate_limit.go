package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// maxTrackedClients bounds the per-client buckets; the least recently seen
// client is evicted first.
const maxTrackedClients = 10000

// RateLimiter holds one token bucket per client IP
type RateLimiter struct {
	limiters *lru.Cache[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
	trusted  []netip.Prefix
}

// NewRateLimiter allows perMinute requests per IP with the given burst.
// A non-positive perMinute disables limiting. X-Forwarded-For is only
// honored when the connection comes from one of trustedProxies (IPs or
// CIDRs); otherwise the client is the connection's remote address.
func NewRateLimiter(perMinute, burst int, trustedProxies ...string) *RateLimiter {
	limiters, _ := lru.New[string, *rate.Limiter](maxTrackedClients)
	l := &RateLimiter{
		limiters: limiters,
		limit:    rate.Inf,
		burst:    burst,
		trusted:  parseTrustedProxies(trustedProxies),
	}
	if perMinute > 0 {
		l.limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	if l.burst <= 0 {
		l.burst = max(perMinute, 1)
	}
	return l
}

func parseTrustedProxies(values []string) []netip.Prefix {
	var out []netip.Prefix
	for _, raw := range values {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if prefix, err := netip.ParsePrefix(raw); err == nil {
			out = append(out, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			log.Warn().Str("value", raw).Msg("ignoring invalid trusted proxy")
			continue
		}
		out = append(out, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}
	return out
}

func (l *RateLimiter) limiterFor(ip string) *rate.Limiter {
	if limiter, ok := l.limiters.Get(ip); ok {
		return limiter
	}
	limiter := rate.NewLimiter(l.limit, l.burst)
	// a concurrent first request from the same client may win the race
	if existing, ok, _ := l.limiters.PeekOrAdd(ip, limiter); ok {
		return existing
	}
	return limiter
}

// Middleware rejects requests over the per-IP budget with 429
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := l.clientIP(r)
		if !l.limiterFor(ip).Allow() {
			log.Warn().Str("ip", ip).Str("path", r.URL.Path).Msg("rate limit exceeded")
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limit exceeded, try again later"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the remote address, or, behind a trusted proxy, the
// right-most X-Forwarded-For hop that is not itself a trusted proxy.
func (l *RateLimiter) clientIP(r *http.Request) string {
	remote := r.RemoteAddr
	if host, _, err := net.SplitHostPort(remote); err == nil {
		remote = host
	}
	if !l.isTrusted(remote) {
		return remote
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !l.isTrusted(hop) {
			return hop
		}
	}
	return remote
}

func (l *RateLimiter) isTrusted(ip string) bool {
	if len(l.trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range l.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
