package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/therapistdirectory/internal/domain/providers"
)

const suggestCacheTTLSeconds = 180

// CacheMiddleware serves repeated typeahead lookups from the shared cache.
// Only exact paths listed in ttls are cached; the listing route is not one
// of them, so ranked result pages always hit the store.
type CacheMiddleware struct {
	cache providers.CacheProvider
	ttls  map[string]int
}

// NewCacheMiddleware creates a cache middleware for the suggest route
func NewCacheMiddleware(cache providers.CacheProvider) *CacheMiddleware {
	return &CacheMiddleware{
		cache: cache,
		ttls: map[string]int{
			"/api/therapists/suggest": suggestCacheTTLSeconds,
		},
	}
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ttl, ok := m.ttls[r.URL.Path]
		if !ok || r.Method != http.MethodGet || m.cache == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := responseCacheKey(r.URL.Path, r.URL.Query())
		if body, err := m.cache.Get(r.Context(), key); err == nil {
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(body)
			return
		}

		w.Header().Set("X-Cache", "MISS")
		capture := &bodyCapture{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(capture, r)

		if capture.status != http.StatusOK || capture.buf.Len() == 0 {
			return
		}
		if err := m.cache.Set(r.Context(), key, capture.buf.Bytes(), ttl); err != nil {
			log.Warn().Err(err).Str("path", r.URL.Path).Msg("failed to cache response")
		}
	})
}

// responseCacheKey hashes the path and the query with case-folded, trimmed
// values so "?q=An" and "?q=an " share an entry.
func responseCacheKey(path string, query url.Values) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(path)
	for _, k := range keys {
		for _, v := range query[k] {
			b.WriteString("|")
			b.WriteString(k)
			b.WriteString("=")
			b.WriteString(strings.ToLower(strings.TrimSpace(v)))
		}
	}

	sum := sha256.Sum256([]byte(b.String()))
	return "http:" + hex.EncodeToString(sum[:])
}

type bodyCapture struct {
	http.ResponseWriter
	status      int
	buf         bytes.Buffer
	wroteHeader bool
}

func (c *bodyCapture) WriteHeader(status int) {
	if c.wroteHeader {
		return
	}
	c.wroteHeader = true
	c.status = status
	c.ResponseWriter.WriteHeader(status)
}

func (c *bodyCapture) Write(p []byte) (int, error) {
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	c.buf.Write(p)
	return c.ResponseWriter.Write(p)
}
