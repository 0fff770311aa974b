package mw

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// KeyFunc derives the cache key for a request.
type KeyFunc func(c *gin.Context) string

type cachedResponse struct {
	status   int
	headers  http.Header
	body     []byte
	storedAt time.Time
}

// recordingWriter tees the response body so it can be stored after the
// handler chain finishes.
type recordingWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache caches GET responses keyed by request URI.
func Cache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return CacheBy(store, ttl, func(c *gin.Context) string { return c.Request.RequestURI })
}

// CacheBy caches 2xx GET responses under key(c). A key that embeds a data
// version makes stale entries unreachable without flushing the store.
// Responses carry X-Cache (HIT or MISS) and, on hits, Age in seconds.
func CacheBy(store *cache.Cache, ttl time.Duration, key KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		k := key(c)
		if v, ok := store.Get(k); ok {
			serveCached(c, v.(cachedResponse))
			return
		}

		rw := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = rw
		rw.Header().Set("X-Cache", "MISS")
		c.Next()

		status := rw.Status()
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			return
		}
		store.Set(k, cachedResponse{
			status:   status,
			headers:  rw.Header().Clone(),
			body:     bytes.Clone(rw.buf.Bytes()),
			storedAt: time.Now(),
		}, ttl)
	}
}

func serveCached(c *gin.Context, resp cachedResponse) {
	h := c.Writer.Header()
	for name, values := range resp.headers {
		h[name] = values
	}
	h.Set("X-Cache", "HIT")
	h.Set("Age", strconv.Itoa(int(time.Since(resp.storedAt).Seconds())))
	c.Writer.WriteHeader(resp.status)
	_, _ = c.Writer.Write(resp.body)
	c.Abort()
}
