package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// CacheKey derives the cache entry a request reads and writes.
type CacheKey func(c *gin.Context) string

// QueryKey keys on the path plus the query string with its parameters sorted,
// so ?a=1&b=2 and ?b=2&a=1 share an entry.
func QueryKey(c *gin.Context) string {
	q := c.Request.URL.Query()
	if len(q) == 0 {
		return c.Request.URL.Path
	}
	return c.Request.URL.Path + "?" + q.Encode()
}

type cachedResponse struct {
	status      int
	contentType string
	body        []byte
}

// recorder tees the body into buf while it goes out to the client.
type recorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (r *recorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *recorder) WriteString(s string) (int, error) {
	r.buf.WriteString(s)
	return r.ResponseWriter.WriteString(s)
}

// Cache serves GET responses from store for ttl. Only 2xx answers are kept;
// X-Cache tells HIT from MISS. Callers that change the underlying data flush store.
func Cache(store *cache.Cache, ttl time.Duration, key CacheKey) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		k := key(c)
		if v, found := store.Get(k); found {
			hit := v.(cachedResponse)
			c.Header("X-Cache", "HIT")
			c.Data(hit.status, hit.contentType, hit.body)
			c.Abort()
			return
		}

		c.Header("X-Cache", "MISS")
		rec := &recorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		if status := rec.Status(); status >= http.StatusOK && status < http.StatusMultipleChoices {
			store.Set(k, cachedResponse{
				status:      status,
				contentType: rec.Header().Get("Content-Type"),
				body:        bytes.Clone(rec.buf.Bytes()),
			}, ttl)
		}
	}
}
