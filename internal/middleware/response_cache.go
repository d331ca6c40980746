package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cinematch/backend/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const responseCacheName = "response_cache"

// ResponseCacheMiddleware caches successful public GET responses for ttl.
// It adds X-Cache: HIT/MISS. Only 2xx bodies are stored.
func ResponseCacheMiddleware(cm *CacheManager, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || cm == nil {
			c.Next()
			return
		}

		cacheKey := generateCacheKey(c.Request.URL.Path, c.Request.URL.Query())
		ctx := c.Request.Context()
		maxAge := fmt.Sprintf("public, max-age=%d", int(ttl.Seconds()))

		if cached, ok, _ := cm.GetCached(ctx, cacheKey); ok {
			RecordCacheHit(responseCacheName)
			c.Header("X-Cache", "HIT")
			c.Header("Cache-Control", maxAge)
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
			c.Abort()
			return
		}
		RecordCacheMiss(responseCacheName)

		writer := &cachedResponseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer
		c.Header("X-Cache", "MISS")

		c.Next()

		status := writer.Status()
		if status < 200 || status >= 300 || writer.body.Len() == 0 {
			return
		}
		if err := cm.SetCached(ctx, cacheKey, writer.body.String(), ttl); err != nil {
			logger.Log.Debug("Failed to write response to cache", zap.String("key", cacheKey), zap.Error(err))
		}
	}
}

// generateCacheKey builds response:{path}:{sorted query}
func generateCacheKey(path string, query map[string][]string) string {
	if len(query) == 0 {
		return CacheKey("response", path)
	}
	parts := make([]string, 0, len(query))
	for k, vs := range query {
		for _, v := range vs {
			parts = append(parts, k+"="+v)
		}
	}
	sort.Strings(parts)
	return CacheKey("response", path, strings.Join(parts, "&"))
}

// cachedResponseWriter captures the body so it can be stored
type cachedResponseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *cachedResponseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *cachedResponseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
