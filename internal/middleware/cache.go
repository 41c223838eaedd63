package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/student-records-api/internal/service"
)

type cachingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *cachingWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

// Cache serves directory-style GET responses from Redis. Only responses
// that are identical for every authenticated caller should sit behind
// it; scoped listings must never be cached by URL alone.
func Cache(client *redis.Client, metricsSvc *service.MetricsService, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := "records:http:" + c.Request.URL.RequestURI()
		start := time.Now()
		cached, err := client.Get(c.Request.Context(), key).Bytes()
		if metricsSvc != nil {
			metricsSvc.RecordCacheOperation(err == nil, time.Since(start))
		}
		if err == nil {
			c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
			c.Abort()
			return
		}

		writer := &cachingWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Next()

		if c.Writer.Status() == http.StatusOK && writer.body.Len() > 0 {
			_ = client.Set(c.Request.Context(), key, writer.body.Bytes(), ttl).Err()
		}
	}
}

// InvalidateCache drops every cached response under the given URL prefix.
// Mounted on the mutating routes of a cached directory.
func InvalidateCache(client *redis.Client, prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if client == nil || c.Writer.Status() >= 400 {
			return
		}
		ctx := c.Request.Context()
		iter := client.Scan(ctx, 0, "records:http:"+prefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			_ = client.Del(ctx, iter.Val()).Err()
		}
	}
}
