package middleware

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yatube/yatube/pkg/cache"
	"github.com/yatube/yatube/pkg/logger"
)

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CachePage serves GET responses from pages, keyed by the request URI.
// Until the entry expires the exact bytes first rendered are replayed,
// whatever has changed since. Only 200 responses are stored. Cache
// failures are logged and the request is rendered normally.
func CachePage(pages *cache.PageCache, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := c.Request.URL.RequestURI()

		entry, err := pages.Get(ctx, key)
		if err != nil {
			log.WithError(err).WithField("key", key).Warn("Failed to read page cache")
		}
		if entry != nil {
			c.Header("X-Cache", "HIT")
			c.Data(entry.Status, entry.ContentType, entry.Body)
			c.Abort()
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Header("X-Cache", "MISS")
		c.Next()

		if recorder.Status() != http.StatusOK {
			return
		}
		contentType := recorder.Header().Get("Content-Type")
		if _, err := pages.Set(ctx, key, http.StatusOK, contentType, recorder.body.Bytes()); err != nil {
			log.WithError(err).WithField("key", key).Warn("Failed to write page cache")
		}
	}
}
