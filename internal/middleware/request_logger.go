package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/psyflow/backend-go/internal/dispatch"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestLogger assigns every request an id, exposes it to the dispatch
// layer through the request context and logs the outcome.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = dispatch.NewRequestID()
		}
		c.Header(RequestIDHeader, reqID)
		c.Request = c.Request.WithContext(dispatch.WithRequestID(c.Request.Context(), reqID))

		c.Next()

		attrs := []any{
			"request_id", reqID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		}

		switch {
		case c.Writer.Status() >= 500:
			logger.Error("❌ [HTTP] Request failed", attrs...)
		case c.Writer.Status() >= 400:
			logger.Warn("⚠️ [HTTP] Request rejected", attrs...)
		default:
			logger.Info("🌐 [HTTP] Request served", attrs...)
		}
	}
}
