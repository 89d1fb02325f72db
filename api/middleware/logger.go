package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/scalemesh/coordinator/internal/logger"
)

const TraceIDHeader = "X-Trace-ID"

const traceIDKey = "trace_id"

// RequestLogger tags every request with a trace ID, echoed in the
// response header and minted when the caller sent none, then writes one
// structured completion line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}
		c.Set(traceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)

		c.Next()

		status := c.Writer.Status()
		fields := map[string]interface{}{
			"status":      status,
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
			traceIDKey:    traceID,
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields["query"] = q
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		entry := logger.WithFields(fields)
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request served")
		}
	}
}

// GetTraceID returns the request's trace ID, or "" before RequestLogger
// has run.
func GetTraceID(c *gin.Context) string {
	if v, ok := c.Get(traceIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
