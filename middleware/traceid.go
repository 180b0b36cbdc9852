package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// TraceIDKey is the gin context key holding the request trace ID.
	TraceIDKey = "trace_id"
	// TraceIDHeader carries the trace ID on requests and responses.
	TraceIDHeader = "X-Trace-ID"
)

// TraceID tags every request with a trace ID, honoring one supplied by
// the caller and minting a UUID otherwise. The ID is echoed on the
// response header and picked up by Logger and the audit trail.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(TraceIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(TraceIDKey, id)
		c.Header(TraceIDHeader, id)
		c.Next()
	}
}

// GetTraceID returns the request's trace ID, or "" outside TraceID.
func GetTraceID(c *gin.Context) string {
	return c.GetString(TraceIDKey)
}
