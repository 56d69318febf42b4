package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xxxsen/common/trace"
)

const (
	HeaderRequestID     = "X-Request-Id"
	ContextRequestIDKey = "request_id"
)

// RequestID keeps a caller supplied X-Request-Id, else the trace id already
// on the request, else a new one. The id becomes the request context's trace
// id so that logutil.GetLogger tags every log line with it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id, _ = trace.GetTraceId(ctx)
		}
		if id == "" {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(trace.WithTraceId(ctx, id))
		c.Set(ContextRequestIDKey, id)
		c.Writer.Header().Set(HeaderRequestID, id)
		c.Next()
	}
}
