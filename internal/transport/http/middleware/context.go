package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/arklim/guestbook-api/internal/infra/logger"
	"github.com/arklim/guestbook-api/internal/usecase"
)

const (
	// TraceIDHeader is the HTTP header name for trace ID
	TraceIDHeader = "X-Trace-ID"
	// TraceIDKey is the context key for trace ID
	TraceIDKey = "trace_id"

	requestContextKey = "request_context"
)

// RequestContext holds request-scoped information
type RequestContext struct {
	TraceID   string
	Identity  string
	IP        string
	UserAgent string
}

// EnrichContext assigns a trace id and records caller metadata. The id comes from the active
// span when tracing is on, then from X-Trace-ID, and is generated otherwise.
func EnrichContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := ""
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			traceID = sc.TraceID().String()
		}
		if traceID == "" {
			traceID = c.GetHeader(TraceIDHeader)
		}
		if traceID == "" {
			traceID = uuid.NewString()
		}

		c.Set(TraceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)

		ip := c.ClientIP()
		c.Set(requestContextKey, &RequestContext{
			TraceID:   traceID,
			IP:        ip,
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(usecase.WithClientIP(c.Request.Context(), logger.MaskIP(ip)))

		c.Next()
	}
}

// GetTraceID retrieves the trace ID from the context
func GetTraceID(c *gin.Context) string {
	if traceID, exists := c.Get(TraceIDKey); exists {
		if id, ok := traceID.(string); ok {
			return id
		}
	}
	return ""
}

// GetRequestContext retrieves the full request context
func GetRequestContext(c *gin.Context) *RequestContext {
	if ctx, exists := c.Get(requestContextKey); exists {
		if reqCtx, ok := ctx.(*RequestContext); ok {
			return reqCtx
		}
	}
	return &RequestContext{}
}
