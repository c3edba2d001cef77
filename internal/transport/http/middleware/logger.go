package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appLogger "github.com/arklim/guestbook-api/internal/infra/logger"
)

// Logger emits access logs for every HTTP request with correlation identifiers and masked PII.
// Server errors log at error level, client errors at warn.
func Logger(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		fields := []zap.Field{
			zap.String("trace_id", GetTraceID(c)),
			zap.String("request_id", appLogger.RequestIDFromContext(c.Request.Context())),
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("path", c.Request.URL.Path),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", appLogger.MaskIP(c.ClientIP())),
		}

		if identity, ok := GetIdentity(c); ok {
			fields = append(fields, zap.String("identity", identity.String()))
		}
		if ua := c.Request.UserAgent(); ua != "" {
			fields = append(fields, zap.String("user_agent", ua))
		}

		switch {
		case len(c.Errors) > 0 || status >= 500:
			if len(c.Errors) > 0 {
				fields = append(fields, zap.String("errors", c.Errors.String()))
			}
			log.Error("request failed", fields...)
		case status >= 400:
			log.Warn("request rejected", fields...)
		default:
			log.Info("request completed", fields...)
		}
	}
}
