package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowMethods  = "GET,POST,OPTIONS"
	corsAllowHeaders  = "Origin,Content-Type,Accept,Authorization,X-Request-ID,X-Trace-ID"
	corsExposeHeaders = "X-Request-ID,X-Trace-ID,Retry-After,X-RateLimit-Limit,X-RateLimit-Remaining,X-RateLimit-Reset"
)

// CORS adds Cross-Origin Resource Sharing headers to responses.
// A "*" entry allows any origin without credentials; listed origins are echoed back with credentials.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	origins := make(map[string]bool, len(allowedOrigins))
	allowAll := false

	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			allowAll = true
			continue
		}
		if origin != "" {
			origins[origin] = true
		}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		headers := c.Writer.Header()

		switch {
		case origin != "" && origins[origin]:
			headers.Set("Access-Control-Allow-Origin", origin)
			headers.Set("Access-Control-Allow-Credentials", "true")
			headers.Add("Vary", "Origin")
		case allowAll:
			headers.Set("Access-Control-Allow-Origin", "*")
		}
		if headers.Get("Access-Control-Allow-Origin") != "" {
			headers.Set("Access-Control-Expose-Headers", corsExposeHeaders)
		}

		if c.Request.Method == http.MethodOptions && c.Request.Header.Get("Access-Control-Request-Method") != "" {
			headers.Set("Access-Control-Allow-Methods", corsAllowMethods)
			headers.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			headers.Set("Access-Control-Max-Age", "86400")

			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
