// Package middleware contains Gin middleware functions.
// Middleware in Gin is a handler that runs before (or after) your route
// handler. It calls c.Next() to proceed or c.Abort() to stop the chain.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS sets wildcard Cross-Origin Resource Sharing headers. The query API
// is intentionally public — any frontend origin may call it — so the
// allow-origin is "*" rather than a configured allowlist. Preflight
// OPTIONS requests get the full header set and a 204.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")

		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, X-Prompt, Authorization")
			c.Header("Access-Control-Max-Age", "3600")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
