package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// BearerAuth validates the Authorization header against a set of accepted
// tokens. The card-extraction endpoint is authenticated this way: callers
// present an identity token scoped to this service.
func BearerAuth(validTokens []string) gin.HandlerFunc {
	// map[string]struct{} as a set — struct{} takes zero bytes.
	tokenSet := make(map[string]struct{}, len(validTokens))
	for _, t := range validTokens {
		tokenSet[t] = struct{}{}
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing bearer token",
			})
			return
		}

		if _, ok := tokenSet[token]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "invalid bearer token",
			})
			return
		}

		c.Next()
	}
}
