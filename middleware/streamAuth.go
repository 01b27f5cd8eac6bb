package middleware

import (
	"net/http"

	"barberly/utils"

	"github.com/gin-gonic/gin"
)

const streamClaimsKey = "streamClaims"

// StreamAuthMiddleware authenticates the SSE endpoint. EventSource clients
// cannot set headers, so the token travels as a query parameter.
func StreamAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing stream token"})
			return
		}

		claims, err := utils.ValidateStreamToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid stream token"})
			return
		}

		c.Set(streamClaimsKey, claims)
		c.Next()
	}
}

// StreamClaimsFrom extracts the authenticated stream identity set by
// StreamAuthMiddleware.
func StreamClaimsFrom(c *gin.Context) (*utils.StreamClaims, bool) {
	v, ok := c.Get(streamClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*utils.StreamClaims)
	return claims, ok
}
