package handlers

import (
	"io"
	"net/http"
	"time"

	"barberly/middleware"
	"barberly/services/realtime"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Stream upgrades the request to a server-sent event stream bound to the
// authenticated identity. The connection lives until the client disconnects
// or the hub drops it for falling behind.
func Stream(hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := middleware.StreamClaimsFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated stream"})
			return
		}

		conn := hub.AddConnection(claims.UserID, claims.TenantID, claims.Role)
		defer hub.RemoveConnection(conn.ID)

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		keepAlive := time.NewTicker(hub.KeepAlive)
		defer keepAlive.Stop()

		getLogger(c).Debug("stream opened",
			zap.String("userId", claims.UserID),
			zap.String("tenantId", claims.TenantID),
		)

		c.Stream(func(w io.Writer) bool {
			select {
			case msg, open := <-conn.C:
				if !open {
					return false
				}
				c.SSEvent(msg.Event, msg.Data)
				return true
			case <-keepAlive.C:
				// Comment line keeps idle proxies from timing the stream out.
				io.WriteString(w, ": ping\n\n")
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}
