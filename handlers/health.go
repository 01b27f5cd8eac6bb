package handlers

import (
	"net/http"

	"barberly/utils"

	"github.com/gin-gonic/gin"
)

// Health reports process liveness plus dependency state: the periodic
// mongo/redis probe and live snapshots of the registered circuit breakers.
func Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":       "ok",
			"dependencies": utils.GetHealthStatus(),
		})
	}
}
