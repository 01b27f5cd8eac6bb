package handlers

import (
	"net/http"
	"strconv"

	deliveryRepo "barberly/database/repository/delivery"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListDeliveries returns the most recent delivery log rows for a tenant.
func ListDeliveries(repo deliveryRepo.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.Query("tenantId")
		if tenantID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tenantId query parameter is required"})
			return
		}

		var limit int64
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || parsed <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = parsed
		}

		records, err := repo.ListByTenant(c.Request.Context(), tenantID, limit)
		if err != nil {
			getLogger(c).Error("failed to list deliveries", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deliveries": records})
	}
}
