package handlers

import (
	"net/http"

	"barberly/models"
	"barberly/services/booking"
	"barberly/services/waitinglist"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type joinWaitingListInput struct {
	TenantID  string            `json:"tenantId" binding:"required"`
	BarberID  string            `json:"barberId"`
	ServiceID string            `json:"serviceId" binding:"required"`
	Client    models.ClientInfo `json:"client"`

	PreferredDate     string   `json:"preferredDate" binding:"required"`
	PreferredTimeFrom string   `json:"preferredTimeFrom" binding:"required"`
	PreferredTimeTo   string   `json:"preferredTimeTo" binding:"required"`
	PreferredWeekdays []string `json:"preferredWeekdays"`
}

// JoinWaitingList enqueues a client for an occupied slot and returns their
// FIFO position.
func JoinWaitingList(engine *waitinglist.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input joinWaitingListInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
			return
		}

		entry, position, err := engine.Join(c.Request.Context(), waitinglist.JoinRequest{
			TenantID:          input.TenantID,
			BarberID:          input.BarberID,
			ServiceID:         input.ServiceID,
			Client:            input.Client,
			PreferredDate:     input.PreferredDate,
			PreferredTimeFrom: input.PreferredTimeFrom,
			PreferredTimeTo:   input.PreferredTimeTo,
			PreferredWeekdays: input.PreferredWeekdays,
		})
		if err != nil {
			if booking.ErrorCode(err) == booking.CodeValidation {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			getLogger(c).Error("waiting list join failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"entry": entry, "position": position})
	}
}

// ConvertWaitingList redeems a confirmation token for the offered slot. 410
// marks an expired token, 409 a slot that was taken before redemption.
func ConvertWaitingList(engine *waitinglist.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := engine.Convert(c.Request.Context(), c.Param("token"))
		if err != nil {
			switch err {
			case waitinglist.ErrTokenInvalid:
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			case waitinglist.ErrTokenExpired:
				c.JSON(http.StatusGone, gin.H{"error": err.Error()})
			case waitinglist.ErrSlotUnavailable:
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			default:
				if booking.ErrorCode(err) != "" {
					respondBookingError(c, err)
					return
				}
				getLogger(c).Error("waiting list conversion failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
			return
		}
		c.JSON(http.StatusCreated, gin.H{"reservation": res})
	}
}
