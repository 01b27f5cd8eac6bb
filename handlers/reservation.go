package handlers

import (
	"net/http"

	"barberly/models"
	"barberly/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type createReservationInput struct {
	TenantID  string            `json:"tenantId" binding:"required"`
	BarberID  string            `json:"barberId" binding:"required"`
	ServiceID string            `json:"serviceId" binding:"required"`
	Client    models.ClientInfo `json:"client"`
	Date      string            `json:"date" binding:"required"`
	StartTime string            `json:"startTime" binding:"required"`
}

// CreateReservation claims a slot. A 409 means the slot was taken by a
// concurrent writer; the client should pick another slot or join the waiting
// list.
func CreateReservation(engine booking.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input createReservationInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
			return
		}

		res, err := engine.CreateReservation(c.Request.Context(), booking.CreateRequest{
			TenantID:  input.TenantID,
			BarberID:  input.BarberID,
			ServiceID: input.ServiceID,
			Client:    input.Client,
			Date:      input.Date,
			StartTime: input.StartTime,
		})
		if err != nil {
			respondBookingError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"reservation": res})
	}
}

// CancelReservation transitions a reservation to cancelled, freeing its slot.
func CancelReservation(engine booking.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := engine.CancelReservation(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondBookingError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"reservation": res})
	}
}

// CompleteReservation transitions a reservation to completed. The slot stays
// blocked for its original time.
func CompleteReservation(engine booking.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := engine.CompleteReservation(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondBookingError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"reservation": res})
	}
}

func respondBookingError(c *gin.Context, err error) {
	code := booking.ErrorCode(err)
	status := http.StatusInternalServerError
	switch code {
	case booking.CodeSlotConflict, booking.CodeInvalidState:
		status = http.StatusConflict
	case booking.CodeNotFound:
		status = http.StatusNotFound
	case booking.CodeValidation:
		status = http.StatusBadRequest
	default:
		getLogger(c).Error("reservation request failed", zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}
