package handlers

import (
	deliveryRepo "barberly/database/repository/delivery"
	"barberly/services/booking"
	"barberly/services/realtime"
	"barberly/services/waitinglist"

	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Reservation endpoints
	CreateReservationHandler   gin.HandlerFunc
	CancelReservationHandler   gin.HandlerFunc
	CompleteReservationHandler gin.HandlerFunc

	// Waiting list endpoints
	JoinWaitingListHandler    gin.HandlerFunc
	ConvertWaitingListHandler gin.HandlerFunc

	// Realtime and observability endpoints
	StreamHandler         gin.HandlerFunc
	ListDeliveriesHandler gin.HandlerFunc
	HealthHandler         gin.HandlerFunc
}

// NewHandlerBundle wires every handler against its service.
func NewHandlerBundle(
	bookingEngine booking.Engine,
	waitingList *waitinglist.Engine,
	hub *realtime.Hub,
	deliveries deliveryRepo.Repository,
) *HandlerBundle {
	return &HandlerBundle{
		CreateReservationHandler:   CreateReservation(bookingEngine),
		CancelReservationHandler:   CancelReservation(bookingEngine),
		CompleteReservationHandler: CompleteReservation(bookingEngine),

		JoinWaitingListHandler:    JoinWaitingList(waitingList),
		ConvertWaitingListHandler: ConvertWaitingList(waitingList),

		StreamHandler:         Stream(hub),
		ListDeliveriesHandler: ListDeliveries(deliveries),
		HealthHandler:         Health(),
	}
}
