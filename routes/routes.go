package routes

import (
	"time"

	"barberly/handlers"
	"barberly/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterReservationRoutes sets up the endpoints for the booking engine.
func RegisterReservationRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/reservations")
	{
		api.POST("", hb.CreateReservationHandler)
		api.POST("/:id/cancel", hb.CancelReservationHandler)
		api.POST("/:id/complete", hb.CompleteReservationHandler)
	}
}

// RegisterWaitingListRoutes sets up waiting list signup and token redemption.
func RegisterWaitingListRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/waiting-list")
	{
		api.POST("", hb.JoinWaitingListHandler)
		api.POST("/convert/:token", hb.ConvertWaitingListHandler)
	}
}

// RegisterStreamRoute sets up the server-sent event stream. The token rides
// the query string because EventSource cannot set headers.
func RegisterStreamRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/api/stream", middleware.StreamAuthMiddleware(), hb.StreamHandler)
}

// RegisterObservabilityRoutes sets up the delivery log and health endpoints.
func RegisterObservabilityRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/api/notifications/deliveries", hb.ListDeliveriesHandler)
	r.GET("/health", hb.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware())

	RegisterReservationRoutes(r, hb)
	RegisterWaitingListRoutes(r, hb)
	RegisterStreamRoute(r, hb)
	RegisterObservabilityRoutes(r, hb)
}
