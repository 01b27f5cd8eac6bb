package models

import "time"

// ReservationStatus is the lifecycle state of a reservation. Reserved is the
// initial state; completed and cancelled are terminal.
type ReservationStatus string

const (
	ReservationReserved  ReservationStatus = "reserved"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// ClientInfo identifies the client who booked a slot or joined the waiting
// list. FCMToken, when set, marks an active push subscription.
type ClientInfo struct {
	Name     string `bson:"name" json:"name"`
	Email    string `bson:"email" json:"email"`
	Phone    string `bson:"phone,omitempty" json:"phone,omitempty"`
	UserID   string `bson:"user_id,omitempty" json:"userId,omitempty"`
	FCMToken string `bson:"fcm_token,omitempty" json:"-"`
}

// Reservation is a confirmed slot claim. The (tenant, barber, date, start)
// tuple is unique among non-cancelled rows; that partial unique key is the
// only concurrency control guarding slot creation. Reservations are never
// deleted, only state-transitioned.
type Reservation struct {
	ID          string            `bson:"id" json:"id"`
	TenantID    string            `bson:"tenant_id" json:"tenantId"`
	BarberID    string            `bson:"barber_id" json:"barberId"`
	ServiceID   string            `bson:"service_id" json:"serviceId"`
	Client      ClientInfo        `bson:"client" json:"client"`
	Date        string            `bson:"date" json:"date"`             // "YYYY-MM-DD"
	StartTime   string            `bson:"start_time" json:"startTime"`  // "HH:MM"
	EndTime     string            `bson:"end_time" json:"endTime"`      // "HH:MM"
	Status      ReservationStatus `bson:"status" json:"status"`
	ReviewToken string            `bson:"review_token,omitempty" json:"-"`
	CalendarURL string            `bson:"calendar_url,omitempty" json:"calendarUrl,omitempty"`
	CreatedAt   time.Time         `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time         `bson:"updated_at" json:"updatedAt"`
}

// Service is the catalog entry a reservation books. Only the fields the
// booking engine needs are modeled here; catalog CRUD lives elsewhere.
type Service struct {
	ID              string  `bson:"id" json:"id"`
	TenantID        string  `bson:"tenant_id" json:"tenantId"`
	Name            string  `bson:"name" json:"name"`
	DurationMinutes int     `bson:"duration_minutes" json:"durationMinutes"`
	Price           float64 `bson:"price" json:"price"`
}
