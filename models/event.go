package models

import "time"

// EventType names a reservation lifecycle event on the bus.
type EventType string

const (
	EventReservationCreated   EventType = "reservation.created"
	EventReservationCancelled EventType = "reservation.cancelled"
	EventReservationCompleted EventType = "reservation.completed"
)

// Event is the immutable payload published once per reservation state
// transition. It carries a full snapshot so subscribers never read back
// through the store.
type Event struct {
	Type        EventType    `json:"type"`
	TenantID    string       `json:"tenantId"`
	Reservation *Reservation `json:"reservation"`
	OccurredAt  time.Time    `json:"occurredAt"`
}
