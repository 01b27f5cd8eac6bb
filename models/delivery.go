package models

import "time"

// Delivery channels and statuses for the notification delivery log.
const (
	ChannelEmail   = "email"
	ChannelPush    = "push"
	ChannelSSE     = "sse"
	ChannelStorage = "storage"

	DeliverySent    = "sent"
	DeliveryFailed  = "failed"
	DeliverySkipped = "skipped" // dependency isolated, call not attempted
)

// DeliveryRecord is one append-only row in the notification delivery log.
// Rows are written best-effort and never block the primary flow.
type DeliveryRecord struct {
	ID            string    `bson:"id" json:"id"`
	TenantID      string    `bson:"tenant_id" json:"tenantId"`
	ReservationID string    `bson:"reservation_id,omitempty" json:"reservationId,omitempty"`
	Channel       string    `bson:"channel" json:"channel"`
	Recipient     string    `bson:"recipient,omitempty" json:"recipient,omitempty"`
	Subject       string    `bson:"subject,omitempty" json:"subject,omitempty"`
	Status        string    `bson:"status" json:"status"`
	Error         string    `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
}

// ReminderPayload is the asynq task payload for a queued reservation reminder.
type ReminderPayload struct {
	ReservationID string `json:"reservationId"`
	TenantID      string `json:"tenantId"`
	Email         string `json:"email"`
	FCMToken      string `json:"fcmToken,omitempty"`
	Title         string `json:"title"`
	Body          string `json:"body"`
}
