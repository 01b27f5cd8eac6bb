package models

import "time"

// WaitingListStatus is the lifecycle state of a waiting list entry.
type WaitingListStatus string

const (
	WaitingListActive    WaitingListStatus = "active"
	WaitingListNotified  WaitingListStatus = "notified"
	WaitingListConverted WaitingListStatus = "converted"
	WaitingListExpired   WaitingListStatus = "expired"
	WaitingListCancelled WaitingListStatus = "cancelled"
)

// WaitingListEntry records deferred demand for an occupied slot. When a
// matching slot frees up the entry is notified and handed a single-use
// confirmation token; redeeming the token books the offered slot through the
// booking engine.
type WaitingListEntry struct {
	ID        string     `bson:"id" json:"id"`
	TenantID  string     `bson:"tenant_id" json:"tenantId"`
	BarberID  string     `bson:"barber_id,omitempty" json:"barberId,omitempty"` // empty means any barber
	ServiceID string     `bson:"service_id" json:"serviceId"`
	Client    ClientInfo `bson:"client" json:"client"`

	PreferredDate     string   `bson:"preferred_date" json:"preferredDate"`  // "YYYY-MM-DD"
	PreferredTimeFrom string   `bson:"preferred_time_from" json:"preferredTimeFrom"` // "HH:MM"
	PreferredTimeTo   string   `bson:"preferred_time_to" json:"preferredTimeTo"`     // "HH:MM"
	PreferredWeekdays []string `bson:"preferred_weekdays,omitempty" json:"preferredWeekdays,omitempty"` // "Mon".."Sun"

	Status WaitingListStatus `bson:"status" json:"status"`

	// Set when the entry is promoted to notified.
	Token           string    `bson:"token,omitempty" json:"-"`
	TokenExpiresAt  time.Time `bson:"token_expires_at,omitempty" json:"-"`
	OfferedBarberID string    `bson:"offered_barber_id,omitempty" json:"offeredBarberId,omitempty"`
	OfferedDate     string    `bson:"offered_date,omitempty" json:"offeredDate,omitempty"`
	OfferedTime     string    `bson:"offered_time,omitempty" json:"offeredTime,omitempty"`
	NotifiedAt      time.Time `bson:"notified_at,omitempty" json:"notifiedAt,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
