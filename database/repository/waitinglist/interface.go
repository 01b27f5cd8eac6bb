package waitinglistRepo

import (
	"context"
	"errors"
	"time"

	"barberly/models"
)

// ErrNotFound means no waiting list entry matched the query.
var ErrNotFound = errors.New("waiting list entry not found")

// MatchQuery describes a freed slot looking for its best waiting candidate.
// Date bounds are inclusive "YYYY-MM-DD" strings; Weekday uses "Mon".."Sun".
type MatchQuery struct {
	TenantID  string
	BarberID  string
	ServiceID string
	DateFrom  string
	DateTo    string
	Time      string // freed slot start, "HH:MM"
	Weekday   string
}

// Repository persists waiting list entries.
type Repository interface {
	Insert(ctx context.Context, entry *models.WaitingListEntry) error
	FindByID(ctx context.Context, id string) (*models.WaitingListEntry, error)
	FindByToken(ctx context.Context, token string) (*models.WaitingListEntry, error)
	// CountActiveBefore counts ACTIVE entries created before the given time
	// that match the same tenant and barber (tenant-wide when barberID is
	// empty). Position is derived from this count on each read.
	CountActiveBefore(ctx context.Context, tenantID, barberID string, createdBefore time.Time) (int64, error)
	// FindBestMatch returns the oldest ACTIVE entry matching the freed slot,
	// or ErrNotFound. FIFO ties break by creation time.
	FindBestMatch(ctx context.Context, q MatchQuery) (*models.WaitingListEntry, error)
	// MarkNotified transitions id from ACTIVE to NOTIFIED and attaches the
	// confirmation token and offered slot. Returns false when the entry was
	// not ACTIVE anymore, which guarantees at-most-once promotion.
	MarkNotified(ctx context.Context, id, token string, expiresAt time.Time, offeredBarberID, offeredDate, offeredTime string) (bool, error)
	// UpdateStatus transitions id from one status to another. Returns false
	// when the source status no longer matches.
	UpdateStatus(ctx context.Context, id string, from, to models.WaitingListStatus) (bool, error)
	// ExpireNotifiedBefore sweeps NOTIFIED entries whose token expiry lies
	// before the cutoff into EXPIRED, returning the number swept.
	ExpireNotifiedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	EnsureIndexes() error
}
