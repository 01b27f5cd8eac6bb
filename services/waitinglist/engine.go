// Package waitinglist runs the deferred-demand engine: clients queue for
// occupied slots, get promoted FIFO when a matching slot frees up, and redeem
// a single-use confirmation token within 48 hours to claim it.
package waitinglist

import (
	"context"
	"fmt"
	"time"

	waitinglistRepo "barberly/database/repository/waitinglist"
	"barberly/models"
	"barberly/services/booking"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier delivers the promotion offer to the waiting client. Implemented by
// the notification dispatcher; failures are its problem, promotion has already
// committed by the time this is called.
type Notifier interface {
	NotifyWaitingListOffer(ctx context.Context, entry *models.WaitingListEntry, confirmURL string)
}

// JoinRequest carries a validated waiting list signup.
type JoinRequest struct {
	TenantID  string
	BarberID  string // empty means any barber
	ServiceID string
	Client    models.ClientInfo

	PreferredDate     string // "YYYY-MM-DD"
	PreferredTimeFrom string // "HH:MM"
	PreferredTimeTo   string // "HH:MM"
	PreferredWeekdays []string
}

// Engine owns the waiting list lifecycle. Promotion is at-most-once per entry
// (enforced by the conditional ACTIVE→NOTIFIED write) and token redemption is
// exactly-once (enforced by the slot unique key plus the conditional
// NOTIFIED→CONVERTED write).
type Engine struct {
	Repo    waitinglistRepo.Repository
	Booking booking.Engine
	Logger  *zap.Logger

	// WindowDays bounds how far an entry's preferred date may sit from a
	// freed slot's date and still match.
	WindowDays int
	// TokenTTL is the redemption window attached to each offer.
	TokenTTL time.Duration

	PublicBaseURL string

	Notifier Notifier

	Now func() time.Time
}

const defaultTokenTTL = 48 * time.Hour

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) tokenTTL() time.Duration {
	if e.TokenTTL > 0 {
		return e.TokenTTL
	}
	return defaultTokenTTL
}

var weekdayNames = map[string]bool{
	"Mon": true, "Tue": true, "Wed": true, "Thu": true,
	"Fri": true, "Sat": true, "Sun": true,
}

// Join enqueues a client and returns the entry with its FIFO position.
// Position counts ACTIVE entries ahead of this one for the same tenant and
// barber scope; it is derived on read, never stored.
func (e *Engine) Join(ctx context.Context, req JoinRequest) (*models.WaitingListEntry, int64, error) {
	if err := validateJoin(req); err != nil {
		return nil, 0, err
	}

	now := e.now()
	entry := &models.WaitingListEntry{
		ID:                uuid.New().String(),
		TenantID:          req.TenantID,
		BarberID:          req.BarberID,
		ServiceID:         req.ServiceID,
		Client:            req.Client,
		PreferredDate:     req.PreferredDate,
		PreferredTimeFrom: req.PreferredTimeFrom,
		PreferredTimeTo:   req.PreferredTimeTo,
		PreferredWeekdays: req.PreferredWeekdays,
		Status:            models.WaitingListActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := e.Repo.Insert(ctx, entry); err != nil {
		return nil, 0, fmt.Errorf("failed to join waiting list: %w", err)
	}

	ahead, err := e.Repo.CountActiveBefore(ctx, req.TenantID, req.BarberID, entry.CreatedAt)
	if err != nil {
		// The entry is in; a broken position read should not undo the join.
		e.Logger.Warn("failed to compute waiting list position",
			zap.String("entryId", entry.ID),
			zap.Error(err),
		)
		return entry, 0, nil
	}
	return entry, ahead + 1, nil
}

func validateJoin(req JoinRequest) error {
	if req.TenantID == "" || req.ServiceID == "" {
		return booking.NewValidationError("tenantId and serviceId are required")
	}
	if req.Client.Name == "" || req.Client.Email == "" {
		return booking.NewValidationError("client name and email are required")
	}
	if _, err := time.Parse("2006-01-02", req.PreferredDate); err != nil {
		return booking.NewValidationError("preferredDate must be YYYY-MM-DD")
	}
	for _, field := range []string{req.PreferredTimeFrom, req.PreferredTimeTo} {
		if _, err := time.Parse("15:04", field); err != nil {
			return booking.NewValidationError("preferred times must be HH:MM")
		}
	}
	if req.PreferredTimeFrom > req.PreferredTimeTo {
		return booking.NewValidationError("preferredTimeFrom must not be after preferredTimeTo")
	}
	for _, day := range req.PreferredWeekdays {
		if !weekdayNames[day] {
			return booking.NewValidationError("preferredWeekdays must use Mon..Sun")
		}
	}
	return nil
}

// OnSlotFreed promotes the best waiting candidate for a freed slot. Invoked
// by the notification dispatcher on every cancellation. At most one entry is
// promoted per freed slot; losing a promotion race just moves on to the next
// candidate.
func (e *Engine) OnSlotFreed(ctx context.Context, tenantID, barberID, serviceID, date, startTime string) error {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return fmt.Errorf("invalid freed slot date %q: %w", date, err)
	}

	q := waitinglistRepo.MatchQuery{
		TenantID:  tenantID,
		BarberID:  barberID,
		ServiceID: serviceID,
		DateFrom:  day.AddDate(0, 0, -e.WindowDays).Format("2006-01-02"),
		DateTo:    day.AddDate(0, 0, e.WindowDays).Format("2006-01-02"),
		Time:      startTime,
		Weekday:   day.Format("Mon"),
	}

	for {
		entry, err := e.Repo.FindBestMatch(ctx, q)
		if err != nil {
			if err == waitinglistRepo.ErrNotFound {
				return nil
			}
			return fmt.Errorf("failed to match waiting list candidate: %w", err)
		}

		token := uuid.New().String()
		expiresAt := e.now().Add(e.tokenTTL())
		promoted, err := e.Repo.MarkNotified(ctx, entry.ID, token, expiresAt, barberID, date, startTime)
		if err != nil {
			return fmt.Errorf("failed to promote waiting list entry %s: %w", entry.ID, err)
		}
		if !promoted {
			// Someone else changed the entry between match and promote.
			// It is no longer ACTIVE, so the next match skips it.
			continue
		}

		entry.Status = models.WaitingListNotified
		entry.Token = token
		entry.TokenExpiresAt = expiresAt
		entry.OfferedBarberID = barberID
		entry.OfferedDate = date
		entry.OfferedTime = startTime
		entry.NotifiedAt = e.now()

		e.Logger.Info("waiting list entry promoted",
			zap.String("entryId", entry.ID),
			zap.String("tenantId", tenantID),
			zap.String("date", date),
			zap.String("time", startTime),
		)
		if e.Notifier != nil {
			confirmURL := fmt.Sprintf("%s/api/waiting-list/convert/%s", e.PublicBaseURL, token)
			e.Notifier.NotifyWaitingListOffer(ctx, entry, confirmURL)
		}
		return nil
	}
}

// Convert redeems a confirmation token, booking the offered slot through the
// booking engine. Concurrent redemptions of the same token race on the slot
// unique key: exactly one wins, the rest see ErrSlotUnavailable.
func (e *Engine) Convert(ctx context.Context, token string) (*models.Reservation, error) {
	entry, err := e.Repo.FindByToken(ctx, token)
	if err != nil {
		if err == waitinglistRepo.ErrNotFound {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to look up confirmation token: %w", err)
	}

	switch entry.Status {
	case models.WaitingListNotified:
		// redeemable, checked below
	case models.WaitingListExpired:
		return nil, ErrTokenExpired
	default:
		return nil, ErrTokenInvalid
	}

	if e.now().After(entry.TokenExpiresAt) {
		// Lazy expiry on the read path; the sweep catches the rest.
		if _, err := e.Repo.UpdateStatus(ctx, entry.ID, models.WaitingListNotified, models.WaitingListExpired); err != nil {
			e.Logger.Warn("failed to expire waiting list entry",
				zap.String("entryId", entry.ID),
				zap.Error(err),
			)
		}
		return nil, ErrTokenExpired
	}

	res, err := e.Booking.CreateReservation(ctx, booking.CreateRequest{
		TenantID:  entry.TenantID,
		BarberID:  entry.OfferedBarberID,
		ServiceID: entry.ServiceID,
		Client:    entry.Client,
		Date:      entry.OfferedDate,
		StartTime: entry.OfferedTime,
	})
	if err != nil {
		if booking.ErrorCode(err) == booking.CodeSlotConflict {
			// The entry stays NOTIFIED; a future freed slot can re-offer.
			return nil, ErrSlotUnavailable
		}
		return nil, err
	}

	if ok, err := e.Repo.UpdateStatus(ctx, entry.ID, models.WaitingListNotified, models.WaitingListConverted); err != nil {
		e.Logger.Warn("reservation booked but entry not marked converted",
			zap.String("entryId", entry.ID),
			zap.String("reservationId", res.ID),
			zap.Error(err),
		)
	} else if !ok {
		e.Logger.Warn("waiting list entry left notified state during conversion",
			zap.String("entryId", entry.ID),
		)
	}
	return res, nil
}

// Sweep expires every notified entry whose token window has passed, returning
// the number swept. Scheduled hourly.
func (e *Engine) Sweep(ctx context.Context) (int64, error) {
	swept, err := e.Repo.ExpireNotifiedBefore(ctx, e.now())
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		e.Logger.Info("expired waiting list offers", zap.Int64("count", swept))
	}
	return swept, nil
}
