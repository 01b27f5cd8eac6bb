package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	reservationRepo "barberly/database/repository/reservation"
	serviceRepo "barberly/database/repository/service"
	"barberly/models"
	"barberly/services/events"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultEngine implements Engine against the reservation repository and
// publishes one typed event per state transition.
type DefaultEngine struct {
	Repo     reservationRepo.Repository
	Services serviceRepo.Repository
	Bus      *events.Bus
	Logger   *zap.Logger
	Now      func() time.Time // defaults to time.Now
}

func (e *DefaultEngine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// CreateReservation validates the request, computes the end time from the
// service duration and inserts the row. A duplicate-key rejection from the
// store is translated into a typed slot conflict; any other persistence
// failure propagates as a transient error (retrying a failed create cannot
// double-book because the unique key still guards the slot).
func (e *DefaultEngine) CreateReservation(ctx context.Context, req CreateRequest) (*models.Reservation, error) {
	if req.TenantID == "" || req.BarberID == "" || req.ServiceID == "" {
		return nil, NewValidationError("tenantId, barberId and serviceId are required")
	}
	if req.Client.Name == "" || req.Client.Email == "" {
		return nil, NewValidationError("client name and email are required")
	}

	start, err := ParseSlotTime(req.Date, req.StartTime)
	if err != nil {
		return nil, NewValidationError(err.Error())
	}
	if !start.After(e.now()) {
		return nil, NewValidationError("requested slot is in the past")
	}

	svc, err := e.Services.FindByID(ctx, req.TenantID, req.ServiceID)
	if err != nil {
		if errors.Is(err, serviceRepo.ErrNotFound) {
			return nil, NewValidationError(fmt.Sprintf("unknown service %s", req.ServiceID))
		}
		return nil, fmt.Errorf("service lookup failed: %w", err)
	}

	now := e.now()
	res := &models.Reservation{
		ID:          uuid.New().String(),
		TenantID:    req.TenantID,
		BarberID:    req.BarberID,
		ServiceID:   req.ServiceID,
		Client:      req.Client,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     start.Add(time.Duration(svc.DurationMinutes) * time.Minute).Format("15:04"),
		Status:      models.ReservationReserved,
		ReviewToken: uuid.New().String(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := e.Repo.Insert(ctx, res); err != nil {
		if errors.Is(err, reservationRepo.ErrDuplicateSlot) {
			return nil, NewSlotConflictError(req.BarberID, req.Date, req.StartTime)
		}
		return nil, fmt.Errorf("reservation insert failed: %w", err)
	}

	e.publish(ctx, models.EventReservationCreated, res)
	return res, nil
}

// CancelReservation transitions a reservation from reserved to cancelled,
// which releases its slot for rebooking and triggers waiting list promotion
// downstream.
func (e *DefaultEngine) CancelReservation(ctx context.Context, id string) (*models.Reservation, error) {
	return e.transition(ctx, id, models.ReservationCancelled, models.EventReservationCancelled)
}

// CompleteReservation transitions a reservation from reserved to completed.
// The slot stays blocked: the completed row remains the historical record for
// that slot.
func (e *DefaultEngine) CompleteReservation(ctx context.Context, id string) (*models.Reservation, error) {
	return e.transition(ctx, id, models.ReservationCompleted, models.EventReservationCompleted)
}

func (e *DefaultEngine) transition(ctx context.Context, id string, to models.ReservationStatus, evtType models.EventType) (*models.Reservation, error) {
	current, err := e.Repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrNotFound) {
			return nil, NewNotFoundError(id)
		}
		return nil, fmt.Errorf("reservation lookup failed: %w", err)
	}
	if current.Status != models.ReservationReserved {
		return nil, NewInvalidStateError(id, string(current.Status))
	}

	// Conditional update from the reserved state. A concurrent transition
	// makes the filter miss, which reads as ErrNotFound here: the row exists
	// but is no longer reserved, so surface the state error instead.
	updated, err := e.Repo.UpdateStatus(ctx, id, models.ReservationReserved, to, e.now())
	if err != nil {
		if errors.Is(err, reservationRepo.ErrNotFound) {
			return nil, NewInvalidStateError(id, "no longer reserved")
		}
		return nil, fmt.Errorf("reservation status update failed: %w", err)
	}

	e.publish(ctx, evtType, updated)
	return updated, nil
}

func (e *DefaultEngine) publish(ctx context.Context, t models.EventType, res *models.Reservation) {
	if e.Bus == nil {
		return
	}
	snapshot := *res
	e.Bus.Publish(ctx, models.Event{
		Type:        t,
		TenantID:    res.TenantID,
		Reservation: &snapshot,
		OccurredAt:  e.now(),
	})
}

// ParseSlotTime combines a "YYYY-MM-DD" date and "HH:MM" time into a UTC
// instant.
func ParseSlotTime(date, hhmm string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04", date+" "+hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid slot time %q %q", date, hhmm)
	}
	return t, nil
}
