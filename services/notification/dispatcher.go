package notification

import (
	"context"
	"fmt"
	"time"

	deliveryRepo "barberly/database/repository/delivery"
	reservationRepo "barberly/database/repository/reservation"
	serviceRepo "barberly/database/repository/service"
	"barberly/models"
	"barberly/resilience"
	"barberly/services/calendar"
	"barberly/services/events"
	"barberly/services/realtime"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Promoter is the waiting list engine's promotion entry point, invoked when a
// reservation frees its slot.
type Promoter interface {
	OnSlotFreed(ctx context.Context, tenantID, barberID, serviceID, date, startTime string) error
}

// Dispatcher subscribes to booking events and drives all side effects: email
// and push through their circuit breakers, the tenant stream, calendar sync
// and waiting list promotion. Side-effect failures are recorded in the
// delivery log and otherwise swallowed — the reservation write is the
// transactional boundary, notifications are best-effort.
type Dispatcher struct {
	Email        EmailSender
	Push         PushSender
	EmailBreaker *resilience.Breaker
	PushBreaker  *resilience.Breaker
	Retry        resilience.RetryConfig

	Hub          *realtime.Hub
	Promoter     Promoter
	Calendar     *calendar.Service
	Reservations reservationRepo.Repository
	Services     serviceRepo.Repository
	Deliveries   deliveryRepo.Repository

	PublicBaseURL string
	Logger        *zap.Logger
}

// Register wires the dispatcher's handlers onto the bus.
func (d *Dispatcher) Register(bus *events.Bus) {
	bus.Subscribe(models.EventReservationCreated, "notification.created", d.handleCreated)
	bus.Subscribe(models.EventReservationCancelled, "notification.cancelled", d.handleCancelled)
	bus.Subscribe(models.EventReservationCompleted, "notification.completed", d.handleCompleted)
}

func (d *Dispatcher) handleCreated(ctx context.Context, evt models.Event) error {
	res := evt.Reservation
	serviceName := d.serviceName(ctx, res)

	calendarURL := d.syncCalendar(ctx, res, serviceName)

	subject := fmt.Sprintf("Booking confirmed: %s on %s at %s", serviceName, res.Date, res.StartTime)
	body := fmt.Sprintf("Hi %s,\n\nYour %s appointment is confirmed for %s at %s.",
		res.Client.Name, serviceName, res.Date, res.StartTime)
	if calendarURL != "" {
		body += "\n\nAdd it to your calendar: " + calendarURL
	}
	d.sendEmail(ctx, res, subject, body)

	if res.Client.FCMToken != "" {
		d.sendPush(ctx, res, "Booking confirmed",
			fmt.Sprintf("%s on %s at %s", serviceName, res.Date, res.StartTime))
	}
	return nil
}

func (d *Dispatcher) handleCancelled(ctx context.Context, evt models.Event) error {
	res := evt.Reservation

	count := d.Hub.SendToTenant(res.TenantID, string(models.EventReservationCancelled), res)
	d.record(ctx, res, models.ChannelSSE, res.TenantID,
		fmt.Sprintf("reservation cancelled (%d connections)", count), models.DeliverySent, "")

	if d.Calendar != nil && res.CalendarURL != "" {
		if err := d.Calendar.RemoveReservation(ctx, res); err != nil {
			d.Logger.Warn("calendar snapshot cleanup failed",
				zap.String("reservationId", res.ID),
				zap.Error(err),
			)
		}
	}

	if d.Promoter != nil {
		if err := d.Promoter.OnSlotFreed(ctx, res.TenantID, res.BarberID, res.ServiceID, res.Date, res.StartTime); err != nil {
			d.Logger.Warn("waiting list promotion failed",
				zap.String("reservationId", res.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (d *Dispatcher) handleCompleted(ctx context.Context, evt models.Event) error {
	res := evt.Reservation
	if res.ReviewToken == "" {
		return nil
	}
	reviewURL := fmt.Sprintf("%s/reviews/%s", d.PublicBaseURL, res.ReviewToken)
	subject := "How was your appointment?"
	body := fmt.Sprintf("Hi %s,\n\nThanks for visiting. Leave a review: %s",
		res.Client.Name, reviewURL)
	d.sendEmail(ctx, res, subject, body)
	return nil
}

// NotifyWaitingListOffer tells a waiting client their slot opened up. Invoked
// by the waiting list engine with the confirmation link already built.
func (d *Dispatcher) NotifyWaitingListOffer(ctx context.Context, entry *models.WaitingListEntry, confirmURL string) {
	subject := fmt.Sprintf("A slot opened up on %s at %s", entry.OfferedDate, entry.OfferedTime)
	body := fmt.Sprintf("Hi %s,\n\nThe slot you were waiting for is free: %s at %s.\nConfirm within 48 hours: %s",
		entry.Client.Name, entry.OfferedDate, entry.OfferedTime, confirmURL)

	pseudo := &models.Reservation{TenantID: entry.TenantID, Client: entry.Client}
	d.sendEmail(ctx, pseudo, subject, body)
	if entry.Client.FCMToken != "" {
		d.sendPush(ctx, pseudo, "Your slot is free", fmt.Sprintf("%s at %s — confirm within 48h", entry.OfferedDate, entry.OfferedTime))
	}
	if entry.Client.UserID != "" {
		d.Hub.SendToUser(entry.Client.UserID, "waitinglist.offer", entry)
	}
}

// SendReminder delivers a queued reservation reminder, used by the asynq
// worker.
func (d *Dispatcher) SendReminder(ctx context.Context, p models.ReminderPayload) {
	pseudo := &models.Reservation{ID: p.ReservationID, TenantID: p.TenantID,
		Client: models.ClientInfo{Email: p.Email, FCMToken: p.FCMToken}}
	d.sendEmail(ctx, pseudo, p.Title, p.Body)
	if p.FCMToken != "" {
		d.sendPush(ctx, pseudo, p.Title, p.Body)
	}
}

func (d *Dispatcher) sendEmail(ctx context.Context, res *models.Reservation, subject, body string) {
	err := d.EmailBreaker.Execute(func() error {
		return resilience.Retry(ctx, d.Retry, func() error {
			return d.Email.Send(ctx, res.Client.Email, subject, body)
		})
	})
	d.record(ctx, res, models.ChannelEmail, res.Client.Email, subject, deliveryStatus(err), errDetail(err))
	if err != nil {
		d.Logger.Warn("email not sent",
			zap.String("reservationId", res.ID),
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) sendPush(ctx context.Context, res *models.Reservation, title, body string) {
	cfg := d.Retry
	cfg.Retryable = resilience.NonRetryable(ErrPushTokenExpired)

	err := d.PushBreaker.Execute(func() error {
		return resilience.Retry(ctx, cfg, func() error {
			return d.Push.Send(ctx, res.Client.FCMToken, title, body, map[string]string{
				"reservationId": res.ID,
				"tenantId":      res.TenantID,
			})
		})
	})
	d.record(ctx, res, models.ChannelPush, res.Client.FCMToken, title, deliveryStatus(err), errDetail(err))
	if err != nil {
		d.Logger.Warn("push not sent",
			zap.String("reservationId", res.ID),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) syncCalendar(ctx context.Context, res *models.Reservation, serviceName string) string {
	if d.Calendar == nil {
		return ""
	}
	url, err := d.Calendar.SyncReservation(ctx, res, serviceName)
	d.record(ctx, res, models.ChannelStorage, "", "calendar snapshot", deliveryStatus(err), errDetail(err))
	if err != nil {
		d.Logger.Warn("calendar sync failed",
			zap.String("reservationId", res.ID),
			zap.Error(err),
		)
		return ""
	}
	if d.Reservations != nil {
		if err := d.Reservations.SetCalendarURL(ctx, res.ID, url); err != nil {
			d.Logger.Warn("failed to store calendar url", zap.String("reservationId", res.ID), zap.Error(err))
		}
	}
	return url
}

func (d *Dispatcher) serviceName(ctx context.Context, res *models.Reservation) string {
	if d.Services == nil {
		return "appointment"
	}
	svc, err := d.Services.FindByID(ctx, res.TenantID, res.ServiceID)
	if err != nil {
		return "appointment"
	}
	return svc.Name
}

// record appends one delivery log row. The log is append-only and
// best-effort: append failures are swallowed so logging never blocks the
// primary flow.
func (d *Dispatcher) record(ctx context.Context, res *models.Reservation, channel, recipient, subject, status, detail string) {
	if d.Deliveries == nil {
		return
	}
	rec := &models.DeliveryRecord{
		ID:            uuid.New().String(),
		TenantID:      res.TenantID,
		ReservationID: res.ID,
		Channel:       channel,
		Recipient:     recipient,
		Subject:       subject,
		Status:        status,
		Error:         detail,
		CreatedAt:     time.Now(),
	}
	if err := d.Deliveries.Append(ctx, rec); err != nil {
		d.Logger.Debug("delivery log append failed", zap.Error(err))
	}
}

func deliveryStatus(err error) string {
	switch {
	case err == nil:
		return models.DeliverySent
	case resilience.IsCircuitOpen(err):
		return models.DeliverySkipped
	default:
		return models.DeliveryFailed
	}
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
