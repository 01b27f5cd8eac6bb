// Package calendar renders calendar snapshots of reservations and syncs them
// to object storage so confirmation emails can link an importable .ics file.
package calendar

import (
	"context"
	"fmt"
	"strings"

	"barberly/models"
	"barberly/resilience"
	"barberly/services/booking"
	"barberly/services/storage"

	"go.uber.org/zap"
)

// Service uploads ICS snapshots through the Storage circuit breaker. All
// calls are best-effort side effects of a reservation event.
type Service struct {
	Storage storage.StorageService
	Breaker *resilience.Breaker
	Retry   resilience.RetryConfig
	Logger  *zap.Logger
}

// SyncReservation renders res as an ICS event and uploads it, returning the
// public URL of the snapshot.
func (s *Service) SyncReservation(ctx context.Context, res *models.Reservation, serviceName string) (string, error) {
	ics, err := BuildICS(res, serviceName)
	if err != nil {
		return "", err
	}

	var url string
	err = s.Breaker.Execute(func() error {
		return resilience.Retry(ctx, s.Retry, func() error {
			var upErr error
			url, upErr = s.Storage.UploadRaw(ctx, "reservation-"+res.ID+".ics", "calendar/"+res.TenantID, []byte(ics))
			return upErr
		})
	})
	if err != nil {
		return "", err
	}
	return url, nil
}

// RemoveReservation deletes the stored snapshot for a reservation, invoked
// when a cancellation makes the snapshot stale.
func (s *Service) RemoveReservation(ctx context.Context, res *models.Reservation) error {
	// Matches the upload above: folder + public ID form the full asset path.
	publicID := fmt.Sprintf("calendar/%s/reservation-%s.ics", res.TenantID, res.ID)
	return s.Breaker.Execute(func() error {
		return resilience.Retry(ctx, s.Retry, func() error {
			return s.Storage.DeleteFile(ctx, publicID)
		})
	})
}

// BuildICS renders a single-event iCalendar document for a reservation.
func BuildICS(res *models.Reservation, serviceName string) (string, error) {
	start, err := booking.ParseSlotTime(res.Date, res.StartTime)
	if err != nil {
		return "", err
	}
	end, err := booking.ParseSlotTime(res.Date, res.EndTime)
	if err != nil {
		return "", err
	}

	const stamp = "20060102T150405Z"
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\n")
	b.WriteString("VERSION:2.0\r\n")
	b.WriteString("PRODID:-//barberly//reservations//EN\r\n")
	b.WriteString("BEGIN:VEVENT\r\n")
	fmt.Fprintf(&b, "UID:%s@barberly\r\n", res.ID)
	fmt.Fprintf(&b, "DTSTAMP:%s\r\n", res.CreatedAt.UTC().Format(stamp))
	fmt.Fprintf(&b, "DTSTART:%s\r\n", start.UTC().Format(stamp))
	fmt.Fprintf(&b, "DTEND:%s\r\n", end.UTC().Format(stamp))
	fmt.Fprintf(&b, "SUMMARY:%s\r\n", escapeICS(serviceName))
	fmt.Fprintf(&b, "DESCRIPTION:Appointment for %s\r\n", escapeICS(res.Client.Name))
	b.WriteString("END:VEVENT\r\n")
	b.WriteString("END:VCALENDAR\r\n")
	return b.String(), nil
}

func escapeICS(s string) string {
	r := strings.NewReplacer("\\", "\\\\", ";", "\\;", ",", "\\,", "\n", "\\n")
	return r.Replace(s)
}
