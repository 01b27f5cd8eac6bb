package cron

import (
	"context"
	"fmt"
	"time"

	reservationRepo "barberly/database/repository/reservation"
	"barberly/models"
	"barberly/services/booking"
	"barberly/services/waitinglist"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is one scheduled unit of maintenance work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler drives registered jobs on cron expressions. A panicking or
// failing job never affects its siblings or the next tick.
type Scheduler struct {
	cron   *cron.Cron
	jobs   []Job
	logger *zap.Logger
}

// NewScheduler creates an empty scheduler.
func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
	}
}

// Register schedules job on the given cron expression.
func (s *Scheduler) Register(spec string, job Job) error {
	s.jobs = append(s.jobs, job)
	_, err := s.cron.AddFunc(spec, func() {
		s.runJob(job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", job.Name(), err)
	}
	return nil
}

func (s *Scheduler) runJob(job Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled job panicked",
				zap.String("job", job.Name()),
				zap.Any("panic", r),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error("scheduled job failed",
			zap.String("job", job.Name()),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("scheduled job finished",
		zap.String("job", job.Name()),
		zap.Duration("took", time.Since(start)),
	)
}

// Start launches the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunAll executes every registered job once, outside the schedule.
func (s *Scheduler) RunAll() {
	for _, job := range s.jobs {
		s.runJob(job)
	}
}

// WaitingListSweepJob expires stale waiting list offers.
type WaitingListSweepJob struct {
	Engine *waitinglist.Engine
}

func (j *WaitingListSweepJob) Name() string { return "waitinglist-sweep" }

func (j *WaitingListSweepJob) Run(ctx context.Context) error {
	_, err := j.Engine.Sweep(ctx)
	return err
}

// ReminderScanJob enqueues a reminder for every reservation still reserved
// for the next day. Runs daily; asynq deduplication is not needed because a
// reservation appears in exactly one scan.
type ReminderScanJob struct {
	Reservations reservationRepo.Repository
	Enqueue      func(p models.ReminderPayload, fireAt time.Time) error
	Logger       *zap.Logger
	Now          func() time.Time
}

func (j *ReminderScanJob) Name() string { return "reminder-scan" }

func (j *ReminderScanJob) Run(ctx context.Context) error {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	tomorrow := now().AddDate(0, 0, 1).Format("2006-01-02")

	reservations, err := j.Reservations.FindReservedByDate(ctx, tomorrow)
	if err != nil {
		return fmt.Errorf("failed to scan reservations for %s: %w", tomorrow, err)
	}

	enqueued := 0
	for _, res := range reservations {
		fireAt, err := reminderFireTime(res, now())
		if err != nil {
			j.Logger.Warn("skipping reminder with unparseable slot",
				zap.String("reservationId", res.ID),
				zap.Error(err),
			)
			continue
		}
		p := models.ReminderPayload{
			ReservationID: res.ID,
			TenantID:      res.TenantID,
			Email:         res.Client.Email,
			FCMToken:      res.Client.FCMToken,
			Title:         "Appointment tomorrow",
			Body:          fmt.Sprintf("Reminder: your appointment is on %s at %s.", res.Date, res.StartTime),
		}
		if err := j.Enqueue(p, fireAt); err != nil {
			j.Logger.Warn("failed to enqueue reminder",
				zap.String("reservationId", res.ID),
				zap.Error(err),
			)
			continue
		}
		enqueued++
	}

	if enqueued > 0 {
		j.Logger.Info("enqueued reminders",
			zap.String("date", tomorrow),
			zap.Int("count", enqueued),
		)
	}
	return nil
}

// reminderFireTime targets 24 hours before the slot, clamped to now for slots
// nearer than that.
func reminderFireTime(res models.Reservation, now time.Time) (time.Time, error) {
	start, err := booking.ParseSlotTime(res.Date, res.StartTime)
	if err != nil {
		return time.Time{}, err
	}
	fireAt := start.Add(-24 * time.Hour)
	if fireAt.Before(now) {
		fireAt = now
	}
	return fireAt, nil
}
