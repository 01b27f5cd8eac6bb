// Package cron runs the background machinery: the asynq reminder worker and
// the scheduled maintenance jobs.
package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"barberly/config"
	"barberly/models"
	"barberly/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeReminderSend = "reminder:send"

// ReminderSender delivers one reminder payload. Implemented by the
// notification dispatcher; delivery failures are logged there, never retried
// through the queue.
type ReminderSender interface {
	SendReminder(ctx context.Context, p models.ReminderPayload)
}

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderQueueDB,
	}
}

// InitReminderWorker runs the async reminder worker in the background.
func InitReminderWorker(sender ReminderSender) {
	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReminderSend, handleReminderTask(sender))

	go monitorReminderQueue()

	go func() {
		logger := utils.GetLogger()
		logger.Info("starting reminder worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				logger.Error("reminder worker failed to start",
					zap.Int("attempt", attempts),
					zap.Int("maxAttempts", maxAttempts),
					zap.Error(err),
				)
				if attempts == maxAttempts {
					logger.Fatal("reminder worker exhausted start attempts")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handleReminderTask(sender ReminderSender) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			utils.GetLogger().Error("invalid reminder payload", zap.Error(err))
			return err
		}

		utils.GetLogger().Info("firing reminder",
			zap.String("reservationId", p.ReservationID),
			zap.String("tenantId", p.TenantID),
		)
		sender.SendReminder(ctx, p)
		return nil
	}
}

// EnqueueReminder schedules a reminder task to fire at the given time.
func EnqueueReminder(p models.ReminderPayload, fireAt time.Time) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode reminder payload: %w", err)
	}

	client := asynq.NewClient(redisOpts())
	defer client.Close()

	task := asynq.NewTask(TypeReminderSend, payload)
	if _, err := client.Enqueue(task, asynq.ProcessAt(fireAt)); err != nil {
		return fmt.Errorf("failed to enqueue reminder for reservation %s: %w", p.ReservationID, err)
	}
	return nil
}

// monitorReminderQueue pings Redis periodically to surface queue outages in
// the logs while the worker keeps retrying internally.
func monitorReminderQueue() {
	client := utils.GetReminderQueueClient()
	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			utils.GetLogger().Warn("reminder queue redis unreachable", zap.Error(err))
		}
		time.Sleep(10 * time.Second)
	}
}
