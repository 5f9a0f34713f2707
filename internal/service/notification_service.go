package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/acadops/timetable-api/internal/models"
	"github.com/acadops/timetable-api/pkg/jobs"
)

// NotificationService publishes schedule-change events to a Redis channel
// through an in-process worker queue. The publish path is strictly
// fire-and-forget: enqueueing never blocks the mutation that triggered it,
// and a saturated queue drops the event with a log line.
type NotificationService struct {
	client  *redis.Client
	channel string
	queue   *jobs.Queue
	logger  *zap.Logger
}

// NewNotificationService builds the sink. A nil Redis client turns every
// publish into a no-op.
func NewNotificationService(client *redis.Client, channel string, workers int, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{client: client, channel: channel, logger: logger}
	s.queue = jobs.NewQueue("notifications", s.publish, jobs.QueueConfig{
		Workers: workers,
		Logger:  logger,
	})
	return s
}

// Start launches the publisher workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the publisher workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// ScheduleChanged enqueues a schedule-change event without blocking.
func (s *NotificationService) ScheduleChanged(event models.ScheduleEvent) {
	if s.client == nil {
		return
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    "schedule." + event.Action,
		Payload: event,
	}
	if err := s.queue.TryEnqueue(job); err != nil {
		s.logger.Warn("schedule notification dropped",
			zap.String("schedule_id", event.ScheduleID),
			zap.String("action", event.Action),
			zap.Error(err),
		)
	}
}

func (s *NotificationService) publish(ctx context.Context, job jobs.Job) error {
	payload, err := json.Marshal(job.Payload)
	if err != nil {
		return fmt.Errorf("marshal schedule event: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish schedule event: %w", err)
	}
	return nil
}
