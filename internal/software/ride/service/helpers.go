package service

import (
	"context"
	"time"

	"gogogo/internal/ports"
)

const enqueueTimeout = 5 * time.Second

// enqueue schedules a match job. Failure is logged and never reaches the caller.
func (service *rideService) enqueue(ctx context.Context, kind ports.JobKind, entityID string) {
	qCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
	defer cancel()

	if err := service.queue.Enqueue(qCtx, kind, entityID); err != nil {
		service.logger.Error(ctx, "job_enqueue_failed", "Failed to enqueue match job", err, map[string]any{
			"kind":      kind,
			"entity_id": entityID,
		})
		return
	}
	service.logger.Debug(ctx, "job_enqueued", "Match job enqueued", map[string]any{
		"kind":      kind,
		"entity_id": entityID,
	})
}
