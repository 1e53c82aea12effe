package pipeline

import (
	"context"
	"errors"
	"fmt"

	"gogogo/internal/domain/ride"
	"gogogo/internal/general/contracts"
	"gogogo/internal/ports"
)

// ErrFatalJob marks a job that must not be retried.
var ErrFatalJob = errors.New("fatal match job")

// HandleJob decodes one queued job and routes it by kind.
// The returned error drives settlement: temporary errors are retried, the rest are dead-lettered.
func (o *Orchestrator) HandleJob(ctx context.Context, body []byte) error {
	job, err := contracts.DecodeMatchJob(body)
	if err != nil {
		o.logger.Error(ctx, "match_job_malformed", "Dropping malformed match job", err,
			map[string]any{"size": len(body)})
		return fmt.Errorf("%w: %w", ErrFatalJob, err)
	}

	ctx = o.logger.WithRequestID(ctx, job.CorrelationID)
	ctx = o.logger.WithJobID(ctx, job.EntityID)

	switch ports.JobKind(job.Kind) {
	case ports.JobOffer:
		_, err = o.ProcessOffer(ctx, job.EntityID)
	case ports.JobRequest:
		_, err = o.ProcessRequest(ctx, job.EntityID)
	}

	var pe *ride.ParseError
	if errors.As(err, &pe) {
		return fmt.Errorf("%w: %w", ErrFatalJob, err)
	}
	return err
}
