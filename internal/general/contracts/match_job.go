package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MatchJob asks the worker to run matching for a freshly created offer or request.
// Routing key: "match.{kind}" on ExchangeMatchTopic.
type MatchJob struct {
	Kind     string `json:"kind"`      // offer | request
	EntityID string `json:"entity_id"` // UUID
	Envelope
}

var ErrMalformedJob = errors.New("malformed match job")

// NewMatchJob builds a job stamped with the producer and the current time.
func NewMatchJob(kind, entityID, correlationID, producer string) MatchJob {
	return MatchJob{
		Kind:     kind,
		EntityID: entityID,
		Envelope: Envelope{
			CorrelationID: correlationID,
			Producer:      producer,
			SentAt:        time.Now().UTC(),
		},
	}
}

// RoutingKey returns the topic routing key of the job.
func (job MatchJob) RoutingKey() string {
	return RouteMatchPrefix + job.Kind
}

// DecodeMatchJob parses and checks a job body.
func DecodeMatchJob(body []byte) (MatchJob, error) {
	var job MatchJob
	if err := json.Unmarshal(body, &job); err != nil {
		return MatchJob{}, fmt.Errorf("%w: %v", ErrMalformedJob, err)
	}
	job.Kind = strings.ToLower(strings.TrimSpace(job.Kind))
	job.EntityID = strings.TrimSpace(job.EntityID)
	if job.Kind != "offer" && job.Kind != "request" {
		return MatchJob{}, fmt.Errorf("%w: unknown kind %q", ErrMalformedJob, job.Kind)
	}
	if job.EntityID == "" {
		return MatchJob{}, fmt.Errorf("%w: empty entity_id", ErrMalformedJob)
	}
	return job, nil
}
