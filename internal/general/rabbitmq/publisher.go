package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gogogo/internal/general/contracts"
	"gogogo/internal/general/logger"
	"gogogo/internal/ports"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// PublishTimeout bounds one publish including its broker confirm.
const PublishTimeout = 5 * time.Second

// JobPublisher enqueues match jobs on the match exchange.
type JobPublisher struct {
	client   *Client
	producer string
}

// NewJobPublisher constructs a JobPublisher using the provided RabbitMQ client.
func NewJobPublisher(client *Client, producer string) *JobPublisher {
	return &JobPublisher{client: client, producer: producer}
}

var _ ports.JobQueue = (*JobPublisher)(nil)

// Enqueue publishes a match job for the entity. The request id in ctx becomes the correlation id.
func (publisher *JobPublisher) Enqueue(ctx context.Context, kind ports.JobKind, entityID string) error {
	if !kind.Valid() {
		return fmt.Errorf("rabbitmq: unknown job kind %q", kind)
	}

	correlationID := logger.RequestID(ctx)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	job := contracts.NewMatchJob(string(kind), entityID, correlationID, publisher.producer)

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("rabbitmq: encode job: %w", err)
	}
	return publisher.client.PublishMessage(ctx, contracts.ExchangeMatchTopic, job.RoutingKey(), correlationID, body)
}

// PublishMessage publishes a persistent JSON message and waits for the broker confirm.
func (client *Client) PublishMessage(ctx context.Context, exchange, routingKey, correlationID string, body []byte) error {
	client.mu.RLock()
	ch := client.pubChan
	conn := client.conn
	client.mu.RUnlock()

	if conn == nil || conn.IsClosed() {
		return errors.New("rabbitmq: connection is not open")
	}
	if ch == nil || ch.IsClosed() {
		return errors.New("rabbitmq: publish channel is not open")
	}

	client.pubMu.Lock()
	defer client.pubMu.Unlock()
	confirms := client.pubConfirms
	if confirms == nil {
		return errors.New("rabbitmq: publisher confirms are not enabled")
	}

	// the publish must not be cut short by the caller's request context
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), PublishTimeout)
	defer cancel()

	if err := ch.PublishWithContext(pubCtx, exchange, routingKey, true /* mandatory */, false, /* immediate */
		amqp.Publishing{
			DeliveryMode:  amqp.Persistent,
			ContentType:   "application/json",
			CorrelationId: correlationID,
			MessageId:     uuid.NewString(),
			Timestamp:     time.Now().UTC(),
			Body:          body,
		},
	); err != nil {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}

	select {
	case c, ok := <-confirms:
		if !ok || !c.Ack {
			return errors.New("rabbitmq: publish not acknowledged")
		}
		return nil
	case <-pubCtx.Done():
		// drain one confirm so the next publish does not read this one
		select {
		case <-confirms:
		case <-time.After(2 * time.Second):
		}
		return pubCtx.Err()
	}
}
