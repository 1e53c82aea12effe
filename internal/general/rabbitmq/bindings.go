package rabbitmq

import (
	"fmt"

	"gogogo/internal/general/contracts"

	amqp "github.com/rabbitmq/amqp091-go"
)

// declareTopology declares the match exchange, the job queue and its dead-letter pair.
// Rejected jobs are dead-lettered instead of being lost.
func declareTopology(ch *amqp.Channel) error {
	exchanges := []struct {
		name string
		kind string
	}{
		{contracts.ExchangeMatchTopic, amqp.ExchangeTopic},
		{contracts.ExchangeMatchDead, amqp.ExchangeFanout},
	}
	for _, ex := range exchanges {
		if err := ch.ExchangeDeclare(ex.name, ex.kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	queues := []struct {
		name string
		args amqp.Table
	}{
		{contracts.QueueMatchJobs, amqp.Table{"x-dead-letter-exchange": contracts.ExchangeMatchDead}},
		{contracts.QueueMatchDead, nil},
	}
	for _, q := range queues {
		if _, err := ch.QueueDeclare(q.name, true, false, false, false, q.args); err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	bindings := []struct {
		queue      string
		exchange   string
		routingKey string
	}{
		{contracts.QueueMatchJobs, contracts.ExchangeMatchTopic, contracts.RouteMatchPrefix + "*"},
		{contracts.QueueMatchDead, contracts.ExchangeMatchDead, ""},
	}
	for _, b := range bindings {
		if err := ch.QueueBind(b.queue, b.routingKey, b.exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}
