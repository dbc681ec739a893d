// Package eventbus wires the outbox pattern to a RabbitMQ topic
// exchange: a polling publisher drains each service's outbox table and
// a generic consumer runtime dedups, retries and dead-letters inbound
// deliveries.
package eventbus

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// EventsExchange is the single durable topic exchange every
	// publisher publishes to; routing key equals the event type.
	EventsExchange = "ticketing.events"
	// DeadLetterExchange receives messages a consumer could not process
	// after its retry cap, or that failed validation outright.
	DeadLetterExchange = "ticketing.dlx"
)

// QueueBinding names a durable consumer queue and the routing-key
// patterns it binds on the events exchange.
type QueueBinding struct {
	QueueName   string
	RoutingKeys []string
}

// DeclareTopology declares the events exchange, the dead-letter
// exchange, and one durable queue per binding, each bound to its own
// dead-letter queue on DeadLetterExchange. Idempotent: safe to call on
// every process start.
func DeclareTopology(ch *amqp.Channel, bindings []QueueBinding) error {
	if err := ch.ExchangeDeclare(EventsExchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	if err := ch.ExchangeDeclare(DeadLetterExchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	for _, b := range bindings {
		dlq := b.QueueName + ".dlq"
		if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
			return err
		}
		if err := ch.QueueBind(dlq, b.QueueName, DeadLetterExchange, false, nil); err != nil {
			return err
		}

		args := amqp.Table{
			"x-dead-letter-exchange":    DeadLetterExchange,
			"x-dead-letter-routing-key": b.QueueName,
		}
		if _, err := ch.QueueDeclare(b.QueueName, true, false, false, false, args); err != nil {
			return err
		}
		for _, rk := range b.RoutingKeys {
			if err := ch.QueueBind(b.QueueName, rk, EventsExchange, false, nil); err != nil {
				return err
			}
		}
	}
	return nil
}
