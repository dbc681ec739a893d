package eventbus

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/ticketing-platform/core/internal/domain"
	"github.com/ticketing-platform/core/internal/repository"
)

// retryCountHeader is the header this runtime stamps on every message it
// republishes after a transient failure. amqp091-go's nack-with-requeue
// puts the message back at the head of the same queue with no counter
// attached, so a bounded retry cap requires tracking the count
// ourselves rather than relying on a broker-native field.
const retryCountHeader = "x-ticketing-retry-count"

// Handler applies one event's domain effect. It runs inside the same
// transaction as the ConsumedEvent insert, so its own writes and the
// dedup marker commit atomically.
type Handler func(ctx context.Context, tx *sql.Tx, env domain.Envelope) error

// Consumer drives one durable queue: dedup via ConsumedEventRepo, bounded
// retries, then dead-letter. amqp091-go does not expose a native
// redelivery counter across requeues, so this runtime tracks attempts
// itself in the retryCountHeader it stamps on the copy it republishes
// after a transient failure.
type Consumer struct {
	db       *sql.DB
	consumed *repository.ConsumedEventRepo
	handler  Handler
	log      zerolog.Logger

	queueName string
	retryCap  int
	prefetch  int

	ch *amqp.Channel
}

// NewConsumer constructs a Consumer and panics if any dependency is
// nil.
func NewConsumer(db *sql.DB, consumed *repository.ConsumedEventRepo, queueName string, retryCap, prefetch int, handler Handler, log zerolog.Logger) *Consumer {
	if db == nil || consumed == nil || handler == nil {
		panic("nil dependency passed to NewConsumer")
	}
	if retryCap <= 0 {
		retryCap = 3
	}
	if prefetch <= 0 {
		prefetch = 10
	}
	return &Consumer{
		db:        db,
		consumed:  consumed,
		handler:   handler,
		queueName: queueName,
		retryCap:  retryCap,
		prefetch:  prefetch,
		log:       log.With().Str("component", "consumer").Str("queue", queueName).Logger(),
	}
}

// Run opens a channel, sets QoS to the configured prefetch, and
// processes deliveries until ctx is cancelled or the channel closes.
func (c *Consumer) Run(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()
	c.ch = ch

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return err
	}

	deliveries, err := ch.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.handleDelivery(ctx, d)
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var env domain.Envelope
	if err := json.Unmarshal(d.Body, &env); err != nil {
		c.log.Error().Err(err).Msg("invalid envelope, dead-lettering")
		_ = d.Nack(false, false)
		return
	}

	eventID, err := domain.ParseEventId(env.EventID)
	if err != nil {
		c.log.Error().Err(err).Msg("invalid event_id, dead-lettering")
		_ = d.Nack(false, false)
		return
	}

	err = c.processInTx(ctx, eventID, env)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case domain.IsRetryable(err):
		attempt := retryAttempt(d) + 1
		if attempt > c.retryCap {
			c.log.Warn().Err(err).Str("event_id", env.EventID).Int("attempt", attempt).Msg("retry cap exceeded, dead-lettering")
			_ = d.Nack(false, false)
			return
		}
		if rerr := c.requeueWithBackoff(ctx, d, attempt); rerr != nil {
			c.log.Error().Err(rerr).Str("event_id", env.EventID).Msg("requeue republish failed, dead-lettering")
			_ = d.Nack(false, false)
			return
		}
		c.log.Warn().Err(err).Str("event_id", env.EventID).Int("attempt", attempt).Msg("transient failure, requeueing")
		_ = d.Ack(false)
	default:
		c.log.Error().Err(err).Str("event_id", env.EventID).Msg("permanent failure, dead-lettering")
		_ = d.Nack(false, false)
	}
}

// requeueWithBackoff republishes an identical copy of the delivery
// stamped with the incremented retry count, after a short backoff
// proportional to the attempt number; the caller then acks the original.
// Ack-and-republish (rather than nack-with-requeue) is what lets this
// runtime own the retry counter instead of relying on a broker-native one.
func (c *Consumer) requeueWithBackoff(ctx context.Context, d amqp.Delivery, attempt int) error {
	backoff := time.Duration(attempt) * 500 * time.Millisecond
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(backoff):
	}

	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[retryCountHeader] = int32(attempt)

	pub := amqp.Publishing{
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    d.MessageId,
		Headers:      headers,
		Body:         d.Body,
	}
	return c.ch.PublishWithContext(ctx, EventsExchange, d.RoutingKey, false, false, pub)
}

// retryAttempt reads the retry count this runtime previously stamped on
// a redelivered message, 0 on first delivery.
func retryAttempt(d amqp.Delivery) int {
	v, ok := d.Headers[retryCountHeader]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int32:
		return int(n)
	case int64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

func (c *Consumer) processInTx(ctx context.Context, eventID domain.EventId, env domain.Envelope) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.WrapError(domain.ErrCodeInfrastructure, "begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	consumed, err := c.consumed.HasConsumedTx(ctx, tx, eventID)
	if err != nil {
		return domain.WrapError(domain.ErrCodeInfrastructure, "check consumed_events", err)
	}
	if consumed {
		// Silent dedup: commit the empty transaction and ack.
		return tx.Commit()
	}

	if err := c.handler(ctx, tx, env); err != nil {
		return err
	}

	if err := c.consumed.InsertTx(ctx, tx, domain.ConsumedEvent{
		EventID:    eventID,
		EventType:  domain.EventType(env.EventType),
		ConsumedAt: time.Now().UTC(),
	}); err != nil {
		return domain.WrapError(domain.ErrCodeInfrastructure, "insert consumed_events row", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.WrapError(domain.ErrCodeInfrastructure, "commit transaction", err)
	}
	return nil
}
