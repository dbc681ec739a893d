package eventbus

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/ticketing-platform/core/internal/domain"
	"github.com/ticketing-platform/core/internal/repository"
)

// Publisher drains one outbox table on an interval, publishing each row
// with publisher confirms so a broker nack or unroutable message leaves
// the row unpublished for the next poll. At-least-once: a row may be
// published more than once across restarts, since the ack transaction
// is separate from the publish call. Every consumer is expected to
// dedup, per the platform's outbox contract.
type Publisher struct {
	ch     *amqp.Channel
	outbox *repository.OutboxRepo
	log    zerolog.Logger

	interval  time.Duration
	batchSize int

	confirms <-chan amqp.Confirmation
	returns  <-chan amqp.Return
}

// NewPublisher constructs a Publisher. ch must already have publisher
// confirms enabled (Confirm(false)) before being passed in, since the
// confirm/return channels are wired here.
func NewPublisher(ch *amqp.Channel, outbox *repository.OutboxRepo, interval time.Duration, batchSize int, log zerolog.Logger) *Publisher {
	if ch == nil || outbox == nil {
		panic("nil dependency passed to NewPublisher")
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Publisher{
		ch:        ch,
		outbox:    outbox,
		interval:  interval,
		batchSize: batchSize,
		confirms:  ch.NotifyPublish(make(chan amqp.Confirmation, batchSize)),
		returns:   ch.NotifyReturn(make(chan amqp.Return, batchSize)),
		log:       log.With().Str("component", "outbox_publisher").Logger(),
	}
}

// Run blocks, polling every interval until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.drainOnce(ctx); err != nil {
				p.log.Error().Err(err).Msg("outbox drain failed")
			}
		}
	}
}

func (p *Publisher) drainOnce(ctx context.Context) error {
	rows, err := p.outbox.PollUnpublished(ctx, p.batchSize)
	if err != nil {
		return domain.WrapError(domain.ErrCodeInfrastructure, "poll outbox", err)
	}
	for _, row := range rows {
		if err := p.publishOne(ctx, row); err != nil {
			// Leave the row unpublished; the next poll retries it. A single
			// bad row must not block the rest of the batch.
			p.log.Warn().Err(err).Str("event_id", row.EventID.String()).Msg("publish failed, will retry")
			continue
		}
	}
	return nil
}

func (p *Publisher) publishOne(ctx context.Context, row domain.OutboxRecord) error {
	env := domain.Envelope{
		EventID:     row.EventID.String(),
		EventType:   string(row.EventType),
		OccurredAt:  row.CreatedAt,
		AggregateID: row.AggregateID,
		Payload:     row.Payload,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return domain.WrapError(domain.ErrCodeInfrastructure, "marshal event envelope", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    row.EventID.String(),
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, EventsExchange, string(row.EventType), true, false, pub); err != nil {
		return err
	}

	select {
	case ret := <-p.returns:
		return domain.NewError(domain.ErrCodeInfrastructure, "message returned unroutable: "+ret.ReplyText)
	case conf := <-p.confirms:
		if !conf.Ack {
			return domain.NewError(domain.ErrCodeInfrastructure, "broker nacked publish")
		}
	case <-time.After(5 * time.Second):
		return domain.NewError(domain.ErrCodeInfrastructure, "timed out waiting for publisher confirm")
	}

	now := time.Now().UTC()
	if err := p.outbox.MarkPublished(ctx, row.EventID, now); err != nil {
		return domain.WrapError(domain.ErrCodeInfrastructure, "mark outbox row published", err)
	}
	return nil
}
