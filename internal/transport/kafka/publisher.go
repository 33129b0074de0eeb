package kafkat

import (
	"context"
	"encoding/json"
	"fmt"

	"motoka/internal/entity"
	"motoka/pkg/logger"
	"motoka/pkg/metric"

	"github.com/segmentio/kafka-go"
)

// Publisher emits payment.completed events. Events that cannot be written
// after the dead letter queue's retry policy are parked in the DLQ.
type Publisher struct {
	writer  MessageWriter
	topic   string
	dlq     DeadLetterQueue
	metrics metric.Publisher
	log     logger.Logger
}

func NewPublisher(
	writer MessageWriter,
	topic string,
	dlq DeadLetterQueue,
	metrics metric.Publisher,
	log logger.Logger,
) *Publisher {
	return &Publisher{
		writer:  writer,
		topic:   topic,
		dlq:     dlq,
		metrics: metrics,
		log:     log,
	}
}

func (p *Publisher) PublishPaymentCompleted(ctx context.Context, event *entity.PaymentCompletedEvent) error {
	const op = "transport.kafka.Publisher.PublishPaymentCompleted"

	value, err := json.Marshal(event)
	if err != nil {
		p.metrics.MessageFailed(p.topic, "marshal_failed")
		return fmt.Errorf("%s: marshal event: %w", op, err)
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.PaymentID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.EventID.String())},
		},
	}

	var published bool
	err = p.dlq.ProcessWithRetry(ctx, msg, func(ctx context.Context, m kafka.Message) error {
		if writeErr := p.write(ctx, m); writeErr != nil {
			return writeErr
		}
		published = true
		return nil
	})

	switch {
	case published:
		p.metrics.MessagePublished(p.topic)
		p.log.LogAttrs(ctx, logger.DebugLevel, "payment completed event published",
			logger.String("op", op),
			logger.String("topic", p.topic),
			logger.String("payment_id", event.PaymentID.String()),
			logger.String("event_id", event.EventID.String()),
		)
		return nil
	case err != nil:
		p.metrics.MessageFailed(p.topic, "dlq_failed")
		return fmt.Errorf("%s: %w", op, err)
	default:
		p.metrics.MessageFailed(p.topic, "dead_lettered")
		p.log.LogAttrs(ctx, logger.WarnLevel, "payment completed event dead-lettered",
			logger.String("op", op),
			logger.String("payment_id", event.PaymentID.String()),
			logger.String("event_id", event.EventID.String()),
		)
		return nil
	}
}

// write drops the topic since the writer is bound to one.
func (p *Publisher) write(ctx context.Context, msg kafka.Message) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: msg.Headers,
	})
}
