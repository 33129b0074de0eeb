package kafkat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"motoka/pkg/kafka/dlq"
	"motoka/pkg/logger"

	"github.com/segmentio/kafka-go"
)

const _defaultRepublishTimeout = 10 * time.Second

// DLQProcessor drains the dead letter topic and re-publishes parked events to
// the topic they were meant for. Messages that keep failing are sent back with
// a higher retry count until maxRetries is reached, then dropped.
type DLQProcessor struct {
	reader     MessageReader
	writer     MessageWriter
	topic      string
	dlq        DeadLetterQueue
	maxRetries int
	log        logger.Logger
}

func NewDLQProcessor(
	reader MessageReader,
	writer MessageWriter,
	topic string,
	dlq DeadLetterQueue,
	maxRetries int,
	log logger.Logger,
) *DLQProcessor {
	return &DLQProcessor{
		reader:     reader,
		writer:     writer,
		topic:      topic,
		dlq:        dlq,
		maxRetries: maxRetries,
		log:        log,
	}
}

func (p *DLQProcessor) Start(ctx context.Context) error {
	const op = "transport.kafka.DLQProcessor.Start"

	defer func() {
		if err := p.reader.Close(); err != nil {
			p.log.Warnw("failed to close dlq reader", "op", op, "error", err)
		}
	}()

	for {
		msg, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.log.Infow("dlq processor shutting down")
				return nil
			}
			return fmt.Errorf("%s: fetch message: %w", op, err)
		}

		p.handle(ctx, msg)

		if err = p.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.log.Errorw("commit dlq message", "op", op, "offset", msg.Offset, "error", err)
		}
	}
}

func (p *DLQProcessor) handle(ctx context.Context, msg kafka.Message) {
	const op = "transport.kafka.DLQProcessor.handle"

	env, err := dlq.Decode(msg)
	if err != nil {
		p.log.Errorw("undecodable dlq message dropped", "op", op, "offset", msg.Offset, "error", err)
		return
	}

	if env.Metadata.OriginalTopic != p.topic {
		p.log.Debugw("dlq message for another topic skipped",
			"op", op,
			"original_topic", env.Metadata.OriginalTopic,
		)
		return
	}

	if env.Metadata.RetryCount >= p.maxRetries {
		p.log.Errorw("dlq message dropped after max retries",
			"op", op,
			"key", env.Key,
			"retry_count", env.Metadata.RetryCount,
			"last_error", env.Metadata.Error,
		)
		return
	}

	republishCtx, cancel := context.WithTimeout(ctx, _defaultRepublishTimeout)
	defer cancel()

	err = p.writer.WriteMessages(republishCtx, kafka.Message{
		Key:   []byte(env.Key),
		Value: env.Payload,
	})
	if err == nil {
		p.log.Infow("dlq message re-published",
			"op", op,
			"key", env.Key,
			"retry_count", env.Metadata.RetryCount,
		)
		return
	}
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return
	}

	retry := kafka.Message{Topic: p.topic, Key: []byte(env.Key), Value: env.Payload}
	if sendErr := p.dlq.Send(context.WithoutCancel(ctx), retry, err, env.Metadata.RetryCount+1); sendErr != nil {
		p.log.Errorw("failed to return message to dlq",
			"op", op,
			"key", env.Key,
			"error", sendErr,
		)
	}
}
