package dlq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"motoka/internal/config"
	"motoka/pkg/logger"
	"motoka/pkg/metric"

	"github.com/segmentio/kafka-go"
)

const (
	_defaultMaxAttempts    = 10
	_defaultBaseRetryDelay = 100 * time.Millisecond
	_defaultMaxRetryDelay  = 5 * time.Second

	_backoffMultiplier = 2
)

// Metadata describes where a dead-lettered message came from and why it failed.
type Metadata struct {
	OriginalTopic string    `json:"original_topic"`
	Partition     int       `json:"partition"`
	Offset        int64     `json:"offset"`
	RetryCount    int       `json:"retry_count"`
	Error         string    `json:"error"`
	Timestamp     time.Time `json:"timestamp"`
}

// Envelope is the value written to the DLQ topic.
type Envelope struct {
	Metadata Metadata        `json:"metadata"`
	Key      string          `json:"key"`
	Payload  json.RawMessage `json:"payload"`
}

type DLQ struct {
	writer  *kafka.Writer
	log     logger.Logger
	metrics metric.DLQ

	MaxAttempts    int
	baseRetryDelay time.Duration
	maxRetryDelay  time.Duration
}

func NewDLQ(cfg config.DLQ, log logger.Logger, metrics metric.DLQ, opts ...Option) (*DLQ, error) {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Async:                  false,
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
		ReadTimeout:            cfg.ReadTimeout,
		AllowAutoTopicCreation: true,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			log.LogAttrs(context.Background(), logger.ErrorLevel, "dlq writer error",
				logger.String("error", fmt.Sprintf(msg, args...)),
			)
		}),
	}

	dlq := &DLQ{
		writer:  writer,
		log:     log,
		metrics: metrics,

		MaxAttempts:    _defaultMaxAttempts,
		baseRetryDelay: _defaultBaseRetryDelay,
		maxRetryDelay:  _defaultMaxRetryDelay,
	}

	for _, opt := range opts {
		opt(dlq)
	}

	if err := dlq.validate(); err != nil {
		return nil, fmt.Errorf("kafka.dlq.NewDLQ: validation: %w", err)
	}

	return dlq, nil
}

func (d *DLQ) Topic() string {
	return d.writer.Topic
}

func (d *DLQ) Close() error {
	if err := d.writer.Close(); err != nil {
		return fmt.Errorf("kafka.dlq.Close: %w", err)
	}
	return nil
}

// Send wraps msg in an Envelope and writes it to the DLQ topic. Payloads that
// are not valid JSON are stored as a JSON string.
func (d *DLQ) Send(
	ctx context.Context,
	msg kafka.Message,
	cause error,
	retryCount int,
) error {
	const op = "kafka.dlq.Send"

	payload := json.RawMessage(msg.Value)
	if !json.Valid(msg.Value) {
		quoted, err := json.Marshal(string(msg.Value))
		if err != nil {
			return fmt.Errorf("%s: quote payload: %w", op, err)
		}
		payload = quoted
	}

	errText := "unknown"
	if cause != nil {
		errText = cause.Error()
	}

	value, err := json.Marshal(Envelope{
		Metadata: Metadata{
			OriginalTopic: msg.Topic,
			Partition:     msg.Partition,
			Offset:        msg.Offset,
			RetryCount:    retryCount,
			Error:         errText,
			Timestamp:     time.Now().UTC(),
		},
		Key:     string(msg.Key),
		Payload: payload,
	})
	if err != nil {
		d.metrics.DLError(d.writer.Topic, "marshal_failed")
		return fmt.Errorf("%s: marshal envelope: %w", op, err)
	}

	if err = d.writer.WriteMessages(ctx, kafka.Message{
		Key:   msg.Key,
		Value: value,
	}); err != nil {
		d.log.Errorw("failed to send message to dlq",
			"op", op,
			"error", err,
			"key", string(msg.Key),
		)
		d.metrics.DLError(d.writer.Topic, "write_failed")

		return fmt.Errorf("%s: send message: %w", op, err)
	}

	d.metrics.DLSent(d.writer.Topic, msg.Topic, retryCount)
	d.log.Warnw("message sent to dlq",
		"op", op,
		"topic", d.writer.Topic,
		"original_topic", msg.Topic,
		"key", string(msg.Key),
		"retry_count", retryCount,
	)

	return nil
}

// Decode parses a message read from the DLQ topic.
func Decode(msg kafka.Message) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, fmt.Errorf("kafka.dlq.Decode: %w", err)
	}
	if env.Metadata.OriginalTopic == "" {
		return nil, errors.New("kafka.dlq.Decode: envelope has no original topic")
	}
	return &env, nil
}

// ProcessWithRetry calls handler until it succeeds or MaxAttempts is reached,
// backing off with jitter between attempts. The message is dead-lettered once
// attempts are exhausted.
func (d *DLQ) ProcessWithRetry(
	ctx context.Context,
	msg kafka.Message,
	handler func(context.Context, kafka.Message) error,
) error {
	const op = "kafka.dlq.ProcessWithRetry"

	var err error
	currentBackoff := d.baseRetryDelay
	for attempt := 1; attempt <= d.MaxAttempts; attempt++ {
		if attempt > 1 {
			jitter := time.Duration(
				rand.Int64N(int64(currentBackoff * _backoffMultiplier)),
			)
			if jitter > d.maxRetryDelay {
				jitter = d.maxRetryDelay
			}

			d.log.LogAttrs(ctx, logger.DebugLevel, "retrying message processing",
				logger.String("operation", op),
				logger.Int("attempt", attempt),
				logger.String("retry_after", jitter.String()),
			)

			timer := time.NewTimer(jitter)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("%s: context done: %w", op, ctx.Err())
			}

			currentBackoff = min(currentBackoff*_backoffMultiplier, d.maxRetryDelay)
		}

		if err = handler(ctx, msg); err == nil {
			return nil
		}

		d.log.LogAttrs(ctx, logger.WarnLevel, "message processing failed",
			logger.String("operation", op),
			logger.String("topic", msg.Topic),
			logger.String("key", string(msg.Key)),
			logger.Int("attempt", attempt),
			logger.Err(err),
		)
	}

	d.metrics.DLRetryCount(msg.Topic, d.MaxAttempts)
	return d.Send(context.WithoutCancel(ctx), msg, err, d.MaxAttempts)
}
