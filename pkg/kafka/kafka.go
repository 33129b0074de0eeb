package kafka

import (
	"context"
	"fmt"

	"motoka/internal/config"
	"motoka/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// NewWriter returns a synchronous writer for the payment events topic.
// Messages are balanced by key so all events of one payment land on one partition.
func NewWriter(cfg config.Kafka, log logger.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
		Logger:                 infoLogger(log, "kafka writer info", cfg.Topic),
		ErrorLogger:            errorLogger(log, "kafka writer error", cfg.Topic),
	}
}

func NewReader(brokers []string, topic, groupID string, log logger.Logger) (*kafka.Reader, error) {
	if err := CheckConnection(brokers, log); err != nil {
		return nil, err
	}

	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		Logger:      infoLogger(log, "kafka reader info", topic),
		ErrorLogger: errorLogger(log, "kafka reader error", topic),
	}), nil
}

func CheckConnection(brokers []string, log logger.Logger) error {
	const op = "kafka.CheckConnection"

	dialer := &kafka.Dialer{}
	for _, broker := range brokers {
		conn, err := dialer.Dial("tcp", broker)
		if err != nil {
			return fmt.Errorf("%s: connect to %s: %w", op, broker, err)
		}

		if err = conn.Close(); err != nil {
			log.Warnw("failed to close connection",
				"operation", op,
				"broker", broker,
				"error", err)
		}
	}
	return nil
}

func infoLogger(log logger.Logger, msg, topic string) kafka.LoggerFunc {
	return func(format string, args ...any) {
		log.LogAttrs(context.Background(), logger.DebugLevel, msg,
			logger.String("topic", topic),
			logger.String("message", fmt.Sprintf(format, args...)),
		)
	}
}

func errorLogger(log logger.Logger, msg, topic string) kafka.LoggerFunc {
	return func(format string, args ...any) {
		log.LogAttrs(context.Background(), logger.ErrorLevel, msg,
			logger.String("topic", topic),
			logger.String("error", fmt.Sprintf(format, args...)),
		)
	}
}
