package kafkat

//go:generate mockgen -source=kafka.go -destination=mock/kafka.go -package=mock_kafkat

import (
	"context"

	"github.com/segmentio/kafka-go"
)

type (
	MessageWriter interface {
		WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	}

	MessageReader interface {
		FetchMessage(ctx context.Context) (kafka.Message, error)
		CommitMessages(ctx context.Context, msgs ...kafka.Message) error
		Close() error
	}

	DeadLetterQueue interface {
		Send(ctx context.Context, msg kafka.Message, cause error, retryCount int) error
		ProcessWithRetry(
			ctx context.Context,
			msg kafka.Message,
			handler func(context.Context, kafka.Message) error,
		) error
	}
)
