package service

//go:generate mockgen -source=interfaces.go -destination=../repository/mock/repository.go -package=mock_repository

import (
	"context"
	"time"

	"motoka/internal/entity"
	"motoka/pkg/storage/postgres"

	"github.com/google/uuid"
)

type (
	PaymentStore interface {
		Create(ctx context.Context, payment *entity.Payment) (*entity.Payment, error)
		FindByTransactionOrProviderReference(ctx context.Context, key string) (*entity.Payment, error)
		GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
		GetBySlug(ctx context.Context, slug string) (*entity.Payment, error)
		CompareAndTransition(
			ctx context.Context,
			id uuid.UUID,
			expected []entity.PaymentStatus,
			next entity.PaymentStatus,
			patch entity.PaymentPatch,
		) (*entity.Payment, bool, error)
		ListPendingForSweep(ctx context.Context, createdAfter time.Time, limit int) ([]*entity.Payment, error)
	}

	OrderRepository interface {
		Create(
			ctx context.Context,
			queryExecuter postgres.QueryExecuter,
			order *entity.Order,
		) (*entity.Order, error)
		GetByPaymentID(
			ctx context.Context,
			queryExecuter postgres.QueryExecuter,
			paymentID uuid.UUID,
		) (*entity.Order, error)
	}

	ResourceRepository interface {
		GetByID(
			ctx context.Context,
			queryExecuter postgres.QueryExecuter,
			resourceType entity.ResourceType,
			id uuid.UUID,
		) (*entity.Resource, error)
		GetBySlug(ctx context.Context, resourceType entity.ResourceType, slug string) (*entity.Resource, error)
		Activate(
			ctx context.Context,
			queryExecuter postgres.QueryExecuter,
			resourceType entity.ResourceType,
			id uuid.UUID,
		) error
	}

	FeeRepository interface {
		GetFeeSchedule(ctx context.Context, id int64) (*entity.FeeSchedule, error)
		GetDeliveryFee(ctx context.Context, stateID int64, lgaID *int64) (*entity.DeliveryFee, error)
	}

	ReminderRepository interface {
		Upsert(ctx context.Context, reminder *entity.Reminder) error
		Delete(ctx context.Context, resourceType entity.ResourceType, resourceID uuid.UUID) error
	}

	NotificationRepository interface {
		Create(ctx context.Context, notification *entity.Notification) error
	}

	EventPublisher interface {
		PublishPaymentCompleted(ctx context.Context, event *entity.PaymentCompletedEvent) error
	}
)
