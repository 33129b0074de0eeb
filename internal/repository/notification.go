package repository

import (
	"context"
	"fmt"

	"motoka/internal/entity"
	"motoka/pkg/storage/postgres"

	"github.com/google/uuid"
)

type NotificationRepository struct {
	db *postgres.Postgres
}

func NewNotificationRepository(db *postgres.Postgres) *NotificationRepository {
	return &NotificationRepository{db}
}

func (nr *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	const op = "repository.notification.Create"

	id := n.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	query := nr.db.Builder.Insert("notifications").
		Columns("id", "user_id", "payment_id", "type", "title", "body").
		Values(id, n.UserID, n.PaymentID, n.Type, n.Title, n.Body)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("%s: building query: %w", op, err)
	}

	if _, err = nr.db.Pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("%s: exec: %w", op, err)
	}
	return nil
}
