package repository

import (
	"context"
	"fmt"

	"motoka/internal/entity"
	"motoka/pkg/storage/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

type ReminderRepository struct {
	db *postgres.Postgres
}

func NewReminderRepository(db *postgres.Postgres) *ReminderRepository {
	return &ReminderRepository{db}
}

// Upsert keeps one reminder per resource.
func (rr *ReminderRepository) Upsert(ctx context.Context, reminder *entity.Reminder) error {
	const op = "repository.reminder.Upsert"

	query := rr.db.Builder.Insert("reminders").
		Columns("resource_type", "resource_id", "user_id", "message", "days_left", "remind_at").
		Values(
			reminder.ResourceType,
			reminder.ResourceID,
			reminder.UserID,
			reminder.Message,
			reminder.DaysLeft,
			reminder.RemindAt,
		).
		Suffix(`ON CONFLICT (resource_type, resource_id) DO UPDATE SET
			message = EXCLUDED.message,
			days_left = EXCLUDED.days_left,
			remind_at = EXCLUDED.remind_at,
			updated_at = now()`)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("%s: building query: %w", op, err)
	}

	if _, err = rr.db.Pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("%s: exec: %w", op, err)
	}
	return nil
}

func (rr *ReminderRepository) Delete(
	ctx context.Context,
	resourceType entity.ResourceType,
	resourceID uuid.UUID,
) error {
	const op = "repository.reminder.Delete"

	query := rr.db.Builder.Delete("reminders").
		Where(squirrel.Eq{"resource_type": resourceType, "resource_id": resourceID})

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("%s: building query: %w", op, err)
	}

	if _, err = rr.db.Pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("%s: exec: %w", op, err)
	}
	return nil
}
