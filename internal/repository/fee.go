package repository

import (
	"context"
	"errors"
	"fmt"

	"motoka/internal/entity"
	"motoka/pkg/storage/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

type FeeRepository struct {
	db *postgres.Postgres
}

func NewFeeRepository(db *postgres.Postgres) *FeeRepository {
	return &FeeRepository{db}
}

func (fr *FeeRepository) GetFeeSchedule(ctx context.Context, id int64) (*entity.FeeSchedule, error) {
	const op = "repository.fee.GetFeeSchedule"

	query := fr.db.Builder.Select("id", "name", "amount", "active").
		From("fee_schedules").
		Where(squirrel.Eq{"id": id})

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	result := &entity.FeeSchedule{}
	err = fr.db.Pool.QueryRow(ctx, sql, args...).Scan(
		&result.ID,
		&result.Name,
		&result.Amount,
		&result.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrDataNotFound
		}
		return nil, fmt.Errorf("%s: query row: %w", op, err)
	}

	return result, nil
}

// GetDeliveryFee prefers the fee configured for the LGA and falls back to the
// state-wide fee.
func (fr *FeeRepository) GetDeliveryFee(
	ctx context.Context,
	stateID int64,
	lgaID *int64,
) (*entity.DeliveryFee, error) {
	const op = "repository.fee.GetDeliveryFee"

	scope := squirrel.Or{squirrel.Eq{"lga_id": nil}}
	if lgaID != nil {
		scope = append(scope, squirrel.Eq{"lga_id": *lgaID})
	}

	query := fr.db.Builder.Select("state_id", "lga_id", "amount").
		From("delivery_fees").
		Where(squirrel.Eq{"state_id": stateID}).
		Where(scope).
		OrderBy("lga_id NULLS LAST").
		Limit(1)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	result := &entity.DeliveryFee{}
	err = fr.db.Pool.QueryRow(ctx, sql, args...).Scan(
		&result.StateID,
		&result.LGAID,
		&result.Amount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrDataNotFound
		}
		return nil, fmt.Errorf("%s: query row: %w", op, err)
	}

	return result, nil
}
