package repository

import (
	"context"
	"errors"
	"fmt"

	"motoka/internal/entity"
	"motoka/pkg/storage/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var orderColumns = []string{
	"id", "payment_id", "user_id", "resource_type", "resource_id", "order_type", "amount",
	"delivery_address", "delivery_contact", "state_id", "lga_id", "delivery_fee", "status", "created_at",
}

type OrderRepository struct {
	db *postgres.Postgres
}

func NewOrderRepository(db *postgres.Postgres) *OrderRepository {
	return &OrderRepository{db}
}

// Create inserts the order. An order already present for the payment surfaces
// as entity.ErrConflictingData without aborting the surrounding transaction.
func (r *OrderRepository) Create(
	ctx context.Context,
	queryExecuter postgres.QueryExecuter,
	order *entity.Order,
) (*entity.Order, error) {
	const op = "repository.order.Create"

	id := order.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	query := r.db.Builder.Insert("orders").
		Columns("id", "payment_id", "user_id", "resource_type", "resource_id", "order_type", "amount",
			"delivery_address", "delivery_contact", "state_id", "lga_id", "delivery_fee", "status").
		Values(
			id,
			order.PaymentID,
			order.UserID,
			order.ResourceType,
			order.ResourceID,
			order.OrderType,
			order.Amount,
			order.DeliveryAddress,
			order.DeliveryContact,
			order.StateID,
			order.LGAID,
			order.DeliveryFee,
			order.Status,
		).
		Suffix("ON CONFLICT (payment_id) DO NOTHING RETURNING " + columnList(orderColumns))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	result, err := scanOrder(r.db.Executer(queryExecuter).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || postgres.IsUniqueViolation(err) {
			return nil, entity.ErrConflictingData
		}
		return nil, fmt.Errorf("%s: query row: %w", op, err)
	}

	return result, nil
}

func (r *OrderRepository) GetByPaymentID(
	ctx context.Context,
	queryExecuter postgres.QueryExecuter,
	paymentID uuid.UUID,
) (*entity.Order, error) {
	const op = "repository.order.GetByPaymentID"

	queryExecuter = r.db.Executer(queryExecuter)

	query := r.db.Builder.Select(orderColumns...).
		From("orders").
		Where(squirrel.Eq{"payment_id": paymentID}).
		Limit(1)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	result, err := scanOrder(queryExecuter.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrDataNotFound
		}
		return nil, fmt.Errorf("%s: query row: %w", op, err)
	}

	return result, nil
}

func scanOrder(row pgx.Row) (*entity.Order, error) {
	o := &entity.Order{}
	err := row.Scan(
		&o.ID,
		&o.PaymentID,
		&o.UserID,
		&o.ResourceType,
		&o.ResourceID,
		&o.OrderType,
		&o.Amount,
		&o.DeliveryAddress,
		&o.DeliveryContact,
		&o.StateID,
		&o.LGAID,
		&o.DeliveryFee,
		&o.Status,
		&o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}
