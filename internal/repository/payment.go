package repository

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"motoka/internal/entity"
	"motoka/pkg/storage/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	_transactionIDPrefix = "MTK-"
	_transactionIDLength = 20
	_slugBytes           = 16
	_createAttempts      = 3
)

var paymentColumns = []string{
	"id", "transaction_id", "slug", "user_id", "resource_type", "resource_id",
	"amount", "currency", "status", "gateway", "provider_reference", "raw_response",
	"line_items", "metadata", "created_at", "updated_at", "completed_at",
}

type PaymentRepository struct {
	db *postgres.Postgres
}

func NewPaymentRepository(db *postgres.Postgres) *PaymentRepository {
	return &PaymentRepository{db}
}

// Create allocates the transaction id and slug and stores the payment as
// pending. The amount must already equal the line items plus delivery fee.
func (pr *PaymentRepository) Create(
	ctx context.Context,
	payment *entity.Payment,
) (*entity.Payment, error) {
	const op = "repository.payment.Create"

	if payment.TransactionID != "" {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrTransactionIDImmutable)
	}
	if !payment.Amount.Equal(payment.ExpectedAmount()) {
		return nil, fmt.Errorf("%s: amount %s, line items %s: %w",
			op, payment.Amount, payment.ExpectedAmount(), entity.ErrAmountMismatch)
	}
	if payment.UserID == uuid.Nil || payment.ResourceID == uuid.Nil {
		return nil, fmt.Errorf("%s: owner and resource are required: %w", op, entity.ErrInvalidData)
	}

	var lastErr error
	for range _createAttempts {
		txID, slug, err := newIdentifiers()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		result, err := pr.insert(ctx, payment, txID, slug)
		if err == nil {
			return result, nil
		}
		if !postgres.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%s: query row: %w", op, err)
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%s: identifier collision: %w: %w", op, entity.ErrConflictingData, lastErr)
}

func (pr *PaymentRepository) insert(
	ctx context.Context,
	payment *entity.Payment,
	txID, slug string,
) (*entity.Payment, error) {
	id := payment.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	query := pr.db.Builder.Insert("payments").
		Columns("id", "transaction_id", "slug", "user_id", "resource_type", "resource_id",
			"amount", "currency", "status", "gateway", "line_items", "metadata").
		Values(
			id,
			txID,
			slug,
			payment.UserID,
			payment.ResourceType,
			payment.ResourceID,
			payment.Amount,
			payment.Currency,
			entity.PaymentPending,
			payment.Gateway,
			payment.LineItems,
			payment.Metadata,
		).
		Suffix("RETURNING " + columnList(paymentColumns))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	return scanPayment(pr.db.Pool.QueryRow(ctx, sql, args...))
}

// FindByTransactionOrProviderReference resolves a payment from either key a
// gateway may echo back.
func (pr *PaymentRepository) FindByTransactionOrProviderReference(
	ctx context.Context,
	key string,
) (*entity.Payment, error) {
	const op = "repository.payment.FindByTransactionOrProviderReference"

	return pr.getOne(ctx, op, squirrel.Or{
		squirrel.Eq{"transaction_id": key},
		squirrel.Eq{"provider_reference": key},
	})
}

func (pr *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	return pr.getOne(ctx, "repository.payment.GetByID", squirrel.Eq{"id": id})
}

func (pr *PaymentRepository) GetBySlug(ctx context.Context, slug string) (*entity.Payment, error) {
	return pr.getOne(ctx, "repository.payment.GetBySlug", squirrel.Eq{"slug": slug})
}

func (pr *PaymentRepository) getOne(ctx context.Context, op string, where squirrel.Sqlizer) (*entity.Payment, error) {
	query := pr.db.Builder.Select(paymentColumns...).
		From("payments").
		Where(where).
		OrderBy("created_at DESC").
		Limit(1)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	result, err := scanPayment(pr.db.Pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrDataNotFound
		}
		return nil, fmt.Errorf("%s: query row: %w", op, err)
	}

	return result, nil
}

// CompareAndTransition moves the payment to next only while its status is one
// of expected, in a single conditional UPDATE. When no row matches, the current
// row is returned with changed=false. The provider reference is only written
// while it is still empty.
func (pr *PaymentRepository) CompareAndTransition(
	ctx context.Context,
	id uuid.UUID,
	expected []entity.PaymentStatus,
	next entity.PaymentStatus,
	patch entity.PaymentPatch,
) (*entity.Payment, bool, error) {
	const op = "repository.payment.CompareAndTransition"

	if err := entity.ValidateTransition(expected, next); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	statuses := make([]string, 0, len(expected))
	for _, s := range expected {
		statuses = append(statuses, string(s))
	}

	query := pr.db.Builder.Update("payments").
		Set("status", next).
		Set("updated_at", squirrel.Expr("now()")).
		Set("raw_response", squirrel.Expr("COALESCE(?::jsonb, raw_response)", nullableJSON(patch.RawResponse))).
		Set("provider_reference", squirrel.Expr("COALESCE(provider_reference, ?)", patch.ProviderReference)).
		Where(squirrel.Eq{"id": id}).
		Where("status = ANY(?)", statuses).
		Suffix("RETURNING " + columnList(paymentColumns))

	if next == entity.PaymentCompleted {
		query = query.Set("completed_at", squirrel.Expr("COALESCE(completed_at, now())"))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("%s: building query: %w", op, err)
	}

	result, err := scanPayment(pr.db.Pool.QueryRow(ctx, sql, args...))
	if err == nil {
		return result, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("%s: query row: %w", op, err)
	}

	current, err := pr.GetByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("%s: load current: %w", op, err)
	}
	return current, false, nil
}

// ListPendingForSweep returns pending payments that reached a gateway and were
// created after createdAfter, oldest first.
func (pr *PaymentRepository) ListPendingForSweep(
	ctx context.Context,
	createdAfter time.Time,
	limit int,
) ([]*entity.Payment, error) {
	const op = "repository.payment.ListPendingForSweep"

	query := pr.db.Builder.Select(paymentColumns...).
		From("payments").
		Where(squirrel.Eq{"status": entity.PaymentPending}).
		Where(squirrel.NotEq{"provider_reference": nil}).
		Where(squirrel.Gt{"created_at": createdAfter}).
		OrderBy("created_at ASC").
		Limit(uint64(limit))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	rows, err := pr.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: row scan: %w", op, err)
		}
		payments = append(payments, p)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: rows final error: %w", op, rows.Err())
	}

	return payments, nil
}

func scanPayment(row pgx.Row) (*entity.Payment, error) {
	p := &entity.Payment{}
	var raw []byte
	err := row.Scan(
		&p.ID,
		&p.TransactionID,
		&p.Slug,
		&p.UserID,
		&p.ResourceType,
		&p.ResourceID,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.Gateway,
		&p.ProviderReference,
		&raw,
		&p.LineItems,
		&p.Metadata,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	p.RawResponse = raw
	return p, nil
}

func newIdentifiers() (string, string, error) {
	buf := make([]byte, _slugBytes+_transactionIDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate identifiers: %w", err)
	}

	slug := hex.EncodeToString(buf[:_slugBytes])
	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf[_slugBytes:])

	return _transactionIDPrefix + encoded[:_transactionIDLength], slug, nil
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
