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

// resourceTable maps a resource type onto the table owned by the vehicle or
// license module and the column shown to users as its label.
type resourceTable struct {
	name  string
	label string
}

var resourceTables = map[entity.ResourceType]resourceTable{
	entity.ResourceVehicle: {name: "vehicles", label: "plate_number"},
	entity.ResourceLicense: {name: "licenses", label: "license_number"},
}

type ResourceRepository struct {
	db *postgres.Postgres
}

func NewResourceRepository(db *postgres.Postgres) *ResourceRepository {
	return &ResourceRepository{db}
}

func (rr *ResourceRepository) GetByID(
	ctx context.Context,
	queryExecuter postgres.QueryExecuter,
	resourceType entity.ResourceType,
	id uuid.UUID,
) (*entity.Resource, error) {
	return rr.getOne(ctx, rr.db.Executer(queryExecuter), "repository.resource.GetByID",
		resourceType, squirrel.Eq{"id": id})
}

func (rr *ResourceRepository) GetBySlug(
	ctx context.Context,
	resourceType entity.ResourceType,
	slug string,
) (*entity.Resource, error) {
	return rr.getOne(ctx, rr.db.Pool, "repository.resource.GetBySlug", resourceType, squirrel.Eq{"slug": slug})
}

func (rr *ResourceRepository) getOne(
	ctx context.Context,
	queryExecuter postgres.QueryExecuter,
	op string,
	resourceType entity.ResourceType,
	where squirrel.Sqlizer,
) (*entity.Resource, error) {
	table, ok := resourceTables[resourceType]
	if !ok {
		return nil, fmt.Errorf("%s: resource type %q: %w", op, resourceType, entity.ErrInvalidData)
	}

	query := rr.db.Builder.Select("id", "slug", "user_id", table.label, "status", "expiry_date").
		From(table.name).
		Where(where).
		Limit(1)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	result := &entity.Resource{Type: resourceType}
	err = queryExecuter.QueryRow(ctx, sql, args...).Scan(
		&result.ID,
		&result.Slug,
		&result.UserID,
		&result.Label,
		&result.Status,
		&result.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrDataNotFound
		}
		return nil, fmt.Errorf("%s: query row: %w", op, err)
	}

	return result, nil
}

// Activate marks the resource active. Activating an already active resource is
// not an error.
func (rr *ResourceRepository) Activate(
	ctx context.Context,
	queryExecuter postgres.QueryExecuter,
	resourceType entity.ResourceType,
	id uuid.UUID,
) error {
	const op = "repository.resource.Activate"

	table, ok := resourceTables[resourceType]
	if !ok {
		return fmt.Errorf("%s: resource type %q: %w", op, resourceType, entity.ErrInvalidData)
	}

	query := rr.db.Builder.Update(table.name).
		Set("status", entity.ResourceStatusActive).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id})

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("%s: building query: %w", op, err)
	}

	tag, err := rr.db.Executer(queryExecuter).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("%s: exec: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrDataNotFound
	}

	return nil
}
