package transaction

import (
	"errors"
	"fmt"

	"motoka/internal/entity"
	"motoka/pkg/storage/postgres"

	"github.com/jackc/pgx/v5"
)

// HandleError annotates err with the transaction name and step, translating
// the PostgreSQL conditions callers branch on into entity errors. The original
// error stays in the chain so retry classification still sees it.
func HandleError(operation, step string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, entity.ErrDataNotFound),
		errors.Is(err, entity.ErrConflictingData),
		errors.Is(err, entity.ErrInvalidData):
		return fmt.Errorf("%s: %s: %w", operation, step, err)
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%s: %s: %w: %w", operation, step, entity.ErrDataNotFound, err)
	case postgres.IsUniqueViolation(err):
		return fmt.Errorf("%s: %s: %w: %w", operation, step, entity.ErrConflictingData, err)
	case postgres.ErrorCode(err) == postgres.ForeignKeyViolation,
		postgres.ErrorCode(err) == postgres.CheckViolation:
		return fmt.Errorf("%s: %s: %w: %w", operation, step, entity.ErrInvalidData, err)
	default:
		return fmt.Errorf("%s: %s: %w", operation, step, err)
	}
}
