package transaction

import (
	"errors"
	"testing"

	"motoka/internal/entity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestHandleError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		wantIs  error
		wantNil bool
	}{
		{name: "nil error", err: nil, wantNil: true},
		{name: "no rows", err: pgx.ErrNoRows, wantIs: entity.ErrDataNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, wantIs: entity.ErrConflictingData},
		{name: "foreign key violation", err: &pgconn.PgError{Code: "23503"}, wantIs: entity.ErrInvalidData},
		{name: "already mapped", err: entity.ErrDataNotFound, wantIs: entity.ErrDataNotFound},
		{name: "unknown error", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := HandleError("payment.create", "insert", tt.err)
			if tt.wantNil {
				assert.NoError(t, got)
				return
			}

			assert.Error(t, got)
			assert.Contains(t, got.Error(), "payment.create: insert")
			assert.ErrorIs(t, got, tt.err)
			if tt.wantIs != nil {
				assert.ErrorIs(t, got, tt.wantIs)
			}
		})
	}
}

func TestIsRetryableError(t *testing.T) {
	t.Parallel()

	assert.True(t, isRetryableError(&pgconn.PgError{Code: "40001"}))
	assert.True(t, isRetryableError(HandleError("op", "execute", &pgconn.PgError{Code: "40P01"})))
	assert.False(t, isRetryableError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isRetryableError(errors.New("boom")))
	assert.True(t, isRetryableError(pgx.ErrTxClosed))
}
